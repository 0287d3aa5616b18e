package models

import "time"

// PaymentEventKind is the normalised meaning of a verified billing event.
type PaymentEventKind string

const (
	PaymentEventCheckoutCompleted   PaymentEventKind = "checkout_completed"
	PaymentEventSubscriptionDeleted PaymentEventKind = "subscription_deleted"
	PaymentEventIgnored             PaymentEventKind = "ignored"
)

// PaymentEvent is a verified, decoded provider webhook. Checkout events carry
// UserID and CustomerID; deletions carry only CustomerID.
type PaymentEvent struct {
	ID         string
	Kind       PaymentEventKind
	Type       string
	UserID     string
	CustomerID string
	CreatedAt  time.Time
}

// CheckoutRequest starts a hosted subscription checkout.
type CheckoutRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// CheckoutResponse carries the redirect target for the hosted checkout.
type CheckoutResponse struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"url"`
}
