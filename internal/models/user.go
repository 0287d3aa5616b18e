package models

import "time"

// User is the entitlement record for a caller. Rows are written only by
// payment-event transitions.
type User struct {
	ID                 string     `json:"id"`
	IsPro              bool       `json:"isPro"`
	PaymentCustomerID  *string    `json:"paymentCustomerId,omitempty"`
	EntitlementEventAt *time.Time `json:"entitlementEventAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// UserStatus is the public view returned by /api/user/status.
type UserStatus struct {
	UserID string `json:"userId"`
	IsPro  bool   `json:"isPro"`
}
