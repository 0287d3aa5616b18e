package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

// Event types the entitlement state machine reacts to.
const (
	EventCheckoutSessionCompleted    = "checkout.session.completed"
	EventCustomerSubscriptionDeleted = "customer.subscription.deleted"
)

// Verifier authenticates raw webhook payloads against the endpoint secret.
type Verifier struct {
	secret string
}

// NewVerifier returns a Verifier for the given signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

type checkoutSession struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

type subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

// Verify checks the Stripe-Signature header over the exact payload bytes and
// decodes the event. Any failure is a verification error; nothing in an
// unverified payload is trusted.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (models.PaymentEvent, error) {
	if strings.TrimSpace(v.secret) == "" {
		return models.PaymentEvent{}, apperr.Verification(errors.New("webhook secret not configured"))
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return models.PaymentEvent{}, apperr.Verification(errors.New("missing Stripe-Signature header"))
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return models.PaymentEvent{}, apperr.Verification(err)
	}

	out := models.PaymentEvent{
		ID:        event.ID,
		Type:      string(event.Type),
		Kind:      models.PaymentEventIgnored,
		CreatedAt: time.Unix(event.Created, 0).UTC(),
	}
	if event.Data == nil {
		return out, nil
	}

	switch string(event.Type) {
	case EventCheckoutSessionCompleted:
		var session checkoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return models.PaymentEvent{}, apperr.Verification(fmt.Errorf("decode checkout session: %w", err))
		}
		out.Kind = models.PaymentEventCheckoutCompleted
		out.UserID = strings.TrimSpace(session.Metadata[MetadataUserID])
		if out.UserID == "" {
			out.UserID = strings.TrimSpace(session.ClientReferenceID)
		}
		out.CustomerID = strings.TrimSpace(session.Customer)

	case EventCustomerSubscriptionDeleted:
		var sub subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return models.PaymentEvent{}, apperr.Verification(fmt.Errorf("decode subscription: %w", err))
		}
		out.Kind = models.PaymentEventSubscriptionDeleted
		out.CustomerID = strings.TrimSpace(sub.Customer)
	}

	return out, nil
}
