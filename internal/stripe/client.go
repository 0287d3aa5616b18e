package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

// MetadataUserID is the metadata key carrying the internal user id on both the
// checkout session and the subscription it creates.
const MetadataUserID = "userId"

// CheckoutClient creates hosted subscription checkout sessions for a single price.
type CheckoutClient struct {
	priceID     string
	frontendURL string

	createSession func(params *stripelib.CheckoutSessionParams) (*stripelib.CheckoutSession, error)
}

// NewCheckoutClient builds a client authenticated with secretKey.
func NewCheckoutClient(secretKey, priceID, frontendURL string) *CheckoutClient {
	api := client.New(secretKey, nil)
	return &CheckoutClient{
		priceID:       priceID,
		frontendURL:   strings.TrimRight(frontendURL, "/"),
		createSession: api.CheckoutSessions.New,
	}
}

// SuccessURL is where the hosted page redirects after payment.
func (c *CheckoutClient) SuccessURL() string {
	return c.frontendURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL is where the hosted page redirects when the user backs out.
func (c *CheckoutClient) CancelURL() string {
	return c.frontendURL + "/billing/cancel"
}

// CreateCheckoutSession starts a subscription checkout tagged with the caller's
// user id. It changes no local state; entitlement follows from the webhook.
func (c *CheckoutClient) CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (models.CheckoutResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return models.CheckoutResponse{}, apperr.Validation("email is required")
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return models.CheckoutResponse{}, apperr.Validation("userId is required")
	}
	if c.priceID == "" {
		return models.CheckoutResponse{}, apperr.Upstream("stripe: create checkout session", "failed to create checkout session", errors.New("price id not configured"))
	}

	params := &stripelib.CheckoutSessionParams{
		Mode:              stripelib.String(string(stripelib.CheckoutSessionModeSubscription)),
		SuccessURL:        stripelib.String(c.SuccessURL()),
		CancelURL:         stripelib.String(c.CancelURL()),
		CustomerEmail:     stripelib.String(email),
		ClientReferenceID: stripelib.String(userID),
		LineItems: []*stripelib.CheckoutSessionLineItemParams{
			{
				Price:    stripelib.String(c.priceID),
				Quantity: stripelib.Int64(1),
			},
		},
		SubscriptionData: &stripelib.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataUserID: userID},
		},
		Metadata: map[string]string{MetadataUserID: userID},
	}
	params.Context = ctx

	session, err := c.createSession(params)
	if err != nil {
		return models.CheckoutResponse{}, apperr.Upstream("stripe: create checkout session", "failed to create checkout session", err)
	}
	if session == nil || session.ID == "" {
		return models.CheckoutResponse{}, apperr.Upstream("stripe: create checkout session", "failed to create checkout session", fmt.Errorf("missing session id in response"))
	}

	return models.CheckoutResponse{SessionID: session.ID, SessionURL: session.URL}, nil
}
