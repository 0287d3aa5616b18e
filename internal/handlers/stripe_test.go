package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
	stripeclient "github.com/PortNumber53/cohost-tasks/backend/internal/stripe"
)

const webhookSecret = "whsec_handler_test"

type recordingApplier struct {
	events []models.PaymentEvent
	err    error
}

func (a *recordingApplier) Apply(_ context.Context, event models.PaymentEvent) error {
	a.events = append(a.events, event)
	return a.err
}

type fakeCheckout struct {
	last models.CheckoutRequest
	err  error
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, req models.CheckoutRequest) (models.CheckoutResponse, error) {
	f.last = req
	if f.err != nil {
		return models.CheckoutResponse{}, f.err
	}
	return models.CheckoutResponse{SessionID: "cs_1", SessionURL: "https://checkout.stripe.com/c/cs_1"}, nil
}

func stripeRouter(h *StripeHandler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	h.RegisterWebhook(r)
	return r
}

func signedRequest(t *testing.T, secret, payload string) *http.Request {
	t.Helper()
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	req.Header.Set("Content-Type", "application/json")
	return req
}

const checkoutCompleted = `{"id":"evt_1","object":"event","type":"checkout.session.completed","created":1735689600,` +
	`"data":{"object":{"id":"cs_1","customer":"cus_1","client_reference_id":"u1","metadata":{"userId":"u1"}}}}`

func TestWebhookAppliesVerifiedEvent(t *testing.T) {
	applier := &recordingApplier{}
	h := NewStripeHandler(nil, stripeclient.NewVerifier(webhookSecret), applier, nil)

	rr := httptest.NewRecorder()
	stripeRouter(h).ServeHTTP(rr, signedRequest(t, webhookSecret, checkoutCompleted))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"received":true}`, rr.Body.String())
	require.Len(t, applier.events, 1)
	assert.Equal(t, models.PaymentEventCheckoutCompleted, applier.events[0].Kind)
	assert.Equal(t, "u1", applier.events[0].UserID)
	assert.Equal(t, "cus_1", applier.events[0].CustomerID)
}

func TestWebhookRejectsForeignSignatureWithoutApplying(t *testing.T) {
	applier := &recordingApplier{}
	h := NewStripeHandler(nil, stripeclient.NewVerifier(webhookSecret), applier, nil)

	rr := httptest.NewRecorder()
	stripeRouter(h).ServeHTTP(rr, signedRequest(t, "whsec_someone_else", checkoutCompleted))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, applier.events)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	applier := &recordingApplier{}
	h := NewStripeHandler(nil, stripeclient.NewVerifier(webhookSecret), applier, nil)

	rr := httptest.NewRecorder()
	stripeRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(checkoutCompleted)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, applier.events)
}

func TestWebhookStoreFailureAsksForRetry(t *testing.T) {
	applier := &recordingApplier{err: apperr.Upstream("entitlement: grant", "failed to update entitlement", errors.New("db down"))}
	h := NewStripeHandler(nil, stripeclient.NewVerifier(webhookSecret), applier, nil)

	rr := httptest.NewRecorder()
	stripeRouter(h).ServeHTTP(rr, signedRequest(t, webhookSecret, checkoutCompleted))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"failed to update entitlement"}`, rr.Body.String())
}

func TestWebhookIgnoredEventIsAcknowledged(t *testing.T) {
	applier := &recordingApplier{}
	h := NewStripeHandler(nil, stripeclient.NewVerifier(webhookSecret), applier, nil)

	payload := `{"id":"evt_2","object":"event","type":"invoice.paid","created":1735689600,"data":{"object":{"id":"in_1"}}}`
	rr := httptest.NewRecorder()
	stripeRouter(h).ServeHTTP(rr, signedRequest(t, webhookSecret, payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, applier.events, 1)
	assert.Equal(t, models.PaymentEventIgnored, applier.events[0].Kind)
}

func TestWebhookWithoutSecretIsUnavailable(t *testing.T) {
	h := NewStripeHandler(nil, nil, &recordingApplier{}, nil)

	rr := httptest.NewRecorder()
	stripeRouter(h).ServeHTTP(rr, signedRequest(t, webhookSecret, checkoutCompleted))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCreateCheckout(t *testing.T) {
	checkout := &fakeCheckout{}
	h := NewStripeHandler(checkout, nil, &recordingApplier{}, nil)

	rr := httptest.NewRecorder()
	stripeRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/stripe/checkout",
		bytes.NewBufferString(`{"userId":"u1","email":"host@example.com"}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"sessionId":"cs_1","url":"https://checkout.stripe.com/c/cs_1"}`, rr.Body.String())
	assert.Equal(t, "u1", checkout.last.UserID)
	assert.Equal(t, "host@example.com", checkout.last.Email)
}

func TestCreateCheckoutValidation(t *testing.T) {
	checkout := &fakeCheckout{err: apperr.Validation("email is required")}
	h := NewStripeHandler(checkout, nil, &recordingApplier{}, nil)

	rr := httptest.NewRecorder()
	stripeRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/stripe/checkout", bytes.NewBufferString(`{"userId":"u1"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"email is required"}`, rr.Body.String())
}
