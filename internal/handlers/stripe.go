package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/auth"
	"github.com/PortNumber53/cohost-tasks/backend/internal/metrics"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

const webhookBodyLimit = 65536

// CheckoutCreator starts hosted checkout sessions.
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (models.CheckoutResponse, error)
}

// EventVerifier authenticates and decodes raw webhook payloads.
type EventVerifier interface {
	Verify(payload []byte, signatureHeader string) (models.PaymentEvent, error)
}

// EventApplier applies a verified payment event to entitlement state.
type EventApplier interface {
	Apply(ctx context.Context, event models.PaymentEvent) error
}

// StripeHandler holds dependencies for checkout and webhook handling.
type StripeHandler struct {
	Checkout     CheckoutCreator
	Verifier     EventVerifier
	Entitlements EventApplier
	Metrics      *metrics.Metrics
}

// NewStripeHandler creates a new StripeHandler. checkout and verifier may be
// nil when billing is not configured; the routes then answer 503.
func NewStripeHandler(checkout CheckoutCreator, verifier EventVerifier, entitlements EventApplier, m *metrics.Metrics) *StripeHandler {
	return &StripeHandler{
		Checkout:     checkout,
		Verifier:     verifier,
		Entitlements: entitlements,
		Metrics:      m,
	}
}

// RegisterRoutes registers the checkout route.
func (h *StripeHandler) RegisterRoutes(router chi.Router) {
	router.Post("/api/stripe/checkout", h.CreateCheckout())
}

// RegisterWebhook registers the webhook route. Mount it where no middleware
// reads the request body or requires a caller identity.
func (h *StripeHandler) RegisterWebhook(router chi.Router) {
	router.Post("/webhook", h.HandleWebhook())
}

// CreateCheckout starts a subscription checkout for the caller.
func (h *StripeHandler) CreateCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.Checkout == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "billing not configured"})
			return
		}

		var req models.CheckoutRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.UserID = auth.UserID(r.Context(), req.UserID)

		resp, err := h.Checkout.CreateCheckoutSession(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleWebhook verifies the raw body against the Stripe-Signature header and
// applies the event. Store failures return 500 so Stripe redelivers.
func (h *StripeHandler) HandleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := hlog.FromRequest(r)

		if h.Verifier == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "webhook secret not configured"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body"})
			return
		}

		event, err := h.Verifier.Verify(body, r.Header.Get("Stripe-Signature"))
		if err != nil {
			logger.Warn().Err(err).Msg("webhook: verification failed")
			h.Metrics.IncWebhook("unknown", "invalid_signature")
			writeError(w, r, err)
			return
		}

		if err := h.Entitlements.Apply(r.Context(), event); err != nil {
			result := "error"
			if errors.Is(err, apperr.ErrValidation) {
				result = "invalid"
				logger.Warn().Err(err).Str("event_id", event.ID).Str("type", event.Type).Msg("webhook: rejected event")
			}
			h.Metrics.IncWebhook(event.Type, result)
			writeError(w, r, err)
			return
		}

		result := "applied"
		if event.Kind == models.PaymentEventIgnored {
			result = "ignored"
		}
		h.Metrics.IncWebhook(event.Type, result)
		logger.Info().Str("event_id", event.ID).Str("type", event.Type).Str("result", result).Msg("webhook: processed")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}
