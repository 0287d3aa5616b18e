// Package entitlement owns the per-user pro flag and the transitions driven
// by verified payment events.
package entitlement

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/metrics"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

// Store persists the entitlement flag. GrantPro and RevokePro skip rows that
// already reflect a newer event.
type Store interface {
	GrantPro(ctx context.Context, userID, customerID string, eventAt time.Time) (bool, error)
	RevokePro(ctx context.Context, customerID string, eventAt time.Time) (int64, error)
	IsPro(ctx context.Context, userID string) (bool, error)
}

// Manager applies grant/revoke transitions and answers entitlement checks.
type Manager struct {
	store   Store
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewManager returns a Manager backed by store. m may be nil.
func NewManager(store Store, m *metrics.Metrics) *Manager {
	return &Manager{store: store, metrics: m, now: time.Now}
}

func (m *Manager) eventTime(at time.Time) time.Time {
	if at.IsZero() {
		return m.now().UTC()
	}
	return at.UTC()
}

// Grant marks userID as pro and records customerID, taking the id over from
// any previous holder. Replays converge.
func (m *Manager) Grant(ctx context.Context, userID, customerID string, at time.Time) error {
	userID = strings.TrimSpace(userID)
	customerID = strings.TrimSpace(customerID)
	if userID == "" {
		return apperr.Validation("missing user id on checkout event")
	}
	if customerID == "" {
		return apperr.Validation("missing customer id on checkout event")
	}

	applied, err := m.store.GrantPro(ctx, userID, customerID, m.eventTime(at))
	if err != nil {
		return apperr.Upstream("entitlement: grant", "failed to update entitlement", err)
	}
	m.metrics.IncEntitlement("grant", applied)

	evt := log.Info()
	if !applied {
		evt = log.Warn()
	}
	evt.Str("user_id", userID).
		Str("customer_id", customerID).
		Bool("applied", applied).
		Msg("entitlement: grant")
	return nil
}

// Revoke clears the pro flag for the user holding customerID. Unknown customers
// are a no-op.
func (m *Manager) Revoke(ctx context.Context, customerID string, at time.Time) error {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return apperr.Validation("missing customer id on subscription event")
	}

	n, err := m.store.RevokePro(ctx, customerID, m.eventTime(at))
	if err != nil {
		return apperr.Upstream("entitlement: revoke", "failed to update entitlement", err)
	}
	m.metrics.IncEntitlement("revoke", n > 0)

	log.Info().
		Str("customer_id", customerID).
		Int64("users", n).
		Msg("entitlement: revoke")
	return nil
}

// Check reports whether userID currently holds pro access. Empty and unknown
// ids are not entitled.
func (m *Manager) Check(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}
	isPro, err := m.store.IsPro(ctx, userID)
	if err != nil {
		return false, apperr.Upstream("entitlement: check", "failed to check subscription status", err)
	}
	return isPro, nil
}

// Status returns the caller-facing view of Check.
func (m *Manager) Status(ctx context.Context, userID string) (models.UserStatus, error) {
	isPro, err := m.Check(ctx, userID)
	if err != nil {
		return models.UserStatus{}, err
	}
	return models.UserStatus{UserID: userID, IsPro: isPro}, nil
}

// Apply dispatches a verified payment event. Kinds other than checkout
// completion and subscription deletion are ignored.
func (m *Manager) Apply(ctx context.Context, event models.PaymentEvent) error {
	switch event.Kind {
	case models.PaymentEventCheckoutCompleted:
		return m.Grant(ctx, event.UserID, event.CustomerID, event.CreatedAt)
	case models.PaymentEventSubscriptionDeleted:
		return m.Revoke(ctx, event.CustomerID, event.CreatedAt)
	default:
		log.Debug().Str("event_id", event.ID).Str("type", event.Type).Msg("entitlement: ignoring event")
		return nil
	}
}
