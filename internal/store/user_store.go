package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

const uniqueViolation pq.ErrorCode = "23505"

// GrantPro upserts the user as pro with the given payment customer id. The
// update is skipped when the row already reflects a newer event, in which case
// applied is false.
//
// A customer id belongs to at most one user. When another user holds it and
// their row is not newer than eventAt, the id moves to userID and that user
// loses pro. When their row is newer the grant is stale and nothing changes.
func (s *Store) GrantPro(ctx context.Context, userID, customerID string, eventAt time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("store: grant pro begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE users
		 SET payment_customer_id = NULL,
		     is_pro = FALSE,
		     entitlement_event_at = $3,
		     updated_at = now()
		 WHERE payment_customer_id = $2
		   AND id <> $1
		   AND (entitlement_event_at IS NULL OR entitlement_event_at <= $3)`,
		userID,
		customerID,
		eventAt,
	); err != nil {
		return false, fmt.Errorf("store: release customer id: %w", err)
	}

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO users (id, is_pro, payment_customer_id, entitlement_event_at)
		 VALUES ($1, TRUE, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET is_pro = TRUE,
		     payment_customer_id = EXCLUDED.payment_customer_id,
		     entitlement_event_at = EXCLUDED.entitlement_event_at,
		     updated_at = now()
		 WHERE users.entitlement_event_at IS NULL
		    OR users.entitlement_event_at <= EXCLUDED.entitlement_event_at`,
		userID,
		customerID,
		eventAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("store: grant pro: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: grant pro rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("store: grant pro commit: %w", err)
	}
	return true, nil
}

// RevokePro clears the pro flag for the user holding customerID. The customer
// id itself is retained. Rows already reflecting a newer event are left alone.
func (s *Store) RevokePro(ctx context.Context, customerID string, eventAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE users
		 SET is_pro = FALSE,
		     entitlement_event_at = $2,
		     updated_at = now()
		 WHERE payment_customer_id = $1
		   AND (entitlement_event_at IS NULL OR entitlement_event_at <= $2)`,
		customerID,
		eventAt,
	)
	if err != nil {
		return 0, fmt.Errorf("store: revoke pro: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: revoke pro rows affected: %w", err)
	}
	return n, nil
}

// IsPro reports the stored entitlement flag. Unknown users are not pro.
func (s *Store) IsPro(ctx context.Context, userID string) (bool, error) {
	var isPro bool
	err := s.db.QueryRowContext(ctx, `SELECT is_pro FROM users WHERE id = $1`, userID).Scan(&isPro)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: lookup entitlement: %w", err)
	}
	return isPro, nil
}

// GetUser returns the full user row, or nil when it does not exist.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var (
		u          models.User
		customerID sql.NullString
		eventAt    sql.NullTime
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, is_pro, payment_customer_id, entitlement_event_at, created_at, updated_at
		 FROM users
		 WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.IsPro, &customerID, &eventAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user: %w", err)
	}
	u.PaymentCustomerID = nullStringPtr(customerID)
	u.EntitlementEventAt = nullTimePtr(eventAt)
	return &u, nil
}
