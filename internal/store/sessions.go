package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopping-service/internal/models"
)

// CreateSession inserts a new active session. A second active session for
// the same list violates the partial unique index and yields ErrConflict.
func (s *Store) CreateSession(ctx context.Context, sess *models.ShoppingSession) error {
	query := `
		INSERT INTO shopping_sessions (list_id, store_order, current_store)
		VALUES ($1, $2, $3)
		RETURNING id, started_at`

	row := s.db.QueryRowxContext(ctx, query, sess.ListID, sess.StoreOrder, sess.CurrentStore)
	if err := row.Scan(&sess.ID, &sess.StartedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("active session exists for list %s: %w", sess.ListID, ErrConflict)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID
func (s *Store) GetSession(ctx context.Context, id string) (*models.ShoppingSession, error) {
	var sess models.ShoppingSession
	err := s.db.GetContext(ctx, &sess, "SELECT * FROM shopping_sessions WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// GetActiveSession returns the session without completed_at, or nil
func (s *Store) GetActiveSession(ctx context.Context, listID string) (*models.ShoppingSession, error) {
	var sess models.ShoppingSession
	err := s.db.GetContext(ctx, &sess,
		"SELECT * FROM shopping_sessions WHERE list_id = $1 AND completed_at IS NULL", listID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return &sess, nil
}

// AdvanceSession moves current_store from -> to. It only applies when the
// session is still active and still at from; the bool reports whether
// this call performed the move.
func (s *Store) AdvanceSession(ctx context.Context, id, from, to string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE shopping_sessions SET current_store = $3
		WHERE id = $1 AND current_store = $2 AND completed_at IS NULL`,
		id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to advance session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CompleteSession writes the terminal marker once. The bool is false when
// the session was already completed or is not at last.
func (s *Store) CompleteSession(ctx context.Context, id, last string) (time.Time, bool, error) {
	var completedAt time.Time
	err := s.db.GetContext(ctx, &completedAt, `
		UPDATE shopping_sessions SET completed_at = NOW()
		WHERE id = $1 AND current_store = $2 AND completed_at IS NULL
		RETURNING completed_at`,
		id, last)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to complete session: %w", err)
	}
	return completedAt, true, nil
}

// UpsertSessionItem inserts or overwrites the ledger row of (session, item).
// Rows of a completed session are frozen: the write is refused with ErrConflict.
func (s *Store) UpsertSessionItem(ctx context.Context, si *models.SessionItem) error {
	query := `
		INSERT INTO session_items (session_id, item_id, purchased, store, not_found)
		SELECT $1::uuid, $2::uuid, $3::boolean, $4::text, $5::boolean
		WHERE EXISTS (SELECT 1 FROM shopping_sessions WHERE id = $1 AND completed_at IS NULL)
		ON CONFLICT (session_id, item_id) DO UPDATE
		SET purchased = EXCLUDED.purchased,
		    store = EXCLUDED.store,
		    not_found = EXCLUDED.not_found,
		    updated_at = NOW()
		RETURNING updated_at`

	err := s.db.GetContext(ctx, &si.UpdatedAt, query,
		si.SessionID, si.ItemID, si.Purchased, si.Store, si.NotFound)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %s is not active: %w", si.SessionID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert session item: %w", err)
	}
	return nil
}

// GetSessionItem returns the ledger row of (session, item), or nil
func (s *Store) GetSessionItem(ctx context.Context, sessionID, itemID string) (*models.SessionItem, error) {
	var si models.SessionItem
	err := s.db.GetContext(ctx, &si,
		"SELECT * FROM session_items WHERE session_id = $1 AND item_id = $2", sessionID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session item: %w", err)
	}
	return &si, nil
}

// ListSessionItems retrieves all ledger rows of a session
func (s *Store) ListSessionItems(ctx context.Context, sessionID string) ([]models.SessionItem, error) {
	rows := []models.SessionItem{}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM session_items WHERE session_id = $1 ORDER BY updated_at ASC, item_id ASC", sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session items: %w", err)
	}
	return rows, nil
}
