package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopping-service/internal/models"
)

// ListItems retrieves the catalog of a list, oldest first
func (s *Store) ListItems(ctx context.Context, listID string) ([]models.Item, error) {
	items := []models.Item{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM items WHERE list_id = $1 ORDER BY created_at ASC, id ASC", listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// GetItem retrieves one item of a list
func (s *Store) GetItem(ctx context.Context, listID, itemID string) (*models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item, "SELECT * FROM items WHERE id = $1 AND list_id = $2", itemID, listID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// CreateItem inserts a catalog item
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (list_id, name, quantity, preferred_store)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	row := s.db.QueryRowxContext(ctx, query, item.ListID, item.Name, item.Quantity, item.PreferredStore)
	if err := row.Scan(&item.ID, &item.CreatedAt); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// DeleteItem removes one item of a list
func (s *Store) DeleteItem(ctx context.Context, listID, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM items WHERE id = $1 AND list_id = $2", itemID, listID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	return nil
}

// ClearItems removes every item of a list
func (s *Store) ClearItems(ctx context.Context, listID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE list_id = $1", listID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear items: %w", err)
	}
	return res.RowsAffected()
}
