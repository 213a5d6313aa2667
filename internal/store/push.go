package store

import (
	"context"
	"fmt"

	"shopping-service/internal/models"
)

// CreatePushSubscription persists a device registration keyed by role
func (s *Store) CreatePushSubscription(ctx context.Context, sub *models.PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (user_role, subscription)
		VALUES ($1, $2)
		RETURNING id, created_at`

	row := s.db.QueryRowxContext(ctx, query, sub.Role, sub.Subscription)
	if err := row.Scan(&sub.ID, &sub.CreatedAt); err != nil {
		return fmt.Errorf("failed to create push subscription: %w", err)
	}
	return nil
}

// ListPushSubscriptions retrieves registrations for a role
func (s *Store) ListPushSubscriptions(ctx context.Context, role models.Role) ([]models.PushSubscription, error) {
	subs := []models.PushSubscription{}
	err := s.db.SelectContext(ctx, &subs,
		"SELECT * FROM push_subscriptions WHERE user_role = $1 ORDER BY created_at", role)
	if err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	return subs, nil
}
