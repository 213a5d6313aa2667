package service

import (
	"context"
	"time"

	"shopping-service/internal/models"
	"shopping-service/internal/redisclient"
)

// CatalogRepository is the data store boundary for the items table
type CatalogRepository interface {
	ListItems(ctx context.Context, listID string) ([]models.Item, error)
	GetItem(ctx context.Context, listID, itemID string) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, listID, itemID string) error
	ClearItems(ctx context.Context, listID string) (int64, error)
}

// SessionRepository is the data store boundary for shopping_sessions and session_items
type SessionRepository interface {
	CreateSession(ctx context.Context, sess *models.ShoppingSession) error
	GetSession(ctx context.Context, id string) (*models.ShoppingSession, error)
	GetActiveSession(ctx context.Context, listID string) (*models.ShoppingSession, error)
	AdvanceSession(ctx context.Context, id, from, to string) (bool, error)
	CompleteSession(ctx context.Context, id, last string) (time.Time, bool, error)
	UpsertSessionItem(ctx context.Context, si *models.SessionItem) error
	GetSessionItem(ctx context.Context, sessionID, itemID string) (*models.SessionItem, error)
	ListSessionItems(ctx context.Context, sessionID string) ([]models.SessionItem, error)
}

// PushRepository is the data store boundary for push_subscriptions
type PushRepository interface {
	CreatePushSubscription(ctx context.Context, sub *models.PushSubscription) error
	ListPushSubscriptions(ctx context.Context, role models.Role) ([]models.PushSubscription, error)
}

// EventPublisher emits domain events consumed by the notification worker
type EventPublisher interface {
	PublishItemAdded(ctx context.Context, event *models.ItemAddedEvent) error
	PublishItemDeleted(ctx context.Context, event *models.ItemDeletedEvent) error
	PublishSessionStarted(ctx context.Context, event *models.SessionStartedEvent) error
	PublishStoreAdvanced(ctx context.Context, event *models.StoreAdvancedEvent) error
	PublishSessionCompleted(ctx context.Context, event *models.SessionCompletedEvent) error
	PublishPurchaseToggled(ctx context.Context, event *models.PurchaseToggledEvent) error
}

// Locker serializes session starts across service instances
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (*redisclient.Lock, error)
	ReleaseLock(ctx context.Context, lock *redisclient.Lock) error
}

// IdempotencyStore remembers the result of retried requests
type IdempotencyStore interface {
	SetIdempotencyKey(ctx context.Context, key, value string, ttl time.Duration) error
	GetIdempotencyKey(ctx context.Context, key string) (string, error)
}
