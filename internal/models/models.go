package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Item is one desired entry in the shared catalog.
type Item struct {
	ID             string    `db:"id" json:"id"`
	ListID         string    `db:"list_id" json:"list_id"`
	Name           string    `db:"name" json:"name"`
	Quantity       string    `db:"quantity" json:"quantity"`
	PreferredStore *string   `db:"preferred_store" json:"preferred_store,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Preferred returns the preferred store or "" when none is set.
func (i Item) Preferred() string {
	if i.PreferredStore == nil {
		return ""
	}
	return *i.PreferredStore
}

// ShoppingSession is one shopping run over an ordered sequence of stores.
// The position in StoreOrder is always derived from CurrentStore, never stored.
type ShoppingSession struct {
	ID           string         `db:"id" json:"id"`
	ListID       string         `db:"list_id" json:"list_id"`
	StoreOrder   pq.StringArray `db:"store_order" json:"store_order"`
	CurrentStore string         `db:"current_store" json:"current_store"`
	StartedAt    time.Time      `db:"started_at" json:"started_at"`
	CompletedAt  *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// IsCompleted reports whether the terminal marker has been written.
func (s *ShoppingSession) IsCompleted() bool {
	return s.CompletedAt != nil
}

// SessionItem is a purchase ledger entry, unique per (session, item).
type SessionItem struct {
	SessionID string    `db:"session_id" json:"session_id"`
	ItemID    string    `db:"item_id" json:"item_id"`
	Purchased bool      `db:"purchased" json:"purchased"`
	Store     string    `db:"store" json:"store"`
	NotFound  bool      `db:"not_found" json:"not_found"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PushSubscription is a device registration targeted by the push system.
type PushSubscription struct {
	ID           string         `db:"id" json:"id"`
	Role         Role           `db:"user_role" json:"role"`
	Subscription types.JSONText `db:"subscription" json:"subscription"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
