package models

import "time"

// Event types
const (
	EventTypeItemAdded        = "ITEM_ADDED"
	EventTypeItemDeleted      = "ITEM_DELETED"
	EventTypeListCleared      = "LIST_CLEARED"
	EventTypeSessionStarted   = "SESSION_STARTED"
	EventTypeStoreAdvanced    = "STORE_ADVANCED"
	EventTypeSessionCompleted = "SESSION_COMPLETED"
	EventTypePurchaseToggled  = "PURCHASE_TOGGLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ListID    string    `json:"list_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ItemAddedEvent published when the lister adds an item
type ItemAddedEvent struct {
	BaseEvent
	ItemID         string `json:"item_id"`
	Name           string `json:"name"`
	Quantity       string `json:"quantity"`
	PreferredStore string `json:"preferred_store,omitempty"`
}

// ItemDeletedEvent published when one item or the whole list is removed
type ItemDeletedEvent struct {
	BaseEvent
	ItemID string `json:"item_id,omitempty"`
}

// SessionStartedEvent published when the shopper starts a run
type SessionStartedEvent struct {
	BaseEvent
	SessionID  string   `json:"session_id"`
	StoreOrder []string `json:"store_order"`
	FirstStore string   `json:"first_store"`
}

// StoreAdvancedEvent published when the shopper finishes a store that is not the last
type StoreAdvancedEvent struct {
	BaseEvent
	SessionID    string `json:"session_id"`
	FromStore    string `json:"from_store"`
	CurrentStore string `json:"current_store"`
	Index        int    `json:"index"`
}

// SessionCompletedEvent published exactly once per session
type SessionCompletedEvent struct {
	BaseEvent
	SessionID   string    `json:"session_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// PurchaseToggledEvent published after a ledger write
type PurchaseToggledEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	ItemID    string `json:"item_id"`
	Purchased bool   `json:"purchased"`
	NotFound  bool   `json:"not_found"`
	Store     string `json:"store"`
}
