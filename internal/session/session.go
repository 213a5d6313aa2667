// Package session holds the shopping session state machine: lifecycle
// states, the store sequencer, the purchase ledger, the store assignment
// filter and the summary projection. Nothing here performs I/O.
package session

import (
	"errors"
	"fmt"

	"shopping-service/internal/models"
)

// State of a session's lifecycle. Transitions only move forward.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateActive     State = "ACTIVE"
	StateCompleted  State = "COMPLETED"
)

var (
	ErrStoreNotInOrder   = errors.New("current store is not part of the store order")
	ErrInvalidStoreOrder = errors.New("invalid store order")
	ErrSessionCompleted  = errors.New("session already completed")
)

// StateOf returns the lifecycle state of s. A nil session has not started.
func StateOf(s *models.ShoppingSession) State {
	switch {
	case s == nil:
		return StateNotStarted
	case s.IsCompleted():
		return StateCompleted
	default:
		return StateActive
	}
}

// IndexOf returns the position of store in order, or -1.
func IndexOf(order []string, store string) int {
	for i, s := range order {
		if s == store {
			return i
		}
	}
	return -1
}

// CurrentIndex derives the active position from the session's durable
// current store. It is recomputed on every load and never cached.
func CurrentIndex(s *models.ShoppingSession) (int, error) {
	idx := IndexOf(s.StoreOrder, s.CurrentStore)
	if idx < 0 {
		return -1, fmt.Errorf("%w: session=%s store=%q", ErrStoreNotInOrder, s.ID, s.CurrentStore)
	}
	return idx, nil
}

// ValidateStoreOrder checks a requested order against the configured
// sequence. The order must be non-empty, free of duplicates, and keep the
// configured relative order; stores may be skipped but not reordered.
func ValidateStoreOrder(order, configured []string) error {
	if len(order) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidStoreOrder)
	}
	last := -1
	seen := make(map[string]struct{}, len(order))
	for _, store := range order {
		if _, dup := seen[store]; dup {
			return fmt.Errorf("%w: duplicate store %q", ErrInvalidStoreOrder, store)
		}
		seen[store] = struct{}{}

		pos := IndexOf(configured, store)
		if pos < 0 {
			return fmt.Errorf("%w: unknown store %q", ErrInvalidStoreOrder, store)
		}
		if pos < last {
			return fmt.Errorf("%w: %q is out of sequence", ErrInvalidStoreOrder, store)
		}
		last = pos
	}
	return nil
}
