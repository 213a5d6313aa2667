// Package livefeed keeps participant views in sync with catalog changes.
// Change events carry no payload; subscribers re-fetch and replace their
// view wholesale on every event.
package livefeed

import (
	"context"
	"errors"
	"fmt"
)

var ErrFeedClosed = errors.New("change feed closed")

// Feed is the change-notification transport, keyed by topic.
type Feed interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Subscription delivers one signal per change, possibly coalesced.
// Events is closed once the subscription ends.
type Subscription interface {
	Events() <-chan struct{}
	Close() error
}

// CatalogTopic is the topic for every insert, update or delete of items in a list.
func CatalogTopic(listID string) string {
	return fmt.Sprintf("changes:items:list_id=%s", listID)
}
