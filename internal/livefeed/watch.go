package livefeed

import (
	"context"
	"fmt"

	"shopping-service/internal/util"

	"go.uber.org/zap"
)

// FetchFunc loads the full current state of a view.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// ApplyFunc replaces the view with a freshly fetched snapshot. An error
// ends the watch, e.g. when the client connection is gone.
type ApplyFunc[T any] func(snapshot T) error

// Watch subscribes to topic, applies an initial snapshot, then re-fetches
// and re-applies on every change event until ctx is done. The subscription
// is released on every return path.
//
// A failed re-fetch keeps the previous view; it self-corrects on the next
// event. Only the initial fetch failure is returned.
func Watch[T any](ctx context.Context, feed Feed, topic string, fetch FetchFunc[T], apply ApplyFunc[T]) error {
	logger := util.GetLogger()

	sub, err := feed.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			logger.Warn("Failed to release subscription", zap.String("topic", topic), zap.Error(err))
		}
	}()

	snapshot, err := fetch(ctx)
	if err != nil {
		util.ViewRefetchTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to fetch initial view: %w", err)
	}
	util.ViewRefetchTotal.WithLabelValues("ok").Inc()
	if err := apply(snapshot); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-sub.Events():
			if !ok {
				return ErrFeedClosed
			}

			snapshot, err := fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				util.ViewRefetchTotal.WithLabelValues("error").Inc()
				logger.Warn("View refetch failed, keeping stale view",
					zap.String("topic", topic), zap.Error(err))
				continue
			}
			util.ViewRefetchTotal.WithLabelValues("ok").Inc()

			if err := apply(snapshot); err != nil {
				return err
			}
		}
	}
}
