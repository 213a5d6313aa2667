package service

import (
	"context"
	"time"

	"shopping-service/internal/livefeed"
	"shopping-service/internal/models"
	"shopping-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sideEffectTimeout = 5 * time.Second

func newBaseEvent(eventType, listID string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		ListID:    listID,
		Timestamp: time.Now().UTC(),
	}
}

// publishAsync runs publish detached from the caller's request. The state
// transition has already been written; a slow or failing broker must not
// block or undo it.
func publishAsync(logger *zap.Logger, eventType string, publish func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if err := publish(ctx); err != nil {
			util.EventPublishFailedTotal.WithLabelValues(eventType).Inc()
			logger.Error("Failed to publish event",
				zap.String("type", eventType),
				zap.Error(err))
		}
	}()
}

// announceCatalogChange signals subscribers to re-fetch the catalog.
// Failures are logged; views self-correct on the next change or reload.
func announceCatalogChange(ctx context.Context, logger *zap.Logger, feed livefeed.Feed, listID string) {
	if err := feed.Publish(ctx, livefeed.CatalogTopic(listID)); err != nil {
		logger.Warn("Failed to publish catalog change",
			zap.String("list_id", listID),
			zap.Error(err))
	}
}
