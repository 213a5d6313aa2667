package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"shopping-service/internal/models"
	"shopping-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter is the transport used by EventPublisher
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	writer EventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(writer EventWriter) *EventPublisher {
	return &EventPublisher{writer: writer}
}

func listKey(listID string) string {
	return fmt.Sprintf("list-%s", listID)
}

// PublishItemAdded publishes ItemAdded event
func (ep *EventPublisher) PublishItemAdded(ctx context.Context, event *models.ItemAddedEvent) error {
	return ep.writer.PublishEvent(ctx, listKey(event.ListID), event)
}

// PublishItemDeleted publishes ItemDeleted or ListCleared event
func (ep *EventPublisher) PublishItemDeleted(ctx context.Context, event *models.ItemDeletedEvent) error {
	return ep.writer.PublishEvent(ctx, listKey(event.ListID), event)
}

// PublishSessionStarted publishes SessionStarted event
func (ep *EventPublisher) PublishSessionStarted(ctx context.Context, event *models.SessionStartedEvent) error {
	return ep.writer.PublishEvent(ctx, listKey(event.ListID), event)
}

// PublishStoreAdvanced publishes StoreAdvanced event
func (ep *EventPublisher) PublishStoreAdvanced(ctx context.Context, event *models.StoreAdvancedEvent) error {
	return ep.writer.PublishEvent(ctx, listKey(event.ListID), event)
}

// PublishSessionCompleted publishes SessionCompleted event
func (ep *EventPublisher) PublishSessionCompleted(ctx context.Context, event *models.SessionCompletedEvent) error {
	return ep.writer.PublishEvent(ctx, listKey(event.ListID), event)
}

// PublishPurchaseToggled publishes PurchaseToggled event
func (ep *EventPublisher) PublishPurchaseToggled(ctx context.Context, event *models.PurchaseToggledEvent) error {
	return ep.writer.PublishEvent(ctx, listKey(event.ListID), event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onItemAdded        func(context.Context, *models.ItemAddedEvent) error
	onSessionStarted   func(context.Context, *models.SessionStartedEvent) error
	onSessionCompleted func(context.Context, *models.SessionCompletedEvent) error
	logger             *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnItemAdded registers a handler for ItemAdded events
func (eh *EventHandler) OnItemAdded(handler func(context.Context, *models.ItemAddedEvent) error) {
	eh.onItemAdded = handler
}

// OnSessionStarted registers a handler for SessionStarted events
func (eh *EventHandler) OnSessionStarted(handler func(context.Context, *models.SessionStartedEvent) error) {
	eh.onSessionStarted = handler
}

// OnSessionCompleted registers a handler for SessionCompleted events
func (eh *EventHandler) OnSessionCompleted(handler func(context.Context, *models.SessionCompletedEvent) error) {
	eh.onSessionCompleted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	return eh.Handle(ctx, msg.Value)
}

// Handle decodes a raw event and dispatches it by type
func (eh *EventHandler) Handle(ctx context.Context, raw []byte) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(raw, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeItemAdded:
		if eh.onItemAdded != nil {
			var event models.ItemAddedEvent
			if err := json.Unmarshal(raw, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ItemAdded event: %w", err)
			}
			return eh.onItemAdded(ctx, &event)
		}

	case models.EventTypeSessionStarted:
		if eh.onSessionStarted != nil {
			var event models.SessionStartedEvent
			if err := json.Unmarshal(raw, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SessionStarted event: %w", err)
			}
			return eh.onSessionStarted(ctx, &event)
		}

	case models.EventTypeSessionCompleted:
		if eh.onSessionCompleted != nil {
			var event models.SessionCompletedEvent
			if err := json.Unmarshal(raw, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SessionCompleted event: %w", err)
			}
			return eh.onSessionCompleted(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
