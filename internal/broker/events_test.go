package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"shopping-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	key   string
	event interface{}
}

type fakeWriter struct {
	events []recordedEvent
}

func (w *fakeWriter) PublishEvent(_ context.Context, key string, event interface{}) error {
	w.events = append(w.events, recordedEvent{key: key, event: event})
	return nil
}

func TestPublisherKeysByList(t *testing.T) {
	w := &fakeWriter{}
	ep := NewEventPublisher(w)

	err := ep.PublishSessionStarted(context.Background(), &models.SessionStartedEvent{
		BaseEvent: models.BaseEvent{ListID: "l1", EventType: models.EventTypeSessionStarted},
		SessionID: "s1",
	})
	require.NoError(t, err)

	require.Len(t, w.events, 1)
	assert.Equal(t, "list-l1", w.events[0].key)
}

func TestEventHandlerRoutesByType(t *testing.T) {
	eh := NewEventHandler()

	var gotAdded *models.ItemAddedEvent
	var gotCompleted *models.SessionCompletedEvent
	eh.OnItemAdded(func(_ context.Context, e *models.ItemAddedEvent) error {
		gotAdded = e
		return nil
	})
	eh.OnSessionCompleted(func(_ context.Context, e *models.SessionCompletedEvent) error {
		gotCompleted = e
		return nil
	})

	added, err := json.Marshal(models.ItemAddedEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypeItemAdded, Timestamp: time.Now()},
		Name:      "Milk",
		Quantity:  "2",
	})
	require.NoError(t, err)
	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: added}))

	require.NotNil(t, gotAdded)
	assert.Equal(t, "Milk", gotAdded.Name)
	assert.Nil(t, gotCompleted)

	completed, err := json.Marshal(models.SessionCompletedEvent{
		BaseEvent: models.BaseEvent{EventID: "e2", EventType: models.EventTypeSessionCompleted},
		SessionID: "s1",
	})
	require.NoError(t, err)
	require.NoError(t, eh.Handle(context.Background(), completed))

	require.NotNil(t, gotCompleted)
	assert.Equal(t, "s1", gotCompleted.SessionID)
}

func TestEventHandlerIgnoresUnknownAndUnregistered(t *testing.T) {
	eh := NewEventHandler()

	raw, err := json.Marshal(models.PurchaseToggledEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypePurchaseToggled},
	})
	require.NoError(t, err)
	assert.NoError(t, eh.Handle(context.Background(), raw))

	raw, err = json.Marshal(models.SessionStartedEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeSessionStarted},
	})
	require.NoError(t, err)
	assert.NoError(t, eh.Handle(context.Background(), raw))

	assert.Error(t, eh.Handle(context.Background(), []byte("{not json")))
}
