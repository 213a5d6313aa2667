package worker

import (
	"context"
	"time"

	"shopping-service/internal/broker"
	"shopping-service/internal/models"
	"shopping-service/internal/notify"
	"shopping-service/internal/util"

	"go.uber.org/zap"
)

// MessageSource is the consuming side of the event topic
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// NotificationWorker turns domain events into push notifications for the
// other participant
type NotificationWorker struct {
	source       MessageSource
	eventHandler *broker.EventHandler
	notifier     notify.Notifier
	timeout      time.Duration
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(source MessageSource, notifier notify.Notifier, timeout time.Duration) *NotificationWorker {
	w := &NotificationWorker{
		source:       source,
		eventHandler: broker.NewEventHandler(),
		notifier:     notifier,
		timeout:      timeout,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnItemAdded(w.handleItemAdded)
	w.eventHandler.OnSessionStarted(w.handleSessionStarted)
	w.eventHandler.OnSessionCompleted(w.handleSessionCompleted)

	return w
}

// Start consumes events until ctx is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.source.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.source.Close()
}

func (w *NotificationWorker) handleItemAdded(ctx context.Context, e *models.ItemAddedEvent) error {
	w.send(ctx, notify.ItemAdded(e))
	return nil
}

func (w *NotificationWorker) handleSessionStarted(ctx context.Context, e *models.SessionStartedEvent) error {
	w.send(ctx, notify.ShoppingStarted(e))
	return nil
}

func (w *NotificationWorker) handleSessionCompleted(ctx context.Context, e *models.SessionCompletedEvent) error {
	w.send(ctx, notify.ShoppingCompleted(e))
	return nil
}

// send never fails the message: delivery is advisory.
func (w *NotificationWorker) send(ctx context.Context, msg notify.Message) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	notify.Send(ctx, w.notifier, msg)
}
