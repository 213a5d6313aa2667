// Package notify sends advisory push alerts to the other participant.
// Delivery is best effort: no retries and no delivery guarantee.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shopping-service/internal/models"
	"shopping-service/internal/util"

	"go.uber.org/zap"
)

// Notifier delivers one alert to every device registered for role.
type Notifier interface {
	Notify(ctx context.Context, role models.Role, title, body string) error
}

type pushRequest struct {
	Role  models.Role `json:"role"`
	Title string      `json:"title"`
	Body  string      `json:"body"`
}

// PushDispatcher posts alerts to the external push-dispatch endpoint,
// which fans them out to the role's push subscriptions.
type PushDispatcher struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewPushDispatcher creates a dispatcher with a bounded request timeout
func NewPushDispatcher(endpoint string, timeout time.Duration) *PushDispatcher {
	return &PushDispatcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   util.GetLogger(),
	}
}

// Notify sends {role, title, body}. The response body is ignored; only the
// status code is checked so failures can be logged.
func (d *PushDispatcher) Notify(ctx context.Context, role models.Role, title, body string) error {
	if !role.IsValid() {
		return fmt.Errorf("unknown notification role %q", role)
	}

	start := time.Now()
	defer func() {
		util.NotificationLatency.Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(pushRequest{Role: role, Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("push dispatch failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push dispatch returned status %d", resp.StatusCode)
	}
	return nil
}

// Send delivers msg and swallows any failure after logging it. It never
// returns an error so callers cannot couple state transitions to delivery.
func Send(ctx context.Context, n Notifier, msg Message) {
	if err := n.Notify(ctx, msg.Role, msg.Title, msg.Body); err != nil {
		util.NotificationsFailedTotal.WithLabelValues(string(msg.Role)).Inc()
		util.GetLogger().Warn("Notification delivery failed",
			zap.String("role", string(msg.Role)),
			zap.String("title", msg.Title),
			zap.Error(err))
		return
	}
	util.NotificationsSentTotal.WithLabelValues(string(msg.Role)).Inc()
}
