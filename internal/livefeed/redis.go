package livefeed

import (
	"context"
	"sync"
	"time"

	"shopping-service/internal/redisclient"

	"github.com/go-redis/redis/v8"
)

// RedisFeed carries change events over Redis pub/sub so every service
// instance sees writes made through any other instance.
type RedisFeed struct {
	client *redisclient.Client
}

// NewRedisFeed creates a feed on top of the Redis client
func NewRedisFeed(client *redisclient.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

// Publish announces a change on topic
func (f *RedisFeed) Publish(ctx context.Context, topic string) error {
	return f.client.Publish(ctx, topic, time.Now().UTC().Format(time.RFC3339Nano))
}

// Subscribe listens on topic until the subscription is closed
func (f *RedisFeed) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	ps, err := f.client.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan struct{}, 1),
	}
	go sub.pump(ps.Channel())
	return sub, nil
}

type redisSubscription struct {
	ps        *redis.PubSub
	events    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// pump forwards messages until the pub/sub channel closes. Signals are
// coalesced: a pending signal already means "re-fetch".
func (s *redisSubscription) pump(msgs <-chan *redis.Message) {
	defer close(s.events)
	for range msgs {
		select {
		case s.events <- struct{}{}:
		default:
		}
	}
}

func (s *redisSubscription) Events() <-chan struct{} {
	return s.events
}

func (s *redisSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.ps.Close()
	})
	return s.closeErr
}
