package livefeed

import (
	"context"
	"sync"
)

// MemoryFeed is an in-process Feed for a single instance and for tests.
type MemoryFeed struct {
	mu   sync.Mutex
	subs map[string]map[*memorySubscription]struct{}
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (f *MemoryFeed) Publish(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs[topic] {
		select {
		case sub.events <- struct{}{}:
		default:
		}
	}
	return nil
}

func (f *MemoryFeed) Subscribe(_ context.Context, topic string) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := &memorySubscription{feed: f, topic: topic, events: make(chan struct{}, 1)}
	if f.subs[topic] == nil {
		f.subs[topic] = make(map[*memorySubscription]struct{})
	}
	f.subs[topic][sub] = struct{}{}
	return sub, nil
}

// Subscribers returns the number of live subscriptions on topic.
func (f *MemoryFeed) Subscribers(topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[topic])
}

type memorySubscription struct {
	feed   *MemoryFeed
	topic  string
	events chan struct{}
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan struct{} {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs[s.topic], s)
		s.feed.mu.Unlock()
		close(s.events)
	})
	return nil
}
