package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopping-service/config"
	"shopping-service/internal/livefeed"
	"shopping-service/internal/models"
	"shopping-service/internal/redisclient"
	"shopping-service/internal/store"

	"github.com/google/uuid"
)

var testStores = []string{"aldi", "walmart", "shoprite"}

func testConfig() config.ShoppingConfig {
	return config.ShoppingConfig{
		ListID:         uuid.New().String(),
		StoreOrder:     append([]string(nil), testStores...),
		StartLockTTL:   10 * time.Second,
		IdempotencyTTL: time.Hour,
	}
}

// memoryRepo mirrors the Postgres store semantics: compare-and-set
// transitions, one active session per list, frozen ledger after completion.
type memoryRepo struct {
	mu       sync.Mutex
	now      time.Time
	items    []models.Item
	sessions map[string]*models.ShoppingSession
	ledger   map[string]map[string]models.SessionItem
	push     []models.PushSubscription

	failListItems error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		now:      time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		sessions: make(map[string]*models.ShoppingSession),
		ledger:   make(map[string]map[string]models.SessionItem),
	}
}

func (r *memoryRepo) tick() time.Time {
	r.now = r.now.Add(time.Second)
	return r.now
}

func (r *memoryRepo) ListItems(_ context.Context, listID string) ([]models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failListItems != nil {
		return nil, r.failListItems
	}
	items := []models.Item{}
	for _, item := range r.items {
		if item.ListID == listID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *memoryRepo) GetItem(_ context.Context, listID, itemID string) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == itemID && item.ListID == listID {
			out := item
			return &out, nil
		}
	}
	return nil, fmt.Errorf("item %s: %w", itemID, store.ErrNotFound)
}

func (r *memoryRepo) CreateItem(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = uuid.New().String()
	item.CreatedAt = r.tick()
	r.items = append(r.items, *item)
	return nil
}

func (r *memoryRepo) DeleteItem(_ context.Context, listID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := uuid.Parse(itemID); err != nil {
		return fmt.Errorf("invalid input syntax for type uuid: %q", itemID)
	}
	for i, item := range r.items {
		if item.ID == itemID && item.ListID == listID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("item %s: %w", itemID, store.ErrNotFound)
}

func (r *memoryRepo) ClearItems(_ context.Context, listID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	var removed int64
	for _, item := range r.items {
		if item.ListID == listID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	return removed, nil
}

func (r *memoryRepo) CreateSession(_ context.Context, sess *models.ShoppingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.ListID == sess.ListID && existing.CompletedAt == nil {
			return fmt.Errorf("active session exists: %w", store.ErrConflict)
		}
	}
	sess.ID = uuid.New().String()
	sess.StartedAt = r.tick()
	stored := *sess
	r.sessions[sess.ID] = &stored
	return nil
}

func (r *memoryRepo) GetSession(_ context.Context, id string) (*models.ShoppingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, store.ErrNotFound)
	}
	out := *sess
	return &out, nil
}

func (r *memoryRepo) GetActiveSession(_ context.Context, listID string) (*models.ShoppingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sess := range r.sessions {
		if sess.ListID == listID && sess.CompletedAt == nil {
			out := *sess
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) AdvanceSession(_ context.Context, id, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok || sess.CompletedAt != nil || sess.CurrentStore != from {
		return false, nil
	}
	sess.CurrentStore = to
	return true, nil
}

func (r *memoryRepo) CompleteSession(_ context.Context, id, last string) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok || sess.CompletedAt != nil || sess.CurrentStore != last {
		return time.Time{}, false, nil
	}
	at := r.tick()
	sess.CompletedAt = &at
	return at, true, nil
}

func (r *memoryRepo) UpsertSessionItem(_ context.Context, si *models.SessionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[si.SessionID]
	if !ok || sess.CompletedAt != nil {
		return fmt.Errorf("session %s is not active: %w", si.SessionID, store.ErrConflict)
	}
	if r.ledger[si.SessionID] == nil {
		r.ledger[si.SessionID] = make(map[string]models.SessionItem)
	}
	si.UpdatedAt = r.tick()
	r.ledger[si.SessionID][si.ItemID] = *si
	return nil
}

func (r *memoryRepo) GetSessionItem(_ context.Context, sessionID, itemID string) (*models.SessionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.ledger[sessionID][itemID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *memoryRepo) ListSessionItems(_ context.Context, sessionID string) ([]models.SessionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := []models.SessionItem{}
	for _, row := range r.ledger[sessionID] {
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *memoryRepo) CreatePushSubscription(_ context.Context, sub *models.PushSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub.ID = uuid.New().String()
	sub.CreatedAt = r.tick()
	r.push = append(r.push, *sub)
	return nil
}

func (r *memoryRepo) ListPushSubscriptions(_ context.Context, role models.Role) ([]models.PushSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := []models.PushSubscription{}
	for _, sub := range r.push {
		if sub.Role == role {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

// recordingPublisher captures published events by type
type recordingPublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (p *recordingPublisher) record(event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) PublishItemAdded(_ context.Context, e *models.ItemAddedEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) PublishItemDeleted(_ context.Context, e *models.ItemDeletedEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) PublishSessionStarted(_ context.Context, e *models.SessionStartedEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) PublishStoreAdvanced(_ context.Context, e *models.StoreAdvancedEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) PublishSessionCompleted(_ context.Context, e *models.SessionCompletedEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) PublishPurchaseToggled(_ context.Context, e *models.PurchaseToggledEvent) error {
	return p.record(e)
}

func (p *recordingPublisher) count(match func(any) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if match(e) {
			n++
		}
	}
	return n
}

func isCompleted(e any) bool { _, ok := e.(*models.SessionCompletedEvent); return ok }
func isStarted(e any) bool   { _, ok := e.(*models.SessionStartedEvent); return ok }
func isItemAdded(e any) bool { _, ok := e.(*models.ItemAddedEvent); return ok }
func isAdvanced(e any) bool  { _, ok := e.(*models.StoreAdvancedEvent); return ok }

func isItemDeleted(e any) bool {
	_, ok := e.(*models.ItemDeletedEvent)
	return ok
}

// memoryLocker is a single-process stand-in for the Redis lock
type memoryLocker struct {
	mu     sync.Mutex
	held   map[string]bool
	owners map[*redisclient.Lock]string
	err    error
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{
		held:   make(map[string]bool),
		owners: make(map[*redisclient.Lock]string),
	}
}

func (l *memoryLocker) AcquireLock(_ context.Context, name string, _ time.Duration) (*redisclient.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held[name] {
		return nil, nil
	}
	l.held[name] = true
	lock := &redisclient.Lock{}
	l.owners[lock] = name
	return lock, nil
}

func (l *memoryLocker) ReleaseLock(_ context.Context, lock *redisclient.Lock) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, l.owners[lock])
	delete(l.owners, lock)
	return nil
}

// memoryIdempotency is a map-backed idempotency store
type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]string)}
}

func (m *memoryIdempotency) SetIdempotencyKey(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = value
	return nil
}

func (m *memoryIdempotency) GetIdempotencyKey(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

var errBoom = errors.New("boom")

// noopFeed drops every change signal
type noopFeed struct{}

func (noopFeed) Publish(context.Context, string) error { return nil }

func (noopFeed) Subscribe(context.Context, string) (livefeed.Subscription, error) {
	return nil, errors.New("noop feed does not deliver")
}
