package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopping-service/config"
	"shopping-service/internal/models"
	"shopping-service/internal/session"
	"shopping-service/internal/store"
	"shopping-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService drives the shopping session state machine
type SessionService struct {
	repo    SessionRepository
	catalog CatalogRepository
	locker  Locker
	idem    IdempotencyStore
	events  EventPublisher
	cfg     config.ShoppingConfig
	logger  *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	repo SessionRepository,
	catalog CatalogRepository,
	locker Locker,
	idem IdempotencyStore,
	events EventPublisher,
	cfg config.ShoppingConfig,
) *SessionService {
	return &SessionService{
		repo:    repo,
		catalog: catalog,
		locker:  locker,
		idem:    idem,
		events:  events,
		cfg:     cfg,
		logger:  util.GetLogger(),
	}
}

// StartSessionRequest represents a request to start shopping.
// An empty StoreOrder uses the configured sequence.
type StartSessionRequest struct {
	StoreOrder []string `json:"store_order,omitempty"`
}

// SessionState is the resumable state of the list's session
type SessionState struct {
	State        session.State           `json:"state"`
	Session      *models.ShoppingSession `json:"session,omitempty"`
	CurrentIndex int                     `json:"current_index"`
	CurrentStore string                  `json:"current_store,omitempty"`
	Purchased    session.Ledger          `json:"purchased"`
}

// ToggleResult is the ledger value written by a toggle
type ToggleResult struct {
	ItemID    string `json:"item_id"`
	Purchased bool   `json:"purchased"`
	NotFound  bool   `json:"not_found"`
	Store     string `json:"store"`
}

// AdvanceResult is the session position after finishing a store
type AdvanceResult struct {
	Complete     bool                    `json:"complete"`
	Session      *models.ShoppingSession `json:"session"`
	CurrentIndex int                     `json:"current_index"`
	CurrentStore string                  `json:"current_store"`
}

func startLockName(listID string) string {
	return "session-start:" + listID
}

func idempotencyKeyName(listID, key string) string {
	return fmt.Sprintf("session-start:%s:%s", listID, key)
}

// Start creates the list's single active session. A retried request that
// carries the same idempotency key gets the session it already created.
func (s *SessionService) Start(ctx context.Context, req *StartSessionRequest, idempotencyKey string) (state *SessionState, err error) {
	ctx, span := util.StartSpan(ctx, "SessionService.Start")
	defer func() { util.EndSpan(span, err) }()

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		if state, ok := s.replayStart(ctx, idempotencyKey); ok {
			return state, nil
		}
	}

	order := s.cfg.StoreOrder
	if len(req.StoreOrder) > 0 {
		order = make([]string, 0, len(req.StoreOrder))
		for _, st := range req.StoreOrder {
			order = append(order, strings.ToLower(strings.TrimSpace(st)))
		}
	}
	if err := session.ValidateStoreOrder(order, s.cfg.StoreOrder); err != nil {
		util.SessionStartRejectedTotal.WithLabelValues("invalid_order").Inc()
		return nil, err
	}

	lock, err := s.locker.AcquireLock(ctx, startLockName(s.cfg.ListID), s.cfg.StartLockTTL)
	switch {
	case err != nil:
		// The unique index still guards against a second active session.
		s.logger.Warn("Failed to acquire start lock, continuing", zap.Error(err))
	case lock == nil:
		util.SessionStartRejectedTotal.WithLabelValues("locked").Inc()
		return nil, ErrActiveSessionExists
	default:
		defer func() {
			if err := s.locker.ReleaseLock(context.Background(), lock); err != nil {
				s.logger.Warn("Failed to release start lock", zap.Error(err))
			}
		}()
	}

	active, err := s.repo.GetActiveSession(ctx, s.cfg.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}
	if active != nil {
		util.SessionStartRejectedTotal.WithLabelValues("active").Inc()
		return nil, fmt.Errorf("%w: %s", ErrActiveSessionExists, active.ID)
	}

	sess := &models.ShoppingSession{
		ListID:       s.cfg.ListID,
		StoreOrder:   order,
		CurrentStore: order[0],
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		if errors.Is(err, store.ErrConflict) {
			util.SessionStartRejectedTotal.WithLabelValues("active").Inc()
			return nil, ErrActiveSessionExists
		}
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	if idempotencyKey != "" {
		if err := s.idem.SetIdempotencyKey(ctx, idempotencyKeyName(s.cfg.ListID, idempotencyKey), sess.ID, s.cfg.IdempotencyTTL); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.Error(err))
		}
	}

	util.SessionsStartedTotal.Inc()
	s.logger.Info("Shopping session started",
		zap.String("session_id", sess.ID),
		zap.Strings("store_order", order))

	event := &models.SessionStartedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeSessionStarted, s.cfg.ListID),
		SessionID:  sess.ID,
		StoreOrder: order,
		FirstStore: sess.CurrentStore,
	}
	publishAsync(s.logger, event.EventType, func(ctx context.Context) error {
		return s.events.PublishSessionStarted(ctx, event)
	})

	return &SessionState{
		State:        session.StateActive,
		Session:      sess,
		CurrentIndex: 0,
		CurrentStore: sess.CurrentStore,
		Purchased:    session.Ledger{},
	}, nil
}

func (s *SessionService) replayStart(ctx context.Context, key string) (*SessionState, bool) {
	sessionID, err := s.idem.GetIdempotencyKey(ctx, idempotencyKeyName(s.cfg.ListID, key))
	if err != nil {
		s.logger.Warn("Failed to read idempotency key", zap.Error(err))
		return nil, false
	}
	if sessionID == "" {
		return nil, false
	}
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		s.logger.Warn("Idempotent session lookup failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil, false
	}
	state, err := s.stateOf(ctx, sess)
	if err != nil {
		return nil, false
	}
	s.logger.Info("Replayed session start", zap.String("session_id", sess.ID))
	return state, true
}

// Resume returns the list's active session with its ledger, or
// NOT_STARTED when there is none. Position is derived from the durable
// current store on every call.
func (s *SessionService) Resume(ctx context.Context) (*SessionState, error) {
	active, err := s.repo.GetActiveSession(ctx, s.cfg.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}
	if active == nil {
		return &SessionState{State: session.StateNotStarted, CurrentIndex: -1, Purchased: session.Ledger{}}, nil
	}
	return s.stateOf(ctx, active)
}

// Get returns the state of a session by ID
func (s *SessionService) Get(ctx context.Context, sessionID string) (*SessionState, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.stateOf(ctx, sess)
}

func (s *SessionService) stateOf(ctx context.Context, sess *models.ShoppingSession) (*SessionState, error) {
	idx, err := session.CurrentIndex(sess)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListSessionItems(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return &SessionState{
		State:        session.StateOf(sess),
		Session:      sess,
		CurrentIndex: idx,
		CurrentStore: sess.CurrentStore,
		Purchased:    session.LedgerFromRows(rows),
	}, nil
}

// load fetches a session of this list. Malformed IDs and sessions of
// other lists are reported as not found.
func (s *SessionService) load(ctx context.Context, sessionID string) (*models.ShoppingSession, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, err
	}
	if sess.ListID != s.cfg.ListID {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// TogglePurchased flips an item's purchased flag and attributes it to the
// session's current store. lastKnown is the caller's view of the item; when
// nil the stored value is used. Concurrent toggles resolve last-write-wins.
func (s *SessionService) TogglePurchased(ctx context.Context, sessionID, itemID string, lastKnown *bool) (res *ToggleResult, err error) {
	ctx, span := util.StartSpan(ctx, "SessionService.TogglePurchased")
	defer func() { util.EndSpan(span, err) }()

	sess, err := s.activeSession(ctx, sessionID, itemID)
	if err != nil {
		return nil, err
	}

	ledger := session.Ledger{}
	if lastKnown != nil {
		ledger.Set(itemID, *lastKnown)
	} else {
		row, err := s.repo.GetSessionItem(ctx, sess.ID, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger row: %w", err)
		}
		if row != nil {
			ledger.Set(itemID, row.Purchased)
		}
	}
	purchased := ledger.Toggle(itemID)

	outcome := "unpurchased"
	if purchased {
		outcome = "purchased"
	}
	return s.writeLedger(ctx, sess, &models.SessionItem{
		SessionID: sess.ID,
		ItemID:    itemID,
		Purchased: purchased,
		Store:     sess.CurrentStore,
	}, outcome)
}

// MarkNotFound records that the item was looked for and not bought at the
// current store. A later toggle overwrites it.
func (s *SessionService) MarkNotFound(ctx context.Context, sessionID, itemID string) (res *ToggleResult, err error) {
	ctx, span := util.StartSpan(ctx, "SessionService.MarkNotFound")
	defer func() { util.EndSpan(span, err) }()

	sess, err := s.activeSession(ctx, sessionID, itemID)
	if err != nil {
		return nil, err
	}
	return s.writeLedger(ctx, sess, &models.SessionItem{
		SessionID: sess.ID,
		ItemID:    itemID,
		Store:     sess.CurrentStore,
		NotFound:  true,
	}, "not_found")
}

func (s *SessionService) activeSession(ctx context.Context, sessionID, itemID string) (*models.ShoppingSession, error) {
	if _, err := uuid.Parse(itemID); err != nil {
		return nil, fmt.Errorf("%w: invalid item id %q", ErrValidation, itemID)
	}
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted() {
		return nil, ErrSessionCompleted
	}
	if _, err := s.catalog.GetItem(ctx, sess.ListID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to look up item: %w", err)
	}
	return sess, nil
}

func (s *SessionService) writeLedger(ctx context.Context, sess *models.ShoppingSession, row *models.SessionItem, outcome string) (*ToggleResult, error) {
	if err := s.repo.UpsertSessionItem(ctx, row); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrSessionCompleted
		}
		return nil, fmt.Errorf("failed to write ledger: %w", err)
	}

	util.PurchaseTogglesTotal.WithLabelValues(outcome).Inc()
	s.logger.Debug("Ledger updated",
		zap.String("session_id", sess.ID),
		zap.String("item_id", row.ItemID),
		zap.Bool("purchased", row.Purchased),
		zap.Bool("not_found", row.NotFound),
		zap.String("store", row.Store))

	event := &models.PurchaseToggledEvent{
		BaseEvent: newBaseEvent(models.EventTypePurchaseToggled, sess.ListID),
		SessionID: sess.ID,
		ItemID:    row.ItemID,
		Purchased: row.Purchased,
		NotFound:  row.NotFound,
		Store:     row.Store,
	}
	publishAsync(s.logger, event.EventType, func(ctx context.Context) error {
		return s.events.PublishPurchaseToggled(ctx, event)
	})

	return &ToggleResult{
		ItemID:    row.ItemID,
		Purchased: row.Purchased,
		NotFound:  row.NotFound,
		Store:     row.Store,
	}, nil
}

// FinishStore advances the session past fromStore, or completes it when
// fromStore is the last store. fromStore defaults to the current store.
// Retries of an already applied finish return the current position and
// never advance twice; completion is written and announced at most once.
func (s *SessionService) FinishStore(ctx context.Context, sessionID, fromStore string) (res *AdvanceResult, err error) {
	ctx, span := util.StartSpan(ctx, "SessionService.FinishStore")
	defer func() { util.EndSpan(span, err) }()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted() {
		return s.position(sess)
	}

	from := strings.ToLower(strings.TrimSpace(fromStore))
	if from == "" {
		from = sess.CurrentStore
	}
	if session.AlreadyLeft(sess.StoreOrder, sess.CurrentStore, from) {
		return s.position(sess)
	}
	if from != sess.CurrentStore {
		return nil, fmt.Errorf("%w: session is at %q, not %q", ErrValidation, sess.CurrentStore, from)
	}

	step, err := session.Advance(sess.StoreOrder, from)
	if err != nil {
		return nil, err
	}

	if !step.Complete {
		moved, err := s.repo.AdvanceSession(ctx, sess.ID, from, step.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to advance session: %w", err)
		}
		if !moved {
			// Another request applied this transition first.
			return s.reload(ctx, sess.ID)
		}
		sess.CurrentStore = step.Store

		util.StoresAdvancedTotal.Inc()
		s.logger.Info("Store finished",
			zap.String("session_id", sess.ID),
			zap.String("from", from),
			zap.String("current", step.Store))

		event := &models.StoreAdvancedEvent{
			BaseEvent:    newBaseEvent(models.EventTypeStoreAdvanced, sess.ListID),
			SessionID:    sess.ID,
			FromStore:    from,
			CurrentStore: step.Store,
			Index:        step.Index,
		}
		publishAsync(s.logger, event.EventType, func(ctx context.Context) error {
			return s.events.PublishStoreAdvanced(ctx, event)
		})
		return s.position(sess)
	}

	completedAt, done, err := s.repo.CompleteSession(ctx, sess.ID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	if !done {
		return s.reload(ctx, sess.ID)
	}
	sess.CompletedAt = &completedAt

	util.SessionsCompletedTotal.Inc()
	s.logger.Info("Shopping session completed",
		zap.String("session_id", sess.ID),
		zap.Time("completed_at", completedAt))

	event := &models.SessionCompletedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeSessionCompleted, sess.ListID),
		SessionID:   sess.ID,
		CompletedAt: completedAt,
	}
	publishAsync(s.logger, event.EventType, func(ctx context.Context) error {
		return s.events.PublishSessionCompleted(ctx, event)
	})
	return s.position(sess)
}

func (s *SessionService) reload(ctx context.Context, sessionID string) (*AdvanceResult, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload session: %w", err)
	}
	return s.position(sess)
}

func (s *SessionService) position(sess *models.ShoppingSession) (*AdvanceResult, error) {
	idx, err := session.CurrentIndex(sess)
	if err != nil {
		return nil, err
	}
	return &AdvanceResult{
		Complete:     sess.IsCompleted(),
		Session:      sess,
		CurrentIndex: idx,
		CurrentStore: sess.CurrentStore,
	}, nil
}

// Summary reports what was bought where and what was not found
func (s *SessionService) Summary(ctx context.Context, sessionID string) (sum *session.Summary, err error) {
	ctx, span := util.StartSpan(ctx, "SessionService.Summary")
	defer func() { util.EndSpan(span, err) }()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsCompleted() {
		return nil, ErrSessionNotCompleted
	}

	rows, err := s.repo.ListSessionItems(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	catalog, err := s.catalog.ListItems(ctx, sess.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	summary := session.BuildSummary(sess, rows, catalog)
	if len(summary.MissingItemIDs) > 0 {
		s.logger.Warn("Summary references deleted items",
			zap.String("session_id", sess.ID),
			zap.Strings("item_ids", summary.MissingItemIDs))
	}
	return &summary, nil
}
