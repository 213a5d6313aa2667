package service

import (
	"context"
	"fmt"
	"strings"

	"shopping-service/config"
	"shopping-service/internal/livefeed"
	"shopping-service/internal/models"
	"shopping-service/internal/session"
)

// ListerView is the lister's snapshot: the whole catalog plus where the
// shopper currently is.
type ListerView struct {
	Items   []models.Item `json:"items"`
	Session *SessionState `json:"session"`
}

// ShopperView is the shopper's snapshot at the active store
type ShopperView struct {
	*SessionState
	Visible []models.Item `json:"visible"`
	Total   int           `json:"total"`
}

// ViewService builds participant snapshots and keeps them live
type ViewService struct {
	catalog  CatalogRepository
	sessions *SessionService
	feed     livefeed.Feed
	cfg      config.ShoppingConfig
}

// NewViewService creates a new view service
func NewViewService(catalog CatalogRepository, sessions *SessionService, feed livefeed.Feed, cfg config.ShoppingConfig) *ViewService {
	return &ViewService{
		catalog:  catalog,
		sessions: sessions,
		feed:     feed,
		cfg:      cfg,
	}
}

// Lister fetches the lister's view
func (v *ViewService) Lister(ctx context.Context) (*ListerView, error) {
	items, err := v.catalog.ListItems(ctx, v.cfg.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	state, err := v.sessions.Resume(ctx)
	if err != nil {
		return nil, err
	}
	return &ListerView{Items: items, Session: state}, nil
}

// Shopper fetches the shopper's view. Without an active session the visible
// set is the whole catalog.
func (v *ViewService) Shopper(ctx context.Context) (*ShopperView, error) {
	state, err := v.sessions.Resume(ctx)
	if err != nil {
		return nil, err
	}
	items, err := v.catalog.ListItems(ctx, v.cfg.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	visible := items
	if state.Session != nil {
		visible = session.VisibleItems(items, state.Purchased, state.Session.StoreOrder, state.CurrentStore)
	}
	return &ShopperView{SessionState: state, Visible: visible, Total: len(items)}, nil
}

// Visible returns the items actionable at store within a session. An empty
// store means the session's current store.
func (v *ViewService) Visible(ctx context.Context, sessionID, store string) ([]models.Item, error) {
	state, err := v.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	at := strings.ToLower(strings.TrimSpace(store))
	if at == "" {
		at = state.CurrentStore
	}
	if session.IndexOf(state.Session.StoreOrder, at) < 0 {
		return nil, fmt.Errorf("%w: %q is not part of this session", ErrUnknownStore, at)
	}

	items, err := v.catalog.ListItems(ctx, v.cfg.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return session.VisibleItems(items, state.Purchased, state.Session.StoreOrder, at), nil
}

// WatchLister streams lister snapshots until ctx is done or apply fails
func (v *ViewService) WatchLister(ctx context.Context, apply func(*ListerView) error) error {
	return livefeed.Watch[*ListerView](ctx, v.feed, livefeed.CatalogTopic(v.cfg.ListID), v.Lister, apply)
}

// WatchShopper streams shopper snapshots until ctx is done or apply fails
func (v *ViewService) WatchShopper(ctx context.Context, apply func(*ShopperView) error) error {
	return livefeed.Watch[*ShopperView](ctx, v.feed, livefeed.CatalogTopic(v.cfg.ListID), v.Shopper, apply)
}
