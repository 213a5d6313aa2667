package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopping-service/config"
	"shopping-service/internal/livefeed"
	"shopping-service/internal/models"
	"shopping-service/internal/session"
	"shopping-service/internal/store"
	"shopping-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService handles the lister's item catalog
type CatalogService struct {
	repo   CatalogRepository
	feed   livefeed.Feed
	events EventPublisher
	cfg    config.ShoppingConfig
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	repo CatalogRepository,
	feed livefeed.Feed,
	events EventPublisher,
	cfg config.ShoppingConfig,
) *CatalogService {
	return &CatalogService{
		repo:   repo,
		feed:   feed,
		events: events,
		cfg:    cfg,
		logger: util.GetLogger(),
	}
}

// AddItemRequest represents a request to add an item
type AddItemRequest struct {
	Name           string `json:"name"`
	Quantity       string `json:"quantity"`
	PreferredStore string `json:"preferred_store,omitempty"`
}

// Stores returns the configured store sequence
func (s *CatalogService) Stores() []string {
	return append([]string(nil), s.cfg.StoreOrder...)
}

// ListItems returns the catalog, oldest first
func (s *CatalogService) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.repo.ListItems(ctx, s.cfg.ListID)
}

// AddItem validates and stores a new item, then notifies the shopper.
// Validation happens before any remote call.
func (s *CatalogService) AddItem(ctx context.Context, req *AddItemRequest) (item *models.Item, err error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.AddItem")
	defer func() { util.EndSpan(span, err) }()

	name := strings.TrimSpace(req.Name)
	quantity := strings.TrimSpace(req.Quantity)
	preferred := strings.ToLower(strings.TrimSpace(req.PreferredStore))

	if name == "" || quantity == "" {
		return nil, fmt.Errorf("%w: name and quantity are required", ErrValidation)
	}

	item = &models.Item{ListID: s.cfg.ListID, Name: name, Quantity: quantity}
	if preferred != "" {
		if session.IndexOf(s.cfg.StoreOrder, preferred) < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStore, preferred)
		}
		item.PreferredStore = &preferred
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}

	util.ItemsAddedTotal.Inc()
	s.logger.Info("Item added", zap.String("item_id", item.ID), zap.String("name", item.Name))

	announceCatalogChange(ctx, s.logger, s.feed, s.cfg.ListID)

	event := &models.ItemAddedEvent{
		BaseEvent:      newBaseEvent(models.EventTypeItemAdded, s.cfg.ListID),
		ItemID:         item.ID,
		Name:           item.Name,
		Quantity:       item.Quantity,
		PreferredStore: preferred,
	}
	publishAsync(s.logger, event.EventType, func(ctx context.Context) error {
		return s.events.PublishItemAdded(ctx, event)
	})

	return item, nil
}

// DeleteItem removes one item. Ledger rows that reference it are left in place.
func (s *CatalogService) DeleteItem(ctx context.Context, itemID string) (err error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteItem")
	defer func() { util.EndSpan(span, err) }()

	if _, err := uuid.Parse(itemID); err != nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err := s.repo.DeleteItem(ctx, s.cfg.ListID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}

	util.ItemsDeletedTotal.Inc()
	announceCatalogChange(ctx, s.logger, s.feed, s.cfg.ListID)

	event := &models.ItemDeletedEvent{
		BaseEvent: newBaseEvent(models.EventTypeItemDeleted, s.cfg.ListID),
		ItemID:    itemID,
	}
	publishAsync(s.logger, event.EventType, func(ctx context.Context) error {
		return s.events.PublishItemDeleted(ctx, event)
	})
	return nil
}

// ClearList removes every item of the list
func (s *CatalogService) ClearList(ctx context.Context) (removed int64, err error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ClearList")
	defer func() { util.EndSpan(span, err) }()

	removed, err = s.repo.ClearItems(ctx, s.cfg.ListID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear list: %w", err)
	}

	util.ItemsDeletedTotal.Add(float64(removed))
	s.logger.Info("List cleared", zap.Int64("removed", removed))
	announceCatalogChange(ctx, s.logger, s.feed, s.cfg.ListID)

	event := &models.ItemDeletedEvent{
		BaseEvent: newBaseEvent(models.EventTypeListCleared, s.cfg.ListID),
	}
	publishAsync(s.logger, event.EventType, func(ctx context.Context) error {
		return s.events.PublishItemDeleted(ctx, event)
	})
	return removed, nil
}
