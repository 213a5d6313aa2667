package session

import (
	"time"

	"shopping-service/internal/models"
)

// PurchasedLine is one bought item with the store it was attributed to.
type PurchasedLine struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Store    string `json:"store"`
}

// NotFoundLine is an item the shopper did not buy during the session.
type NotFoundLine struct {
	ItemID         string  `json:"item_id"`
	Name           string  `json:"name"`
	Quantity       string  `json:"quantity"`
	PreferredStore *string `json:"preferred_store,omitempty"`
}

// Summary is the read model of a finished session.
type Summary struct {
	SessionID      string          `json:"session_id"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	StoreOrder     []string        `json:"store_order"`
	Purchased      []PurchasedLine `json:"purchased"`
	NotFound       []NotFoundLine  `json:"not_found"`
	MissingItemIDs []string        `json:"missing_item_ids,omitempty"`
}

// BuildSummary projects ledger rows onto the catalog. Rows whose item no
// longer exists are reported in MissingItemIDs instead of failing. Catalog
// items created after the session completed are not part of it.
func BuildSummary(s *models.ShoppingSession, rows []models.SessionItem, catalog []models.Item) Summary {
	byID := make(map[string]models.Item, len(catalog))
	for _, item := range catalog {
		byID[item.ID] = item
	}

	sum := Summary{
		SessionID:   s.ID,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		StoreOrder:  append([]string(nil), s.StoreOrder...),
		Purchased:   []PurchasedLine{},
		NotFound:    []NotFoundLine{},
	}

	ledger := make(map[string]models.SessionItem, len(rows))
	for _, row := range rows {
		item, ok := byID[row.ItemID]
		if !ok {
			sum.MissingItemIDs = append(sum.MissingItemIDs, row.ItemID)
			continue
		}
		ledger[row.ItemID] = row
		if row.Purchased {
			sum.Purchased = append(sum.Purchased, PurchasedLine{
				ItemID:   item.ID,
				Name:     item.Name,
				Quantity: item.Quantity,
				Store:    row.Store,
			})
		}
	}

	for _, item := range catalog {
		if s.CompletedAt != nil && item.CreatedAt.After(*s.CompletedAt) {
			continue
		}
		if row, ok := ledger[item.ID]; ok && row.Purchased {
			continue
		}
		sum.NotFound = append(sum.NotFound, NotFoundLine{
			ItemID:         item.ID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			PreferredStore: item.PreferredStore,
		})
	}

	return sum
}
