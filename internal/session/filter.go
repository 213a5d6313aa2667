package session

import "shopping-service/internal/models"

// VisibleItems returns the catalog items actionable at current, preserving
// catalog order. An item is hidden once purchased, and deferred while
// current comes before its preferred store. A preferred store absent from
// order counts as no preference.
func VisibleItems(items []models.Item, ledger Ledger, order []string, current string) []models.Item {
	at := IndexOf(order, current)
	visible := make([]models.Item, 0, len(items))
	for _, item := range items {
		if ledger.IsPurchased(item.ID) {
			continue
		}
		if !eligibleAt(item, order, at) {
			continue
		}
		visible = append(visible, item)
	}
	return visible
}

func eligibleAt(item models.Item, order []string, at int) bool {
	preferred := item.Preferred()
	if preferred == "" {
		return true
	}
	pos := IndexOf(order, preferred)
	if pos < 0 {
		return true
	}
	return at >= pos
}
