package session

import "shopping-service/internal/models"

// Ledger is a participant's view of which items are purchased in a session.
type Ledger map[string]bool

// LedgerFromRows rebuilds the purchase map from persisted rows.
func LedgerFromRows(rows []models.SessionItem) Ledger {
	l := make(Ledger, len(rows))
	for _, row := range rows {
		if row.Purchased {
			l[row.ItemID] = true
		}
	}
	return l
}

// IsPurchased reports the last known state for itemID.
func (l Ledger) IsPurchased(itemID string) bool {
	return l[itemID]
}

// Toggle flips itemID from its last known state and returns the new value.
// The result depends only on local state, so two devices toggling the same
// item concurrently resolve last-write-wins in the store.
func (l Ledger) Toggle(itemID string) bool {
	next := !l[itemID]
	l.Set(itemID, next)
	return next
}

// Set records an explicit value, dropping the key when unpurchased.
func (l Ledger) Set(itemID string, purchased bool) {
	if purchased {
		l[itemID] = true
		return
	}
	delete(l, itemID)
}
