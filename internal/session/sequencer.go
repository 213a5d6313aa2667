package session

import "fmt"

// Step is the outcome of finishing the current store.
type Step struct {
	// Index and Store describe the new position. On completion they keep
	// pointing at the last store.
	Index    int
	Store    string
	Complete bool
}

// Advance walks one store forward. Given index i of current in order, it
// moves to order[i+1] when one exists, otherwise it reports completion.
// Stores are never revisited or skipped.
func Advance(order []string, current string) (Step, error) {
	i := IndexOf(order, current)
	if i < 0 {
		return Step{}, fmt.Errorf("%w: store=%q", ErrStoreNotInOrder, current)
	}
	if i+1 < len(order) {
		return Step{Index: i + 1, Store: order[i+1]}, nil
	}
	return Step{Index: i, Store: current, Complete: true}, nil
}

// AlreadyLeft reports whether a session at current has moved past from.
// It lets a retried "finished at store" signal converge without advancing twice.
func AlreadyLeft(order []string, current, from string) bool {
	return IndexOf(order, from) >= 0 && IndexOf(order, current) > IndexOf(order, from)
}
