package glot

import (
	"sort"
	"time"
)

// SelectDue returns the cards that should be presented for review, in
// order: cards whose due date has passed, oldest overdue first, followed by
// New cards in their input order. Cards that are neither due nor New are
// excluded. limit bounds the result; limit <= 0 means no bound.
//
// SelectDue is a pure ordering policy: it never mutates cards and owns no
// querying or storage concern.
func SelectDue(cards []Card, now time.Time, limit int) []Card {
	var due, fresh []Card
	for _, c := range cards {
		switch {
		case c.Due != nil && !c.Due.After(now):
			due = append(due, c)
		case c.State == New:
			fresh = append(fresh, c)
		}
	}

	// Stable keeps input order for cards due at the same instant.
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Due.Before(*due[j].Due)
	})

	out := append(due, fresh...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
