// Package glot implements the FSRS-4.5 spaced repetition scheduling core.
//
// glot provides a pure Scheduler for computing optimal review intervals
// from a card's memory state and a recall rating, a due-card ordering
// policy, and (in the glot/store subpackage) a versioned card store with
// optimistic concurrency for review submission.
//
// Basic usage:
//
//	s, err := glot.NewScheduler(glot.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	card := glot.NewCard(1)
//	card, event, err := s.ApplyReview(card, glot.Good, time.Now(), nil)
package glot
