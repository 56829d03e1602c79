package glot

import (
	"time"

	"github.com/google/uuid"
)

// ReviewEvent is the immutable, append-only record of a single review.
// It captures the card's state before the review so that an external
// optimizer can refit the weight vector from accumulated history.
type ReviewEvent struct {
	ID             uuid.UUID `json:"id"`
	CardID         int64     `json:"card_id"`
	Rating         Rating    `json:"rating"`
	ReviewedAt     time.Time `json:"reviewed_at"`
	ReviewDuration *int      `json:"review_duration,omitempty"` // milliseconds, optional.

	// State before the review. Stability and difficulty are zero for a
	// card that had never been reviewed.
	StateBefore      State   `json:"state_before"`
	StabilityBefore  float64 `json:"stability_before"`
	DifficultyBefore float64 `json:"difficulty_before"`

	// ScheduledDays is the interval that had been scheduled (prior due
	// minus prior last review), ElapsedDays the whole days that actually
	// passed. Both are always >= 0.
	ScheduledDays int `json:"scheduled_days"`
	ElapsedDays   int `json:"elapsed_days"`
}
