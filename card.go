package glot

import "time"

// MemoryState is the model's estimate of how well an item is retained:
// stability in days until recall probability decays to the reference
// threshold, and intrinsic difficulty in [1, 10]. A card that has never
// been reviewed has no memory state.
type MemoryState struct {
	Stability  float64 `json:"stability"`
	Difficulty float64 `json:"difficulty"`
}

// Card is an immutable snapshot of a flashcard's scheduling state.
// Operations never mutate a Card in place; they return a new snapshot.
type Card struct {
	CardID     int64        `json:"card_id"`
	State      State        `json:"state"`
	Memory     *MemoryState `json:"memory"`      // nil before first review.
	Due        *time.Time   `json:"due"`         // nil before first review.
	LastReview *time.Time   `json:"last_review"` // nil before first review.
	Reps       int          `json:"reps"`
	Lapses     int          `json:"lapses"`
}

// NewCard creates a card in the New state with the given ID,
// immediately eligible for its first review.
func NewCard(id int64) Card {
	return Card{
		CardID: id,
		State:  New,
	}
}

// clone returns a deep copy of the card. Pointer fields are copied by value.
func (c Card) clone() Card {
	out := c
	if c.Memory != nil {
		v := *c.Memory
		out.Memory = &v
	}
	if c.Due != nil {
		v := *c.Due
		out.Due = &v
	}
	if c.LastReview != nil {
		v := *c.LastReview
		out.LastReview = &v
	}
	return out
}
