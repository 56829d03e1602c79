package glot

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheduler schedules card reviews using the FSRS-4.5 algorithm.
//
// A Scheduler is immutable after construction apart from its fuzz RNG,
// which is mutex-guarded, so reviews of different cards may run on any
// number of goroutines concurrently.
type Scheduler struct {
	algo             algo
	desiredRetention float64
	maximumInterval  int
	enableFuzz       bool

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// SchedulingInfo is the predicted outcome of reviewing a card with one
// particular rating.
type SchedulingInfo struct {
	IntervalDays  int     `json:"interval_days"`
	NewStability  float64 `json:"new_stability"`
	NewDifficulty float64 `json:"new_difficulty"`
}

// PreviewResult holds the predicted outcome for each of the four ratings.
type PreviewResult struct {
	Again SchedulingInfo `json:"again"`
	Hard  SchedulingInfo `json:"hard"`
	Good  SchedulingInfo `json:"good"`
	Easy  SchedulingInfo `json:"easy"`
}

// NewScheduler creates a Scheduler from the given config.
// Zero-value fields are filled with defaults; invalid values return an
// error wrapping ErrInvalidConfiguration.
func NewScheduler(cfg SchedulingConfig) (*Scheduler, error) {
	dr, maxIvl, w, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		algo:             algo{w: w},
		desiredRetention: dr,
		maximumInterval:  maxIvl,
		enableFuzz:       cfg.EnableFuzz,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// ApplyReview processes a review of the card at the given time.
// It returns the updated card and the review event; the input card is not
// mutated. reviewDuration is the optional answer time in milliseconds.
// A rating outside Again..Easy returns ErrInvalidRating before any
// computation.
func (s *Scheduler) ApplyReview(card Card, rating Rating, now time.Time, reviewDuration *int) (Card, ReviewEvent, error) {
	if !rating.IsValid() {
		return Card{}, ReviewEvent{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	c := card.clone()
	elapsed := elapsedDays(c.LastReview, now)
	scheduled := scheduledDays(c.LastReview, c.Due)

	event := ReviewEvent{
		ID:             uuid.New(),
		CardID:         c.CardID,
		Rating:         rating,
		ReviewedAt:     now,
		ReviewDuration: reviewDuration,
		StateBefore:    c.State,
		ScheduledDays:  scheduled,
		ElapsedDays:    elapsed,
	}
	if c.Memory != nil {
		event.StabilityBefore = c.Memory.Stability
		event.DifficultyBefore = c.Memory.Difficulty
	}

	memory, interval := s.simulate(c, rating, elapsed, s.enableFuzz)

	c.State = c.State.next(rating)
	c.Memory = &memory
	c.Reps++
	if rating == Again {
		c.Lapses++
	}
	due := now.Add(time.Duration(interval) * 24 * time.Hour)
	c.Due = &due
	c.LastReview = &now

	return c, event, nil
}

// Preview returns the predicted interval and memory state for each of the
// four ratings, without mutating the card, consuming a review event, or
// applying fuzz. Two calls with identical inputs produce identical results.
func (s *Scheduler) Preview(card Card, now time.Time) PreviewResult {
	elapsed := elapsedDays(card.LastReview, now)

	var infos [4]SchedulingInfo
	for i, r := range Ratings {
		memory, interval := s.simulate(card, r, elapsed, false)
		infos[i] = SchedulingInfo{
			IntervalDays:  interval,
			NewStability:  memory.Stability,
			NewDifficulty: memory.Difficulty,
		}
	}
	return PreviewResult{Again: infos[0], Hard: infos[1], Good: infos[2], Easy: infos[3]}
}

// Reschedule replays the given review events to rebuild the card's
// scheduling state. Returns ErrCardMismatch if any event's CardID does not
// match the card's CardID.
func (s *Scheduler) Reschedule(card Card, events []ReviewEvent) (Card, error) {
	c := card.clone()
	c.State = New
	c.Memory = nil
	c.Due = nil
	c.LastReview = nil
	c.Reps = 0
	c.Lapses = 0

	for _, ev := range events {
		if ev.CardID != c.CardID {
			return Card{}, fmt.Errorf("%w: card %d, event %d", ErrCardMismatch, c.CardID, ev.CardID)
		}
		var err error
		if c, _, err = s.ApplyReview(c, ev.Rating, ev.ReviewedAt, ev.ReviewDuration); err != nil {
			return Card{}, err
		}
	}
	return c, nil
}

// Retrievability returns the predicted probability of recall for the card
// at the given time. Returns 0 for a card that has never been reviewed.
func (s *Scheduler) Retrievability(card Card, now time.Time) float64 {
	if card.LastReview == nil || card.Memory == nil {
		return 0
	}
	elapsed := now.Sub(*card.LastReview).Hours() / 24.0
	if elapsed < 0 {
		elapsed = 0
	}
	return s.algo.retrievability(elapsed, card.Memory.Stability)
}

// simulate computes the post-review memory state and interval for one
// candidate rating. It reads the card but never writes it, so all four
// ratings can be evaluated from the same snapshot.
func (s *Scheduler) simulate(card Card, rating Rating, elapsed int, fuzz bool) (MemoryState, int) {
	var memory MemoryState
	if card.Memory == nil {
		// First review: initialize S and D.
		memory = MemoryState{
			Stability:  s.algo.initStability(rating),
			Difficulty: s.algo.initDifficulty(rating, true),
		}
	} else {
		r := s.algo.retrievability(float64(elapsed), card.Memory.Stability)
		d := s.algo.nextDifficulty(card.Memory.Difficulty, rating)
		memory = MemoryState{
			Stability:  s.algo.nextStability(d, card.Memory.Stability, r, rating),
			Difficulty: d,
		}
	}

	interval := s.algo.nextInterval(memory.Stability, s.desiredRetention, s.maximumInterval)
	if fuzz {
		s.mu.Lock()
		interval = applyFuzz(interval, s.maximumInterval, s.rng)
		s.mu.Unlock()
	}
	return memory, interval
}

// elapsedDays returns the whole days between the last review and now,
// floored at 0; 0 if the card has never been reviewed.
func elapsedDays(lastReview *time.Time, now time.Time) int {
	if lastReview == nil {
		return 0
	}
	days := int(now.Sub(*lastReview).Hours() / 24.0)
	if days < 0 {
		return 0
	}
	return days
}

// scheduledDays returns the whole days between the prior last review and
// the prior due date, floored at 0; 0 if either timestamp is absent.
func scheduledDays(lastReview, due *time.Time) int {
	if lastReview == nil || due == nil {
		return 0
	}
	days := int(due.Sub(*lastReview).Hours() / 24.0)
	if days < 0 {
		return 0
	}
	return days
}

// schedulerJSON is the serialized form of a Scheduler.
type schedulerJSON struct {
	DesiredRetention float64   `json:"desired_retention"`
	MaximumInterval  int       `json:"maximum_interval"`
	EnableFuzz       bool      `json:"enable_fuzz"`
	Weights          []float64 `json:"weights"`
}

// MarshalJSON implements json.Marshaler.
func (s *Scheduler) MarshalJSON() ([]byte, error) {
	return json.Marshal(schedulerJSON{
		DesiredRetention: s.desiredRetention,
		MaximumInterval:  s.maximumInterval,
		EnableFuzz:       s.enableFuzz,
		Weights:          s.algo.w[:],
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// It rebuilds the scheduler from the serialized config, revalidating it.
func (s *Scheduler) UnmarshalJSON(data []byte) error {
	var j schedulerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	rebuilt, err := NewScheduler(SchedulingConfig{
		DesiredRetention: j.DesiredRetention,
		MaximumInterval:  j.MaximumInterval,
		EnableFuzz:       j.EnableFuzz,
		Weights:          j.Weights,
	})
	if err != nil {
		return err
	}
	s.algo = rebuilt.algo
	s.desiredRetention = rebuilt.desiredRetention
	s.maximumInterval = rebuilt.maximumInterval
	s.enableFuzz = rebuilt.enableFuzz
	s.rng = rebuilt.rng
	return nil
}
