// Package store keeps cards and their review history in memory, applying
// reviews through the glot scheduler with optimistic concurrency control.
//
// Each card carries a version that increments on every accepted write. A
// review submitted against a stale version is rejected with
// glot.ErrConcurrentModification and must be retried by the caller after
// re-reading the card; no update is ever silently lost.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/HSILA/glot"
)

// ErrCardNotFound is returned when the requested card does not exist.
var ErrCardNotFound = errors.New("store: card not found")

// Snapshot pairs a card with the version it was read at. The version must
// be handed back on Review.
type Snapshot struct {
	Card    glot.Card
	Version int64
}

// record is a card's mutable cell. Its mutex covers the full
// read-modify-write of a review, so reviews of different cards run in
// parallel while reviews of the same card serialize.
type record struct {
	mu      sync.Mutex
	card    glot.Card
	version int64
	events  []glot.ReviewEvent
}

// Store is an in-memory versioned card store.
type Store struct {
	mu    sync.RWMutex // guards the cards map, not the records
	cards map[int64]*record

	// sched is swapped atomically on configuration change; an in-flight
	// review keeps the scheduler it loaded at the start of the call.
	sched atomic.Pointer[glot.Scheduler]

	node *snowflake.Node
	log  zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's structured logger. By default the store is
// silent.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New creates a Store using the given scheduler for review application.
func New(sched *glot.Scheduler, opts ...Option) (*Store, error) {
	if sched == nil {
		return nil, fmt.Errorf("store: nil scheduler")
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("store: creating id node: %w", err)
	}

	s := &Store{
		cards: make(map[int64]*record),
		node:  node,
		log:   zerolog.Nop(),
	}
	s.sched.Store(sched)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetScheduler publishes a new scheduler configuration. Reviews that start
// after this call use the new scheduler; in-flight reviews finish with the
// snapshot they loaded.
func (s *Store) SetScheduler(sched *glot.Scheduler) {
	if sched == nil {
		return
	}
	s.sched.Store(sched)
	s.log.Info().Msg("scheduler configuration published")
}

// Scheduler returns the currently published scheduler.
func (s *Store) Scheduler() *glot.Scheduler {
	return s.sched.Load()
}

// CreateCard adds a new card in the New state and returns its snapshot.
func (s *Store) CreateCard() Snapshot {
	id := s.node.Generate().Int64()
	rec := &record{card: glot.NewCard(id), version: 1}

	s.mu.Lock()
	s.cards[id] = rec
	s.mu.Unlock()

	s.log.Debug().Int64("card_id", id).Msg("card created")
	return Snapshot{Card: rec.card, Version: rec.version}
}

// Get returns the card's current snapshot.
func (s *Store) Get(id int64) (Snapshot, error) {
	rec, err := s.record(id)
	if err != nil {
		return Snapshot{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return Snapshot{Card: rec.card, Version: rec.version}, nil
}

// Review applies a rating to the card identified by id, provided the
// caller's version still matches. On a version conflict it returns
// glot.ErrConcurrentModification and leaves the card untouched.
// reviewDuration is the optional answer time in milliseconds.
func (s *Store) Review(id, version int64, rating glot.Rating, now time.Time, reviewDuration *int) (Snapshot, glot.ReviewEvent, error) {
	rec, err := s.record(id)
	if err != nil {
		return Snapshot{}, glot.ReviewEvent{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.version != version {
		s.log.Warn().
			Int64("card_id", id).
			Int64("read_version", version).
			Int64("current_version", rec.version).
			Msg("review rejected: version conflict")
		return Snapshot{}, glot.ReviewEvent{}, fmt.Errorf(
			"%w: card %d read at version %d, now %d",
			glot.ErrConcurrentModification, id, version, rec.version)
	}

	sched := s.sched.Load()
	updated, event, err := sched.ApplyReview(rec.card, rating, now, reviewDuration)
	if err != nil {
		return Snapshot{}, glot.ReviewEvent{}, err
	}

	rec.card = updated
	rec.version++
	rec.events = append(rec.events, event)

	s.log.Info().
		Int64("card_id", id).
		Stringer("rating", rating).
		Stringer("state", updated.State).
		Int("elapsed_days", event.ElapsedDays).
		Time("due", *updated.Due).
		Msg("review applied")

	return Snapshot{Card: updated, Version: rec.version}, event, nil
}

// Events returns a copy of the card's review history in review order.
func (s *Store) Events(id int64) ([]glot.ReviewEvent, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]glot.ReviewEvent, len(rec.events))
	copy(out, rec.events)
	return out, nil
}

// Due returns up to limit cards ready for review at now, overdue cards
// oldest-first followed by New cards in creation order.
func (s *Store) Due(now time.Time, limit int) []glot.Card {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.cards))
	for _, rec := range s.cards {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	cards := make([]glot.Card, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		cards = append(cards, rec.card)
		rec.mu.Unlock()
	}

	// Creation order for New cards: snowflake IDs are time-ordered.
	sortByID(cards)
	return glot.SelectDue(cards, now, limit)
}

// Reschedule rebuilds the card's scheduling state by replaying its review
// history through the currently published scheduler. Used after a weight
// vector change to bring old cards onto the new curve.
func (s *Store) Reschedule(id int64) (Snapshot, error) {
	rec, err := s.record(id)
	if err != nil {
		return Snapshot{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rebuilt, err := s.sched.Load().Reschedule(rec.card, rec.events)
	if err != nil {
		return Snapshot{}, err
	}
	rec.card = rebuilt
	rec.version++

	s.log.Info().Int64("card_id", id).Int("replayed", len(rec.events)).Msg("card rescheduled")
	return Snapshot{Card: rebuilt, Version: rec.version}, nil
}

func (s *Store) record(id int64) (*record, error) {
	s.mu.RLock()
	rec, ok := s.cards[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrCardNotFound, id)
	}
	return rec, nil
}

func sortByID(cards []glot.Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].CardID < cards[j].CardID
	})
}
