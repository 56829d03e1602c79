package glot

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

// testTime is a fixed UTC instant so day arithmetic in assertions is exact.
var testTime = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(SchedulingConfig{
		DesiredRetention: 0.9,
		MaximumInterval:  365,
		EnableFuzz:       false,
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func TestFirstReviewGood(t *testing.T) {
	s := newTestScheduler(t)
	now := testTime

	card, event, err := s.ApplyReview(NewCard(1), Good, now, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}

	// S₀(Good) = w[2]
	assertFloat(t, "stability", card.Memory.Stability, DefaultWeights[2])
	wantD := math.Min(math.Max(DefaultWeights[4]-math.Exp(DefaultWeights[5]*2)+1, 1), 10)
	assertFloat(t, "difficulty", card.Memory.Difficulty, wantD)

	if card.State != Learning {
		t.Errorf("State = %s, want Learning", card.State)
	}
	if card.Reps != 1 || card.Lapses != 0 {
		t.Errorf("Reps = %d, Lapses = %d, want 1, 0", card.Reps, card.Lapses)
	}

	// With retention 0.9 the interval equals the stability, rounded.
	days := int(card.Due.Sub(now).Hours() / 24)
	if days != 3 {
		t.Errorf("interval = %d days, want 3", days)
	}
	if days < 1 || days > 365 {
		t.Errorf("interval %d outside [1, 365]", days)
	}

	if event.StateBefore != New || event.StabilityBefore != 0 || event.DifficultyBefore != 0 {
		t.Errorf("event pre-review state = %s/%.2f/%.2f, want New/0/0",
			event.StateBefore, event.StabilityBefore, event.DifficultyBefore)
	}
	if event.ElapsedDays != 0 || event.ScheduledDays != 0 {
		t.Errorf("ElapsedDays = %d, ScheduledDays = %d, want 0, 0", event.ElapsedDays, event.ScheduledDays)
	}
}

func TestFirstReviewAgain(t *testing.T) {
	s := newTestScheduler(t)
	now := testTime

	card, _, err := s.ApplyReview(NewCard(1), Again, now, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}

	// S₀(Again) = w[0]; a first-ever Again is a lapse straight into Relearning.
	assertFloat(t, "stability", card.Memory.Stability, DefaultWeights[0])
	if card.State != Relearning {
		t.Errorf("State = %s, want Relearning", card.State)
	}
	if card.Lapses != 1 {
		t.Errorf("Lapses = %d, want 1", card.Lapses)
	}
	if days := int(card.Due.Sub(now).Hours() / 24); days != 1 {
		t.Errorf("interval = %d days, want 1 (floor)", days)
	}
}

func TestInvalidRating(t *testing.T) {
	s := newTestScheduler(t)
	for _, r := range []Rating{Rating(0), Rating(5), Rating(-1)} {
		_, _, err := s.ApplyReview(NewCard(1), r, testTime, nil)
		if err == nil {
			t.Errorf("rating %d accepted", int(r))
			continue
		}
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: error = %v, want ErrInvalidRating", int(r), err)
		}
	}
}

func TestApplyReviewDoesNotMutateInput(t *testing.T) {
	s := newTestScheduler(t)
	now := testTime

	orig, _, err := s.ApplyReview(NewCard(1), Good, now, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	stability := orig.Memory.Stability
	due := *orig.Due

	if _, _, err := s.ApplyReview(orig, Again, now.AddDate(0, 0, 3), nil); err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}

	if orig.Memory.Stability != stability {
		t.Error("input card's memory state was mutated")
	}
	if !orig.Due.Equal(due) {
		t.Error("input card's due date was mutated")
	}
	if orig.Reps != 1 {
		t.Errorf("input card's Reps = %d, want 1", orig.Reps)
	}
}

func TestRepsAndLapsesCounters(t *testing.T) {
	s := newTestScheduler(t)
	now := testTime
	card := NewCard(1)

	ratings := []Rating{Good, Again, Hard, Again, Easy}
	wantLapses := 0
	var err error
	for i, r := range ratings {
		card, _, err = s.ApplyReview(card, r, now, nil)
		if err != nil {
			t.Fatalf("review %d: %v", i, err)
		}
		if r == Again {
			wantLapses++
			if card.State != Relearning {
				t.Errorf("review %d: State = %s, want Relearning", i, card.State)
			}
		}
		if card.Reps != i+1 {
			t.Errorf("review %d: Reps = %d, want %d", i, card.Reps, i+1)
		}
		if card.Lapses != wantLapses {
			t.Errorf("review %d: Lapses = %d, want %d", i, card.Lapses, wantLapses)
		}
		now = now.AddDate(0, 0, 1)
	}
}

func TestElapsedAndScheduledDays(t *testing.T) {
	s := newTestScheduler(t)
	start := testTime

	card, _, err := s.ApplyReview(NewCard(1), Easy, start, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	scheduled := int(card.Due.Sub(*card.LastReview).Hours() / 24)

	// Review again 10 days later.
	_, event, err := s.ApplyReview(card, Good, start.AddDate(0, 0, 10), nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	if event.ElapsedDays != 10 {
		t.Errorf("ElapsedDays = %d, want 10", event.ElapsedDays)
	}
	if event.ScheduledDays != scheduled {
		t.Errorf("ScheduledDays = %d, want %d", event.ScheduledDays, scheduled)
	}
	if event.StateBefore != Learning {
		t.Errorf("StateBefore = %s, want Learning", event.StateBefore)
	}
	assertFloat(t, "StabilityBefore", event.StabilityBefore, card.Memory.Stability)
}

func TestReviewBeforeLastReviewClampsElapsed(t *testing.T) {
	s := newTestScheduler(t)
	now := testTime

	card, _, err := s.ApplyReview(NewCard(1), Good, now, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	// Clock skew: a review timestamped before the last one still yields >= 0.
	_, event, err := s.ApplyReview(card, Good, now.AddDate(0, 0, -2), nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	if event.ElapsedDays != 0 {
		t.Errorf("ElapsedDays = %d, want 0", event.ElapsedDays)
	}
}

func TestReviewDurationCarried(t *testing.T) {
	s := newTestScheduler(t)
	dur := 4200
	_, event, err := s.ApplyReview(NewCard(1), Good, testTime, &dur)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	if event.ReviewDuration == nil || *event.ReviewDuration != 4200 {
		t.Errorf("ReviewDuration = %v, want 4200", event.ReviewDuration)
	}
}

func TestPreviewNewCard(t *testing.T) {
	s := newTestScheduler(t)
	p := s.Preview(NewCard(1), testTime)

	assertFloat(t, "again stability", p.Again.NewStability, DefaultWeights[0])
	assertFloat(t, "hard stability", p.Hard.NewStability, DefaultWeights[1])
	assertFloat(t, "good stability", p.Good.NewStability, DefaultWeights[2])
	assertFloat(t, "easy stability", p.Easy.NewStability, DefaultWeights[3])

	for name, info := range map[string]SchedulingInfo{
		"again": p.Again, "hard": p.Hard, "good": p.Good, "easy": p.Easy,
	} {
		if info.IntervalDays < 1 || info.IntervalDays > 365 {
			t.Errorf("%s interval %d outside [1, 365]", name, info.IntervalDays)
		}
		if info.NewDifficulty < 1 || info.NewDifficulty > 10 {
			t.Errorf("%s difficulty %.2f outside [1, 10]", name, info.NewDifficulty)
		}
	}
	if !(p.Again.IntervalDays <= p.Good.IntervalDays && p.Good.IntervalDays <= p.Easy.IntervalDays) {
		t.Errorf("interval ordering broken: again=%d good=%d easy=%d",
			p.Again.IntervalDays, p.Good.IntervalDays, p.Easy.IntervalDays)
	}
}

func TestPreviewIdempotentAndPure(t *testing.T) {
	// Fuzz is always disabled in previews, even on a fuzzing scheduler.
	s, err := NewScheduler(DefaultConfig())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	now := testTime
	card, _, err := s.ApplyReview(NewCard(1), Good, now, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	snapshot := card.clone()

	at := now.AddDate(0, 0, 5)
	p1 := s.Preview(card, at)
	p2 := s.Preview(card, at)
	if p1 != p2 {
		t.Errorf("preview not deterministic:\n%+v\n%+v", p1, p2)
	}

	if card.State != snapshot.State || card.Reps != snapshot.Reps ||
		*card.Memory != *snapshot.Memory || !card.Due.Equal(*snapshot.Due) {
		t.Error("Preview mutated the card")
	}
}

func TestPreviewMatchesApplyWithoutFuzz(t *testing.T) {
	s := newTestScheduler(t)
	now := testTime
	card, _, err := s.ApplyReview(NewCard(1), Good, now, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}

	at := now.AddDate(0, 0, 4)
	p := s.Preview(card, at)

	applied, _, err := s.ApplyReview(card, Hard, at, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	assertFloat(t, "hard stability", p.Hard.NewStability, applied.Memory.Stability)
	assertFloat(t, "hard difficulty", p.Hard.NewDifficulty, applied.Memory.Difficulty)
	if days := int(applied.Due.Sub(at).Hours() / 24); days != p.Hard.IntervalDays {
		t.Errorf("applied interval %d != previewed %d", days, p.Hard.IntervalDays)
	}
}

func TestFuzzedIntervalStaysInRange(t *testing.T) {
	s, err := NewScheduler(SchedulingConfig{
		DesiredRetention: 0.9,
		MaximumInterval:  50,
		EnableFuzz:       true,
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	now := testTime
	base := Card{
		CardID:     1,
		State:      Review,
		Memory:     &MemoryState{Stability: 48.0, Difficulty: 5.0},
		LastReview: &now,
	}
	// Fuzz guarantees only range membership, not exact values.
	for i := 0; i < 200; i++ {
		card, _, err := s.ApplyReview(base, Good, now.AddDate(0, 0, 30), nil)
		if err != nil {
			t.Fatalf("ApplyReview: %v", err)
		}
		days := int(card.Due.Sub(now.AddDate(0, 0, 30)).Hours() / 24)
		if days < 1 || days > 50 {
			t.Errorf("fuzzed interval %d outside [1, 50]", days)
		}
	}
}

func TestStabilityGrowsOverSuccessfulReviews(t *testing.T) {
	s := newTestScheduler(t)
	now := testTime
	card := NewCard(1)

	var err error
	card, _, err = s.ApplyReview(card, Good, now, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	prev := card.Memory.Stability
	for i := 0; i < 5; i++ {
		card, _, err = s.ApplyReview(card, Good, *card.Due, nil)
		if err != nil {
			t.Fatalf("review %d: %v", i, err)
		}
		if card.Memory.Stability <= prev {
			t.Errorf("review %d: stability %.4f did not grow past %.4f", i, card.Memory.Stability, prev)
		}
		prev = card.Memory.Stability
	}
}

func TestRetrievability(t *testing.T) {
	s := newTestScheduler(t)
	now := testTime

	if got := s.Retrievability(NewCard(1), now); got != 0 {
		t.Errorf("Retrievability(new card) = %v, want 0", got)
	}

	card, _, err := s.ApplyReview(NewCard(1), Good, now, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	assertFloat(t, "R immediately after review", s.Retrievability(card, now), 1.0)

	later := s.Retrievability(card, now.AddDate(0, 0, 30))
	if later >= 1.0 || later <= 0 {
		t.Errorf("R after 30 days = %v, want in (0, 1)", later)
	}
}

func TestReschedule(t *testing.T) {
	s := newTestScheduler(t)
	now := testTime
	card := NewCard(1)

	var events []ReviewEvent
	var err error
	var ev ReviewEvent
	for _, r := range []Rating{Good, Good, Again, Hard, Good} {
		card, ev, err = s.ApplyReview(card, r, now, nil)
		if err != nil {
			t.Fatalf("ApplyReview: %v", err)
		}
		events = append(events, ev)
		now = *card.Due
	}

	rebuilt, err := s.Reschedule(NewCard(1), events)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	assertFloat(t, "stability", rebuilt.Memory.Stability, card.Memory.Stability)
	assertFloat(t, "difficulty", rebuilt.Memory.Difficulty, card.Memory.Difficulty)
	if rebuilt.State != card.State || rebuilt.Reps != card.Reps || rebuilt.Lapses != card.Lapses {
		t.Errorf("rebuilt card %+v != reviewed card %+v", rebuilt, card)
	}
}

func TestRescheduleCardMismatch(t *testing.T) {
	s := newTestScheduler(t)
	_, ev, err := s.ApplyReview(NewCard(2), Good, testTime, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	_, err = s.Reschedule(NewCard(1), []ReviewEvent{ev})
	if !errors.Is(err, ErrCardMismatch) {
		t.Errorf("error = %v, want ErrCardMismatch", err)
	}
}

func TestSameDayReviewKeepsInvariants(t *testing.T) {
	s := newTestScheduler(t)
	now := testTime

	card, _, err := s.ApplyReview(NewCard(1), Good, now, nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	// Elapsed 0 → R = 1; the update must still respect the invariants.
	card, _, err = s.ApplyReview(card, Good, now.Add(2*time.Hour), nil)
	if err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	if card.Memory.Stability < minStability {
		t.Errorf("stability %.4f below floor", card.Memory.Stability)
	}
	if card.Memory.Difficulty < 1 || card.Memory.Difficulty > 10 {
		t.Errorf("difficulty %.4f outside [1, 10]", card.Memory.Difficulty)
	}
}

func TestSchedulerJSONRoundTrip(t *testing.T) {
	orig, err := NewScheduler(SchedulingConfig{
		DesiredRetention: 0.85,
		MaximumInterval:  1000,
		EnableFuzz:       false,
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	var back Scheduler
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	if back.desiredRetention != 0.85 || back.maximumInterval != 1000 || back.enableFuzz {
		t.Errorf("round trip config mismatch: %+v", &back)
	}
	if back.algo.w != orig.algo.w {
		t.Error("round trip weights mismatch")
	}
}
