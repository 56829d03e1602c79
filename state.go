package glot

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// State represents the lifecycle stage of a card.
type State int

const (
	New        State = iota + 1 // Never reviewed, no memory state yet.
	Learning                    // First successful review done, still young.
	Review                      // In the long-term review cycle.
	Relearning                  // Forgotten, relearning.
)

var (
	stateNames  = [...]string{New: "New", Learning: "Learning", Review: "Review", Relearning: "Relearning"}
	stateByName = map[string]State{
		"New":        New,
		"Learning":   Learning,
		"Review":     Review,
		"Relearning": Relearning,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = State(0)
	_ json.Marshaler           = State(0)
	_ json.Unmarshaler         = (*State)(nil)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

func (s State) isValid() bool {
	return s >= New && s <= Relearning
}

// next returns the lifecycle state after a review with the given rating.
//
//	any state    + Again           → Relearning
//	New          + Hard/Good/Easy  → Learning
//	other states + Hard/Good/Easy  → Review
func (s State) next(r Rating) State {
	switch {
	case r == Again:
		return Relearning
	case s == New:
		return Learning
	default:
		return Review
	}
}

// String returns the name of the state ("New", "Learning", "Review", "Relearning").
// For invalid values it returns "State(n)".
func (s State) String() string {
	if s.isValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.isValid() {
		return nil, fmt.Errorf("glot: invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, ok := stateByName[string(text)]
	if !ok {
		return fmt.Errorf("glot: invalid state: %q", text)
	}
	*s = v
	return nil
}

// MarshalJSON implements json.Marshaler. State serializes as a JSON string.
func (s State) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("glot: invalid state: %s", data)
	}
	return s.UnmarshalText([]byte(str))
}
