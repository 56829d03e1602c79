package glot

import "fmt"

// Bounds on user-configurable scheduling settings.
const (
	MinDesiredRetention = 0.70
	MaxDesiredRetention = 0.97
	MaxMaximumInterval  = 36500
)

// SchedulingConfig configures a Scheduler. Exactly one configuration is in
// effect per scheduling call; it is never merged or changed mid-computation.
//
// Zero values fill with defaults: DesiredRetention 0.9, MaximumInterval 365,
// nil Weights → DefaultWeights. EnableFuzz is an explicit bool; use
// DefaultConfig for the fuzz-on default.
type SchedulingConfig struct {
	DesiredRetention float64   `json:"desired_retention"` // target recall probability, [0.70, 0.97]
	MaximumInterval  int       `json:"maximum_interval"`  // cap on the scheduled interval, days
	EnableFuzz       bool      `json:"enable_fuzz"`       // jitter intervals to desynchronize due dates
	Weights          []float64 `json:"weights"`           // nil → DefaultWeights; otherwise exactly 17 values
}

// DefaultConfig returns the process-wide default scheduling configuration.
func DefaultConfig() SchedulingConfig {
	return SchedulingConfig{
		DesiredRetention: 0.9,
		MaximumInterval:  365,
		EnableFuzz:       true,
	}
}

// normalize fills zero values with defaults and validates the result.
// All violations wrap ErrInvalidConfiguration; validation happens once at
// scheduler construction, never mid-computation.
func (c SchedulingConfig) normalize() (float64, int, Weights, error) {
	dr := c.DesiredRetention
	if dr == 0 {
		dr = 0.9
	}
	if dr < MinDesiredRetention || dr > MaxDesiredRetention {
		return 0, 0, Weights{}, fmt.Errorf("%w: desired retention %f out of [%.2f, %.2f]",
			ErrInvalidConfiguration, dr, MinDesiredRetention, MaxDesiredRetention)
	}

	maxIvl := c.MaximumInterval
	if maxIvl == 0 {
		maxIvl = 365
	}
	if maxIvl < 1 || maxIvl > MaxMaximumInterval {
		return 0, 0, Weights{}, fmt.Errorf("%w: maximum interval %d out of [1, %d]",
			ErrInvalidConfiguration, maxIvl, MaxMaximumInterval)
	}

	w := DefaultWeights
	if c.Weights != nil {
		var err error
		if w, err = WeightsFromSlice(c.Weights); err != nil {
			return 0, 0, Weights{}, err
		}
	}
	if err := ValidateWeights(w); err != nil {
		return 0, 0, Weights{}, err
	}

	return dr, maxIvl, w, nil
}
