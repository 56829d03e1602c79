package glot

import (
	"fmt"
	"math"
)

// Forgetting-curve constants of the FSRS-4.5 model.
const (
	decay  = -0.5
	factor = 19.0 / 81.0 // 0.9^(1/decay) - 1

	// minStability is the epsilon floor preserving stability > 0.
	minStability = 0.01
)

// algo evaluates the FSRS-4.5 memory model for a fixed weight vector.
type algo struct {
	w Weights
}

// retrievability computes R(t, S) = (1 + FACTOR * t / S) ^ DECAY.
// R(0, S) is exactly 1.
func (a *algo) retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+factor*elapsedDays/stability, decay)
}

// initStability returns the initial stability S₀(G) = w[G-1].
func (a *algo) initStability(r Rating) float64 {
	return clampS(a.w[r-1])
}

// initDifficulty returns the initial difficulty D₀(G).
// D₀(G) = w[4] - e^(w[5] * (G - 1)) + 1
// When clamp is true, the result is clamped to [1, 10].
func (a *algo) initDifficulty(r Rating, clamp bool) float64 {
	d := a.w[4] - math.Exp(a.w[5]*float64(r-1)) + 1
	if clamp {
		return clampD(d)
	}
	return d
}

// nextInterval computes the next review interval in days.
// I(r, S) = round((S / FACTOR) * (r^(1/DECAY) - 1)), clamped to [1, maxIvl].
func (a *algo) nextInterval(stability, desiredRetention float64, maxIvl int) int {
	ivl := stability / factor * (math.Pow(desiredRetention, 1.0/decay) - 1)
	rounded := int(math.Round(ivl))
	if rounded < 1 {
		rounded = 1
	}
	if rounded > maxIvl {
		rounded = maxIvl
	}
	return rounded
}

// nextDifficulty computes the updated difficulty after a review.
// D' = D - w[6] * (G - 3)
// D'' = w[7]*D₀(Easy) + (1-w[7])*D'   (mean reversion)
// D'' = clamp_d(D'')
func (a *algo) nextDifficulty(difficulty float64, r Rating) float64 {
	dPrime := difficulty - a.w[6]*(float64(r)-3)
	d0Easy := a.initDifficulty(Easy, false) // mean reversion target, unclamped
	return clampD(a.w[7]*d0Easy + (1-a.w[7])*dPrime)
}

// nextStability dispatches to nextRecallStability or nextForgetStability.
// d is the already-updated difficulty, s the prior stability, r the
// retrievability at review time.
func (a *algo) nextStability(d, s, r float64, rating Rating) float64 {
	if rating == Again {
		return a.nextForgetStability(d, s, r)
	}
	return a.nextRecallStability(d, s, r, rating)
}

// nextRecallStability computes stability after a successful recall (Hard/Good/Easy).
// S'_r = S * (1 + e^w[8] * (11-D) * S^(-w[9]) * (e^((1-R)*w[10]) - 1) * hardPenalty * easyBonus)
func (a *algo) nextRecallStability(d, s, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = a.w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = a.w[16]
	}
	sPrime := s * (1 + math.Exp(a.w[8])*
		(11-d)*
		math.Pow(s, -a.w[9])*
		(math.Exp((1-r)*a.w[10])-1)*
		hardPenalty*easyBonus)
	return clampS(checkFinite(sPrime))
}

// nextForgetStability computes stability after forgetting (Again).
// S'_f = w[11] * D^(-w[12]) * ((S+1)^w[13] - 1) * e^((1-R)*w[14])
func (a *algo) nextForgetStability(d, s, r float64) float64 {
	sPrime := a.w[11] *
		math.Pow(d, -a.w[12]) *
		(math.Pow(s+1, a.w[13]) - 1) *
		math.Exp((1-r)*a.w[14])
	return clampS(checkFinite(sPrime))
}

// checkFinite panics on a non-finite stability. A NaN or Inf out of the
// model is a broken internal invariant, never a user error.
func checkFinite(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		panic(fmt.Sprintf("glot: memory model produced non-finite stability %f", s))
	}
	return s
}

// clampS floors stability at the epsilon minimum.
func clampS(s float64) float64 {
	return math.Max(s, minStability)
}

// clampD clamps difficulty to [1, 10].
func clampD(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
