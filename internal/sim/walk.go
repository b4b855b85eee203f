// Package sim synthesizes market data: bounded random walks, a market
// condition stream derived from three of them, and a limit order stream
// derived from the market conditions. Everything here is a stateful pull
// generator that is deterministic for a given seed.
package sim

import (
	"math"
	"math/rand"
)

// WalkParams is the (min, max, std) triple configuring one bounded walk.
type WalkParams struct {
	Min float64
	Max float64
	Std float64
}

// Walk is a folded random walk. An unbounded extent drifts under Gaussian
// noise and every emitted value is the extent reflected back into
// [Min, Max] modulo twice the range, so the series bounces smoothly off the
// bounds instead of clamping at them.
type Walk struct {
	rng    *rand.Rand
	min    float64
	max    float64
	std    float64
	extent float64
}

// NewWalk creates a walk over [p.Min, p.Max] with per-step deviation p.Std,
// drawing from rng. The walk is not restartable; re-create it with the same
// seed to replay the sequence.
func NewWalk(rng *rand.Rand, p WalkParams) *Walk {
	return &Walk{
		rng:    rng,
		min:    p.Min,
		max:    p.Max,
		std:    p.Std,
		extent: p.Max,
	}
}

// Next perturbs the extent and returns the next folded value. The result is
// always within [Min, Max] inclusive.
func (w *Walk) Next() float64 {
	w.extent += w.rng.NormFloat64() * w.std

	span := w.max - w.min
	m := math.Mod(w.extent, 2*span)
	if m < 0 {
		m += 2 * span
	}
	return math.Abs(m-span) + w.min
}
