// Package modifier implements the engine's step modifier pipeline (C5):
// five continuous, probability-driven stages applied in a fixed order,
// followed by a binary No-Repeat filter. Grounded on the per-note
// probability gates in
// _examples/other_examples/grahamseamans-go-sequence__metropolix.go
// (its density/probability roll before emitting a trigger), generalized
// to the step-rewriting contract the probability pipeline relies on;
// the Gravity stage itself is grounded on
// _examples/original_source/src/modifiers.cpp.
package modifier

import "github.com/driftsound/stepgrid/xrand"

// Params bundles the eight modifier knobs a track carries. Stability,
// Motion, Randomness, Gravity and Pedal are percentages in [0,100]
// except Motion, which is also [0,100] but read as a loop-length
// fraction; PedalStep and GravityAnchor are 1-based step indices,
// clamped to the loop at apply time.
type Params struct {
	Stability     int
	Motion        int
	Randomness    int
	Gravity       int
	GravityAnchor int
	Pedal         int
	PedalStep     int
	NoRepeat      bool
}

func clampStep(step, L int) int {
	if step < 1 {
		return 1
	}
	if step > L {
		return L
	}
	return step
}

func posMod(v, L int) int {
	m := v % L
	if m < 0 {
		m += L
	}
	return m
}

// rollPercent returns true with probability pct%, using rng. pct <= 0
// never fires, pct >= 100 always fires.
func rollPercent(pct int, rng *xrand.Source) bool {
	if pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	return rng.Range(1, 100) <= pct
}

// Apply runs the continuous modifier stage on baseStep and returns the
// resulting step, in the fixed order Stability, Motion, Randomness,
// Gravity, Pedal. lastStep is the step published by the previous
// cycle; 0 means "none yet" and disables Stability.
func Apply(p Params, baseStep, lastStep, L int, rng *xrand.Source) int {
	step := clampStep(baseStep, L)

	if p.Stability > 0 && lastStep != 0 && rollPercent(p.Stability, rng) {
		step = clampStep(lastStep, L)
	}

	if p.Motion > 0 {
		maxJitter := L * p.Motion / 100
		if maxJitter < 1 {
			maxJitter = 1
		}
		jitter := rng.Range(-maxJitter, maxJitter)
		step = posMod(step-1+jitter, L) + 1
	}

	if p.Randomness > 0 && rollPercent(p.Randomness, rng) {
		step = rng.Range(1, L)
	}

	if p.Gravity > 0 && rollPercent(p.Gravity, rng) {
		anchor := clampStep(p.GravityAnchor, L)
		if diff := anchor - step; diff != 0 {
			if diff > 0 {
				step++
			} else {
				step--
			}
			step = posMod(step-1, L) + 1
		}
	}

	if p.Pedal > 0 && rollPercent(p.Pedal, rng) {
		step = clampStep(p.PedalStep, L)
	}

	return step
}

// NoRepeat applies the binary filter: if enabled and step equals
// prevFinalStep and L > 1, advances step to the next one (wrapping).
func NoRepeat(enabled bool, step, prevFinalStep, L int) int {
	if enabled && L > 1 && step == prevFinalStep {
		return step%L + 1
	}
	return step
}
