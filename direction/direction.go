// Package direction implements the engine's twelve playback patterns
// (C4): ten keep no state between calls (nine are pure functions of
// (clock_count, loop_len[, stride]); Random draws from the track PRNG),
// and two — Brownian and Shuffle — carry state across calls. Grounded
// on the stage-advance logic in
// _examples/other_examples/grahamseamans-go-sequence__metropolix.go
// (nextStage's forward/reverse/pendulum/random cases), generalized to
// the full twelve-direction table.
package direction

import (
	"github.com/driftsound/stepgrid"
	"github.com/driftsound/stepgrid/xrand"
)

// State holds the two directions' persistent state. It lives inside the
// owning track's state and is reset on transport start.
type State struct {
	BrownianPos int
	ShuffleOrder [stepgrid.MaxSteps]int
	ShufflePos   int // 1-based; > loopLen signals "regenerate on next call"
}

// ResetForStart re-initializes direction state the way transport Start
// does: Brownian position to 1, shuffle order to the
// identity permutation, shuffle cursor to 1.
func (s *State) ResetForStart(loopLen int) {
	_ = loopLen
	s.BrownianPos = 1
	s.ShufflePos = 1
	for i := 0; i < stepgrid.MaxSteps; i++ {
		s.ShuffleOrder[i] = i + 1
	}
}

func posMod(v, L int) int {
	m := v % L
	if m <= 0 {
		m += L
	}
	return m
}

// Step returns the 1-based step index for direction dir at clock count c
// (>= 1) within a loop of length L (>= 1). stride is used only by
// DirStride (clamped to [2,16] by the caller's parameter accessor).
// rng and st are consulted only by Brownian, Random and Shuffle.
func Step(dir stepgrid.Direction, c, L, stride int, rng *xrand.Source, st *State) int {
	if L <= 1 {
		return 1
	}
	switch dir {
	case stepgrid.DirForward:
		return posMod(c, L)
	case stepgrid.DirReverse:
		return L - posMod(c, L) + 1
	case stepgrid.DirPendulum:
		cy := 2 * (L - 1)
		if cy <= 0 {
			return 1
		}
		p := (c - 1) % cy
		if p < L {
			return p + 1
		}
		return 2*L - 1 - p
	case stepgrid.DirPingPong:
		cy := 2 * L
		p := (c - 1) % cy
		if p < L {
			return p + 1
		}
		return 2*L - p
	case stepgrid.DirStride:
		if stride < 2 {
			stride = 2
		}
		if stride > 16 {
			stride = 16
		}
		return ((c-1)*stride)%L + 1
	case stepgrid.DirOddEven:
		p := posMod(c, L)
		n := (L + 1) / 2
		if p <= n {
			return (p-1)*2 + 1
		}
		return (p - n) * 2
	case stepgrid.DirHopscotch:
		pos := (c-1)%(2*L) + 1
		stepIndex := (pos + 1) / 2
		if pos%2 == 1 {
			return ((stepIndex-1)%L) + 1
		}
		nextForward := (stepIndex % L) + 1
		return ((nextForward-2+L)%L) + 1
	case stepgrid.DirConverge:
		pos := posMod(c, L)
		pairIndex := (pos + 1) / 2
		if pos%2 == 1 {
			return pairIndex
		}
		return L - pairIndex + 1
	case stepgrid.DirDiverge:
		pos := posMod(c, L)
		mid := (L + 1) / 2
		pairIndex := (pos + 1) / 2
		if pos%2 == 1 {
			return mid - pairIndex + 1
		}
		return mid + pairIndex
	case stepgrid.DirBrownian:
		delta := rng.Range(-2, 2)
		if delta == 0 {
			delta = 1
		}
		st.BrownianPos = posMod(st.BrownianPos+delta, L)
		return st.BrownianPos
	case stepgrid.DirRandom:
		return rng.Range(1, L)
	case stepgrid.DirShuffle:
		if st.ShufflePos > L {
			fisherYates(st.ShuffleOrder[:L], rng)
			st.ShufflePos = 1
		}
		v := st.ShuffleOrder[st.ShufflePos-1]
		st.ShufflePos++
		return v
	default:
		return posMod(c, L)
	}
}

func fisherYates(order []int, rng *xrand.Source) {
	for i := range order {
		order[i] = i + 1
	}
	for i := len(order) - 1; i > 0; i-- {
		j := rng.Range(0, i)
		order[i], order[j] = order[j], order[i]
	}
}

// Wrapped reports whether the direction completed a loop cycle at clock
// count c, having just produced curr from prev.
func Wrapped(dir stepgrid.Direction, curr, prev, c, L int) bool {
	if c <= 1 {
		return false
	}
	switch dir {
	case stepgrid.DirForward:
		return curr == 1 && prev == L
	case stepgrid.DirReverse:
		return curr == L && prev == 1
	case stepgrid.DirPendulum:
		return curr == 1 || curr == L
	case stepgrid.DirPingPong:
		cy := 2 * L
		return (c-1)%cy == 0
	case stepgrid.DirStride:
		return curr == 1
	case stepgrid.DirHopscotch:
		return (c-1)%(2*L) == 0
	default: // OddEven, Converge, Diverge, Brownian, Random, Shuffle
		return (c-1)%L == 0
	}
}
