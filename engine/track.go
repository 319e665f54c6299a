package engine

import (
	"github.com/driftsound/stepgrid"
	"github.com/driftsound/stepgrid/direction"
	"github.com/driftsound/stepgrid/quantize"
	"github.com/driftsound/stepgrid/xrand"
)

// playingNote is one entry of a track's per-note playing table: how many
// ticks remain before its note-off, and whether the slot is in use.
type playingNote struct {
	remaining int
	active    bool
}

// TrackState is everything the engine owns for a single track.
// It is allocated once, at construction, and never reallocated.
type TrackState struct {
	Data stepgrid.TrackData

	playing     [128]playingNote
	activeNotes [128]byte // velocity, 0 if not sounding

	dir direction.State

	ClockCount      int
	DivCounter      int
	LoopCount       int
	OctavePlayCount int

	Step     int // 1-based; 0 = not yet played
	LastStep int
	PrevPos  int

	ActiveVel byte

	lastEnabled bool

	cache quantize.Cache
	rand  xrand.Source
}

// NewTrackState allocates a track seeded from the engine's entropy source
// and the track's index.
func NewTrackState(seed uint32, index int) *TrackState {
	t := &TrackState{}
	t.rand = xrand.New(seed + uint32(index)*0x2545F491)
	t.cache = quantize.NewCache()
	t.dir.ResetForStart(stepgrid.MaxSteps)
	return t
}

// ResetForStart resets the track's positions and counters the way
// transport Start does.
func (t *TrackState) ResetForStart(loopLen int) {
	t.Step = 0
	t.ClockCount = 0
	t.DivCounter = 0
	t.LoopCount = 0
	t.OctavePlayCount = 0
	t.LastStep = 0
	t.PrevPos = 0
	t.dir.ResetForStart(loopLen)
}

// EffectiveQuantize returns the track's cached (length, global_division)
// -> effective quantize resolution, recomputing on cache miss.
func (t *TrackState) EffectiveQuantize(loopLen, target int) int {
	return t.cache.Get(loopLen, target)
}

// InvalidateCache marks the track's quantize cache dirty.
func (t *TrackState) InvalidateCache() { t.cache.Invalidate() }

// AllNotesOff clears every sounding note in the track's playing table and
// reports the notes that were actually sounding, for the caller to emit
// note-offs for.
func (t *TrackState) AllNotesOff(out []byte) []byte {
	for n := range t.playing {
		if t.playing[n].active {
			out = append(out, byte(n))
			t.playing[n] = playingNote{}
			t.activeNotes[n] = 0
		}
	}
	t.ActiveVel = 0
	return out
}
