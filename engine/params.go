// Params accessor (C12): a flat vector of int32s, owned and mutated by
// the host between blocks, read-only from the engine's point of view.
// The layout is a fixed-length global block followed by num_tracks
// blocks of stepgrid.ParamsPerTrack each. Every accessor clamps its
// return value into the parameter's valid range; nothing here ever
// panics on an out-of-range raw value. Grounded on the typed read-only
// parameter table idiom in vm/go_synth.go (fixed-size unit parameter
// arrays read by index, clamped at the read site).
package engine

import (
	"github.com/driftsound/stepgrid"
	"github.com/driftsound/stepgrid/modifier"
	"github.com/driftsound/stepgrid/scale"
)

// GlobalParamCount is the length of the global parameter block.
const GlobalParamCount = 16

// Global block offsets.
const (
	gDivision     = 0
	gRecTrack     = 1
	gRecordOn     = 2
	gRecordMode   = 3
	gClearAll     = 4
	gClearTrack   = 5
	gGenerate     = 6
	gFill         = 7
	gPanicOnWrap  = 8
	gScaleRoot    = 9
	gScaleIndex   = 10
	gInputChannel = 11
	gStepRecord   = 12
	gThruChannel  = 13
)

// Per-track block offsets.
const (
	tEnabled       = 0
	tLength        = 1
	tClockDiv      = 2
	tDirection     = 3
	tStride        = 4
	tOutChannel    = 5
	tDestination   = 6
	tVelocityOff   = 7
	tHumanize      = 8
	tOctUp         = 9
	tOctDown       = 10
	tOctBypass     = 11
	tOctProb       = 12
	tStability     = 13
	tMotion        = 14
	tRandomness    = 15
	tPedal         = 16
	tPedalStep     = 17
	tNoRepeat      = 18
	tStepCondDef   = 19
	tStepProb      = 20
	tStepCondAStep = 21
	tStepCondACode = 22
	tStepCondAProb = 23
	tStepCondBStep = 24
	tStepCondBCode = 25
	tStepCondBProb = 26
	tGenMode       = 27
	tDensity       = 28
	tBias          = 29
	tSpread        = 30
	tNoteRand      = 31
	tVelSpread     = 32
	tVelVar        = 33
	tGateRand      = 34
	tTies          = 35
	tRecSnap       = 36
	tGravity       = 37
	tGravityAnchor = 38
)

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParamVector is the flat parameter store. The host owns Values and may
// overwrite it between blocks; the engine never mutates it.
type ParamVector struct {
	Values    []int32
	NumTracks int
}

// NewParamVector allocates a zeroed vector sized for numTracks.
func NewParamVector(numTracks int) *ParamVector {
	if numTracks > stepgrid.MaxTracks {
		numTracks = stepgrid.MaxTracks
	}
	return &ParamVector{
		Values:    make([]int32, GlobalParamCount+numTracks*stepgrid.ParamsPerTrack),
		NumTracks: numTracks,
	}
}

func (pv *ParamVector) global(idx int) int32 {
	if idx < 0 || idx >= GlobalParamCount || idx >= len(pv.Values) {
		return 0
	}
	return pv.Values[idx]
}

func (pv *ParamVector) track(track, idx int) int32 {
	if track < 0 || track >= pv.NumTracks || idx < 0 || idx >= stepgrid.ParamsPerTrack {
		return 0
	}
	offset := GlobalParamCount + track*stepgrid.ParamsPerTrack + idx
	if offset >= len(pv.Values) {
		return 0
	}
	return pv.Values[offset]
}

// SetGlobal and SetTrack are convenience writers for tests and for a
// host that prefers named writes over raw slice indexing.
func (pv *ParamVector) SetGlobal(idx int, v int32) {
	if idx >= 0 && idx < GlobalParamCount && idx < len(pv.Values) {
		pv.Values[idx] = v
	}
}

func (pv *ParamVector) SetTrack(track, idx int, v int32) {
	if track < 0 || track >= pv.NumTracks || idx < 0 || idx >= stepgrid.ParamsPerTrack {
		return
	}
	offset := GlobalParamCount + track*stepgrid.ParamsPerTrack + idx
	if offset < len(pv.Values) {
		pv.Values[offset] = v
	}
}

// Global accessors.

func (pv *ParamVector) GlobalDivision() int {
	return clampInt(int(pv.global(gDivision)), 1, 16)
}

func (pv *ParamVector) RecTrack() int {
	return clampInt(int(pv.global(gRecTrack)), 0, pv.NumTracks-1)
}

func (pv *ParamVector) RecordOn() bool { return pv.global(gRecordOn) != 0 }

func (pv *ParamVector) RecordMode() stepgrid.RecordMode {
	if pv.global(gRecordMode) != 0 {
		return stepgrid.RecordReplace
	}
	return stepgrid.RecordOverdub
}

func (pv *ParamVector) ClearAllTrigger() int32 { return pv.global(gClearAll) }
func (pv *ParamVector) ClearTrackTrigger() int32 { return pv.global(gClearTrack) }
func (pv *ParamVector) GenerateTrigger() int32 { return pv.global(gGenerate) }

func (pv *ParamVector) Fill() bool         { return pv.global(gFill) != 0 }
func (pv *ParamVector) PanicOnWrap() bool  { return pv.global(gPanicOnWrap) != 0 }

func (pv *ParamVector) ScaleRoot() int { return clampInt(int(pv.global(gScaleRoot)), 0, 11) }

func (pv *ParamVector) ScaleIndex() scale.Index {
	return scale.Index(clampInt(int(pv.global(gScaleIndex)), int(scale.Off), int(scale.MinorPentatonic)))
}

func (pv *ParamVector) InputChannel() int { return clampInt(int(pv.global(gInputChannel)), 0, 16) }

// StepRecordMode reports whether the host has selected step-record (as
// opposed to live-record) as the record mode driving the Idle/Live/Step
// transitions of the record FSM. This is independent of
// RecordMode, which only distinguishes Overdub from Replace.
func (pv *ParamVector) StepRecordMode() bool { return pv.global(gStepRecord) != 0 }

// ThruChannel is the output channel used for the MIDI-thru pass-through
// path ("pass through to output channel iff input channel
// != output channel"). 0 disables the thru path.
func (pv *ParamVector) ThruChannel() int { return clampInt(int(pv.global(gThruChannel)), 0, 16) }

// Per-track accessors.

func (pv *ParamVector) Enabled(t int) bool { return pv.track(t, tEnabled) != 0 }

func (pv *ParamVector) Length(t int) int {
	return clampInt(int(pv.track(t, tLength)), 1, stepgrid.MaxSteps)
}

func (pv *ParamVector) ClockDiv(t int) int { return clampInt(int(pv.track(t, tClockDiv)), 1, 16) }

func (pv *ParamVector) Direction(t int) stepgrid.Direction {
	return stepgrid.Direction(clampInt(int(pv.track(t, tDirection)), int(stepgrid.DirForward), int(stepgrid.DirShuffle)))
}

func (pv *ParamVector) Stride(t int) int { return clampInt(int(pv.track(t, tStride)), 2, 16) }

func (pv *ParamVector) OutChannel(t int) int { return clampInt(int(pv.track(t, tOutChannel)), 1, 16) }

func (pv *ParamVector) Destination(t int) stepgrid.Destination {
	raw := stepgrid.Destination(pv.track(t, tDestination)) & stepgrid.DestAll
	if raw == 0 {
		return stepgrid.DestAll
	}
	return raw
}

func (pv *ParamVector) VelocityOffset(t int) int {
	return clampInt(int(pv.track(t, tVelocityOff)), -127, 127)
}

func (pv *ParamVector) Humanize(t int) int { return clampInt(int(pv.track(t, tHumanize)), 0, 2000) }

func (pv *ParamVector) OctUp(t int) int   { return clampInt(int(pv.track(t, tOctUp)), 0, 4) }
func (pv *ParamVector) OctDown(t int) int { return clampInt(int(pv.track(t, tOctDown)), 0, 4) }
func (pv *ParamVector) OctBypass(t int) int {
	return clampInt(int(pv.track(t, tOctBypass)), 0, 16)
}
func (pv *ParamVector) OctProb(t int) int { return clampInt(int(pv.track(t, tOctProb)), 0, 100) }

// Modifier returns the track's modifier pipeline parameters, ready to
// hand to modifier.Apply / modifier.NoRepeat.
func (pv *ParamVector) Modifier(t int) modifier.Params {
	return modifier.Params{
		Stability:     clampInt(int(pv.track(t, tStability)), 0, 100),
		Motion:        clampInt(int(pv.track(t, tMotion)), 0, 100),
		Randomness:    clampInt(int(pv.track(t, tRandomness)), 0, 100),
		Gravity:       clampInt(int(pv.track(t, tGravity)), 0, 100),
		GravityAnchor: clampInt(int(pv.track(t, tGravityAnchor)), 1, stepgrid.MaxSteps),
		Pedal:         clampInt(int(pv.track(t, tPedal)), 0, 100),
		PedalStep:     clampInt(int(pv.track(t, tPedalStep)), 1, stepgrid.MaxSteps),
		NoRepeat:      pv.track(t, tNoRepeat) != 0,
	}
}

func (pv *ParamVector) StepCondDefault(t int) stepgrid.TrigCond {
	return stepgrid.TrigCond(clampInt(int(pv.track(t, tStepCondDef)), 0, 75))
}

func (pv *ParamVector) StepProb(t int) int { return clampInt(int(pv.track(t, tStepProb)), 0, 100) }

func (pv *ParamVector) StepCondAStep(t int) int {
	return clampInt(int(pv.track(t, tStepCondAStep)), 0, stepgrid.MaxSteps)
}
func (pv *ParamVector) StepCondACode(t int) stepgrid.TrigCond {
	return stepgrid.TrigCond(clampInt(int(pv.track(t, tStepCondACode)), 0, 75))
}
func (pv *ParamVector) StepCondAProb(t int) int {
	return clampInt(int(pv.track(t, tStepCondAProb)), 0, 100)
}
func (pv *ParamVector) StepCondBStep(t int) int {
	return clampInt(int(pv.track(t, tStepCondBStep)), 0, stepgrid.MaxSteps)
}
func (pv *ParamVector) StepCondBCode(t int) stepgrid.TrigCond {
	return stepgrid.TrigCond(clampInt(int(pv.track(t, tStepCondBCode)), 0, 75))
}
func (pv *ParamVector) StepCondBProb(t int) int {
	return clampInt(int(pv.track(t, tStepCondBProb)), 0, 100)
}

func (pv *ParamVector) GenMode(t int) stepgrid.GeneratorMode {
	return stepgrid.GeneratorMode(clampInt(int(pv.track(t, tGenMode)), int(stepgrid.GenNew), int(stepgrid.GenInvert)))
}

func (pv *ParamVector) Density(t int) int  { return clampInt(int(pv.track(t, tDensity)), 0, 100) }
func (pv *ParamVector) Bias(t int) int     { return clampInt(int(pv.track(t, tBias)), 0, 127) }

// NoteRange is the generator's "range" parameter: the span, in
// semitones, that note_rand scales down to pick the actual spread.
func (pv *ParamVector) NoteRange(t int) int { return clampInt(int(pv.track(t, tSpread)), 0, 64) }
func (pv *ParamVector) NoteRand(t int) int  { return clampInt(int(pv.track(t, tNoteRand)), 0, 100) }
func (pv *ParamVector) VelVar(t int) int    { return clampInt(int(pv.track(t, tVelVar)), 0, 200) }
func (pv *ParamVector) GateRand(t int) int  { return clampInt(int(pv.track(t, tGateRand)), 0, 100) }
func (pv *ParamVector) Ties(t int) int      { return clampInt(int(pv.track(t, tTies)), 0, 100) }

// RecSnap returns the track's recording snap threshold as a percentage
// clamped to [50,100], matching a snap_threshold of [0.5,1.0].
func (pv *ParamVector) RecSnap(t int) int { return clampInt(int(pv.track(t, tRecSnap)), 50, 100) }
