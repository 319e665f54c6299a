// Package engine is the real-time sequencer core (C6-C10 of the layered
// design): transport and record state machines, the per-track step
// pipeline, live/step recording, the track generator, and the two host
// entry points Step and MidiMessage. Nothing here allocates, blocks, or
// panics on the hot path. Grounded on the single-owned-value, serially
// driven shape of vm/go_synth.go's Render/Trigger/Release, generalized
// from audio rendering to block-stepped sequencing.
package engine

import (
	"math"

	"github.com/driftsound/stepgrid"
	"github.com/driftsound/stepgrid/scale"
	"github.com/driftsound/stepgrid/xrand"
)

// Schmitt-trigger thresholds for the Run and Clock CV buses.
const (
	cvHigh = 2.0
	cvLow  = 0.5
)

// delayedNote is one scheduled, not-yet-emitted humanized note.
type delayedNote struct {
	note          byte
	velocity      byte
	track         int
	outChannel    int
	duration      int
	remainingMS   float64
	destination   stepgrid.Destination
	active        bool
}

// Engine is the single owned value handed back to the host by
// New. The host holds an opaque handle to it and drives it
// serially through Step and MidiMessage; nothing inside ever blocks.
type Engine struct {
	host   stepgrid.Host
	params *ParamVector

	tracks [stepgrid.MaxTracks]*TrackState

	transport stepgrid.TransportState
	record    stepgrid.RecordState

	prevRunHigh   bool
	prevClockHigh bool
	prevClearAll  int32
	prevClearTrk  int32
	prevGenerate  int32
	prevRecTrack  int
	prevLength    [stepgrid.MaxTracks]int
	prevDivision  int

	stepTime     float64
	stepDuration float64

	held [128]HeldNote

	inputHeld      [128]bool
	inputHeldCount int
	inputVelocity  byte
	noteMap        scale.NoteMap

	stepRecPos int

	delayed [stepgrid.MaxDelayedNotes]delayedNote

	globalRand xrand.Source
}

// New constructs an engine for numTracks tracks (clamped to
// stepgrid.MaxTracks), seeding every PRNG from the host's cycle counter.
// This is the engine's only allocation site, matching the
// construct()-receives-preallocated-memory discipline.
func New(host stepgrid.Host, numTracks int) *Engine {
	if numTracks > stepgrid.MaxTracks {
		numTracks = stepgrid.MaxTracks
	}
	if numTracks < 1 {
		numTracks = 1
	}
	seed := host.CycleCounter()
	e := &Engine{
		host:       host,
		params:     NewParamVector(numTracks),
		globalRand: xrand.New(seed),
	}
	for i := 0; i < numTracks; i++ {
		e.tracks[i] = NewTrackState(seed, i)
	}
	e.record = stepgrid.RecordIdle
	return e
}

// Params exposes the engine's parameter vector for the host to write
// into between blocks.
func (e *Engine) Params() *ParamVector { return e.params }

// NumTracks returns the number of tracks this engine was constructed
// with.
func (e *Engine) NumTracks() int { return e.params.NumTracks }

// Track exposes a track's state for diagnostics, tests, and the
// snapshot importer/exporter. Returns nil for an out-of-range index.
func (e *Engine) Track(i int) *TrackState {
	if i < 0 || i >= e.NumTracks() {
		return nil
	}
	return e.tracks[i]
}

func (e *Engine) logf(msg string) {
	if e.host != nil {
		e.host.Log(msg)
	}
}

// Step advances the engine by one audio block of dt seconds, sampling
// the Run and Clock CV buses at runLevel/clockLevel (already read from
// the block's final frame by the host). This is the per-block entry
// point of the block loop.
func (e *Engine) Step(dt, runLevel, clockLevel float64) {
	runRising, runFalling := e.edge(&e.prevRunHigh, runLevel)
	_, clockRising := e.edgeClock(clockLevel)

	if runRising {
		e.transportStart()
	} else if runFalling {
		e.transportStop()
	}

	e.handleClearGenerateEdges()

	e.stepTime += dt
	e.advanceDelayed(dt)

	e.runRecordFSM()

	if clockRising && e.transport == stepgrid.TransportRunning {
		if e.stepTime > 0.001 {
			e.stepDuration = e.stepTime
		}
		e.stepTime = 0
		for i := 0; i < e.NumTracks(); i++ {
			tr := e.tracks[i]
			tr.DivCounter++
			if tr.DivCounter >= e.params.ClockDiv(i) {
				tr.DivCounter = 0
				e.stepTrack(i)
			}
		}
	}
}

// edge runs Schmitt-trigger edge detection on level against *prevHigh,
// updating *prevHigh only when the level is unambiguously high or low
// (the hysteretic band between cvLow and cvHigh leaves it unchanged).
func (e *Engine) edge(prevHigh *bool, level float64) (rising, falling bool) {
	high := level >= cvHigh
	low := level <= cvLow
	rising = high && !*prevHigh
	falling = low && *prevHigh
	if high {
		*prevHigh = true
	} else if low {
		*prevHigh = false
	}
	return rising, falling
}

func (e *Engine) edgeClock(level float64) (falling, rising bool) {
	r, f := e.edge(&e.prevClockHigh, level)
	return f, r
}

// handleClearGenerateEdges detects Clear-Track, Clear-All and Generate
// parameter edges and runs them. Parameter edges
// are observed before the record FSM runs (ordering guarantee, §5).
func (e *Engine) handleClearGenerateEdges() {
	if ca := e.params.ClearAllTrigger(); ca != e.prevClearAll {
		e.prevClearAll = ca
		for i := 0; i < e.NumTracks(); i++ {
			e.clearTrack(i)
		}
	}
	if ct := e.params.ClearTrackTrigger(); ct != e.prevClearTrk {
		e.prevClearTrk = ct
		e.clearTrack(e.params.RecTrack())
	}
	if g := e.params.GenerateTrigger(); g != e.prevGenerate {
		e.prevGenerate = g
		e.Generate(e.params.RecTrack())
	}
	if rt := e.params.RecTrack(); rt != e.prevRecTrack {
		e.prevRecTrack = rt
		e.onRecTrackChanged(rt)
	}
	for i := 0; i < e.NumTracks(); i++ {
		length := e.params.Length(i)
		if length != e.prevLength[i] {
			e.prevLength[i] = length
			e.tracks[i].InvalidateCache()
			if i == e.params.RecTrack() && e.record == stepgrid.RecordStep {
				e.stepRecPos = 1
			}
		}
	}
	if div := e.params.GlobalDivision(); div != e.prevDivision {
		e.prevDivision = div
		for i := 0; i < e.NumTracks(); i++ {
			e.tracks[i].InvalidateCache()
		}
		if e.record == stepgrid.RecordStep {
			e.stepRecPos = 1
		}
	}
}

// clearTrack empties a track's step buffer and emits its active
// notes-off first ("before running" and the idempotent
// Clear-Track law of §8: a second call is a no-op that emits nothing
// further because the playing table is already empty).
func (e *Engine) clearTrack(i int) {
	tr := e.tracks[i]
	var notes []byte
	notes = tr.AllNotesOff(notes[:0])
	for _, n := range notes {
		e.sendNoteOff(i, n)
	}
	tr.Data.Clear()
}

func (e *Engine) emitNoteOff(dest stepgrid.Destination, outChannel int, note byte) {
	status := byte(0x80) | (byte(outChannel-1) & 0x0F)
	e.host.SendMIDI(dest, status, note, 0)
}

func (e *Engine) emitNoteOn(dest stepgrid.Destination, outChannel int, note, velocity byte) {
	status := byte(0x90) | (byte(outChannel-1) & 0x0F)
	e.host.SendMIDI(dest, status, note, velocity)
}

func (e *Engine) sendNoteOff(track int, note byte) {
	e.emitNoteOff(e.params.Destination(track), e.params.OutChannel(track), note)
}

func (e *Engine) sendNoteOn(track int, note, velocity byte) {
	e.emitNoteOn(e.params.Destination(track), e.params.OutChannel(track), note, velocity)
}

// Panic forces an immediate all-notes-off across every track and drops
// every scheduled delayed note, for a host to invoke directly (a panic
// button, a MIDI panic message) without going through panic_on_wrap.
func (e *Engine) Panic() { e.panic() }

// panic performs the global panic-on-wrap reset:
// all-notes-off, clear every track's playing table, drop all delayed
// notes.
func (e *Engine) panic() {
	for i := 0; i < e.NumTracks(); i++ {
		var notes []byte
		notes = e.tracks[i].AllNotesOff(notes[:0])
		for _, n := range notes {
			e.sendNoteOff(i, n)
		}
	}
	for i := range e.delayed {
		e.delayed[i] = delayedNote{}
	}
}

// advanceDelayed decrements every active delayed note's remaining delay
// by dt (converted to milliseconds and rounded up, so a fractional
// block never under-decrements the countdown), emitting a note-on and
// copying into the target track's playing table when it elapses.
func (e *Engine) advanceDelayed(dt float64) {
	ms := math.Ceil(dt * 1000)
	for i := range e.delayed {
		d := &e.delayed[i]
		if !d.active {
			continue
		}
		d.remainingMS -= ms
		if d.remainingMS > 0 {
			continue
		}
		d.active = false
		e.emitNoteOn(d.destination, d.outChannel, d.note, d.velocity)
		tr := e.tracks[d.track]
		tr.playing[d.note] = playingNote{remaining: d.duration, active: true}
		if d.velocity > tr.ActiveVel {
			tr.ActiveVel = d.velocity
		}
	}
}

// scheduleDelayed inserts a new delayed note by linear scan for a free
// slot; a full pool drops the note silently.
func (e *Engine) scheduleDelayed(track int, note, velocity byte, duration int, delayMS float64, dest stepgrid.Destination, outChannel int) {
	for i := range e.delayed {
		if !e.delayed[i].active {
			e.delayed[i] = delayedNote{
				note:        note,
				velocity:    velocity,
				track:       track,
				outChannel:  outChannel,
				duration:    duration,
				remainingMS: delayMS,
				destination: dest,
				active:      true,
			}
			return
		}
	}
}
