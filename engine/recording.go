// Recording (C6): held-note live-record commit and the transport-
// independent step-record cursor. Tracks a note's start and matching end
// across a stream of MIDI events, the way a note-span bookkeeper would,
// but resolved against the sub-clock step-quantization contract of the
// recording pipeline instead of audio-frame rows.
package engine

import (
	"github.com/driftsound/stepgrid"
	"github.com/driftsound/stepgrid/quantize"
)

// HeldNote snapshots the recording context at note-on time so the
// matching note-off can resolve a duration without re-deriving it (spec
// §3, §4.6).
type HeldNote struct {
	Note          byte
	Velocity      byte
	Track         int
	QuantizedStep int
	EffectiveStep int
	Quantize      int
	LoopLen       int
	RawStep       int
	Threshold     float64
	Active        bool
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// liveNoteOn snapshots the recording context into held[note] and marks
// it active (live note-on).
func (e *Engine) liveNoteOn(note, velocity byte) {
	track := e.params.RecTrack()
	tr := e.tracks[track]
	loopLen := e.params.Length(track)
	effQuant := tr.EffectiveQuantize(loopLen, e.params.GlobalDivision())
	threshold := float64(e.params.RecSnap(track)) / 100

	rawStep := tr.Step
	if rawStep < 1 {
		rawStep = 1
	}
	if rawStep > loopLen {
		rawStep = loopLen
	}
	frac := 0.0
	if e.stepDuration > 0 {
		frac = clampf(e.stepTime/e.stepDuration, 0, 1)
	}

	quantizedStep := quantize.SnapDivision(rawStep, frac, threshold, effQuant, loopLen)
	effectiveStep := quantize.SnapStep(rawStep, frac, threshold, loopLen)

	e.held[note] = HeldNote{
		Note:          note,
		Velocity:      velocity,
		Track:         track,
		QuantizedStep: quantizedStep,
		EffectiveStep: effectiveStep,
		Quantize:      effQuant,
		LoopLen:       loopLen,
		RawStep:       rawStep,
		Threshold:     threshold,
		Active:        true,
	}
}

// liveNoteOff resolves the held note's duration and commits it to the
// track's step buffer (live note-off).
func (e *Engine) liveNoteOff(note byte) {
	h := &e.held[note]
	if !h.Active {
		return
	}
	h.Active = false
	e.commitHeld(h, e.currentEndStep(h))
}

// currentEndStep computes the virtual end-step for a held note using
// the track's live position at the time of the call.
func (e *Engine) currentEndStep(h *HeldNote) int {
	tr := e.tracks[h.Track]
	raw := tr.Step
	if raw < 1 {
		raw = 1
	}
	if raw > h.LoopLen {
		raw = h.LoopLen
	}
	frac := 0.0
	if e.stepDuration > 0 {
		frac = clampf(e.stepTime/e.stepDuration, 0, 1)
	}
	return quantize.SnapStep(raw, frac, h.Threshold, h.LoopLen)
}

// commitHeld inserts the resolved note event into the track's step
// buffer at the held note's quantized step, duplicate-note and
// full-bucket failures are silent drops.
func (e *Engine) commitHeld(h *HeldNote, endStep int) {
	rawDur := endStep - h.EffectiveStep
	if rawDur < 0 {
		rawDur += h.LoopLen
	}
	if rawDur < 1 {
		rawDur = 1
	}
	dur := quantize.Duration(rawDur, h.Quantize)
	if maxDur := h.LoopLen - h.QuantizedStep + 1; dur > maxDur {
		dur = maxDur
	}
	if dur < 1 {
		dur = 1
	}
	ev := stepgrid.NoteEvent{Note: h.Note, Velocity: h.Velocity, Duration: uint16(dur)}
	e.tracks[h.Track].Data[h.QuantizedStep-1].Insert(ev)
}

// finalizeHeld closes every active held note on record-stop or
// transport-stop while live, using each track's current step as a
// virtual end-step (finalize).
func (e *Engine) finalizeHeld() {
	for i := range e.held {
		h := &e.held[i]
		if !h.Active {
			continue
		}
		h.Active = false
		e.commitHeld(h, e.currentEndStep(h))
	}
}

// clearHeld drops all held entries without committing them, as happens
// when the record-track selection changes (clear held).
func (e *Engine) clearHeld() {
	for i := range e.held {
		e.held[i] = HeldNote{}
	}
}

// numDivSteps returns the number of division-aligned cursor positions
// for the rec-track at its current length and effective quantize.
func (e *Engine) numDivSteps() int {
	track := e.params.RecTrack()
	tr := e.tracks[track]
	loopLen := e.params.Length(track)
	q := tr.EffectiveQuantize(loopLen, e.params.GlobalDivision())
	if q < 1 {
		q = 1
	}
	n := loopLen / q
	if n < 1 {
		n = 1
	}
	return n
}

// stepRecordNoteOn writes a step-record event at the cursor's raw step
// (step record).
func (e *Engine) stepRecordNoteOn(note, velocity byte) {
	if e.stepRecPos < 1 {
		e.stepRecPos = 1
	}
	track := e.params.RecTrack()
	tr := e.tracks[track]
	loopLen := e.params.Length(track)
	q := tr.EffectiveQuantize(loopLen, e.params.GlobalDivision())
	if q < 1 {
		q = 1
	}
	rawStep := (e.stepRecPos-1)*q + 1
	if rawStep > loopLen {
		rawStep = loopLen
	}
	dur := q
	if maxDur := loopLen - rawStep + 1; dur > maxDur {
		dur = maxDur
	}
	if dur < 1 {
		dur = 1
	}
	ev := stepgrid.NoteEvent{Note: note, Velocity: velocity, Duration: uint16(dur)}
	tr.Data[rawStep-1].Insert(ev)
}

// stepRecordAdvance moves the cursor forward once every input note has
// been released, wrapping past the end.
func (e *Engine) stepRecordAdvance() {
	if e.inputHeldCount > 0 {
		return
	}
	n := e.numDivSteps()
	e.stepRecPos++
	if e.stepRecPos > n {
		e.stepRecPos = 1
	}
}
