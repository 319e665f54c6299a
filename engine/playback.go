// Playback (C8): the per-track step pipeline run on every clock tick a
// track's divider elapses. Duration countdown, enable-edge notes-off,
// direction/modifier step resolution, wrap detection and panic-on-wrap,
// trig-condition gating with per-step overrides, octave jump, and
// note emission with humanization/delayed scheduling. The note-on/
// note-off bookkeeping follows a trigger/release voice-allocation
// shape, generalized from voice allocation to a fixed per-note
// playing table.
package engine

import (
	"github.com/driftsound/stepgrid"
	"github.com/driftsound/stepgrid/direction"
	"github.com/driftsound/stepgrid/modifier"
	"github.com/driftsound/stepgrid/scale"
)

// stepTrack runs the full per-track clock tick pipeline for track i
// (in seven steps).
func (e *Engine) stepTrack(i int) {
	tr := e.tracks[i]
	enabled := e.params.Enabled(i)

	e.decrementDurations(i, tr)

	if tr.lastEnabled && !enabled {
		e.allNotesOffTrack(i, tr)
	}
	tr.lastEnabled = enabled
	if !enabled {
		return
	}

	loopLen := e.params.Length(i)
	stride := e.params.Stride(i)

	tr.ClockCount++
	tr.PrevPos = tr.Step

	base := direction.Step(e.params.Direction(i), tr.ClockCount, loopLen, stride, &tr.rand, &tr.dir)
	mod := modifier.Apply(e.params.Modifier(i), base, tr.LastStep, loopLen, &tr.rand)
	final := modifier.NoRepeat(e.params.Modifier(i).NoRepeat, mod, tr.LastStep, loopLen)
	tr.Step = final
	tr.LastStep = final

	wrapped := direction.Wrapped(e.params.Direction(i), final, tr.PrevPos, tr.ClockCount, loopLen)
	if wrapped && tr.ClockCount > 1 {
		tr.LoopCount++
		if e.params.PanicOnWrap() {
			e.panic()
		}
	}

	e.evaluateAndEmit(i, tr, final, loopLen)
}

func (e *Engine) decrementDurations(i int, tr *TrackState) {
	for n := range tr.playing {
		if !tr.playing[n].active {
			continue
		}
		tr.playing[n].remaining--
		if tr.playing[n].remaining <= 1 {
			e.sendNoteOff(i, byte(n))
			tr.playing[n] = playingNote{}
			tr.activeNotes[n] = 0
			tr.recomputeActiveVel()
		}
	}
}

func (t *TrackState) recomputeActiveVel() {
	var peak byte
	for _, v := range t.activeNotes {
		if v > peak {
			peak = v
		}
	}
	t.ActiveVel = peak
}

func (e *Engine) allNotesOffTrack(i int, tr *TrackState) {
	var notes []byte
	notes = tr.AllNotesOff(notes[:0])
	for _, n := range notes {
		e.sendNoteOff(i, n)
	}
}

// resolveCond applies the per-track Step Cond override rules (spec
// §4.8 step 6, and the combined-Fixed-precedence Open Question of §9):
// if an A- or B-step override applies to final, use its condition and
// probability; otherwise use the track's default. If the winning
// condition is Fixed, or either side of a combined check is Fixed, step
// probability and octave jump are both bypassed.
func (e *Engine) resolveCond(i, final int) (cond stepgrid.TrigCond, prob int, fixed bool) {
	cond = e.params.StepCondDefault(i)
	prob = e.params.StepProb(i)
	fixed = cond == stepgrid.CondFixed

	if e.params.StepCondAStep(i) == final {
		aCond := e.params.StepCondACode(i)
		cond, prob = aCond, e.params.StepCondAProb(i)
		fixed = fixed || aCond == stepgrid.CondFixed
	}
	if e.params.StepCondBStep(i) == final {
		bCond := e.params.StepCondBCode(i)
		cond, prob = bCond, e.params.StepCondBProb(i)
		fixed = fixed || bCond == stepgrid.CondFixed
	}
	return cond, prob, fixed
}

func (e *Engine) evaluateAndEmit(i int, tr *TrackState, final, loopLen int) {
	cond, prob, fixed := e.resolveCond(i, final)
	if !evalCond(cond, tr.LoopCount, e.params.Fill()) {
		return
	}
	if !fixed && !rollPct(prob, &tr.rand) {
		return
	}

	bucket := &tr.Data[final-1]
	root := e.params.ScaleRoot()
	sc := e.params.ScaleIndex()
	dest := e.params.Destination(i)
	outChannel := e.params.OutChannel(i)
	velOffset := e.params.VelocityOffset(i)
	humanizeMS := e.params.Humanize(i)

	// Computed once per step trigger: every note in the step (a chord)
	// shares one octave shift and one OctavePlayCount increment.
	shift := e.octaveShift(i, tr, fixed)

	for k := 0; k < bucket.Count; k++ {
		ev := bucket.Events[k]
		note := clampInt(int(ev.Note)+shift, 0, 127)
		note = int(scale.Quantize(byte(note), root, sc))
		vel := clampInt(int(ev.Velocity)+velOffset, 0, 127)

		if humanizeMS > 0 {
			delay := float64(tr.rand.Range(0, humanizeMS))
			if delay > 0 {
				e.scheduleDelayed(i, byte(note), byte(vel), int(ev.Duration), delay, dest, outChannel)
				continue
			}
		}
		e.emitNoteOn(dest, outChannel, byte(note), byte(vel))
		tr.playing[note] = playingNote{remaining: int(ev.Duration), active: true}
		tr.activeNotes[note] = byte(vel)
		if byte(vel) > tr.ActiveVel {
			tr.ActiveVel = byte(vel)
		}
	}
}

// octaveShift implements the octave-jump rule: zero when
// both directions are zero or the bypass counter lands, otherwise a
// probabilistic +/- octave jump. A Fixed-governed step forces zero.
func (e *Engine) octaveShift(i int, tr *TrackState, fixed bool) int {
	if fixed {
		return 0
	}
	up := e.params.OctUp(i)
	down := e.params.OctDown(i)
	if up == 0 && down == 0 {
		return 0
	}
	tr.OctavePlayCount++
	bypass := e.params.OctBypass(i)
	if bypass > 0 && tr.OctavePlayCount%bypass == 0 {
		return 0
	}
	if !rollPct(e.params.OctProb(i), &tr.rand) {
		return 0
	}
	octaves := tr.rand.Range(-down, up)
	return 12 * octaves
}
