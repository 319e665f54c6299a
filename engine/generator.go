// Generator (C7): four algorithmic modes that mutate a track's step
// buffer in place, run against the record-track on a Generate rising
// edge. Grounded on the shuffle-and-redistribute idiom already built for
// the Shuffle direction (direction.fisherYates), reapplied here to whole
// note events instead of step indices.
package engine

import (
	"github.com/driftsound/stepgrid"
	"github.com/driftsound/stepgrid/scale"
	"github.com/driftsound/stepgrid/xrand"
)

func rollPct(pct int, rng *xrand.Source) bool {
	if pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	return rng.Range(1, 100) <= pct
}

// Generate runs the configured generator mode against track, emitting
// the track's active notes-off first.
func (e *Engine) Generate(track int) {
	tr := e.tracks[track]
	var notes []byte
	notes = tr.AllNotesOff(notes[:0])
	for _, n := range notes {
		e.sendNoteOff(track, n)
	}

	loopLen := e.params.Length(track)
	root := e.params.ScaleRoot()
	sc := e.params.ScaleIndex()

	switch e.params.GenMode(track) {
	case stepgrid.GenNew:
		e.generateNew(tr, track, loopLen, root, sc)
	case stepgrid.GenReorder:
		e.generateReorder(tr, loopLen)
	case stepgrid.GenRePitch:
		e.generateRePitch(tr, track, loopLen, root, sc)
	case stepgrid.GenInvert:
		e.generateInvert(tr, loopLen)
	}
}

func (e *Engine) generateNew(tr *TrackState, track, loopLen, root int, sc scale.Index) {
	for s := 0; s < loopLen; s++ {
		tr.Data[s].Clear()
	}

	density := e.params.Density(track)
	bias := e.params.Bias(track)
	noteRange := e.params.NoteRange(track)
	noteRand := e.params.NoteRand(track)
	velVar := e.params.VelVar(track)
	gateRand := e.params.GateRand(track)
	q := tr.EffectiveQuantize(loopLen, e.params.GlobalDivision())
	if q < 1 {
		q = 1
	}

	for s := 0; s < loopLen; s += q {
		if !rollPct(density, &e.globalRand) {
			continue
		}
		spread := noteRange * noteRand / 100
		note := bias + e.globalRand.Range(-spread, spread)
		note = clampInt(note, 0, 127)
		note = int(scale.Quantize(byte(note), root, sc))

		velSpread := 100 * velVar / 200
		vel := clampInt(100+e.globalRand.Range(-velSpread, velSpread), 1, 127)

		maxDur := q
		minDur := maxDur - maxDur*gateRand/100
		if minDur < 1 {
			minDur = 1
		}
		dur := maxDur
		if minDur < maxDur {
			dur = e.globalRand.Range(minDur, maxDur)
		}
		tr.Data[s].Insert(stepgrid.NoteEvent{Note: byte(note), Velocity: byte(vel), Duration: uint16(dur)})
	}

	e.extendTies(tr, track, loopLen)
}

// extendTies is the generator's second pass: for each occupied step,
// with probability ties%, extend its events' durations to reach the
// next occupied step (wrapping).
func (e *Engine) extendTies(tr *TrackState, track, loopLen int) {
	ties := e.params.Ties(track)
	if ties <= 0 {
		return
	}
	var occupied []int
	for s := 0; s < loopLen; s++ {
		if tr.Data[s].Count > 0 {
			occupied = append(occupied, s)
		}
	}
	if len(occupied) < 2 {
		// A single occupied step has no next note to reach; leave its
		// pass-1 duration untouched.
		return
	}
	for i, s := range occupied {
		if !rollPct(ties, &e.globalRand) {
			continue
		}
		next := occupied[(i+1)%len(occupied)]
		gap := next - s
		if gap <= 0 {
			gap += loopLen
		}
		bucket := &tr.Data[s]
		for k := 0; k < bucket.Count; k++ {
			bucket.Events[k].Duration = uint16(gap)
		}
	}
}

func (e *Engine) generateReorder(tr *TrackState, loopLen int) {
	type flat struct {
		ev   stepgrid.NoteEvent
		step int
	}
	var flats []flat
	for s := 0; s < loopLen; s++ {
		for i := 0; i < tr.Data[s].Count; i++ {
			flats = append(flats, flat{tr.Data[s].Events[i], s})
		}
	}
	if len(flats) == 0 {
		return
	}
	events := make([]stepgrid.NoteEvent, len(flats))
	steps := make([]int, len(flats))
	for i, f := range flats {
		events[i] = f.ev
		steps[i] = f.step
	}
	for i := len(events) - 1; i > 0; i-- {
		j := e.globalRand.Range(0, i)
		events[i], events[j] = events[j], events[i]
	}
	for s := 0; s < loopLen; s++ {
		tr.Data[s].Clear()
	}
	for i, ev := range events {
		tr.Data[steps[i]].Insert(ev)
	}
}

func (e *Engine) generateRePitch(tr *TrackState, track, loopLen, root int, sc scale.Index) {
	bias := e.params.Bias(track)
	noteRange := e.params.NoteRange(track)
	noteRand := e.params.NoteRand(track)
	spread := noteRange * noteRand / 100

	for s := 0; s < loopLen; s++ {
		old := tr.Data[s]
		tr.Data[s].Clear()
		for i := 0; i < old.Count; i++ {
			ev := old.Events[i]
			note := clampInt(bias+e.globalRand.Range(-spread, spread), 0, 127)
			ev.Note = scale.Quantize(byte(note), root, sc)
			tr.Data[s].Insert(ev)
		}
	}
}

func (e *Engine) generateInvert(tr *TrackState, loopLen int) {
	half := loopLen / 2
	for i := 0; i < half; i++ {
		j := loopLen - 1 - i
		tr.Data[i], tr.Data[j] = tr.Data[j], tr.Data[i]
		clampBucketDurations(&tr.Data[i], loopLen-i)
		clampBucketDurations(&tr.Data[j], loopLen-j)
	}
}

func clampBucketDurations(b *stepgrid.StepEvents, maxDur int) {
	if maxDur < 1 {
		maxDur = 1
	}
	for i := 0; i < b.Count; i++ {
		if int(b.Events[i].Duration) > maxDur {
			b.Events[i].Duration = uint16(maxDur)
		}
	}
}
