package engine

import (
	"testing"

	"github.com/driftsound/stepgrid"
)

func TestClearTrackTriggerEdgeClearsOnlyTheRecTrack(t *testing.T) {
	e, _ := newTestEngine(2)
	e.Track(0).Data[0].Insert(stepgrid.NoteEvent{Note: 60, Velocity: 100, Duration: 1})
	e.Track(1).Data[0].Insert(stepgrid.NoteEvent{Note: 64, Velocity: 100, Duration: 1})
	e.Params().SetGlobal(gRecTrack, 0)

	e.Params().SetGlobal(gClearTrack, 1)
	e.handleClearGenerateEdges()

	if e.Track(0).Data[0].Count != 0 {
		t.Fatalf("rec-track 0 was not cleared")
	}
	if e.Track(1).Data[0].Count != 1 {
		t.Fatalf("track 1 should be untouched by Clear-Track, got %+v", e.Track(1).Data[0])
	}

	// A second edge detection call with the same trigger value is a
	// no-op: it must not re-clear (idempotent, §8).
	e.Track(0).Data[3].Insert(stepgrid.NoteEvent{Note: 70, Velocity: 50, Duration: 1})
	e.handleClearGenerateEdges()
	if e.Track(0).Data[3].Count != 1 {
		t.Fatalf("a repeated call with no new edge re-cleared the track")
	}
}

func TestClearAllTriggerEdgeClearsEveryTrack(t *testing.T) {
	e, _ := newTestEngine(2)
	e.Track(0).Data[0].Insert(stepgrid.NoteEvent{Note: 60, Velocity: 100, Duration: 1})
	e.Track(1).Data[0].Insert(stepgrid.NoteEvent{Note: 64, Velocity: 100, Duration: 1})

	e.Params().SetGlobal(gClearAll, 1)
	e.handleClearGenerateEdges()

	if e.Track(0).Data[0].Count != 0 || e.Track(1).Data[0].Count != 0 {
		t.Fatalf("Clear-All did not clear every track")
	}
}

func TestGenerateTriggerEdgeRunsOnRecTrack(t *testing.T) {
	e, _ := newTestEngine(1)
	e.Params().SetTrack(0, tLength, 8)
	e.Params().SetTrack(0, tDensity, 100)

	e.Params().SetGlobal(gGenerate, 1)
	e.handleClearGenerateEdges()

	total := 0
	for s := 0; s < 8; s++ {
		total += e.Track(0).Data[s].Count
	}
	if total == 0 {
		t.Fatalf("Generate trigger edge did not populate the rec-track")
	}
}

func TestRecTrackChangeEdgeInvokesOnRecTrackChanged(t *testing.T) {
	e, _ := newTestEngine(2)
	e.Params().SetTrack(0, tLength, 8)
	e.Track(0).Step = 1
	e.record = stepgrid.RecordStep
	e.stepRecPos = 5
	e.liveNoteOn(60, 100)

	e.Params().SetGlobal(gRecTrack, 1)
	e.handleClearGenerateEdges()

	if e.stepRecPos != 1 {
		t.Fatalf("got stepRecPos %d, want reset to 1 on rec-track change", e.stepRecPos)
	}
	if e.held[60].Active {
		t.Fatalf("held note was not cleared on rec-track change")
	}
}

func TestLengthChangeEdgeInvalidatesQuantizeCache(t *testing.T) {
	e, _ := newTestEngine(1)
	e.Params().SetTrack(0, tLength, 8)
	if got := e.Track(0).EffectiveQuantize(8, 4); got != 4 {
		t.Fatalf("got %d, want 4", got)
	}

	e.Params().SetTrack(0, tLength, 6)
	e.handleClearGenerateEdges()

	// The cache must recompute for the new loop length rather than
	// returning a value memoized for length 8.
	if got := e.Track(0).EffectiveQuantize(6, 4); got != 3 {
		t.Fatalf("got %d, want 3 for loop length 6 after invalidation", got)
	}
}

func TestDivisionChangeEdgeResetsStepCursorInStepRecord(t *testing.T) {
	e, _ := newTestEngine(1)
	e.record = stepgrid.RecordStep
	e.stepRecPos = 5

	e.Params().SetGlobal(gDivision, 2)
	e.handleClearGenerateEdges()

	if e.stepRecPos != 1 {
		t.Fatalf("got stepRecPos %d, want reset to 1 on division change", e.stepRecPos)
	}
}

func TestScheduleDelayedEmitsAfterItsDelayElapses(t *testing.T) {
	e, h := newTestEngine(1)
	e.scheduleDelayed(0, 60, 100, 4, 10, stepgrid.DestAll, 1)

	e.advanceDelayed(0.005) // 5ms, short of the 10ms delay
	if len(h.sent) != 0 {
		t.Fatalf("got %d messages before the delay elapsed, want 0", len(h.sent))
	}

	e.advanceDelayed(0.006) // another 6ms, past the 10ms delay
	if len(h.sent) != 1 {
		t.Fatalf("got %d messages after the delay elapsed, want 1", len(h.sent))
	}
	if h.sent[0].status&0xF0 != 0x90 || h.sent[0].d1 != 60 {
		t.Fatalf("got %+v, want a note-on for note 60", h.sent[0])
	}
	if !e.Track(0).playing[60].active {
		t.Fatalf("the delayed note was not copied into the playing table on emission")
	}
}

// TestAdvanceDelayedRoundsUpFractionalMilliseconds pins the spec's
// ceil(dt*1000) decrement: a 1.1ms-equivalent block must consume 2ms of
// remaining delay, not 1.1, so a note scheduled with an exact 2ms delay
// resolves on this single block instead of needing a second one.
func TestAdvanceDelayedRoundsUpFractionalMilliseconds(t *testing.T) {
	e, h := newTestEngine(1)
	e.scheduleDelayed(0, 60, 100, 4, 2, stepgrid.DestAll, 1)

	e.advanceDelayed(0.0011) // dt*1000 = 1.1ms, ceil = 2ms
	if len(h.sent) != 1 {
		t.Fatalf("got %d messages after a ceil-rounded 2ms decrement against a 2ms delay, want 1", len(h.sent))
	}
}

func TestScheduleDelayedSilentlyDropsWhenPoolIsFull(t *testing.T) {
	e, _ := newTestEngine(1)
	for i := 0; i < stepgrid.MaxDelayedNotes; i++ {
		e.scheduleDelayed(0, byte(i), 100, 1, 1000, stepgrid.DestAll, 1)
	}
	// The pool is now full; one more call must not panic or overwrite.
	e.scheduleDelayed(0, 99, 100, 1, 1000, stepgrid.DestAll, 1)

	for _, d := range e.delayed {
		if d.note == 99 {
			t.Fatalf("a slot was overwritten even though the pool was full")
		}
	}
}

func TestPanicDropsAllDelayedNotes(t *testing.T) {
	e, _ := newTestEngine(1)
	e.scheduleDelayed(0, 60, 100, 4, 10, stepgrid.DestAll, 1)

	e.panic()

	for _, d := range e.delayed {
		if d.active {
			t.Fatalf("panic left a delayed note active: %+v", d)
		}
	}
}
