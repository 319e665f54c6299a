// Transport and record finite state machines (C9), driving C6-C8 from
// edge-detected gate/clock and parameter changes: two coupled FSMs, one
// for play/stop and one for the recording mode.
package engine

import "github.com/driftsound/stepgrid"

// transportStart runs the Start action: reset every track's position and
// counters, reinitialize shuffle orders to identity, clear the
// per-block step_time; if a Live-Pending record was armed, resolve it.
func (e *Engine) transportStart() {
	e.transport = stepgrid.TransportRunning
	e.stepTime = 0
	for i := 0; i < e.NumTracks(); i++ {
		e.tracks[i].ResetForStart(e.params.Length(i))
	}
	if e.record == stepgrid.RecordLivePending {
		if e.params.RecordMode() == stepgrid.RecordReplace {
			e.clearTrack(e.params.RecTrack())
		}
		e.record = stepgrid.RecordLive
	}
}

// transportStop runs the Stop action: finalize held notes if Live, send
// all-notes-off, clear every track's playing table, drop delayed notes.
func (e *Engine) transportStop() {
	e.transport = stepgrid.TransportStopped
	if e.record == stepgrid.RecordLive {
		e.finalizeHeld()
	}
	e.panic()
}

// runRecordFSM advances the record state machine from record_on,
// record_mode, transport state, and rec-track-edge detection (spec
// §4.9's table). It runs before clock processing within a block (§5
// ordering guarantee).
func (e *Engine) runRecordFSM() {
	recordOn := e.params.RecordOn()
	liveMode := !e.params.StepRecordMode()

	switch e.record {
	case stepgrid.RecordIdle:
		if !recordOn {
			return
		}
		if !liveMode {
			e.record = stepgrid.RecordStep
			e.stepRecPos = 1
			return
		}
		if e.transport == stepgrid.TransportRunning {
			if e.params.RecordMode() == stepgrid.RecordReplace {
				e.clearTrack(e.params.RecTrack())
			}
			e.record = stepgrid.RecordLive
		} else {
			e.record = stepgrid.RecordLivePending
		}
	case stepgrid.RecordLive:
		if !recordOn {
			e.finalizeHeld()
			e.record = stepgrid.RecordIdle
			return
		}
		if !liveMode {
			e.finalizeHeld()
			e.record = stepgrid.RecordStep
			e.stepRecPos = 1
		}
	case stepgrid.RecordStep:
		if !recordOn {
			e.record = stepgrid.RecordIdle
			e.stepRecPos = 0
			return
		}
		if liveMode {
			e.stepRecPos = 0
			if e.transport == stepgrid.TransportRunning {
				if e.params.RecordMode() == stepgrid.RecordReplace {
					e.clearTrack(e.params.RecTrack())
				}
				e.record = stepgrid.RecordLive
			} else {
				e.record = stepgrid.RecordLivePending
			}
		}
	case stepgrid.RecordLivePending:
		if !recordOn {
			e.record = stepgrid.RecordIdle
			return
		}
		if !liveMode {
			e.record = stepgrid.RecordStep
			e.stepRecPos = 1
			return
		}
		if e.transport == stepgrid.TransportRunning {
			if e.params.RecordMode() == stepgrid.RecordReplace {
				e.clearTrack(e.params.RecTrack())
			}
			e.record = stepgrid.RecordLive
		}
	}
}

// onRecTrackChanged clears held notes and, if in Step, resets the
// cursor to 1 (rec-track change at any time).
func (e *Engine) onRecTrackChanged(newTrack int) {
	e.clearHeld()
	if e.record == stepgrid.RecordStep {
		e.stepRecPos = 1
	}
}
