package host

import (
	"github.com/driftsound/stepgrid/engine"
)

type (
	// Driver owns the engine and drives it from a Broker's control
	// messages plus a per-block SequencerContext, the same way a
	// render-loop player owns its synth and drives it from broker
	// messages plus a process context.
	Driver struct {
		eng    *engine.Engine
		broker *Broker
	}

	// SequencerContext is the context given to the driver when processing
	// a block. It supplies the MIDI events and CV bus levels that
	// occurred during the block, the way PlayerProcessContext supplied
	// MIDI events and BPM to the player.
	SequencerContext interface {
		NextEvent(frame int) (event MIDIEvent, ok bool)
		FinishBlock(frame int)
		Levels() (runLevel, clockLevel float64)
	}

	// MIDIEvent is a raw 3-byte MIDI message occurring at Frame, relative
	// to the start of the current block.
	MIDIEvent struct {
		Frame                int
		Status, Data1, Data2 byte
	}

	// PanicMsg with Bool true runs engine.Panic; Bool false is ignored.
	PanicMsg struct{ Bool bool }

	// ParamWriteMsg writes one value into the engine's parameter vector.
	// Global selects the 16-slot global block; otherwise the write lands
	// in Track's 40-slot per-track block.
	ParamWriteMsg struct {
		Global bool
		Track  int
		Index  int
		Value  int32
	}

	// SnapshotImportMsg requests the engine import the given snapshot,
	// trying JSON then YAML (engine.Import's own fallback order).
	SnapshotImportMsg struct{ Data []byte }

	// SnapshotExportMsg requests the engine export its current state.
	// JSON selects engine.ExportJSON over the default YAML export. The
	// result arrives via MsgToUI.Data as a SnapshotResultMsg.
	SnapshotExportMsg struct{ JSON bool }

	// SnapshotResultMsg is the asynchronous reply to a SnapshotExportMsg.
	SnapshotResultMsg struct {
		Data []byte
		Err  error
	}
)

const numProcessTries = 10000

func NewDriver(eng *engine.Engine, broker *Broker) *Driver {
	return &Driver{eng: eng, broker: broker}
}

// Process advances the engine by one block of dt seconds. It first drains
// any pending Broker control messages, then feeds every MIDI event the
// context reports during the block into the engine before stepping it
// with the block's sampled CV levels, and finally reports track positions
// back out on the Broker.
func (d *Driver) Process(dt float64, context SequencerContext) {
	d.processMessages()

	frame := 0
	for tries := 0; tries < numProcessTries; tries++ {
		event, ok := context.NextEvent(frame)
		if !ok {
			break
		}
		d.eng.MidiMessage(event.Status, event.Data1, event.Data2)
		frame++
	}

	runLevel, clockLevel := context.Levels()
	d.eng.Step(dt, runLevel, clockLevel)

	d.report()
	context.FinishBlock(frame)
}

func (d *Driver) processMessages() {
loop:
	for {
		select {
		case msg := <-d.broker.ToEngine:
			switch m := msg.(type) {
			case PanicMsg:
				if m.Bool {
					d.eng.Panic()
				}
			case ParamWriteMsg:
				if m.Global {
					d.eng.Params().SetGlobal(m.Index, m.Value)
				} else {
					d.eng.Params().SetTrack(m.Track, m.Index, m.Value)
				}
			case SnapshotImportMsg:
				if !d.eng.Import(m.Data) {
					d.SendAlert("SnapshotImport", "snapshot data was neither valid JSON nor YAML", Error)
				}
			case SnapshotExportMsg:
				d.exportSnapshot(m.JSON)
			default:
				// ignore unknown messages
			}
		default:
			break loop
		}
	}
}

func (d *Driver) exportSnapshot(asJSON bool) {
	var data []byte
	var err error
	if asJSON {
		data, err = d.eng.ExportJSON()
	} else {
		data, err = d.eng.Export()
	}
	TrySend(d.broker.ToUI, MsgToUI{Data: SnapshotResultMsg{Data: data, Err: err}})
}

// report sends the current track positions to whatever is consuming
// ToUI. Sending is always non-blocking, so the driver can never end up
// deadlocked against a slow or absent consumer.
func (d *Driver) report() {
	msg := MsgToUI{HasPosition: true}
	n := d.eng.NumTracks()
	for i := 0; i < n && i < len(msg.Track); i++ {
		msg.Track[i] = d.eng.Track(i).Step
	}
	TrySend(d.broker.ToUI, msg)
}

// SendAlert surfaces a short-lived diagnostic message on the Broker.
func (d *Driver) SendAlert(name, message string, priority AlertPriority) {
	TrySend(d.broker.ToUI, MsgToUI{
		HasAlert: true,
		Alert: Alert{
			Name:     name,
			Message:  message,
			Priority: priority,
			Duration: defaultAlertDuration,
		},
	})
}
