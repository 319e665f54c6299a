package host

import (
	"testing"
	"time"

	"github.com/driftsound/stepgrid"
	"github.com/driftsound/stepgrid/engine"
)

type fakeHost struct{}

func (fakeHost) SendMIDI(stepgrid.Destination, byte, byte, byte) {}
func (fakeHost) CycleCounter() uint32                             { return 1 }
func (fakeHost) Log(string)                                      {}

type fakeContext struct {
	events                []MIDIEvent
	idx                   int
	runLevel, clockLevel float64
}

func (c *fakeContext) NextEvent(frame int) (MIDIEvent, bool) {
	if c.idx >= len(c.events) {
		return MIDIEvent{}, false
	}
	e := c.events[c.idx]
	c.idx++
	return e, true
}
func (c *fakeContext) FinishBlock(frame int)            { c.idx = 0 }
func (c *fakeContext) Levels() (float64, float64) { return c.runLevel, c.clockLevel }

func newTestDriver(numTracks int) (*Driver, *engine.Engine, *Broker) {
	eng := engine.New(fakeHost{}, numTracks)
	broker := NewBroker()
	return NewDriver(eng, broker), eng, broker
}

func TestProcessAppliesTrackParamWriteBeforeStepping(t *testing.T) {
	d, eng, broker := newTestDriver(1)
	broker.ToEngine <- ParamWriteMsg{Track: 0, Index: 1 /* tLength */, Value: 12}

	d.Process(0.01, &fakeContext{})

	if got := eng.Params().Length(0); got != 12 {
		t.Fatalf("got track length %d, want 12", got)
	}
}

func TestProcessAppliesGlobalParamWrite(t *testing.T) {
	d, eng, broker := newTestDriver(1)
	broker.ToEngine <- ParamWriteMsg{Global: true, Index: 1 /* gRecTrack */, Value: 0}

	d.Process(0.01, &fakeContext{})

	if got := eng.Params().RecTrack(); got != 0 {
		t.Fatalf("got rec track %d, want 0", got)
	}
}

func TestProcessReportsEveryTrackPosition(t *testing.T) {
	d, eng, broker := newTestDriver(2)
	eng.Track(0).Step = 3
	eng.Track(1).Step = 5

	d.Process(0.01, &fakeContext{})

	msg, ok := TimeoutReceive(broker.ToUI, time.Second)
	if !ok {
		t.Fatalf("no MsgToUI was sent")
	}
	if !msg.HasPosition || msg.Track[0] != 3 || msg.Track[1] != 5 {
		t.Fatalf("got %+v, want positions [3 5]", msg)
	}
}

func TestProcessSendsAlertOnUnparsableSnapshotImport(t *testing.T) {
	d, _, broker := newTestDriver(1)
	broker.ToEngine <- SnapshotImportMsg{Data: []byte("this is not a snapshot at all")}

	d.Process(0.01, &fakeContext{})

	found := false
	for {
		msg, ok := TimeoutReceive(broker.ToUI, 10*time.Millisecond)
		if !ok {
			break
		}
		if msg.HasAlert && msg.Alert.Priority == Error {
			found = true
		}
	}
	if !found {
		t.Fatalf("no error alert was sent for an unparsable snapshot")
	}
}
