package engine

import "github.com/driftsound/stepgrid"

// fakeHost is a minimal stepgrid.Host recording every MIDI message sent
// to it, for assertions in the engine's test files.
type fakeHost struct {
	cycle uint32
	sent  []sentMIDI
}

type sentMIDI struct {
	dest               stepgrid.Destination
	status, d1, d2 byte
}

func (h *fakeHost) SendMIDI(dest stepgrid.Destination, status, data1, data2 byte) {
	h.sent = append(h.sent, sentMIDI{dest, status, data1, data2})
}

func (h *fakeHost) CycleCounter() uint32 { return h.cycle }

func (h *fakeHost) Log(string) {}

func newTestEngine(numTracks int) (*Engine, *fakeHost) {
	h := &fakeHost{cycle: 1}
	e := New(h, numTracks)
	return e, h
}
