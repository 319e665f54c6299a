// MidiMessage is the engine's MIDI intake entry point (part of C10),
// called zero or more times per block, serialized with Step.
// Grounded on the note-on/note-off decode in host/gomidi/midi.go's
// NextEvent (GetNoteOn/GetNoteOff against a raw 3-byte message).
package engine

import "github.com/driftsound/stepgrid"

// MidiMessage decodes one 3-byte MIDI message and routes it: input
// channel filtering, scale quantization, pass-through to the output
// channel, velocity-meter update, and step/live record dispatch (spec
// §4.10).
func (e *Engine) MidiMessage(status, data1, data2 byte) {
	kind := status & 0xF0
	channel := int(status&0x0F) + 1

	inputChannel := e.params.InputChannel()
	if inputChannel != 0 && channel != inputChannel {
		return
	}

	switch kind {
	case 0x90: // note on (velocity 0 is a note-off in disguise)
		if data2 == 0 {
			e.midiNoteOff(data1)
			return
		}
		e.midiThru(channel, 0x90, data1, data2)
		e.midiNoteOn(data1, data2)
	case 0x80:
		e.midiThru(channel, 0x80, data1, data2)
		e.midiNoteOff(data1)
	}
}

// midiThru passes the message through unchanged when a thru channel is
// configured and differs from the inbound channel.
func (e *Engine) midiThru(inChannel int, kind, data1, data2 byte) {
	out := e.params.ThruChannel()
	if out == 0 || out == inChannel {
		return
	}
	status := kind | (byte(out-1) & 0x0F)
	e.host.SendMIDI(stepgrid.DestAll, status, data1, data2)
}

func (e *Engine) midiNoteOn(note, velocity byte) {
	root := e.params.ScaleRoot()
	sc := e.params.ScaleIndex()
	quantized := e.noteMap.Open(note, root, sc)

	e.inputHeld[note] = true
	e.inputHeldCount++
	e.inputVelocity = velocity

	switch e.record {
	case stepgrid.RecordLive:
		e.liveNoteOn(quantized, velocity)
	case stepgrid.RecordStep:
		e.stepRecordNoteOn(quantized, velocity)
	}
}

func (e *Engine) midiNoteOff(note byte) {
	root := e.params.ScaleRoot()
	sc := e.params.ScaleIndex()
	quantized := e.noteMap.Close(note, root, sc)

	if e.inputHeld[note] {
		e.inputHeld[note] = false
		if e.inputHeldCount > 0 {
			e.inputHeldCount--
		}
	}

	switch e.record {
	case stepgrid.RecordLive:
		e.liveNoteOff(quantized)
	case stepgrid.RecordStep:
		e.stepRecordAdvance()
	}
}
