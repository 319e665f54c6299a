package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/driftsound/stepgrid/host"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext wraps a rtmididrv.Driver and buffers incoming note
	// messages for a host.Driver to consume frame by frame, implementing
	// host.SequencerContext's MIDI half (NextEvent/FinishBlock). It does
	// not itself know about Run/Clock CV; a caller composes it with
	// whatever supplies those levels for its particular hardware.
	RTMIDIContext struct {
		driver             *rtmididrv.Driver
		currentIn          drivers.In
		inputDevices       []RTMIDIDevice
		devicesInitialized bool
		events             chan timestampedMsg
		eventsBuf          []timestampedMsg
		eventIndex         int
		startFrame         int
		startFrameSet      bool
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}

	timestampedMsg struct {
		frame int
		msg   midi.Message
	}
)

func (m *RTMIDIContext) InputDevices(yield func(RTMIDIDevice) bool) {
	if m.devicesInitialized {
		m.yieldCachedInputDevices(yield)
	} else {
		m.initInputDevices(yield)
	}
}

func (m *RTMIDIContext) yieldCachedInputDevices(yield func(RTMIDIDevice) bool) {
	for _, device := range m.inputDevices {
		if !yield(device) {
			break
		}
	}
}

func (m *RTMIDIContext) initInputDevices(yield func(RTMIDIDevice) bool) {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for i := 0; i < len(ins); i++ {
		device := RTMIDIDevice{context: m, in: ins[i]}
		m.inputDevices = append(m.inputDevices, device)
		if !yield(device) {
			break
		}
	}
	m.devicesInitialized = true
}

// NewContext opens the rtmidi driver. If no driver is available, the
// context still works, it just never yields any input devices.
func NewContext() *RTMIDIContext {
	m := RTMIDIContext{events: make(chan timestampedMsg, 1024)}
	m.driver, _ = rtmididrv.New()
	return &m
}

// Open opens an input device, closing the currently open one first if
// necessary.
func (m RTMIDIDevice) Open() error {
	if m.context.currentIn == m.in {
		return nil
	}
	if m.context.driver == nil {
		return errors.New("no driver available")
	}
	if m.context.HasDeviceOpen() {
		m.context.currentIn.Close()
	}
	m.context.currentIn = m.in
	err := m.in.Open()
	if err != nil {
		m.context.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	_, err = midi.ListenTo(m.in, m.context.HandleMessage)
	if err != nil {
		m.in.Close()
		m.context.currentIn = nil
	}
	return nil
}

func (d RTMIDIDevice) String() string {
	return d.in.String()
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.driver.Close()
}

func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *RTMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if namePrefix == "" && !takeFirst {
		return nil
	}
	for input := range c.InputDevices {
		if takeFirst || strings.HasPrefix(input.String(), namePrefix) {
			return input.Open()
		}
	}
	if takeFirst {
		return errors.New("could not find any MIDI input")
	}
	return fmt.Errorf("could not find any MIDI input starting with %q", namePrefix)
}

// HandleMessage is the rtmidi listener callback; it buffers the message
// with a frame position derived from its timestamp, dropping it silently
// if the buffer is full.
func (m *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	select {
	case m.events <- timestampedMsg{frame: int(int64(timestampms) * 44100 / 1000), msg: msg}:
	default:
	}
}

// NextEvent returns the next buffered note-on or note-off as a raw
// host.MIDIEvent, decoding it into the 3 status/data bytes the engine's
// MidiMessage expects. Non-note messages (CC, clock, etc.) are skipped.
func (c *RTMIDIContext) NextEvent(frame int) (event host.MIDIEvent, ok bool) {
F:
	for {
		select {
		case msg := <-c.events:
			c.eventsBuf = append(c.eventsBuf, msg)
			if !c.startFrameSet {
				c.startFrame = msg.frame
				c.startFrameSet = true
			}
		default:
			break F
		}
	}
	if c.eventIndex > 0 {
		delta := frame + c.startFrame - c.eventsBuf[c.eventIndex-1].frame
		c.startFrame -= delta / 5
	}
	for c.eventIndex < len(c.eventsBuf) {
		var channel uint8
		var velocity uint8
		var key uint8
		m := c.eventsBuf[c.eventIndex]
		c.eventIndex++
		isNoteOn := m.msg.GetNoteOn(&channel, &key, &velocity)
		isNoteOff := !isNoteOn && m.msg.GetNoteOff(&channel, &key, &velocity)
		if isNoteOn {
			status := byte(0x90) | (channel & 0x0F)
			return host.MIDIEvent{Frame: m.frame - c.startFrame, Status: status, Data1: key, Data2: velocity}, true
		}
		if isNoteOff {
			status := byte(0x80) | (channel & 0x0F)
			return host.MIDIEvent{Frame: m.frame - c.startFrame, Status: status, Data1: key, Data2: velocity}, true
		}
	}
	c.eventIndex = len(c.eventsBuf) + 1
	return host.MIDIEvent{}, false
}

// FinishBlock drops the events consumed this block and, if events remain
// unconsumed, nudges the internal clock towards them so they land close
// to when they were actually received.
func (c *RTMIDIContext) FinishBlock(frame int) {
	c.startFrame += frame
	if c.eventIndex > 0 {
		copy(c.eventsBuf, c.eventsBuf[c.eventIndex-1:])
		c.eventsBuf = c.eventsBuf[:len(c.eventsBuf)-c.eventIndex+1]
		if len(c.eventsBuf) > 0 {
			delta := c.startFrame - c.eventsBuf[0].frame
			c.startFrame -= delta / 5
		}
	}
	c.eventIndex = 0
}
