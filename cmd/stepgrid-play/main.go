// Command stepgrid-play is a terminal demo host for the engine: it wires
// a small canned pattern through engine.Engine, drives it with a software
// Run/Clock pulse at the given tempo, optionally jams notes in from a
// physical MIDI input, and prints every MIDI message the engine emits.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/driftsound/stepgrid"
	"github.com/driftsound/stepgrid/engine"
	"github.com/driftsound/stepgrid/host"
	"github.com/driftsound/stepgrid/host/gomidi"
	"github.com/driftsound/stepgrid/version"
)

const blockDur = 10 * time.Millisecond

func main() {
	tracks := flag.Int("tracks", 1, "Number of tracks.")
	length := flag.Int("length", 8, "Loop length in steps, for every track.")
	bpm := flag.Float64("bpm", 120, "Tempo in beats per minute; the master clock ticks at 16th notes.")
	snapshotPath := flag.String("snapshot", "", "Path to a YAML snapshot file. Loaded at startup if it exists, and written back out on exit.")
	midiPrefix := flag.String("midi", "", "Name prefix of a MIDI input device to open for live jamming/recording. If empty, no MIDI input is opened.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		return
	}

	h := &consoleHost{}
	eng := engine.New(h, *tracks)
	for i := 0; i < eng.NumTracks(); i++ {
		eng.Params().SetTrack(i, 0 /* tEnabled */, 1)
		eng.Params().SetTrack(i, 1 /* tLength */, int32(*length))
		eng.Params().SetTrack(i, 5 /* tOutChannel */, 1)
		eng.Params().SetTrack(i, 6 /* tDestination */, int32(stepgrid.DestAll))
		eng.Params().SetTrack(i, 20 /* tStepProb */, 100)
		eng.Params().SetTrack(i, 28 /* tDensity */, 70)
		eng.Params().SetTrack(i, 29 /* tBias */, 60)
	}

	if *snapshotPath != "" {
		if data, err := os.ReadFile(*snapshotPath); err == nil {
			if !eng.Import(data) {
				fmt.Fprintf(os.Stderr, "stepgrid-play: %s is not a valid snapshot, starting from a generated pattern\n", *snapshotPath)
			}
		}
	}
	for i := 0; i < eng.NumTracks(); i++ {
		if allStepsEmpty(eng.Track(i)) {
			eng.Generate(i)
		}
	}

	if *snapshotPath != "" {
		defer func() {
			data, err := eng.Export()
			if err != nil {
				fmt.Fprintf(os.Stderr, "stepgrid-play: could not export snapshot: %v\n", err)
				return
			}
			if err := os.WriteFile(*snapshotPath, data, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "stepgrid-play: could not write %s: %v\n", *snapshotPath, err)
			}
		}()
	}

	broker := host.NewBroker()
	driver := host.NewDriver(eng, broker)

	var midiCtx *gomidi.RTMIDIContext
	if *midiPrefix != "" {
		midiCtx = gomidi.NewContext()
		defer midiCtx.Close()
		if err := midiCtx.TryToOpenBy(*midiPrefix, false); err != nil {
			fmt.Fprintf(os.Stderr, "stepgrid-play: %v\n", err)
		}
	}

	clockPeriod := time.Duration(float64(time.Minute) / (*bpm * 4))
	clockHalf := clockPeriod / 2
	var sinceToggle time.Duration
	clockHigh := false
	started := false

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)

	ticker := time.NewTicker(blockDur)
	defer ticker.Stop()

	fmt.Printf("stepgrid-play: running %d track(s) at %.1f BPM, Ctrl-C to stop\n", eng.NumTracks(), *bpm)

	for {
		select {
		case <-sigint:
			return
		case <-ticker.C:
			sinceToggle += blockDur
			if sinceToggle >= clockHalf {
				sinceToggle -= clockHalf
				clockHigh = !clockHigh
			}
			runLevel := 0.0
			if started {
				runLevel = 3.0
			}
			started = true
			clockLevel := 0.0
			if clockHigh {
				clockLevel = 3.0
			}
			driver.Process(blockDur.Seconds(), &blockContext{midi: midiCtx, runLevel: runLevel, clockLevel: clockLevel})
		}
	}
}

func allStepsEmpty(tr *engine.TrackState) bool {
	for s := range tr.Data {
		if tr.Data[s].Count != 0 {
			return false
		}
	}
	return true
}

// blockContext adapts an optional gomidi.RTMIDIContext plus the block's
// precomputed CV levels into a host.SequencerContext.
type blockContext struct {
	midi                 *gomidi.RTMIDIContext
	runLevel, clockLevel float64
}

func (c *blockContext) NextEvent(frame int) (host.MIDIEvent, bool) {
	if c.midi == nil {
		return host.MIDIEvent{}, false
	}
	return c.midi.NextEvent(frame)
}

func (c *blockContext) FinishBlock(frame int) {
	if c.midi != nil {
		c.midi.FinishBlock(frame)
	}
}

func (c *blockContext) Levels() (runLevel, clockLevel float64) {
	return c.runLevel, c.clockLevel
}

// consoleHost is the minimal stepgrid.Host: it prints every emitted MIDI
// message to standard output and hands out an incrementing PRNG seed.
type consoleHost struct {
	cycle uint32
}

func (h *consoleHost) SendMIDI(dest stepgrid.Destination, status, data1, data2 byte) {
	kind := "off"
	if status&0xF0 == 0x90 {
		kind = "on "
	}
	fmt.Printf("note-%s ch=%2d note=%3d vel=%3d dest=%#x\n", kind, (status&0x0F)+1, data1, data2, dest)
}

func (h *consoleHost) CycleCounter() uint32 {
	h.cycle++
	return h.cycle
}

func (h *consoleHost) Log(message string) {
	fmt.Fprintln(os.Stderr, message)
}
