/*
Package host is a reference real-time driver for an engine.Engine: it owns
the engine, pulls incoming MIDI events and CV bus levels from a
SequencerContext once per block, and relays parameter writes, snapshot
import/export requests and panic requests from a Broker into the engine's
API. It also reports track positions and alerts back out on the Broker for
whatever is hosting it (a CLI, a plugin shell, a control surface) to
consume.

The host package and its gomidi subpackage are not part of the engine's
core contract; they exist to show one way of wiring a physical or virtual
MIDI device to the engine.
*/
package host
