/*
Package stepgrid holds the data model shared by the step sequencer engine
and its host: note events, step buffers, track layout, and the small
closed enums (directions, scales, trig conditions, generator modes) that
the engine and the host both need to agree on.

Behavior lives in the sibling packages: xrand (C1), scale (C2), quantize
(C3), direction (C4) and modifier (C5) are small, independently testable
leaves; engine (C6-C12) assembles them into the real-time sequencer core;
host is a reference driver that is not part of the core contract.
*/
package stepgrid
