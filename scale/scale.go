// Package scale implements the engine's MIDI scale quantizer (C2): an
// inbound note's white-key position is mapped onto a degree of a chosen
// scale and root. With scale Off, quantization is the identity. Grounded on the
// scale-table-by-enum shape in
// _examples/other_examples/grahamseamans-go-sequence__metropolix.go
// (its `scales` map and `scaleNames` table), adapted to this engine's
// white-key decomposition algorithm.
package scale

// Index selects a scale. Off passes notes through unchanged.
type Index int

const (
	Off Index = iota
	Major
	Dorian
	Phrygian
	Lydian
	Mixolydian
	Minor
	Locrian
	HarmonicMinor
	MelodicMinor
	MajorPentatonic
	MinorPentatonic
)

// Names gives a display label per Index, for diagnostics only; it is
// never consulted for correctness.
var Names = []string{
	"Off", "Major", "Dorian", "Phrygian", "Lydian", "Mixolydian",
	"Minor", "Locrian", "Harmonic Minor", "Melodic Minor",
	"Major Pentatonic", "Minor Pentatonic",
}

// whiteKey maps a pitch class (0-11) onto a white-key degree (0-6).
var whiteKey = [12]int{0, 0, 1, 1, 2, 3, 3, 4, 4, 5, 5, 6}

// intervals[s-1] holds the semitone offset of each degree of scale s
// from its root, in scale-ascending order.
var intervals = [][]int{
	Major - 1:           {0, 2, 4, 5, 7, 9, 11},
	Dorian - 1:          {0, 2, 3, 5, 7, 9, 10},
	Phrygian - 1:        {0, 1, 3, 5, 7, 8, 10},
	Lydian - 1:          {0, 2, 4, 6, 7, 9, 11},
	Mixolydian - 1:      {0, 2, 4, 5, 7, 9, 10},
	Minor - 1:           {0, 2, 3, 5, 7, 8, 10},
	Locrian - 1:         {0, 1, 3, 5, 6, 8, 10},
	HarmonicMinor - 1:   {0, 2, 3, 5, 7, 8, 11},
	MelodicMinor - 1:    {0, 2, 3, 5, 7, 9, 11},
	MajorPentatonic - 1: {0, 2, 4, 7, 9},
	MinorPentatonic - 1: {0, 3, 5, 7, 10},
}

func clamp127(n int) byte {
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return byte(n)
}

// Quantize maps note n onto a degree of scale s rooted at root (0-11):
// n's pitch class picks a white-key index, which selects the degree
// (overflowing into the next octave for five-note scales). This is not
// a nearest-pitch search. With s == Off, it returns n unchanged.
func Quantize(n byte, root int, s Index) byte {
	if s == Off {
		return n
	}
	table := intervals[s-1]
	size := len(table)
	pc := int(n) % 12
	octave := int(n) / 12
	whiteIdx := whiteKey[pc]
	extraOctave := whiteIdx / size
	degree := whiteIdx % size
	out := (octave+extraOctave)*12 + root + table[degree]
	return clamp127(out)
}

// NoteMap records, per inbound note number, the pitch most recently
// emitted for it by Quantize, so that a later note-off releases the
// same quantized pitch that the matching note-on opened
// §4.2).
type NoteMap [128]byte

// Open quantizes n and remembers the result against n, returning the
// quantized pitch to use for the note-on.
func (m *NoteMap) Open(n byte, root int, s Index) byte {
	q := Quantize(n, root, s)
	m[n] = q
	return q
}

// Close returns the pitch previously opened for n (or n itself, quantized
// fresh, if none was recorded; a zero entry counts as none recorded).
func (m *NoteMap) Close(n byte, root int, s Index) byte {
	if q := m[n]; q != 0 {
		return q
	}
	return Quantize(n, root, s)
}
