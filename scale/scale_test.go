package scale

import "testing"

func TestOffIsIdentity(t *testing.T) {
	for n := 0; n < 128; n++ {
		if got := Quantize(byte(n), 3, Off); got != byte(n) {
			t.Fatalf("Quantize(%d, 3, Off) = %d, want %d", n, got, n)
		}
	}
}

func TestQuantizeStaysInRange(t *testing.T) {
	for _, s := range []Index{Major, Dorian, Minor, HarmonicMinor, MajorPentatonic, MinorPentatonic} {
		for n := 0; n < 128; n++ {
			got := Quantize(byte(n), 5, s)
			if got > 127 {
				t.Fatalf("Quantize(%d, 5, %v) = %d, out of range", n, s, got)
			}
		}
	}
}

func TestNoteMapRoundTrip(t *testing.T) {
	var m NoteMap
	opened := m.Open(60, 0, Major)
	closed := m.Close(60, 0, Major)
	if opened != closed {
		t.Errorf("Open/Close mismatch: opened=%d closed=%d", opened, closed)
	}
}
