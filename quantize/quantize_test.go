package quantize

import "testing"

func TestEffectiveDividesLoopLen(t *testing.T) {
	cases := []struct {
		loopLen, target, want int
	}{
		{16, 4, 4},
		{15, 4, 3},
		{7, 4, 1},
		{1, 4, 1},
		{16, 16, 16},
		{16, 32, 16},
	}
	for _, c := range cases {
		if got := Effective(c.loopLen, c.target); got != c.want {
			t.Errorf("Effective(%d,%d) = %d, want %d", c.loopLen, c.target, got, c.want)
		}
	}
}

func TestSnapStepBelowThresholdStays(t *testing.T) {
	if got := SnapStep(5, 0.5, 0.75, 16); got != 5 {
		t.Errorf("got %d, want 5", got)
	}
}

func TestSnapStepAtThresholdAdvances(t *testing.T) {
	if got := SnapStep(5, 0.8, 0.75, 16); got != 6 {
		t.Errorf("got %d, want 6", got)
	}
}

func TestSnapStepWrapsAtLoopEnd(t *testing.T) {
	if got := SnapStep(16, 0.9, 0.75, 16); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestSnapDivisionWithinDivisionStays(t *testing.T) {
	// raw=5, q=4: offsetInDiv = (5-1)%4 = 0, divStart = 5.
	// p = (0+frac)/4; frac=0.5 -> p=0.125 < 0.75, stays at divStart.
	if got := SnapDivision(5, 0.5, 0.75, 4, 16); got != 5 {
		t.Errorf("got %d, want 5", got)
	}
}

func TestSnapDivisionAdvancesPastThreshold(t *testing.T) {
	// raw=5, q=4: offsetInDiv=0, divStart=5; frac=0.8 pushes a sub-step
	// rate of 0.2 per unit, still short of 0.75 at offset 0. Use an
	// offset near the division's end instead.
	// raw=7, q=4: offsetInDiv=(7-1)%4=2, divStart=5.
	// p=(2+frac)/4; frac=0.9 -> p=0.725, still < 0.75.
	// frac=0.95 -> p=0.7375, still < 0.75.
	// Use offsetInDiv=3 (raw=8): p=(3+frac)/4; frac=0.2 -> p=0.8 >= 0.75.
	if got := SnapDivision(8, 0.2, 0.75, 4, 16); got != 9 {
		t.Errorf("got %d, want 9", got)
	}
}

func TestSnapDivisionWrapsAtLoopEnd(t *testing.T) {
	// raw=16, q=4, loopLen=16: offsetInDiv=(16-1)%4=3, divStart=13.
	// p=(3+0.9)/4=0.975 >= 0.75, divStart -> 17, wraps to 1.
	if got := SnapDivision(16, 0.9, 0.75, 4, 16); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestDurationRoundsToNearestMultiple(t *testing.T) {
	cases := []struct{ d, q, want int }{
		{5, 4, 4},
		{7, 4, 8},
		{1, 4, 4},
		{10, 1, 10},
		{10, 0, 10},
	}
	for _, c := range cases {
		if got := Duration(c.d, c.q); got != c.want {
			t.Errorf("Duration(%d,%d) = %d, want %d", c.d, c.q, got, c.want)
		}
	}
}

func TestCacheRecomputesOnlyWhenInputsChangeOrDirty(t *testing.T) {
	c := NewCache()
	if got := c.Get(16, 4); got != 4 {
		t.Fatalf("got %d, want 4", got)
	}
	if got := c.Get(16, 4); got != 4 {
		t.Fatalf("cached get changed value: got %d", got)
	}
	if got := c.Get(15, 4); got != 3 {
		t.Fatalf("got %d, want 3 after input change", got)
	}
	c.Invalidate()
	if got := c.Get(15, 4); got != 3 {
		t.Fatalf("got %d, want 3 after invalidate", got)
	}
}
