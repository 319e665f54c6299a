// Package quantize implements the engine's recording-time snap policies
// (C3): sub-clock step snap, division snap, and duration rounding, plus
// the per-track (length, global-division) -> effective-quantize cache.
// Grounded on the row/sub-row fraction math in
// tracker/recording.go (frameToRow and the note-duration-by-row
// bookkeeping in Recording.Score), generalized from audio-frame
// fractions to the step-fraction contract the sub-clock snap relies on.
package quantize

// Values is the fixed set of allowed division resolutions.
var Values = [5]int{1, 2, 4, 8, 16}

// Effective computes the largest q in [1, min(target, loopLen)] that
// evenly divides loopLen, falling back to 1 if none (other than 1)
// qualifies.
func Effective(loopLen, target int) int {
	if loopLen <= 0 {
		return 1
	}
	limit := target
	if limit > loopLen {
		limit = loopLen
	}
	for q := limit; q >= 1; q-- {
		if loopLen%q == 0 {
			return q
		}
	}
	return 1
}

// SnapStep snaps a raw 1-based step position to the nearest whole step,
// advancing to the next step (wrapping at loopLen) when frac is at or
// past threshold.
func SnapStep(raw int, frac, threshold float64, loopLen int) int {
	if frac < threshold {
		return raw
	}
	next := raw + 1
	if next > loopLen {
		next = 1
	}
	return next
}

// SnapDivision snaps a raw 1-based step position to the start of its
// enclosing division of size q, advancing to the next division boundary
// (wrapping at loopLen) when the fractional position within the
// division is at or past threshold.
func SnapDivision(raw int, frac, threshold float64, q, loopLen int) int {
	if q <= 0 {
		q = 1
	}
	offsetInDiv := (raw - 1) % q
	p := (float64(offsetInDiv) + frac) / float64(q)
	divStart := raw - offsetInDiv
	if p >= threshold {
		divStart += q
		if divStart > loopLen {
			divStart = 1
		}
	}
	return divStart
}

// Duration rounds d to the nearest multiple of q, floored to q when q
// is greater than 1; q <= 1 returns d unchanged.
func Duration(d, q int) int {
	if q <= 1 {
		return d
	}
	rounded := ((d + q/2) / q) * q
	if rounded < q {
		rounded = q
	}
	return rounded
}

// Cache memoizes the effective quantize for a track, keyed on the pair
// of parameters that can invalidate it: the track's length and the
// global division. Invalidated on parameter changes to
// that track's length or the global division; recomputed on first
// read."
type Cache struct {
	loopLen     int
	target      int
	effective   int
	dirty       bool
}

// NewCache returns a cache that is dirty until first read.
func NewCache() Cache {
	return Cache{dirty: true}
}

// Invalidate marks the cache dirty, forcing recomputation on next Get.
func (c *Cache) Invalidate() {
	c.dirty = true
}

// Get returns the effective quantize for (loopLen, target), recomputing
// only if the cache is dirty or the inputs changed.
func (c *Cache) Get(loopLen, target int) int {
	if !c.dirty && c.loopLen == loopLen && c.target == target {
		return c.effective
	}
	c.loopLen = loopLen
	c.target = target
	c.effective = Effective(loopLen, target)
	c.dirty = false
	return c.effective
}
