package engine

import "github.com/driftsound/stepgrid"

// ratioEntry is one a:b trig ratio, period b with 1-based position a.
type ratioEntry struct {
	pos    int
	period int
}

// ratioTable enumerates the 35 positive ratios in the order the contract
// fixes: 1:2,2:2,1:3,2:3,3:3,...,1:8..8:8. Codes 1..35 index
// into it directly; codes 36..70 index the same table and negate.
var ratioTable = buildRatioTable()

func buildRatioTable() [35]ratioEntry {
	var t [35]ratioEntry
	i := 0
	for period := 2; period <= 8; period++ {
		for pos := 1; pos <= period; pos++ {
			t[i] = ratioEntry{pos: pos, period: period}
			i++
		}
	}
	return t
}

// evalCond reports whether cond gates the step open, given the track's
// current loop_count and the engine's global Fill flag. Fixed (75) is
// reported open here too; callers that need Fixed's bypass-probability
// side effect check cond == stepgrid.CondFixed separately.
func evalCond(cond stepgrid.TrigCond, loopCount int, fill bool) bool {
	switch {
	case cond == stepgrid.CondAlways:
		return true
	case cond >= 1 && cond <= 35:
		e := ratioTable[cond-1]
		return (loopCount % e.period) == (e.pos - 1)
	case cond >= 36 && cond <= 70:
		e := ratioTable[cond-36]
		return (loopCount % e.period) != (e.pos - 1)
	case cond == stepgrid.CondFirst:
		return loopCount == 0
	case cond == stepgrid.CondNotFirst:
		return loopCount != 0
	case cond == stepgrid.CondFill:
		return fill
	case cond == stepgrid.CondNotFill:
		return !fill
	case cond == stepgrid.CondFixed:
		return true
	default:
		return true
	}
}
