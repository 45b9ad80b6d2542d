package evaluate

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/dispatch"
)

// Window names an analysis subset of the call log.
type Window string

const (
	WindowOverall    Window = "overall"
	WindowPeak       Window = "peak"       // weekday 08-10 and 17-19
	WindowTransition Window = "transition" // +/- 3 slots around a state change
	WindowHighLoad   Window = "high_load"  // top 10% of 5-min bins by call count
)

// transitionSpread is how many slots on each side of a state change belong
// to the transition window.
const transitionSpread = 3

// Partition splits a call log into the analysis windows. The overall entry
// is the full log; the others may be empty. tl is the labeled slot timeline
// the log was simulated against: transition neighborhoods come from its
// slot-level state sequence, so changes inside call-free stretches still
// mark their surroundings.
func Partition(outs []dispatch.Outcome, tl *dispatch.Timeline) map[Window][]dispatch.Outcome {
	return map[Window][]dispatch.Outcome{
		WindowOverall:    outs,
		WindowPeak:       peakCalls(outs),
		WindowTransition: transitionCalls(outs, tl),
		WindowHighLoad:   highLoadCalls(outs, tl.Width),
	}
}

func peakCalls(outs []dispatch.Outcome) []dispatch.Outcome {
	var sel []dispatch.Outcome
	for _, o := range outs {
		wd := o.CallTime.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		h := o.CallTime.Hour()
		if (h >= 8 && h < 10) || (h >= 17 && h < 19) {
			sel = append(sel, o)
		}
	}
	return sel
}

// transitionCalls marks the slots within transitionSpread of any state
// change on the labeled timeline and selects the calls inside them. The
// slot series is gap-free, so a change in the middle of a call-free stretch
// still tags the calls near its boundary.
func transitionCalls(outs []dispatch.Outcome, tl *dispatch.Timeline) []dispatch.Outcome {
	if len(outs) == 0 || tl == nil || len(tl.States) < 2 {
		return nil
	}

	marked := make(map[time.Time]bool)
	for i := 1; i < len(tl.Slots) && i < len(tl.States); i++ {
		if tl.States[i] == tl.States[i-1] {
			continue
		}
		for k := -transitionSpread; k <= transitionSpread; k++ {
			marked[tl.Slots[i].Start.Add(time.Duration(k)*tl.Width)] = true
		}
	}

	var sel []dispatch.Outcome
	for _, o := range outs {
		if marked[o.CallTime.Truncate(tl.Width)] {
			sel = append(sel, o)
		}
	}
	return sel
}

// highLoadCalls selects calls in the top decile of 5-min bins by call count.
func highLoadCalls(outs []dispatch.Outcome, width time.Duration) []dispatch.Outcome {
	if len(outs) == 0 {
		return nil
	}

	binCount := make(map[time.Time]int)
	for _, o := range outs {
		binCount[o.CallTime.Truncate(width)]++
	}
	counts := make([]float64, 0, len(binCount))
	for _, n := range binCount {
		counts = append(counts, float64(n))
	}
	sort.Float64s(counts)
	thr := stat.Quantile(0.90, stat.LinInterp, counts, nil)

	var sel []dispatch.Outcome
	for _, o := range outs {
		if float64(binCount[o.CallTime.Truncate(width)]) >= thr {
			sel = append(sel, o)
		}
	}
	return sel
}
