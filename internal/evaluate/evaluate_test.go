package evaluate

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/classify"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/dispatch"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"
)

var monday9 = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func outcomeAt(t time.Time, wait float64) dispatch.Outcome {
	return dispatch.Outcome{Strategy: "lobby", Scenario: "base", CallTime: t, Wait: wait, State: classify.StateAfternoonMixed}
}

// timelineWith builds a contiguous labeled slot timeline starting at
// monday9, one slot per state.
func timelineWith(states []classify.State, width time.Duration) *dispatch.Timeline {
	slots := make([]series.TimeSlot, len(states))
	for i := range states {
		slots[i] = series.TimeSlot{Start: monday9.Add(time.Duration(i) * width)}
	}
	return &dispatch.Timeline{Width: width, Slots: slots, States: states}
}

// flipTimeline labels the first `flip` of n slots with one state and the
// rest with another.
func flipTimeline(n, flip int, width time.Duration) *dispatch.Timeline {
	states := make([]classify.State, n)
	for i := range states {
		if i >= flip {
			states[i] = classify.StateMorningUpPeak
		} else {
			states[i] = classify.StateNightIdle
		}
	}
	return timelineWith(states, width)
}

func TestSummarizeKnownDistribution(t *testing.T) {
	outs := make([]dispatch.Outcome, 100)
	for i := range outs {
		outs[i] = outcomeAt(monday9.Add(time.Duration(i)*time.Second), float64(i))
		outs[i].EmptyShare = 2.0
	}

	s := Summarize("lobby", "base", WindowOverall, outs, DefaultLongWait)
	require.Equal(t, 100, s.N)
	assert.InDelta(t, 49.5, s.AWT, 1e-9)
	assert.InDelta(t, 89.0, s.P90, 1e-9)
	assert.InDelta(t, 94.0, s.P95, 1e-9)
	assert.InDelta(t, 98.0, s.P99, 1e-9)
	assert.InDelta(t, 40.0, s.LongWaitPct, 1e-9) // waits 60..99
	assert.InDelta(t, 2.0, s.EmptyTravelMean, 1e-9)
}

func TestSummarizeEmptyGroupIsNaN(t *testing.T) {
	s := Summarize("zone", "scale_1p5", WindowPeak, nil, DefaultLongWait)
	require.Equal(t, 0, s.N)
	assert.True(t, math.IsNaN(s.AWT))
	assert.True(t, math.IsNaN(s.P95))
	assert.True(t, math.IsNaN(s.LongWaitPct))
	assert.True(t, math.IsNaN(s.EmptyTravelMean))
}

func TestQuantilesAreMonotone(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	outs := make([]dispatch.Outcome, 500)
	for i := range outs {
		outs[i] = outcomeAt(monday9.Add(time.Duration(i)*time.Second), rng.ExpFloat64()*30)
	}
	s := Summarize("dynamic", "base", WindowOverall, outs, DefaultLongWait)
	assert.LessOrEqual(t, s.P90, s.P95)
	assert.LessOrEqual(t, s.P95, s.P99)
	assert.GreaterOrEqual(t, s.P90, 0.0)
}

func TestLongWaitThreshold(t *testing.T) {
	assert.Equal(t, DefaultLongWait, LongWaitThreshold(nil, DefaultLongWait))

	outs := make([]dispatch.Outcome, 40)
	for i := range outs {
		outs[i] = outcomeAt(monday9, 30.0)
	}
	assert.InDelta(t, 30.0, LongWaitThreshold(outs, DefaultLongWait), 1e-9)
}

func TestSortByAWTPutsNaNLast(t *testing.T) {
	rows := []Summary{
		{Strategy: "a", AWT: math.NaN()},
		{Strategy: "b", AWT: 12},
		{Strategy: "c", AWT: 5},
	}
	SortByAWT(rows)
	assert.Equal(t, "c", rows[0].Strategy)
	assert.Equal(t, "b", rows[1].Strategy)
	assert.Equal(t, "a", rows[2].Strategy)
}

func TestPeakWindowSelection(t *testing.T) {
	outs := []dispatch.Outcome{
		outcomeAt(time.Date(2025, 3, 3, 8, 30, 0, 0, time.UTC), 10),  // Monday morning peak
		outcomeAt(time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC), 10),  // Monday midday
		outcomeAt(time.Date(2025, 3, 3, 17, 45, 0, 0, time.UTC), 10), // Monday evening peak
		outcomeAt(time.Date(2025, 3, 8, 8, 30, 0, 0, time.UTC), 10),  // Saturday morning
	}
	got := Partition(outs, &dispatch.Timeline{Width: 5 * time.Minute})[WindowPeak]
	require.Len(t, got, 2)
	assert.Equal(t, outs[0].CallTime, got[0].CallTime)
	assert.Equal(t, outs[2].CallTime, got[1].CallTime)
}

func TestTransitionWindowSpansStateChange(t *testing.T) {
	// Twelve 5-min slots, one call each; the state flips at slot 6, so
	// slots 3 through 9 fall in the transition window.
	width := 5 * time.Minute
	tl := flipTimeline(12, 6, width)
	var outs []dispatch.Outcome
	for i := 0; i < 12; i++ {
		o := outcomeAt(monday9.Add(time.Duration(i)*width), 10)
		o.State = tl.States[i]
		outs = append(outs, o)
	}
	got := Partition(outs, tl)[WindowTransition]
	require.Len(t, got, 7)
	assert.Equal(t, monday9.Add(3*width), got[0].CallTime)
	assert.Equal(t, monday9.Add(9*width), got[6].CallTime)
}

func TestTransitionWindowCoversCallFreeStretch(t *testing.T) {
	// The state flips at slot 6 inside a call-free stretch spanning slots
	// 4..8. Slot-level marking still covers slots 3..9, so the calls at
	// slots 3 and 9 are the transition window; the later calls at 10 and
	// 11 are not.
	width := 5 * time.Minute
	tl := flipTimeline(12, 6, width)
	var outs []dispatch.Outcome
	for _, i := range []int{0, 1, 2, 3, 9, 10, 11} {
		o := outcomeAt(monday9.Add(time.Duration(i)*width), 10)
		o.State = tl.States[i]
		outs = append(outs, o)
	}
	got := Partition(outs, tl)[WindowTransition]
	require.Len(t, got, 2)
	assert.Equal(t, monday9.Add(3*width), got[0].CallTime)
	assert.Equal(t, monday9.Add(9*width), got[1].CallTime)
}

func TestHighLoadWindowPicksTopDecileBins(t *testing.T) {
	// Bin i holds i+1 calls for i in 0..9; the 90th percentile of bin
	// counts is 9, so only the 9- and 10-call bins qualify.
	var outs []dispatch.Outcome
	for i := 0; i < 10; i++ {
		for j := 0; j <= i; j++ {
			outs = append(outs, outcomeAt(monday9.Add(time.Duration(i)*5*time.Minute+time.Duration(j)*time.Second), 10))
		}
	}
	got := Partition(outs, &dispatch.Timeline{Width: 5 * time.Minute})[WindowHighLoad]
	assert.Len(t, got, 19)
}
