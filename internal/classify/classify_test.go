package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"
)

func weekdaySlot(hour int, count, up, lobby int, floors []int) series.TimeSlot {
	st := time.Date(2025, 3, 3, hour, 0, 0, 0, time.UTC) // a Monday
	return series.TimeSlot{
		Start:    st,
		Count:    count,
		UpCount:  up,
		Floors:   floors,
		Regime:   series.Weekday,
		TODIndex: hour * 12,
	}
}

func repeatFloor(f, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = f
	}
	return out
}

// trainingFeatures builds a population with volumes uniform over 1..10, so
// the low threshold lands at 1 and the high threshold at 8.
func trainingFeatures() []SlotFeatures {
	var slots []series.TimeSlot
	for i := 0; i < 40; i++ {
		n := 1 + i%10
		slots = append(slots, weekdaySlot(i%24, n, n/2, 1, repeatFloor(1+i%9, n)))
	}
	return FromSlots(slots, 1)
}

func TestFeatureExtraction(t *testing.T) {
	slots := []series.TimeSlot{
		weekdaySlot(8, 4, 3, 0, []int{1, 1, 5, 9}),
		weekdaySlot(9, 0, 0, 0, nil),
	}
	feats := FromSlots(slots, 1)

	f := feats[0]
	assert.Equal(t, 4.0, f.Count)
	assert.InDelta(t, 0.75, f.UpRatio, 1e-9)
	assert.InDelta(t, 0.5, f.LobbyFrac, 1e-9)
	assert.InDelta(t, 1.5, f.Entropy, 1e-9) // {1:2, 5:1, 9:1} -> 1.5 bits

	empty := feats[1]
	assert.Zero(t, empty.UpRatio)
	assert.Zero(t, empty.Entropy)
	assert.InDelta(t, 2.0, empty.Smoothed, 1e-9) // mean of (4, 0)
}

func TestRuleClassifierDecisionOrder(t *testing.T) {
	rc := NewRuleClassifier()
	require.NoError(t, rc.Fit(trainingFeatures()))

	high := rc.Theta2 + 1
	cases := []struct {
		name string
		f    SlotFeatures
		want State
	}{
		{"below theta1 is idle", SlotFeatures{Count: 0, Regime: series.Weekday}, StateNightIdle},
		{"weekend wins over peaks", SlotFeatures{Count: high, UpRatio: 0.9, LobbyFrac: 0.9, Regime: series.Weekend}, StateWeekendLow},
		{"morning up-peak", SlotFeatures{Count: high, UpRatio: 0.7, LobbyFrac: 0.5, Regime: series.Weekday}, StateMorningUpPeak},
		{"evening down-peak", SlotFeatures{Count: high, UpRatio: 0.2, Regime: series.Weekday}, StateEveningDownPeak},
		{"lunch down-peak", SlotFeatures{Count: high, UpRatio: 0.5, Regime: series.Weekday}, StateLunchDownPeak},
		{"fallback mixed", SlotFeatures{Count: rc.Theta1, UpRatio: 0.5, Regime: series.Weekday}, StateAfternoonMixed},
		// Up-dominant but not lobby-concentrated: the morning rule fails on
		// beta1 and no later rule matches an up-ratio of 0.7.
		{"up without lobby is mixed", SlotFeatures{Count: high, UpRatio: 0.7, LobbyFrac: 0.1, Regime: series.Weekday}, StateAfternoonMixed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rc.Classify(tc.f))
		})
	}
}

func TestRuleClassifierIsPureAfterFit(t *testing.T) {
	rc := NewRuleClassifier()
	require.NoError(t, rc.Fit(trainingFeatures()))
	f := SlotFeatures{Count: 8, UpRatio: 0.65, LobbyFrac: 0.4, Regime: series.Weekday}
	first := rc.Classify(f)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, rc.Classify(f))
	}
}

func TestRuleClassifierRejectsEmptyTraining(t *testing.T) {
	rc := NewRuleClassifier()
	assert.ErrorIs(t, rc.Fit(nil), ErrNoTrainingData)
}

func TestKMeansClassifierLabelsAndPurity(t *testing.T) {
	// Three well-separated regimes: quiet, busy-up, busy-down.
	var slots []series.TimeSlot
	for i := 0; i < 20; i++ {
		slots = append(slots, weekdaySlot(2, 0, 0, 0, nil))
		slots = append(slots, weekdaySlot(8, 12, 11, 0, repeatFloor(1, 12)))
		slots = append(slots, weekdaySlot(17, 12, 1, 0, repeatFloor(9, 12)))
	}
	feats := FromSlots(slots, 1)

	kc := NewKMeansClassifier(3)
	require.NoError(t, kc.Fit(feats))

	states := Label(kc, feats)
	require.Len(t, states, len(feats))
	seen := map[State]bool{}
	for _, s := range states {
		seen[s] = true
	}
	assert.True(t, len(seen) > 1, "expected more than one cluster label, got %v", seen)

	f := feats[1]
	first := kc.Classify(f)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, kc.Classify(f))
	}
}

func TestKMeansFitIsDeterministic(t *testing.T) {
	var slots []series.TimeSlot
	for i := 0; i < 200; i++ {
		n := i % 13
		slots = append(slots, weekdaySlot(i%24, n, (n*(i%3))/3, 0, repeatFloor(1+i%9, n)))
	}
	feats := FromSlots(slots, 1)

	first := NewKMeansClassifier(6)
	require.NoError(t, first.Fit(feats))
	second := NewKMeansClassifier(6)
	require.NoError(t, second.Fit(feats))

	assert.Equal(t, Label(first, feats), Label(second, feats),
		"two fits on identical training data must agree on every slot label")
}

func TestKMeansClassifierClampsK(t *testing.T) {
	slots := []series.TimeSlot{
		weekdaySlot(8, 5, 4, 0, repeatFloor(1, 5)),
		weekdaySlot(9, 1, 0, 0, repeatFloor(7, 1)),
	}
	kc := NewKMeansClassifier(6)
	require.NoError(t, kc.Fit(FromSlots(slots, 1)))
}

func TestFloorDemandAggregatesByState(t *testing.T) {
	slots := []series.TimeSlot{
		weekdaySlot(8, 3, 3, 0, []int{1, 1, 5}),
		weekdaySlot(8, 2, 2, 0, []int{1, 9}),
		weekdaySlot(17, 2, 0, 0, []int{9, 9}),
		weekdaySlot(2, 0, 0, 0, nil),
	}
	states := []State{StateMorningUpPeak, StateMorningUpPeak, StateEveningDownPeak, StateNightIdle}

	demand := FloorDemand(slots, states)
	require.Len(t, demand, 2, "empty slots contribute no state")
	assert.Equal(t, 3.0, demand[StateMorningUpPeak][1])
	assert.Equal(t, 1.0, demand[StateMorningUpPeak][5])
	assert.Equal(t, 1.0, demand[StateMorningUpPeak][9])
	assert.Equal(t, 2.0, demand[StateEveningDownPeak][9])
}
