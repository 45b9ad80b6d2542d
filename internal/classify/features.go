// Package classify maps time slots to discrete traffic states. Two
// interchangeable variants exist: a transparent threshold-rule classifier
// and an unsupervised k-means classifier. Both are fitted once on a
// training population and are pure functions afterwards.
package classify

import (
	"math"
	"time"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"
)

// State is a traffic-state label.
type State string

// Rule-classifier labels.
const (
	StateNightIdle       State = "Night Idle"
	StateMorningUpPeak   State = "Morning Up-Peak"
	StateLunchDownPeak   State = "Lunch Down-Peak"
	StateEveningDownPeak State = "Evening Down-Peak"
	StateAfternoonMixed  State = "Afternoon Mixed"
	StateWeekendLow      State = "Weekend Low-Demand"
)

// Cluster-classifier labels.
const (
	StateUpPeak   State = "Up-Peak"
	StateDownPeak State = "Down-Peak"
	StateIdleLow  State = "Idle/Low"
	StateMixed    State = "Mixed"
)

// SlotFeatures are the per-slot signals both classifier variants consume.
type SlotFeatures struct {
	Start     time.Time
	Count     float64
	UpRatio   float64 // up calls / total calls, 0 when the slot is empty
	LobbyFrac float64 // share of calls originating at the lobby floor
	Entropy   float64 // base-2 spatial entropy of the floor distribution
	Smoothed  float64 // rolling mean of Count, window 3
	Regime    series.Regime
	Hour      int
}

// smoothingWindow is the rolling-mean width applied to call volume.
const smoothingWindow = 3

// FromSlots derives the feature series from a slot series. lobbyFloor marks
// which origin floor counts toward lobby concentration.
func FromSlots(slots []series.TimeSlot, lobbyFloor int) []SlotFeatures {
	feats := make([]SlotFeatures, len(slots))
	for i, s := range slots {
		f := SlotFeatures{
			Start:  s.Start,
			Count:  float64(s.Count),
			Regime: s.Regime,
			Hour:   s.Start.Hour(),
		}
		if s.Count > 0 {
			f.UpRatio = float64(s.UpCount) / float64(s.Count)
			lobby := 0
			for _, fl := range s.Floors {
				if fl == lobbyFloor {
					lobby++
				}
			}
			f.LobbyFrac = float64(lobby) / float64(s.Count)
			f.Entropy = floorEntropy(s.Floors)
		}
		feats[i] = f
	}
	// Trailing rolling mean over the call volume, shrinking at the start.
	for i := range feats {
		lo := i - smoothingWindow + 1
		if lo < 0 {
			lo = 0
		}
		var sum float64
		for j := lo; j <= i; j++ {
			sum += feats[j].Count
		}
		feats[i].Smoothed = sum / float64(i-lo+1)
	}
	return feats
}

// floorEntropy computes the base-2 entropy of the empirical floor
// distribution of one slot.
func floorEntropy(floors []int) float64 {
	if len(floors) == 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, f := range floors {
		counts[f]++
	}
	total := float64(len(floors))
	var h float64
	for _, c := range counts {
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}

// Classifier is the shared contract of both variants: fit once, classify
// per-slot with frozen parameters thereafter.
type Classifier interface {
	Name() string
	Fit(feats []SlotFeatures) error
	Classify(f SlotFeatures) State
}

// Label runs a fitted classifier over a whole feature series.
func Label(c Classifier, feats []SlotFeatures) []State {
	states := make([]State, len(feats))
	for i, f := range feats {
		states[i] = c.Classify(f)
	}
	return states
}
