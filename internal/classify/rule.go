package classify

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"
)

// Default threshold parameters of the rule classifier. Volume thresholds
// come from training-population quantiles; direction and lobby cutoffs are
// fixed, interpretable constants.
const (
	Theta1Quantile = 0.10 // low-activity volume quantile
	Theta2Quantile = 0.75 // high-activity volume quantile (up-peak, lunch)
	Theta3Quantile = 0.75 // high-activity volume quantile (down-peak)

	Alpha1 = 0.6 // strong upward dominance
	Alpha2 = 0.4 // strong downward dominance
	Alpha3 = 0.6 // upper bound of the lunch middle band
	Beta1  = 0.3 // lobby-concentration cutoff
)

// ErrNoTrainingData is returned when a classifier is fitted on an empty
// feature series.
var ErrNoTrainingData = errors.New("classify: no training features")

// rule pairs a predicate with its label. The slice order is the decision
// order: the first matching rule wins, and swapping rules changes labels
// for boundary slots, so the order is part of the contract.
type rule struct {
	label State
	match func(f SlotFeatures) bool
}

// RuleClassifier assigns states through a fixed, prioritized rule list with
// quantile-derived volume thresholds.
type RuleClassifier struct {
	Theta1 float64
	Theta2 float64
	Theta3 float64

	rules []rule
}

// NewRuleClassifier returns an unfitted rule classifier.
func NewRuleClassifier() *RuleClassifier { return &RuleClassifier{} }

// Name implements Classifier.
func (rc *RuleClassifier) Name() string { return "rule" }

// Fit derives the volume thresholds from the training population and
// freezes the rule list.
func (rc *RuleClassifier) Fit(feats []SlotFeatures) error {
	if len(feats) == 0 {
		return ErrNoTrainingData
	}
	counts := make([]float64, len(feats))
	for i, f := range feats {
		counts[i] = f.Count
	}
	sort.Float64s(counts)
	rc.Theta1 = stat.Quantile(Theta1Quantile, stat.LinInterp, counts, nil)
	rc.Theta2 = stat.Quantile(Theta2Quantile, stat.LinInterp, counts, nil)
	rc.Theta3 = stat.Quantile(Theta3Quantile, stat.LinInterp, counts, nil)

	// First match wins. Keep this order.
	rc.rules = []rule{
		{StateNightIdle, func(f SlotFeatures) bool { return f.Count < rc.Theta1 }},
		{StateWeekendLow, func(f SlotFeatures) bool { return f.Regime == series.Weekend }},
		{StateMorningUpPeak, func(f SlotFeatures) bool {
			return f.Count >= rc.Theta2 && f.UpRatio >= Alpha1 && f.LobbyFrac >= Beta1
		}},
		{StateEveningDownPeak, func(f SlotFeatures) bool {
			return f.Count >= rc.Theta3 && f.UpRatio <= Alpha2
		}},
		{StateLunchDownPeak, func(f SlotFeatures) bool {
			return f.Count >= rc.Theta2 && f.UpRatio > Alpha2 && f.UpRatio < Alpha3
		}},
	}
	return nil
}

// Classify walks the prioritized rule list and returns the first matching
// label, falling back to Afternoon Mixed.
func (rc *RuleClassifier) Classify(f SlotFeatures) State {
	for _, r := range rc.rules {
		if r.match(f) {
			return r.label
		}
	}
	return StateAfternoonMixed
}
