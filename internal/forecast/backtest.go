package forecast

import (
	"math"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"
)

// Accuracy holds the error metrics of one predictor over a backtest slice.
type Accuracy struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	N    int     `json:"n"`
}

// BacktestResult compares the full model against the pure time-of-day
// baseline, overall and per traffic-state label when labels are supplied.
type BacktestResult struct {
	Model    Accuracy            `json:"model"`
	Baseline Accuracy            `json:"baseline"`
	ByState  map[string]Accuracy `json:"byState,omitempty"`
}

type errAccum struct {
	absSum float64
	sqSum  float64
	n      int
}

func (a *errAccum) add(err float64) {
	a.absSum += math.Abs(err)
	a.sqSum += err * err
	a.n++
}

func (a *errAccum) accuracy() Accuracy {
	if a.n == 0 {
		return Accuracy{MAE: math.NaN(), RMSE: math.NaN()}
	}
	return Accuracy{
		MAE:  a.absSum / float64(a.n),
		RMSE: math.Sqrt(a.sqSum / float64(a.n)),
		N:    a.n,
	}
}

// Backtest rolls one-step predictions over slots: each slot after the first
// is predicted from its predecessor and compared against the observed count.
// states, when non-nil, must align with slots and enables the per-state
// breakdown of the model's error.
func (m *Model) Backtest(slots []series.TimeSlot, states []string) BacktestResult {
	var modelAcc, baseAcc errAccum
	byState := make(map[string]*errAccum)

	for i := 1; i < len(slots); i++ {
		prev, cur := slots[i-1], slots[i]
		if cur.Start.Sub(prev.Start) != m.width {
			continue // only score genuine one-step transitions
		}
		_, yhat := m.Predict(prev.Start, float64(prev.Count))
		observed := float64(cur.Count)
		modelAcc.add(observed - yhat)
		baseAcc.add(observed - m.Baseline(cur.Start))

		if states != nil && i < len(states) {
			acc, ok := byState[states[i]]
			if !ok {
				acc = &errAccum{}
				byState[states[i]] = acc
			}
			acc.add(observed - yhat)
		}
	}

	res := BacktestResult{Model: modelAcc.accuracy(), Baseline: baseAcc.accuracy()}
	if len(byState) > 0 {
		res.ByState = make(map[string]Accuracy, len(byState))
		for s, acc := range byState {
			res.ByState[s] = acc.accuracy()
		}
	}
	return res
}
