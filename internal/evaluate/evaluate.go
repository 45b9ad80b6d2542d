// Package evaluate condenses call-level simulation logs into the strategy
// comparison tables: overall and per analysis window, with tail quantiles
// and long-wait rates.
package evaluate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/dispatch"
)

// DefaultLongWait is the absolute long-wait threshold in seconds, used when
// no adaptive baseline threshold is available.
const DefaultLongWait = 60.0

// Summary is one row of a strategy comparison table.
type Summary struct {
	Strategy        string  `json:"strategy"`
	Scenario        string  `json:"scenario"`
	Window          Window  `json:"window"`
	N               int     `json:"n"`
	AWT             float64 `json:"awt"` // mean wait, seconds
	P90             float64 `json:"p90"`
	P95             float64 `json:"p95"`
	P99             float64 `json:"p99"`
	LongWaitPct     float64 `json:"longWaitPct"`     // share of calls at or above the threshold, percent
	EmptyTravelMean float64 `json:"emptyTravelMean"` // mean per-call empty-travel share, seconds
}

// Summarize reduces one group of outcomes to a Summary row. An empty group
// yields N=0 with NaN metrics so downstream tables can render it as missing
// rather than as a fake zero.
func Summarize(strategy, scenario string, window Window, outs []dispatch.Outcome, longWait float64) Summary {
	s := Summary{Strategy: strategy, Scenario: scenario, Window: window, N: len(outs)}
	if len(outs) == 0 {
		s.AWT, s.P90, s.P95, s.P99 = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		s.LongWaitPct, s.EmptyTravelMean = math.NaN(), math.NaN()
		return s
	}

	waits := make([]float64, len(outs))
	var long int
	var empty float64
	for i, o := range outs {
		waits[i] = o.Wait
		if o.Wait >= longWait {
			long++
		}
		empty += o.EmptyShare
	}
	sort.Float64s(waits)

	s.AWT = stat.Mean(waits, nil)
	s.P90 = stat.Quantile(0.90, stat.LinInterp, waits, nil)
	s.P95 = stat.Quantile(0.95, stat.LinInterp, waits, nil)
	s.P99 = stat.Quantile(0.99, stat.LinInterp, waits, nil)
	s.LongWaitPct = 100 * float64(long) / float64(len(outs))
	s.EmptyTravelMean = empty / float64(len(outs))
	return s
}

// LongWaitThreshold derives the adaptive long-wait cutoff: the reference
// strategy's P95 over the same subset of calls. Falls back to the absolute
// default when the reference group is empty.
func LongWaitThreshold(reference []dispatch.Outcome, fallback float64) float64 {
	if len(reference) == 0 {
		return fallback
	}
	waits := make([]float64, len(reference))
	for i, o := range reference {
		waits[i] = o.Wait
	}
	sort.Float64s(waits)
	return stat.Quantile(0.95, stat.LinInterp, waits, nil)
}

// SortByAWT orders summary rows best-first, NaN rows last.
func SortByAWT(rows []Summary) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].AWT, rows[j].AWT
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		if math.IsNaN(a) {
			return false
		}
		return a < b
	})
}
