// Package forecast implements the per-slot baseline plus regime AR(1)
// demand model used to anticipate near-term hall-call volume.
package forecast

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"
)

// MinTrainingSlots is the smallest training series the fit accepts.
const MinTrainingSlots = 12

// ErrInsufficientData is returned when the training slice is too short to
// estimate baseline and AR parameters.
var ErrInsufficientData = errors.New("forecast: insufficient training slots")

// Model holds the fitted baseline means and per-regime AR(1) coefficients.
// Fit once per run; immutable afterwards.
type Model struct {
	width       time.Duration
	slotsPerDay int
	baseline    map[series.Regime][]float64
	phi         map[series.Regime]float64
	fitted      bool
}

// New returns an unfitted model for the given slot width.
func New(width time.Duration) *Model {
	if width <= 0 {
		width = series.DefaultSlotWidth
	}
	return &Model{
		width:       width,
		slotsPerDay: int(24 * time.Hour / width),
	}
}

// Fit estimates the baseline mean for every (regime, time-of-day) pair and
// the lag-1 residual coefficient per regime. Residual pairs only count when
// slot t and t-1 share a regime; a zero-variance denominator yields a zero
// coefficient rather than an error.
func (m *Model) Fit(slots []series.TimeSlot) error {
	if len(slots) < MinTrainingSlots {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(slots), MinTrainingSlots)
	}

	samples := make(map[series.Regime][][]float64)
	for _, r := range []series.Regime{series.Weekend, series.Weekday} {
		samples[r] = make([][]float64, m.slotsPerDay)
	}
	for _, s := range slots {
		samples[s.Regime][s.TODIndex] = append(samples[s.Regime][s.TODIndex], float64(s.Count))
	}

	m.baseline = make(map[series.Regime][]float64)
	for r, byTOD := range samples {
		mu := make([]float64, m.slotsPerDay)
		for tau, vals := range byTOD {
			if len(vals) > 0 {
				mu[tau] = stat.Mean(vals, nil)
			}
		}
		m.baseline[r] = mu
	}

	// Residuals in series order, then OLS without intercept per regime.
	counts := make([]float64, len(slots))
	means := make([]float64, len(slots))
	for i, s := range slots {
		counts[i] = float64(s.Count)
		means[i] = m.baseline[s.Regime][s.TODIndex]
	}
	resid := make([]float64, len(slots))
	floats.SubTo(resid, counts, means)
	m.phi = map[series.Regime]float64{series.Weekend: 0, series.Weekday: 0}
	for _, r := range []series.Regime{series.Weekend, series.Weekday} {
		var num, den float64
		for i := 1; i < len(slots); i++ {
			if slots[i].Regime != r || slots[i-1].Regime != r {
				continue
			}
			num += resid[i-1] * resid[i]
			den += resid[i-1] * resid[i-1]
		}
		if den != 0 {
			m.phi[r] = num / den
		}
	}
	m.fitted = true
	return nil
}

// Fitted reports whether Fit has completed.
func (m *Model) Fitted() bool { return m.fitted }

// Phi returns the fitted AR(1) coefficient for a regime.
func (m *Model) Phi(r series.Regime) float64 { return m.phi[r] }

// Baseline returns the fitted baseline mean for the slot containing t.
func (m *Model) Baseline(t time.Time) float64 {
	tau := (t.Hour()*60 + t.Minute()) / int(m.width.Minutes())
	return m.baseline[series.RegimeOf(t)][tau]
}

// Predict returns the start of the next slot and the forecast count for it:
// the next slot's baseline corrected by the current regime's AR(1) term on
// the latest residual. Counts cannot be negative, so the result is clamped
// at zero.
func (m *Model) Predict(lastStart time.Time, lastCount float64) (time.Time, float64) {
	next := lastStart.Add(m.width)
	rNow := series.RegimeOf(lastStart)
	yhat := m.Baseline(next) + m.phi[rNow]*(lastCount-m.Baseline(lastStart))
	if yhat < 0 {
		yhat = 0
	}
	return next, yhat
}
