package dispatch

import (
	"math/rand"
	"sort"
	"time"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"
)

// Scenario perturbs the call stream and/or the simulation parameters for
// stress testing. Transform may be nil for parameter-only scenarios.
type Scenario struct {
	Name      string
	Transform func(calls []series.HallCall, rng *rand.Rand) []series.HallCall
	SPFScale  float64 // multiplier on SecondsPerFloor
	DoorScale float64 // multiplier on DoorTime
}

// Apply produces the scenario's call stream and adjusted parameters.
func (sc Scenario) Apply(calls []series.HallCall, params Params, rng *rand.Rand) ([]series.HallCall, Params) {
	out := calls
	if sc.Transform != nil {
		out = sc.Transform(calls, rng)
	}
	if sc.SPFScale > 0 {
		params.SecondsPerFloor *= sc.SPFScale
	}
	if sc.DoorScale > 0 {
		params.DoorTime *= sc.DoorScale
	}
	return out, params
}

// DefaultScenarios mirrors the stress-test battery: baseline, +20%/+50%
// demand, a lobby shock burst, and slower mechanics.
func DefaultScenarios(lobbyFloor, burstCalls, burstMinutes int) []Scenario {
	return []Scenario{
		{Name: "base"},
		{Name: "scale_1p2", Transform: func(c []series.HallCall, rng *rand.Rand) []series.HallCall {
			return ScaleCalls(c, 1.2, rng)
		}},
		{Name: "scale_1p5", Transform: func(c []series.HallCall, rng *rand.Rand) []series.HallCall {
			return ScaleCalls(c, 1.5, rng)
		}},
		{Name: "shock_burst", Transform: func(c []series.HallCall, rng *rand.Rand) []series.HallCall {
			return InjectShock(c, lobbyFloor, burstCalls, burstMinutes)
		}},
		{Name: "params_plus20", SPFScale: 1.2, DoorScale: 1.2},
	}
}

// ScaleCalls resizes the demand stream. Factors at or below 1 subsample
// without replacement; larger factors duplicate randomly chosen calls with
// a uniform 0-59 s jitter. Deterministic for a given rng seed.
func ScaleCalls(calls []series.HallCall, factor float64, rng *rand.Rand) []series.HallCall {
	if len(calls) == 0 {
		return nil
	}
	if factor <= 1 {
		n := int(float64(len(calls)) * factor)
		if n < 1 {
			n = 1
		}
		perm := rng.Perm(len(calls))[:n]
		sort.Ints(perm)
		out := make([]series.HallCall, n)
		for i, idx := range perm {
			out[i] = calls[idx]
		}
		return out
	}

	extra := int(float64(len(calls)) * (factor - 1))
	out := make([]series.HallCall, 0, len(calls)+extra)
	out = append(out, calls...)
	for i := 0; i < extra; i++ {
		c := calls[rng.Intn(len(calls))]
		c.Time = c.Time.Add(time.Duration(rng.Intn(60)) * time.Second)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// InjectShock appends a burst of calls at one floor, spread evenly over
// burstMinutes starting five minutes into the quietest hour of the stream.
func InjectShock(calls []series.HallCall, floor, burstCalls, burstMinutes int) []series.HallCall {
	if len(calls) == 0 || burstCalls <= 0 {
		return calls
	}

	perHour := make(map[time.Time]int)
	for _, c := range calls {
		perHour[c.Time.Truncate(time.Hour)]++
	}
	var quietest time.Time
	quietCount := -1
	for h, n := range perHour {
		if quietCount == -1 || n < quietCount || (n == quietCount && h.Before(quietest)) {
			quietest, quietCount = h, n
		}
	}

	start := quietest.Add(5 * time.Minute)
	step := time.Duration(0)
	if burstCalls > 1 {
		step = time.Duration(burstMinutes) * time.Minute / time.Duration(burstCalls-1)
	}
	out := make([]series.HallCall, 0, len(calls)+burstCalls)
	out = append(out, calls...)
	for i := 0; i < burstCalls; i++ {
		out = append(out, series.HallCall{Time: start.Add(time.Duration(i) * step), Floor: floor})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
