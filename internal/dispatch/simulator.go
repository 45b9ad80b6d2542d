// Package dispatch is the discrete-event simulation core: it owns the
// elevator-car state machines, applies a parking strategy at fixed decision
// epochs, dispatches each hall call to the nearest available car, and logs
// per-call wait times and empty-travel costs.
package dispatch

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/classify"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/parking"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"
)

// Params are the fixed simulation constants. SecondsPerFloor and DoorTime
// are modeling parameters, not measured physical constants; travel time is
// strictly linear in floor distance.
type Params struct {
	Fleet           int
	LobbyFloor      int
	SecondsPerFloor float64
	DoorTime        float64
	DecisionEvery   time.Duration // parking decision cadence
	HistorySlots    int           // lookback window for recent-demand history, in slots
}

// Car is one elevator's simulation state. The simulator owns this state
// exclusively; every strategy run starts from fresh cars.
type Car struct {
	ID          int
	Floor       int
	AvailableAt time.Time
}

// Outcome is the append-only per-call log record.
type Outcome struct {
	Strategy   string         `json:"strategy"`
	Scenario   string         `json:"scenario"`
	CallTime   time.Time      `json:"callTime"`
	Wait       float64        `json:"waitTime"` // seconds
	State      classify.State `json:"state"`
	EmptyShare float64        `json:"emptyTravel"` // this call's share of window reposition cost, seconds
}

// Timeline gives the simulator slot-aligned context: the traffic state and
// call floors per slot, for state tags and recent-demand history.
type Timeline struct {
	Width  time.Duration
	Slots  []series.TimeSlot
	States []classify.State
}

// StateAt returns the label of the slot containing t, or Afternoon Mixed
// before the first slot.
func (tl *Timeline) StateAt(t time.Time) classify.State {
	idx := sort.Search(len(tl.Slots), func(i int) bool { return tl.Slots[i].Start.After(t) }) - 1
	if idx < 0 || idx >= len(tl.States) {
		return classify.StateAfternoonMixed
	}
	return tl.States[idx]
}

// RecentFloors returns call origin floors from the lookback slots strictly
// before t.
func (tl *Timeline) RecentFloors(t time.Time, lookback int) []int {
	from := t.Add(-time.Duration(lookback) * tl.Width)
	return series.FloorsInWindow(tl.Slots, from, t)
}

// ForecastFn supplies the predicted next-slot demand at a decision epoch.
type ForecastFn func(epoch time.Time) float64

// Simulator runs one parking strategy over one ordered call stream.
type Simulator struct {
	params   Params
	strategy parking.Strategy
	timeline *Timeline
	forecast ForecastFn
	demand   map[classify.State]map[int]float64
	lg       *slog.Logger
}

// NewSimulator wires a simulator for one (strategy, scenario) run. forecast
// and demand may be nil when the strategy does not consume them.
func NewSimulator(params Params, strategy parking.Strategy, tl *Timeline, forecast ForecastFn, demand map[classify.State]map[int]float64, lg *slog.Logger) *Simulator {
	return &Simulator{
		params:   params,
		strategy: strategy,
		timeline: tl,
		forecast: forecast,
		demand:   demand,
		lg:       lg.With("strategy", strategy.Name()),
	}
}

// Run processes calls in timestamp order and returns the call-level log.
// An empty stream is a legitimate scenario outcome: it yields an empty log,
// not an error. Runs are deterministic: identical inputs produce identical
// logs.
func (s *Simulator) Run(scenario string, calls []series.HallCall) []Outcome {
	if len(calls) == 0 {
		s.lg.Warn("no calls in simulation window", "scenario", scenario)
		return nil
	}

	ordered := make([]series.HallCall, len(calls))
	copy(ordered, calls)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Time.Before(ordered[j].Time) })

	start := ordered[0].Time.Truncate(s.params.DecisionEvery)
	cars := make([]Car, s.params.Fleet)
	for i := range cars {
		cars[i] = Car{ID: i, Floor: s.params.LobbyFloor, AvailableAt: start}
	}

	outcomes := make([]Outcome, 0, len(ordered))
	// Reposition cost per decision window, attributed evenly across the
	// calls served in that window once the run completes. This is a
	// reporting approximation, not a physical cost model.
	pool := make(map[int]float64)
	windowCalls := make(map[int]int)
	windowOf := func(t time.Time) int { return int(t.Sub(start) / s.params.DecisionEvery) }

	nextEpoch := start
	for _, call := range ordered {
		for !nextEpoch.After(call.Time) {
			pool[windowOf(nextEpoch)] += s.applyParking(nextEpoch, cars)
			nextEpoch = nextEpoch.Add(s.params.DecisionEvery)
		}

		best, arrival := s.nearestAvailable(cars, call)
		wait := arrival.Sub(call.Time).Seconds()
		if cars[best].Floor != call.Floor {
			// The passenger waits out the door cycle only when the car
			// arrives from elsewhere; a co-located car's doors are already
			// cycling for this floor.
			wait += s.params.DoorTime
		}
		cars[best].Floor = call.Floor
		cars[best].AvailableAt = arrival.Add(s.dur(s.params.DoorTime))

		w := windowOf(call.Time)
		windowCalls[w]++
		outcomes = append(outcomes, Outcome{
			Strategy: s.strategy.Name(),
			Scenario: scenario,
			CallTime: call.Time,
			Wait:     wait,
			State:    s.timeline.StateAt(call.Time),
			// EmptyShare filled below once window totals are known.
		})
	}

	for i := range outcomes {
		w := windowOf(outcomes[i].CallTime)
		if n := windowCalls[w]; n > 0 {
			outcomes[i].EmptyShare = pool[w] / float64(n)
		}
	}
	return outcomes
}

// applyParking relocates the currently idle cars to the strategy's targets
// and returns the total empty-travel cost in seconds.
func (s *Simulator) applyParking(epoch time.Time, cars []Car) float64 {
	var idle []int
	for i := range cars {
		if !cars[i].AvailableAt.After(epoch) {
			idle = append(idle, i)
		}
	}
	if len(idle) == 0 {
		return 0
	}

	ctx := parking.PlanContext{
		IdleFloors:  make([]int, len(idle)),
		State:       s.timeline.StateAt(epoch),
		FloorDemand: s.demand,
	}
	for i, ci := range idle {
		ctx.IdleFloors[i] = cars[ci].Floor
	}
	if s.params.HistorySlots > 0 {
		ctx.RecentFloors = s.timeline.RecentFloors(epoch, s.params.HistorySlots)
	}
	if s.forecast != nil {
		ctx.Forecast = s.forecast(epoch)
	}

	targets := s.strategy.Plan(ctx, len(idle))
	var cost float64
	for i, ci := range idle {
		car := &cars[ci]
		if car.Floor == targets[i] {
			continue
		}
		travel := s.travelSeconds(car.Floor, targets[i])
		cost += travel
		car.AvailableAt = epoch.Add(s.dur(travel))
		car.Floor = targets[i]
	}
	return cost
}

// nearestAvailable picks the car with the earliest possible arrival at the
// call floor. Ties break toward the lowest car ID so runs are reproducible.
func (s *Simulator) nearestAvailable(cars []Car, call series.HallCall) (int, time.Time) {
	best := 0
	var bestArrival time.Time
	for i := range cars {
		startService := cars[i].AvailableAt
		if startService.Before(call.Time) {
			startService = call.Time
		}
		arrival := startService.Add(s.dur(s.travelSeconds(cars[i].Floor, call.Floor)))
		if i == 0 || arrival.Before(bestArrival) {
			best, bestArrival = i, arrival
		}
	}
	return best, bestArrival
}

func (s *Simulator) travelSeconds(from, to int) float64 {
	d := from - to
	if d < 0 {
		d = -d
	}
	return float64(d) * s.params.SecondsPerFloor
}

func (s *Simulator) dur(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
