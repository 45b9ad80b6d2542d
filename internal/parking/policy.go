// Package parking assigns target floors to idle elevator cars. Strategies
// share one interface so the simulator and evaluation code stay
// strategy-agnostic.
package parking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/classify"
)

// ErrUnknownStrategy is returned when a caller asks for a policy name the
// engine does not implement.
var ErrUnknownStrategy = errors.New("parking: unknown strategy")

// Strategy names accepted by New.
const (
	StrategyLastStop      = "last_stop"
	StrategyLobby         = "lobby"
	StrategyZone          = "zone"
	StrategyDynamic       = "dynamic"
	StrategyDynamicRule   = "dynamic_rule"
	StrategyDynamicKMeans = "dynamic_kmeans"
)

// Config fixes the building geometry every strategy works against.
type Config struct {
	LobbyFloor int // ground floor cars return to, usually 1
	LobbyMax   int // highest floor of the Lobby zone
	MidMax     int // highest floor of the Mid zone
	MinFloor   int
	MaxFloor   int
}

// PlanContext carries the demand signals available at one decision epoch.
type PlanContext struct {
	// IdleFloors are the current floors of the idle cars being planned,
	// in car-ID order. len(IdleFloors) == k always.
	IdleFloors []int
	// RecentFloors are call origin floors over the lookback window.
	RecentFloors []int
	// State is the traffic-state label of the current slot.
	State classify.State
	// Forecast is the predicted call count for the next slot.
	Forecast float64
	// FloorDemand is the training-learned call weight per (state, floor);
	// nil unless a state-conditioned strategy is running.
	FloorDemand map[classify.State]map[int]float64
}

// Strategy computes exactly k parking targets for k idle cars.
type Strategy interface {
	Name() string
	Plan(ctx PlanContext, k int) []int
}

// New returns the named strategy or ErrUnknownStrategy.
func New(name string, cfg Config) (Strategy, error) {
	switch name {
	case StrategyLastStop:
		return &lastStop{cfg: cfg}, nil
	case StrategyLobby:
		return &lobby{cfg: cfg}, nil
	case StrategyZone:
		return &zone{cfg: cfg}, nil
	case StrategyDynamic:
		return &dynamic{cfg: cfg}, nil
	case StrategyDynamicRule, StrategyDynamicKMeans:
		// Both stress-test variants are the same conditioned quantile
		// policy; they differ only in which classifier feeds ctx.State.
		return &conditionedDynamic{name: name, cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Names lists every implemented strategy name.
func Names() []string {
	return []string{
		StrategyLastStop, StrategyLobby, StrategyZone,
		StrategyDynamic, StrategyDynamicRule, StrategyDynamicKMeans,
	}
}

// apportion turns fractional zone proportions into integer car counts that
// sum to exactly k. Remainders go to the largest fractional parts; ties
// break toward the earlier zone so the result is deterministic.
func apportion(props []float64, k int) []int {
	alloc := make([]int, len(props))
	type frac struct {
		idx  int
		part float64
	}
	fracs := make([]frac, len(props))
	assigned := 0
	for i, p := range props {
		raw := p * float64(k)
		alloc[i] = int(raw)
		assigned += alloc[i]
		fracs[i] = frac{idx: i, part: raw - float64(alloc[i])}
	}
	sort.SliceStable(fracs, func(a, b int) bool {
		if fracs[a].part != fracs[b].part {
			return fracs[a].part > fracs[b].part
		}
		return fracs[a].idx < fracs[b].idx
	})
	for i := 0; assigned < k; i++ {
		alloc[fracs[i%len(fracs)].idx]++
		assigned++
	}
	return alloc
}

// medianFloor returns the median of a non-empty sorted floor slice,
// truncating half-floors downward.
func medianFloor(sorted []int) int {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// quantileTargets picks k parking floors at the (i+0.5)/k positions of the
// sorted empirical floor distribution.
func quantileTargets(floors []int, k int) []int {
	sorted := append([]int(nil), floors...)
	sort.Ints(sorted)
	n := len(sorted)
	targets := make([]int, k)
	for i := 0; i < k; i++ {
		q := (float64(i) + 0.5) / float64(k)
		idx := int(q*float64(n-1) + 0.5)
		if idx < 0 {
			idx = 0
		}
		if idx > n-1 {
			idx = n - 1
		}
		targets[i] = sorted[idx]
	}
	return targets
}

// weightedQuantileTargets picks k floors at centered quantiles of a
// weighted floor distribution.
func weightedQuantileTargets(weights map[int]float64, k int) []int {
	floors := make([]int, 0, len(weights))
	var total float64
	for f, w := range weights {
		if w > 0 {
			floors = append(floors, f)
			total += w
		}
	}
	if len(floors) == 0 || total <= 0 {
		return nil
	}
	sort.Ints(floors)

	targets := make([]int, k)
	for i := 0; i < k; i++ {
		q := (float64(i) + 0.5) / float64(k)
		var cum float64
		target := floors[len(floors)-1]
		for _, f := range floors {
			cum += weights[f] / total
			if cum >= q {
				target = f
				break
			}
		}
		targets[i] = target
	}
	return targets
}
