package parking

import (
	"sort"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/classify"
)

// lastStop leaves idle cars where they are.
type lastStop struct{ cfg Config }

func (s *lastStop) Name() string { return StrategyLastStop }

func (s *lastStop) Plan(ctx PlanContext, k int) []int {
	if len(ctx.IdleFloors) == k {
		return append([]int(nil), ctx.IdleFloors...)
	}
	return uniform(s.cfg.LobbyFloor, k)
}

// lobby parks every idle car at the ground floor.
type lobby struct{ cfg Config }

func (s *lobby) Name() string { return StrategyLobby }

func (s *lobby) Plan(ctx PlanContext, k int) []int {
	return uniform(s.cfg.LobbyFloor, k)
}

// zoneProportions are the per-state Lobby/Mid/Upper allocation templates
// used when no recent floor history is available. Values sum to 1.
var zoneProportions = map[classify.State][3]float64{
	classify.StateMorningUpPeak:   {0.7, 0.25, 0.05},
	classify.StateLunchDownPeak:   {0.2, 0.6, 0.2},
	classify.StateEveningDownPeak: {0.05, 0.25, 0.7},
	classify.StateAfternoonMixed:  {0.33, 0.34, 0.33},
	classify.StateNightIdle:       {0.6, 0.2, 0.2},
	classify.StateWeekendLow:      {0.5, 0.3, 0.2},
	classify.StateUpPeak:          {0.7, 0.25, 0.05},
	classify.StateDownPeak:        {0.05, 0.25, 0.7},
	classify.StateIdleLow:         {0.6, 0.2, 0.2},
	classify.StateMixed:           {0.33, 0.34, 0.33},
}

// zone distributes cars across Lobby/Mid/Upper proportionally to recent
// demand per zone and parks each group at its zone's median recent floor.
type zone struct{ cfg Config }

func (s *zone) Name() string { return StrategyZone }

func (s *zone) Plan(ctx PlanContext, k int) []int {
	if len(ctx.RecentFloors) == 0 {
		return s.templatePlan(ctx, k)
	}

	var lob, mid, upp []int
	for _, f := range ctx.RecentFloors {
		switch {
		case f <= s.cfg.LobbyMax:
			lob = append(lob, f)
		case f <= s.cfg.MidMax:
			mid = append(mid, f)
		default:
			upp = append(upp, f)
		}
	}
	total := float64(len(ctx.RecentFloors))
	alloc := apportion([]float64{
		float64(len(lob)) / total,
		float64(len(mid)) / total,
		float64(len(upp)) / total,
	}, k)

	// The lobby group always parks at the ground floor; the other groups
	// park at their zone's median recent floor, falling back to the zone
	// midpoint when the zone saw no calls.
	pMid := s.zoneFloor(mid, s.cfg.LobbyMax+1, s.cfg.MidMax)
	pUpp := s.zoneFloor(upp, s.cfg.MidMax+1, s.cfg.MaxFloor)
	return flatten(alloc, []int{s.cfg.LobbyFloor, pMid, pUpp})
}

// templatePlan allocates by the state template, nudged by the forecast:
// very low predicted demand biases cars toward the lobby, very high demand
// concentrates a bit more on the template's primary zone.
func (s *zone) templatePlan(ctx PlanContext, k int) []int {
	tpl, ok := zoneProportions[ctx.State]
	if !ok {
		tpl = zoneProportions[classify.StateAfternoonMixed]
	}
	props := []float64{tpl[0], tpl[1], tpl[2]}

	if ctx.Forecast <= 1 {
		props[0] += 0.4
		props[1] *= 0.4
		props[2] *= 0.4
	} else if ctx.Forecast >= 10 {
		primary := 0
		for i := 1; i < 3; i++ {
			if props[i] > props[primary] {
				primary = i
			}
		}
		bump := 0.10 * props[primary]
		for i := range props {
			if i == primary {
				props[i] += bump
			} else {
				props[i] -= 0.05 * props[primary]
			}
		}
	}
	var sum float64
	for _, p := range props {
		sum += p
	}
	for i := range props {
		props[i] /= sum
	}

	alloc := apportion(props, k)
	pMid := (s.cfg.LobbyMax + 1 + s.cfg.MidMax) / 2
	pUpp := (s.cfg.MidMax + 1 + s.cfg.MaxFloor) / 2
	return flatten(alloc, []int{s.cfg.LobbyFloor, pMid, pUpp})
}

func (s *zone) zoneFloor(floors []int, lo, hi int) int {
	if len(floors) == 0 {
		return (lo + hi) / 2
	}
	sorted := append([]int(nil), floors...)
	sort.Ints(sorted)
	return medianFloor(sorted)
}

// dynamic is the quantile k-median surrogate: parking floors sit at the
// centered quantiles of the recent empirical floor distribution.
type dynamic struct{ cfg Config }

func (s *dynamic) Name() string { return StrategyDynamic }

func (s *dynamic) Plan(ctx PlanContext, k int) []int {
	if len(ctx.RecentFloors) == 0 {
		z := &zone{cfg: s.cfg}
		return z.Plan(ctx, k)
	}
	return quantileTargets(ctx.RecentFloors, k)
}

// conditionedDynamic conditions the quantile selection on floor demand
// learned per traffic state from training data. Fallback precedence when
// the current state has no learned signal: the recent-window dynamic
// policy, then zone.
type conditionedDynamic struct {
	name string
	cfg  Config
}

func (s *conditionedDynamic) Name() string { return s.name }

func (s *conditionedDynamic) Plan(ctx PlanContext, k int) []int {
	if weights, ok := ctx.FloorDemand[ctx.State]; ok {
		if targets := weightedQuantileTargets(weights, k); targets != nil {
			return targets
		}
	}
	d := &dynamic{cfg: s.cfg}
	return d.Plan(ctx, k)
}

func uniform(floor, k int) []int {
	out := make([]int, k)
	for i := range out {
		out[i] = floor
	}
	return out
}

// flatten expands per-zone allocations into a flat target list, zone by
// zone, preserving the Lobby/Mid/Upper order.
func flatten(alloc []int, floors []int) []int {
	var out []int
	for i, n := range alloc {
		for j := 0; j < n; j++ {
			out = append(out, floors[i])
		}
	}
	return out
}
