package classify

import "github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"

// FloorDemand aggregates call counts per origin floor under each traffic
// state. The counts feed the conditioned parking strategies as weights;
// states with no calls are absent from the result.
func FloorDemand(slots []series.TimeSlot, states []State) map[State]map[int]float64 {
	out := make(map[State]map[int]float64)
	for i, slot := range slots {
		if i >= len(states) || len(slot.Floors) == 0 {
			continue
		}
		byFloor, ok := out[states[i]]
		if !ok {
			byFloor = make(map[int]float64)
			out[states[i]] = byFloor
		}
		for _, f := range slot.Floors {
			byFloor[f]++
		}
	}
	return out
}
