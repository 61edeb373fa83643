package opt

import "fmt"

// checkPartition verifies every location appears exactly once across the
// routes and the unassigned set.
func (e *engine) checkPartition(s *plan) error {
	seen := make([]int, len(e.locations))
	for _, r := range s.routes {
		for _, l := range r {
			seen[l]++
		}
	}
	for _, l := range s.unassigned {
		seen[l]++
	}
	for l, n := range seen {
		if n != 1 {
			return fmt.Errorf("location %s seen %d times: %w", e.locations[l].ID, n, errPartition)
		}
	}
	return nil
}

// validate checks capacity on every route and renders the reported Solution.
// Capacity violations degrade the result instead of failing it.
func (e *engine) validate(s *plan) (Solution, error) {
	if err := e.checkPartition(s); err != nil {
		return Solution{}, err
	}
	sol := Solution{
		Routes:     make([]Route, len(e.vehicles)),
		Unassigned: make([]Unassigned, 0, len(s.unassigned)),
	}
	for v, veh := range e.vehicles {
		r := Route{
			VehicleID:   veh.ID,
			VehicleName: veh.Name,
			Ownership:   veh.Ownership,
			Capacity:    veh.Capacity,
			Stops:       make([]Stop, 0, len(s.routes[v])),
		}
		for i, l := range s.routes[v] {
			loc := e.locations[l]
			r.Load += loc.Workers
			r.Stops = append(r.Stops, Stop{
				LocationID:     loc.ID,
				Name:           loc.Name,
				Location:       loc.Location,
				ArrivalOrder:   i + 1,
				Workers:        loc.Workers,
				CumulativeLoad: r.Load,
			})
		}
		if r.Used() {
			r.DistanceKm = e.routeDistance(s.routes[v])
			r.DistanceCost = r.DistanceKm * veh.CostPerKm
			r.FixedCost = e.p.VehiclePenalty
			r.UtilizationPercent = utilizationPercent(r.Load, r.Capacity)
			sol.VehiclesUsed++
			sol.TotalDistanceKm += r.DistanceKm
			sol.DistanceCost += r.DistanceCost
			sol.FixedCost += r.FixedCost
		}
		if r.Load > r.Capacity {
			viol := CapacityViolation{VehicleID: veh.ID, Load: r.Load, Capacity: r.Capacity}
			sol.Violations = append(sol.Violations, viol)
			sol.Degraded = true
			e.log.Error().Err(viol).Msg("route over capacity")
		}
		sol.Routes[v] = r
	}
	for _, l := range s.unassigned {
		loc := e.locations[l]
		u := Unassigned{LocationID: loc.ID, Name: loc.Name, Workers: loc.Workers, Reason: ReasonNoRemainingCapacity}
		if e.infeasible[l] {
			u.Reason = ReasonExceedsFleetCapacity
		}
		sol.Unassigned = append(sol.Unassigned, u)
	}
	sol.TotalCost = sol.DistanceCost + sol.FixedCost
	e.transition(StateValidated)
	sol.State = e.state
	return sol, nil
}
