package opt

// routeDistance is the closed tour length factory -> route... -> factory.
func (e *engine) routeDistance(route []int) float64 {
	if len(route) == 0 {
		return 0
	}
	total, prev := 0.0, 0
	for _, l := range route {
		total += e.dist.at(prev, l+1)
		prev = l + 1
	}
	return total + e.dist.at(prev, 0)
}

func (e *engine) routeCost(v int, route []int) float64 {
	if len(route) == 0 {
		return 0
	}
	return e.routeDistance(route)*e.vehicles[v].CostPerKm + e.p.VehiclePenalty
}

// cost is distance cost over used vehicles plus the fixed penalty per used vehicle.
func (e *engine) cost(s *plan) float64 {
	total := 0.0
	for v, r := range s.routes {
		total += e.routeCost(v, r)
	}
	return total
}

// objective is what the search minimizes: cost plus a penalty for every
// unassigned location that some vehicle could carry.
func (e *engine) objective(s *plan) float64 {
	obj := e.cost(s)
	for _, l := range s.unassigned {
		if !e.infeasible[l] {
			obj += e.p.UnassignedPenalty
		}
	}
	return obj
}

func utilizationPercent(load, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(load) / float64(capacity) * 100
}
