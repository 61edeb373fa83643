package opt

import "sort"

// consolidate empties whole vehicles by moving all of their stops into
// other used vehicles. A vehicle is emptied only if every stop fits;
// otherwise nothing changes. Passes repeat until one eliminates nothing.
// It returns the number of vehicles eliminated.
func (e *engine) consolidate(s *plan) int {
	eliminated := 0
	for {
		changed := false
		for _, v := range e.consolidationOrder(s) {
			if len(s.routes[v]) > 0 && e.relocateRoute(s, v) {
				eliminated++
				changed = true
			}
		}
		if !changed {
			return eliminated
		}
	}
}

// consolidationOrder lists used vehicles by load ascending, then the more
// expensive vehicle first, then id.
func (e *engine) consolidationOrder(s *plan) []int {
	var order []int
	for v, r := range s.routes {
		if len(r) > 0 {
			order = append(order, v)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if s.loads[a] != s.loads[b] {
			return s.loads[a] < s.loads[b]
		}
		if e.vehicles[a].CostPerKm != e.vehicles[b].CostPerKm {
			return e.vehicles[a].CostPerKm > e.vehicles[b].CostPerKm
		}
		return e.vehicles[a].ID < e.vehicles[b].ID
	})
	return order
}

// relocateRoute tries to move every stop of vehicle v elsewhere on a copy
// and commits the copy only if all of them moved.
func (e *engine) relocateRoute(s *plan, v int) bool {
	stops := append([]int(nil), s.routes[v]...)
	trial := s.clone()
	trial.routes[v] = nil
	trial.loads[v] = 0
	e.demandOrder(stops)
	for _, l := range stops {
		ins, ok := e.bestInsertion(trial, l, v, true)
		if !ok {
			return false
		}
		trial.insert(ins.vehicle, ins.pos, l, e.workers[l])
	}
	e.log.Debug().Str("vehicle", e.vehicles[v].ID).Int("stops", len(stops)).Msg("vehicle consolidated")
	*s = *trial
	return true
}
