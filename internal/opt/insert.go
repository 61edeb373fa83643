package opt

import (
	"math"
	"sort"
)

const eps = 1e-9

type insertion struct {
	vehicle  int
	pos      int
	marginal float64
}

// cheapestPosition returns where loc adds the least distance to route.
func (e *engine) cheapestPosition(route []int, loc int) (int, float64) {
	node := loc + 1
	bestPos, bestDelta := 0, math.Inf(1)
	prev := 0
	for pos := 0; pos <= len(route); pos++ {
		next := 0
		if pos < len(route) {
			next = route[pos] + 1
		}
		d := e.dist.at(prev, node) + e.dist.at(node, next) - e.dist.at(prev, next)
		if d < bestDelta-eps {
			bestPos, bestDelta = pos, d
		}
		prev = next
	}
	return bestPos, bestDelta
}

// bestInsertion picks the feasible vehicle with the lowest marginal cost for
// loc. Opening an unused vehicle adds the vehicle penalty. skip excludes one
// vehicle; usedOnly restricts the choice to vehicles that already have stops.
func (e *engine) bestInsertion(s *plan, loc, skip int, usedOnly bool) (insertion, bool) {
	best := insertion{vehicle: -1}
	w := e.workers[loc]
	for v := range e.vehicles {
		if v == skip || (usedOnly && len(s.routes[v]) == 0) {
			continue
		}
		if s.loads[v]+w > e.vehicles[v].Capacity {
			continue
		}
		pos, delta := e.cheapestPosition(s.routes[v], loc)
		m := delta * e.vehicles[v].CostPerKm
		if len(s.routes[v]) == 0 {
			m += e.p.VehiclePenalty
		}
		if best.vehicle < 0 || e.cheaper(m, v, best) {
			best = insertion{vehicle: v, pos: pos, marginal: m}
		}
	}
	return best, best.vehicle >= 0
}

// cheaper breaks marginal-cost ties by lower cost per km, then vehicle id.
func (e *engine) cheaper(m float64, v int, cur insertion) bool {
	if m < cur.marginal-eps {
		return true
	}
	if m > cur.marginal+eps {
		return false
	}
	a, b := e.vehicles[v], e.vehicles[cur.vehicle]
	if a.CostPerKm != b.CostPerKm {
		return a.CostPerKm < b.CostPerKm
	}
	return a.ID < b.ID
}

// place inserts loc at its best feasible position or records it unassigned.
func (e *engine) place(s *plan, loc int) bool {
	if e.infeasible[loc] {
		s.addUnassigned(loc)
		return false
	}
	ins, ok := e.bestInsertion(s, loc, -1, false)
	if !ok {
		s.addUnassigned(loc)
		return false
	}
	s.insert(ins.vehicle, ins.pos, loc, e.workers[loc])
	return true
}

// demandOrder sorts by worker count descending, then distance from the
// factory ascending, then location id.
func (e *engine) demandOrder(locs []int) {
	sort.SliceStable(locs, func(i, j int) bool {
		a, b := locs[i], locs[j]
		if e.workers[a] != e.workers[b] {
			return e.workers[a] > e.workers[b]
		}
		da, db := e.dist.at(0, a+1), e.dist.at(0, b+1)
		if da != db {
			return da < db
		}
		return e.locations[a].ID < e.locations[b].ID
	})
}
