package opt

import (
	"math"
	"math/rand"
	"sort"
)

type removalOp int

const (
	removeRandom removalOp = iota
	removeWorst
)

func (op removalOp) String() string {
	if op == removeWorst {
		return "worst"
	}
	return "random"
}

// removalCount draws q from [lo, hi] and returns round(q*assigned),
// at least one when anything is assigned.
func removalCount(assigned int, lo, hi float64, rng *rand.Rand) int {
	if assigned == 0 {
		return 0
	}
	q := lo + rng.Float64()*(hi-lo)
	k := int(math.Round(q * float64(assigned)))
	if k < 1 {
		k = 1
	}
	if k > assigned {
		k = assigned
	}
	return k
}

// assignedLocations lists assigned locations by vehicle then position.
func assignedLocations(s *plan) []int {
	var out []int
	for _, r := range s.routes {
		out = append(out, r...)
	}
	return out
}

func (e *engine) destroy(op removalOp, s *plan, rng *rand.Rand) []int {
	if op == removeWorst {
		return e.worstRemoval(s, rng)
	}
	return e.randomRemoval(s, rng)
}

// randomRemoval extracts a uniform random subset of the assigned locations.
func (e *engine) randomRemoval(s *plan, rng *rand.Rand) []int {
	cands := assignedLocations(s)
	k := removalCount(len(cands), e.p.DestroyMin, e.p.DestroyMax, rng)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(cands)-i)
		cands[i], cands[j] = cands[j], cands[i]
	}
	removed := cands[:k:k]
	e.extract(s, removed)
	return removed
}

// worstRemoval extracts the k locations whose removal saves the most cost.
// A location alone on its route also saves the vehicle penalty.
func (e *engine) worstRemoval(s *plan, rng *rand.Rand) []int {
	type saving struct {
		loc   int
		value float64
	}
	var savings []saving
	for v, r := range s.routes {
		for pos, l := range r {
			prev, next := 0, 0
			if pos > 0 {
				prev = r[pos-1] + 1
			}
			if pos < len(r)-1 {
				next = r[pos+1] + 1
			}
			detour := e.dist.at(prev, l+1) + e.dist.at(l+1, next) - e.dist.at(prev, next)
			value := detour * e.vehicles[v].CostPerKm
			if len(r) == 1 {
				value += e.p.VehiclePenalty
			}
			savings = append(savings, saving{loc: l, value: value})
		}
	}
	k := removalCount(len(savings), e.p.DestroyMin, e.p.DestroyMax, rng)
	sort.SliceStable(savings, func(i, j int) bool {
		if math.Abs(savings[i].value-savings[j].value) > eps {
			return savings[i].value > savings[j].value
		}
		return e.locations[savings[i].loc].ID < e.locations[savings[j].loc].ID
	})
	removed := make([]int, k)
	for i := range removed {
		removed[i] = savings[i].loc
	}
	e.extract(s, removed)
	return removed
}

// extract takes locs out of their routes, closing the gaps.
func (e *engine) extract(s *plan, locs []int) {
	if len(locs) == 0 {
		return
	}
	gone := make(map[int]bool, len(locs))
	for _, l := range locs {
		gone[l] = true
	}
	for v, r := range s.routes {
		kept := r[:0]
		for _, l := range r {
			if gone[l] {
				s.loads[v] -= e.workers[l]
				continue
			}
			kept = append(kept, l)
		}
		s.routes[v] = kept
	}
}
