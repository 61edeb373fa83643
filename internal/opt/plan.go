package opt

import "slices"

// plan is the working solution: location indices per vehicle plus the
// unassigned set, kept sorted.
type plan struct {
	routes     [][]int
	loads      []int
	unassigned []int
}

func newPlan(vehicles int) *plan {
	return &plan{routes: make([][]int, vehicles), loads: make([]int, vehicles)}
}

func (s *plan) clone() *plan {
	out := &plan{
		routes:     make([][]int, len(s.routes)),
		loads:      slices.Clone(s.loads),
		unassigned: slices.Clone(s.unassigned),
	}
	for v, r := range s.routes {
		out.routes[v] = slices.Clone(r)
	}
	return out
}

func (s *plan) used() int {
	n := 0
	for _, r := range s.routes {
		if len(r) > 0 {
			n++
		}
	}
	return n
}

func (s *plan) insert(v, pos, loc, workers int) {
	s.routes[v] = slices.Insert(s.routes[v], pos, loc)
	s.loads[v] += workers
}

func (s *plan) addUnassigned(loc int) {
	i, found := slices.BinarySearch(s.unassigned, loc)
	if !found {
		s.unassigned = slices.Insert(s.unassigned, i, loc)
	}
}

// takeUnassigned removes and returns the unassigned locations accepted by keep.
func (s *plan) takeUnassigned(keep func(loc int) bool) []int {
	var taken []int
	rest := s.unassigned[:0:0]
	for _, l := range s.unassigned {
		if keep(l) {
			taken = append(taken, l)
		} else {
			rest = append(rest, l)
		}
	}
	s.unassigned = rest
	return taken
}
