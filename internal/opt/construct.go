package opt

// construct builds the initial solution by cheapest feasible insertion of
// every location in demand order.
func (e *engine) construct() *plan {
	s := newPlan(len(e.vehicles))
	all := make([]int, len(e.locations))
	for i := range all {
		all[i] = i
	}
	e.demandOrder(all)
	for _, l := range all {
		e.place(s, l)
	}
	return s
}
