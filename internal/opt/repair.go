package opt

// repair reinserts the removal pool together with any unassigned location
// that fits some vehicle, largest demand first.
func (e *engine) repair(s *plan, pool []int) {
	pool = append(pool, s.takeUnassigned(func(l int) bool { return !e.infeasible[l] })...)
	e.demandOrder(pool)
	for _, l := range pool {
		e.place(s, l)
	}
}
