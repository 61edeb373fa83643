package opt

// polish improves the stop order of every route with 2-opt.
func (e *engine) polish(s *plan) {
	if e.p.TwoOptPasses <= 0 {
		return
	}
	for v, r := range s.routes {
		if len(r) > 2 {
			s.routes[v] = e.improveOrder2Opt(r, e.p.TwoOptPasses)
		}
	}
}

// improveOrder2Opt reverses segments of the closed factory tour while that
// strictly shortens it, for at most passes sweeps.
func (e *engine) improveOrder2Opt(order []int, passes int) []int {
	best := append([]int(nil), order...)
	bestDist := e.routeDistance(best)
	n := len(best)
	for it := 0; it < passes; it++ {
		improved := false
		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				cand := twoOptSwap(best, i, k)
				if d := e.routeDistance(cand); d+eps < bestDist {
					best, bestDist = cand, d
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best
}

func twoOptSwap(ord []int, i, k int) []int {
	out := make([]int, len(ord))
	copy(out, ord[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = ord[j]
		pos++
	}
	copy(out[pos:], ord[k+1:])
	return out
}
