package opt

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Optimize assigns the problem's pickup locations to vehicles and orders
// each route. The result is a pure function of the problem and params.Seed
// unless the context or the time budget ends the search early, in which
// case the best solution found so far is consolidated and returned.
func Optimize(ctx context.Context, prob Problem, params Params) (Solution, error) {
	start := time.Now()
	if err := prob.Validate(); err != nil {
		return Solution{}, fmt.Errorf("optimize: %w", err)
	}
	p, err := params.normalize()
	if err != nil {
		return Solution{}, fmt.Errorf("optimize: %w", err)
	}
	e, err := newEngine(prob, p)
	if err != nil {
		return Solution{}, fmt.Errorf("optimize: distances: %w", err)
	}
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	best, m := e.search(ctx, rng)
	m.Seed = seed

	e.transition(StateConsolidating)
	m.ConsolidatedVehicles = e.consolidate(best)
	e.polish(best)

	sol, err := e.validate(best)
	if err != nil {
		return Solution{}, fmt.Errorf("optimize: %w", err)
	}
	m.FinalCost = sol.TotalCost
	m.FinalVehicles = sol.VehiclesUsed
	m.Elapsed = time.Since(start)
	sol.Metrics = m
	e.log.Info().Int64("seed", seed).Int("vehicles", sol.VehiclesUsed).Int("unassigned", len(sol.Unassigned)).
		Float64("totalCost", sol.TotalCost).Dur("elapsed", m.Elapsed).Msg("optimization complete")
	return sol, nil
}
