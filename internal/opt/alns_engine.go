package opt

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// engine holds the read-only inputs of one run.
type engine struct {
	vehicles   []Vehicle
	locations  []PickupLocation
	workers    []int
	infeasible []bool // demand exceeds every vehicle's capacity
	dist       matrix
	p          Params
	log        zerolog.Logger
	state      State
}

func newEngine(prob Problem, p Params) (*engine, error) {
	pts := make([]Coordinate, 0, len(prob.Locations)+1)
	pts = append(pts, prob.Factory.Location)
	for _, l := range prob.Locations {
		pts = append(pts, l.Location)
	}
	dist, err := buildMatrix(p.Distancer, pts)
	if err != nil {
		return nil, err
	}
	maxCap := 0
	for _, v := range prob.Vehicles {
		if v.Capacity > maxCap {
			maxCap = v.Capacity
		}
	}
	e := &engine{
		vehicles:   prob.Vehicles,
		locations:  prob.Locations,
		workers:    make([]int, len(prob.Locations)),
		infeasible: make([]bool, len(prob.Locations)),
		dist:       dist,
		p:          p,
		log:        zerolog.Nop(),
	}
	if p.Logger != nil {
		e.log = *p.Logger
	}
	for i, l := range prob.Locations {
		e.workers[i] = l.Workers
		e.infeasible[i] = l.Workers > maxCap
	}
	return e, nil
}

func (e *engine) transition(to State) {
	e.log.Debug().Str("from", string(e.state)).Str("to", string(to)).Msg("optimizer state")
	e.state = to
}

// acceptanceProbability decays geometrically from InitialAcceptProb at the
// first iteration to FinalAcceptProb at the last.
func acceptanceProbability(iter, total int, p Params) float64 {
	if p.InitialAcceptProb <= 0 {
		return 0
	}
	if total <= 1 {
		return p.FinalAcceptProb
	}
	ratio := p.FinalAcceptProb / p.InitialAcceptProb
	return p.InitialAcceptProb * math.Pow(ratio, float64(iter)/float64(total-1))
}

// search constructs an initial solution and improves it by destroy and
// repair. It returns the best solution seen. Cancellation and the time
// budget are honoured between iterations.
func (e *engine) search(ctx context.Context, rng *rand.Rand) (*plan, Metrics) {
	start := time.Now()
	e.transition(StateConstructing)
	curr := e.construct()
	best := curr
	bestObj := e.objective(best)
	m := Metrics{
		InitialCost:     e.cost(curr),
		InitialVehicles: curr.used(),
		BestTrace:       make([]float64, 0, e.p.Iterations+1),
	}
	m.BestTrace = append(m.BestTrace, bestObj)
	e.log.Debug().Float64("cost", m.InitialCost).Int("vehicles", m.InitialVehicles).Int("unassigned", len(curr.unassigned)).Msg("initial solution")

	var deadline time.Time
	if e.p.TimeBudget > 0 {
		deadline = start.Add(e.p.TimeBudget)
	}
	e.transition(StateSearching)
	for it := 0; it < e.p.Iterations; it++ {
		if ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
			m.StoppedEarly = true
			break
		}
		// accepted candidates are never mutated again, so curr and best may share one
		cand := curr.clone()
		op := removalOp(rng.Intn(2))
		m.RemovalSelects[op]++
		pool := e.destroy(op, cand, rng)
		e.repair(cand, pool)
		obj := e.objective(cand)

		accepted := obj <= bestObj+eps
		if !accepted && rng.Float64() < acceptanceProbability(it, e.p.Iterations, e.p) {
			accepted = true
			m.AcceptedWorse++
		}
		if accepted {
			curr = cand
			if obj < bestObj-eps {
				best, bestObj = cand, obj
				m.Improvements++
			}
		} else {
			m.Rejected++
		}
		m.Iterations++
		m.BestTrace = append(m.BestTrace, bestObj)
		if e.p.OnIteration != nil {
			e.p.OnIteration(IterationEvent{
				Iteration:     it + 1,
				Operator:      op.String(),
				Objective:     obj,
				BestObjective: bestObj,
				Accepted:      accepted,
			})
		}
	}
	m.SearchCost = e.cost(best)
	m.SearchVehicles = best.used()
	e.log.Debug().Int("iterations", m.Iterations).Int("improvements", m.Improvements).
		Float64("cost", m.SearchCost).Bool("stoppedEarly", m.StoppedEarly).Msg("search done")
	return best.clone(), m
}
