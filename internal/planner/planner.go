package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"smartroute/internal/config"
	"smartroute/internal/metrics"
	"smartroute/internal/model"
	"smartroute/internal/opt"
	"smartroute/internal/store"
)

// Event types published while a run progresses.
const (
	EventStarted   = "optimization.started"
	EventProgress  = "optimization.progress"
	EventCompleted = "optimization.completed"
	EventFailed    = "optimization.failed"
)

// ErrIncompleteConfig means the session lacks a factory, vehicles or pickup spots.
var ErrIncompleteConfig = errors.New("configuration incomplete")

// AverageSpeedKph converts route distance into an estimated duration.
const AverageSpeedKph = 40.0

var routeColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A", "#98D8C8",
	"#F7DC6F", "#BB8FCE", "#85C1E9", "#F8C471", "#82E0AA",
}

// Notify receives run events; it must not block.
type Notify func(eventType string, data map[string]any)

type Planner struct {
	store         store.Store
	defaults      opt.Params
	progressEvery int
	distances     *opt.DistanceCache
}

func New(s store.Store, cfg config.Optimizer) *Planner {
	every := cfg.ProgressEvery
	if every <= 0 {
		every = 10
	}
	return &Planner{
		store:         s,
		defaults:      cfg.Params(),
		progressEvery: every,
		distances:     opt.NewDistanceCache(opt.Haversine{}),
	}
}

// Defaults are the parameters used when a request sets nothing.
func (p *Planner) Defaults() opt.Params { return p.defaults }

// Params overlays the request on the configured defaults.
func (p *Planner) Params(req model.OptimizeRequest) opt.Params {
	params := p.defaults
	if req.Iterations > 0 {
		params.Iterations = req.Iterations
	}
	if req.DestroyMin > 0 || req.DestroyMax > 0 {
		params.DestroyMin, params.DestroyMax = req.DestroyMin, req.DestroyMax
	}
	if req.VehiclePenalty != nil {
		params.VehiclePenalty = *req.VehiclePenalty
	}
	if req.TwoOptPasses != nil {
		params.TwoOptPasses = *req.TwoOptPasses
	}
	if req.TimeBudgetMs > 0 {
		params.TimeBudget = time.Duration(req.TimeBudgetMs) * time.Millisecond
	}
	params.Seed = req.Seed
	params.Distancer = p.distances
	return params
}

// Run optimizes the session's configuration, stores the result and its
// search metrics, and reports progress through notify.
func (p *Planner) Run(ctx context.Context, sessionID string, req model.OptimizeRequest, notify Notify) (model.OptimizationResult, error) {
	if notify == nil {
		notify = func(string, map[string]any) {}
	}
	cfg, err := p.store.GetConfig(ctx, sessionID)
	if err != nil {
		return model.OptimizationResult{}, fmt.Errorf("plan %s: load config: %w", sessionID, err)
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		return model.OptimizationResult{}, fmt.Errorf("plan %s: missing %s: %w", sessionID, strings.Join(missing, ", "), ErrIncompleteConfig)
	}

	runID := uuid.New().String()
	logger := log.With().Str("session", sessionID).Str("run", runID).Logger()
	params := p.Params(req)
	params.Logger = &logger
	params.OnIteration = func(ev opt.IterationEvent) {
		if ev.Iteration%p.progressEvery == 0 {
			notify(EventProgress, map[string]any{
				"runId":         runID,
				"iteration":     ev.Iteration,
				"iterations":    params.Iterations,
				"bestObjective": ev.BestObjective,
				"operator":      ev.Operator,
			})
		}
	}
	notify(EventStarted, map[string]any{"runId": runID, "vehicles": len(cfg.Vehicles), "pickupSpots": len(cfg.PickupSpots)})

	start := time.Now()
	sol, err := opt.Optimize(ctx, ProblemFromConfig(cfg), params)
	metrics.OptimizeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OptimizeRuns.WithLabelValues("error").Inc()
		notify(EventFailed, map[string]any{"runId": runID, "error": err.Error()})
		return model.OptimizationResult{}, fmt.Errorf("plan %s: %w", sessionID, err)
	}
	recordMetrics(sol)

	res := BuildResult(runID, cfg, sol)
	if err := p.store.SaveResult(ctx, res); err != nil {
		return res, fmt.Errorf("plan %s: save result: %w", sessionID, err)
	}
	if err := p.store.SavePlanMetrics(ctx, PlanMetrics(runID, sessionID, sol.Metrics)); err != nil {
		logger.Warn().Err(err).Msg("save plan metrics failed")
	}
	notify(EventCompleted, map[string]any{
		"runId":        runID,
		"totalCost":    res.TotalCost,
		"vehiclesUsed": res.TotalVehiclesUsed,
		"unassigned":   len(res.UnassignedSpots),
		"degraded":     res.Degraded,
	})
	return res, nil
}

func recordMetrics(sol opt.Solution) {
	outcome := "ok"
	switch {
	case sol.Degraded:
		outcome = "degraded"
	case sol.Metrics.StoppedEarly:
		outcome = "stopped_early"
	}
	metrics.OptimizeRuns.WithLabelValues(outcome).Inc()
	metrics.OptimizeVehiclesUsed.Observe(float64(sol.VehiclesUsed))
	metrics.ConsolidatedVehicles.Add(float64(sol.Metrics.ConsolidatedVehicles))
	for _, u := range sol.Unassigned {
		metrics.OptimizeUnassigned.WithLabelValues(string(u.Reason)).Inc()
	}
}

// ProblemFromConfig maps a session configuration onto the optimizer input.
func ProblemFromConfig(cfg model.SessionConfig) opt.Problem {
	var prob opt.Problem
	if cfg.Factory != nil {
		prob.Factory = opt.Factory{Name: cfg.Factory.Name, Location: opt.Coordinate{Lat: cfg.Factory.Lat, Lng: cfg.Factory.Lng}}
	}
	for _, v := range cfg.Vehicles {
		own := opt.OwnershipSelfOwned
		if v.Type == model.VehicleRented {
			own = opt.OwnershipRented
		}
		prob.Vehicles = append(prob.Vehicles, opt.Vehicle{ID: v.ID, Name: v.Name, Capacity: v.Capacity, CostPerKm: v.CostPerKm, Ownership: own})
	}
	for _, s := range cfg.PickupSpots {
		prob.Locations = append(prob.Locations, opt.PickupLocation{
			ID:       s.ID,
			Name:     s.Name,
			Location: opt.Coordinate{Lat: s.Lat, Lng: s.Lng},
			Workers:  s.WorkerCount,
		})
	}
	return prob
}

// BuildResult renders a solution for the API. Only used vehicles are listed.
func BuildResult(runID string, cfg model.SessionConfig, sol opt.Solution) model.OptimizationResult {
	res := model.OptimizationResult{
		RunID:             runID,
		SessionID:         cfg.SessionID,
		Routes:            []model.RouteResult{},
		UnassignedSpots:   []model.UnassignedSpot{},
		TotalDistanceKm:   sol.TotalDistanceKm,
		DistanceCost:      sol.DistanceCost,
		TotalCost:         sol.TotalCost,
		TotalVehiclesUsed: sol.VehiclesUsed,
		VehiclesAvailable: len(cfg.Vehicles),
		Degraded:          sol.Degraded,
		Seed:              sol.Metrics.Seed,
		Iterations:        sol.Metrics.Iterations,
		ComputeMs:         sol.Metrics.Elapsed.Milliseconds(),
		CreatedAt:         time.Now().UTC(),
	}
	if cfg.Factory != nil {
		res.Factory = *cfg.Factory
	}
	for i, r := range sol.UsedRoutes() {
		rr := model.RouteResult{
			VehicleID:          r.VehicleID,
			VehicleName:        r.VehicleName,
			VehicleType:        string(r.Ownership),
			Stops:              make([]model.RouteStop, 0, len(r.Stops)),
			DistanceKm:         r.DistanceKm,
			DistanceCost:       r.DistanceCost,
			FixedCost:          r.FixedCost,
			Load:               r.Load,
			MaxPassengers:      r.Capacity,
			UtilizationPercent: r.UtilizationPercent,
			DurationMinutes:    r.DistanceKm / AverageSpeedKph * 60,
			RouteColor:         routeColors[i%len(routeColors)],
		}
		for _, s := range r.Stops {
			rr.Stops = append(rr.Stops, model.RouteStop{
				SpotID:         s.LocationID,
				Name:           s.Name,
				Lat:            s.Location.Lat,
				Lng:            s.Location.Lng,
				WorkerCount:    s.Workers,
				ArrivalOrder:   s.ArrivalOrder,
				CumulativeLoad: s.CumulativeLoad,
			})
		}
		res.Routes = append(res.Routes, rr)
	}
	for _, u := range sol.Unassigned {
		res.UnassignedSpots = append(res.UnassignedSpots, model.UnassignedSpot{SpotID: u.LocationID, Name: u.Name, WorkerCount: u.Workers, Reason: string(u.Reason)})
	}
	for _, v := range sol.Violations {
		res.Violations = append(res.Violations, v.Error())
	}
	return res
}

func PlanMetrics(runID, sessionID string, m opt.Metrics) model.PlanMetrics {
	return model.PlanMetrics{
		RunID:                runID,
		SessionID:            sessionID,
		Seed:                 m.Seed,
		Iterations:           m.Iterations,
		Improvements:         m.Improvements,
		AcceptedWorse:        m.AcceptedWorse,
		Rejected:             m.Rejected,
		RemovalSelects:       m.RemovalSelects,
		InitialCost:          m.InitialCost,
		SearchCost:           m.SearchCost,
		FinalCost:            m.FinalCost,
		InitialVehicles:      m.InitialVehicles,
		SearchVehicles:       m.SearchVehicles,
		FinalVehicles:        m.FinalVehicles,
		ConsolidatedVehicles: m.ConsolidatedVehicles,
		StoppedEarly:         m.StoppedEarly,
		ElapsedMs:            m.Elapsed.Milliseconds(),
		CreatedAt:            time.Now().UTC(),
	}
}
