package planner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"smartroute/internal/config"
	"smartroute/internal/model"
	"smartroute/internal/store"
)

func seedSession(t *testing.T, s store.Store, sid string) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.SetFactory(ctx, sid, model.Factory{Name: "Plant", Lat: 31.45, Lng: 74.27}); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddVehicles(ctx, sid, []model.VehicleInput{
		{Name: "Coaster", Type: model.VehicleSelfOwned, Capacity: 30, CostPerKm: 12},
		{Name: "Hiace 1", Type: model.VehicleRented, Capacity: 14, CostPerKm: 9},
		{Name: "Hiace 2", Type: model.VehicleRented, Capacity: 14, CostPerKm: 9},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.AddPickupSpots(ctx, sid, []model.PickupSpotInput{
		{Name: "Model Town", Lat: 31.48, Lng: 74.32, WorkerCount: 9},
		{Name: "Johar Town", Lat: 31.47, Lng: 74.28, WorkerCount: 12},
		{Name: "Township", Lat: 31.45, Lng: 74.31, WorkerCount: 6},
		{Name: "Thokar", Lat: 31.43, Lng: 74.24, WorkerCount: 4},
		{Name: "Giant", Lat: 31.50, Lng: 74.30, WorkerCount: 40},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRunStoresResultAndMetrics(t *testing.T) {
	st := store.NewMemory()
	seedSession(t, st, "s1")
	p := New(st, config.Default().Optimizer)

	var mu sync.Mutex
	events := map[string]int{}
	notify := func(typ string, _ map[string]any) {
		mu.Lock()
		events[typ]++
		mu.Unlock()
	}
	res, err := p.Run(context.Background(), "s1", model.OptimizeRequest{Seed: 7}, notify)
	if err != nil {
		t.Fatal(err)
	}
	if res.Seed != 7 || res.Iterations != 100 || res.VehiclesAvailable != 3 {
		t.Fatalf("result header = %+v", res)
	}
	if len(res.UnassignedSpots) != 1 || res.UnassignedSpots[0].Name != "Giant" || res.UnassignedSpots[0].Reason != "exceeds_fleet_capacity" {
		t.Fatalf("unassigned = %+v", res.UnassignedSpots)
	}
	workers := 0
	for i, r := range res.Routes {
		if r.RouteColor != routeColors[i] {
			t.Fatalf("route %d color %s", i, r.RouteColor)
		}
		if r.Load > r.MaxPassengers {
			t.Fatalf("route %s over capacity", r.VehicleName)
		}
		if r.DurationMinutes <= 0 {
			t.Fatalf("route %s has no duration", r.VehicleName)
		}
		workers += r.Load
	}
	if workers != 31 {
		t.Fatalf("assigned workers = %d, want 31", workers)
	}
	stored, err := st.GetResult(context.Background(), "s1")
	if err != nil || stored.RunID != res.RunID {
		t.Fatalf("stored result %+v %v", stored.RunID, err)
	}
	pm, _ := st.ListPlanMetrics(context.Background(), "s1", 0)
	if len(pm) != 1 || pm[0].RunID != res.RunID || pm[0].Iterations != 100 {
		t.Fatalf("plan metrics = %+v", pm)
	}
	if events[EventStarted] != 1 || events[EventCompleted] != 1 || events[EventProgress] != 10 {
		t.Fatalf("events = %v", events)
	}
}

func TestRunIncompleteConfig(t *testing.T) {
	st := store.NewMemory()
	p := New(st, config.Default().Optimizer)
	_, err := p.Run(context.Background(), "empty", model.OptimizeRequest{}, nil)
	if !errors.Is(err, ErrIncompleteConfig) {
		t.Fatalf("err = %v", err)
	}
}

func TestParamsOverlay(t *testing.T) {
	p := New(store.NewMemory(), config.Default().Optimizer)
	zero := 0.0
	passes := 0
	got := p.Params(model.OptimizeRequest{Iterations: 30, DestroyMin: 0.1, DestroyMax: 0.2, VehiclePenalty: &zero, TwoOptPasses: &passes, TimeBudgetMs: 250, Seed: 3})
	if got.Iterations != 30 || got.DestroyMin != 0.1 || got.DestroyMax != 0.2 || got.VehiclePenalty != 0 || got.TwoOptPasses != 0 || got.Seed != 3 {
		t.Fatalf("Params = %+v", got)
	}
	if got.TimeBudget.Milliseconds() != 250 || got.Distancer == nil {
		t.Fatalf("Params = %+v", got)
	}
	def := p.Params(model.OptimizeRequest{})
	if def.VehiclePenalty != 1000 || def.Iterations != 100 {
		t.Fatalf("defaults = %+v", def)
	}
}
