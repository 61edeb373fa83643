package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartroute/internal/model"
)

func TestMemoryConfigLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	cfg, err := m.GetConfig(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Step() != 1 || cfg.Complete() {
		t.Fatalf("empty session step=%d complete=%v", cfg.Step(), cfg.Complete())
	}
	if _, err := m.GetFactory(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetFactory on empty session: %v", err)
	}
	if _, err := m.SetFactory(ctx, "s1", model.Factory{Name: "Plant", Lat: 31.5, Lng: 74.3}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddVehicles(ctx, "s1", []model.VehicleInput{{Name: "Van", Type: model.VehicleSelfOwned, Capacity: 12, CostPerKm: 8}}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddPickupSpots(ctx, "s1", []model.PickupSpotInput{{Name: "Gate", Lat: 31.51, Lng: 74.31, WorkerCount: 5}}); err != nil {
		t.Fatal(err)
	}
	cfg, _ = m.GetConfig(ctx, "s1")
	if !cfg.Complete() || cfg.Step() != 4 {
		t.Fatalf("config step=%d missing=%v", cfg.Step(), cfg.Missing())
	}
	if other, _ := m.GetConfig(ctx, "s2"); len(other.Vehicles) != 0 {
		t.Fatal("sessions share state")
	}
	if err := m.ClearConfig(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if cfg, _ = m.GetConfig(ctx, "s1"); cfg.Factory != nil || len(cfg.Vehicles) != 0 {
		t.Fatal("clear left data behind")
	}
}

func TestMemoryNameConflicts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	vs, err := m.AddVehicles(ctx, "s", []model.VehicleInput{{Name: "A", Capacity: 5, CostPerKm: 1}, {Name: "B", Capacity: 5, CostPerKm: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddVehicles(ctx, "s", []model.VehicleInput{{Name: "A", Capacity: 5, CostPerKm: 1}}); !errors.Is(err, ErrConflict) {
		t.Fatalf("existing name: %v", err)
	}
	if _, err := m.AddVehicles(ctx, "s", []model.VehicleInput{{Name: "C"}, {Name: "C"}}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate within batch: %v", err)
	}
	if list, _ := m.ListVehicles(ctx, "s"); len(list) != 2 {
		t.Fatalf("failed batch was partially applied: %d vehicles", len(list))
	}
	if _, err := m.UpdateVehicle(ctx, "s", vs[0].ID, model.VehicleInput{Name: "B", Capacity: 5, CostPerKm: 1}); !errors.Is(err, ErrConflict) {
		t.Fatalf("rename onto existing name: %v", err)
	}
	if v, err := m.UpdateVehicle(ctx, "s", vs[0].ID, model.VehicleInput{Name: "A2", Capacity: 9, CostPerKm: 2}); err != nil || v.Capacity != 9 {
		t.Fatalf("update: %+v %v", v, err)
	}
	if _, err := m.UpdateVehicle(ctx, "s", "missing", model.VehicleInput{Name: "Z"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing: %v", err)
	}
	if err := m.DeleteVehicle(ctx, "s", vs[1].ID); err != nil {
		t.Fatal(err)
	}
	if err := m.DeleteVehicle(ctx, "s", vs[1].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: %v", err)
	}

	spots, err := m.AddPickupSpots(ctx, "s", []model.PickupSpotInput{{Name: "P", WorkerCount: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddPickupSpots(ctx, "s", []model.PickupSpotInput{{Name: "P", WorkerCount: 3}}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate spot: %v", err)
	}
	if err := m.DeletePickupSpot(ctx, "s", spots[0].ID); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryResultsAndPlanMetrics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if _, err := m.GetResult(ctx, "s"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetResult: %v", err)
	}
	if err := m.SaveResult(ctx, model.OptimizationResult{RunID: "r1", SessionID: "s", TotalCost: 10}); err != nil {
		t.Fatal(err)
	}
	if res, err := m.GetResult(ctx, "s"); err != nil || res.RunID != "r1" {
		t.Fatalf("GetResult: %+v %v", res, err)
	}
	now := time.Now()
	for i, id := range []string{"r1", "r2", "r3"} {
		_ = m.SavePlanMetrics(ctx, model.PlanMetrics{RunID: id, SessionID: "s", CreatedAt: now.Add(time.Duration(i) * time.Second)})
	}
	got, err := m.ListPlanMetrics(ctx, "s", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].RunID != "r3" || got[1].RunID != "r2" {
		t.Fatalf("plan metrics = %+v", got)
	}
}
