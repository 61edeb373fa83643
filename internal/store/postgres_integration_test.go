//go:build postgres_integration

package store

import (
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"smartroute/internal/model"
)

func TestPostgresSessionRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer p.Close()
	ctx := t.Context()
	if err := p.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	sid := "it_" + uuid.New().String()
	defer func() { _ = p.ClearConfig(ctx, sid) }()

	if _, err := p.SetFactory(ctx, sid, model.Factory{Name: "Plant", Lat: 31.5, Lng: 74.3}); err != nil {
		t.Fatalf("SetFactory: %v", err)
	}
	if _, err := p.AddVehicles(ctx, sid, []model.VehicleInput{{Name: "Bus 1", Type: model.VehicleRented, Capacity: 30, CostPerKm: 12}}); err != nil {
		t.Fatalf("AddVehicles: %v", err)
	}
	if _, err := p.AddVehicles(ctx, sid, []model.VehicleInput{{Name: "Bus 1", Type: model.VehicleRented, Capacity: 10, CostPerKm: 5}}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate vehicle: err = %v", err)
	}
	if _, err := p.AddPickupSpots(ctx, sid, []model.PickupSpotInput{{Name: "Gate", Lat: 31.52, Lng: 74.31, WorkerCount: 8}}); err != nil {
		t.Fatalf("AddPickupSpots: %v", err)
	}
	cfg, err := p.GetConfig(ctx, sid)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if !cfg.Complete() {
		t.Fatalf("config incomplete: %v", cfg.Missing())
	}
	if _, err := p.GetResult(ctx, sid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetResult before save: %v", err)
	}
}
