package store

import (
	"context"
	"errors"

	"smartroute/internal/model"
)

// Store is the persistence interface used by the API server. All data is
// scoped by session id.
type Store interface {
	// Configuration
	GetConfig(ctx context.Context, sessionID string) (model.SessionConfig, error)
	ClearConfig(ctx context.Context, sessionID string) error

	// Factory
	SetFactory(ctx context.Context, sessionID string, f model.Factory) (model.Factory, error)
	GetFactory(ctx context.Context, sessionID string) (model.Factory, error)
	DeleteFactory(ctx context.Context, sessionID string) error

	// Vehicles
	AddVehicles(ctx context.Context, sessionID string, in []model.VehicleInput) ([]model.Vehicle, error)
	ListVehicles(ctx context.Context, sessionID string) ([]model.Vehicle, error)
	UpdateVehicle(ctx context.Context, sessionID, id string, in model.VehicleInput) (model.Vehicle, error)
	DeleteVehicle(ctx context.Context, sessionID, id string) error

	// Pickup spots
	AddPickupSpots(ctx context.Context, sessionID string, in []model.PickupSpotInput) ([]model.PickupSpot, error)
	ListPickupSpots(ctx context.Context, sessionID string) ([]model.PickupSpot, error)
	UpdatePickupSpot(ctx context.Context, sessionID, id string, in model.PickupSpotInput) (model.PickupSpot, error)
	DeletePickupSpot(ctx context.Context, sessionID, id string) error

	// Results & metrics
	SaveResult(ctx context.Context, res model.OptimizationResult) error
	GetResult(ctx context.Context, sessionID string) (model.OptimizationResult, error)
	SavePlanMetrics(ctx context.Context, m model.PlanMetrics) error
	ListPlanMetrics(ctx context.Context, sessionID string, limit int) ([]model.PlanMetrics, error)
}

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a name already used in the session.
	ErrConflict = errors.New("already exists")
)

// duplicateName returns the first name repeated within names or already in taken.
func duplicateName(taken map[string]bool, names []string) (string, bool) {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if taken[n] || seen[n] {
			return n, true
		}
		seen[n] = true
	}
	return "", false
}
