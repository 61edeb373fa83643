package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"smartroute/internal/model"
)

type memSession struct {
	factory  *model.Factory
	vehicles []model.Vehicle
	spots    []model.PickupSpot
	result   *model.OptimizationResult
}

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*memSession
	planMx   map[string][]model.PlanMetrics // session -> runs, newest last
}

func NewMemory() *Memory {
	return &Memory{sessions: map[string]*memSession{}, planMx: map[string][]model.PlanMetrics{}}
}

func (m *Memory) session(id string) *memSession {
	s := m.sessions[id]
	if s == nil {
		s = &memSession{}
		m.sessions[id] = s
	}
	return s
}

func (m *Memory) GetConfig(ctx context.Context, sessionID string) (model.SessionConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	cfg := model.SessionConfig{
		SessionID:   sessionID,
		Vehicles:    append([]model.Vehicle{}, s.vehicles...),
		PickupSpots: append([]model.PickupSpot{}, s.spots...),
	}
	if s.factory != nil {
		f := *s.factory
		cfg.Factory = &f
	}
	return cfg, nil
}

func (m *Memory) ClearConfig(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *Memory) SetFactory(ctx context.Context, sessionID string, f model.Factory) (model.Factory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.UpdatedAt = time.Now().UTC()
	m.session(sessionID).factory = &f
	return f, nil
}

func (m *Memory) GetFactory(ctx context.Context, sessionID string) (model.Factory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	if s.factory == nil {
		return model.Factory{}, ErrNotFound
	}
	return *s.factory, nil
}

func (m *Memory) DeleteFactory(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	if s.factory == nil {
		return ErrNotFound
	}
	s.factory = nil
	return nil
}

func (m *Memory) AddVehicles(ctx context.Context, sessionID string, in []model.VehicleInput) ([]model.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	taken := map[string]bool{}
	for _, v := range s.vehicles {
		taken[v.Name] = true
	}
	names := make([]string, len(in))
	for i, v := range in {
		names[i] = v.Name
	}
	if n, dup := duplicateName(taken, names); dup {
		return nil, fmt.Errorf("vehicle %q: %w", n, ErrConflict)
	}
	now := time.Now().UTC()
	out := make([]model.Vehicle, 0, len(in))
	for _, v := range in {
		veh := model.Vehicle{ID: uuid.New().String(), Name: v.Name, Type: v.Type, Capacity: v.Capacity, CostPerKm: v.CostPerKm, CreatedAt: now}
		s.vehicles = append(s.vehicles, veh)
		out = append(out, veh)
	}
	return out, nil
}

func (m *Memory) ListVehicles(ctx context.Context, sessionID string) ([]model.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Vehicle{}, m.session(sessionID).vehicles...), nil
}

func (m *Memory) UpdateVehicle(ctx context.Context, sessionID, id string, in model.VehicleInput) (model.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	idx := -1
	for i, v := range s.vehicles {
		if v.ID == id {
			idx = i
		} else if v.Name == in.Name {
			return model.Vehicle{}, fmt.Errorf("vehicle %q: %w", in.Name, ErrConflict)
		}
	}
	if idx < 0 {
		return model.Vehicle{}, ErrNotFound
	}
	v := &s.vehicles[idx]
	v.Name, v.Type, v.Capacity, v.CostPerKm = in.Name, in.Type, in.Capacity, in.CostPerKm
	return *v, nil
}

func (m *Memory) DeleteVehicle(ctx context.Context, sessionID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	for i, v := range s.vehicles {
		if v.ID == id {
			s.vehicles = append(s.vehicles[:i], s.vehicles[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) AddPickupSpots(ctx context.Context, sessionID string, in []model.PickupSpotInput) ([]model.PickupSpot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	taken := map[string]bool{}
	for _, p := range s.spots {
		taken[p.Name] = true
	}
	names := make([]string, len(in))
	for i, p := range in {
		names[i] = p.Name
	}
	if n, dup := duplicateName(taken, names); dup {
		return nil, fmt.Errorf("pickup spot %q: %w", n, ErrConflict)
	}
	now := time.Now().UTC()
	out := make([]model.PickupSpot, 0, len(in))
	for _, p := range in {
		spot := model.PickupSpot{ID: uuid.New().String(), Name: p.Name, Lat: p.Lat, Lng: p.Lng, WorkerCount: p.WorkerCount, CreatedAt: now}
		s.spots = append(s.spots, spot)
		out = append(out, spot)
	}
	return out, nil
}

func (m *Memory) ListPickupSpots(ctx context.Context, sessionID string) ([]model.PickupSpot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PickupSpot{}, m.session(sessionID).spots...), nil
}

func (m *Memory) UpdatePickupSpot(ctx context.Context, sessionID, id string, in model.PickupSpotInput) (model.PickupSpot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	idx := -1
	for i, p := range s.spots {
		if p.ID == id {
			idx = i
		} else if p.Name == in.Name {
			return model.PickupSpot{}, fmt.Errorf("pickup spot %q: %w", in.Name, ErrConflict)
		}
	}
	if idx < 0 {
		return model.PickupSpot{}, ErrNotFound
	}
	p := &s.spots[idx]
	p.Name, p.Lat, p.Lng, p.WorkerCount = in.Name, in.Lat, in.Lng, in.WorkerCount
	return *p, nil
}

func (m *Memory) DeletePickupSpot(ctx context.Context, sessionID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	for i, p := range s.spots {
		if p.ID == id {
			s.spots = append(s.spots[:i], s.spots[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) SaveResult(ctx context.Context, res model.OptimizationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(res.SessionID).result = &res
	return nil
}

func (m *Memory) GetResult(ctx context.Context, sessionID string) (model.OptimizationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	if s.result == nil {
		return model.OptimizationResult{}, ErrNotFound
	}
	return *s.result, nil
}

func (m *Memory) SavePlanMetrics(ctx context.Context, pm model.PlanMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planMx[pm.SessionID] = append(m.planMx[pm.SessionID], pm)
	return nil
}

// ListPlanMetrics returns the newest runs first.
func (m *Memory) ListPlanMetrics(ctx context.Context, sessionID string, limit int) ([]model.PlanMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := m.planMx[sessionID]
	out := make([]model.PlanMetrics, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, runs[i])
	}
	return out, nil
}
