package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"smartroute/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS factories (
    session_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    lat DOUBLE PRECISION NOT NULL,
    lng DOUBLE PRECISION NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS vehicles (
    id UUID PRIMARY KEY,
    session_id TEXT NOT NULL,
    name TEXT NOT NULL,
    vehicle_type TEXT NOT NULL,
    capacity INT NOT NULL,
    cost_per_km DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (session_id, name)
);
CREATE TABLE IF NOT EXISTS pickup_spots (
    id UUID PRIMARY KEY,
    session_id TEXT NOT NULL,
    name TEXT NOT NULL,
    lat DOUBLE PRECISION NOT NULL,
    lng DOUBLE PRECISION NOT NULL,
    worker_count INT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (session_id, name)
);
CREATE TABLE IF NOT EXISTS optimization_results (
    session_id TEXT PRIMARY KEY,
    run_id UUID NOT NULL,
    result JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS plan_metrics (
    run_id UUID PRIMARY KEY,
    session_id TEXT NOT NULL,
    metrics JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS plan_metrics_session_idx ON plan_metrics (session_id, created_at DESC);
`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// mapErr converts driver errors into store sentinels.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return err
}

func (p *Postgres) GetConfig(ctx context.Context, sessionID string) (model.SessionConfig, error) {
	cfg := model.SessionConfig{SessionID: sessionID}
	f, err := p.GetFactory(ctx, sessionID)
	switch {
	case err == nil:
		cfg.Factory = &f
	case !errors.Is(err, ErrNotFound):
		return cfg, err
	}
	if cfg.Vehicles, err = p.ListVehicles(ctx, sessionID); err != nil {
		return cfg, err
	}
	if cfg.PickupSpots, err = p.ListPickupSpots(ctx, sessionID); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (p *Postgres) ClearConfig(ctx context.Context, sessionID string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, table := range []string{"factories", "vehicles", "pickup_spots", "optimization_results"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id=$1`, sessionID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) SetFactory(ctx context.Context, sessionID string, f model.Factory) (model.Factory, error) {
	row := p.db.QueryRowContext(ctx, `INSERT INTO factories (session_id, name, lat, lng) VALUES ($1,$2,$3,$4)
        ON CONFLICT (session_id) DO UPDATE SET name=$2, lat=$3, lng=$4, updated_at=now()
        RETURNING updated_at`, sessionID, f.Name, f.Lat, f.Lng)
	if err := row.Scan(&f.UpdatedAt); err != nil {
		return model.Factory{}, err
	}
	return f, nil
}

func (p *Postgres) GetFactory(ctx context.Context, sessionID string) (model.Factory, error) {
	var f model.Factory
	err := p.db.QueryRowContext(ctx, `SELECT name, lat, lng, updated_at FROM factories WHERE session_id=$1`, sessionID).
		Scan(&f.Name, &f.Lat, &f.Lng, &f.UpdatedAt)
	return f, mapErr(err, "factory")
}

func (p *Postgres) DeleteFactory(ctx context.Context, sessionID string) error {
	return p.deleteOne(ctx, `DELETE FROM factories WHERE session_id=$1`, sessionID)
}

func (p *Postgres) deleteOne(ctx context.Context, query string, args ...any) error {
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) AddVehicles(ctx context.Context, sessionID string, in []model.VehicleInput) ([]model.Vehicle, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	out := make([]model.Vehicle, 0, len(in))
	for _, v := range in {
		veh := model.Vehicle{ID: uuid.New().String(), Name: v.Name, Type: v.Type, Capacity: v.Capacity, CostPerKm: v.CostPerKm}
		err := tx.QueryRowContext(ctx, `INSERT INTO vehicles (id, session_id, name, vehicle_type, capacity, cost_per_km)
            VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`, veh.ID, sessionID, veh.Name, veh.Type, veh.Capacity, veh.CostPerKm).
			Scan(&veh.CreatedAt)
		if err != nil {
			return nil, mapErr(err, fmt.Sprintf("vehicle %q", v.Name))
		}
		out = append(out, veh)
	}
	return out, tx.Commit()
}

func (p *Postgres) ListVehicles(ctx context.Context, sessionID string) ([]model.Vehicle, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, name, vehicle_type, capacity, cost_per_km, created_at
        FROM vehicles WHERE session_id=$1 ORDER BY created_at, name`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Vehicle{}
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.Type, &v.Capacity, &v.CostPerKm, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateVehicle(ctx context.Context, sessionID, id string, in model.VehicleInput) (model.Vehicle, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Vehicle{}, ErrNotFound
	}
	v := model.Vehicle{ID: id, Name: in.Name, Type: in.Type, Capacity: in.Capacity, CostPerKm: in.CostPerKm}
	err := p.db.QueryRowContext(ctx, `UPDATE vehicles SET name=$3, vehicle_type=$4, capacity=$5, cost_per_km=$6
        WHERE session_id=$1 AND id=$2 RETURNING created_at`, sessionID, id, in.Name, in.Type, in.Capacity, in.CostPerKm).
		Scan(&v.CreatedAt)
	if err != nil {
		return model.Vehicle{}, mapErr(err, fmt.Sprintf("vehicle %q", in.Name))
	}
	return v, nil
}

func (p *Postgres) DeleteVehicle(ctx context.Context, sessionID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return p.deleteOne(ctx, `DELETE FROM vehicles WHERE session_id=$1 AND id=$2`, sessionID, id)
}

func (p *Postgres) AddPickupSpots(ctx context.Context, sessionID string, in []model.PickupSpotInput) ([]model.PickupSpot, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	out := make([]model.PickupSpot, 0, len(in))
	for _, s := range in {
		spot := model.PickupSpot{ID: uuid.New().String(), Name: s.Name, Lat: s.Lat, Lng: s.Lng, WorkerCount: s.WorkerCount}
		err := tx.QueryRowContext(ctx, `INSERT INTO pickup_spots (id, session_id, name, lat, lng, worker_count)
            VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`, spot.ID, sessionID, spot.Name, spot.Lat, spot.Lng, spot.WorkerCount).
			Scan(&spot.CreatedAt)
		if err != nil {
			return nil, mapErr(err, fmt.Sprintf("pickup spot %q", s.Name))
		}
		out = append(out, spot)
	}
	return out, tx.Commit()
}

func (p *Postgres) ListPickupSpots(ctx context.Context, sessionID string) ([]model.PickupSpot, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, name, lat, lng, worker_count, created_at
        FROM pickup_spots WHERE session_id=$1 ORDER BY created_at, name`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PickupSpot{}
	for rows.Next() {
		var s model.PickupSpot
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lng, &s.WorkerCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdatePickupSpot(ctx context.Context, sessionID, id string, in model.PickupSpotInput) (model.PickupSpot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.PickupSpot{}, ErrNotFound
	}
	s := model.PickupSpot{ID: id, Name: in.Name, Lat: in.Lat, Lng: in.Lng, WorkerCount: in.WorkerCount}
	err := p.db.QueryRowContext(ctx, `UPDATE pickup_spots SET name=$3, lat=$4, lng=$5, worker_count=$6
        WHERE session_id=$1 AND id=$2 RETURNING created_at`, sessionID, id, in.Name, in.Lat, in.Lng, in.WorkerCount).
		Scan(&s.CreatedAt)
	if err != nil {
		return model.PickupSpot{}, mapErr(err, fmt.Sprintf("pickup spot %q", in.Name))
	}
	return s, nil
}

func (p *Postgres) DeletePickupSpot(ctx context.Context, sessionID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return p.deleteOne(ctx, `DELETE FROM pickup_spots WHERE session_id=$1 AND id=$2`, sessionID, id)
}

func (p *Postgres) SaveResult(ctx context.Context, res model.OptimizationResult) error {
	js, err := json.Marshal(res)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO optimization_results (session_id, run_id, result, created_at) VALUES ($1,$2,$3,$4)
        ON CONFLICT (session_id) DO UPDATE SET run_id=$2, result=$3, created_at=$4`, res.SessionID, res.RunID, js, res.CreatedAt)
	return err
}

func (p *Postgres) GetResult(ctx context.Context, sessionID string) (model.OptimizationResult, error) {
	var js []byte
	err := p.db.QueryRowContext(ctx, `SELECT result FROM optimization_results WHERE session_id=$1`, sessionID).Scan(&js)
	if err != nil {
		return model.OptimizationResult{}, mapErr(err, "result")
	}
	var res model.OptimizationResult
	if err := json.Unmarshal(js, &res); err != nil {
		return model.OptimizationResult{}, fmt.Errorf("decode result: %w", err)
	}
	return res, nil
}

func (p *Postgres) SavePlanMetrics(ctx context.Context, m model.PlanMetrics) error {
	js, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO plan_metrics (run_id, session_id, metrics, created_at) VALUES ($1,$2,$3,$4)
        ON CONFLICT (run_id) DO NOTHING`, m.RunID, m.SessionID, js, m.CreatedAt)
	return err
}

func (p *Postgres) ListPlanMetrics(ctx context.Context, sessionID string, limit int) ([]model.PlanMetrics, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `SELECT metrics FROM plan_metrics WHERE session_id=$1 ORDER BY created_at DESC LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PlanMetrics{}
	for rows.Next() {
		var js []byte
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var m model.PlanMetrics
		if err := json.Unmarshal(js, &m); err != nil {
			return nil, fmt.Errorf("decode plan metrics: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
