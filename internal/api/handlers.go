package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"smartroute/internal/export"
	"smartroute/internal/model"
	"smartroute/internal/opt"
	"smartroute/internal/planner"
	"smartroute/internal/store"
)

// sessionID returns the validated {sid} path value or writes a 400.
func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid := r.PathValue("sid")
	if err := validateSessionID(sid); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid session", err.Error(), r.URL.Path)
		return "", false
	}
	return sid, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return false
	}
	return true
}

// writeStoreError maps store sentinels onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, r *http.Request, title string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, http.StatusNotFound, title, err.Error(), r.URL.Path)
	case errors.Is(err, store.ErrConflict):
		writeProblem(w, http.StatusConflict, title, err.Error(), r.URL.Path)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg(title)
		writeProblem(w, http.StatusInternalServerError, title, err.Error(), r.URL.Path)
	}
}

func (s *Server) ConfigHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	cfg, err := s.Store.GetConfig(r.Context(), sid)
	if err != nil {
		writeStoreError(w, r, "Get config failed", err)
		return
	}
	status := model.ConfigStatus{SessionConfig: cfg, IsComplete: cfg.Complete(), SetupStep: cfg.Step(), MissingParts: cfg.Missing()}
	for _, v := range cfg.Vehicles {
		status.TotalSeats += v.Capacity
	}
	for _, p := range cfg.PickupSpots {
		status.TotalWorkers += p.WorkerCount
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) ClearConfigHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := s.Store.ClearConfig(r.Context(), sid); err != nil {
		writeStoreError(w, r, "Clear config failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SetFactoryHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var f model.Factory
	if !decodeJSON(w, r, &f) {
		return
	}
	if err := validateFactory(&f); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid factory", err.Error(), r.URL.Path)
		return
	}
	out, err := s.Store.SetFactory(r.Context(), sid, f)
	if err != nil {
		writeStoreError(w, r, "Set factory failed", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetFactoryHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	f, err := s.Store.GetFactory(r.Context(), sid)
	if err != nil {
		writeStoreError(w, r, "Factory not found", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) DeleteFactoryHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := s.Store.DeleteFactory(r.Context(), sid); err != nil {
		writeStoreError(w, r, "Factory not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AddVehicleHandler(w http.ResponseWriter, r *http.Request) {
	var in model.VehicleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s.addVehicles(w, r, []model.VehicleInput{in}, true)
}

func (s *Server) BulkVehiclesHandler(w http.ResponseWriter, r *http.Request) {
	var req model.BulkVehiclesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Vehicles) == 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid vehicles", "vehicles must not be empty", r.URL.Path)
		return
	}
	s.addVehicles(w, r, req.Vehicles, false)
}

func (s *Server) addVehicles(w http.ResponseWriter, r *http.Request, in []model.VehicleInput, single bool) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	for i := range in {
		if err := validateVehicleInput(&in[i]); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid vehicle", "vehicles["+strconv.Itoa(i)+"]: "+err.Error(), r.URL.Path)
			return
		}
	}
	out, err := s.Store.AddVehicles(r.Context(), sid, in)
	if err != nil {
		writeStoreError(w, r, "Add vehicles failed", err)
		return
	}
	if single {
		writeJSON(w, http.StatusCreated, out[0])
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"vehicles": out, "count": len(out)})
}

func (s *Server) ListVehiclesHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	out, err := s.Store.ListVehicles(r.Context(), sid)
	if err != nil {
		writeStoreError(w, r, "List vehicles failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": out})
}

func (s *Server) UpdateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var in model.VehicleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := validateVehicleInput(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid vehicle", err.Error(), r.URL.Path)
		return
	}
	v, err := s.Store.UpdateVehicle(r.Context(), sid, r.PathValue("id"), in)
	if err != nil {
		writeStoreError(w, r, "Update vehicle failed", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) DeleteVehicleHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := s.Store.DeleteVehicle(r.Context(), sid, r.PathValue("id")); err != nil {
		writeStoreError(w, r, "Delete vehicle failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AddPickupSpotHandler(w http.ResponseWriter, r *http.Request) {
	var in model.PickupSpotInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s.addPickupSpots(w, r, []model.PickupSpotInput{in}, true)
}

func (s *Server) BulkPickupSpotsHandler(w http.ResponseWriter, r *http.Request) {
	var req model.BulkPickupSpotsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.PickupSpots) == 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid pickup spots", "pickupSpots must not be empty", r.URL.Path)
		return
	}
	s.addPickupSpots(w, r, req.PickupSpots, false)
}

func (s *Server) addPickupSpots(w http.ResponseWriter, r *http.Request, in []model.PickupSpotInput, single bool) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	for i := range in {
		if err := validatePickupSpotInput(&in[i]); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid pickup spot", "pickupSpots["+strconv.Itoa(i)+"]: "+err.Error(), r.URL.Path)
			return
		}
	}
	out, err := s.Store.AddPickupSpots(r.Context(), sid, in)
	if err != nil {
		writeStoreError(w, r, "Add pickup spots failed", err)
		return
	}
	if single {
		writeJSON(w, http.StatusCreated, out[0])
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"pickupSpots": out, "count": len(out)})
}

func (s *Server) ListPickupSpotsHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	out, err := s.Store.ListPickupSpots(r.Context(), sid)
	if err != nil {
		writeStoreError(w, r, "List pickup spots failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pickupSpots": out})
}

func (s *Server) UpdatePickupSpotHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var in model.PickupSpotInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := validatePickupSpotInput(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid pickup spot", err.Error(), r.URL.Path)
		return
	}
	p, err := s.Store.UpdatePickupSpot(r.Context(), sid, r.PathValue("id"), in)
	if err != nil {
		writeStoreError(w, r, "Update pickup spot failed", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) DeletePickupSpotHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := s.Store.DeletePickupSpot(r.Context(), sid, r.PathValue("id")); err != nil {
		writeStoreError(w, r, "Delete pickup spot failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	if !s.Limiter.Allow(sid) {
		w.Header().Set("Retry-After", "1")
		writeProblem(w, http.StatusTooManyRequests, "Too many optimization requests", "", r.URL.Path)
		return
	}
	var req model.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateOptimizeRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid optimize request", err.Error(), r.URL.Path)
		return
	}
	notify := func(eventType string, data map[string]any) { s.publish(sid, eventType, data) }
	res, err := s.Planner.Run(r.Context(), sid, req, notify)
	switch {
	case err == nil:
	case errors.Is(err, planner.ErrIncompleteConfig):
		writeProblem(w, http.StatusBadRequest, "Incomplete configuration", err.Error(), r.URL.Path)
		return
	case errors.Is(err, opt.ErrInvalidInput), errors.Is(err, opt.ErrInvalidCoordinate):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid optimization input", err.Error(), r.URL.Path)
		return
	default:
		writeStoreError(w, r, "Optimization failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	res, err := s.Store.GetResult(r.Context(), sid)
	if err != nil {
		writeStoreError(w, r, "No optimization results", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) ExportCSVHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	res, err := s.Store.GetResult(r.Context(), sid)
	if err != nil {
		writeStoreError(w, r, "No optimization results", err)
		return
	}
	now := time.Now()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(now)+`"`)
	if err := export.WriteCSV(w, res, now); err != nil {
		log.Error().Err(err).Str("session", sid).Msg("csv export failed")
	}
}

// OptimizerConfigHandler returns the effective optimizer defaults
func (s *Server) OptimizerConfigHandler(w http.ResponseWriter, r *http.Request) {
	p := s.Planner.Defaults()
	writeJSON(w, http.StatusOK, map[string]any{"defaults": map[string]any{
		"iterations":        p.Iterations,
		"destroyMin":        p.DestroyMin,
		"destroyMax":        p.DestroyMax,
		"vehiclePenalty":    p.VehiclePenalty,
		"unassignedPenalty": p.UnassignedPenalty,
		"initialAcceptProb": p.InitialAcceptProb,
		"finalAcceptProb":   p.FinalAcceptProb,
		"twoOptPasses":      p.TwoOptPasses,
		"timeBudgetMs":      p.TimeBudget.Milliseconds(),
		"averageSpeedKph":   planner.AverageSpeedKph,
	}})
}

func (s *Server) PlanMetricsHandler(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("session")
	if err := validateSessionID(sid); err != nil {
		writeProblem(w, http.StatusBadRequest, "Missing session", err.Error(), r.URL.Path)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer", r.URL.Path)
			return
		}
		limit = n
	}
	items, err := s.Store.ListPlanMetrics(r.Context(), sid, limit)
	if err != nil {
		writeStoreError(w, r, "List plan metrics failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
