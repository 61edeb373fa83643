package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"smartroute/internal/config"
	"smartroute/internal/metrics"
	"smartroute/internal/planner"
	"smartroute/internal/store"
)

type Server struct {
	Store   store.Store
	Planner *planner.Planner
	Broker  EventBroker
	Limiter *SessionLimiter
	Config  config.Config
}

// NewServer creates a Server. If no database URL is configured, uses the
// in-memory store; without a Redis URL events stay in process.
func NewServer(cfg config.Config) (*Server, error) {
	var st store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		st = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.DBMigrate {
			if err := pg.Migrate(context.Background()); err != nil {
				return nil, err
			}
		}
		st = pg
	}
	var broker EventBroker = NewBroker()
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis broker unavailable, using in-memory broker")
		} else {
			broker = rb
		}
	}
	return NewServerWithStore(cfg, st, broker), nil
}

func NewServerWithStore(cfg config.Config, st store.Store, broker EventBroker) *Server {
	if broker == nil {
		broker = NewBroker()
	}
	metrics.RegisterDefault()
	return &Server{
		Store:   st,
		Planner: planner.New(st, cfg.Optimizer),
		Broker:  broker,
		Limiter: NewSessionLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Config:  cfg,
	}
}

// Routes wires every endpoint onto a mux wrapped in the logging and
// metrics middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Session configuration
	mux.HandleFunc("GET /v1/sessions/{sid}/config", s.ConfigHandler)
	mux.HandleFunc("DELETE /v1/sessions/{sid}/config", s.ClearConfigHandler)
	mux.HandleFunc("PUT /v1/sessions/{sid}/factory", s.SetFactoryHandler)
	mux.HandleFunc("GET /v1/sessions/{sid}/factory", s.GetFactoryHandler)
	mux.HandleFunc("DELETE /v1/sessions/{sid}/factory", s.DeleteFactoryHandler)
	mux.HandleFunc("POST /v1/sessions/{sid}/vehicles", s.AddVehicleHandler)
	mux.HandleFunc("GET /v1/sessions/{sid}/vehicles", s.ListVehiclesHandler)
	mux.HandleFunc("POST /v1/sessions/{sid}/vehicles/bulk", s.BulkVehiclesHandler)
	mux.HandleFunc("PUT /v1/sessions/{sid}/vehicles/{id}", s.UpdateVehicleHandler)
	mux.HandleFunc("DELETE /v1/sessions/{sid}/vehicles/{id}", s.DeleteVehicleHandler)
	mux.HandleFunc("POST /v1/sessions/{sid}/pickup-spots", s.AddPickupSpotHandler)
	mux.HandleFunc("GET /v1/sessions/{sid}/pickup-spots", s.ListPickupSpotsHandler)
	mux.HandleFunc("POST /v1/sessions/{sid}/pickup-spots/bulk", s.BulkPickupSpotsHandler)
	mux.HandleFunc("PUT /v1/sessions/{sid}/pickup-spots/{id}", s.UpdatePickupSpotHandler)
	mux.HandleFunc("DELETE /v1/sessions/{sid}/pickup-spots/{id}", s.DeletePickupSpotHandler)

	// Optimization
	mux.HandleFunc("POST /v1/sessions/{sid}/optimize", s.OptimizeHandler)
	mux.HandleFunc("GET /v1/sessions/{sid}/results", s.ResultsHandler)
	mux.HandleFunc("GET /v1/sessions/{sid}/export/csv", s.ExportCSVHandler)
	mux.HandleFunc("GET /v1/sessions/{sid}/events/stream", s.EventsStreamHandler)
	mux.HandleFunc("GET /v1/sessions/{sid}/events/ws", s.EventsWSHandler)
	mux.HandleFunc("GET /v1/optimizer/config", s.OptimizerConfigHandler)
	mux.HandleFunc("GET /v1/admin/plan-metrics", s.PlanMetricsHandler)

	// Ops
	mux.HandleFunc("GET /healthz", s.HealthHandler)
	mux.HandleFunc("GET /readyz", s.ReadyHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /debug/info", s.DebugJSON)

	return logMiddleware(mux)
}

// publish sends an event to every subscriber of the session.
func (s *Server) publish(sessionID, eventType string, data map[string]any) {
	metrics.EventsPublished.WithLabelValues(eventType).Inc()
	s.Broker.Publish(sessionID, SSEEvent{Type: eventType, Data: data})
}
