package api

import (
	"net/http"
	"time"

	"smartroute/internal/buildinfo"
)

// DebugJSON reports build information and the non-secret parts of the config.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	c := s.Config
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Get(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"environment":    c.Environment,
			"logLevel":       c.LogLevel,
			"port":           c.Server.Port,
			"rateRps":        c.RateLimit.RPS,
			"rateBurst":      c.RateLimit.Burst,
			"hasDatabaseUrl": c.DatabaseURL != "",
			"hasRedisUrl":    c.RedisURL != "",
			"iterations":     c.Optimizer.Iterations,
			"vehiclePenalty": c.Optimizer.VehiclePenalty,
		},
	})
}
