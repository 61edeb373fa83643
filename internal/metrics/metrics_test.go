package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesOptimizerCollectors(t *testing.T) {
	OptimizeRuns.WithLabelValues("ok").Inc()
	OptimizeDuration.Observe(0.2)
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"optimize_runs_total", "optimize_duration_seconds", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Fatalf("missing %s in exposition", name)
		}
	}
	RegisterDefault() // idempotent
}
