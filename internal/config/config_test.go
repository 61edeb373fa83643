package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Optimizer.Iterations != 100 || cfg.Optimizer.VehiclePenalty != 1000 || cfg.Server.Port != "8080" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("environment: development\nserver:\n  port: \"9000\"\noptimizer:\n  iterations: 250\n  vehicle_penalty: 500\n  time_budget: 2s\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9100")
	t.Setenv("OPT_VEHICLE_PENALTY", "750")
	t.Setenv("RATE_BURST", "7")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Development() || cfg.Optimizer.Iterations != 250 || cfg.Optimizer.TimeBudget != 2*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Server.Port != "9100" || cfg.Optimizer.VehiclePenalty != 750 || cfg.RateLimit.Burst != 7 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Optimizer.DestroyMin != 0.2 {
		t.Fatalf("unset file keys lost their defaults: %+v", cfg.Optimizer)
	}
	p := cfg.Optimizer.Params()
	if p.Iterations != 250 || p.VehiclePenalty != 750 {
		t.Fatalf("Params() = %+v", p)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("OPT_ITERATIONS", "many")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric OPT_ITERATIONS")
	}
	t.Setenv("OPT_ITERATIONS", "10")
	t.Setenv("OPT_DESTROY_MIN", "0.6")
	t.Setenv("OPT_DESTROY_MAX", "0.4")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for inverted destroy range")
	}
}
