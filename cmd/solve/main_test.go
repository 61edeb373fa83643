package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"smartroute/internal/opt"
)

func TestRunScenario(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-scenario", "testdata/plant.yaml", "-seed", "42", "-iterations", "50"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var sol opt.Solution
	if err := json.Unmarshal(out.Bytes(), &sol); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sol.Metrics.Seed != 42 || sol.Metrics.Iterations != 50 {
		t.Fatalf("metrics: %+v", sol.Metrics)
	}
	if len(sol.Routes) != 3 {
		t.Fatalf("routes = %d, want one per vehicle", len(sol.Routes))
	}
	// 25 workers exceed the largest vehicle
	if len(sol.Unassigned) != 1 || sol.Unassigned[0].LocationID != "stadium" || sol.Unassigned[0].Reason != opt.ReasonExceedsFleetCapacity {
		t.Fatalf("unassigned: %+v", sol.Unassigned)
	}
	if sol.Degraded {
		t.Fatalf("degraded: %+v", sol.Violations)
	}
}

func TestRunPenaltyFlag(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-scenario", "testdata/plant.yaml", "-seed", "1", "-penalty", "0"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var sol opt.Solution
	if err := json.Unmarshal(out.Bytes(), &sol); err != nil {
		t.Fatal(err)
	}
	if sol.FixedCost != 0 {
		t.Fatalf("fixed cost = %v with zero penalty", sol.FixedCost)
	}
}

func TestRunErrors(t *testing.T) {
	if err := run(context.Background(), nil, &bytes.Buffer{}); err == nil {
		t.Fatal("missing -scenario should fail")
	}
	if err := run(context.Background(), []string{"-scenario", "testdata/missing.yaml"}, &bytes.Buffer{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	body := "factory:\n  location: {lat: 95, lng: 0}\nvehicles:\n  - {id: v, capacity: 4, cost_per_km: 1}\nlocations:\n  - {id: a, location: {lat: 1, lng: 1}, workers: 1}\n"
	if err := os.WriteFile(bad, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), []string{"-scenario", bad}, &bytes.Buffer{}); !errors.Is(err, opt.ErrInvalidCoordinate) {
		t.Fatalf("invalid coordinate: %v", err)
	}
	unknown := filepath.Join(t.TempDir(), "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("fleet: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), []string{"-scenario", unknown}, &bytes.Buffer{}); err == nil {
		t.Fatal("unknown field should fail")
	}
}
