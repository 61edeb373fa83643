// Command solve runs the route optimizer against a YAML scenario file and
// prints the solution as JSON.
//
//	solve -scenario plant.yaml -seed 42
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"smartroute/internal/logging"
	"smartroute/internal/opt"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "solve:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	scenario := fs.String("scenario", "", "path to the YAML scenario file")
	iterations := fs.Int("iterations", 0, "search iterations (0 = default)")
	seed := fs.Int64("seed", 0, "random seed (0 = derived from the clock)")
	penalty := fs.Float64("penalty", -1, "fixed cost per used vehicle (-1 = default)")
	verbose := fs.Bool("v", false, "log search phases to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *scenario == "" {
		return fmt.Errorf("-scenario is required")
	}

	prob, err := loadScenario(*scenario)
	if err != nil {
		return err
	}
	params := opt.DefaultParams()
	params.Seed = *seed
	if *iterations > 0 {
		params.Iterations = *iterations
	}
	if *penalty >= 0 {
		params.VehiclePenalty = *penalty
	}
	if *verbose {
		logger := logging.Setup("debug", true)
		params.Logger = &logger
	} else {
		nop := zerolog.Nop()
		params.Logger = &nop
	}

	sol, err := opt.Optimize(ctx, prob, params)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sol)
}

func loadScenario(path string) (opt.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return opt.Problem{}, fmt.Errorf("scenario: %w", err)
	}
	defer f.Close()
	var p opt.Problem
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return opt.Problem{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return p, nil
}
