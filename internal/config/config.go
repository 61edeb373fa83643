package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
	"smartroute/internal/opt"
)

type Server struct {
	Port              string        `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Optimizer struct {
	Iterations        int           `yaml:"iterations"`
	DestroyMin        float64       `yaml:"destroy_min"`
	DestroyMax        float64       `yaml:"destroy_max"`
	VehiclePenalty    float64       `yaml:"vehicle_penalty"`
	UnassignedPenalty float64       `yaml:"unassigned_penalty"`
	InitialAcceptProb float64       `yaml:"initial_accept_prob"`
	FinalAcceptProb   float64       `yaml:"final_accept_prob"`
	TwoOptPasses      int           `yaml:"two_opt_passes"`
	TimeBudget        time.Duration `yaml:"time_budget"`
	ProgressEvery     int           `yaml:"progress_every"`
}

// Params converts the optimizer section into engine parameters.
func (o Optimizer) Params() opt.Params {
	return opt.Params{
		Iterations:        o.Iterations,
		DestroyMin:        o.DestroyMin,
		DestroyMax:        o.DestroyMax,
		VehiclePenalty:    o.VehiclePenalty,
		UnassignedPenalty: o.UnassignedPenalty,
		InitialAcceptProb: o.InitialAcceptProb,
		FinalAcceptProb:   o.FinalAcceptProb,
		TwoOptPasses:      o.TwoOptPasses,
		TimeBudget:        o.TimeBudget,
	}
}

type Config struct {
	Environment string    `yaml:"environment"`
	LogLevel    string    `yaml:"log_level"`
	DatabaseURL string    `yaml:"database_url"`
	DBMigrate   bool      `yaml:"db_migrate"`
	RedisURL    string    `yaml:"redis_url"`
	Server      Server    `yaml:"server"`
	RateLimit   RateLimit `yaml:"rate_limit"`
	Optimizer   Optimizer `yaml:"optimizer"`
}

func Default() Config {
	p := opt.DefaultParams()
	return Config{
		Environment: "production",
		LogLevel:    "info",
		DBMigrate:   true,
		Server:      Server{Port: "8080", ReadHeaderTimeout: 5 * time.Second, ShutdownTimeout: 10 * time.Second},
		RateLimit:   RateLimit{RPS: 1, Burst: 3},
		Optimizer: Optimizer{
			Iterations:        p.Iterations,
			DestroyMin:        p.DestroyMin,
			DestroyMax:        p.DestroyMax,
			VehiclePenalty:    p.VehiclePenalty,
			UnassignedPenalty: p.UnassignedPenalty,
			InitialAcceptProb: p.InitialAcceptProb,
			FinalAcceptProb:   p.FinalAcceptProb,
			TwoOptPasses:      p.TwoOptPasses,
			TimeBudget:        5 * time.Second,
			ProgressEvery:     10,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("ENVIRONMENT", &cfg.Environment)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("REDIS_URL", &cfg.RedisURL)
	str("PORT", &cfg.Server.Port)
	if v := os.Getenv("DB_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DB_MIGRATE: %w", err)
		}
		cfg.DBMigrate = b
	}
	floats := map[string]*float64{
		"RATE_RPS":            &cfg.RateLimit.RPS,
		"OPT_VEHICLE_PENALTY": &cfg.Optimizer.VehiclePenalty,
		"OPT_DESTROY_MIN":     &cfg.Optimizer.DestroyMin,
		"OPT_DESTROY_MAX":     &cfg.Optimizer.DestroyMax,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = f
		}
	}
	ints := map[string]*int{
		"RATE_BURST":     &cfg.RateLimit.Burst,
		"OPT_ITERATIONS": &cfg.Optimizer.Iterations,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	if v := os.Getenv("OPT_TIME_BUDGET_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OPT_TIME_BUDGET_MS: %w", err)
		}
		cfg.Optimizer.TimeBudget = time.Duration(ms) * time.Millisecond
	}
	return nil
}

func (c Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("config: server port is required")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("config: rate limit must be positive (rps=%g burst=%d)", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	o := c.Optimizer
	if o.Iterations <= 0 {
		return fmt.Errorf("config: optimizer iterations must be positive, got %d", o.Iterations)
	}
	if o.DestroyMin <= 0 || o.DestroyMax > 1 || o.DestroyMin > o.DestroyMax {
		return fmt.Errorf("config: destroy range [%g, %g] must satisfy 0 < min <= max <= 1", o.DestroyMin, o.DestroyMax)
	}
	if o.VehiclePenalty < 0 {
		return fmt.Errorf("config: vehicle penalty must be >= 0, got %g", o.VehiclePenalty)
	}
	return nil
}

func (c Config) Development() bool { return c.Environment == "development" }
