package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Evaluator struct {
		CacheSize int `env:"EVAL_CACHE_SIZE" envDefault:"256"`
		// LimitTable optionally points at a YAML limit table; empty uses
		// the built-in screening limits.
		LimitTable string `env:"LIMIT_TABLE"`
	}
	Solver struct {
		Tol     float64 `env:"SOLVER_TOL" envDefault:"0.001"`
		MaxIter int     `env:"SOLVER_MAX_ITER" envDefault:"200"`
	}
	Frontier struct {
		Samples int   `env:"FRONTIER_SAMPLES" envDefault:"128"`
		Seed    int64 `env:"FRONTIER_SEED" envDefault:"1"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Development default: verbose logging unless set explicitly
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: HTTP port %d out of range", c.HTTP.Port)
	}
	if c.Evaluator.CacheSize < 0 {
		return fmt.Errorf("config: evaluator cache size must be >= 0")
	}
	if c.Solver.Tol <= 0 {
		return fmt.Errorf("config: solver tolerance must be positive")
	}
	if c.Solver.MaxIter <= 0 {
		return fmt.Errorf("config: solver iteration budget must be positive")
	}
	if c.Frontier.Samples <= 0 {
		return fmt.Errorf("config: frontier sample budget must be positive")
	}
	return nil
}

// GetEnv returns the value of the environment variable or the default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt returns the value of the environment variable as int or the default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
