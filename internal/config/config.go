// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/georeplay/internal/geo"
)

// Config holds the runtime settings shared by the CLI and HTTP surface.
// Command-line flags override these values.
type Config struct {
	DBPath        string        `env:"GEOREPLAY_DB"             envDefault:"georeplay.db"`
	CacheCapacity int           `env:"GEOREPLAY_CACHE_CAPACITY" envDefault:"100"`
	TickInterval  time.Duration `env:"GEOREPLAY_TICK_INTERVAL"  envDefault:"100ms"`
	Step          time.Duration `env:"GEOREPLAY_STEP"           envDefault:"1m"`
	GridLevel     int           `env:"GEOREPLAY_GRID_LEVEL"     envDefault:"13"`
	HTTPAddr      string        `env:"GEOREPLAY_HTTP_ADDR"      envDefault:":8090"`
}

// Load parses Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration with every variable unset.
func Default() Config {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Validate rejects values the engine or controller cannot run with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("GEOREPLAY_DB must not be empty")
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("GEOREPLAY_CACHE_CAPACITY must be at least 1, got %d", c.CacheCapacity)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("GEOREPLAY_TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.Step <= 0 {
		return fmt.Errorf("GEOREPLAY_STEP must be positive, got %s", c.Step)
	}
	if c.GridLevel < 0 || c.GridLevel > geo.MaxLevel {
		return fmt.Errorf("GEOREPLAY_GRID_LEVEL must be in [0, %d], got %d", geo.MaxLevel, c.GridLevel)
	}
	return nil
}
