// Package config loads the simulation configuration from YAML. Every field
// has a default; a file only needs the keys it changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/archipelago/internal/engine"
	"github.com/talgya/archipelago/internal/world"
)

// AdminKeyEnv overrides api.admin_key so the secret can stay out of files.
const AdminKeyEnv = "ISLANDSIM_ADMIN_KEY"

// Config is the full runtime configuration.
type Config struct {
	Seed         int64         `yaml:"seed"` // 0 = random
	TickInterval time.Duration `yaml:"tick_interval"`
	Speed        float64       `yaml:"speed"`

	Sim   engine.Params   `yaml:",inline"`
	World world.GenConfig `yaml:"world"`

	API      APIConfig      `yaml:"api"`
	Journal  JournalConfig  `yaml:"journal"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

type APIConfig struct {
	Port     int    `yaml:"port"` // 0 disables the HTTP server
	AdminKey string `yaml:"admin_key"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Seed:         42,
		TickInterval: time.Second / 60,
		Speed:        1,
		Sim:          engine.DefaultParams(),
		World:        world.DefaultGenConfig(),
		API:          APIConfig{Port: 8080},
		Journal:      JournalConfig{Enabled: true, Path: "data/islandsim.db"},
		Snapshot:     SnapshotConfig{Dir: "data/snapshots"},
	}
}

// Load overlays the file at path onto the defaults, applies environment
// overrides and validates the result. An empty path loads defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if key := os.Getenv(AdminKeyEnv); key != "" {
		cfg.API.AdminKey = key
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML onto cfg, rejecting unknown keys.
func Parse(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks ranges. It does not modify cfg.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	p := c.Sim
	check(c.TickInterval > 0, "tick_interval must be positive, got %s", c.TickInterval)
	check(c.Speed >= 0 && c.Speed <= engine.MaxSpeed, "speed must be within [0, %g], got %g", engine.MaxSpeed, c.Speed)
	check(p.WanderPeriod > 0, "wander_period must be positive, got %s", p.WanderPeriod)
	check(p.GatherPeriod > 0, "gather_period must be positive, got %s", p.GatherPeriod)
	check(p.WanderSkipChance >= 0 && p.WanderSkipChance <= 1, "wander_skip_chance must be within [0, 1], got %g", p.WanderSkipChance)
	check(p.GatherSkipChance >= 0 && p.GatherSkipChance <= 1, "gather_skip_chance must be within [0, 1], got %g", p.GatherSkipChance)
	check(p.WanderRadius >= 0, "wander_radius must not be negative, got %g", p.WanderRadius)
	check(p.GatherRadius >= 0, "gather_radius must not be negative, got %g", p.GatherRadius)
	check(p.PersonSpeed > 0, "person_speed must be positive, got %g", p.PersonSpeed)
	check(p.ArrivalThresholdSq > 0, "arrival_threshold_sq must be positive, got %g", p.ArrivalThresholdSq)
	check(int(p.ConstructionResource) < world.NumResources, "construction_resource out of range: %d", p.ConstructionResource)
	check(p.ConstructionCost > 0, "construction_cost must be positive, got %d", p.ConstructionCost)
	check(p.SearchWorkers >= 0, "search_workers must not be negative, got %d", p.SearchWorkers)
	check(p.SearchChunk > 0, "search_chunk must be positive, got %d", p.SearchChunk)

	w := c.World
	check(w.RingIslands >= 0, "world.ring_islands must not be negative, got %d", w.RingIslands)
	check(w.MinIslandRadius > 0, "world.min_island_radius must be positive, got %g", w.MinIslandRadius)
	check(w.ScatterExtent >= 0, "world.scatter_extent must not be negative, got %d", w.ScatterExtent)
	check(w.ScatterChance >= 0 && w.ScatterChance <= 1, "world.scatter_chance must be within [0, 1], got %g", w.ScatterChance)
	check(w.DensityWeight >= 0 && w.DensityWeight <= 1, "world.density_weight must be within [0, 1], got %g", w.DensityWeight)
	check(w.Distribution == world.DistributionLegacy || w.Distribution == world.DistributionUniform,
		"world.resource_distribution must be %q or %q, got %q", world.DistributionLegacy, world.DistributionUniform, w.Distribution)
	check(w.HousesMin >= 0 && w.HousesMax >= w.HousesMin, "world.houses_min/houses_max must satisfy 0 <= min <= max, got %d/%d", w.HousesMin, w.HousesMax)

	check(c.API.Port >= 0 && c.API.Port <= 65535, "api.port out of range: %d", c.API.Port)
	check(!c.Journal.Enabled || c.Journal.Path != "", "journal.path required when journal is enabled")

	return errors.Join(errs...)
}

// YAML renders the effective configuration with secrets removed.
func (c Config) YAML() string {
	c.API.AdminKey = ""
	b, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	return string(b)
}
