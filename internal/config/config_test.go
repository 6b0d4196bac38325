package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/archipelago/internal/engine"
	"github.com/talgya/archipelago/internal/world"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "islandsim.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv(AdminKeyEnv, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sim != engine.DefaultParams() {
		t.Fatalf("sim params = %+v", cfg.Sim)
	}
	if cfg.World != world.DefaultGenConfig() {
		t.Fatalf("world = %+v", cfg.World)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	t.Setenv(AdminKeyEnv, "")
	path := writeConfig(t, `
seed: 7
speed: 4
wander_period: 3s
gather_period: 500ms
gather_skip_chance: 0.6
gather_radius: 100
construction_resource: Coal
construction_cost: 3
world:
  ring_islands: 4
  resource_distribution: uniform
api:
  port: 9090
journal:
  enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 7 || cfg.Speed != 4 {
		t.Fatalf("seed %d speed %v", cfg.Seed, cfg.Speed)
	}
	p := cfg.Sim
	if p.WanderPeriod != 3*time.Second || p.GatherPeriod != 500*time.Millisecond {
		t.Fatalf("periods %s %s", p.WanderPeriod, p.GatherPeriod)
	}
	if p.GatherSkipChance != 0.6 || p.GatherRadius != 100 {
		t.Fatalf("gather tuning %+v", p)
	}
	if p.ConstructionResource != world.ResourceCoal || p.ConstructionCost != 3 {
		t.Fatalf("construction %v x%d", p.ConstructionResource, p.ConstructionCost)
	}
	// Untouched keys keep their defaults.
	if p.PersonSpeed != 10 || p.ArrivalThresholdSq != 4 {
		t.Fatalf("defaults lost: %+v", p)
	}
	if cfg.World.RingIslands != 4 || cfg.World.Distribution != world.DistributionUniform || cfg.World.RingRadius != 500 {
		t.Fatalf("world = %+v", cfg.World)
	}
	if cfg.API.Port != 9090 || cfg.Journal.Enabled || cfg.Journal.Path == "" {
		t.Fatalf("api %+v journal %+v", cfg.API, cfg.Journal)
	}
}

func TestLoadRejects(t *testing.T) {
	t.Setenv(AdminKeyEnv, "")
	cases := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "wander_perod: 2s\n", "wander_perod"},
		{"bad resource", "construction_resource: stone\n", "stone"},
		{"bad chance", "gather_skip_chance: 1.5\n", "gather_skip_chance"},
		{"zero cost", "construction_cost: 0\n", "construction_cost"},
		{"bad distribution", "world:\n  resource_distribution: clumpy\n", "resource_distribution"},
		{"houses range", "world:\n  houses_min: 5\n  houses_max: 2\n", "houses_min"},
		{"negative period", "gather_period: -1s\n", "gather_period"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatalf("accepted %q", tc.body)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Sim.PersonSpeed = 0
	cfg.Sim.SearchChunk = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("invalid config accepted")
	}
	for _, key := range []string{"person_speed", "search_chunk"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestAdminKeyFromEnvironment(t *testing.T) {
	t.Setenv(AdminKeyEnv, "from-env")
	cfg, err := Load(writeConfig(t, "api:\n  admin_key: from-file\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.AdminKey != "from-env" {
		t.Fatalf("admin key = %q", cfg.API.AdminKey)
	}
	if strings.Contains(cfg.YAML(), "from-env") {
		t.Fatalf("YAML dump leaks the admin key")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	want := Default()
	want.Seed = 99
	want.Sim.GatherRadius = 40

	var got Config
	got = Default()
	if err := Parse([]byte(want.YAML()), &got); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Seed != 99 || got.Sim != want.Sim || got.World != want.World {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", got, want)
	}
}
