package engine

import (
	"time"

	"github.com/talgya/archipelago/internal/world"
)

// Params are the tunables of the simulation step.
type Params struct {
	WanderPeriod time.Duration `yaml:"wander_period"`
	GatherPeriod time.Duration `yaml:"gather_period"`

	WanderSkipChance float64 `yaml:"wander_skip_chance"` // Chance an idle person ignores a wander tick
	GatherSkipChance float64 `yaml:"gather_skip_chance"` // Chance a person ignores a gather tick
	WanderRadius     float64 `yaml:"wander_radius"`      // Half-width of the wander offset square
	GatherRadius     float64 `yaml:"gather_radius"`      // Max Manhattan distance to a node, 0 = unlimited

	PersonSpeed        float64 `yaml:"person_speed"`         // Units per second
	ArrivalThresholdSq float64 `yaml:"arrival_threshold_sq"` // Squared distance counted as arrived

	ConstructionResource world.ResourceType `yaml:"construction_resource"`
	ConstructionCost     int                `yaml:"construction_cost"`

	SearchWorkers int `yaml:"search_workers"` // 0 = GOMAXPROCS
	SearchChunk   int `yaml:"search_chunk"`   // Nodes per search task

	PublishEvery uint64 `yaml:"publish_every"` // Steps between snapshot publications
	ReportEvery  uint64 `yaml:"report_every"`  // Steps between reports and journal flushes
}

// DefaultParams returns the standard game tuning.
func DefaultParams() Params {
	return Params{
		WanderPeriod:         2 * time.Second,
		GatherPeriod:         time.Second,
		WanderSkipChance:     0,
		GatherSkipChance:     0.5,
		WanderRadius:         100,
		GatherRadius:         0,
		PersonSpeed:          10,
		ArrivalThresholdSq:   4,
		ConstructionResource: world.ResourceWood,
		ConstructionCost:     2,
		SearchWorkers:        0,
		SearchChunk:          128,
		PublishEvery:         6,
		ReportEvery:          3600,
	}
}
