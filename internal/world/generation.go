// World generation: island layout, initial house sites and resource nodes.
// Resource scattering is modulated by a simplex density field so deposits
// cluster into patches instead of spreading evenly.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/archipelago/internal/entropy"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Seed            int64   `yaml:"-"`
	RingIslands     int     `yaml:"ring_islands"`      // Islands around the central one
	RingRadius      float64 `yaml:"ring_radius"`       // Distance of ring islands from the origin
	MinIslandRadius float64 `yaml:"min_island_radius"` // Floor for the footprint radius

	ScatterExtent int     `yaml:"scatter_extent"` // Nodes scattered over [-extent, extent]²
	ScatterChance float64 `yaml:"scatter_chance"` // Base probability per integer cell
	DensityScale  float64 `yaml:"density_scale"`  // Noise frequency
	DensityWeight float64 `yaml:"density_weight"` // 0 = uniform scatter, 1 = fully noise-shaped

	Distribution Distribution `yaml:"resource_distribution"`

	HousesMin int `yaml:"houses_min"` // Initial houses per island, inclusive
	HousesMax int `yaml:"houses_max"`
}

// DefaultGenConfig returns the standard archipelago: a central island, a
// ring of fifteen, roughly four hundred deposits.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		RingIslands:     15,
		RingRadius:      500,
		MinIslandRadius: 10,
		ScatterExtent:   1000,
		ScatterChance:   1.0 / 10000,
		DensityScale:    0.004,
		DensityWeight:   0.5,
		Distribution:    DistributionLegacy,
		HousesMin:       1,
		HousesMax:       9,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Seed = 42
	cfg.RingIslands = 3
	cfg.RingRadius = 100
	cfg.ScatterExtent = 100
	cfg.ScatterChance = 1.0 / 200
	cfg.HousesMax = 2
	return cfg
}

// HouseSite is a pre-planned house location on an island.
type HouseSite struct {
	Island   IslandID
	Position Vec2
}

// Layout is the generated world before any agent exists.
type Layout struct {
	Islands    []*Island
	HouseSites []HouseSite
	Nodes      []*ResourceNode
}

// Generate builds a layout from cfg, drawing all randomness from src.
func Generate(cfg GenConfig, src entropy.Source) *Layout {
	islands := PlaceIslands(cfg, src)

	var sites []HouseSite
	for _, isl := range islands {
		n := cfg.HousesMin
		if span := cfg.HousesMax - cfg.HousesMin; span > 0 {
			n += src.Intn(span + 1)
		}
		for i := 0; i < n; i++ {
			sites = append(sites, HouseSite{Island: isl.ID, Position: isl.RandomPoint(src)})
		}
	}

	return &Layout{
		Islands:    islands,
		HouseSites: sites,
		Nodes:      ScatterResources(cfg, src),
	}
}

// ScatterResources walks every integer cell in the scatter square and plants
// a node with probability ScatterChance scaled by the local density.
func ScatterResources(cfg GenConfig, src entropy.Source) []*ResourceNode {
	if cfg.ScatterExtent <= 0 || cfg.ScatterChance <= 0 {
		return nil
	}

	noise := opensimplex.NewNormalized(cfg.Seed + 7)
	w := clamp(cfg.DensityWeight, 0, 1)
	// Density factor lies in [1-w, 1+w]; cells whose roll already exceeds the
	// ceiling can skip the noise lookup.
	ceiling := cfg.ScatterChance * (1 + w)

	var nodes []*ResourceNode
	var nextID NodeID = 1
	for x := -cfg.ScatterExtent; x <= cfg.ScatterExtent; x++ {
		for y := -cfg.ScatterExtent; y <= cfg.ScatterExtent; y++ {
			roll := src.Float64()
			if roll >= ceiling {
				continue
			}
			density := 1 - w + w*2*noise.Eval2(float64(x)*cfg.DensityScale, float64(y)*cfg.DensityScale)
			if roll >= cfg.ScatterChance*density {
				continue
			}
			nodes = append(nodes, &ResourceNode{
				ID:       nextID,
				Type:     ChooseResourceType(src, cfg.Distribution),
				Position: Vec2{X: float64(x), Y: float64(y)},
			})
			nextID++
		}
	}
	return nodes
}

// ResourceCounts tallies nodes by type.
func ResourceCounts(nodes []*ResourceNode) Pool {
	var p Pool
	for _, n := range nodes {
		p.Add(n.Type, 1)
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
