// Island placement: one island at the origin and a ring around it.
package world

import (
	"fmt"
	"math"

	"github.com/talgya/archipelago/internal/entropy"
)

// PlaceIslands lays out the central island plus cfg.RingIslands islands at
// angle i radians on a circle of cfg.RingRadius. Footprint diameter follows
// cos(x)·150 + 50, so islands vary in size with their position.
func PlaceIslands(cfg GenConfig, src entropy.Source) []*Island {
	centers := make([]Vec2, 0, cfg.RingIslands+1)
	centers = append(centers, Origin)
	for i := 0; i < cfg.RingIslands; i++ {
		a := float64(i)
		centers = append(centers, Vec2{
			X: cfg.RingRadius * math.Cos(a),
			Y: cfg.RingRadius * math.Sin(a),
		})
	}

	names := generateNames(src, len(centers))
	islands := make([]*Island, 0, len(centers))
	for i, c := range centers {
		islands = append(islands, &Island{
			ID:       IslandID(i + 1),
			Name:     names[i],
			Position: c,
			Radius:   footprintRadius(c.X, cfg.MinIslandRadius),
		})
	}
	return islands
}

func footprintRadius(x, floor float64) float64 {
	return math.Max((math.Cos(x)*150+50)/2, floor)
}

// generateNames produces unique island names by combining syllables.
func generateNames(src entropy.Source, count int) []string {
	prefixes := []string{
		"Salt", "Gull", "Reef", "Drift", "Kelp", "Coral", "Amber",
		"Mist", "Tide", "Shell", "Pearl", "Storm", "Sun", "Moon",
		"Green", "Grey", "Black", "White", "Red", "Far", "Low",
	}
	suffixes := []string{
		"holm", "isle", "skerry", "cay", "key", "rock", "haven",
		"point", "shore", "sand", "stack", "reach", "bay", "hope",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)
	for len(names) < count {
		name := entropy.Pick(src, prefixes) + entropy.Pick(src, suffixes)
		for tries := 0; used[name] && tries < 32; tries++ {
			name = entropy.Pick(src, prefixes) + entropy.Pick(src, suffixes)
		}
		if used[name] {
			name = fmt.Sprintf("%s %d", name, len(names)+1)
		}
		used[name] = true
		names = append(names, name)
	}
	return names
}
