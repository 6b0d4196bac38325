package world

import (
	"math"

	"github.com/talgya/archipelago/internal/entropy"
)

// IslandID identifies an island. Zero means none.
type IslandID uint64

// HouseID identifies a house. Zero means none.
type HouseID uint64

// Handle is the opaque identity the entity collaborator assigns to a
// visible object. The core stores it but never interprets it.
type Handle uint64

// Island is a circular landmass holding a resource pool.
type Island struct {
	ID       IslandID `json:"id"`
	Name     string   `json:"name"`
	Position Vec2     `json:"position"`
	Radius   float64  `json:"radius"`
	Handle   Handle   `json:"-"`

	// Resources is mutated only by gather delivery and construction.
	Resources Pool `json:"resources"`
}

// Contains reports whether p lies inside the island footprint.
func (i *Island) Contains(p Vec2) bool {
	return p.Sub(i.Position).LenSq() <= i.Radius*i.Radius
}

// RandomPoint returns a uniformly distributed point inside the footprint.
func (i *Island) RandomPoint(src entropy.Source) Vec2 {
	return RandomPointInDisk(src, i.Position, i.Radius)
}

// House belongs to exactly one island for the whole run.
type House struct {
	ID       HouseID  `json:"id"`
	Island   IslandID `json:"island_id"`
	Position Vec2     `json:"position"`
	Handle   Handle   `json:"-"`
	BuiltAt  uint64   `json:"built_at"` // Step the house was built (0 = world setup)
}

// RandomPointInDisk samples uniformly by area: sqrt on the radius draw keeps
// points from bunching at the centre.
func RandomPointInDisk(src entropy.Source, center Vec2, radius float64) Vec2 {
	r := radius * math.Sqrt(src.Float64())
	theta := src.Float64() * 2 * math.Pi
	return Vec2{center.X + r*math.Cos(theta), center.Y + r*math.Sin(theta)}
}
