// Package world provides the static layout of the archipelago: islands,
// houses, natural resource nodes and the plane they live on.
package world

import "math"

// Vec2 is a point or direction on the simulation plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Origin is the fallback wander anchor for people without a home.
var Origin = Vec2{}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// LenSq returns the squared Euclidean length.
func (v Vec2) LenSq() float64 { return v.X*v.X + v.Y*v.Y }

func (v Vec2) Len() float64 { return math.Sqrt(v.LenSq()) }

// Manhattan returns |dx| + |dy| between two points. Used as the cheap
// distance metric for the nearest-resource search.
func Manhattan(a, b Vec2) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}
