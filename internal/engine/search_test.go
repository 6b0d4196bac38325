package engine

import (
	"math/rand"
	"testing"

	"github.com/talgya/archipelago/internal/world"
)

func randomNodes(rng *rand.Rand, n int) []*world.ResourceNode {
	nodes := make([]*world.ResourceNode, n)
	for i := range nodes {
		nodes[i] = &world.ResourceNode{
			ID:       world.NodeID(i + 1),
			Type:     world.ResourceType(rng.Intn(world.NumResources)),
			Position: world.Vec2{X: float64(rng.Intn(2001) - 1000), Y: float64(rng.Intn(2001) - 1000)},
		}
	}
	return nodes
}

func TestNearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	searchers := []Searcher{
		{Workers: 1, Chunk: 0},
		{Workers: 4, Chunk: 7},
		{Workers: 8, Chunk: 64},
	}
	for trial := 0; trial < 50; trial++ {
		nodes := randomNodes(rng, 1+rng.Intn(500))
		origin := world.Vec2{X: float64(rng.Intn(2001) - 1000), Y: float64(rng.Intn(2001) - 1000)}

		var want float64 = -1
		for _, n := range nodes {
			if d := world.Manhattan(origin, n.Position); want < 0 || d < want {
				want = d
			}
		}

		for _, s := range searchers {
			m, ok := s.Nearest(origin, nodes)
			if !ok {
				t.Fatalf("trial %d: no match with %d nodes", trial, len(nodes))
			}
			if m.Dist != want {
				t.Fatalf("trial %d searcher %+v: dist %v, want %v", trial, s, m.Dist, want)
			}
			if got := world.Manhattan(origin, m.Node.Position); got != m.Dist {
				t.Fatalf("reported dist %v does not match node dist %v", m.Dist, got)
			}
		}
	}
}

func TestNearestTieBreaksOnLowestID(t *testing.T) {
	// Four nodes at Manhattan distance 10, listed with the lowest ID last.
	nodes := []*world.ResourceNode{
		{ID: 9, Position: world.Vec2{X: 10}},
		{ID: 4, Position: world.Vec2{Y: -10}},
		{ID: 7, Position: world.Vec2{X: -5, Y: 5}},
		{ID: 2, Position: world.Vec2{X: 3, Y: 7}},
	}
	for _, s := range []Searcher{{Workers: 1}, {Workers: 4, Chunk: 1}} {
		for i := 0; i < 20; i++ {
			m, ok := s.Nearest(world.Vec2{}, nodes)
			if !ok || m.Node.ID != 2 {
				t.Fatalf("searcher %+v picked %+v, want node 2", s, m.Node)
			}
		}
	}
}

func TestNearestEmpty(t *testing.T) {
	if _, ok := (Searcher{}).Nearest(world.Vec2{}, nil); ok {
		t.Fatalf("empty search reported a match")
	}
}
