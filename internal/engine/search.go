// Nearest resource search. The node set is split into chunks scanned by a
// bounded worker pool; each chunk keeps a local minimum and merges it into a
// shared accumulator under a lock. The call joins all workers before it
// returns.
package engine

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/archipelago/internal/world"
)

// Searcher finds the nearest resource node by Manhattan distance.
type Searcher struct {
	Workers int // Max concurrent chunk scans; 0 = GOMAXPROCS
	Chunk   int // Nodes per chunk; inputs no larger than one chunk scan inline
}

// Match is a search result.
type Match struct {
	Node *world.ResourceNode
	Dist float64
}

// closer orders candidates by distance, then by lowest node ID so that ties
// resolve the same way regardless of worker scheduling.
func closer(a, b Match) bool {
	if b.Node == nil {
		return a.Node != nil
	}
	if a.Node == nil {
		return false
	}
	if a.Dist != b.Dist {
		return a.Dist < b.Dist
	}
	return a.Node.ID < b.Node.ID
}

func scan(origin world.Vec2, nodes []*world.ResourceNode) Match {
	var best Match
	for _, n := range nodes {
		m := Match{Node: n, Dist: world.Manhattan(origin, n.Position)}
		if closer(m, best) {
			best = m
		}
	}
	return best
}

// Nearest returns the closest node to origin. ok is false when nodes is
// empty. nodes is only read.
func (s Searcher) Nearest(origin world.Vec2, nodes []*world.ResourceNode) (Match, bool) {
	if len(nodes) == 0 {
		return Match{}, false
	}

	chunk := s.Chunk
	if chunk <= 0 {
		chunk = len(nodes)
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if len(nodes) <= chunk || workers == 1 {
		best := scan(origin, nodes)
		return best, best.Node != nil
	}

	var (
		mu   sync.Mutex
		best Match
		g    errgroup.Group
	)
	g.SetLimit(workers)
	for start := 0; start < len(nodes); start += chunk {
		start := start
		end := min(start+chunk, len(nodes))
		g.Go(func() error {
			local := scan(origin, nodes[start:end])
			mu.Lock()
			if closer(local, best) {
				best = local
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return best, best.Node != nil
}
