// Task assignment passes, run only on the step their timer fires.
package engine

import (
	"github.com/talgya/archipelago/internal/agents"
	"github.com/talgya/archipelago/internal/entropy"
	"github.com/talgya/archipelago/internal/world"
)

// assignWander sends idle people to a random point near home, or near the
// origin when they have no resolvable home.
func (s *Simulation) assignWander() {
	r := s.Params.WanderRadius
	for _, p := range s.People {
		if !p.CanWander() {
			continue
		}
		if entropy.Chance(s.wanderRNG, s.Params.WanderSkipChance) {
			s.Diag.WanderSkipped++
			continue
		}
		anchor := world.Origin
		if p.HasHome() {
			if h := s.House(p.House); h != nil {
				anchor = h.Position
			}
		}
		offset := world.Vec2{
			X: entropy.Range(s.wanderRNG, -r, r),
			Y: entropy.Range(s.wanderRNG, -r, r),
		}
		p.BeginWander(anchor.Add(offset))
		s.Diag.WanderAssigned++
	}
}

// assignGather points idle and wandering people at their nearest live node.
// The node list is built once per pass; nodes are only removed on arrival,
// so it stays valid for the whole pass.
func (s *Simulation) assignGather() {
	nodes := s.liveNodes()
	for _, p := range s.People {
		if !p.CanGather() {
			continue
		}
		if entropy.Chance(s.gatherRNG, s.Params.GatherSkipChance) {
			s.Diag.GatherSkipped++
			continue
		}
		if !s.tryGather(p, nodes) {
			s.Diag.EmptySearches++
		}
	}
}

func (s *Simulation) tryGather(p *agents.Person, nodes []*world.ResourceNode) bool {
	m, ok := s.Search.Nearest(p.Position, nodes)
	if !ok {
		return false
	}
	if s.Params.GatherRadius > 0 && m.Dist > s.Params.GatherRadius {
		return false
	}
	p.BeginGather(m.Node)
	s.Diag.GatherAssigned++
	return true
}

func (s *Simulation) liveNodes() []*world.ResourceNode {
	nodes := make([]*world.ResourceNode, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		nodes = append(nodes, n)
	}
	return nodes
}
