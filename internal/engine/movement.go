// Movement integrator: constant-speed straight-line travel with arrival
// detection ahead of the move.
package engine

import (
	"log/slog"
	"math"
	"time"

	"github.com/talgya/archipelago/internal/agents"
)

// moveAll advances every person with a target. A person already within the
// arrival threshold arrives without moving this step; otherwise they move
// toward the target by speed·dt, never past it.
func (s *Simulation) moveAll(dt time.Duration) {
	travel := dt.Seconds() * s.Params.PersonSpeed
	for _, p := range s.People {
		if p.Target == nil {
			continue
		}
		d := p.Target.Sub(p.Position)
		if d.LenSq() < s.Params.ArrivalThresholdSq {
			s.arrive(p)
			continue
		}
		if travel <= 0 {
			continue
		}
		dist := d.Len()
		p.Position = p.Position.Add(d.Scale(math.Min(travel, dist) / dist))
	}
}

// arrive runs the arrival transition. A gather arrival consumes the node and
// emits an event, unless someone else consumed it first.
func (s *Simulation) arrive(p *agents.Person) {
	s.Diag.Arrivals++
	arr := p.Arrive()
	if arr.Kind != agents.ArrivedGather {
		return
	}

	node, ok := s.Nodes[arr.Node]
	if !ok {
		s.Diag.StaleGathers++
		slog.Debug("gather target already consumed", "person", p.ID, "node", arr.Node)
		return
	}
	delete(s.Nodes, node.ID)
	s.Factory.Despawn(node.Handle)
	s.Diag.NodesConsumed++

	s.Gathers.Push(GatherEvent{
		Person: p.ID,
		Type:   arr.Resource,
		Node:   node.ID,
		Step:   s.StepCount,
	})
}
