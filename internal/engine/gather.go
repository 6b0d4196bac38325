// Gather event channel and island resource pool delivery.
package engine

import (
	"log/slog"

	"github.com/talgya/archipelago/internal/agents"
	"github.com/talgya/archipelago/internal/world"
)

// GatherEvent records that a person finished harvesting a node.
type GatherEvent struct {
	Person agents.PersonID    `json:"person_id"`
	Type   world.ResourceType `json:"type"`
	Node   world.NodeID       `json:"node_id"`
	Step   uint64             `json:"step"`
}

// GatherQueue is a FIFO of gather events with a single consumer that drains
// everything pending once per step.
type GatherQueue struct {
	pending []GatherEvent
}

// Push appends an event.
func (q *GatherQueue) Push(ev GatherEvent) {
	q.pending = append(q.pending, ev)
}

// Drain returns all pending events in FIFO order and empties the queue.
func (q *GatherQueue) Drain() []GatherEvent {
	out := q.pending
	q.pending = nil
	return out
}

// Len returns the number of pending events.
func (q *GatherQueue) Len() int {
	return len(q.pending)
}

// deliverGathers drains the queue into island pools. Events whose person,
// house or island cannot be resolved are dropped and counted.
func (s *Simulation) deliverGathers() {
	for _, ev := range s.Gathers.Drain() {
		isl := s.islandOf(ev.Person)
		if isl == nil {
			s.Diag.DroppedGathers++
			slog.Debug("gather dropped, no island", "person", ev.Person, "type", ev.Type)
			continue
		}
		isl.Resources.Add(ev.Type, 1)
		s.changed[isl.ID] = struct{}{}
		s.Diag.Delivered++
		s.Recorder.RecordGather(ev, isl.ID)
	}
}

// islandOf follows person → house → island.
func (s *Simulation) islandOf(id agents.PersonID) *world.Island {
	p := s.Person(id)
	if p == nil {
		return nil
	}
	h := s.House(p.House)
	if h == nil {
		return nil
	}
	return s.Island(h.Island)
}
