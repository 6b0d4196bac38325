// Task transitions. The engine decides when a transition is attempted
// (timer fires, arrivals); these functions keep Task and Target consistent.
package agents

import (
	"github.com/talgya/archipelago/internal/world"
)

// ArrivalKind reports what a person was doing when they reached a target.
type ArrivalKind uint8

const (
	ArrivedNowhere ArrivalKind = iota // No target was set
	ArrivedWander
	ArrivedGather
)

// Arrival is the outcome of reaching a target.
type Arrival struct {
	Kind     ArrivalKind
	Resource world.ResourceType
	Node     world.NodeID
}

// CanWander reports whether the wander pass may assign a destination.
func (p *Person) CanWander() bool {
	return p.Task.Kind == TaskIdle
}

// CanGather reports whether the gather pass may assign a resource node.
func (p *Person) CanGather() bool {
	return p.Task.Kind == TaskIdle || p.Task.Kind == TaskWandering
}

// BeginWander sets a wander destination.
func (p *Person) BeginWander(dest world.Vec2) {
	p.Task = Task{Kind: TaskWandering}
	p.Target = &dest
}

// BeginGather points the person at a resource node, replacing any wander.
func (p *Person) BeginGather(node *world.ResourceNode) {
	p.Task = Task{Kind: TaskGathering, Resource: node.Type, Node: node.ID}
	dest := node.Position
	p.Target = &dest
}

// Arrive clears the target, returns to idle and reports what was finished.
func (p *Person) Arrive() Arrival {
	prev := p.Task
	p.Target = nil
	p.Task = Task{Kind: TaskIdle}

	switch prev.Kind {
	case TaskGathering:
		return Arrival{Kind: ArrivedGather, Resource: prev.Resource, Node: prev.Node}
	case TaskWandering:
		return Arrival{Kind: ArrivedWander}
	default:
		return Arrival{Kind: ArrivedNowhere}
	}
}

// Consistent reports whether Target presence matches the task kind.
func (p *Person) Consistent() bool {
	moving := p.Task.Kind == TaskWandering || p.Task.Kind == TaskGathering
	return moving == (p.Target != nil)
}
