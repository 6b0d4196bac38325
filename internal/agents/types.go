// Package agents provides the person data model and the per-person task
// state machine (idle, wandering, gathering).
package agents

import (
	"fmt"

	"github.com/talgya/archipelago/internal/world"
)

// PersonID is a unique identifier for a person. Zero means none.
type PersonID uint64

// TaskKind is the coarse state of a person's task.
type TaskKind uint8

const (
	TaskIdle      TaskKind = iota // No target; eligible to wander or gather
	TaskWandering                 // Walking to a wander destination
	TaskGathering                 // Walking to a resource node to harvest it
)

var taskNames = [...]string{"idle", "wandering", "gathering"}

func (k TaskKind) String() string {
	if int(k) < len(taskNames) {
		return taskNames[k]
	}
	return "unknown"
}

// MarshalText encodes the task kind by name.
func (k TaskKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TaskKind) UnmarshalText(b []byte) error {
	for i, name := range taskNames {
		if name == string(b) {
			*k = TaskKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown task kind %q", b)
}

// Task is a person's current activity. Resource and Node are only
// meaningful while Kind is TaskGathering.
type Task struct {
	Kind     TaskKind           `json:"kind"`
	Resource world.ResourceType `json:"resource,omitempty"`
	Node     world.NodeID       `json:"node,omitempty"`
}

// Person is a simulated inhabitant.
type Person struct {
	ID   PersonID `json:"id"`
	Name string   `json:"name"`

	Task     Task          `json:"task"`
	House    world.HouseID `json:"house_id,omitempty"` // Zero when homeless
	Position world.Vec2    `json:"position"`
	Target   *world.Vec2   `json:"target,omitempty"` // Set iff wandering or gathering

	Handle   world.Handle `json:"-"`
	BornStep uint64       `json:"born_step"`
}

// HasHome reports whether the person is assigned to a house.
func (p *Person) HasHome() bool {
	return p.House != 0
}
