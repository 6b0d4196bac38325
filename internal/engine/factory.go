package engine

import (
	"sync/atomic"

	"github.com/talgya/archipelago/internal/world"
)

// EntityKind names the visible object the core asks the presentation layer
// to create.
type EntityKind uint8

const (
	KindIsland EntityKind = iota
	KindHouse
	KindPerson
	KindResource
)

func (k EntityKind) String() string {
	switch k {
	case KindIsland:
		return "island"
	case KindHouse:
		return "house"
	case KindPerson:
		return "person"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// EntityFactory creates and removes visible objects on behalf of the core.
// The returned handle is stored on the entity and never interpreted.
type EntityFactory interface {
	Spawn(kind EntityKind, pos world.Vec2, owner world.Handle) world.Handle
	Despawn(h world.Handle)
}

// CountingFactory hands out sequential handles and tracks how many objects
// are live. Used when no presentation layer is attached.
type CountingFactory struct {
	next    atomic.Uint64
	live    atomic.Int64
	removed atomic.Uint64
}

func (f *CountingFactory) Spawn(kind EntityKind, pos world.Vec2, owner world.Handle) world.Handle {
	f.live.Add(1)
	return world.Handle(f.next.Add(1))
}

func (f *CountingFactory) Despawn(h world.Handle) {
	if h == 0 {
		return
	}
	f.live.Add(-1)
	f.removed.Add(1)
}

// Live returns the number of spawned, not yet removed objects.
func (f *CountingFactory) Live() int64 { return f.live.Load() }

// Removed returns how many objects have been removed.
func (f *CountingFactory) Removed() uint64 { return f.removed.Load() }
