package engine

import (
	"github.com/talgya/archipelago/internal/agents"
	"github.com/talgya/archipelago/internal/world"
)

// Recorder receives the notable outcomes of each step. Implementations
// buffer and write out on Flush; the step never waits on storage.
type Recorder interface {
	RecordGather(ev GatherEvent, island world.IslandID)
	RecordConstruction(step uint64, h *world.House, p *agents.Person)
	RecordReport(r Report)
	Flush() error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordGather(GatherEvent, world.IslandID) {}
func (NopRecorder) RecordConstruction(uint64, *world.House, *agents.Person) {}
func (NopRecorder) RecordReport(Report) {}
func (NopRecorder) Flush() error { return nil }
