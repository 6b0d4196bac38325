package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/talgya/archipelago/internal/agents"
	"github.com/talgya/archipelago/internal/world"
)

type countingRecorder struct {
	NopRecorder
	reports int
	flushes int
}

func (r *countingRecorder) RecordReport(Report) { r.reports++ }
func (r *countingRecorder) Flush() error        { r.flushes++; return nil }

func TestSpeedClamp(t *testing.T) {
	e := NewEngine(newTestSim(t, testParams()))
	cases := []struct {
		in, want float64
	}{
		{1, 1},
		{2.5, 2.5},
		{-3, 0},
		{MaxSpeed * 2, MaxSpeed},
		{math.NaN(), 0},
	}
	for _, c := range cases {
		e.SetSpeed(c.in)
		if got := e.Speed(); got != c.want {
			t.Errorf("SetSpeed(%v): speed = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestAdvancePublishesOnCadence(t *testing.T) {
	p := testParams()
	p.PublishEvery = 3
	p.ReportEvery = 4
	rec := &countingRecorder{}

	layout := &world.Layout{
		Islands:    []*world.Island{{ID: 1, Name: "Cadence", Radius: 20}},
		HouseSites: []world.HouseSite{{Island: 1}},
	}
	e := NewEngine(NewSimulation(p, layout, 7, Options{Recorder: rec}))
	e.RunID = "run-1"

	if e.Latest() != nil {
		t.Fatalf("snapshot published before any step")
	}
	e.Advance(time.Second / 60)
	e.Advance(time.Second / 60)
	if e.Latest() != nil {
		t.Fatalf("snapshot published off cadence")
	}
	e.Advance(time.Second / 60)
	snap := e.Latest()
	if snap == nil || snap.Step != 3 || snap.RunID != "run-1" {
		t.Fatalf("snapshot = %+v", snap)
	}
	e.Advance(time.Second / 60)
	if rec.reports != 1 || rec.flushes != 1 {
		t.Fatalf("reports %d flushes %d, want 1 and 1", rec.reports, rec.flushes)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := newTestSim(t, testParams(), world.Vec2{X: 3})
	s.AddNode(world.ResourceWater, world.Vec2{X: 12})
	s.AddNode(world.ResourceCoal, world.Vec2{X: -12})
	s.People[0].BeginGather(s.Nodes[2])
	s.Islands[0].Resources.Add(world.ResourceGold, 4)

	snap := s.Snapshot()
	s.People[0].Target.X = 999
	s.Islands[0].Resources.Add(world.ResourceGold, 1)

	p, ok := snap.Person(s.People[0].ID)
	if !ok || p.Target == nil || p.Target.X != -12 {
		t.Fatalf("snapshot person = %+v", p)
	}
	isl, ok := snap.Island(1)
	if !ok || isl.Resources["gold"] != 4 || isl.Houses != 1 || isl.Population != 1 {
		t.Fatalf("snapshot island = %+v", isl)
	}
	if len(snap.Nodes) != 2 || snap.Nodes[0].ID != 1 || snap.Nodes[1].ID != 2 {
		t.Fatalf("nodes not sorted by id: %+v", snap.Nodes)
	}
	if _, ok := snap.Person(agents.PersonID(42)); ok {
		t.Fatalf("found a person that does not exist")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	p := testParams()
	p.PublishEvery = 1
	e := NewEngine(newTestSim(t, p, world.Vec2{}))
	e.Interval = time.Millisecond
	e.SetSpeed(10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		if snap := e.Latest(); snap != nil && snap.Step >= 5 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("engine did not advance")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if e.Latest().Step != e.Sim.StepCount {
		t.Fatalf("final snapshot at step %d, sim at %d", e.Latest().Step, e.Sim.StepCount)
	}
}
