// Package engine runs the archipelago step: timers, task assignment,
// nearest-resource search, movement, gather delivery and construction.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/archipelago/internal/agents"
	"github.com/talgya/archipelago/internal/entropy"
	"github.com/talgya/archipelago/internal/world"
)

// Simulation holds the complete world state and wires systems together.
// Entities live in flat arenas; relations are stored as IDs. Islands,
// houses and people are indexed by ID-1 since their IDs are dense.
type Simulation struct {
	Params Params

	Islands []*world.Island
	Houses  []*world.House
	People  []*agents.Person
	Nodes   map[world.NodeID]*world.ResourceNode

	StepCount uint64        // Most recent step processed
	SimTime   time.Duration // Accumulated simulated time

	WanderTimer *Timer
	GatherTimer *Timer
	Gathers     GatherQueue
	Search      Searcher

	Spawner  *agents.Spawner
	Factory  EntityFactory
	Recorder Recorder

	Diag   Diagnostics
	Events []Event // Recent notable events, trimmed on report

	wanderRNG entropy.Source
	gatherRNG entropy.Source
	spawnRNG  entropy.Source

	changed  map[world.IslandID]struct{}
	nextNode world.NodeID
}

// Event is a notable occurrence in the world.
type Event struct {
	Step        uint64 `json:"step"`
	Description string `json:"description"`
	Category    string `json:"category"` // "construction", "gather", ...
}

// Options carry the collaborators a Simulation is built with. Zero values
// fall back to a counting factory and a no-op recorder.
type Options struct {
	Factory  EntityFactory
	Recorder Recorder
}

// NewSimulation builds the arenas from a generated layout, builds a house
// on every site and colonizes each with one person. All randomness after
// setup is drawn from sources derived from seed.
func NewSimulation(p Params, layout *world.Layout, seed int64, opts Options) *Simulation {
	if opts.Factory == nil {
		opts.Factory = &CountingFactory{}
	}
	if opts.Recorder == nil {
		opts.Recorder = NopRecorder{}
	}

	s := &Simulation{
		Params:      p,
		Nodes:       make(map[world.NodeID]*world.ResourceNode, len(layout.Nodes)),
		WanderTimer: NewTimer(p.WanderPeriod),
		GatherTimer: NewTimer(p.GatherPeriod),
		Search:      Searcher{Workers: p.SearchWorkers, Chunk: p.SearchChunk},
		Spawner:     agents.NewSpawner(entropy.Derive(seed, 300)),
		Factory:     opts.Factory,
		Recorder:    opts.Recorder,
		wanderRNG:   entropy.Derive(seed, 400),
		gatherRNG:   entropy.Derive(seed, 500),
		spawnRNG:    entropy.Derive(seed, 600),
		changed:     make(map[world.IslandID]struct{}),
		nextNode:    1,
	}

	for _, isl := range layout.Islands {
		isl.Handle = s.Factory.Spawn(KindIsland, isl.Position, 0)
		s.Islands = append(s.Islands, isl)
	}
	for _, n := range layout.Nodes {
		n.Handle = s.Factory.Spawn(KindResource, n.Position, 0)
		s.Nodes[n.ID] = n
		s.nextNode = max(s.nextNode, n.ID+1)
	}
	for _, site := range layout.HouseSites {
		h := s.addHouse(site.Island, site.Position)
		if h == nil {
			continue
		}
		s.addPerson(h.Position, h.ID)
	}
	return s
}

// SetRandom replaces the random sources of the wander, gather and spawn
// systems. Intended for tests that script draws.
func (s *Simulation) SetRandom(wander, gather, spawn entropy.Source) {
	s.wanderRNG = wander
	s.gatherRNG = gather
	s.spawnRNG = spawn
}

// Step advances the world by dt. Systems run in a fixed order and each runs
// to completion before the next starts.
func (s *Simulation) Step(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	s.StepCount++
	s.SimTime += dt

	wander := s.WanderTimer.Tick(dt)
	gather := s.GatherTimer.Tick(dt)

	if wander {
		s.assignWander()
	}
	if gather {
		s.assignGather()
	}
	s.moveAll(dt)
	s.deliverGathers()
	s.processConstruction()
}

// Island returns the island with the given ID, or nil.
func (s *Simulation) Island(id world.IslandID) *world.Island {
	if id == 0 || int(id) > len(s.Islands) {
		return nil
	}
	return s.Islands[id-1]
}

// House returns the house with the given ID, or nil.
func (s *Simulation) House(id world.HouseID) *world.House {
	if id == 0 || int(id) > len(s.Houses) {
		return nil
	}
	return s.Houses[id-1]
}

// Person returns the person with the given ID, or nil.
func (s *Simulation) Person(id agents.PersonID) *agents.Person {
	if id == 0 || int(id) > len(s.People) {
		return nil
	}
	return s.People[id-1]
}

// AddNode plants a resource node after setup and returns it. IDs of
// consumed nodes are never reissued.
func (s *Simulation) AddNode(t world.ResourceType, pos world.Vec2) *world.ResourceNode {
	n := &world.ResourceNode{ID: s.nextNode, Type: t, Position: pos}
	s.nextNode++
	n.Handle = s.Factory.Spawn(KindResource, pos, 0)
	s.Nodes[n.ID] = n
	return n
}

func (s *Simulation) addHouse(island world.IslandID, pos world.Vec2) *world.House {
	isl := s.Island(island)
	if isl == nil {
		return nil
	}
	h := &world.House{
		ID:       world.HouseID(len(s.Houses) + 1),
		Island:   island,
		Position: pos,
		BuiltAt:  s.StepCount,
	}
	h.Handle = s.Factory.Spawn(KindHouse, pos, isl.Handle)
	s.Houses = append(s.Houses, h)
	return h
}

func (s *Simulation) addPerson(pos world.Vec2, house world.HouseID) *agents.Person {
	p := s.Spawner.Spawn(pos, house, s.StepCount)
	var owner world.Handle
	if h := s.House(house); h != nil {
		owner = h.Handle
	}
	p.Handle = s.Factory.Spawn(KindPerson, pos, owner)
	s.People = append(s.People, p)
	return p
}

// Report summarizes the world for logging and the journal.
type Report struct {
	Step       uint64        `json:"step"`
	SimTime    time.Duration `json:"sim_time"`
	Population int           `json:"population"`
	Houses     int           `json:"houses"`
	Nodes      int           `json:"nodes"`
	Idle       int           `json:"idle"`
	Wandering  int           `json:"wandering"`
	Gathering  int           `json:"gathering"`
	Stockpile  world.Pool    `json:"stockpile"` // Sum over islands
	Diag       Diagnostics   `json:"diagnostics"`
}

// BuildReport tallies the current state.
func (s *Simulation) BuildReport() Report {
	r := Report{
		Step:       s.StepCount,
		SimTime:    s.SimTime,
		Population: len(s.People),
		Houses:     len(s.Houses),
		Nodes:      len(s.Nodes),
		Diag:       s.Diag,
	}
	for _, p := range s.People {
		switch p.Task.Kind {
		case agents.TaskIdle:
			r.Idle++
		case agents.TaskWandering:
			r.Wandering++
		case agents.TaskGathering:
			r.Gathering++
		}
	}
	for _, isl := range s.Islands {
		for t, n := range isl.Resources {
			r.Stockpile.Add(world.ResourceType(t), n)
		}
	}
	return r
}

// Report logs a summary, hands it to the recorder and trims the event log.
func (s *Simulation) Report() Report {
	r := s.BuildReport()

	slog.Info("periodic report",
		"step", humanize.Comma(int64(r.Step)),
		"sim_time", r.SimTime.Truncate(time.Second).String(),
		"population", r.Population,
		"houses", r.Houses,
		"nodes_left", r.Nodes,
		"idle", r.Idle,
		"wandering", r.Wandering,
		"gathering", r.Gathering,
		"wood", r.Stockpile.Get(world.ResourceWood),
		"delivered", humanize.Comma(int64(r.Diag.Delivered)),
		"dropped", r.Diag.DroppedGathers,
		"stale", r.Diag.StaleGathers,
		"empty_searches", humanize.Comma(int64(r.Diag.EmptySearches)),
	)

	s.Recorder.RecordReport(r)

	// Trim old events to prevent unbounded growth (keep last 1000).
	if len(s.Events) > 1000 {
		s.Events = s.Events[len(s.Events)-1000:]
	}
	return r
}

// changedIslands returns the IDs of islands whose pool changed this step in
// ascending order and resets the set.
func (s *Simulation) changedIslands() []world.IslandID {
	ids := make([]world.IslandID, 0, len(s.changed))
	for id := range s.changed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	clear(s.changed)
	return ids
}

func (s *Simulation) logEvent(category, format string, args ...any) {
	s.Events = append(s.Events, Event{
		Step:        s.StepCount,
		Description: fmt.Sprintf(format, args...),
		Category:    category,
	})
}
