package engine

import (
	"sort"
	"time"

	"github.com/talgya/archipelago/internal/agents"
	"github.com/talgya/archipelago/internal/world"
)

// Snapshot is an immutable copy of the world published for readers outside
// the step goroutine (HTTP API, observer stream, snapshot export).
type Snapshot struct {
	RunID   string        `json:"run_id"`
	Step    uint64        `json:"step"`
	SimTime time.Duration `json:"sim_time"`
	TakenAt time.Time     `json:"taken_at"`

	Islands []IslandView         `json:"islands"`
	Houses  []world.House        `json:"houses"`
	People  []agents.Person      `json:"people"`
	Nodes   []world.ResourceNode `json:"nodes"`

	Diag   Diagnostics `json:"diagnostics"`
	Events []Event     `json:"events"`
}

// IslandView is the display form of an island.
type IslandView struct {
	ID         world.IslandID `json:"id"`
	Name       string         `json:"name"`
	Position   world.Vec2     `json:"position"`
	Radius     float64        `json:"radius"`
	Resources  map[string]int `json:"resources"`
	Houses     int            `json:"houses"`
	Population int            `json:"population"`
}

// recentEvents is how many log entries a snapshot carries.
const recentEvents = 50

// Snapshot copies the current state. Must be called from the step goroutine.
func (s *Simulation) Snapshot() *Snapshot {
	snap := &Snapshot{
		Step:    s.StepCount,
		SimTime: s.SimTime,
		TakenAt: time.Now(),
		Houses:  make([]world.House, 0, len(s.Houses)),
		People:  make([]agents.Person, 0, len(s.People)),
		Nodes:   make([]world.ResourceNode, 0, len(s.Nodes)),
		Diag:    s.Diag,
	}

	houses := make(map[world.IslandID]int)
	for _, h := range s.Houses {
		snap.Houses = append(snap.Houses, *h)
		houses[h.Island]++
	}

	population := make(map[world.IslandID]int)
	for _, p := range s.People {
		cp := *p
		if p.Target != nil {
			t := *p.Target
			cp.Target = &t
		}
		snap.People = append(snap.People, cp)
		if h := s.House(p.House); h != nil {
			population[h.Island]++
		}
	}

	for _, isl := range s.Islands {
		snap.Islands = append(snap.Islands, IslandView{
			ID:         isl.ID,
			Name:       isl.Name,
			Position:   isl.Position,
			Radius:     isl.Radius,
			Resources:  isl.Resources.Map(),
			Houses:     houses[isl.ID],
			Population: population[isl.ID],
		})
	}

	for _, n := range s.Nodes {
		snap.Nodes = append(snap.Nodes, *n)
	}
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].ID < snap.Nodes[j].ID })

	start := max(0, len(s.Events)-recentEvents)
	snap.Events = append([]Event(nil), s.Events[start:]...)
	return snap
}

// Person returns the person with the given ID from the snapshot.
func (snap *Snapshot) Person(id agents.PersonID) (agents.Person, bool) {
	i := sort.Search(len(snap.People), func(i int) bool { return snap.People[i].ID >= id })
	if i < len(snap.People) && snap.People[i].ID == id {
		return snap.People[i], true
	}
	return agents.Person{}, false
}

// Island returns the island view with the given ID from the snapshot.
func (snap *Snapshot) Island(id world.IslandID) (IslandView, bool) {
	for _, isl := range snap.Islands {
		if isl.ID == id {
			return isl, true
		}
	}
	return IslandView{}, false
}
