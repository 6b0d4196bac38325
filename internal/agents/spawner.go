// Person spawning: identity issue and naming for colonists and newcomers.
package agents

import (
	"github.com/talgya/archipelago/internal/entropy"
	"github.com/talgya/archipelago/internal/world"
)

// Spawner creates people with unique IDs and generated names.
type Spawner struct {
	rng    entropy.Source
	nextID PersonID
}

// NewSpawner creates a person spawner drawing names from src.
func NewSpawner(src entropy.Source) *Spawner {
	return &Spawner{
		rng:    src,
		nextID: 1,
	}
}

// NextID returns the ID the next spawned person will receive.
func (s *Spawner) NextID() PersonID {
	return s.nextID
}

// Spawn creates an idle person at pos, assigned to house (zero for none).
func (s *Spawner) Spawn(pos world.Vec2, house world.HouseID, step uint64) *Person {
	id := s.nextID
	s.nextID++

	return &Person{
		ID:       id,
		Name:     s.generateName(),
		Task:     Task{Kind: TaskIdle},
		House:    house,
		Position: pos,
		BornStep: step,
	}
}

func (s *Spawner) generateName() string {
	return entropy.Pick(s.rng, givenNames) + " " + entropy.Pick(s.rng, familyNames)
}

// Name pools for procedural generation.
var givenNames = []string{
	"Alina", "Bram", "Cora", "Doran", "Elena", "Finn", "Greta",
	"Hugo", "Iris", "Jasper", "Kira", "Leif", "Mira", "Nils",
	"Olwen", "Petra", "Quinn", "Runa", "Stellan", "Thea", "Ulric",
	"Vera", "Wren", "Yara", "Zander",
}

var familyNames = []string{
	"Saltmarsh", "Driftwood", "Gullwing", "Tidewell", "Reefborn",
	"Kelpford", "Stonebeach", "Harbour", "Netmender", "Shellcombe",
	"Waverly", "Rockpool", "Seaholm", "Brine", "Coves",
}
