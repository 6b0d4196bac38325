// Population growth: islands that stockpile enough of the construction
// resource build a house and settle a newcomer in it.
package engine

import (
	"log/slog"

	"github.com/talgya/archipelago/internal/world"
)

// processConstruction checks every island whose pool changed this step and
// builds as many house/person pairs as the stockpile pays for.
func (s *Simulation) processConstruction() {
	res := s.Params.ConstructionResource
	cost := s.Params.ConstructionCost

	for _, id := range s.changedIslands() {
		isl := s.Island(id)
		if isl == nil || cost <= 0 {
			continue
		}
		if isl.Resources.Get(res) < cost {
			s.Diag.BelowThreshold++
			continue
		}
		for isl.Resources.Take(res, cost) {
			s.build(isl)
		}
	}
}

func (s *Simulation) build(isl *world.Island) {
	pos := isl.RandomPoint(s.spawnRNG)
	h := s.addHouse(isl.ID, pos)
	p := s.addPerson(pos, h.ID)

	s.Diag.HousesBuilt++
	s.Diag.PeopleSpawned++
	s.logEvent("construction", "%s settled a new house on %s", p.Name, isl.Name)
	s.Recorder.RecordConstruction(s.StepCount, h, p)

	slog.Debug("house built",
		"island", isl.Name,
		"house", h.ID,
		"person", p.Name,
		"x", pos.X,
		"y", pos.Y,
	)
}
