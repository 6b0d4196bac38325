package persistence

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/archipelago/internal/agents"
	"github.com/talgya/archipelago/internal/engine"
	"github.com/talgya/archipelago/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal", "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJournalFlushWritesBufferedRows(t *testing.T) {
	db := openTestDB(t)
	j, err := db.StartRun(Run{ID: "run-a", Seed: 42, Config: "seed: 42\n"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	for i := 0; i < 3; i++ {
		j.RecordGather(engine.GatherEvent{Person: 1, Type: world.ResourceWood, Node: world.NodeID(i + 1), Step: uint64(10 + i)}, 1)
	}
	j.RecordGather(engine.GatherEvent{Person: 2, Type: world.ResourceGold, Node: 9, Step: 14}, 2)
	j.RecordConstruction(20,
		&world.House{ID: 5, Island: 1, Position: world.Vec2{X: 3, Y: -4}},
		&agents.Person{ID: 7, Name: "Wren Tidewell"},
	)
	var stock world.Pool
	stock.Add(world.ResourceWood, 1)
	j.RecordReport(engine.Report{Step: 30, SimTime: 1500 * time.Millisecond, Population: 7, Houses: 5, Nodes: 12, Stockpile: stock})

	if j.Pending() != 6 {
		t.Fatalf("pending = %d, want 6", j.Pending())
	}
	if err := j.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if j.Pending() != 0 {
		t.Fatalf("pending after flush = %d", j.Pending())
	}

	totals, err := db.GatherTotals("run-a")
	if err != nil {
		t.Fatalf("GatherTotals: %v", err)
	}
	if totals["wood"] != 3 || totals["gold"] != 1 || len(totals) != 2 {
		t.Fatalf("totals = %v", totals)
	}

	builds, err := db.Constructions("run-a", 10)
	if err != nil {
		t.Fatalf("Constructions: %v", err)
	}
	if len(builds) != 1 || builds[0].PersonName != "Wren Tidewell" || builds[0].Y != -4 {
		t.Fatalf("constructions = %+v", builds)
	}

	rep, err := db.LatestReport("run-a")
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if rep.Step != 30 || rep.SimTimeMs != 1500 || rep.Population != 7 {
		t.Fatalf("report = %+v", rep)
	}
	var pool map[string]int
	if err := json.Unmarshal([]byte(rep.Stockpile), &pool); err != nil || pool["wood"] != 1 {
		t.Fatalf("stockpile json %q: %v", rep.Stockpile, err)
	}
}

func TestJournalFlushEmptyIsNoop(t *testing.T) {
	db := openTestDB(t)
	j, err := db.StartRun(Run{ID: "empty", Seed: 1, Config: ""})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := j.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestJournalLargeFlushIsBatched(t *testing.T) {
	db := openTestDB(t)
	j, err := db.StartRun(Run{ID: "big", Seed: 3})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	const n = 3*batchRows + 17
	for i := 0; i < n; i++ {
		j.RecordGather(engine.GatherEvent{Person: 1, Type: world.ResourceCoal, Node: world.NodeID(i + 1)}, 1)
	}
	if err := j.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	totals, err := db.GatherTotals("big")
	if err != nil {
		t.Fatalf("GatherTotals: %v", err)
	}
	if totals["coal"] != n {
		t.Fatalf("coal = %d, want %d", totals["coal"], n)
	}
}

func TestRunsAreSeparated(t *testing.T) {
	db := openTestDB(t)
	for _, id := range []string{"first", "second"} {
		j, err := db.StartRun(Run{ID: id, Seed: 9})
		if err != nil {
			t.Fatalf("StartRun(%s): %v", id, err)
		}
		j.RecordGather(engine.GatherEvent{Person: 1, Type: world.ResourceIron}, 1)
		if err := j.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}
	if _, err := db.StartRun(Run{ID: "first", Seed: 9}); err == nil {
		t.Fatalf("duplicate run id accepted")
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %+v", runs)
	}
	totals, err := db.GatherTotals("second")
	if err != nil {
		t.Fatalf("GatherTotals: %v", err)
	}
	if totals["iron"] != 1 {
		t.Fatalf("second run totals = %v", totals)
	}
}

// The journal plugged into a live simulation records every delivered
// gather and every construction.
func TestJournalRecordsSimulation(t *testing.T) {
	db := openTestDB(t)
	j, err := db.StartRun(Run{ID: "live", Seed: 42})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	cfg := world.SmallTestConfig()
	p := engine.DefaultParams()
	p.ReportEvery = 0
	layout := world.Generate(cfg, entropySource(cfg.Seed))
	sim := engine.NewSimulation(p, layout, cfg.Seed, engine.Options{Recorder: j})
	for i := 0; i < 2000; i++ {
		sim.Step(50 * time.Millisecond)
	}
	sim.Report()
	if err := j.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	totals, err := db.GatherTotals("live")
	if err != nil {
		t.Fatalf("GatherTotals: %v", err)
	}
	var sum int
	for _, n := range totals {
		sum += n
	}
	if uint64(sum) != sim.Diag.Delivered {
		t.Fatalf("journaled %d gathers, delivered %d", sum, sim.Diag.Delivered)
	}
	builds, err := db.Constructions("live", 1<<20)
	if err != nil {
		t.Fatalf("Constructions: %v", err)
	}
	if uint64(len(builds)) != sim.Diag.HousesBuilt {
		t.Fatalf("journaled %d constructions, built %d", len(builds), sim.Diag.HousesBuilt)
	}
	rep, err := db.LatestReport("live")
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if rep.Step != sim.StepCount || rep.Population != len(sim.People) {
		t.Fatalf("report %+v, sim at step %d with %d people", rep, sim.StepCount, len(sim.People))
	}
}
