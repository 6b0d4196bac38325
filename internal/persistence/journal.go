// Package persistence writes the run journal to SQLite and exports world
// snapshots as compressed JSON. Nothing is read back into a running world.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/archipelago/internal/agents"
	"github.com/talgya/archipelago/internal/engine"
	"github.com/talgya/archipelago/internal/world"
)

// DB wraps a SQLite connection holding the journals of one or more runs.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.conn.Exec(pragma); err != nil {
			return fmt.Errorf("%s %w", pragma, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		config TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gathers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		person_id INTEGER NOT NULL,
		island_id INTEGER NOT NULL,
		node_id INTEGER NOT NULL,
		resource TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS constructions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		island_id INTEGER NOT NULL,
		house_id INTEGER NOT NULL,
		person_id INTEGER NOT NULL,
		person_name TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		sim_time_ms INTEGER NOT NULL,
		population INTEGER NOT NULL,
		houses INTEGER NOT NULL,
		nodes INTEGER NOT NULL,
		stockpile_json TEXT NOT NULL,
		diagnostics_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_gathers_run ON gathers(run_id);
	CREATE INDEX IF NOT EXISTS idx_constructions_run ON constructions(run_id);
	CREATE INDEX IF NOT EXISTS idx_reports_run ON reports(run_id, step);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one simulation run. Config holds the effective configuration as
// YAML so a journal can be matched to the settings that produced it.
type Run struct {
	ID        string `db:"id"`
	Seed      int64  `db:"seed"`
	StartedAt string `db:"started_at"`
	Config    string `db:"config"`
}

// Construction is a journaled house/person pair.
type Construction struct {
	RunID      string  `db:"run_id"`
	Step       uint64  `db:"step"`
	IslandID   uint64  `db:"island_id"`
	HouseID    uint64  `db:"house_id"`
	PersonID   uint64  `db:"person_id"`
	PersonName string  `db:"person_name"`
	X          float64 `db:"x"`
	Y          float64 `db:"y"`
}

// ReportRow is a journaled periodic report.
type ReportRow struct {
	RunID       string `db:"run_id"`
	Step        uint64 `db:"step"`
	SimTimeMs   int64  `db:"sim_time_ms"`
	Population  int    `db:"population"`
	Houses      int    `db:"houses"`
	Nodes       int    `db:"nodes"`
	Stockpile   string `db:"stockpile_json"`
	Diagnostics string `db:"diagnostics_json"`
}

type gatherRow struct {
	RunID    string `db:"run_id"`
	Step     uint64 `db:"step"`
	PersonID uint64 `db:"person_id"`
	IslandID uint64 `db:"island_id"`
	NodeID   uint64 `db:"node_id"`
	Resource string `db:"resource"`
}

// StartRun records a run and returns a journal that appends to it.
func (db *DB) StartRun(run Run) (*Journal, error) {
	if run.StartedAt == "" {
		run.StartedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := db.conn.NamedExec(
		"INSERT INTO runs (id, seed, started_at, config) VALUES (:id, :seed, :started_at, :config)",
		run,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return &Journal{db: db, runID: run.ID}, nil
}

// Runs lists recorded runs, oldest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, seed, started_at, config FROM runs ORDER BY started_at, id")
	return runs, err
}

// GatherTotals counts journaled gathers per resource name for a run.
func (db *DB) GatherTotals(runID string) (map[string]int, error) {
	var rows []struct {
		Resource string `db:"resource"`
		N        int    `db:"n"`
	}
	err := db.conn.Select(&rows,
		"SELECT resource, COUNT(*) AS n FROM gathers WHERE run_id = ? GROUP BY resource",
		runID,
	)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int, len(rows))
	for _, r := range rows {
		totals[r.Resource] = r.N
	}
	return totals, nil
}

// Constructions returns the most recent N constructions of a run, newest
// first.
func (db *DB) Constructions(runID string, limit int) ([]Construction, error) {
	var out []Construction
	err := db.conn.Select(&out,
		`SELECT run_id, step, island_id, house_id, person_id, person_name, x, y
		FROM constructions WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		runID, limit,
	)
	return out, err
}

// LatestReport returns the last journaled report of a run.
func (db *DB) LatestReport(runID string) (ReportRow, error) {
	var r ReportRow
	err := db.conn.Get(&r,
		`SELECT run_id, step, sim_time_ms, population, houses, nodes, stockpile_json, diagnostics_json
		FROM reports WHERE run_id = ? ORDER BY step DESC, id DESC LIMIT 1`,
		runID,
	)
	return r, err
}

// Journal buffers the outcomes of each step and writes them in one
// transaction per Flush. It implements engine.Recorder and, like the
// simulation, is only used from the step goroutine.
type Journal struct {
	db    *DB
	runID string

	gathers []gatherRow
	builds  []Construction
	reports []ReportRow
}

var _ engine.Recorder = (*Journal)(nil)

// RunID returns the run this journal appends to.
func (j *Journal) RunID() string { return j.runID }

// Pending returns how many rows are buffered.
func (j *Journal) Pending() int {
	return len(j.gathers) + len(j.builds) + len(j.reports)
}

func (j *Journal) RecordGather(ev engine.GatherEvent, island world.IslandID) {
	j.gathers = append(j.gathers, gatherRow{
		RunID:    j.runID,
		Step:     ev.Step,
		PersonID: uint64(ev.Person),
		IslandID: uint64(island),
		NodeID:   uint64(ev.Node),
		Resource: ev.Type.String(),
	})
}

func (j *Journal) RecordConstruction(step uint64, h *world.House, p *agents.Person) {
	j.builds = append(j.builds, Construction{
		RunID:      j.runID,
		Step:       step,
		IslandID:   uint64(h.Island),
		HouseID:    uint64(h.ID),
		PersonID:   uint64(p.ID),
		PersonName: p.Name,
		X:          h.Position.X,
		Y:          h.Position.Y,
	})
}

func (j *Journal) RecordReport(r engine.Report) {
	stock, _ := json.Marshal(r.Stockpile.Map())
	diag, _ := json.Marshal(r.Diag)
	j.reports = append(j.reports, ReportRow{
		RunID:       j.runID,
		Step:        r.Step,
		SimTimeMs:   r.SimTime.Milliseconds(),
		Population:  r.Population,
		Houses:      r.Houses,
		Nodes:       r.Nodes,
		Stockpile:   string(stock),
		Diagnostics: string(diag),
	})
}

// Flush writes all buffered rows. On error the buffer is kept so the next
// flush retries.
func (j *Journal) Flush() error {
	if j.Pending() == 0 {
		return nil
	}

	tx, err := j.db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer tx.Rollback()

	err = insertBatches(tx, "gathers", `INSERT INTO gathers
		(run_id, step, person_id, island_id, node_id, resource)
		VALUES (:run_id, :step, :person_id, :island_id, :node_id, :resource)`, j.gathers)
	if err != nil {
		return err
	}
	err = insertBatches(tx, "constructions", `INSERT INTO constructions
		(run_id, step, island_id, house_id, person_id, person_name, x, y)
		VALUES (:run_id, :step, :island_id, :house_id, :person_id, :person_name, :x, :y)`, j.builds)
	if err != nil {
		return err
	}
	err = insertBatches(tx, "reports", `INSERT INTO reports
		(run_id, step, sim_time_ms, population, houses, nodes, stockpile_json, diagnostics_json)
		VALUES (:run_id, :step, :sim_time_ms, :population, :houses, :nodes, :stockpile_json, :diagnostics_json)`, j.reports)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal: %w", err)
	}

	slog.Debug("journal flushed",
		"run", j.runID,
		"gathers", len(j.gathers),
		"constructions", len(j.builds),
		"reports", len(j.reports),
	)
	j.gathers = j.gathers[:0]
	j.builds = j.builds[:0]
	j.reports = j.reports[:0]
	return nil
}

// batchRows bounds a multi-row insert well under SQLite's host parameter
// limit.
const batchRows = 500

func insertBatches[T any](tx *sqlx.Tx, table, query string, rows []T) error {
	for start := 0; start < len(rows); start += batchRows {
		end := min(start+batchRows, len(rows))
		if _, err := tx.NamedExec(query, rows[start:end]); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}
