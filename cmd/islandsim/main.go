// Command islandsim runs the archipelago settlement simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/archipelago/internal/api"
	"github.com/talgya/archipelago/internal/config"
	"github.com/talgya/archipelago/internal/engine"
	"github.com/talgya/archipelago/internal/entropy"
	"github.com/talgya/archipelago/internal/persistence"
	"github.com/talgya/archipelago/internal/world"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults when empty)")
	seedFlag := flag.Int64("seed", -1, "override the world seed (0 = random)")
	portFlag := flag.Int("port", -1, "override api.port (0 disables the API)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *seedFlag >= 0 {
		cfg.Seed = *seedFlag
	}
	if *portFlag >= 0 {
		cfg.API.Port = *portFlag
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.RandomSeed()
	}
	runID := uuid.NewString()
	slog.Info("Archipelago settlement simulation", "run", runID, "seed", seed)

	// ── World ─────────────────────────────────────────────────────────
	cfg.World.Seed = seed
	layout := world.Generate(cfg.World, entropy.NewSeeded(seed))

	counts := world.ResourceCounts(layout.Nodes)
	for t, n := range counts {
		slog.Info("resources", "type", world.ResourceType(t), "count", n)
	}
	slog.Info("world generated",
		"islands", len(layout.Islands),
		"house_sites", len(layout.HouseSites),
		"nodes", len(layout.Nodes),
	)

	// ── Journal ───────────────────────────────────────────────────────
	var recorder engine.Recorder = engine.NopRecorder{}
	var db *persistence.DB
	if cfg.Journal.Enabled {
		db, err = persistence.Open(cfg.Journal.Path)
		if err != nil {
			slog.Error("failed to open journal", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		journal, err := db.StartRun(persistence.Run{ID: runID, Seed: seed, Config: cfg.YAML()})
		if err != nil {
			slog.Error("failed to start run journal", "error", err)
			os.Exit(1)
		}
		recorder = journal
		slog.Info("journal opened", "path", cfg.Journal.Path)
	}

	// ── Engine ────────────────────────────────────────────────────────
	sim := engine.NewSimulation(cfg.Sim, layout, seed, engine.Options{Recorder: recorder})
	eng := engine.NewEngine(sim)
	eng.Interval = cfg.TickInterval
	eng.RunID = runID
	eng.SetSpeed(cfg.Speed)
	eng.Publish()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── HTTP API ──────────────────────────────────────────────────────
	var apiServer *api.Server
	if cfg.API.Port > 0 {
		if cfg.API.AdminKey == "" {
			slog.Warn(config.AdminKeyEnv + " not set; admin POST endpoints will be disabled")
		}
		hub := api.NewHub(eng)
		go hub.Run(ctx)

		apiServer = &api.Server{
			Eng:         eng,
			Port:        cfg.API.Port,
			AdminKey:    cfg.API.AdminKey,
			SnapshotDir: cfg.Snapshot.Dir,
			Stream:      hub,
		}
		apiServer.Start()
	}

	fmt.Printf("\nArchipelago is alive: %d people in %d houses across %d islands, %d deposits to harvest.\n",
		len(sim.People), len(sim.Houses), len(sim.Islands), len(sim.Nodes))
	if apiServer != nil {
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("API shutdown failed", "error", err)
		}
		cancel()
	}

	// Final snapshot on shutdown.
	if cfg.Snapshot.Dir != "" {
		snap := eng.Latest()
		path := persistence.SnapshotPath(cfg.Snapshot.Dir, runID, snap.Step)
		if err := persistence.WriteSnapshot(path, snap); err != nil {
			slog.Error("final snapshot failed", "error", err)
		} else {
			slog.Info("final snapshot written", "path", path)
		}
	}

	fmt.Println("Simulation stopped.")
}
