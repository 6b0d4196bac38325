// Package api serves the published world snapshot over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/archipelago/internal/agents"
	"github.com/talgya/archipelago/internal/engine"
	"github.com/talgya/archipelago/internal/persistence"
	"github.com/talgya/archipelago/internal/world"
)

// Server serves the world state over HTTP. Handlers only read the engine's
// latest published snapshot; they never touch the live simulation.
type Server struct {
	Eng         *engine.Engine
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	SnapshotDir string // Where POST /api/v1/snapshot writes exports
	Stream      *Hub   // Observer stream; nil disables /api/v1/stream

	srv *http.Server
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	snapshotLimiter := NewRateLimiter(6, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/islands", s.handleIslands)
	mux.HandleFunc("/api/v1/island/", s.handleIslandDetail)
	mux.HandleFunc("/api/v1/houses", s.handleHouses)
	mux.HandleFunc("/api/v1/people", s.handlePeople)
	mux.HandleFunc("/api/v1/person/", s.handlePersonDetail)
	mux.HandleFunc("/api/v1/resources", s.handleResources)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)

	// Observer stream (websocket, read-only).
	if s.Stream != nil {
		mux.HandleFunc("/api/v1/stream", s.Stream.ServeHTTP)
	}

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(RateLimitMiddleware(snapshotLimiter, s.handleSnapshot)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "stream", s.Stream != nil)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the listener and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// snapshot returns the latest published snapshot, or writes 503 and nil
// when the engine has not published yet.
func (s *Server) snapshot(w http.ResponseWriter) *engine.Snapshot {
	snap := s.Eng.Latest()
	if snap == nil {
		http.Error(w, "world not ready", http.StatusServiceUnavailable)
	}
	return snap
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	stock := world.Pool{}
	for _, isl := range snap.Islands {
		for name, n := range isl.Resources {
			if t, err := world.ParseResourceType(name); err == nil {
				stock.Add(t, n)
			}
		}
	}

	speed := s.Eng.Speed()
	status := map[string]any{
		"name":         "Archipelago",
		"run_id":       snap.RunID,
		"step":         snap.Step,
		"step_display": humanize.Comma(int64(snap.Step)),
		"sim_time":     snap.SimTime.Truncate(time.Second).String(),
		"speed":        speed,
		"paused":       speed == 0,
		"islands":      len(snap.Islands),
		"houses":       len(snap.Houses),
		"population":   len(snap.People),
		"nodes_left":   len(snap.Nodes),
		"stockpile":    stock.Map(),
		"published":    humanize.Time(snap.TakenAt),
	}
	writeJSON(w, status)
}

func (s *Server) handleIslands(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	writeJSON(w, snap.Islands)
}

// handleIslandDetail serves GET /api/v1/island/:id with its houses and
// residents.
func (s *Server) handleIslandDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(strings.TrimPrefix(r.URL.Path, "/api/v1/island/"), 10, 64)
	if err != nil {
		http.Error(w, "invalid island id", http.StatusBadRequest)
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	isl, ok := snap.Island(world.IslandID(id))
	if !ok {
		http.Error(w, "island not found", http.StatusNotFound)
		return
	}

	homes := make(map[world.HouseID]bool)
	var houses []world.House
	for _, h := range snap.Houses {
		if h.Island == isl.ID {
			houses = append(houses, h)
			homes[h.ID] = true
		}
	}
	var residents []agents.Person
	for _, p := range snap.People {
		if homes[p.House] {
			residents = append(residents, p)
		}
	}

	writeJSON(w, map[string]any{
		"island":    isl,
		"houses":    houses,
		"residents": residents,
	})
}

func (s *Server) handleHouses(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	houses := snap.Houses
	if v := r.URL.Query().Get("island"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid island id", http.StatusBadRequest)
			return
		}
		houses = nil
		for _, h := range snap.Houses {
			if h.Island == world.IslandID(id) {
				houses = append(houses, h)
			}
		}
	}
	writeJSON(w, houses)
}

func (s *Server) handlePeople(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	var kind *agents.TaskKind
	if v := r.URL.Query().Get("task"); v != "" {
		var k agents.TaskKind
		if err := k.UnmarshalText([]byte(v)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		kind = &k
	}

	result := make([]agents.Person, 0, len(snap.People))
	for _, p := range snap.People {
		if kind != nil && p.Task.Kind != *kind {
			continue
		}
		result = append(result, p)
	}
	writeJSON(w, result)
}

// handlePersonDetail serves GET /api/v1/person/:id.
func (s *Server) handlePersonDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(strings.TrimPrefix(r.URL.Path, "/api/v1/person/"), 10, 64)
	if err != nil {
		http.Error(w, "invalid person id", http.StatusBadRequest)
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	p, ok := snap.Person(agents.PersonID(id))
	if !ok {
		http.Error(w, "person not found", http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	nodes := snap.Nodes
	if v := r.URL.Query().Get("type"); v != "" {
		t, err := world.ParseResourceType(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		nodes = nil
		for _, n := range snap.Nodes {
			if n.Type == t {
				nodes = append(nodes, n)
			}
		}
	}
	writeJSON(w, nodes)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	limit := len(snap.Events)
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	writeJSON(w, snap.Events[len(snap.Events)-limit:])
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	tasks := make(map[string]int)
	for _, p := range snap.People {
		tasks[p.Task.Kind.String()]++
	}
	nodes := world.Pool{}
	for _, n := range snap.Nodes {
		nodes.Add(n.Type, 1)
	}

	type islandStat struct {
		Name       string `json:"name"`
		Population int    `json:"population"`
	}
	ranking := make([]islandStat, 0, len(snap.Islands))
	for _, isl := range snap.Islands {
		ranking = append(ranking, islandStat{Name: isl.Name, Population: isl.Population})
	}
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].Population > ranking[j].Population })

	writeJSON(w, map[string]any{
		"step":        snap.Step,
		"tasks":       tasks,
		"nodes":       nodes.Map(),
		"islands":     ranking,
		"diagnostics": snap.Diag,
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > engine.MaxSpeed {
			http.Error(w, fmt.Sprintf("speed must be 0-%g", engine.MaxSpeed), http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.SnapshotDir == "" {
		http.Error(w, "snapshot export not configured", http.StatusServiceUnavailable)
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	path := persistence.SnapshotPath(s.SnapshotDir, snap.RunID, snap.Step)
	if err := persistence.WriteSnapshot(path, snap); err != nil {
		slog.Error("snapshot export failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"step":    snap.Step,
		"path":    path,
		"message": "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
