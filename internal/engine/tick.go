// Engine drives the simulation forward in real time.
package engine

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// MaxSpeed bounds the time multiplier.
const MaxSpeed = 100.0

// Engine owns the step goroutine. It measures real elapsed time between
// steps, scales it by the speed multiplier and publishes snapshots for
// readers on other goroutines.
type Engine struct {
	Sim      *Simulation
	Interval time.Duration // Target wall time per step
	RunID    string

	speed  atomic.Uint64 // math.Float64bits of the multiplier; 0 = paused
	latest atomic.Pointer[Snapshot]
}

// NewEngine creates an engine at normal speed, stepping roughly sixty times
// per second.
func NewEngine(sim *Simulation) *Engine {
	e := &Engine{
		Sim:      sim,
		Interval: time.Second / 60,
	}
	e.SetSpeed(1)
	return e
}

// Speed returns the current time multiplier.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed sets the time multiplier, clamped to [0, MaxSpeed].
func (e *Engine) SetSpeed(v float64) {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > MaxSpeed {
		v = MaxSpeed
	}
	e.speed.Store(math.Float64bits(v))
}

// Latest returns the most recently published snapshot. Safe from any
// goroutine.
func (e *Engine) Latest() *Snapshot {
	return e.latest.Load()
}

// Publish copies the world into a new snapshot. Call only from the step
// goroutine (or before Run starts).
func (e *Engine) Publish() *Snapshot {
	snap := e.Sim.Snapshot()
	snap.RunID = e.RunID
	e.latest.Store(snap)
	return snap
}

// Advance runs one step of dt simulated time, then publishes and reports on
// their configured cadence.
func (e *Engine) Advance(dt time.Duration) {
	e.Sim.Step(dt)
	step := e.Sim.StepCount
	if every := e.Sim.Params.PublishEvery; every > 0 && step%every == 0 {
		e.Publish()
	}
	if every := e.Sim.Params.ReportEvery; every > 0 && step%every == 0 {
		e.report()
	}
}

func (e *Engine) report() {
	e.Sim.Report()
	if err := e.Sim.Recorder.Flush(); err != nil {
		slog.Error("journal flush failed", "error", err)
	}
}

// Run steps the simulation until ctx is cancelled. Time spent paused is
// discarded rather than replayed on resume.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("simulation engine started", "step", e.Sim.StepCount, "speed", e.Speed(), "interval", e.Interval)
	e.Publish()

	last := time.Now()
	for ctx.Err() == nil {
		start := time.Now()
		dt := start.Sub(last)
		last = start

		speed := e.Speed()
		if speed <= 0 {
			// Paused; sleep briefly and check again.
			sleep(ctx, 100*time.Millisecond)
			continue
		}

		e.Advance(time.Duration(float64(dt) * speed))

		if elapsed := time.Since(start); elapsed < e.Interval {
			sleep(ctx, e.Interval-elapsed)
		}
	}

	e.Publish()
	e.report()
	slog.Info("simulation engine stopped", "step", e.Sim.StepCount)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
