// Package entropy provides the random source injected into every system that
// needs randomness: wander offsets, resource type choice, spawn positions and
// task skip rolls. Seeded sources make a run reproducible.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source is the randomness capability handed to simulation systems.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
}

// Seeded is a deterministic Source backed by math/rand.
type Seeded struct {
	seed int64
	rng  *mrand.Rand
}

// NewSeeded creates a deterministic source. A zero seed is replaced by a
// seed drawn from crypto/rand.
func NewSeeded(seed int64) *Seeded {
	if seed == 0 {
		seed = RandomSeed()
	}
	return &Seeded{seed: seed, rng: mrand.New(mrand.NewSource(seed))}
}

// Derive returns an independent source for a subsystem, offset from a base
// seed so that adding draws to one system does not shift another.
func Derive(seed, offset int64) *Seeded {
	return NewSeeded(seed + offset)
}

// Seed returns the seed the source was created with.
func (s *Seeded) Seed() int64 { return s.seed }

func (s *Seeded) Float64() float64 { return s.rng.Float64() }

func (s *Seeded) Intn(n int) int { return s.rng.Intn(n) }

// Chance reports true with probability p. p <= 0 never draws from src.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// Range returns a uniform value in [lo, hi).
func Range(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Pick returns a uniformly chosen element of items. items must be non-empty.
func Pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}

// RandomSeed draws a non-zero seed from crypto/rand.
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}
