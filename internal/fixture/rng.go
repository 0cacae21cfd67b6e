// Package fixture generates deterministic per-resident display data.
//
// Every value is derived from a seeded PRNG stream keyed on a stable
// string (a resident name or ID), so the same input always yields the
// same attributes across runs and processes.
package fixture

import (
	"math"
	"unicode/utf16"
)

const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619
)

// HashString returns the 32-bit FNV-1a hash of s over its UTF-16 code
// units. Hashing code units rather than bytes keeps seeds identical to the
// ones the web dashboard derives for the same names.
func HashString(s string) uint32 {
	h := fnvOffset
	for _, unit := range utf16.Encode([]rune(s)) {
		h ^= uint32(unit)
		h *= fnvPrime
	}
	return h
}

// RNG is a mulberry32 generator. It is not safe for concurrent use;
// each derivation owns its own stream.
type RNG struct {
	state uint32
}

// NewRNG returns a generator seeded with seed.
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// Float64 returns the next value in [0, 1).
func (g *RNG) Float64() float64 {
	g.state += 0x6d2b79f5
	t := g.state
	r := (t ^ (t >> 15)) * (1 | t)
	r ^= r + (r^(r>>7))*(61|r)
	return float64(r^(r>>14)) / 4294967296
}

// Intn returns floor(Float64() * n).
func (g *RNG) Intn(n int) int {
	return int(math.Floor(g.Float64() * float64(n)))
}

// Shuffle returns a Fisher-Yates permutation of pool, walking from the
// last index down to 1. pool itself is not modified.
func Shuffle[T any](pool []T, rng *RNG) []T {
	out := make([]T, len(pool))
	copy(out, pool)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Sample shuffles pool and returns the first k elements. When k is at
// least len(pool) the whole shuffled pool is returned.
func Sample[T any](pool []T, k int, rng *RNG) []T {
	shuffled := Shuffle(pool, rng)
	if k < 0 {
		k = 0
	}
	if k >= len(shuffled) {
		return shuffled
	}
	return shuffled[:k]
}

// round matches half-up rounding for the non-negative magnitudes drawn here.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}
