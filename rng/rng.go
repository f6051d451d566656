// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rng provides the single deterministic randomness source used
// anywhere the pipeline would otherwise reach for math/rand with a
// wall-clock seed. Every draw is a pure function of an explicit seed plus
// the caller's own domain inputs (a satellite id, a generation index) so
// that two runs with the same SeedSource produce byte-identical output,
// which the RSRP link budget and the RL dataset builder both depend on.
package rng

import (
	"hash/fnv"
	"math"

	"gonum.org/v1/gonum/mathext/prng"
)

// Source is a seedable source of uniform randomness supporting the
// algorithms (weighted sampling without replacement, uniform draws) the
// optimizer needs for satellite selection.
type Source interface {
	Seed(int64)
	Uint64() uint64
	Float64() float64
}

// mt19937Source wraps gonum's MT19937 for satellite selection.
type mt19937Source struct {
	mt *prng.MT19937
}

// NewSource returns a new deterministic Source seeded with seed.
func NewSource(seed int64) Source {
	s := &mt19937Source{mt: prng.NewMT19937()}
	s.Seed(seed)
	return s
}

func (s *mt19937Source) Seed(seed int64) { s.mt.Seed(uint64(seed)) }
func (s *mt19937Source) Uint64() uint64  { return s.mt.Uint64() }
func (s *mt19937Source) Float64() float64 {
	// 53 bits of mantissa, matching the standard trick for converting a
	// uniform uint64 into a uniform float64 in [0, 1).
	return float64(s.mt.Uint64()>>11) / (1 << 53)
}

// SeedSource is the explicit, recorded seed carried in RunContext and in
// the RL dataset builder's output metadata.
type SeedSource struct {
	Seed int64
}

// IDHash derives a deterministic hash of a satellite id for use as a pure
// function input — e.g. the multipath/shadow-fading term in the RSRP
// formula. Never combined with wall-clock time or any other non-reproducible
// input.
func IDHash(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

// SignedTerm maps an id hash deterministically into [-span, +span], a
// bounded random-looking perturbation computed without ever calling
// math/rand.
func SignedTerm(id string, span float64) float64 {
	h := IDHash(id)
	frac := float64(h%1_000_000) / 1_000_000.0 // in [0,1)
	return (frac*2 - 1) * span
}

// TrigTerm combines two independent hash-derived phases through sine and
// cosine to produce a bounded, id-seeded term that looks like shadow-fading
// noise but is a pure function of (id, salt, span): it varies smoothly and
// unpredictably across satellite ids without ever consulting a clock or
// math/rand.
func TrigTerm(id, salt string, span float64) float64 {
	h1 := IDHash(id + salt)
	h2 := IDHash(salt + id)
	phase1 := (float64(h1%360) / 360.0) * 2 * math.Pi
	phase2 := (float64(h2%360) / 360.0) * 2 * math.Pi
	mix := 0.6*math.Sin(phase1) + 0.4*math.Cos(phase2)
	return mix * span
}
