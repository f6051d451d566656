// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runctx provides RunContext, the explicit wiring struct threaded
// through every pipeline stage in place of package-level globals.
//
// Use stdlib context.Context for:
//   - Cancellation signals
//   - Deadlines derived from the per-stage timeout budget
//
// Use *RunContext for:
//   - The logger, metrics registry and deterministic RNG seed
//   - The resolved Parameters for this run
//   - The wall clock (so tests can inject a fixed clock)
package runctx

import (
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/log"
	"github.com/luxfi/constellation/metrics"
	"github.com/luxfi/constellation/rng"
)

const defaultLevel = zapcore.InfoLevel

// Clock abstracts wall-clock time so pipeline runs stay reproducible in
// tests; RunContext's default clock is time.Now.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// RunContext is the single wiring object passed by pointer to every stage
// constructor; it is never stored as a package-level variable.
type RunContext struct {
	Logger  log.Logger
	Metrics *metrics.Metrics
	Clock   Clock
	Seed    rng.SeedSource
	Config  config.Parameters
}

// New builds a RunContext from resolved Parameters, wiring up a production
// logger, a fresh prometheus registry, and the system clock.
func New(cfg config.Parameters) *RunContext {
	return &RunContext{
		Logger:  log.New(defaultLevel),
		Metrics: metrics.New(),
		Clock:   systemClock{},
		Seed:    rng.SeedSource{Seed: cfg.Seed},
		Config:  cfg,
	}
}

// NewNoOp builds a RunContext suitable for unit tests: a discarding logger,
// a metrics instance on its own fresh registry, and the system clock.
func NewNoOp(cfg config.Parameters) *RunContext {
	return &RunContext{
		Logger:  log.NewNoOp(),
		Metrics: metrics.New(),
		Clock:   systemClock{},
		Seed:    rng.SeedSource{Seed: cfg.Seed},
		Config:  cfg,
	}
}

// RNG returns a fresh deterministic Source derived from the run's seed and a
// caller-supplied salt, so independent components never share RNG draw
// order (which would make their outputs order-dependent).
func (rc *RunContext) RNG(salt int64) rng.Source {
	return rng.NewSource(rc.Seed.Seed ^ salt)
}
