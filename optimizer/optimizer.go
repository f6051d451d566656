// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package optimizer implements the dynamic pool optimizer: three
// independent search algorithms (genetic algorithm, simulated annealing,
// particle swarm optimization) compete to find the PoolConfiguration that
// maximizes the weighted multi-objective fitness function, fanned out
// concurrently and joined on best fitness.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/rng"
	"github.com/luxfi/constellation/satellite"
)

// ErrNoFeasibleConfiguration is returned when every algorithm fails to find
// a PoolConfiguration satisfying the quantity bounds.
var ErrNoFeasibleConfiguration = errors.New("optimizer: no feasible configuration found")

// saltMultiplier is the Fibonacci hashing constant used to derive
// per-algorithm RNG seeds; kept as a uint64 var since its bit pattern
// overflows int64 as an untyped constant.
var saltMultiplier uint64 = 0x9E3779B97F4A7C15

// Algorithm is the interface every optimizer implementation satisfies.
// Concrete implementations are registered by name in Registry; the
// gatekeeper allowlists names, not types, so a name not present in
// Registry can never run even if somehow referenced.
type Algorithm interface {
	Name() string
	Optimize(ctx context.Context, in Input, source rng.Source) (satellite.PoolConfiguration, error)
}

// Input bundles every candidate and tunable an Algorithm needs.
type Input struct {
	Candidates     []satellite.SatelliteCandidate
	StarlinkBounds config.QuantityBounds
	OneWebBounds   config.QuantityBounds
	Objectives     config.ObjectiveWeights
}

// Registry is the allowlist of concrete Algorithm implementations the
// gatekeeper recognizes. Never add an entry here for anything but a
// concrete, fully implemented Algorithm.
var Registry = map[string]func(config.Parameters) Algorithm{
	"ga":  func(cfg config.Parameters) Algorithm { return &GeneticAlgorithm{Params: cfg.GA} },
	"sa":  func(cfg config.Parameters) Algorithm { return &SimulatedAnnealing{Params: cfg.SA} },
	"pso": func(cfg config.Parameters) Algorithm { return &ParticleSwarm{Params: cfg.PSO} },
}

// RunAll fans every registered algorithm out concurrently, seeding each
// with its own source derived from baseSeed and the algorithm's position in
// sorted-name order so runs stay reproducible regardless of goroutine
// scheduling order, and returns whichever PoolConfiguration
// scored the highest FitnessScore.
func RunAll(ctx context.Context, cfg config.Parameters, in Input, baseSeed int64) (satellite.PoolConfiguration, error) {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic iteration order for salt assignment

	results := make([]satellite.PoolConfiguration, len(names))
	errs := make([]error, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			algo := Registry[name](cfg)
			source := rng.NewSource(baseSeed ^ int64(i+1)*int64(saltMultiplier))
			result, err := algo.Optimize(gctx, in, source)
			results[i] = result
			errs[i] = err
			return nil // individual algorithm failures don't abort the group
		})
	}
	_ = g.Wait()

	best := satellite.PoolConfiguration{}
	found := false
	for i := range results {
		if errs[i] != nil {
			continue
		}
		// The quantity constraints are hard: an algorithm result violating
		// either bound is infeasible regardless of its fitness score.
		if !withinBounds(len(results[i].StarlinkSet), in.StarlinkBounds) ||
			!withinBounds(len(results[i].OneWebSet), in.OneWebBounds) {
			errs[i] = fmt.Errorf("%w: %s selected %d starlink / %d oneweb",
				ErrNoFeasibleConfiguration, names[i], len(results[i].StarlinkSet), len(results[i].OneWebSet))
			continue
		}
		if !found || results[i].FitnessScore > best.FitnessScore {
			best = results[i]
			found = true
		}
	}
	if !found {
		return satellite.PoolConfiguration{}, fmt.Errorf("%w: %v", ErrNoFeasibleConfiguration, errs)
	}
	return best, nil
}

// Fitness computes the weighted multi-objective score for a configuration,
// shared by every Algorithm so their outputs stay comparable.
func Fitness(pool satellite.PoolConfiguration, w config.ObjectiveWeights) float64 {
	normalizedHandover := 1.0 / (1.0 + pool.EstHandoverFrequency)
	return w.CoverageContinuity*pool.CoverageRate +
		w.ConstellationEfficiency*pool.AvgSignalQuality +
		w.HandoverOptimality*normalizedHandover +
		w.ResourceBalance*(1-pool.ResourceUtilization)
}

// evaluatePool scores a candidate selection (given as starlink/oneweb ID
// slices) into a full PoolConfiguration, averaging each candidate's
// per-dimension scores and feeding the aggregate through Fitness.
func evaluatePool(candidates []satellite.SatelliteCandidate, starlink, oneweb []ids.SatelliteID, w config.ObjectiveWeights, algoName string) satellite.PoolConfiguration {
	byID := make(map[ids.SatelliteID]satellite.SatelliteCandidate, len(candidates))
	for _, c := range candidates {
		byID[c.SatelliteID] = c
	}

	var sumCoverage, sumQuality, sumResource float64
	var sumHandover float64
	n := 0
	for _, id := range append(append([]ids.SatelliteID{}, starlink...), oneweb...) {
		c, ok := byID[id]
		if !ok {
			continue
		}
		sumCoverage += c.CoverageScore
		sumQuality += c.SignalQualityScore
		sumResource += c.ResourceCost
		sumHandover += float64(c.PredictedHandovers)
		n++
	}

	pool := satellite.PoolConfiguration{
		StarlinkSet:     starlink,
		OneWebSet:       oneweb,
		SourceAlgorithm: algoName,
	}
	if n > 0 {
		pool.CoverageRate = sumCoverage / float64(n)
		pool.AvgSignalQuality = sumQuality / float64(n)
		pool.ResourceUtilization = sumResource / float64(n)
		pool.EstHandoverFrequency = sumHandover / float64(n)
	}
	pool.FitnessScore = Fitness(pool, w)
	return pool
}

func withinBounds(n int, b config.QuantityBounds) bool {
	return n >= b.Min && n <= b.Max
}
