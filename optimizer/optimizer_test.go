// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/rng"
	"github.com/luxfi/constellation/satellite"
)

func buildCandidates(starlinkN, onewebN int) []satellite.SatelliteCandidate {
	var out []satellite.SatelliteCandidate
	id := ids.SatelliteID(0)
	for i := 0; i < starlinkN; i++ {
		out = append(out, satellite.SatelliteCandidate{
			SatelliteID: id, Constellation: ids.ConstellationStarlink,
			CoverageScore: 0.9, SignalQualityScore: 0.8, ResourceCost: 0.2,
		})
		id++
	}
	for i := 0; i < onewebN; i++ {
		out = append(out, satellite.SatelliteCandidate{
			SatelliteID: id, Constellation: ids.ConstellationOneWeb,
			CoverageScore: 0.85, SignalQualityScore: 0.75, ResourceCost: 0.25,
		})
		id++
	}
	return out
}

func smallParams() config.Parameters {
	cfg := config.DefaultParams()
	cfg.GA.PopulationSize = 8
	cfg.GA.Generations = 3
	cfg.SA.MaxIterations = 20
	cfg.PSO.NumParticles = 5
	cfg.PSO.MaxIterations = 5
	cfg.StarlinkBounds = config.QuantityBounds{Min: 3, Max: 5}
	cfg.OneWebBounds = config.QuantityBounds{Min: 2, Max: 3}
	return cfg
}

func TestGeneticAlgorithmRespectsBounds(t *testing.T) {
	cfg := smallParams()
	ga := &GeneticAlgorithm{Params: cfg.GA}
	in := Input{Candidates: buildCandidates(10, 6), StarlinkBounds: cfg.StarlinkBounds, OneWebBounds: cfg.OneWebBounds, Objectives: cfg.Objectives}

	pool, err := ga.Optimize(context.Background(), in, rng.NewSource(1))
	require.NoError(t, err)
	require.LessOrEqual(t, len(pool.StarlinkSet), cfg.StarlinkBounds.Max)
	require.LessOrEqual(t, len(pool.OneWebSet), cfg.OneWebBounds.Max)
}

func TestSimulatedAnnealingFindsFeasible(t *testing.T) {
	cfg := smallParams()
	sa := &SimulatedAnnealing{Params: cfg.SA}
	in := Input{Candidates: buildCandidates(10, 6), StarlinkBounds: cfg.StarlinkBounds, OneWebBounds: cfg.OneWebBounds, Objectives: cfg.Objectives}

	pool, err := sa.Optimize(context.Background(), in, rng.NewSource(2))
	require.NoError(t, err)
	require.GreaterOrEqual(t, pool.FitnessScore, 0.0)
}

func TestParticleSwarmFindsFeasible(t *testing.T) {
	cfg := smallParams()
	pso := &ParticleSwarm{Params: cfg.PSO}
	in := Input{Candidates: buildCandidates(10, 6), StarlinkBounds: cfg.StarlinkBounds, OneWebBounds: cfg.OneWebBounds, Objectives: cfg.Objectives}

	pool, err := pso.Optimize(context.Background(), in, rng.NewSource(3))
	require.NoError(t, err)
	require.LessOrEqual(t, len(pool.StarlinkSet), cfg.StarlinkBounds.Max)
}

func TestRunAllReturnsBestFitness(t *testing.T) {
	cfg := smallParams()
	in := Input{Candidates: buildCandidates(10, 6), StarlinkBounds: cfg.StarlinkBounds, OneWebBounds: cfg.OneWebBounds, Objectives: cfg.Objectives}

	pool, err := RunAll(context.Background(), cfg, in, 42)
	require.NoError(t, err)
	require.NotEmpty(t, pool.SourceAlgorithm)
}

func TestRunAllNoFeasibleConfiguration(t *testing.T) {
	cfg := smallParams()
	cfg.StarlinkBounds = config.QuantityBounds{Min: 100, Max: 200}
	in := Input{Candidates: buildCandidates(2, 2), StarlinkBounds: cfg.StarlinkBounds, OneWebBounds: cfg.OneWebBounds, Objectives: cfg.Objectives}

	_, err := RunAll(context.Background(), cfg, in, 42)
	require.ErrorIs(t, err, ErrNoFeasibleConfiguration)
}

func TestMaintainQuantitiesTrimsOverMax(t *testing.T) {
	candidates := buildCandidates(10, 6)
	var starlinkIDs []ids.SatelliteID
	for i := 0; i < 10; i++ {
		starlinkIDs = append(starlinkIDs, ids.SatelliteID(i))
	}
	pool := satellite.PoolConfiguration{StarlinkSet: starlinkIDs}
	bounds := config.QuantityBounds{Min: 3, Max: 5}

	result := MaintainQuantities(pool, candidates, bounds, config.QuantityBounds{Min: 2, Max: 3})
	require.Len(t, result.StarlinkSet, 5)
}

func TestMaintainQuantitiesBackfillsUnderMin(t *testing.T) {
	candidates := buildCandidates(10, 6)
	pool := satellite.PoolConfiguration{StarlinkSet: []ids.SatelliteID{0, 1}}
	bounds := config.QuantityBounds{Min: 5, Max: 8}

	result := MaintainQuantities(pool, candidates, bounds, config.QuantityBounds{Min: 2, Max: 3})
	require.Len(t, result.StarlinkSet, 5)
}
