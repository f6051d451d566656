// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package optimizer

import (
	"context"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/rng"
	"github.com/luxfi/constellation/satellite"
)

// ParticleSwarm treats each particle's position as a real-valued "inclusion
// score" per candidate satellite; the top-N scored satellites per
// constellation (N drawn from the bounds) form that particle's pool. This
// keeps the continuous PSO update rule (velocity blending position, personal
// best, and global best) meaningful over a combinatorial selection problem.
type ParticleSwarm struct {
	Params config.PSOParams
}

func (p *ParticleSwarm) Name() string { return "pso" }

type particle struct {
	position []float64 // one score per candidate, indexed same as Input.Candidates
	velocity []float64
	bestPosition []float64
	bestFitness  float64
}

func (p *ParticleSwarm) Optimize(ctx context.Context, in Input, source rng.Source) (satellite.PoolConfiguration, error) {
	starlinkPool, onewebPool := splitByConstellation(in.Candidates)
	if len(starlinkPool) < in.StarlinkBounds.Min || len(onewebPool) < in.OneWebBounds.Min {
		return satellite.PoolConfiguration{}, ErrNoFeasibleConfiguration
	}

	n := len(in.Candidates)
	if n == 0 {
		return satellite.PoolConfiguration{}, ErrNoFeasibleConfiguration
	}

	particles := make([]particle, p.Params.NumParticles)
	for i := range particles {
		particles[i].position = randomScores(n, source)
		particles[i].velocity = make([]float64, n)
		particles[i].bestPosition = append([]float64{}, particles[i].position...)
	}

	globalBestPosition := append([]float64{}, particles[0].position...)
	globalBestFitness := -1.0

	evalParticle := func(pos []float64) satellite.PoolConfiguration {
		starlink, oneweb := selectTopN(pos, in.Candidates, starlinkPool, onewebPool, in.StarlinkBounds, in.OneWebBounds)
		return evaluatePool(in.Candidates, starlink, oneweb, in.Objectives, p.Name())
	}

	for i := range particles {
		pool := evalParticle(particles[i].position)
		particles[i].bestFitness = pool.FitnessScore
		if pool.FitnessScore > globalBestFitness {
			globalBestFitness = pool.FitnessScore
			globalBestPosition = append([]float64{}, particles[i].position...)
		}
	}

	for iter := 0; iter < p.Params.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return satellite.PoolConfiguration{}, ctx.Err()
		default:
		}

		for i := range particles {
			for d := 0; d < n; d++ {
				r1, r2 := source.Float64(), source.Float64()
				particles[i].velocity[d] = p.Params.Inertia*particles[i].velocity[d] +
					p.Params.Cognitive*r1*(particles[i].bestPosition[d]-particles[i].position[d]) +
					p.Params.Social*r2*(globalBestPosition[d]-particles[i].position[d])
				particles[i].position[d] += particles[i].velocity[d]
			}

			pool := evalParticle(particles[i].position)
			if pool.FitnessScore > particles[i].bestFitness {
				particles[i].bestFitness = pool.FitnessScore
				particles[i].bestPosition = append([]float64{}, particles[i].position...)
			}
			if pool.FitnessScore > globalBestFitness {
				globalBestFitness = pool.FitnessScore
				globalBestPosition = append([]float64{}, particles[i].position...)
			}
		}
	}

	starlink, oneweb := selectTopN(globalBestPosition, in.Candidates, starlinkPool, onewebPool, in.StarlinkBounds, in.OneWebBounds)
	return evaluatePool(in.Candidates, starlink, oneweb, in.Objectives, p.Name()), nil
}

func randomScores(n int, source rng.Source) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = source.Float64()
	}
	return out
}

// selectTopN picks, per constellation, the top-scoring candidates within
// the quantity bounds (using the max bound, clamped to pool size).
func selectTopN(scores []float64, candidates []satellite.SatelliteCandidate, starlinkPool, onewebPool []ids.SatelliteID, sBounds, oBounds config.QuantityBounds) ([]ids.SatelliteID, []ids.SatelliteID) {
	scoreByID := make(map[ids.SatelliteID]float64, len(candidates))
	for i, c := range candidates {
		scoreByID[c.SatelliteID] = scores[i]
	}

	starlink := topNByScore(starlinkPool, scoreByID, clampCount(sBounds.Max, len(starlinkPool)))
	oneweb := topNByScore(onewebPool, scoreByID, clampCount(oBounds.Max, len(onewebPool)))
	return starlink, oneweb
}

func clampCount(want, available int) int {
	if want > available {
		return available
	}
	return want
}

func topNByScore(pool []ids.SatelliteID, scoreByID map[ids.SatelliteID]float64, n int) []ids.SatelliteID {
	sorted := append([]ids.SatelliteID{}, pool...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && scoreByID[sorted[j]] > scoreByID[sorted[j-1]]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return append([]ids.SatelliteID{}, sorted[:n]...)
}
