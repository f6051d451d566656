// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package optimizer

import (
	"context"
	"math"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/rng"
	"github.com/luxfi/constellation/satellite"
)

// SimulatedAnnealing explores the pool-selection space by proposing a
// single-satellite swap each iteration and accepting worsening moves with
// probability exp(-delta/T), cooling T geometrically.
type SimulatedAnnealing struct {
	Params config.SAParams
}

func (s *SimulatedAnnealing) Name() string { return "sa" }

func (s *SimulatedAnnealing) Optimize(ctx context.Context, in Input, source rng.Source) (satellite.PoolConfiguration, error) {
	starlinkPool, onewebPool := splitByConstellation(in.Candidates)
	if len(starlinkPool) < in.StarlinkBounds.Min || len(onewebPool) < in.OneWebBounds.Min {
		return satellite.PoolConfiguration{}, ErrNoFeasibleConfiguration
	}

	current := randomIndividual(starlinkPool, onewebPool, in.StarlinkBounds, in.OneWebBounds, source)
	current.fitness = evaluatePool(in.Candidates, current.starlink, current.oneweb, in.Objectives, s.Name()).FitnessScore

	best := current
	temperature := s.Params.InitialTemperature

	for iter := 0; iter < s.Params.MaxIterations && temperature > s.Params.MinTemperature; iter++ {
		select {
		case <-ctx.Done():
			return satellite.PoolConfiguration{}, ctx.Err()
		default:
		}

		candidate := proposeNeighbor(current, starlinkPool, onewebPool, source)
		candidate.fitness = evaluatePool(in.Candidates, candidate.starlink, candidate.oneweb, in.Objectives, s.Name()).FitnessScore

		delta := candidate.fitness - current.fitness
		if delta > 0 || source.Float64() < math.Exp(delta/temperature) {
			current = candidate
			if current.fitness > best.fitness {
				best = current
			}
		}

		temperature *= s.Params.CoolingRate
	}

	return evaluatePool(in.Candidates, best.starlink, best.oneweb, in.Objectives, s.Name()), nil
}

// proposeNeighbor swaps exactly one satellite in one constellation subset
// for an unselected one from the same pool.
func proposeNeighbor(ind gaIndividual, starlinkPool, onewebPool []ids.SatelliteID, source rng.Source) gaIndividual {
	next := gaIndividual{
		starlink: append([]ids.SatelliteID{}, ind.starlink...),
		oneweb:   append([]ids.SatelliteID{}, ind.oneweb...),
	}
	if source.Float64() < 0.5 && len(next.starlink) > 0 {
		swapOne(next.starlink, starlinkPool, source)
	} else if len(next.oneweb) > 0 {
		swapOne(next.oneweb, onewebPool, source)
	}
	return next
}

func swapOne(selected, pool []ids.SatelliteID, source rng.Source) {
	if len(pool) == 0 {
		return
	}
	idx := int(source.Uint64() % uint64(len(selected)))
	inSet := make(map[ids.SatelliteID]bool, len(selected))
	for _, id := range selected {
		inSet[id] = true
	}
	for attempts := 0; attempts < len(pool); attempts++ {
		replacement := pool[int(source.Uint64()%uint64(len(pool)))]
		if !inSet[replacement] {
			selected[idx] = replacement
			return
		}
	}
}
