// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package optimizer

import (
	"context"
	"sort"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/rng"
	"github.com/luxfi/constellation/satellite"
)

// GeneticAlgorithm selects pool membership via a standard generational GA:
// tournament selection, single-point crossover per constellation subset,
// and random-replace mutation of selected satellites.
type GeneticAlgorithm struct {
	Params config.GAParams
}

func (g *GeneticAlgorithm) Name() string { return "ga" }

// gaIndividual is one candidate pool encoded as two fixed-length index
// slices, one per constellation, which keeps crossover and mutation simple
// slice operations instead of bitset surgery.
type gaIndividual struct {
	starlink []ids.SatelliteID
	oneweb   []ids.SatelliteID
	fitness  float64
}

func (g *GeneticAlgorithm) Optimize(ctx context.Context, in Input, source rng.Source) (satellite.PoolConfiguration, error) {
	starlinkPool, onewebPool := splitByConstellation(in.Candidates)
	if len(starlinkPool) < in.StarlinkBounds.Min || len(onewebPool) < in.OneWebBounds.Min {
		return satellite.PoolConfiguration{}, ErrNoFeasibleConfiguration
	}

	population := make([]gaIndividual, g.Params.PopulationSize)
	for i := range population {
		population[i] = randomIndividual(starlinkPool, onewebPool, in.StarlinkBounds, in.OneWebBounds, source)
		population[i].fitness = evaluatePool(in.Candidates, population[i].starlink, population[i].oneweb, in.Objectives, g.Name()).FitnessScore
	}

	for gen := 0; gen < g.Params.Generations; gen++ {
		select {
		case <-ctx.Done():
			return satellite.PoolConfiguration{}, ctx.Err()
		default:
		}

		next := make([]gaIndividual, 0, len(population))
		for len(next) < len(population) {
			parentA := tournamentSelect(population, g.Params.TournamentSize, source)
			parentB := tournamentSelect(population, g.Params.TournamentSize, source)

			childA, childB := parentA, parentB
			if source.Float64() < g.Params.CrossoverRate {
				childA, childB = crossover(parentA, parentB, source)
			}
			mutate(&childA, starlinkPool, onewebPool, g.Params.MutationRate, source)
			mutate(&childB, starlinkPool, onewebPool, g.Params.MutationRate, source)

			childA.fitness = evaluatePool(in.Candidates, childA.starlink, childA.oneweb, in.Objectives, g.Name()).FitnessScore
			childB.fitness = evaluatePool(in.Candidates, childB.starlink, childB.oneweb, in.Objectives, g.Name()).FitnessScore

			next = append(next, childA, childB)
		}
		population = next[:len(population)]
	}

	sort.Slice(population, func(i, j int) bool { return population[i].fitness > population[j].fitness })
	best := population[0]
	return evaluatePool(in.Candidates, best.starlink, best.oneweb, in.Objectives, g.Name()), nil
}

func splitByConstellation(candidates []satellite.SatelliteCandidate) (starlink, oneweb []ids.SatelliteID) {
	for _, c := range candidates {
		switch c.Constellation {
		case ids.ConstellationStarlink:
			starlink = append(starlink, c.SatelliteID)
		case ids.ConstellationOneWeb:
			oneweb = append(oneweb, c.SatelliteID)
		}
	}
	return starlink, oneweb
}

func randomIndividual(starlinkPool, onewebPool []ids.SatelliteID, sBounds, oBounds config.QuantityBounds, source rng.Source) gaIndividual {
	sCount := randRange(sBounds.Min, sBounds.Max, source)
	oCount := randRange(oBounds.Min, oBounds.Max, source)
	return gaIndividual{
		starlink: sampleWithoutReplacement(starlinkPool, sCount, source),
		oneweb:   sampleWithoutReplacement(onewebPool, oCount, source),
	}
}

func randRange(min, max int, source rng.Source) int {
	if max <= min {
		return min
	}
	return min + int(source.Uint64()%uint64(max-min+1))
}

func sampleWithoutReplacement(pool []ids.SatelliteID, n int, source rng.Source) []ids.SatelliteID {
	if n > len(pool) {
		n = len(pool)
	}
	shuffled := append([]ids.SatelliteID{}, pool...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(source.Uint64() % uint64(i+1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return append([]ids.SatelliteID{}, shuffled[:n]...)
}

func tournamentSelect(population []gaIndividual, size int, source rng.Source) gaIndividual {
	best := population[int(source.Uint64()%uint64(len(population)))]
	for i := 1; i < size; i++ {
		candidate := population[int(source.Uint64()%uint64(len(population)))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return best
}

func crossover(a, b gaIndividual, source rng.Source) (gaIndividual, gaIndividual) {
	childA := gaIndividual{starlink: singlePointCrossover(a.starlink, b.starlink, source), oneweb: singlePointCrossover(a.oneweb, b.oneweb, source)}
	childB := gaIndividual{starlink: singlePointCrossover(b.starlink, a.starlink, source), oneweb: singlePointCrossover(b.oneweb, a.oneweb, source)}
	return childA, childB
}

func singlePointCrossover(a, b []ids.SatelliteID, source rng.Source) []ids.SatelliteID {
	if len(a) == 0 || len(b) == 0 {
		return append([]ids.SatelliteID{}, a...)
	}
	point := int(source.Uint64() % uint64(len(a)))
	out := append([]ids.SatelliteID{}, a[:point]...)
	seen := make(map[ids.SatelliteID]bool, len(out))
	for _, id := range out {
		seen[id] = true
	}
	for _, id := range b {
		if len(out) >= len(a) {
			break
		}
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

func mutate(ind *gaIndividual, starlinkPool, onewebPool []ids.SatelliteID, rate float64, source rng.Source) {
	ind.starlink = mutateSlice(ind.starlink, starlinkPool, rate, source)
	ind.oneweb = mutateSlice(ind.oneweb, onewebPool, rate, source)
}

func mutateSlice(selected, pool []ids.SatelliteID, rate float64, source rng.Source) []ids.SatelliteID {
	if len(pool) == 0 {
		return selected
	}
	inSet := make(map[ids.SatelliteID]bool, len(selected))
	for _, id := range selected {
		inSet[id] = true
	}
	out := append([]ids.SatelliteID{}, selected...)
	for i := range out {
		if source.Float64() < rate {
			replacement := pool[int(source.Uint64()%uint64(len(pool)))]
			if !inSet[replacement] {
				delete(inSet, out[i])
				out[i] = replacement
				inSet[replacement] = true
			}
		}
	}
	return out
}
