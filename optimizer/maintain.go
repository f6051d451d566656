// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package optimizer

import (
	"sort"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

// MaintainQuantities is the unified quantity-maintenance step: it runs after
// an algorithm produces a PoolConfiguration and trims or backfills each
// constellation subset so both land inside their configured bounds,
// preferring to drop the lowest-fitness members first and backfill from the
// highest-scoring unselected candidates. Both the GA/SA/PSO "too many"
// case and the "too few after filtering" case funnel through this single
// function rather than separate ad hoc trim/backfill branches per
// algorithm.
func MaintainQuantities(pool satellite.PoolConfiguration, candidates []satellite.SatelliteCandidate, sBounds, oBounds config.QuantityBounds) satellite.PoolConfiguration {
	starlinkPool, onewebPool := splitByConstellation(candidates)
	byID := make(map[ids.SatelliteID]satellite.SatelliteCandidate, len(candidates))
	for _, c := range candidates {
		byID[c.SatelliteID] = c
	}

	pool.StarlinkSet = maintainSubset(pool.StarlinkSet, starlinkPool, byID, sBounds)
	pool.OneWebSet = maintainSubset(pool.OneWebSet, onewebPool, byID, oBounds)
	return pool
}

func maintainSubset(selected, pool []ids.SatelliteID, byID map[ids.SatelliteID]satellite.SatelliteCandidate, bounds config.QuantityBounds) []ids.SatelliteID {
	working := append([]ids.SatelliteID{}, selected...)

	if len(working) > bounds.Max {
		sort.Slice(working, func(i, j int) bool {
			return overallScore(byID[working[i]]) > overallScore(byID[working[j]])
		})
		working = working[:bounds.Max]
	}

	if len(working) < bounds.Min {
		inSet := make(map[ids.SatelliteID]bool, len(working))
		for _, id := range working {
			inSet[id] = true
		}
		var backfillPool []ids.SatelliteID
		for _, id := range pool {
			if !inSet[id] {
				backfillPool = append(backfillPool, id)
			}
		}
		sort.Slice(backfillPool, func(i, j int) bool {
			return overallScore(byID[backfillPool[i]]) > overallScore(byID[backfillPool[j]])
		})
		need := bounds.Min - len(working)
		if need > len(backfillPool) {
			need = len(backfillPool)
		}
		working = append(working, backfillPool[:need]...)
	}

	return working
}

func overallScore(c satellite.SatelliteCandidate) float64 {
	return 0.4*c.CoverageScore + 0.4*c.SignalQualityScore + 0.2*(1-c.ResourceCost)
}
