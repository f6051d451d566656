// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package phase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

func TestAnalyzeEvenSpreadScoresHigh(t *testing.T) {
	candidates := make([]satellite.SatelliteCandidate, 0, MeanAnomalyBins)
	elements := make(map[ids.SatelliteID]satellite.OrbitalElements)
	for i := 0; i < MeanAnomalyBins; i++ {
		id := ids.SatelliteID(i)
		candidates = append(candidates, satellite.SatelliteCandidate{SatelliteID: id})
		elements[id] = satellite.OrbitalElements{
			MeanAnomalyDeg: float64(i) * (360.0 / MeanAnomalyBins),
			RAANDeg:        float64(i%RAANBins) * (360.0 / RAANBins),
		}
	}

	analysis := Analyze(candidates, elements)
	require.Greater(t, analysis.DiversityScore, 0.9)
}

func TestAnalyzeClusteredScoresLow(t *testing.T) {
	candidates := make([]satellite.SatelliteCandidate, 0, 10)
	elements := make(map[ids.SatelliteID]satellite.OrbitalElements)
	for i := 0; i < 10; i++ {
		id := ids.SatelliteID(i)
		candidates = append(candidates, satellite.SatelliteCandidate{SatelliteID: id})
		elements[id] = satellite.OrbitalElements{MeanAnomalyDeg: 1.0, RAANDeg: 1.0}
	}

	analysis := Analyze(candidates, elements)
	require.Equal(t, 0.0, analysis.DiversityScore)
}

func TestBinIndexWraps(t *testing.T) {
	require.Equal(t, 11, binIndex(-1, 360, 12))
	require.Equal(t, 11, binIndex(359, 360, 12))
}

func TestAnalyzePerConstellationMembersAndRating(t *testing.T) {
	candidates := make([]satellite.SatelliteCandidate, 0, 4)
	elements := make(map[ids.SatelliteID]satellite.OrbitalElements)
	// Four OneWeb satellites spread evenly: the best a 4-satellite
	// constellation can do, so the adaptive rating grades it excellent even
	// though 4 satellites cannot fill 12 bins.
	for i := 0; i < 4; i++ {
		id := ids.SatelliteID(i)
		candidates = append(candidates, satellite.SatelliteCandidate{SatelliteID: id, Constellation: ids.ConstellationOneWeb})
		elements[id] = satellite.OrbitalElements{
			MeanAnomalyDeg: float64(i) * 90.0,
			RAANDeg:        float64(i) * 90.0,
		}
	}

	analysis := Analyze(candidates, elements)
	require.Len(t, analysis.PerConstellation, 2)

	starlink := analysis.PerConstellation[0]
	require.Equal(t, ids.ConstellationStarlink, starlink.Constellation)
	require.Equal(t, 0, starlink.SatelliteCount)
	require.Equal(t, RatingPoor, starlink.Rating)

	oneweb := analysis.PerConstellation[1]
	require.Equal(t, ids.ConstellationOneWeb, oneweb.Constellation)
	require.Equal(t, 4, oneweb.SatelliteCount)
	require.Equal(t, RatingExcellent, oneweb.Rating)

	members := 0
	for _, bin := range oneweb.MeanAnomaly.Members {
		members += len(bin)
	}
	require.Equal(t, 4, members)
}

func TestRateDiversityClusteredIsPoor(t *testing.T) {
	require.Equal(t, RatingPoor, rateDiversity(0.0, 10))
	require.Equal(t, RatingPoor, rateDiversity(0.5, 0))
}

func TestAchievableEntropyCeilings(t *testing.T) {
	// More satellites than bins can reach a perfectly even spread.
	require.InDelta(t, 1.0, achievableEntropy(24, 12), 1e-9)
	// Fewer satellites than bins cannot: 4 of 12 bins occupied at best.
	require.Less(t, achievableEntropy(4, 12), 1.0)
	require.Greater(t, achievableEntropy(4, 12), 0.0)
	require.Equal(t, 0.0, achievableEntropy(0, 12))
}
