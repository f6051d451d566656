// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/constellation/elevation"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

func TestBuildCandidatesDerivesCoverageAndSignalScores(t *testing.T) {
	arena := satellite.NewArena(1)
	id := arena.Add(satellite.Satellite{
		ExternalID:    "STARLINK-1",
		Constellation: ids.ConstellationStarlink,
		Samples: []satellite.PositionSample{
			{TimestampUnixMilli: 0, Observer: satellite.RelativeToObserver{IsVisible: true, ElevationDeg: 20, RangeKM: 800}},
			{TimestampUnixMilli: 60_000, Observer: satellite.RelativeToObserver{IsVisible: true, ElevationDeg: 25, RangeKM: 790}},
		},
	})

	results := []elevation.Result{
		{
			ThresholdDeg: 10,
			Kept: map[ids.SatelliteID][]satellite.PositionSample{
				id: arena.Get(id).Samples,
			},
		},
	}

	candidates := buildCandidates(arena, results)
	require.Len(t, candidates, 1)
	require.Equal(t, id, candidates[0].SatelliteID)
	require.Greater(t, candidates[0].CoverageScore, 0.0)
	require.Greater(t, candidates[0].SignalQualityScore, 0.0)
}

func TestCoverageScoreEmptyIsZero(t *testing.T) {
	require.Equal(t, 0.0, coverageScore(nil))
}

func TestSignalScoreEmptyIsZero(t *testing.T) {
	require.Equal(t, 0.0, signalScore(nil))
}
