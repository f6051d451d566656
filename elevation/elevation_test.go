// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package elevation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

func buildArena() (*satellite.Arena, ids.SatelliteID) {
	arena := satellite.NewArena(1)
	id := arena.Add(satellite.Satellite{
		ExternalID:    "STARLINK-1",
		Constellation: ids.ConstellationStarlink,
		Samples: []satellite.PositionSample{
			{TimestampUnixMilli: 0, Observer: satellite.RelativeToObserver{IsVisible: true, ElevationDeg: 20}},
			{TimestampUnixMilli: 1000, Observer: satellite.RelativeToObserver{IsVisible: true, ElevationDeg: 8}},
			{TimestampUnixMilli: 2000, Observer: satellite.RelativeToObserver{IsVisible: true, ElevationDeg: 25}},
			{TimestampUnixMilli: 3000, Observer: satellite.RelativeToObserver{IsVisible: false, ElevationDeg: 30}},
			{TimestampUnixMilli: 4000, Observer: satellite.RelativeToObserver{IsVisible: true, ElevationDeg: 30}},
		},
	})
	return arena, id
}

func TestFilterConstellationDropsBelowThreshold(t *testing.T) {
	arena, id := buildArena()
	res := FilterConstellation(arena, []ids.SatelliteID{id}, 10, ids.ConstellationStarlink)

	require.Contains(t, res.Kept, id)
	require.Len(t, res.Kept[id], 3)
	require.Empty(t, res.Dropped)
}

func TestFilterConstellationDropsUnderMinQualifyingSamples(t *testing.T) {
	arena, id := buildArena()
	res := FilterConstellation(arena, []ids.SatelliteID{id}, 29, ids.ConstellationStarlink)

	require.NotContains(t, res.Kept, id)
	require.Contains(t, res.Dropped, id)
}

func TestFilterAllCoversEveryPair(t *testing.T) {
	arena, _ := buildArena()
	results, err := FilterAll(context.Background(), arena, []float64{5, 10}, []ids.Constellation{ids.ConstellationStarlink}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestDeriveCoverageWindowsSplitsOnGap(t *testing.T) {
	samples := []satellite.PositionSample{
		{TimestampUnixMilli: 0, Observer: satellite.RelativeToObserver{ElevationDeg: 20, RangeKM: 800}},
		{TimestampUnixMilli: 60_000, Observer: satellite.RelativeToObserver{ElevationDeg: 25, RangeKM: 790}},
		{TimestampUnixMilli: 500_000, Observer: satellite.RelativeToObserver{ElevationDeg: 15, RangeKM: 850}},
	}
	windows := DeriveCoverageWindows(1, "STARLINK-1", ids.ConstellationStarlink, samples, 10, 120_000)
	require.Len(t, windows, 2)
}
