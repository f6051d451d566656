// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

func TestAdaptiveIndexShareTiers(t *testing.T) {
	require.Equal(t, 0.15, AdaptiveIndexShare(0))
	require.Equal(t, 0.15, AdaptiveIndexShare(9_999))
	require.Equal(t, 0.20, AdaptiveIndexShare(10_000))
	require.Equal(t, 0.20, AdaptiveIndexShare(99_999))
	require.Equal(t, 0.25, AdaptiveIndexShare(100_000))
}

func TestPersistBulkOnlyWhenIndexStoreNotConfigured(t *testing.T) {
	cfg := config.DefaultParams()
	cfg.OutputDir = t.TempDir()
	require.False(t, cfg.IndexStoreConfigured())

	arena := satellite.NewArena(2)
	arena.Add(satellite.Satellite{
		ExternalID:    "STARLINK-1",
		Constellation: ids.ConstellationStarlink,
		Samples: []satellite.PositionSample{
			{TimestampUnixMilli: 0, Observer: satellite.RelativeToObserver{IsVisible: true, ElevationDeg: 15}},
			{TimestampUnixMilli: 30_000},
		},
	})
	arena.Add(satellite.Satellite{
		ExternalID:    "ONEWEB-1",
		Constellation: ids.ConstellationOneWeb,
		Samples:       []satellite.PositionSample{{TimestampUnixMilli: 0}},
	})

	in := New(context.Background(), cfg, nil, nil)
	defer in.Close()

	result, err := in.Persist(context.Background(), arena, nil, nil, "run-1", time.Unix(0, 0))
	require.NoError(t, err)
	require.False(t, result.IndexStoreWrites)
	require.True(t, result.Degraded)
	require.Equal(t, "volume_only", result.StorageBalance.Status)
	require.Equal(t, 3, result.StorageBalance.RecordCount)
	require.Equal(t, 0.15, result.StorageBalance.TargetIndexShare)
	require.Equal(t, 1, result.Balance.Counts["starlink"])
	require.Equal(t, 1, result.Balance.Counts["oneweb"])
}
