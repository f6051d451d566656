// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package satellite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/constellation/ids"
)

func TestArenaAddLookupGet(t *testing.T) {
	arena := NewArena(2)
	id := arena.Add(Satellite{ExternalID: "STARLINK-1", Constellation: ids.ConstellationStarlink})

	got, ok := arena.Lookup("STARLINK-1")
	require.True(t, ok)
	require.Equal(t, id, got)
	require.Equal(t, "STARLINK-1", arena.Get(id).ExternalID)
	require.Equal(t, 1, arena.Len())
}

func TestArenaByConstellation(t *testing.T) {
	arena := NewArena(3)
	s1 := arena.Add(Satellite{ExternalID: "STARLINK-1", Constellation: ids.ConstellationStarlink})
	arena.Add(Satellite{ExternalID: "ONEWEB-1", Constellation: ids.ConstellationOneWeb})
	s2 := arena.Add(Satellite{ExternalID: "STARLINK-2", Constellation: ids.ConstellationStarlink})

	got := arena.ByConstellation(ids.ConstellationStarlink)
	require.ElementsMatch(t, []ids.SatelliteID{s1, s2}, got)
}

func TestVisibleSampleCount(t *testing.T) {
	sat := Satellite{Samples: []PositionSample{
		{Observer: RelativeToObserver{IsVisible: true}},
		{Observer: RelativeToObserver{IsVisible: false}},
		{Observer: RelativeToObserver{IsVisible: true}},
	}}
	require.Equal(t, 2, sat.VisibleSampleCount())
}

func TestBitSetSetHasClearCount(t *testing.T) {
	b := NewBitSet(200)
	b.Set(ids.SatelliteID(5))
	b.Set(ids.SatelliteID(190))
	require.True(t, b.Has(ids.SatelliteID(5)))
	require.False(t, b.Has(ids.SatelliteID(6)))
	require.Equal(t, 2, b.Count())

	b.Clear(ids.SatelliteID(5))
	require.False(t, b.Has(ids.SatelliteID(5)))
	require.Equal(t, 1, b.Count())
}

func TestBitSetToSliceAndClone(t *testing.T) {
	b := NewBitSet(10)
	b.Set(ids.SatelliteID(1))
	b.Set(ids.SatelliteID(3))

	require.Equal(t, []ids.SatelliteID{1, 3}, b.ToSlice())

	clone := b.Clone()
	clone.Set(ids.SatelliteID(9))
	require.False(t, b.Has(ids.SatelliteID(9)))
	require.True(t, clone.Has(ids.SatelliteID(9)))
}
