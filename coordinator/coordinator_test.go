// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package coordinator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

const minuteMillis = 60_000

func TestDetectGapsFlagsLongSilence(t *testing.T) {
	sw := SatelliteWindows{
		SatelliteID: 1,
		Windows: []satellite.CoverageWindow{
			{AOSUnixMilli: 0, LOSUnixMilli: minuteMillis},
			{AOSUnixMilli: 6 * minuteMillis, LOSUnixMilli: 7 * minuteMillis},
		},
	}
	gaps := detectGaps(sw)
	require.Len(t, gaps, 1)
	require.InDelta(t, 5.0, gaps[0].DurationMinutes, 0.01)
}

func TestDetectOverlapsCrossConstellationOverFiveMinutes(t *testing.T) {
	inputs := []SatelliteWindows{
		{SatelliteID: 1, Constellation: ids.ConstellationStarlink, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 0, LOSUnixMilli: 10 * minuteMillis}}},
		{SatelliteID: 2, Constellation: ids.ConstellationOneWeb, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 2 * minuteMillis, LOSUnixMilli: 12 * minuteMillis}}},
		{SatelliteID: 3, Constellation: ids.ConstellationStarlink, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 2 * minuteMillis, LOSUnixMilli: 12 * minuteMillis}}},
		{SatelliteID: 4, Constellation: ids.ConstellationOneWeb, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 9 * minuteMillis, LOSUnixMilli: 13 * minuteMillis}}},
	}
	overlaps := detectOverlaps(inputs)
	// Qualifying pairs: 1-2 (8 min) and 2-3 (10 min). 1-4 (1 min) and
	// 3-4 (3 min) are below the 5-minute floor; 1-3 and 2-4 are
	// same-constellation.
	require.Len(t, overlaps, 2)
	require.Equal(t, ids.SatelliteID(1), overlaps[0].SatelliteA)
	require.Equal(t, ids.SatelliteID(2), overlaps[0].SatelliteB)
	require.InDelta(t, 8.0, overlaps[0].DurationMinutes, 1e-9)
	require.Equal(t, ids.SatelliteID(2), overlaps[1].SatelliteA)
	require.Equal(t, ids.SatelliteID(3), overlaps[1].SatelliteB)
}

func TestDetectOverlapsShortOverlapIgnored(t *testing.T) {
	inputs := []SatelliteWindows{
		{SatelliteID: 1, Constellation: ids.ConstellationStarlink, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 0, LOSUnixMilli: 6 * minuteMillis}}},
		{SatelliteID: 2, Constellation: ids.ConstellationOneWeb, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 4 * minuteMillis, LOSUnixMilli: 12 * minuteMillis}}},
	}
	overlaps := detectOverlaps(inputs)
	require.Empty(t, overlaps) // 2 minutes of overlap is below the 5-minute floor
}

func TestDetectConflictsRequiresCloseAzimuth(t *testing.T) {
	inputs := []SatelliteWindows{
		{SatelliteID: 1, Constellation: ids.ConstellationStarlink, MeanAzimuthDeg: 100, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 0, LOSUnixMilli: 10 * minuteMillis}}},
		{SatelliteID: 2, Constellation: ids.ConstellationOneWeb, MeanAzimuthDeg: 110, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 0, LOSUnixMilli: 10 * minuteMillis}}},
		{SatelliteID: 3, Constellation: ids.ConstellationOneWeb, MeanAzimuthDeg: 250, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 0, LOSUnixMilli: 10 * minuteMillis}}},
	}
	overlaps := detectOverlaps(inputs)
	conflicts := detectConflicts(inputs, overlaps)
	require.Len(t, conflicts, 1)
	require.Equal(t, ids.SatelliteID(1), conflicts[0].SatelliteA)
	require.Equal(t, ids.SatelliteID(2), conflicts[0].SatelliteB)
	require.InDelta(t, 10.0, conflicts[0].AzimuthSeparationDeg, 1e-9)
}

func TestAzimuthSeparationWrapsAround(t *testing.T) {
	require.InDelta(t, 20.0, azimuthSeparationDeg(350, 10), 1e-9)
	require.InDelta(t, 180.0, azimuthSeparationDeg(0, 180), 1e-9)
}

func TestApplyPhaseOffsetShiftsOneWebOnly(t *testing.T) {
	inputs := []SatelliteWindows{
		{SatelliteID: 1, Constellation: ids.ConstellationStarlink, OrbitalPeriodMinutes: 96, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 10 * minuteMillis, LOSUnixMilli: 20 * minuteMillis}}},
		{SatelliteID: 2, Constellation: ids.ConstellationOneWeb, OrbitalPeriodMinutes: 108, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 10 * minuteMillis, LOSUnixMilli: 20 * minuteMillis}}},
	}
	adjusted := applyPhaseOffset(inputs)

	require.Equal(t, int64(10*minuteMillis), adjusted[0].Windows[0].AOSUnixMilli)

	// +30 degrees of a 108-minute period is 9 minutes earlier.
	shift := int64(30.0 / 360.0 * 108 * minuteMillis)
	require.Equal(t, int64(10*minuteMillis)-shift, adjusted[1].Windows[0].AOSUnixMilli)
	require.Equal(t, int64(20*minuteMillis)-shift, adjusted[1].Windows[0].LOSUnixMilli)

	// Inputs are never mutated.
	require.Equal(t, int64(10*minuteMillis), inputs[1].Windows[0].AOSUnixMilli)
}

func TestAssignRoleRejectsEmptyCoverage(t *testing.T) {
	sw := SatelliteWindows{SatelliteID: 1, Constellation: ids.ConstellationStarlink}
	result := assignRole(sw, sw, nil, nil)
	require.Equal(t, ids.PhaseRejected, result.State)
}

func TestAssignRoleIntegratesWithConstellationRole(t *testing.T) {
	starlink := SatelliteWindows{
		SatelliteID:   1,
		Constellation: ids.ConstellationStarlink,
		Windows:       []satellite.CoverageWindow{{AOSUnixMilli: 0, LOSUnixMilli: 10 * minuteMillis}},
	}
	result := assignRole(starlink, starlink, nil, nil)
	require.Equal(t, ids.PhaseIntegrated, result.State)
	require.Equal(t, RolePrimary, result.Role)
	require.Equal(t, PrimaryResponsibility, result.Responsibility)
	require.Equal(t, PrimaryBand, result.Band)
	require.True(t, result.IsServing)
	require.False(t, result.PhaseAdjusted)

	oneweb := SatelliteWindows{
		SatelliteID:          2,
		Constellation:        ids.ConstellationOneWeb,
		OrbitalPeriodMinutes: 108,
		Windows:              []satellite.CoverageWindow{{AOSUnixMilli: 0, LOSUnixMilli: 10 * minuteMillis}},
	}
	result = assignRole(oneweb, oneweb, nil, nil)
	require.Equal(t, ids.PhaseIntegrated, result.State)
	require.Equal(t, RoleGapFiller, result.Role)
	require.Equal(t, GapFillerResponsibility, result.Responsibility)
	require.Equal(t, GapFillerBand, result.Band)
	require.True(t, result.PhaseAdjusted)
}

func TestAssignRoleContestedSatelliteBecomesBackup(t *testing.T) {
	sw := SatelliteWindows{
		SatelliteID:   1,
		Constellation: ids.ConstellationStarlink,
		Windows:       []satellite.CoverageWindow{{AOSUnixMilli: 0, LOSUnixMilli: 10 * minuteMillis}},
	}
	conflicts := []Conflict{
		{SatelliteA: 1, SatelliteB: 2},
		{SatelliteA: 1, SatelliteB: 3},
	}
	result := assignRole(sw, sw, nil, conflicts)
	require.Equal(t, ids.PhaseIntegrated, result.State)
	require.False(t, result.IsServing)
}

func TestCoordinateReEvaluatesGapsAfterPhaseOffset(t *testing.T) {
	// OneWeb has a 4-minute gap between windows; after the -9-minute phase
	// shift both windows move together, so the gap survives re-evaluation.
	inputs := []SatelliteWindows{
		{
			SatelliteID:          1,
			Constellation:        ids.ConstellationOneWeb,
			OrbitalPeriodMinutes: 108,
			Windows: []satellite.CoverageWindow{
				{AOSUnixMilli: 20 * minuteMillis, LOSUnixMilli: 25 * minuteMillis},
				{AOSUnixMilli: 29 * minuteMillis, LOSUnixMilli: 34 * minuteMillis},
			},
		},
	}
	result := Coordinate(inputs)
	require.Len(t, result.Gaps, 1)
	require.Len(t, result.GapsAfterAdjustment, 1)
	require.InDelta(t, 4.0, result.GapsAfterAdjustment[0].DurationMinutes, 0.01)
}

func TestCoordinateEndToEnd(t *testing.T) {
	inputs := []SatelliteWindows{
		{SatelliteID: 1, Constellation: ids.ConstellationStarlink, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 0, LOSUnixMilli: 10 * minuteMillis}}},
		{SatelliteID: 2, Constellation: ids.ConstellationOneWeb, Windows: []satellite.CoverageWindow{{AOSUnixMilli: 0, LOSUnixMilli: 10 * minuteMillis}}},
	}
	result := Coordinate(inputs)
	require.Len(t, result.Assignments, 2)
	require.Empty(t, result.Gaps)
	for _, a := range result.Assignments {
		require.Equal(t, ids.PhaseIntegrated, a.State)
	}
}
