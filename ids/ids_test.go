// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSatelliteIDStringInvalid(t *testing.T) {
	require.Equal(t, "<invalid>", Invalid.String())
	require.Equal(t, "sat#5", SatelliteID(5).String())
}

func TestParseConstellation(t *testing.T) {
	require.Equal(t, ConstellationStarlink, ParseConstellation("STARLINK"))
	require.Equal(t, ConstellationOneWeb, ParseConstellation("OneWeb"))
	require.Equal(t, ConstellationUnknown, ParseConstellation(""))
	require.Equal(t, ConstellationOther, ParseConstellation("iridium"))
}

func TestEventKindString(t *testing.T) {
	require.Equal(t, "A4", EventA4.String())
	require.Equal(t, "unknown", EventUnknown.String())
}

func TestParseValidationLevel(t *testing.T) {
	require.Equal(t, LevelFast, ParseValidationLevel("FAST"))
	require.Equal(t, LevelComprehensive, ParseValidationLevel("COMPREHENSIVE"))
	require.Equal(t, LevelStandard, ParseValidationLevel("garbage"))
}

func TestPhaseStateString(t *testing.T) {
	require.Equal(t, "Candidate", PhaseCandidate.String())
	require.Equal(t, "Rejected", PhaseRejected.String())
}
