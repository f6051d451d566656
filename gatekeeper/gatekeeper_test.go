// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gatekeeper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

func arenaWithBoth() *satellite.Arena {
	arena := satellite.NewArena(2)
	arena.Add(satellite.Satellite{ExternalID: "S1", Constellation: ids.ConstellationStarlink})
	arena.Add(satellite.Satellite{ExternalID: "O1", Constellation: ids.ConstellationOneWeb})
	return arena
}

func TestCheckPassesValidConfiguration(t *testing.T) {
	report := Check(Input{
		ConfiguredAlgorithms: []string{"ga", "sa", "pso"},
		Arena:                arenaWithBoth(),
		OutputDir:            "./output",
	})
	require.True(t, report.Allowed)
	require.Empty(t, report.Reasons)
}

func TestCheckRejectsUnknownAlgorithm(t *testing.T) {
	report := Check(Input{
		ConfiguredAlgorithms: []string{"ga", "random_forest"},
		Arena:                arenaWithBoth(),
	})
	require.False(t, report.Allowed)
	require.Contains(t, report.Reasons[0], "random_forest")
	require.Contains(t, report.Reasons[0], "錯誤動態池規劃器")
}

func TestCheckRejectsRandomSelectionPlanner(t *testing.T) {
	report := Check(Input{
		ConfiguredAlgorithms: []string{"RandomSelectionPlanner"},
		Arena:                arenaWithBoth(),
	})
	require.False(t, report.Allowed)
	require.Contains(t, report.Reasons[0], "錯誤動態池規劃器")
}

func TestCheckRejectsMissingConstellation(t *testing.T) {
	arena := satellite.NewArena(1)
	arena.Add(satellite.Satellite{ExternalID: "S1", Constellation: ids.ConstellationStarlink})

	report := Check(Input{ConfiguredAlgorithms: []string{"ga"}, Arena: arena})
	require.False(t, report.Allowed)
	found := false
	for _, r := range report.Reasons {
		if r == "no oneweb satellites present in input" {
			found = true
		}
	}
	require.True(t, found)
}

func TestCheckRejectsForbiddenSubstring(t *testing.T) {
	report := Check(Input{
		ConfiguredAlgorithms: []string{"ga"},
		Arena:                arenaWithBoth(),
		OutputDir:            "./mock_output",
	})
	require.False(t, report.Allowed)
}
