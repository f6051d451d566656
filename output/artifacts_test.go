// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/constellation/coverage"
	"github.com/luxfi/constellation/elevation"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

func testNameOf(id ids.SatelliteID) string {
	if id == 0 {
		return "STARLINK-1"
	}
	return "ONEWEB-1"
}

func TestCleanPreviousRunPurgesOnlyKnownSubdirs(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	stale := filepath.Join(dir, StatusFilesDir)
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "health_check.json"), []byte("{}"), 0o644))
	keep := filepath.Join(dir, "operator_notes")
	require.NoError(t, os.MkdirAll(keep, 0o755))

	require.NoError(t, b.CleanPreviousRun())

	_, err := os.Stat(stale)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(keep)
	require.NoError(t, err)
}

func TestWriteLayeredElevationOneFilePerLayer(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	results := []elevation.Result{
		{
			ThresholdDeg:  5,
			Constellation: ids.ConstellationStarlink,
			Stats: []elevation.Stats{
				{SatelliteID: 0, ThresholdDeg: 5, MinDeg: 6, MaxDeg: 40, AvgDeg: 20, FilteredCount: 12},
			},
		},
		{ThresholdDeg: 10, Constellation: ids.ConstellationOneWeb},
	}
	require.NoError(t, b.WriteLayeredElevation(results, testNameOf))

	data, err := os.ReadFile(filepath.Join(dir, LayeredElevationDir, "elevation_5deg_starlink.json"))
	require.NoError(t, err)
	var file LayeredElevationFile
	require.NoError(t, json.Unmarshal(data, &file))
	require.Equal(t, "starlink", file.Constellation)
	require.Len(t, file.Satellites, 1)
	require.Equal(t, "STARLINK-1", file.Satellites[0].Satellite)

	_, err = os.Stat(filepath.Join(dir, LayeredElevationDir, "elevation_10deg_oneweb.json"))
	require.NoError(t, err)
}

func TestWriteHandoverScenariosSplitsByKind(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	events := []satellite.HandoverEvent{
		{Kind: ids.EventA4, ServingSatID: 0, NeighborSatID: 1, TriggerRSRPdBm: -90, Decision: ids.DecisionTrigger},
		{Kind: ids.EventD2, ServingSatID: 0, NeighborSatID: 1, TriggerRSRPdBm: -100},
	}
	windows := []satellite.CoverageWindow{
		{SatelliteID: 0, AOSUnixMilli: 0, LOSUnixMilli: 600_000, MaxElevationDeg: 40, QualityScore: 0.9},
		{SatelliteID: 1, AOSUnixMilli: 0, LOSUnixMilli: 300_000, MaxElevationDeg: 25, QualityScore: 0.5},
	}
	require.NoError(t, b.WriteHandoverScenarios(events, windows, testNameOf))

	data, err := os.ReadFile(filepath.Join(dir, HandoverScenariosDir, "a4_events.json"))
	require.NoError(t, err)
	var a4 []HandoverEventEntry
	require.NoError(t, json.Unmarshal(data, &a4))
	require.Len(t, a4, 1)
	require.Equal(t, "STARLINK-1", a4[0].Serving)

	// A5 file exists even with no events of that kind.
	data, err = os.ReadFile(filepath.Join(dir, HandoverScenariosDir, "a5_events.json"))
	require.NoError(t, err)
	var a5 []HandoverEventEntry
	require.NoError(t, json.Unmarshal(data, &a5))
	require.Empty(t, a5)

	data, err = os.ReadFile(filepath.Join(dir, HandoverScenariosDir, "best_window.json"))
	require.NoError(t, err)
	var best BestWindowFile
	require.NoError(t, json.Unmarshal(data, &best))
	require.Equal(t, "STARLINK-1", best.Satellite)
	require.Equal(t, 0.9, best.QualityScore)
}

func TestWriteSignalQualityAnalysisFiles(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	candidates := []satellite.SatelliteCandidate{
		{
			SatelliteID:        0,
			Constellation:      ids.ConstellationStarlink,
			CoverageScore:      0.8,
			SignalQualityScore: 0.7,
			ResourceCost:       0.2,
			CoverageWindows: []satellite.CoverageWindow{
				{MaxElevationDeg: 42, AvgRSRPdBm: -92},
				{MaxElevationDeg: 47, AvgRSRPdBm: -94},
			},
		},
		{SatelliteID: 1, Constellation: ids.ConstellationOneWeb, SignalQualityScore: 0.6},
	}
	require.NoError(t, b.WriteSignalQualityAnalysis(candidates))

	data, err := os.ReadFile(filepath.Join(dir, SignalQualityDir, "signal_heatmap.json"))
	require.NoError(t, err)
	var cells []HeatmapCell
	require.NoError(t, json.Unmarshal(data, &cells))
	require.Len(t, cells, 1)
	require.Equal(t, 40, cells[0].ElevationBandDeg)
	require.Equal(t, 2, cells[0].WindowCount)
	require.InDelta(t, -93, cells[0].AvgRSRPdBm, 1e-9)

	data, err = os.ReadFile(filepath.Join(dir, SignalQualityDir, "quality_summary.json"))
	require.NoError(t, err)
	var summary []QualitySummaryEntry
	require.NoError(t, json.Unmarshal(data, &summary))
	require.Len(t, summary, 2)

	data, err = os.ReadFile(filepath.Join(dir, SignalQualityDir, "constellation_comparison.json"))
	require.NoError(t, err)
	var comparison ComparisonFile
	require.NoError(t, json.Unmarshal(data, &comparison))
	require.Len(t, comparison.Constellations, 2)
	require.Equal(t, "starlink", comparison.Constellations[0].Constellation)
}

func TestWriteProcessingCacheSortedBySatellite(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	candidates := []satellite.SatelliteCandidate{
		{SatelliteID: 1, Constellation: ids.ConstellationOneWeb},
		{SatelliteID: 0, Constellation: ids.ConstellationStarlink},
	}
	require.NoError(t, b.WriteProcessingCache("run-1", candidates, testNameOf))

	data, err := os.ReadFile(filepath.Join(dir, ProcessingCacheDir, "candidates_cache.json"))
	require.NoError(t, err)
	var cache CandidateCache
	require.NoError(t, json.Unmarshal(data, &cache))
	require.Equal(t, "run-1", cache.RunID)
	require.Len(t, cache.Candidates, 2)
	require.Equal(t, "ONEWEB-1", cache.Candidates[0].Satellite)
	require.Equal(t, "STARLINK-1", cache.Candidates[1].Satellite)
}

func TestWriteStatusFilesCompleteSet(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	now := time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, b.WriteStatusFiles(now, "abc123", StatusSummary{
		RunID:               "run-1",
		Stage:               "stage6_dynamic_pool_planning",
		Status:              "completed",
		PostgreSQLConnected: true,
	}))

	sub := filepath.Join(dir, StatusFilesDir)
	data, err := os.ReadFile(filepath.Join(sub, "last_processing_time.txt"))
	require.NoError(t, err)
	require.Equal(t, "2025-08-02T12:00:00Z\n", string(data))

	data, err = os.ReadFile(filepath.Join(sub, "tle_checksum.txt"))
	require.NoError(t, err)
	require.Equal(t, "abc123\n", string(data))

	data, err = os.ReadFile(filepath.Join(sub, "processing_status.json"))
	require.NoError(t, err)
	var status processingStatusFile
	require.NoError(t, json.Unmarshal(data, &status))
	require.Equal(t, "completed", status.Status)

	data, err = os.ReadFile(filepath.Join(sub, "health_check.json"))
	require.NoError(t, err)
	var health healthCheckFile
	require.NoError(t, json.Unmarshal(data, &health))
	require.True(t, health.Healthy)
	require.True(t, health.PostgreSQLConnected)
}

func TestWriteStatusFilesFailedRunIsUnhealthy(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	require.NoError(t, b.WriteStatusFiles(time.Unix(0, 0), "", StatusSummary{Status: "failed"}))

	data, err := os.ReadFile(filepath.Join(dir, StatusFilesDir, "health_check.json"))
	require.NoError(t, err)
	var health healthCheckFile
	require.NoError(t, json.Unmarshal(data, &health))
	require.False(t, health.Healthy)
}

func TestBuildStage6ArtifactRecommendations(t *testing.T) {
	pool := satellite.PoolConfiguration{
		ConfigurationID: "cfg-1",
		SourceAlgorithm: "ga",
		StarlinkSet:     []ids.SatelliteID{0},
		OneWebSet:       []ids.SatelliteID{1},
		FitnessScore:    0.91,
	}
	assessment := coverage.Assessment{
		Passed:              true,
		PhaseDiversityScore: 0.92,
		RemediationApplied:  coverage.StepNone,
	}
	artifact := BuildStage6Artifact(pool, assessment, AcademicCompliance{Coverage95PctPassed: true}, testNameOf)

	require.Equal(t, "cfg-1", artifact.DynamicSatellitePool.ConfigurationID)
	require.Len(t, artifact.DynamicSatellitePool.Starlink, 1)
	require.Equal(t, "STARLINK-1", artifact.DynamicSatellitePool.Starlink[0].Satellite)
	require.Len(t, artifact.Recommendations, 1)
	require.Contains(t, artifact.Recommendations[0], "no action required")
}

func TestBuildStage6ArtifactFlagsRemediation(t *testing.T) {
	artifact := BuildStage6Artifact(satellite.PoolConfiguration{}, coverage.Assessment{
		PhaseDiversityScore: 0.71,
		RemediationApplied:  coverage.StepNeedsAdjustment,
	}, AcademicCompliance{}, testNameOf)

	require.Len(t, artifact.Recommendations, 2)
	require.Contains(t, artifact.Recommendations[0], "manual adjustment")
	require.Contains(t, artifact.Recommendations[1], "phase diversity")
}

func TestWriteStage6ArtifactFile(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	artifact := BuildStage6Artifact(satellite.PoolConfiguration{ConfigurationID: "cfg-9"}, coverage.Assessment{}, AcademicCompliance{}, testNameOf)
	require.NoError(t, b.WriteStage6Artifact(artifact))

	data, err := os.ReadFile(filepath.Join(dir, DataIntegrationDir, "stage6_dynamic_pool.json"))
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "dynamic_satellite_pool")
	require.Contains(t, decoded, "coverage_validation")
	require.Contains(t, decoded, "academic_compliance_validation")
	require.Contains(t, decoded, "recommendations")
}
