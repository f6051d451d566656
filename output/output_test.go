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

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

func TestWriteProducesValidJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	artifact := Artifact{
		Stage:            "stage6",
		RunID:            "run-1",
		GeneratedAt:      time.Unix(0, 0),
		Pool:             satellite.PoolConfiguration{FitnessScore: 0.9},
		ValidationStatus: ids.StatusPass,
	}
	require.NoError(t, b.Write(artifact))

	data, err := os.ReadFile(filepath.Join(dir, CanonicalArtifactFile))
	require.NoError(t, err)

	var roundTripped Artifact
	require.NoError(t, json.Unmarshal(data, &roundTripped))
	require.Equal(t, "run-1", roundTripped.RunID)
	require.Equal(t, "stage6", roundTripped.Stage)
}

func TestWriteErrorSnapshotWritesToCanonicalPath(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	snapshot := ErrorSnapshot{
		Stage:     "optimize",
		ErrorKind: "NoFeasibleConfiguration",
		Message:   "oneweb_min_satellites: 3",
		Timestamp: time.Unix(0, 0),
	}
	require.NoError(t, b.WriteErrorSnapshot(snapshot))

	data, err := os.ReadFile(filepath.Join(dir, CanonicalArtifactFile))
	require.NoError(t, err)

	var roundTripped ErrorSnapshot
	require.NoError(t, json.Unmarshal(data, &roundTripped))
	require.Equal(t, "NoFeasibleConfiguration", roundTripped.ErrorKind)
	require.Contains(t, roundTripped.Message, "oneweb_min_satellites: 3")
}

func TestWriteValidationSnapshotsOnePerCategory(t *testing.T) {
	dir := t.TempDir()
	b := New(dir)

	results := []satellite.ValidationResult{
		{Category: "structure", Status: ids.StatusPass},
		{Category: "physics", Status: ids.StatusPass},
	}
	require.NoError(t, b.WriteValidationSnapshots(results))

	for _, r := range results {
		_, err := os.Stat(filepath.Join(dir, "validation_snapshots", r.Category+".json"))
		require.NoError(t, err)
	}
}
