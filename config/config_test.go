// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultParamsValidates(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestValidateRejectsNonIncreasingThresholds(t *testing.T) {
	p := DefaultParams()
	p.ElevationThresholdsDeg = []float64{10, 5, 15}
	require.ErrorIs(t, p.Validate(), ErrInvalidElevationThresholds)
}

func TestValidateRejectsBadQuantityBounds(t *testing.T) {
	p := DefaultParams()
	p.StarlinkBounds = QuantityBounds{Min: 10, Max: 5}
	require.ErrorIs(t, p.Validate(), ErrInvalidQuantityBounds)
}

func TestValidateRejectsWeightsNotSummingToOne(t *testing.T) {
	p := DefaultParams()
	p.Objectives.CoverageContinuity = 0.9
	require.ErrorIs(t, p.Validate(), ErrInvalidObjectiveWeights)
}

func TestValidateRejectsUnknownValidationLevel(t *testing.T) {
	p := DefaultParams()
	p.ValidationLevel = "EXTREME"
	require.ErrorIs(t, p.Validate(), ErrInvalidValidationLevel)
}

func TestFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/tmp/constellation-out")
	t.Setenv("SEED", "99")
	t.Setenv("SAMPLE_MODE", "true")

	p, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "/tmp/constellation-out", p.OutputDir)
	require.Equal(t, int64(99), p.Seed)
	require.True(t, p.SampleMode)
	require.Less(t, p.QualityThreshold, DefaultParams().QualityThreshold)
}

func TestFromEnvStrictValidationDefaultsOnAndCanBeDisabled(t *testing.T) {
	p, err := FromEnv()
	require.NoError(t, err)
	require.True(t, p.StrictValidation)

	t.Setenv("STRICT_VALIDATION", "false")
	p, err = FromEnv()
	require.NoError(t, err)
	require.False(t, p.StrictValidation)
}

func TestIndexStoreConfigured(t *testing.T) {
	p := DefaultParams()
	require.False(t, p.IndexStoreConfigured())
	p.PGHost = "localhost"
	require.True(t, p.IndexStoreConfigured())
}
