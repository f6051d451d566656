// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSourceIsDeterministic(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)
	for i := 0; i < 10; i++ {
		require.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestNewSourceDiffersAcrossSeeds(t *testing.T) {
	a := NewSource(1)
	b := NewSource(2)
	require.NotEqual(t, a.Uint64(), b.Uint64())
}

func TestFloat64InUnitRange(t *testing.T) {
	s := NewSource(7)
	for i := 0; i < 100; i++ {
		f := s.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
	}
}

func TestIDHashIsDeterministic(t *testing.T) {
	require.Equal(t, IDHash("STARLINK-1"), IDHash("STARLINK-1"))
	require.NotEqual(t, IDHash("STARLINK-1"), IDHash("STARLINK-2"))
}

func TestSignedTermWithinSpan(t *testing.T) {
	for _, id := range []string{"A", "B", "STARLINK-9999"} {
		v := SignedTerm(id, 3.0)
		require.GreaterOrEqual(t, v, -3.0)
		require.LessOrEqual(t, v, 3.0)
	}
}

func TestTrigTermWithinSpanAndDeterministic(t *testing.T) {
	a := TrigTerm("STARLINK-1", "rsrp", 2.0)
	b := TrigTerm("STARLINK-1", "rsrp", 2.0)
	require.Equal(t, a, b)
	require.GreaterOrEqual(t, a, -2.0)
	require.LessOrEqual(t, a, 2.0)
}
