// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runctx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/constellation/config"
)

func TestNewNoOpWiresSeed(t *testing.T) {
	cfg := config.DefaultParams()
	cfg.Seed = 123
	rc := NewNoOp(cfg)
	require.Equal(t, int64(123), rc.Seed.Seed)
	require.NotNil(t, rc.Logger)
	require.NotNil(t, rc.Metrics)
}

func TestRNGIsDeterministicPerSalt(t *testing.T) {
	rc := NewNoOp(config.DefaultParams())
	a := rc.RNG(1)
	b := rc.RNG(1)
	require.Equal(t, a.Uint64(), b.Uint64())

	c := rc.RNG(2)
	require.NotEqual(t, a.Uint64(), c.Uint64())
}
