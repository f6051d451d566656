// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	m := New()
	require.NotNil(t, m.Registry)
	require.Error(t, m.Register(m.StageDuration))
	require.Error(t, m.Register(m.SatellitesProcessed))
	require.Error(t, m.Register(m.HandoverEventsEmitted))
	require.Error(t, m.Register(m.ValidationPassRate))
	require.Error(t, m.Register(m.IndexStoreDegraded))
}

func TestObserveStageRecordsDuration(t *testing.T) {
	m := New()
	m.ObserveStage("load", 250*time.Millisecond)

	count := testutil.CollectAndCount(m.StageDuration)
	require.Equal(t, 1, count)
}

func TestIndexStoreDegradedGauge(t *testing.T) {
	m := New()
	m.IndexStoreDegraded.Set(1)
	require.Equal(t, float64(1), testutil.ToFloat64(m.IndexStoreDegraded))
}
