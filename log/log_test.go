// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewBuildsUsableLogger(t *testing.T) {
	l := New(zapcore.InfoLevel)
	require.NotNil(t, l)
	l.Info("hello")
	l.With().Info("still works")
}

func TestNoOpDiscardsEverything(t *testing.T) {
	l := NewNoOp()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	require.Equal(t, l, l.With())
}
