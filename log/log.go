// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log defines the logging interface passed through RunContext. It
// wraps zap rather than exposing it directly so stages depend on a small
// vocabulary of levels instead of the full zap API.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the interface every pipeline stage receives via RunContext.
// Never obtained from a package-level global.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a production-style JSON logger at the given level.
func New(level zapcore.Level) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	z, err := cfg.Build()
	if err != nil {
		// Falling back to a no-op logger is safer than panicking on a
		// logging misconfiguration during pipeline startup.
		return NewNoOp()
	}
	return &zapLogger{z: z}
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }
func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{z: l.z.With(fields...)}
}

// noOp is a logger implementation that discards everything.
type noOp struct{}

// NewNoOp returns a logger that discards everything; used by tests and by
// any stage run with logging disabled.
func NewNoOp() Logger { return noOp{} }

func (noOp) Debug(string, ...zap.Field)  {}
func (noOp) Info(string, ...zap.Field)   {}
func (noOp) Warn(string, ...zap.Field)   {}
func (noOp) Error(string, ...zap.Field)  {}
func (n noOp) With(...zap.Field) Logger  { return n }
