// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package errkind classifies pipeline errors into a closed taxonomy and
// attaches the process exit code each kind maps to. Every fatal error
// returned by a stage should be (or wrap) one of these sentinels so the
// orchestrator's top-level handler can pick the right exit code without
// string-matching error messages.
package errkind

import "errors"

// Kind is a closed enum of the pipeline's error taxonomy.
type Kind uint8

const (
	KindNone Kind = iota
	KindInputUnavailable
	KindSchemaViolation
	KindZeroToleranceFailure
	KindIndexStoreUnavailable
	KindNoFeasibleConfiguration
	KindValidationFailed
	KindPartialFailure
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInputUnavailable:
		return "InputUnavailable"
	case KindSchemaViolation:
		return "SchemaViolation"
	case KindZeroToleranceFailure:
		return "ZeroToleranceFailure"
	case KindIndexStoreUnavailable:
		return "IndexStoreUnavailable"
	case KindNoFeasibleConfiguration:
		return "NoFeasibleConfiguration"
	case KindValidationFailed:
		return "ValidationFailed"
	case KindPartialFailure:
		return "PartialFailure"
	case KindTimeout:
		return "Timeout"
	default:
		return "None"
	}
}

// ExitCode returns the process exit code this Kind maps to. Non-fatal
// kinds (IndexStoreUnavailable, PartialFailure) return 0 — they are
// recovered locally and never abort the run on their own.
func (k Kind) ExitCode() int {
	switch k {
	case KindZeroToleranceFailure:
		return 2
	case KindNoFeasibleConfiguration:
		return 3
	case KindValidationFailed:
		return 4
	case KindInputUnavailable, KindSchemaViolation, KindTimeout:
		return 1
	default:
		return 0
	}
}

// Error wraps an underlying error with a Kind, a stage name, and whether it
// was fatal to the run. Fatal errors abort the orchestrator; non-fatal ones
// are recorded into the validation/partial-failure output and the run
// continues.
type Error struct {
	Kind  Kind
	Stage string
	Fatal bool
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Stage + ": " + e.Kind.String()
	}
	return e.Stage + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a classified Error.
func New(kind Kind, stage string, fatal bool, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Fatal: fatal, Err: err}
}

// As is a thin wrapper around errors.As for pulling a *Error out of an
// error chain, used by the orchestrator's top-level handler.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
