// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package errkind

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCodePerKind(t *testing.T) {
	cases := map[Kind]int{
		KindNone:                    0,
		KindInputUnavailable:        1,
		KindSchemaViolation:         1,
		KindZeroToleranceFailure:    2,
		KindNoFeasibleConfiguration: 3,
		KindValidationFailed:        4,
		KindIndexStoreUnavailable:   0,
		KindPartialFailure:          0,
		KindTimeout:                 1,
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.ExitCode(), kind.String())
	}
}

func TestErrorWrapsAndUnwraps(t *testing.T) {
	inner := errors.New("boom")
	wrapped := New(KindSchemaViolation, "elevation", true, inner)

	require.Equal(t, "elevation: SchemaViolation: boom", wrapped.Error())
	require.ErrorIs(t, wrapped, inner)

	classified, ok := As(wrapped)
	require.True(t, ok)
	require.Equal(t, KindSchemaViolation, classified.Kind)
	require.True(t, classified.Fatal)
}

func TestAsFailsForUnclassifiedError(t *testing.T) {
	_, ok := As(errors.New("plain"))
	require.False(t, ok)
}
