// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/satellite"
)

func withRegistry(t *testing.T, r map[string]func(config.Parameters) Algorithm) {
	t.Helper()
	original := Registry
	Registry = r
	t.Cleanup(func() { Registry = original })
}

func TestRunAllToleratesOneAlgorithmFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	failing := NewMockAlgorithm(ctrl)
	failing.EXPECT().Optimize(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(satellite.PoolConfiguration{}, errors.New("boom")).AnyTimes()

	succeeding := NewMockAlgorithm(ctrl)
	succeeding.EXPECT().Optimize(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(satellite.PoolConfiguration{FitnessScore: 0.8}, nil).AnyTimes()

	withRegistry(t, map[string]func(config.Parameters) Algorithm{
		"failing":    func(config.Parameters) Algorithm { return failing },
		"succeeding": func(config.Parameters) Algorithm { return succeeding },
	})

	pool, err := RunAll(context.Background(), config.Parameters{}, Input{}, 7)
	require.NoError(t, err)
	require.Equal(t, 0.8, pool.FitnessScore)
}

func TestRunAllReturnsErrorWhenEveryAlgorithmFails(t *testing.T) {
	ctrl := gomock.NewController(t)

	failing := NewMockAlgorithm(ctrl)
	failing.EXPECT().Optimize(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(satellite.PoolConfiguration{}, errors.New("boom")).AnyTimes()

	withRegistry(t, map[string]func(config.Parameters) Algorithm{
		"failing": func(config.Parameters) Algorithm { return failing },
	})

	_, err := RunAll(context.Background(), config.Parameters{}, Input{}, 7)
	require.ErrorIs(t, err, ErrNoFeasibleConfiguration)
}
