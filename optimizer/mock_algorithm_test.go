// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package optimizer

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/luxfi/constellation/rng"
	"github.com/luxfi/constellation/satellite"
)

// MockAlgorithm is a gomock implementation of Algorithm, hand-written in
// the shape mockgen produces for a small source-mode interface.
type MockAlgorithm struct {
	ctrl     *gomock.Controller
	recorder *MockAlgorithmMockRecorder
}

type MockAlgorithmMockRecorder struct {
	mock *MockAlgorithm
}

func NewMockAlgorithm(ctrl *gomock.Controller) *MockAlgorithm {
	mock := &MockAlgorithm{ctrl: ctrl}
	mock.recorder = &MockAlgorithmMockRecorder{mock}
	return mock
}

func (m *MockAlgorithm) EXPECT() *MockAlgorithmMockRecorder {
	return m.recorder
}

func (m *MockAlgorithm) Name() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Name")
	name, _ := ret[0].(string)
	return name
}

func (mr *MockAlgorithmMockRecorder) Name() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Name", reflect.TypeOf((*MockAlgorithm)(nil).Name))
}

func (m *MockAlgorithm) Optimize(ctx context.Context, in Input, source rng.Source) (satellite.PoolConfiguration, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Optimize", ctx, in, source)
	pool, _ := ret[0].(satellite.PoolConfiguration)
	err, _ := ret[1].(error)
	return pool, err
}

func (mr *MockAlgorithmMockRecorder) Optimize(ctx, in, source interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Optimize", reflect.TypeOf((*MockAlgorithm)(nil).Optimize), ctx, in, source)
}
