// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rl builds the reinforcement-learning training dataset: a
// 20-dimension continuous state vector, a mixed discrete/continuous action
// space, and a reward signal, serialized as a protobuf-encoded tensor file
// (via the bundled structpb well-known type, the way a service with no
// domain-specific .proto schema of its own still exchanges structured data
// through protobuf) plus a companion JSON config describing the schema.
package rl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

// StateDimensions is the fixed length of every transition's state vector.
const StateDimensions = 20

// DiscreteActionCount and ContinuousActionCount fix the action space shape.
const (
	DiscreteActionCount   = 5
	ContinuousActionCount = 3
)

// Transition is one (state, action, reward, next_state, done) tuple.
type Transition struct {
	State           [StateDimensions]float64
	DiscreteAction  int // index in [0, DiscreteActionCount)
	ContinuousAction [ContinuousActionCount]float64
	Reward          float64
	NextState       [StateDimensions]float64
	Done            bool
}

// BuildState derives the 20-dimension state vector for one satellite
// candidate within a pool configuration context.
func BuildState(c satellite.SatelliteCandidate, pool satellite.PoolConfiguration) [StateDimensions]float64 {
	var s [StateDimensions]float64
	s[0] = c.CoverageScore
	s[1] = c.SignalQualityScore
	s[2] = c.StabilityScore
	s[3] = c.ResourceCost
	s[4] = float64(c.PredictedHandovers)
	s[5] = boolToFloat(c.Constellation == ids.ConstellationStarlink)
	s[6] = boolToFloat(c.Constellation == ids.ConstellationOneWeb)
	s[7] = pool.CoverageRate
	s[8] = pool.AvgSignalQuality
	s[9] = pool.EstHandoverFrequency
	s[10] = pool.ResourceUtilization
	s[11] = pool.FitnessScore
	s[12] = float64(len(pool.StarlinkSet))
	s[13] = float64(len(pool.OneWebSet))
	s[14] = boolToFloat(pool.Contains(c.SatelliteID))
	s[15] = float64(len(c.CoverageWindows))
	avgQuality, avgDuration := windowStats(c.CoverageWindows)
	s[16] = avgQuality
	s[17] = avgDuration
	s[18] = float64(c.SatelliteID) / 100000.0 // bounded identity feature, never used as the reward's sole driver
	s[19] = 1.0                               // bias term
	return s
}

func windowStats(windows []satellite.CoverageWindow) (avgQuality, avgDurationMinutes float64) {
	if len(windows) == 0 {
		return 0, 0
	}
	var sumQ, sumD float64
	for _, w := range windows {
		sumQ += w.QualityScore
		sumD += w.DurationMinutes()
	}
	n := float64(len(windows))
	return sumQ / n, sumD / n
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Reward computes the transition reward from a before/after pool
// configuration pair: positive for coverage and signal-quality gains,
// negative for added handover frequency and resource use.
func Reward(before, after satellite.PoolConfiguration) float64 {
	return 10*(after.CoverageRate-before.CoverageRate) +
		5*(after.AvgSignalQuality-before.AvgSignalQuality) -
		3*(after.EstHandoverFrequency-before.EstHandoverFrequency) -
		2*(after.ResourceUtilization-before.ResourceUtilization)
}

// Dataset is the full collection of transitions plus the seed they were
// generated under, for reproducibility.
type Dataset struct {
	Transitions []Transition
	Seed        int64
}

// Schema is the JSON companion describing the tensor file's shape, written
// alongside it so a downstream training job never has to guess dimensions.
type Schema struct {
	StateDimensions        int   `json:"state_dimensions"`
	DiscreteActionCount    int   `json:"discrete_action_count"`
	ContinuousActionCount  int   `json:"continuous_action_count"`
	TransitionCount        int   `json:"transition_count"`
	Seed                   int64 `json:"seed"`
}

// ErrWriterUnavailable signals that the dataset could not be persisted;
// callers should treat this as a skip, not a fatal error — the RL dataset
// is a training input, not a pipeline correctness requirement.
type ErrWriterUnavailable struct {
	Err error
}

func (e *ErrWriterUnavailable) Error() string { return fmt.Sprintf("rl: writer unavailable: %v", e.Err) }
func (e *ErrWriterUnavailable) Unwrap() error { return e.Err }

// Write persists the dataset as a protobuf-encoded tensor file plus a JSON
// schema file under outputDir/rl/. A failure to create the output directory
// or marshal the payload is wrapped in ErrWriterUnavailable so callers can
// skip gracefully rather than fail the whole run.
func Write(outputDir string, ds Dataset) error {
	dir := filepath.Join(outputDir, "rl")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ErrWriterUnavailable{Err: err}
	}

	tensor, err := encodeTensor(ds)
	if err != nil {
		return &ErrWriterUnavailable{Err: err}
	}
	data, err := proto.Marshal(tensor)
	if err != nil {
		return &ErrWriterUnavailable{Err: err}
	}
	if err := os.WriteFile(filepath.Join(dir, "transitions.pb"), data, 0o644); err != nil {
		return &ErrWriterUnavailable{Err: err}
	}

	schema := Schema{
		StateDimensions:       StateDimensions,
		DiscreteActionCount:   DiscreteActionCount,
		ContinuousActionCount: ContinuousActionCount,
		TransitionCount:       len(ds.Transitions),
		Seed:                  ds.Seed,
	}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return &ErrWriterUnavailable{Err: err}
	}
	if err := os.WriteFile(filepath.Join(dir, "schema.json"), schemaJSON, 0o644); err != nil {
		return &ErrWriterUnavailable{Err: err}
	}
	return nil
}

// encodeTensor flattens the dataset into a structpb.Struct: one ListValue
// of flattened transition rows plus the seed, which proto.Marshal then
// serializes using the standard protobuf wire format.
func encodeTensor(ds Dataset) (*structpb.Struct, error) {
	rows := make([]interface{}, 0, len(ds.Transitions))
	for _, t := range ds.Transitions {
		row := make([]interface{}, 0, 2*StateDimensions+1+ContinuousActionCount+2)
		for _, v := range t.State {
			row = append(row, v)
		}
		row = append(row, float64(t.DiscreteAction))
		for _, v := range t.ContinuousAction {
			row = append(row, v)
		}
		row = append(row, t.Reward)
		for _, v := range t.NextState {
			row = append(row, v)
		}
		row = append(row, boolToFloat(t.Done))
		rows = append(rows, row)
	}

	return structpb.NewStruct(map[string]interface{}{
		"seed": float64(ds.Seed),
		"rows": rows,
	})
}
