// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package satellite

import (
	"github.com/luxfi/constellation/ids"
)

// CoverageWindow is a contiguous span of visibility above a threshold,
// derived from position samples. Owned by whichever stage derives it
// (elevation filter or trajectory prediction) and discarded at run end
// unless serialized into the final artifact.
type CoverageWindow struct {
	SatelliteID    ids.SatelliteID
	AOSUnixMilli   int64
	LOSUnixMilli   int64
	MaxElevationDeg float64
	AvgRSRPdBm     float64
	QualityScore   float64// in [0,1]
}

// DurationMinutes returns the window's length in minutes.
func (w CoverageWindow) DurationMinutes() float64 {
	return float64(w.LOSUnixMilli-w.AOSUnixMilli) / 1000.0 / 60.0
}

// HandoverEvent is a synthesized 3GPP TS 38.331 measurement event.
type HandoverEvent struct {
	Kind             ids.EventKind
	ServingSatID     ids.SatelliteID
	NeighborSatID    ids.SatelliteID
	TimestampUnixMilli int64
	TriggerRSRPdBm   float64
	ServingRSRPdBm   float64
	NeighborRSRPdBm  float64
	ElevationDeg     float64
	Decision         ids.Decision
	Citation         string // 3GPP TS 38.331 clause this event type implements
}

// SatelliteCandidate is the pool optimizer's input unit: one satellite
// scored along the dimensions it trades off.
type SatelliteCandidate struct {
	SatelliteID        ids.SatelliteID
	Constellation      ids.Constellation
	CoverageScore      float64
	SignalQualityScore float64
	StabilityScore     float64
	ResourceCost       float64
	PredictedHandovers int
	CoverageWindows    []CoverageWindow
}

// PoolConfiguration is the pool optimizer's output: the selected
// satellite pool plus its scored metrics. Frozen upon acceptance by the
// coverage guarantee engine — callers must treat an accepted
// PoolConfiguration as read-only.
type PoolConfiguration struct {
	ConfigurationID       string
	StarlinkSet           []ids.SatelliteID
	OneWebSet             []ids.SatelliteID
	CoverageRate          float64
	AvgSignalQuality      float64
	EstHandoverFrequency  float64
	ResourceUtilization   float64
	FitnessScore          float64
	SourceAlgorithm       string // "ga" | "sa" | "pso"
}

// TotalSize returns the combined cardinality of both constellation sets.
func (p PoolConfiguration) TotalSize() int {
	return len(p.StarlinkSet) + len(p.OneWebSet)
}

// Contains reports whether id is present in either constellation set.
func (p PoolConfiguration) Contains(id ids.SatelliteID) bool {
	for _, s := range p.StarlinkSet {
		if s == id {
			return true
		}
	}
	for _, s := range p.OneWebSet {
		if s == id {
			return true
		}
	}
	return false
}

// Check is one named assertion within a ValidationResult.
type Check struct {
	Name     string
	Passed   bool
	Expected string
	Actual   string
	Message  string
}

// ValidationResult is one category's outcome from the validation framework.
type ValidationResult struct {
	Category string
	Checks   []Check
	PassRate float64
	Status   ids.ValidationStatus
}

// EstimateResourceCost derives a SatelliteCandidate's resource-cost input
// from a blend of two terms: an orbital-maneuver fuel proxy (eccentricity
// deviation from circular) and a ground-contact / onboard-processing load
// proxy (sample count).
func EstimateResourceCost(elements OrbitalElements, sampleCount int) float64 {
	eccentricityPenalty := elements.Eccentricity * 10.0 // near-circular orbits cost less station-keeping fuel
	contactLoad := float64(sampleCount) / 1000.0        // more contacts => more onboard processing/telemetry load
	cost := 0.6*eccentricityPenalty + 0.4*contactLoad
	if cost > 1 {
		cost = 1
	}
	if cost < 0 {
		cost = 0
	}
	return cost
}
