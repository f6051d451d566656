// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package output implements the output builder: it assembles the
// canonical JSON run artifact from every upstream stage's results and
// writes it, plus one JSON file per validation category under
// validation_snapshots/, to OutputDir. On a fatal run it instead writes a
// structured error snapshot to the same canonical path.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/luxfi/constellation/coordinator"
	"github.com/luxfi/constellation/coverage"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/phase"
	"github.com/luxfi/constellation/physics"
	"github.com/luxfi/constellation/satellite"
)

// CanonicalArtifactFile is the fixed filename the canonical run output and,
// on failure, the error snapshot are written under.
const CanonicalArtifactFile = "data_integration_output.json"

// ConstellationSummary reports one constellation's contribution to the run.
type ConstellationSummary struct {
	SatelliteCount int     `json:"satellite_count"`
	PoolSize       int     `json:"pool_size"`
	TimeRangeHours float64 `json:"time_range_hours"`
}

// SatelliteSummary is one line of the canonical artifact's flat satellite
// listing: enough to cross-reference a satellite against the pool and
// per-category validation snapshots without re-reading the bulk dumps.
type SatelliteSummary struct {
	ID            string `json:"id"`
	Constellation string `json:"constellation"`
	Selected      bool   `json:"selected"`
}

// PostgreSQLSummary reports the index store's participation in this run.
type PostgreSQLSummary struct {
	Connected     bool   `json:"postgresql_connected"`
	Status        string `json:"status"` // "connected" | "volume_only"
	DegradeReason string `json:"degrade_reason,omitempty"`
}

// ObserverLocationSummary is the ground observer position the run used.
type ObserverLocationSummary struct {
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
	AltKM  float64 `json:"alt_km"`
}

// AcademicCompliance summarizes the zero-tolerance and coverage-guarantee
// results a reviewer would check before trusting this run's output.
type AcademicCompliance struct {
	ZeroToleranceRejections  []string `json:"zero_tolerance_rejections"`
	Coverage95PctPassed      bool     `json:"coverage_95pct_passed"`
	ScientificDesignCitation string   `json:"scientific_design_citation"`
}

// StorageBalanceSummary reports the index/bulk split analysis: how this
// run's record count mapped onto the adaptive index-share target, and
// whether the round-trip count check found disagreements.
type StorageBalanceSummary struct {
	Status           string  `json:"status"` // "hybrid" | "volume_only"
	RecordCount      int     `json:"record_count"`
	TargetIndexShare float64 `json:"target_index_share"`
	MismatchCount    int     `json:"mismatch_count"`
}

// Metadata is the canonical artifact's nested metadata block.
type Metadata struct {
	ObserverLocation    ObserverLocationSummary    `json:"observer_location"`
	StorageArchitecture string                     `json:"storage_architecture"`
	StorageBalance      StorageBalanceSummary      `json:"storage_balance"`
	TLEChecksum         string                     `json:"tle_checksum,omitempty"`
	ProcessingMetrics   map[string]int64           `json:"processing_metrics"`
	ValidationSummary   []satellite.ValidationResult `json:"validation_summary"`
	AcademicCompliance  AcademicCompliance         `json:"academic_compliance"`
}

// Artifact is the canonical run output: the spec-mandated top-level keys
// (Stage through Metadata) plus the full domain detail a downstream
// consumer needs without re-running the pipeline.
type Artifact struct {
	Stage                  string                           `json:"stage"`
	TotalSatellites        int                              `json:"total_satellites"`
	SuccessfullyIntegrated int                              `json:"successfully_integrated"`
	ConstellationSummary   map[string]ConstellationSummary  `json:"constellation_summary"`
	Satellites             []SatelliteSummary               `json:"satellites"`
	PostgreSQLSummary       PostgreSQLSummary                `json:"postgresql_summary"`
	Metadata                Metadata                         `json:"metadata"`

	RunID                string                      `json:"run_id"`
	GeneratedAt          time.Time                   `json:"generated_at"`
	Pool                 satellite.PoolConfiguration `json:"pool_configuration"`
	HandoverEvents       []satellite.HandoverEvent   `json:"handover_events"`
	PhaseAnalysis        phase.Analysis              `json:"phase_analysis"`
	CoordinatorResult    coordinator.Result          `json:"coordinator_result"`
	CoverageAssessment   coverage.Assessment         `json:"coverage_assessment"`
	PhysicsAnalysis      physics.PoolPhysicsAnalysis `json:"physics_analysis"`
	ValidationStatus     ids.ValidationStatus        `json:"validation_status"`
	StageDurationsMillis map[string]int64            `json:"stage_durations_millis"`
}

// ErrorSnapshot is the structured error artifact written to the canonical
// output path when a run aborts fatally instead of completing.
type ErrorSnapshot struct {
	Stage          string         `json:"stage"`
	ErrorKind      string         `json:"error_kind"`
	Message        string         `json:"message"`
	Timestamp      time.Time      `json:"timestamp"`
	PartialResults *Artifact      `json:"partial_results,omitempty"`
}

// Builder writes the canonical artifact and per-category validation
// snapshots to outputDir.
type Builder struct {
	outputDir string
}

// New returns a Builder rooted at outputDir.
func New(outputDir string) *Builder {
	return &Builder{outputDir: outputDir}
}

// Write serializes the artifact to OutputDir/data_integration_output.json.
func (b *Builder) Write(artifact Artifact) error {
	return b.writeJSON(artifact)
}

// WriteErrorSnapshot serializes snapshot to the same canonical path a
// successful Write would have used, so a downstream consumer always finds
// one file at a fixed location regardless of how the run ended.
func (b *Builder) WriteErrorSnapshot(snapshot ErrorSnapshot) error {
	return b.writeJSON(snapshot)
}

func (b *Builder) writeJSON(v interface{}) error {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return fmt.Errorf("output: create output dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("output: marshal artifact: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.outputDir, CanonicalArtifactFile), data, 0o644); err != nil {
		return fmt.Errorf("output: write artifact: %w", err)
	}
	return nil
}

// WriteValidationSnapshots writes one JSON file per category under
// OutputDir/validation_snapshots/<category>.json, so a reviewer can inspect
// any single category's checks without parsing the full artifact.
func (b *Builder) WriteValidationSnapshots(results []satellite.ValidationResult) error {
	dir := filepath.Join(b.outputDir, "validation_snapshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output: create validation snapshots dir: %w", err)
	}
	for _, r := range results {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("output: marshal %s snapshot: %w", r.Category, err)
		}
		path := filepath.Join(dir, r.Category+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("output: write %s snapshot: %w", r.Category, err)
		}
	}
	return nil
}
