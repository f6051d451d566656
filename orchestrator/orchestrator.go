// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package orchestrator implements the pipeline orchestrator: it
// sequences the upstream load, gatekeeper, handover event synthesis,
// elevation filtering, phase analysis, temporal-spatial coordination, pool
// optimization, validation, coverage guarantee, physics analysis, storage
// integration, RL dataset building and output assembly stages, recording
// the duration of every stage except the gatekeeper and storage
// integration, and degrading gracefully on non-fatal stage failures.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/luxfi/constellation/coordinator"
	"github.com/luxfi/constellation/coverage"
	"github.com/luxfi/constellation/elevation"
	"github.com/luxfi/constellation/errkind"
	"github.com/luxfi/constellation/gatekeeper"
	"github.com/luxfi/constellation/handover"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/optimizer"
	"github.com/luxfi/constellation/output"
	"github.com/luxfi/constellation/phase"
	"github.com/luxfi/constellation/physics"
	"github.com/luxfi/constellation/rl"
	"github.com/luxfi/constellation/runctx"
	"github.com/luxfi/constellation/satellite"
	"github.com/luxfi/constellation/storage"
	"github.com/luxfi/constellation/storage/index"
	"github.com/luxfi/constellation/upstream"
	"github.com/luxfi/constellation/validation"
)

// scientificDesignCitation documents the link-budget and elevation-filter
// standards the academic-compliance block asserts this run followed.
const scientificDesignCitation = "3GPP TS 38.821 NTN channel model; 3GPP TS 36.133 RSRP bounds"

// Run executes the full pipeline for one run and returns the assembled
// output artifact.
func Run(ctx context.Context, rc *runctx.RunContext, runID string) (output.Artifact, error) {
	cfg := rc.Config
	durations := make(map[string]int64)
	generatedAt := rc.Clock.Now().UTC()
	builder := output.New(cfg.OutputDir)

	timeStage := func(name string, fn func() error) error {
		start := rc.Clock.Now()
		err := fn()
		elapsed := rc.Clock.Now().Sub(start)
		durations[name] = elapsed.Milliseconds()
		rc.Metrics.ObserveStage(name, elapsed)
		return err
	}

	// abort classifies err (wrapping it if it isn't already an *errkind.Error),
	// writes the structured error-snapshot artifact to the canonical output
	// path, and returns it. Every fatal return path in Run goes through this
	// so a downstream consumer always finds one file at a fixed location
	// regardless of how the run ended.
	abort := func(kind errkind.Kind, stage string, err error, partial *output.Artifact) (output.Artifact, error) {
		classified, ok := errkind.As(err)
		if !ok {
			classified = errkind.New(kind, stage, true, err)
		}
		snapshot := output.ErrorSnapshot{
			Stage:          classified.Stage,
			ErrorKind:      classified.Kind.String(),
			Message:        classified.Error(),
			Timestamp:      generatedAt,
			PartialResults: partial,
		}
		if writeErr := builder.WriteErrorSnapshot(snapshot); writeErr != nil {
			rc.Logger.Warn("failed to write error snapshot", zap.Error(writeErr))
		}
		if writeErr := builder.WriteStatusFiles(generatedAt, "", output.StatusSummary{
			RunID:  runID,
			Stage:  classified.Stage,
			Status: "failed",
		}); writeErr != nil {
			rc.Logger.Warn("failed to write status files", zap.Error(writeErr))
		}
		return output.Artifact{}, classified
	}

	arena := satellite.NewArena(4096)

	var loadResult upstream.LoadResult
	if err := timeStage("load", func() error {
		var err error
		loadResult, err = upstream.Load(cfg.InputDir, arena)
		if err != nil {
			return errkind.New(errkind.KindInputUnavailable, "load", true, err)
		}
		return nil
	}); err != nil {
		return abort(errkind.KindInputUnavailable, "load", err, nil)
	}

	algoNames := []string{"ga", "sa", "pso"}
	gkReport := gatekeeper.Check(gatekeeper.Input{
		ConfiguredAlgorithms: algoNames,
		Arena:                arena,
		IndexStoreDSN:        cfg.PGHost,
		OutputDir:            cfg.OutputDir,
	})
	if !gkReport.Allowed {
		return abort(errkind.KindZeroToleranceFailure, "gatekeeper", fmt.Errorf("%v", gkReport.Reasons), nil)
	}

	if err := builder.CleanPreviousRun(); err != nil {
		rc.Logger.Warn("failed to purge previous run subdirectories", zap.Error(err))
	}

	tleChecksum, tleFiles, err := upstream.TLEChecksum(cfg.InputDir)
	if err != nil {
		rc.Logger.Warn("tle checksum unavailable", zap.Error(err))
	} else if len(tleFiles) > 0 {
		rc.Logger.Info("tle checksum recorded", zap.String("sha256", tleChecksum), zap.Strings("files", tleFiles))
	}

	var events []satellite.HandoverEvent
	if err := timeStage("handover", func() error {
		events = handover.Synthesize(arena, arena.All())
		return nil
	}); err != nil {
		return abort(errkind.KindSchemaViolation, "handover", err, nil)
	}

	var elevationResults []elevation.Result
	if err := timeStage("elevation", func() error {
		var err error
		elevationResults, err = elevation.FilterAll(ctx, arena, cfg.ElevationThresholdsDeg, []ids.Constellation{ids.ConstellationStarlink, ids.ConstellationOneWeb}, 8)
		return err
	}); err != nil {
		return abort(errkind.KindSchemaViolation, "elevation", err, nil)
	}

	candidates := buildCandidates(arena, elevationResults)
	elementsByID := make(map[ids.SatelliteID]satellite.OrbitalElements, arena.Len())
	for _, id := range arena.All() {
		elementsByID[id] = arena.Get(id).Elements
	}

	var phaseAnalysis phase.Analysis
	if err := timeStage("phase", func() error {
		phaseAnalysis = phase.Analyze(candidates, elementsByID)
		return nil
	}); err != nil {
		return abort(errkind.KindSchemaViolation, "phase", err, nil)
	}

	var coordResult coordinator.Result
	if err := timeStage("coordinate", func() error {
		coordResult = coordinator.Coordinate(buildSatelliteWindows(arena, elevationResults))
		return nil
	}); err != nil {
		return abort(errkind.KindSchemaViolation, "coordinate", err, nil)
	}

	var pool satellite.PoolConfiguration
	if err := timeStage("optimize", func() error {
		var err error
		pool, err = optimizer.RunAll(ctx, cfg, optimizer.Input{
			Candidates:     candidates,
			StarlinkBounds: cfg.StarlinkBounds,
			OneWebBounds:   cfg.OneWebBounds,
			Objectives:     cfg.Objectives,
		}, cfg.Seed)
		if err != nil {
			return errkind.New(errkind.KindNoFeasibleConfiguration, "optimize", true,
				fmt.Errorf("oneweb_min_satellites: %d, starlink_min_satellites: %d: %w", cfg.OneWebBounds.Min, cfg.StarlinkBounds.Min, err))
		}
		pool = optimizer.MaintainQuantities(pool, candidates, cfg.StarlinkBounds, cfg.OneWebBounds)
		return nil
	}); err != nil {
		return abort(errkind.KindNoFeasibleConfiguration, "optimize", err, nil)
	}

	minElevationDeg := cfg.ElevationThresholdsDeg[0]

	var validationReport validation.Report
	if err := timeStage("validate", func() error {
		validationReport = validation.Run(ids.ParseValidationLevel(cfg.ValidationLevel), validation.Input{
			Arena:                  arena,
			Candidates:             candidates,
			Pool:                   pool,
			Events:                 events,
			QualityThreshold:       cfg.QualityThreshold,
			MinCoverageRate:        cfg.MinCoverageRate,
			MinPhaseDiversity:      cfg.MinPhaseDiversityScore,
			MinElevationDeg:        minElevationDeg,
			UpstreamSatelliteCount: loadResult.StarlinkCount + loadResult.OneWebCount,
			GeneratedAt:            generatedAt,
		})
		return nil
	}); err != nil {
		return abort(errkind.KindSchemaViolation, "validate", err, nil)
	}
	if validationReport.OverallStatus == ids.StatusFail {
		if cfg.StrictValidation {
			return abort(errkind.KindValidationFailed, "validate", fmt.Errorf("validation failed"), nil)
		}
		rc.Logger.Warn("validation failed, continuing in non-strict mode",
			zap.String("grade", validationReport.Grade))
	}

	var coverageAssessment coverage.Assessment
	if err := timeStage("coverage", func() error {
		coverageAssessment = coverage.Evaluate(coverage.Assess{
			Windows:        constellationWindowsForPool(arena, elevationResults, pool),
			PhaseDiversity: phaseAnalysis.DiversityScore,
			BackupWindows:  backupWindows(arena, elevationResults, pool, candidates),
			WidenedWindows: widenedWindows(arena, pool, minElevationDeg-1),
		}, coverage.Thresholds{
			MinStarlinkVisible:  cfg.MinStarlinkVisible,
			MinOneWebVisible:    cfg.MinOneWebVisible,
			MinSlotCoverageRate: cfg.MinSlotCoverageRate,
			MaxGapMinutes:       cfg.MaxCoverageGapMinutes,
			MinPhaseDiversity:   cfg.MinPhaseDiversityScore,
		})
		return nil
	}); err != nil {
		return abort(errkind.KindSchemaViolation, "coverage", err, nil)
	}

	var physicsAnalysis physics.PoolPhysicsAnalysis
	if err := timeStage("physics_analysis", func() error {
		physicsAnalysis = representativePhysicsAnalysis(arena, pool)
		return nil
	}); err != nil {
		return abort(errkind.KindSchemaViolation, "physics_analysis", err, nil)
	}

	integrator := storage.New(ctx, cfg, rc.Metrics, rc.Logger)
	defer integrator.Close()
	storageResult, err := integrator.Persist(ctx, arena, events, buildSignalQualityRows(arena, elevationResults), runID, rc.Clock.Now())
	if err != nil {
		rc.Logger.Warn("storage persist failed, continuing with partial results")
		storageResult.StorageBalance.Status = "volume_only"
	}

	_ = timeStage("rl_dataset", func() error {
		if err := buildAndWriteRLDataset(cfg.OutputDir, candidates, pool, cfg.Seed); err != nil {
			rc.Logger.Warn("rl dataset write skipped", zap.Error(err))
		}
		return nil
	})

	artifact := output.Artifact{
		Stage:                  "stage6_dynamic_pool_planning",
		TotalSatellites:        arena.Len(),
		SuccessfullyIntegrated: pool.TotalSize(),
		ConstellationSummary:   buildConstellationSummary(arena, pool),
		Satellites:             buildSatelliteSummaries(arena, pool),
		PostgreSQLSummary:      buildPostgreSQLSummary(storageResult),
		Metadata: output.Metadata{
			ObserverLocation: output.ObserverLocationSummary{
				LatDeg: cfg.Observer.LatDeg,
				LonDeg: cfg.Observer.LonDeg,
				AltKM:  cfg.Observer.AltKM,
			},
			StorageArchitecture: storageArchitectureLabel(storageResult),
			StorageBalance: output.StorageBalanceSummary{
				Status:           storageResult.StorageBalance.Status,
				RecordCount:      storageResult.StorageBalance.RecordCount,
				TargetIndexShare: storageResult.StorageBalance.TargetIndexShare,
				MismatchCount:    len(storageResult.StorageBalance.Mismatches),
			},
			TLEChecksum: tleChecksum,
			ProcessingMetrics:   durations,
			ValidationSummary:   validationReport.Categories,
			AcademicCompliance: output.AcademicCompliance{
				ZeroToleranceRejections:  gkReport.Reasons,
				Coverage95PctPassed:      coverageAssessment.Passed,
				ScientificDesignCitation: scientificDesignCitation,
			},
		},
		RunID:                runID,
		GeneratedAt:          generatedAt,
		Pool:                 pool,
		HandoverEvents:       events,
		PhaseAnalysis:        phaseAnalysis,
		CoordinatorResult:    coordResult,
		CoverageAssessment:   coverageAssessment,
		PhysicsAnalysis:      physicsAnalysis,
		ValidationStatus:     validationReport.OverallStatus,
		StageDurationsMillis: durations,
	}

	nameOf := func(id ids.SatelliteID) string {
		if sat := arena.Get(id); sat != nil {
			return sat.ExternalID
		}
		return id.String()
	}

	if err := timeStage("output", func() error {
		if err := builder.Write(artifact); err != nil {
			return err
		}
		if err := builder.WriteValidationSnapshots(validationReport.Categories); err != nil {
			return err
		}
		if err := builder.WriteLayeredElevation(elevationResults, nameOf); err != nil {
			return err
		}
		if err := builder.WriteHandoverScenarios(events, allWindows(arena, elevationResults), nameOf); err != nil {
			return err
		}
		if err := builder.WriteSignalQualityAnalysis(candidates); err != nil {
			return err
		}
		if err := builder.WriteProcessingCache(runID, candidates, nameOf); err != nil {
			return err
		}
		if err := builder.WriteStage6Artifact(output.BuildStage6Artifact(pool, coverageAssessment, artifact.Metadata.AcademicCompliance, nameOf)); err != nil {
			return err
		}
		return builder.WriteStatusFiles(rc.Clock.Now(), tleChecksum, output.StatusSummary{
			RunID:               runID,
			Stage:               artifact.Stage,
			Status:              "completed",
			PostgreSQLConnected: storageResult.IndexStoreWrites,
		})
	}); err != nil {
		return abort(errkind.KindSchemaViolation, "output", err, &artifact)
	}

	return artifact, nil
}

// allWindows flattens every derived coverage window across thresholds, for
// the best-window artifact.
func allWindows(arena *satellite.Arena, results []elevation.Result) []satellite.CoverageWindow {
	var out []satellite.CoverageWindow
	for _, sw := range buildSatelliteWindows(arena, results) {
		out = append(out, sw.Windows...)
	}
	return out
}

// representativePhysicsAnalysis runs the physics package's diagnostic
// Kepler-solve/ECI-rotation/band-sweep analysis against the pool's first
// selected satellite in arena iteration order, or the zero value if the
// pool is empty.
func representativePhysicsAnalysis(arena *satellite.Arena, pool satellite.PoolConfiguration) physics.PoolPhysicsAnalysis {
	for _, id := range arena.All() {
		if !pool.Contains(id) {
			continue
		}
		return physics.AnalyzeRepresentative(*arena.Get(id))
	}
	return physics.PoolPhysicsAnalysis{}
}

// buildConstellationSummary reports each constellation's loaded count, pool
// share, and observation time-range span.
func buildConstellationSummary(arena *satellite.Arena, pool satellite.PoolConfiguration) map[string]output.ConstellationSummary {
	summary := make(map[string]output.ConstellationSummary, 2)
	for _, c := range []ids.Constellation{ids.ConstellationStarlink, ids.ConstellationOneWeb} {
		satIDs := arena.ByConstellation(c)
		summary[c.String()] = output.ConstellationSummary{
			SatelliteCount: len(satIDs),
			PoolSize:       poolSizeFor(pool, c),
			TimeRangeHours: timeRangeHours(arena, satIDs),
		}
	}
	return summary
}

func poolSizeFor(pool satellite.PoolConfiguration, c ids.Constellation) int {
	switch c {
	case ids.ConstellationStarlink:
		return len(pool.StarlinkSet)
	case ids.ConstellationOneWeb:
		return len(pool.OneWebSet)
	default:
		return 0
	}
}

// timeRangeHours spans the earliest to latest sample timestamp across ids.
func timeRangeHours(arena *satellite.Arena, satIDs []ids.SatelliteID) float64 {
	var min, max int64
	seen := false
	for _, id := range satIDs {
		sat := arena.Get(id)
		if sat == nil {
			continue
		}
		for _, s := range sat.Samples {
			if !seen || s.TimestampUnixMilli < min {
				min = s.TimestampUnixMilli
			}
			if !seen || s.TimestampUnixMilli > max {
				max = s.TimestampUnixMilli
			}
			seen = true
		}
	}
	if !seen {
		return 0
	}
	return float64(max-min) / 1000.0 / 3600.0
}

func buildSatelliteSummaries(arena *satellite.Arena, pool satellite.PoolConfiguration) []output.SatelliteSummary {
	satIDs := arena.All()
	out := make([]output.SatelliteSummary, 0, len(satIDs))
	for _, id := range satIDs {
		sat := arena.Get(id)
		if sat == nil {
			continue
		}
		out = append(out, output.SatelliteSummary{
			ID:            sat.ExternalID,
			Constellation: sat.Constellation.String(),
			Selected:      pool.Contains(id),
		})
	}
	return out
}

func buildPostgreSQLSummary(result storage.Result) output.PostgreSQLSummary {
	if result.IndexStoreWrites {
		return output.PostgreSQLSummary{Connected: true, Status: "connected"}
	}
	return output.PostgreSQLSummary{Connected: false, Status: "volume_only", DegradeReason: result.DegradeReason}
}

func storageArchitectureLabel(result storage.Result) string {
	if result.IndexStoreWrites {
		return "hybrid_postgresql_and_bulk"
	}
	return "bulk_only"
}

func buildCandidates(arena *satellite.Arena, results []elevation.Result) []satellite.SatelliteCandidate {
	bestByID := make(map[ids.SatelliteID]satellite.SatelliteCandidate)
	for _, res := range results {
		for id, samples := range res.Kept {
			sat := arena.Get(id)
			if sat == nil {
				continue
			}
			windows := elevation.DeriveCoverageWindows(id, sat.ExternalID, sat.Constellation, samples, res.ThresholdDeg, 120_000)
			candidate := satellite.SatelliteCandidate{
				SatelliteID:        id,
				Constellation:      sat.Constellation,
				CoverageScore:      coverageScore(windows),
				SignalQualityScore: signalScore(windows),
				StabilityScore:     1 - sat.Elements.Eccentricity,
				ResourceCost:       satellite.EstimateResourceCost(sat.Elements, len(sat.Samples)),
				PredictedHandovers: len(windows),
				CoverageWindows:    windows,
			}
			existing, ok := bestByID[id]
			if !ok || candidate.CoverageScore > existing.CoverageScore {
				bestByID[id] = candidate
			}
		}
	}
	out := make([]satellite.SatelliteCandidate, 0, len(bestByID))
	for _, c := range bestByID {
		out = append(out, c)
	}
	return out
}

func coverageScore(windows []satellite.CoverageWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	var sum float64
	for _, w := range windows {
		sum += w.DurationMinutes()
	}
	score := sum / 30.0 // normalized against a 30-minute reference pass
	if score > 1 {
		score = 1
	}
	return score
}

func signalScore(windows []satellite.CoverageWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	var sum float64
	for _, w := range windows {
		sum += w.QualityScore
	}
	return sum / float64(len(windows))
}

func buildSatelliteWindows(arena *satellite.Arena, results []elevation.Result) []coordinator.SatelliteWindows {
	byID := make(map[ids.SatelliteID]*coordinator.SatelliteWindows)
	type azAccum struct{ sinSum, cosSum float64 }
	azimuths := make(map[ids.SatelliteID]*azAccum)
	for _, res := range results {
		for id, samples := range res.Kept {
			sat := arena.Get(id)
			if sat == nil {
				continue
			}
			windows := elevation.DeriveCoverageWindows(id, sat.ExternalID, sat.Constellation, samples, res.ThresholdDeg, 120_000)
			sw, ok := byID[id]
			if !ok {
				sw = &coordinator.SatelliteWindows{
					SatelliteID:          id,
					Constellation:        sat.Constellation,
					OrbitalPeriodMinutes: orbitalPeriodMinutes(sat),
				}
				byID[id] = sw
				azimuths[id] = &azAccum{}
			}
			sw.Windows = append(sw.Windows, windows...)
			for _, s := range samples {
				rad := s.Observer.AzimuthDeg * math.Pi / 180
				azimuths[id].sinSum += math.Sin(rad)
				azimuths[id].cosSum += math.Cos(rad)
			}
		}
	}
	out := make([]coordinator.SatelliteWindows, 0, len(byID))
	for id, sw := range byID {
		sw.MeanAzimuthDeg = circularMeanDeg(azimuths[id].sinSum, azimuths[id].cosSum)
		out = append(out, *sw)
	}
	return out
}

func orbitalPeriodMinutes(sat *satellite.Satellite) float64 {
	if sat.Elements.SemiMajorAxisKM <= 0 {
		return 0
	}
	return physics.OrbitalPeriodMinutes(sat.Elements.SemiMajorAxisKM)
}

// circularMeanDeg converts accumulated sin/cos sums back to a mean bearing
// in [0, 360). Plain arithmetic means are wrong at the north wraparound.
func circularMeanDeg(sinSum, cosSum float64) float64 {
	if sinSum == 0 && cosSum == 0 {
		return 0
	}
	deg := math.Atan2(sinSum, cosSum) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

func windowsForPool(arena *satellite.Arena, results []elevation.Result, pool satellite.PoolConfiguration) map[ids.SatelliteID][]satellite.CoverageWindow {
	out := make(map[ids.SatelliteID][]satellite.CoverageWindow)
	for _, sw := range buildSatelliteWindows(arena, results) {
		if pool.Contains(sw.SatelliteID) {
			out[sw.SatelliteID] = sw.Windows
		}
	}
	return out
}

// constellationWindowsForPool splits the pool's coverage windows by
// constellation so the coverage guarantee engine can grid each
// constellation's own visible-satellite count independently.
func constellationWindowsForPool(arena *satellite.Arena, results []elevation.Result, pool satellite.PoolConfiguration) coverage.ConstellationWindows {
	out := coverage.ConstellationWindows{
		Starlink: make(map[ids.SatelliteID][]satellite.CoverageWindow),
		OneWeb:   make(map[ids.SatelliteID][]satellite.CoverageWindow),
	}
	for id, windows := range windowsForPool(arena, results, pool) {
		sat := arena.Get(id)
		if sat == nil {
			continue
		}
		switch sat.Constellation {
		case ids.ConstellationStarlink:
			out.Starlink[id] = windows
		case ids.ConstellationOneWeb:
			out.OneWeb[id] = windows
		}
	}
	return out
}

// buildSignalQualityRows aggregates per-(satellite, threshold) RSRP
// statistics from the derived coverage windows for the index store's
// signal_quality_statistics table.
func buildSignalQualityRows(arena *satellite.Arena, results []elevation.Result) []index.SignalQualityRow {
	var rows []index.SignalQualityRow
	for _, res := range results {
		for id, samples := range res.Kept {
			sat := arena.Get(id)
			if sat == nil {
				continue
			}
			windows := elevation.DeriveCoverageWindows(id, sat.ExternalID, sat.Constellation, samples, res.ThresholdDeg, 120_000)
			if len(windows) == 0 {
				continue
			}
			row := index.SignalQualityRow{
				SatelliteID:  sat.ExternalID,
				ThresholdDeg: res.ThresholdDeg,
				MinRSRPdBm:   windows[0].AvgRSRPdBm,
				MaxRSRPdBm:   windows[0].AvgRSRPdBm,
			}
			var sum float64
			for _, w := range windows {
				sum += w.AvgRSRPdBm
				if w.AvgRSRPdBm < row.MinRSRPdBm {
					row.MinRSRPdBm = w.AvgRSRPdBm
				}
				if w.AvgRSRPdBm > row.MaxRSRPdBm {
					row.MaxRSRPdBm = w.AvgRSRPdBm
				}
			}
			row.AvgRSRPdBm = sum / float64(len(windows))
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SatelliteID != rows[j].SatelliteID {
			return rows[i].SatelliteID < rows[j].SatelliteID
		}
		return rows[i].ThresholdDeg < rows[j].ThresholdDeg
	})
	return rows
}

// backupWindows selects the 20%-sized backup pool — per constellation, the
// highest-coverage candidates not already selected — and returns their
// coverage windows for the remediation ladder's backup-activation rung.
func backupWindows(arena *satellite.Arena, results []elevation.Result, pool satellite.PoolConfiguration, candidates []satellite.SatelliteCandidate) coverage.ConstellationWindows {
	spare := make([]satellite.SatelliteCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !pool.Contains(c.SatelliteID) {
			spare = append(spare, c)
		}
	}
	sort.Slice(spare, func(i, j int) bool {
		if spare[i].CoverageScore != spare[j].CoverageScore {
			return spare[i].CoverageScore > spare[j].CoverageScore
		}
		return spare[i].SatelliteID < spare[j].SatelliteID
	})

	starlinkQuota := backupPoolSize(len(pool.StarlinkSet))
	onewebQuota := backupPoolSize(len(pool.OneWebSet))
	backupIDs := make(map[ids.SatelliteID]bool)
	for _, c := range spare {
		switch c.Constellation {
		case ids.ConstellationStarlink:
			if starlinkQuota > 0 {
				backupIDs[c.SatelliteID] = true
				starlinkQuota--
			}
		case ids.ConstellationOneWeb:
			if onewebQuota > 0 {
				backupIDs[c.SatelliteID] = true
				onewebQuota--
			}
		}
	}

	out := coverage.ConstellationWindows{
		Starlink: make(map[ids.SatelliteID][]satellite.CoverageWindow),
		OneWeb:   make(map[ids.SatelliteID][]satellite.CoverageWindow),
	}
	for _, sw := range buildSatelliteWindows(arena, results) {
		if !backupIDs[sw.SatelliteID] {
			continue
		}
		switch sw.Constellation {
		case ids.ConstellationStarlink:
			out.Starlink[sw.SatelliteID] = sw.Windows
		case ids.ConstellationOneWeb:
			out.OneWeb[sw.SatelliteID] = sw.Windows
		}
	}
	return out
}

// backupPoolSize is 20% of the pool's share, rounded up so a non-empty
// pool always has at least one backup.
func backupPoolSize(poolSize int) int {
	if poolSize == 0 {
		return 0
	}
	return (poolSize + 4) / 5
}

// widenedWindows re-derives the pool satellites' coverage windows at a
// threshold one degree below the configured minimum, for the remediation
// ladder's widen-elevation rung.
func widenedWindows(arena *satellite.Arena, pool satellite.PoolConfiguration, thresholdDeg float64) coverage.ConstellationWindows {
	out := coverage.ConstellationWindows{
		Starlink: make(map[ids.SatelliteID][]satellite.CoverageWindow),
		OneWeb:   make(map[ids.SatelliteID][]satellite.CoverageWindow),
	}
	for _, id := range arena.All() {
		if !pool.Contains(id) {
			continue
		}
		sat := arena.Get(id)
		if sat == nil {
			continue
		}
		kept := make([]satellite.PositionSample, 0, len(sat.Samples))
		for _, s := range sat.Samples {
			if s.Observer.IsVisible && s.Observer.ElevationDeg >= thresholdDeg {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			continue
		}
		windows := elevation.DeriveCoverageWindows(id, sat.ExternalID, sat.Constellation, kept, thresholdDeg, 120_000)
		switch sat.Constellation {
		case ids.ConstellationStarlink:
			out.Starlink[id] = windows
		case ids.ConstellationOneWeb:
			out.OneWeb[id] = windows
		}
	}
	return out
}

// buildAndWriteRLDataset derives one transition per pool-selected candidate.
// Each state is built against an empty "before" pool and each next state
// against the final pool; every transition carries the same reward,
// Reward(empty pool, final pool).
func buildAndWriteRLDataset(outputDir string, candidates []satellite.SatelliteCandidate, pool satellite.PoolConfiguration, seed int64) error {
	before := satellite.PoolConfiguration{}
	var transitions []rl.Transition
	for _, c := range candidates {
		if !pool.Contains(c.SatelliteID) {
			continue
		}
		transitions = append(transitions, rl.Transition{
			State:     rl.BuildState(c, before),
			Reward:    rl.Reward(before, pool),
			NextState: rl.BuildState(c, pool),
			Done:      true,
		})
	}
	return rl.Write(outputDir, rl.Dataset{Transitions: transitions, Seed: seed})
}
