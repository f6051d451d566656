// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validation implements the validation framework: a fixed set
// of categories, each producing a ValidationResult as a value rather than
// raising on the first failed check. Aggregate folds every category's
// result into one overall status, computing a value first and deciding
// what it means afterward rather than branching on each individual check
// as it runs.
package validation

import (
	"slices"
	"time"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

// Category names, fixed across every validation run.
const (
	CategoryStructure           = "structure"
	CategoryQuality             = "quality"
	CategoryCoverage            = "coverage"
	CategoryDiversity           = "diversity"
	CategoryPhysics             = "physics"
	CategoryCrossStage          = "cross_stage"
	CategoryAcademicStandards   = "academic_standards"
)

// fastCategories run under LevelFast.
var fastCategories = []string{CategoryStructure, CategoryPhysics}

// standardCategories run under LevelStandard, in addition to fast ones.
var standardCategories = []string{CategoryQuality, CategoryCoverage, CategoryCrossStage}

// comprehensiveCategories run under LevelComprehensive, in addition to
// standard ones.
var comprehensiveCategories = []string{CategoryDiversity, CategoryAcademicStandards}

// MaxDuration is the wall-clock budget beyond which a COMPREHENSIVE run
// auto-downgrades to FAST: of the categories not yet run, only FAST ones
// still run.
const MaxDuration = 5 * time.Second

// Input bundles everything a category check needs; categories read from it
// but never mutate it.
type Input struct {
	Arena             *satellite.Arena
	Candidates        []satellite.SatelliteCandidate
	Pool              satellite.PoolConfiguration
	Events            []satellite.HandoverEvent
	QualityThreshold  float64
	MinCoverageRate   float64
	MinPhaseDiversity float64
	MinElevationDeg   float64

	// UpstreamSatelliteCount is the total satellite count loaded from the
	// upstream artifacts before this stage ran, for the cross-stage
	// satellite-count consistency check.
	UpstreamSatelliteCount int

	// GeneratedAt is this run's canonical output timestamp, for the
	// cross-stage UTC-compliance and millisecond-precision checks.
	GeneratedAt time.Time
}

// CategoryFunc evaluates one category and returns its result as a value.
type CategoryFunc func(Input) satellite.ValidationResult

var registry = map[string]CategoryFunc{
	CategoryStructure:         checkStructure,
	CategoryQuality:           checkQuality,
	CategoryCoverage:          checkCoverage,
	CategoryDiversity:         checkDiversity,
	CategoryPhysics:           checkPhysics,
	CategoryCrossStage:        checkCrossStage,
	CategoryAcademicStandards: checkAcademicStandards,
}

// Report is the full validation run's output: every category's result plus
// the overall status folded from them.
type Report struct {
	Level           ids.ValidationLevel
	Categories      []satellite.ValidationResult
	OverallStatus   ids.ValidationStatus
	OverallPassRate float64
	Grade           string // A | B | C | D, from the overall pass rate
	Downgraded      bool
	ElapsedSeconds  float64
}

// clockNow is overridable in tests.
var clockNow = time.Now

// Run executes every category required by level against in, auto-downgrading
// a COMPREHENSIVE run to FAST scope if elapsed time exceeds MaxDuration
// partway through.
func Run(level ids.ValidationLevel, in Input) Report {
	start := clockNow()
	categories := categoriesFor(level)

	report := Report{Level: level}
	downgraded := false

	for _, name := range categories {
		if level == ids.LevelComprehensive && !downgraded && clockNow().Sub(start) > MaxDuration {
			downgraded = true
		}
		if downgraded && !slices.Contains(fastCategories, name) {
			continue
		}
		fn, ok := registry[name]
		if !ok {
			continue
		}
		report.Categories = append(report.Categories, fn(in))
	}

	report.Downgraded = downgraded
	report.OverallStatus = Aggregate(report.Categories)
	report.OverallPassRate = OverallPassRate(report.Categories)
	report.Grade = GradeFor(report.OverallPassRate)
	report.ElapsedSeconds = clockNow().Sub(start).Seconds()
	return report
}

// OverallPassRate is the fraction of individual checks that passed across
// every category, not the mean of per-category rates, so a category with
// many checks weighs proportionally more.
func OverallPassRate(results []satellite.ValidationResult) float64 {
	total, passed := 0, 0
	for _, r := range results {
		for _, c := range r.Checks {
			total++
			if c.Passed {
				passed++
			}
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(passed) / float64(total)
}

// GradeFor maps an overall pass rate to a letter grade.
func GradeFor(rate float64) string {
	switch {
	case rate >= 0.90:
		return "A"
	case rate >= 0.80:
		return "B"
	case rate >= 0.70:
		return "C"
	default:
		return "D"
	}
}

func categoriesFor(level ids.ValidationLevel) []string {
	switch level {
	case ids.LevelFast:
		return append([]string{}, fastCategories...)
	case ids.LevelComprehensive:
		all := append([]string{}, fastCategories...)
		all = append(all, standardCategories...)
		all = append(all, comprehensiveCategories...)
		return all
	default:
		all := append([]string{}, fastCategories...)
		return append(all, standardCategories...)
	}
}

// Aggregate folds a slice of category results into one overall status: FAIL
// if any category failed, PARTIAL if any category is partial, PASS
// otherwise. An empty slice yields StatusSkipped.
func Aggregate(results []satellite.ValidationResult) ids.ValidationStatus {
	if len(results) == 0 {
		return ids.StatusSkipped
	}
	worst := ids.StatusPass
	for _, r := range results {
		switch r.Status {
		case ids.StatusFail:
			return ids.StatusFail
		case ids.StatusPartial:
			worst = ids.StatusPartial
		}
	}
	return worst
}

func buildResult(category string, checks []satellite.Check) satellite.ValidationResult {
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	rate := 1.0
	if len(checks) > 0 {
		rate = float64(passed) / float64(len(checks))
	}
	status := ids.StatusPass
	switch {
	case rate < 0.5:
		status = ids.StatusFail
	case rate < 1.0:
		status = ids.StatusPartial
	}
	return satellite.ValidationResult{
		Category: category,
		Checks:   checks,
		PassRate: rate,
		Status:   status,
	}
}
