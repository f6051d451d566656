// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validation

import (
	"fmt"
	"math"
	"time"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/optimizer"
	"github.com/luxfi/constellation/physics"
	"github.com/luxfi/constellation/satellite"
)

func checkStructure(in Input) satellite.ValidationResult {
	var checks []satellite.Check

	checks = append(checks, satellite.Check{
		Name:     "arena_nonempty",
		Passed:   in.Arena != nil && in.Arena.Len() > 0,
		Expected: "> 0 satellites",
		Actual:   fmt.Sprintf("%d", arenaLen(in.Arena)),
	})

	monotonic := true
	if in.Arena != nil {
		for _, id := range in.Arena.All() {
			sat := in.Arena.Get(id)
			for i := 1; i < len(sat.Samples); i++ {
				if sat.Samples[i].TimestampUnixMilli < sat.Samples[i-1].TimestampUnixMilli {
					monotonic = false
					break
				}
			}
			if !monotonic {
				break
			}
		}
	}
	checks = append(checks, satellite.Check{
		Name:     "sample_timestamps_monotonic",
		Passed:   monotonic,
		Expected: "non-decreasing per satellite",
		Actual:   fmt.Sprintf("%v", monotonic),
	})

	checks = append(checks, satellite.Check{
		Name:     "pool_nonempty",
		Passed:   in.Pool.TotalSize() > 0,
		Expected: "> 0 selected satellites",
		Actual:   fmt.Sprintf("%d", in.Pool.TotalSize()),
	})

	return buildResult(CategoryStructure, checks)
}

func checkQuality(in Input) satellite.ValidationResult {
	var checks []satellite.Check

	n := len(in.Candidates)
	below := 0
	highQuality := 0
	minQuality := 1.0
	var sum, sumSq float64
	for _, c := range in.Candidates {
		q := c.SignalQualityScore
		if q < in.QualityThreshold {
			below++
		}
		if q >= 0.8 {
			highQuality++
		}
		if q < minQuality {
			minQuality = q
		}
		sum += q
		sumSq += q * q
	}
	stddev := 0.0
	if n > 0 {
		avg := sum / float64(n)
		if variance := sumSq/float64(n) - avg*avg; variance > 0 {
			stddev = math.Sqrt(variance)
		}
	}

	checks = append(checks, satellite.Check{
		Name:     "signal_quality_above_threshold",
		Passed:   n == 0 || float64(below)/float64(n) < 0.1,
		Expected: fmt.Sprintf(">= %.2f for >= 90%% of candidates", in.QualityThreshold),
		Actual:   fmt.Sprintf("%d/%d below threshold", below, n),
	})

	minFloor := 0.8 * in.QualityThreshold
	checks = append(checks, satellite.Check{
		Name:     "min_signal_quality_above_floor",
		Passed:   n == 0 || minQuality >= minFloor,
		Expected: fmt.Sprintf(">= %.3f (0.8x threshold)", minFloor),
		Actual:   fmt.Sprintf("%.3f", minQuality),
	})

	checks = append(checks, satellite.Check{
		Name:     "high_quality_ratio_meets_minimum",
		Passed:   n == 0 || float64(highQuality)/float64(n) >= 0.3,
		Expected: ">= 0.30 of candidates at >= 0.80 quality",
		Actual:   fmt.Sprintf("%d/%d", highQuality, n),
	})

	checks = append(checks, satellite.Check{
		Name:     "signal_quality_stddev_within_bounds",
		Passed:   stddev <= 0.2,
		Expected: "<= 0.20",
		Actual:   fmt.Sprintf("%.3f", stddev),
	})

	checks = append(checks, satellite.Check{
		Name:     "avg_signal_quality_sane",
		Passed:   in.Pool.AvgSignalQuality >= 0 && in.Pool.AvgSignalQuality <= 1,
		Expected: "[0, 1]",
		Actual:   fmt.Sprintf("%.4f", in.Pool.AvgSignalQuality),
	})

	return buildResult(CategoryQuality, checks)
}

func checkCoverage(in Input) satellite.ValidationResult {
	var checks []satellite.Check

	checks = append(checks, satellite.Check{
		Name:     "coverage_rate_meets_minimum",
		Passed:   in.Pool.CoverageRate >= in.MinCoverageRate,
		Expected: fmt.Sprintf(">= %.3f", in.MinCoverageRate),
		Actual:   fmt.Sprintf("%.3f", in.Pool.CoverageRate),
	})

	return buildResult(CategoryCoverage, checks)
}

func checkDiversity(in Input) satellite.ValidationResult {
	var checks []satellite.Check

	hasBoth := len(in.Pool.StarlinkSet) > 0 && len(in.Pool.OneWebSet) > 0
	checks = append(checks, satellite.Check{
		Name:     "both_constellations_present",
		Passed:   hasBoth,
		Expected: "starlink > 0 and oneweb > 0",
		Actual:   fmt.Sprintf("starlink=%d oneweb=%d", len(in.Pool.StarlinkSet), len(in.Pool.OneWebSet)),
	})

	return buildResult(CategoryDiversity, checks)
}

// checkPhysics exercises the orbital-mechanics and link-budget package
// directly against every satellite and sample in the arena: orbital
// velocity and period must stay within LEO bounds, free-space path loss
// within the link budget's expected range, and the visible ground
// footprint within a physically sane area.
func checkPhysics(in Input) satellite.ValidationResult {
	var checks []satellite.Check

	elevationOutOfBounds, elevationTotal := 0, 0
	velocityBad, periodBad, orbitalTotal := 0, 0, 0
	fsplBad, fsplTotal := 0, 0
	coverageAreaBad, coverageAreaTotal := 0, 0

	if in.Arena != nil {
		for _, id := range in.Arena.All() {
			sat := in.Arena.Get(id)
			orbitalTotal++
			velocity := physics.OrbitalVelocityKMS(sat.Elements.SemiMajorAxisKM)
			if velocity < 6.5 || velocity > 8.5 {
				velocityBad++
			}
			period := physics.OrbitalPeriodMinutes(sat.Elements.SemiMajorAxisKM)
			if period < 80 || period > 120 {
				periodBad++
			}

			rf := physics.RFFor(sat.Constellation)
			for _, s := range sat.Samples {
				if !s.Observer.IsVisible {
					continue
				}
				elevationTotal++
				if s.Observer.ElevationDeg < 0 || s.Observer.ElevationDeg > 90 {
					elevationOutOfBounds++
				}
				if s.Observer.RangeKM > 0 {
					fsplTotal++
					fspl := physics.FriisFSPLdB(s.Observer.RangeKM, rf.FreqHz)
					if fspl < 140 || fspl > 190 {
						fsplBad++
					}
				}
				if s.AltKM > 0 {
					coverageAreaTotal++
					area := physics.CoverageAreaKM2(s.AltKM, in.MinElevationDeg)
					if area < 1e5 || area > 1e7 {
						coverageAreaBad++
					}
				}
			}
		}
	}

	checks = append(checks, satellite.Check{
		Name:     "elevation_within_physical_bounds",
		Passed:   elevationOutOfBounds == 0,
		Expected: "0 samples outside [0, 90] deg",
		Actual:   fmt.Sprintf("%d/%d out of bounds", elevationOutOfBounds, elevationTotal),
	})

	checks = append(checks, satellite.Check{
		Name:     "orbital_velocity_within_leo_bounds",
		Passed:   orbitalTotal == 0 || velocityBad == 0,
		Expected: "6.5-8.5 km/s for every satellite",
		Actual:   fmt.Sprintf("%d/%d out of bounds", velocityBad, orbitalTotal),
	})

	checks = append(checks, satellite.Check{
		Name:     "orbital_period_within_leo_bounds",
		Passed:   orbitalTotal == 0 || periodBad == 0,
		Expected: "80-120 min for every satellite",
		Actual:   fmt.Sprintf("%d/%d out of bounds", periodBad, orbitalTotal),
	})

	checks = append(checks, satellite.Check{
		Name:     "fspl_within_link_budget_bounds",
		Passed:   fsplTotal == 0 || fsplBad == 0,
		Expected: "140-190 dB for every ranged visible sample",
		Actual:   fmt.Sprintf("%d/%d out of bounds", fsplBad, fsplTotal),
	})

	checks = append(checks, satellite.Check{
		Name:     "coverage_area_within_bounds",
		Passed:   coverageAreaTotal == 0 || coverageAreaBad == 0,
		Expected: "1e5-1e7 km^2 footprint",
		Actual:   fmt.Sprintf("%d/%d out of bounds", coverageAreaBad, coverageAreaTotal),
	})

	return buildResult(CategoryPhysics, checks)
}

// checkCrossStage verifies data survived the hand-off from upstream load
// into this stage intact: satellite counts agree within tolerance, every
// constellation's observation window falls in a physically sane range, and
// the run's GeneratedAt timestamp is UTC and millisecond-precise.
func checkCrossStage(in Input) satellite.ValidationResult {
	var checks []satellite.Check

	unknown := 0
	for _, c := range in.Candidates {
		if !in.Pool.Contains(c.SatelliteID) {
			continue
		}
		if c.Constellation == ids.ConstellationUnknown {
			unknown++
		}
	}
	checks = append(checks, satellite.Check{
		Name:     "selected_candidates_have_known_constellation",
		Passed:   unknown == 0,
		Expected: "0 unknown-constellation selections",
		Actual:   fmt.Sprintf("%d unknown", unknown),
	})

	missing := 0
	for _, id := range in.Pool.StarlinkSet {
		if !hasCandidate(in.Candidates, id) {
			missing++
		}
	}
	for _, id := range in.Pool.OneWebSet {
		if !hasCandidate(in.Candidates, id) {
			missing++
		}
	}
	checks = append(checks, satellite.Check{
		Name:     "selected_satellites_trace_to_candidates",
		Passed:   missing == 0,
		Expected: "every selected satellite ID has a candidate record",
		Actual:   fmt.Sprintf("%d missing", missing),
	})

	arenaTotal := arenaLen(in.Arena)
	countMismatch := arenaTotal - in.UpstreamSatelliteCount
	if countMismatch < 0 {
		countMismatch = -countMismatch
	}
	checks = append(checks, satellite.Check{
		Name:     "satellite_count_consistency",
		Passed:   countMismatch <= 2,
		Expected: "<= 2 satellites difference between upstream load and this stage",
		Actual:   fmt.Sprintf("upstream=%d stage=%d diff=%d", in.UpstreamSatelliteCount, arenaTotal, countMismatch),
	})

	timeRangeOK, timeRangeMsg := checkTimeRanges(in.Arena)
	checks = append(checks, satellite.Check{
		Name:     "constellation_time_range_sane",
		Passed:   timeRangeOK,
		Expected: "1.5-48h observation window per constellation",
		Actual:   timeRangeMsg,
		Message:  timeRangeMsg,
	})

	utcOK := in.GeneratedAt.IsZero() || in.GeneratedAt.Location() == time.UTC
	checks = append(checks, satellite.Check{
		Name:     "generated_at_is_utc",
		Passed:   utcOK,
		Expected: "UTC (ISO 8601 Z or +00:00)",
		Actual:   fmt.Sprintf("location=%s", in.GeneratedAt.Location()),
	})

	msOK := true
	if !in.GeneratedAt.IsZero() {
		formatted := in.GeneratedAt.UTC().Format("2006-01-02T15:04:05.000Z")
		parsed, err := time.Parse("2006-01-02T15:04:05.000Z", formatted)
		msOK = err == nil && parsed.UnixMilli() == in.GeneratedAt.UTC().UnixMilli()
	}
	checks = append(checks, satellite.Check{
		Name:     "generated_at_millisecond_precision",
		Passed:   msOK,
		Expected: "round-trips through a millisecond-precision ISO 8601 format",
		Actual:   fmt.Sprintf("%v", msOK),
	})

	return buildResult(CategoryCrossStage, checks)
}

// checkTimeRanges validates each constellation's observation window spans
// between 1.5 and 48 hours, following the same bound the upstream
// integrator enforces before handing a constellation's data to this stage.
func checkTimeRanges(arena *satellite.Arena) (bool, string) {
	if arena == nil {
		return true, "no arena"
	}

	type span struct {
		min, max int64
		seen     bool
	}
	spans := map[ids.Constellation]*span{
		ids.ConstellationStarlink: {},
		ids.ConstellationOneWeb:   {},
	}

	for _, id := range arena.All() {
		sat := arena.Get(id)
		sp, ok := spans[sat.Constellation]
		if !ok {
			continue
		}
		for _, s := range sat.Samples {
			if !sp.seen || s.TimestampUnixMilli < sp.min {
				sp.min = s.TimestampUnixMilli
			}
			if !sp.seen || s.TimestampUnixMilli > sp.max {
				sp.max = s.TimestampUnixMilli
			}
			sp.seen = true
		}
	}

	ok := true
	messages := "within range"
	for _, c := range []ids.Constellation{ids.ConstellationStarlink, ids.ConstellationOneWeb} {
		sp := spans[c]
		if !sp.seen {
			continue
		}
		durationHours := float64(sp.max-sp.min) / 1000.0 / 3600.0
		if durationHours < 1.5 || durationHours > 48 {
			ok = false
			messages = fmt.Sprintf("%s時間範圍不合理: %.2f小時", c.String(), durationHours)
		}
	}
	return ok, messages
}

// checkAcademicStandards approximates the academic-compliance ratios the
// output builder reports: how much of the visible sample set carries real
// (non-placeholder) telemetry, whether the winning pool optimizer is one of
// the allowlisted concrete implementations, and whether the deterministic
// RSRP computation reproduces identically across calls.
func checkAcademicStandards(in Input) satellite.ValidationResult {
	var checks []satellite.Check

	checks = append(checks, satellite.Check{
		Name:     "phase_diversity_meets_minimum",
		Passed:   diversityProxy(in.Pool) >= in.MinPhaseDiversity,
		Expected: fmt.Sprintf(">= %.2f", in.MinPhaseDiversity),
		Actual:   fmt.Sprintf("%.2f", diversityProxy(in.Pool)),
	})

	authentic, total := 0, 0
	if in.Arena != nil {
		for _, id := range in.Arena.All() {
			sat := in.Arena.Get(id)
			for _, s := range sat.Samples {
				if !s.Observer.IsVisible {
					continue
				}
				total++
				if s.Observer.RangeKM > 0 && s.AltKM > 0 {
					authentic++
				}
			}
		}
	}
	authenticRatio := 1.0
	if total > 0 {
		authenticRatio = float64(authentic) / float64(total)
	}
	checks = append(checks, satellite.Check{
		Name:     "authentic_data_ratio_meets_minimum",
		Passed:   authenticRatio >= 0.95,
		Expected: ">= 0.95",
		Actual:   fmt.Sprintf("%.3f", authenticRatio),
	})

	_, allowlisted := optimizer.Registry[in.Pool.SourceAlgorithm]
	standardMethodRatio := 0.0
	if allowlisted {
		standardMethodRatio = 1.0
	}
	checks = append(checks, satellite.Check{
		Name:     "standard_method_ratio_meets_minimum",
		Passed:   standardMethodRatio >= 0.90,
		Expected: ">= 0.90",
		Actual:   fmt.Sprintf("source_algorithm=%q allowlisted=%v", in.Pool.SourceAlgorithm, allowlisted),
	})

	reproducible := reproducibilityProxy(in.Candidates)
	checks = append(checks, satellite.Check{
		Name:     "reproducibility_proxy_meets_minimum",
		Passed:   reproducible >= 0.85,
		Expected: ">= 0.85",
		Actual:   fmt.Sprintf("%.2f", reproducible),
	})

	return buildResult(CategoryAcademicStandards, checks)
}

// reproducibilityProxy recomputes RSRP twice for the lead candidate and
// reports 1.0 if the pure function reproduces identically, 0.0 otherwise.
func reproducibilityProxy(candidates []satellite.SatelliteCandidate) float64 {
	if len(candidates) == 0 {
		return 1.0
	}
	c := candidates[0]
	in := physics.RSRPInput{
		SatelliteID:   c.SatelliteID.String(),
		Constellation: c.Constellation,
		ElevationDeg:  10,
		RangeKM:       1000,
	}
	if physics.RSRP(in) == physics.RSRP(in) {
		return 1.0
	}
	return 0.0
}

func arenaLen(a *satellite.Arena) int {
	if a == nil {
		return 0
	}
	return a.Len()
}

func hasCandidate(candidates []satellite.SatelliteCandidate, id ids.SatelliteID) bool {
	for _, c := range candidates {
		if c.SatelliteID == id {
			return true
		}
	}
	return false
}

// diversityProxy approximates a phase-diversity score from the relative
// balance between constellations in the final pool, used when the caller
// has not computed the orbital phase analyzer's own diversity score.
func diversityProxy(pool satellite.PoolConfiguration) float64 {
	total := pool.TotalSize()
	if total == 0 {
		return 0
	}
	s := float64(len(pool.StarlinkSet))
	w := float64(len(pool.OneWebSet))
	minSet, maxSet := s, w
	if w < s {
		minSet, maxSet = w, s
	}
	if maxSet == 0 {
		return 0
	}
	return minSet / maxSet
}
