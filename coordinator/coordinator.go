// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coordinator implements the temporal-spatial coordinator: it
// detects gaps and inter-constellation overlaps and conflicts, applies the
// OneWeb mean-anomaly phase offset and re-evaluates gaps, assigns the
// primary/gap-filler roles, and drives each satellite through the
// PhaseState state machine (Candidate -> PhaseAdjusted -> RoleAssigned ->
// Integrated, or -> Rejected when no adjustment produces a qualifying
// role).
package coordinator

import (
	"sort"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

// MaxGapMinutes is the longest tolerated silence between consecutive
// coverage windows for one satellite before it is flagged.
const MaxGapMinutes = 2.0

// MinOverlapMinutes is the simultaneous-coverage span between two
// satellites of different constellations that must be exceeded for it to be
// recorded as an overlap.
const MinOverlapMinutes = 5.0

// ConflictAzimuthSepDeg is the azimuth separation below which an
// overlapping cross-constellation pair contends for the same patch of sky
// and is recorded as a conflict.
const ConflictAzimuthSepDeg = 15.0

// OneWebPhaseOffsetDeg is the fixed mean-anomaly offset applied to every
// OneWeb satellite so its passes interleave with Starlink's instead of
// stacking on them. Mean anomaly is linear in time, so the offset is
// applied as a time shift of offset/360 of the orbital period, after which
// gaps are re-evaluated.
const OneWebPhaseOffsetDeg = 30.0

// Role is the coverage duty a constellation's satellites carry.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleGapFiller Role = "gap_filler"
)

// Responsibility shares of total coverage duty per role.
const (
	PrimaryResponsibility   = 0.70
	GapFillerResponsibility = 0.30
)

// ElevationBand is the elevation range a role serves.
type ElevationBand struct {
	MinDeg float64
	MaxDeg float64
}

// Starlink covers the wide low band; OneWeb fills the overhead band where
// Starlink passes are sparse.
var (
	PrimaryBand   = ElevationBand{MinDeg: 5, MaxDeg: 20}
	GapFillerBand = ElevationBand{MinDeg: 20, MaxDeg: 90}
)

// Gap is a detected silence between two consecutive coverage windows for
// one satellite.
type Gap struct {
	SatelliteID       ids.SatelliteID
	AfterWindowEnd    int64
	BeforeWindowStart int64
	DurationMinutes   float64
}

// Overlap is a simultaneous-coverage period longer than MinOverlapMinutes
// between two satellites of different constellations.
type Overlap struct {
	SatelliteA      ids.SatelliteID
	SatelliteB      ids.SatelliteID
	StartUnixMilli  int64
	EndUnixMilli    int64
	DurationMinutes float64
}

// Conflict is an overlapping cross-constellation pair whose mean azimuths
// are within ConflictAzimuthSepDeg of each other.
type Conflict struct {
	SatelliteA           ids.SatelliteID
	SatelliteB           ids.SatelliteID
	AzimuthSeparationDeg float64
}

// RoleAssignment is the coordinator's verdict for one satellite: the
// terminal state it reached, and when Integrated, the role it serves with
// its responsibility share and elevation band.
type RoleAssignment struct {
	SatelliteID    ids.SatelliteID
	State          ids.PhaseState
	Role           Role
	Responsibility float64
	Band           ElevationBand
	IsServing      bool
	PhaseAdjusted  bool
	Reason         string
}

// Result bundles every artifact the coordinator produces for one run.
// GapsAfterAdjustment is the gap set re-evaluated after the OneWeb phase
// offset; role assignment is driven by it, not by the initial Gaps.
type Result struct {
	Gaps                []Gap
	GapsAfterAdjustment []Gap
	Overlaps            []Overlap
	Conflicts           []Conflict
	Assignments         []RoleAssignment
}

// SatelliteWindows is the coordinator's input: one satellite's derived
// CoverageWindows plus the orbital period (for the phase-offset time
// shift) and mean azimuth (for conflict detection).
type SatelliteWindows struct {
	SatelliteID          ids.SatelliteID
	Constellation        ids.Constellation
	OrbitalPeriodMinutes float64
	MeanAzimuthDeg       float64
	Windows              []satellite.CoverageWindow
}

// Coordinate runs gap detection, overlap and conflict detection, the
// OneWeb phase adjustment with gap re-evaluation, and role assignment, in
// that order, since each step depends on the previous one's results.
func Coordinate(inputs []SatelliteWindows) Result {
	var result Result

	for _, sw := range inputs {
		result.Gaps = append(result.Gaps, detectGaps(sw)...)
	}

	result.Overlaps = detectOverlaps(inputs)
	result.Conflicts = detectConflicts(inputs, result.Overlaps)

	adjusted := applyPhaseOffset(inputs)
	for _, sw := range adjusted {
		result.GapsAfterAdjustment = append(result.GapsAfterAdjustment, detectGaps(sw)...)
	}

	for i := range adjusted {
		result.Assignments = append(result.Assignments,
			assignRole(adjusted[i], inputs[i], result.GapsAfterAdjustment, result.Conflicts))
	}

	return result
}

func detectGaps(sw SatelliteWindows) []Gap {
	if len(sw.Windows) < 2 {
		return nil
	}
	windows := append([]satellite.CoverageWindow{}, sw.Windows...)
	sort.Slice(windows, func(i, j int) bool { return windows[i].AOSUnixMilli < windows[j].AOSUnixMilli })

	var gaps []Gap
	for i := 1; i < len(windows); i++ {
		gapMinutes := float64(windows[i].AOSUnixMilli-windows[i-1].LOSUnixMilli) / 1000.0 / 60.0
		if gapMinutes > MaxGapMinutes {
			gaps = append(gaps, Gap{
				SatelliteID:       sw.SatelliteID,
				AfterWindowEnd:    windows[i-1].LOSUnixMilli,
				BeforeWindowStart: windows[i].AOSUnixMilli,
				DurationMinutes:   gapMinutes,
			})
		}
	}
	return gaps
}

// detectOverlaps finds simultaneous-coverage periods longer than
// MinOverlapMinutes between satellites of different constellations;
// same-constellation overlaps are expected (that is the point of having a
// pool) and are not flagged.
func detectOverlaps(inputs []SatelliteWindows) []Overlap {
	var overlaps []Overlap
	for i := 0; i < len(inputs); i++ {
		for j := i + 1; j < len(inputs); j++ {
			a, b := inputs[i], inputs[j]
			if a.Constellation == b.Constellation {
				continue
			}
			for _, wa := range a.Windows {
				for _, wb := range b.Windows {
					start := maxI64(wa.AOSUnixMilli, wb.AOSUnixMilli)
					end := minI64(wa.LOSUnixMilli, wb.LOSUnixMilli)
					durationMinutes := float64(end-start) / 1000.0 / 60.0
					if durationMinutes > MinOverlapMinutes {
						overlaps = append(overlaps, Overlap{
							SatelliteA:      a.SatelliteID,
							SatelliteB:      b.SatelliteID,
							StartUnixMilli:  start,
							EndUnixMilli:    end,
							DurationMinutes: durationMinutes,
						})
					}
				}
			}
		}
	}
	return overlaps
}

// detectConflicts promotes an overlap to a conflict when the two
// satellites' mean azimuths are within ConflictAzimuthSepDeg, meaning they
// contend for the same patch of sky instead of complementing each other.
func detectConflicts(inputs []SatelliteWindows, overlaps []Overlap) []Conflict {
	azimuthByID := make(map[ids.SatelliteID]float64, len(inputs))
	for _, sw := range inputs {
		azimuthByID[sw.SatelliteID] = sw.MeanAzimuthDeg
	}

	var conflicts []Conflict
	seen := make(map[[2]ids.SatelliteID]bool)
	for _, o := range overlaps {
		pair := [2]ids.SatelliteID{o.SatelliteA, o.SatelliteB}
		if seen[pair] {
			continue
		}
		sep := azimuthSeparationDeg(azimuthByID[o.SatelliteA], azimuthByID[o.SatelliteB])
		if sep < ConflictAzimuthSepDeg {
			seen[pair] = true
			conflicts = append(conflicts, Conflict{
				SatelliteA:           o.SatelliteA,
				SatelliteB:           o.SatelliteB,
				AzimuthSeparationDeg: sep,
			})
		}
	}
	return conflicts
}

// azimuthSeparationDeg is the circular distance between two azimuths,
// always in [0, 180].
func azimuthSeparationDeg(a, b float64) float64 {
	d := a - b
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	if d > 180 {
		d = 360 - d
	}
	return d
}

// applyPhaseOffset shifts every OneWeb satellite's windows earlier by
// OneWebPhaseOffsetDeg worth of its orbital period. Satellites whose
// period is unknown (zero) are passed through unshifted.
func applyPhaseOffset(inputs []SatelliteWindows) []SatelliteWindows {
	out := make([]SatelliteWindows, len(inputs))
	for i, sw := range inputs {
		out[i] = sw
		if sw.Constellation != ids.ConstellationOneWeb || sw.OrbitalPeriodMinutes <= 0 {
			continue
		}
		shiftMillis := int64(OneWebPhaseOffsetDeg / 360.0 * sw.OrbitalPeriodMinutes * 60_000)
		shifted := make([]satellite.CoverageWindow, len(sw.Windows))
		for j, w := range sw.Windows {
			w.AOSUnixMilli -= shiftMillis
			w.LOSUnixMilli -= shiftMillis
			shifted[j] = w
		}
		out[i].Windows = shifted
	}
	return out
}

// assignRole drives one satellite to its terminal state: Rejected when no
// adjustment produced a qualifying role, Integrated otherwise, carrying
// the constellation's role, responsibility share and elevation band.
func assignRole(adjusted, original SatelliteWindows, gapsAfterAdjustment []Gap, conflicts []Conflict) RoleAssignment {
	phaseAdjusted := original.Constellation == ids.ConstellationOneWeb && original.OrbitalPeriodMinutes > 0

	if len(adjusted.Windows) == 0 {
		return RoleAssignment{
			SatelliteID:   adjusted.SatelliteID,
			State:         ids.PhaseRejected,
			PhaseAdjusted: phaseAdjusted,
			Reason:        "no coverage windows",
		}
	}

	for _, g := range gapsAfterAdjustment {
		if g.SatelliteID == adjusted.SatelliteID && g.DurationMinutes > MaxGapMinutes*2 {
			return RoleAssignment{
				SatelliteID:   adjusted.SatelliteID,
				State:         ids.PhaseRejected,
				PhaseAdjusted: phaseAdjusted,
				Reason:        "unresolvable coverage gap after phase adjustment",
			}
		}
	}

	var role Role
	var responsibility float64
	var band ElevationBand
	switch adjusted.Constellation {
	case ids.ConstellationStarlink:
		role, responsibility, band = RolePrimary, PrimaryResponsibility, PrimaryBand
	case ids.ConstellationOneWeb:
		role, responsibility, band = RoleGapFiller, GapFillerResponsibility, GapFillerBand
	default:
		return RoleAssignment{
			SatelliteID:   adjusted.SatelliteID,
			State:         ids.PhaseRejected,
			PhaseAdjusted: phaseAdjusted,
			Reason:        "no qualifying role for constellation",
		}
	}

	// A satellite contested by more than one azimuth conflict yields serving
	// duty and integrates as backup instead.
	conflictCount := 0
	for _, c := range conflicts {
		if c.SatelliteA == adjusted.SatelliteID || c.SatelliteB == adjusted.SatelliteID {
			conflictCount++
		}
	}

	return RoleAssignment{
		SatelliteID:    adjusted.SatelliteID,
		State:          ids.PhaseIntegrated,
		Role:           role,
		Responsibility: responsibility,
		Band:           band,
		IsServing:      conflictCount <= 1,
		PhaseAdjusted:  phaseAdjusted,
		Reason:         "integrated",
	}
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
