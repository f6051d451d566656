// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coverage implements the coverage guarantee engine: it grids
// the observation window into 30-second slots, checks that the accepted
// PoolConfiguration keeps Starlink visible-count at or above
// MinStarlinkVisible and OneWeb visible-count at or above MinOneWebVisible
// for at least MinSlotCoverageRate of the slots, with no gap longer than
// MaxGapMinutes and a phase-diversity score of at least MinPhaseDiversity,
// and walks a fixed remediation ladder when a check fails before finally
// reporting NeedsAdjustment.
package coverage

import (
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

// GridSlots is the number of 30-second slots the 120-minute observation
// window is divided into (240 * 30s = 120min).
const GridSlots = 240

// SlotDurationSeconds is the width of one grid slot.
const SlotDurationSeconds = 30

// RemediationStep names one rung of the remediation ladder, in the order
// they are attempted.
type RemediationStep string

const (
	StepNone              RemediationStep = "none"
	StepActivateBackup    RemediationStep = "activate_backup"
	StepRedistributeRoles RemediationStep = "redistribute_roles"
	StepWidenElevation    RemediationStep = "widen_elevation"
	StepNeedsAdjustment   RemediationStep = "needs_adjustment"
)

// Assessment is the coverage guarantee engine's verdict for one
// PoolConfiguration.
type Assessment struct {
	StarlinkCoverageRate float64
	OneWebCoverageRate   float64
	LongestGapMinutes    float64
	PhaseDiversityScore  float64
	Passed               bool
	RemediationApplied   RemediationStep
}

// Thresholds bundles the coverage guarantee's pass/fail bounds.
type Thresholds struct {
	MinStarlinkVisible  int
	MinOneWebVisible    int
	MinSlotCoverageRate float64
	MaxGapMinutes       float64
	MinPhaseDiversity   float64
}

// ConstellationWindows splits a set of coverage windows by constellation,
// since the grid must track each constellation's own visible-satellite
// count independently rather than a single covered/not-covered boolean.
type ConstellationWindows struct {
	Starlink map[ids.SatelliteID][]satellite.CoverageWindow
	OneWeb   map[ids.SatelliteID][]satellite.CoverageWindow
}

// Assess bundles the coverage windows Evaluate grids, plus the inputs each
// remediation rung needs: BackupWindows (zero value if no backups are
// available) and WidenedWindows (the same satellites' windows recomputed at
// a wider elevation threshold).
type Assess struct {
	Windows        ConstellationWindows
	PhaseDiversity float64
	BackupWindows  ConstellationWindows
	WidenedWindows ConstellationWindows
}

// Evaluate grids the pool's coverage windows, and if the grid fails any
// threshold, walks the remediation ladder in order, stopping at the first
// step whose result passes.
func Evaluate(in Assess, th Thresholds) Assessment {
	assessment := gridAssessment(in.Windows, in.PhaseDiversity, th)
	if assessment.Passed {
		assessment.RemediationApplied = StepNone
		return assessment
	}

	if hasWindows(in.BackupWindows) {
		merged := mergeConstellationWindows(in.Windows, in.BackupWindows)
		assessment = gridAssessment(merged, in.PhaseDiversity, th)
		if assessment.Passed {
			assessment.RemediationApplied = StepActivateBackup
			return assessment
		}
	}

	// Role redistribution does not change which windows exist, only which
	// satellite serves during an overlap; it cannot improve the grid-level
	// coverage rate or gap length on its own, so it is a no-op here and
	// falls through to the next rung. It still counts as an attempted step
	// so callers can see it was tried.
	redistributed := gridAssessment(in.Windows, in.PhaseDiversity, th)
	if redistributed.Passed {
		redistributed.RemediationApplied = StepRedistributeRoles
		return redistributed
	}

	if hasWindows(in.WidenedWindows) {
		assessment = gridAssessment(in.WidenedWindows, in.PhaseDiversity, th)
		if assessment.Passed {
			assessment.RemediationApplied = StepWidenElevation
			return assessment
		}
	}

	assessment.RemediationApplied = StepNeedsAdjustment
	assessment.Passed = false
	return assessment
}

func hasWindows(cw ConstellationWindows) bool {
	return len(cw.Starlink) > 0 || len(cw.OneWeb) > 0
}

func gridOrigin(cw ConstellationWindows) int64 {
	minStart := int64(-1)
	consider := func(windows map[ids.SatelliteID][]satellite.CoverageWindow) {
		for _, ws := range windows {
			for _, w := range ws {
				if minStart == -1 || w.AOSUnixMilli < minStart {
					minStart = w.AOSUnixMilli
				}
			}
		}
	}
	consider(cw.Starlink)
	consider(cw.OneWeb)
	return minStart
}

// buildVisibleCountGrid returns, for each 30-second slot, the number of
// distinct satellites in windows whose coverage window overlaps that slot.
func buildVisibleCountGrid(windows map[ids.SatelliteID][]satellite.CoverageWindow, origin int64) []int {
	grid := make([]int, GridSlots)
	if origin == -1 {
		return grid
	}
	slotMillis := int64(SlotDurationSeconds * 1000)
	for _, ws := range windows {
		for _, w := range ws {
			startSlot := int((w.AOSUnixMilli - origin) / slotMillis)
			endSlot := int((w.LOSUnixMilli - origin) / slotMillis)
			for s := startSlot; s <= endSlot && s < GridSlots; s++ {
				if s >= 0 {
					grid[s]++
				}
			}
		}
	}
	return grid
}

func gridAssessment(cw ConstellationWindows, phaseDiversity float64, th Thresholds) Assessment {
	origin := gridOrigin(cw)
	starlinkGrid := buildVisibleCountGrid(cw.Starlink, origin)
	onewebGrid := buildVisibleCountGrid(cw.OneWeb, origin)

	starlinkCovered := 0
	onewebCovered := 0
	longestGapSlots := 0
	currentGapSlots := 0
	for i := 0; i < GridSlots; i++ {
		starlinkOK := starlinkGrid[i] >= th.MinStarlinkVisible
		onewebOK := onewebGrid[i] >= th.MinOneWebVisible
		if starlinkOK {
			starlinkCovered++
		}
		if onewebOK {
			onewebCovered++
		}
		if starlinkOK && onewebOK {
			currentGapSlots = 0
			continue
		}
		currentGapSlots++
		if currentGapSlots > longestGapSlots {
			longestGapSlots = currentGapSlots
		}
	}

	starlinkRate := float64(starlinkCovered) / float64(GridSlots)
	onewebRate := float64(onewebCovered) / float64(GridSlots)
	gapMinutes := float64(longestGapSlots) * SlotDurationSeconds / 60.0

	passed := starlinkRate >= th.MinSlotCoverageRate &&
		onewebRate >= th.MinSlotCoverageRate &&
		gapMinutes <= th.MaxGapMinutes &&
		phaseDiversity >= th.MinPhaseDiversity

	return Assessment{
		StarlinkCoverageRate: starlinkRate,
		OneWebCoverageRate:   onewebRate,
		LongestGapMinutes:    gapMinutes,
		PhaseDiversityScore:  phaseDiversity,
		Passed:               passed,
	}
}

func mergeConstellationWindows(a, b ConstellationWindows) ConstellationWindows {
	return ConstellationWindows{
		Starlink: mergeWindows(a.Starlink, b.Starlink),
		OneWeb:   mergeWindows(a.OneWeb, b.OneWeb),
	}
}

func mergeWindows(a, b map[ids.SatelliteID][]satellite.CoverageWindow) map[ids.SatelliteID][]satellite.CoverageWindow {
	merged := make(map[ids.SatelliteID][]satellite.CoverageWindow, len(a)+len(b))
	for id, ws := range a {
		merged[id] = append(merged[id], ws...)
	}
	for id, ws := range b {
		merged[id] = append(merged[id], ws...)
	}
	return merged
}
