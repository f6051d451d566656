// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ids defines the closed identifier and enum types shared across the
// constellation pipeline: satellite indices, constellation tags, handover
// event kinds, and validation statuses. Keeping these as small value types
// (rather than strings compared ad hoc) means the compiler rejects an
// invalid comparison instead of a hot loop doing it at runtime.
package ids

import "fmt"

// SatelliteID is an arena index, not a database key. It is stable only for
// the lifetime of a single pipeline run.
type SatelliteID uint32

// Invalid is returned by lookups that found nothing.
const Invalid SatelliteID = ^SatelliteID(0)

func (id SatelliteID) String() string {
	if id == Invalid {
		return "<invalid>"
	}
	return fmt.Sprintf("sat#%d", uint32(id))
}

// Constellation is a closed enum; do not compare satellite constellations by
// string anywhere in a hot path.
type Constellation uint8

const (
	ConstellationUnknown Constellation = iota
	ConstellationStarlink
	ConstellationOneWeb
	ConstellationOther
)

func (c Constellation) String() string {
	switch c {
	case ConstellationStarlink:
		return "starlink"
	case ConstellationOneWeb:
		return "oneweb"
	case ConstellationOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParseConstellation maps an upstream JSON tag or an id prefix to a
// Constellation. Unrecognized input maps to ConstellationOther rather than
// failing — upstream is authoritative and may introduce new providers.
func ParseConstellation(s string) Constellation {
	switch s {
	case "starlink", "STARLINK", "Starlink":
		return ConstellationStarlink
	case "oneweb", "ONEWEB", "OneWeb":
		return ConstellationOneWeb
	case "":
		return ConstellationUnknown
	default:
		return ConstellationOther
	}
}

// EventKind is the 3GPP TS 38.331 measurement event family.
type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventA4
	EventA5
	EventD2
)

func (k EventKind) String() string {
	switch k {
	case EventA4:
		return "A4"
	case EventA5:
		return "A5"
	case EventD2:
		return "D2"
	default:
		return "unknown"
	}
}

// Decision is the handover decision attached to a synthesized event.
type Decision uint8

const (
	DecisionHold Decision = iota
	DecisionTrigger
	DecisionEvaluate
)

func (d Decision) String() string {
	switch d {
	case DecisionTrigger:
		return "trigger"
	case DecisionEvaluate:
		return "evaluate"
	default:
		return "hold"
	}
}

// ValidationStatus is the result grade of a ValidationResult category.
type ValidationStatus uint8

const (
	StatusSkipped ValidationStatus = iota
	StatusPass
	StatusPartial
	StatusFail
)

func (s ValidationStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusPartial:
		return "PARTIAL"
	case StatusFail:
		return "FAIL"
	default:
		return "SKIPPED"
	}
}

// ValidationLevel selects how many categories a validation run executes.
type ValidationLevel uint8

const (
	LevelFast ValidationLevel = iota
	LevelStandard
	LevelComprehensive
)

func ParseValidationLevel(s string) ValidationLevel {
	switch s {
	case "FAST":
		return LevelFast
	case "COMPREHENSIVE":
		return LevelComprehensive
	default:
		return LevelStandard
	}
}

func (l ValidationLevel) String() string {
	switch l {
	case LevelFast:
		return "FAST"
	case LevelComprehensive:
		return "COMPREHENSIVE"
	default:
		return "STANDARD"
	}
}

// PhaseState is the per-satellite state machine driven by the
// temporal-spatial coordinator.
type PhaseState uint8

const (
	PhaseCandidate PhaseState = iota
	PhaseAdjusted
	PhaseRoleAssigned
	PhaseIntegrated
	PhaseRejected
)

func (s PhaseState) String() string {
	switch s {
	case PhaseAdjusted:
		return "PhaseAdjusted"
	case PhaseRoleAssigned:
		return "RoleAssigned"
	case PhaseIntegrated:
		return "Integrated"
	case PhaseRejected:
		return "Rejected"
	default:
		return "Candidate"
	}
}
