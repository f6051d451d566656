// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the pipeline's tunable Parameters and its
// environment-variable surface, following the pattern of a plain
// value-type Parameters struct, a DefaultParams() constructor, and a
// Validate() error method rather than a configuration framework.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidElevationThresholds = errors.New("elevation thresholds must be strictly increasing and positive")
	ErrInvalidQuantityBounds      = errors.New("quantity bounds invalid")
	ErrInvalidObjectiveWeights    = errors.New("optimization objective weights must sum to 1.0")
	ErrInvalidValidationLevel     = errors.New("unknown validation level")
)

// ObserverLocation is the ground observer's position, defaulting to NTPU.
type ObserverLocation struct {
	LatDeg float64
	LonDeg float64
	AltKM  float64
}

// DefaultObserverLocation is NTPU, the pipeline's default ground station.
var DefaultObserverLocation = ObserverLocation{
	LatDeg: 24.9441667,
	LonDeg: 121.3713889,
	AltKM:  0.05,
}

// QuantityBounds is the hard cardinality constraint on a constellation's
// share of the final pool.
type QuantityBounds struct {
	Min int
	Max int
}

// ObjectiveWeights are the pool optimizer's multi-objective weights.
// CoverageContinuity, ConstellationEfficiency and ResourceBalance are
// maximized; HandoverOptimality is minimized.
type ObjectiveWeights struct {
	CoverageContinuity     float64
	ConstellationEfficiency float64
	HandoverOptimality     float64
	ResourceBalance        float64
}

func (w ObjectiveWeights) sum() float64 {
	return w.CoverageContinuity + w.ConstellationEfficiency + w.HandoverOptimality + w.ResourceBalance
}

// GAParams are the genetic algorithm's fixed hyperparameters.
type GAParams struct {
	PopulationSize  int
	Generations     int
	MutationRate    float64
	CrossoverRate   float64
	TournamentSize  int
}

// SAParams are the simulated annealing algorithm's fixed hyperparameters.
type SAParams struct {
	InitialTemperature float64
	CoolingRate        float64
	MinTemperature     float64
	MaxIterations      int
}

// PSOParams are the particle swarm optimization algorithm's fixed
// hyperparameters.
type PSOParams struct {
	NumParticles  int
	MaxIterations int
	Inertia       float64
	Cognitive     float64
	Social        float64
}

// Parameters is the full set of tunables a pipeline run is configured with.
// Constructed once per run and carried read-only inside RunContext —
// never mutated through a package-level singleton.
type Parameters struct {
	InputDir  string
	OutputDir string

	Observer ObserverLocation

	ElevationThresholdsDeg []float64

	SampleMode      bool
	ValidationLevel string // FAST | STANDARD | COMPREHENSIVE

	// StrictValidation makes a failed validation category abort the run.
	// When false the failure is recorded in the validation summary and the
	// run continues to emit its artifacts.
	StrictValidation bool

	StarlinkBounds QuantityBounds
	OneWebBounds   QuantityBounds

	Objectives ObjectiveWeights

	GA  GAParams
	SA  SAParams
	PSO PSOParams

	// Coverage guarantee thresholds.
	MinCoverageRate        float64
	MaxCoverageGapMinutes  float64
	MinPhaseDiversityScore float64
	MinStarlinkVisible     int
	MinOneWebVisible       int
	MinSlotCoverageRate    float64

	// Validation quality defaults.
	QualityThreshold float64

	// Stage timeouts.
	Stage5SampleTimeout time.Duration
	Stage5FullTimeout   time.Duration
	Stage6Timeout       time.Duration

	// Postgres index-store connection. Empty Host means the index store
	// is not configured and storage integration degrades to bulk-only mode.
	PGHost     string
	PGPort     int
	PGDatabase string
	PGUser     string
	PGPassword string

	Seed int64
}

// DefaultParams returns the pipeline's default configuration.
func DefaultParams() Parameters {
	return Parameters{
		InputDir:               "./input",
		OutputDir:              "./output",
		Observer:               DefaultObserverLocation,
		ElevationThresholdsDeg: []float64{5, 10, 15},
		ValidationLevel:        "STANDARD",
		StrictValidation:       true,
		StarlinkBounds:         QuantityBounds{Min: 10, Max: 15},
		OneWebBounds:           QuantityBounds{Min: 3, Max: 6},
		Objectives: ObjectiveWeights{
			CoverageContinuity:      0.40,
			ConstellationEfficiency: 0.25,
			HandoverOptimality:      0.20,
			ResourceBalance:         0.15,
		},
		GA: GAParams{
			PopulationSize: 50,
			Generations:    100,
			MutationRate:   0.1,
			CrossoverRate:  0.8,
			TournamentSize: 3,
		},
		SA: SAParams{
			InitialTemperature: 100.0,
			CoolingRate:        0.95,
			MinTemperature:     0.01,
			MaxIterations:      1000,
		},
		PSO: PSOParams{
			NumParticles:  30,
			MaxIterations: 100,
			Inertia:       0.7,
			Cognitive:     1.5,
			Social:        1.5,
		},
		MinCoverageRate:        0.95,
		MaxCoverageGapMinutes:  2.0,
		MinPhaseDiversityScore: 0.7,
		MinStarlinkVisible:     10,
		MinOneWebVisible:       3,
		MinSlotCoverageRate:    0.95,
		QualityThreshold:       0.6,
		Stage5SampleTimeout:    300 * time.Second,
		Stage5FullTimeout:      180 * time.Second,
		Stage6Timeout:          600 * time.Second,
		PGPort:                 5432,
		Seed:                   42,
	}
}

// FromEnv loads Parameters starting from DefaultParams() and overriding
// with recognized environment variables. Kept as plain os.Getenv/strconv
// rather than a struct-tag config library — see DESIGN.md for why.
func FromEnv() (Parameters, error) {
	p := DefaultParams()

	if v := os.Getenv("INPUT_DIR"); v != "" {
		p.InputDir = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		p.OutputDir = v
	}
	if v := os.Getenv("OBSERVER_LAT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("OBSERVER_LAT: %w", err)
		}
		p.Observer.LatDeg = f
	}
	if v := os.Getenv("OBSERVER_LON"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("OBSERVER_LON: %w", err)
		}
		p.Observer.LonDeg = f
	}
	if v := os.Getenv("OBSERVER_ALT_KM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("OBSERVER_ALT_KM: %w", err)
		}
		p.Observer.AltKM = f
	}
	if v := os.Getenv("SAMPLE_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("SAMPLE_MODE: %w", err)
		}
		p.SampleMode = b
		if b {
			// Loosen validation thresholds by ~5pp for sample-mode runs.
			p.QualityThreshold = clamp01(p.QualityThreshold - 0.05)
			p.MinCoverageRate = clamp01(p.MinCoverageRate - 0.05)
		}
	}
	if v := os.Getenv("VALIDATION_LEVEL"); v != "" {
		p.ValidationLevel = v
	}
	if v := os.Getenv("STRICT_VALIDATION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("STRICT_VALIDATION: %w", err)
		}
		p.StrictValidation = b
	}
	if v := os.Getenv("ELEVATION_THRESHOLDS"); v != "" {
		thresholds, err := parseFloatList(v)
		if err != nil {
			return p, fmt.Errorf("ELEVATION_THRESHOLDS: %w", err)
		}
		p.ElevationThresholdsDeg = thresholds
	}
	if v := os.Getenv("PG_HOST"); v != "" {
		p.PGHost = v
	}
	if v := os.Getenv("PG_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("PG_PORT: %w", err)
		}
		p.PGPort = n
	}
	if v := os.Getenv("PG_DB"); v != "" {
		p.PGDatabase = v
	}
	if v := os.Getenv("PG_USER"); v != "" {
		p.PGUser = v
	}
	if v := os.Getenv("PG_PASSWORD"); v != "" {
		p.PGPassword = v
	}
	if v := os.Getenv("SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return p, fmt.Errorf("SEED: %w", err)
		}
		p.Seed = n
	}

	return p, p.Validate()
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func parseFloatList(v string) ([]float64, error) {
	parts := strings.Split(v, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Validate checks that Parameters is internally consistent.
func (p Parameters) Validate() error {
	for i := 1; i < len(p.ElevationThresholdsDeg); i++ {
		if p.ElevationThresholdsDeg[i] <= p.ElevationThresholdsDeg[i-1] || p.ElevationThresholdsDeg[i-1] < 0 {
			return ErrInvalidElevationThresholds
		}
	}
	if len(p.ElevationThresholdsDeg) == 0 {
		return ErrInvalidElevationThresholds
	}
	if p.StarlinkBounds.Min <= 0 || p.StarlinkBounds.Min > p.StarlinkBounds.Max {
		return fmt.Errorf("%w: starlink %+v", ErrInvalidQuantityBounds, p.StarlinkBounds)
	}
	if p.OneWebBounds.Min <= 0 || p.OneWebBounds.Min > p.OneWebBounds.Max {
		return fmt.Errorf("%w: oneweb %+v", ErrInvalidQuantityBounds, p.OneWebBounds)
	}
	if d := p.Objectives.sum(); d < 0.999 || d > 1.001 {
		return fmt.Errorf("%w: sum=%f", ErrInvalidObjectiveWeights, d)
	}
	switch p.ValidationLevel {
	case "FAST", "STANDARD", "COMPREHENSIVE":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidValidationLevel, p.ValidationLevel)
	}
	return nil
}

// IndexStoreConfigured reports whether enough Postgres connection
// information is present to attempt an index-store connection at all.
func (p Parameters) IndexStoreConfigured() bool {
	return p.PGHost != ""
}
