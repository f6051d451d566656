// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bulk implements the per-constellation JSON bulk writer that backs
// the storage integrator. It is always available — unlike the Postgres
// index store, it has no external dependency — so it is also the fallback
// destination when the index store degrades.
package bulk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/log"
	"github.com/luxfi/constellation/satellite"
)

// ConstellationDump is the per-constellation JSON artifact written under
// OutputDir/bulk/<constellation>.json.
type ConstellationDump struct {
	Constellation  string                    `json:"constellation"`
	GeneratedAt    time.Time                 `json:"generated_at"`
	SatelliteCount int                       `json:"satellite_count"`
	Satellites     []SatelliteRecord         `json:"satellites"`
	Events         []satellite.HandoverEvent `json:"handover_events,omitempty"`
}

// SatelliteRecord is one satellite's flattened bulk-export shape.
type SatelliteRecord struct {
	ExternalID      string  `json:"external_id"`
	NORADID         int     `json:"norad_id"`
	SampleCount     int     `json:"sample_count"`
	VisibleSamples  int     `json:"visible_samples"`
	CoverageWindows int     `json:"coverage_windows"`
	Eccentricity    float64 `json:"eccentricity"`
}

// BalanceReport summarizes how many satellites landed in each constellation
// dump, so the caller can detect a lopsided write before declaring success.
type BalanceReport struct {
	Counts map[string]int
}

// Writer writes per-constellation bulk dumps to OutputDir/bulk.
type Writer struct {
	outputDir string
	logger    log.Logger
}

// New returns a Writer rooted at outputDir.
func New(outputDir string, logger log.Logger) *Writer {
	if logger == nil {
		logger = log.NewNoOp()
	}
	return &Writer{outputDir: outputDir, logger: logger}
}

// WriteAll writes one JSON file per constellation present in dumps and
// returns a BalanceReport over the satellite counts actually written.
func (w *Writer) WriteAll(dumps map[ids.Constellation]ConstellationDump) (BalanceReport, error) {
	report := BalanceReport{Counts: make(map[string]int, len(dumps))}

	dir := filepath.Join(w.outputDir, "bulk")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return report, fmt.Errorf("bulk: create output dir: %w", err)
	}

	for c, dump := range dumps {
		path := filepath.Join(dir, c.String()+".json")
		data, err := json.MarshalIndent(dump, "", "  ")
		if err != nil {
			return report, fmt.Errorf("bulk: marshal %s: %w", c, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return report, fmt.Errorf("bulk: write %s: %w", path, err)
		}
		report.Counts[c.String()] = dump.SatelliteCount
		w.logger.Info("bulk dump written", zap.String("constellation", c.String()), zap.Int("satellites", dump.SatelliteCount))
	}

	return report, nil
}

// BuildDump assembles a ConstellationDump from arena satellites belonging to
// c, paired with any handover events whose serving satellite is in c.
func BuildDump(arena *satellite.Arena, satIDs []ids.SatelliteID, c ids.Constellation, events []satellite.HandoverEvent, now time.Time) ConstellationDump {
	dump := ConstellationDump{
		Constellation: c.String(),
		GeneratedAt:   now,
	}
	inSet := make(map[ids.SatelliteID]bool, len(satIDs))
	for _, id := range satIDs {
		inSet[id] = true
		sat := arena.Get(id)
		if sat == nil {
			continue
		}
		dump.Satellites = append(dump.Satellites, SatelliteRecord{
			ExternalID:     sat.ExternalID,
			NORADID:        sat.NORADID,
			SampleCount:    len(sat.Samples),
			VisibleSamples: sat.VisibleSampleCount(),
			Eccentricity:   sat.Elements.Eccentricity,
		})
	}
	dump.SatelliteCount = len(dump.Satellites)

	for _, ev := range events {
		if inSet[ev.ServingSatID] {
			dump.Events = append(dump.Events, ev)
		}
	}

	return dump
}
