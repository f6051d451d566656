// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/luxfi/constellation/coverage"
	"github.com/luxfi/constellation/elevation"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

// Fixed subdirectories under OutputDir. Every per-category artifact lands
// in one of these; CleanPreviousRun removes exactly this set and nothing
// else, so the output root itself is never touched.
const (
	LayeredElevationDir    = "layered_elevation_enhanced"
	HandoverScenariosDir   = "handover_scenarios"
	SignalQualityDir       = "signal_quality_analysis"
	ProcessingCacheDir     = "processing_cache"
	StatusFilesDir         = "status_files"
	DataIntegrationDir     = "data_integration_outputs"
	ValidationSnapshotsDir = "validation_snapshots"
	BulkDir                = "bulk"
)

// runSubdirs is the full set of per-run subdirectories CleanPreviousRun
// purges before a new run starts emitting.
var runSubdirs = []string{
	LayeredElevationDir,
	HandoverScenariosDir,
	SignalQualityDir,
	ProcessingCacheDir,
	StatusFilesDir,
	DataIntegrationDir,
	ValidationSnapshotsDir,
	BulkDir,
}

// CleanPreviousRun removes the previous run's subdirectories under
// OutputDir. The output root and anything outside the known subdirectory
// set are left alone.
func (b *Builder) CleanPreviousRun() error {
	for _, sub := range runSubdirs {
		if err := os.RemoveAll(filepath.Join(b.outputDir, sub)); err != nil {
			return fmt.Errorf("output: purge previous run dir %s: %w", sub, err)
		}
	}
	return nil
}

func (b *Builder) writeFileJSON(subdir, name string, v interface{}) error {
	dir := filepath.Join(b.outputDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output: create %s: %w", subdir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("output: marshal %s/%s: %w", subdir, name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("output: write %s/%s: %w", subdir, name, err)
	}
	return nil
}

// LayeredElevationFile is one (threshold, constellation) layer's summary.
type LayeredElevationFile struct {
	ThresholdDeg  float64               `json:"threshold_deg"`
	Constellation string                `json:"constellation"`
	Satellites    []ElevationStatsEntry `json:"satellites"`
	DroppedCount  int                   `json:"dropped_count"`
}

// ElevationStatsEntry is one satellite's per-threshold elevation summary.
type ElevationStatsEntry struct {
	Satellite     string  `json:"satellite"`
	MinDeg        float64 `json:"min_elevation_deg"`
	MaxDeg        float64 `json:"max_elevation_deg"`
	AvgDeg        float64 `json:"avg_elevation_deg"`
	FilteredCount int     `json:"filtered_count"`
}

// WriteLayeredElevation writes one JSON file per (threshold, constellation)
// pair under layered_elevation_enhanced/, named like
// elevation_5deg_starlink.json.
func (b *Builder) WriteLayeredElevation(results []elevation.Result, nameOf func(ids.SatelliteID) string) error {
	for _, res := range results {
		file := LayeredElevationFile{
			ThresholdDeg:  res.ThresholdDeg,
			Constellation: res.Constellation.String(),
			DroppedCount:  len(res.Dropped),
		}
		for _, st := range res.Stats {
			file.Satellites = append(file.Satellites, ElevationStatsEntry{
				Satellite:     nameOf(st.SatelliteID),
				MinDeg:        st.MinDeg,
				MaxDeg:        st.MaxDeg,
				AvgDeg:        st.AvgDeg,
				FilteredCount: st.FilteredCount,
			})
		}
		sort.Slice(file.Satellites, func(i, j int) bool {
			return file.Satellites[i].Satellite < file.Satellites[j].Satellite
		})
		name := fmt.Sprintf("elevation_%ddeg_%s.json", int(res.ThresholdDeg), res.Constellation)
		if err := b.writeFileJSON(LayeredElevationDir, name, file); err != nil {
			return err
		}
	}
	return nil
}

// HandoverEventEntry is one synthesized event in a per-kind scenario file,
// with satellite names resolved so the file is readable standalone.
type HandoverEventEntry struct {
	Serving            string  `json:"serving"`
	Neighbor           string  `json:"neighbor"`
	TimestampUnixMilli int64   `json:"timestamp_unix_millis"`
	TriggerRSRPdBm     float64 `json:"trigger_rsrp_dbm"`
	ServingRSRPdBm     float64 `json:"serving_rsrp_dbm"`
	NeighborRSRPdBm    float64 `json:"neighbor_rsrp_dbm"`
	ElevationDeg       float64 `json:"elevation_deg"`
	Decision           string  `json:"decision"`
	Citation           string  `json:"citation"`
}

// BestWindowFile records the single best coverage window of the run.
type BestWindowFile struct {
	Satellite       string  `json:"satellite"`
	AOSUnixMilli    int64   `json:"aos_unix_millis"`
	LOSUnixMilli    int64   `json:"los_unix_millis"`
	MaxElevationDeg float64 `json:"max_elevation_deg"`
	AvgRSRPdBm      float64 `json:"avg_rsrp_dbm"`
	QualityScore    float64 `json:"quality_score"`
}

// WriteHandoverScenarios writes one file per event kind (a4_events.json,
// a5_events.json, d2_events.json) plus best_window.json under
// handover_scenarios/. Events arrive already sorted by (serving, neighbor,
// timestamp), and the per-kind split preserves that order.
func (b *Builder) WriteHandoverScenarios(events []satellite.HandoverEvent, windows []satellite.CoverageWindow, nameOf func(ids.SatelliteID) string) error {
	byKind := map[ids.EventKind][]HandoverEventEntry{
		ids.EventA4: {},
		ids.EventA5: {},
		ids.EventD2: {},
	}
	for _, ev := range events {
		byKind[ev.Kind] = append(byKind[ev.Kind], HandoverEventEntry{
			Serving:            nameOf(ev.ServingSatID),
			Neighbor:           nameOf(ev.NeighborSatID),
			TimestampUnixMilli: ev.TimestampUnixMilli,
			TriggerRSRPdBm:     ev.TriggerRSRPdBm,
			ServingRSRPdBm:     ev.ServingRSRPdBm,
			NeighborRSRPdBm:    ev.NeighborRSRPdBm,
			ElevationDeg:       ev.ElevationDeg,
			Decision:           ev.Decision.String(),
			Citation:           ev.Citation,
		})
	}
	for kind, entries := range byKind {
		name := fmt.Sprintf("%s_events.json", kindFileTag(kind))
		if err := b.writeFileJSON(HandoverScenariosDir, name, entries); err != nil {
			return err
		}
	}

	best, ok := bestWindow(windows)
	if !ok {
		return nil
	}
	return b.writeFileJSON(HandoverScenariosDir, "best_window.json", BestWindowFile{
		Satellite:       nameOf(best.SatelliteID),
		AOSUnixMilli:    best.AOSUnixMilli,
		LOSUnixMilli:    best.LOSUnixMilli,
		MaxElevationDeg: best.MaxElevationDeg,
		AvgRSRPdBm:      best.AvgRSRPdBm,
		QualityScore:    best.QualityScore,
	})
}

func kindFileTag(kind ids.EventKind) string {
	switch kind {
	case ids.EventA4:
		return "a4"
	case ids.EventA5:
		return "a5"
	default:
		return "d2"
	}
}

// bestWindow picks the highest-quality window, breaking ties by earliest
// AOS and then by satellite id so repeated runs pick the same window.
func bestWindow(windows []satellite.CoverageWindow) (satellite.CoverageWindow, bool) {
	if len(windows) == 0 {
		return satellite.CoverageWindow{}, false
	}
	best := windows[0]
	for _, w := range windows[1:] {
		if w.QualityScore > best.QualityScore ||
			(w.QualityScore == best.QualityScore && w.AOSUnixMilli < best.AOSUnixMilli) ||
			(w.QualityScore == best.QualityScore && w.AOSUnixMilli == best.AOSUnixMilli && w.SatelliteID < best.SatelliteID) {
			best = w
		}
	}
	return best, true
}

// HeatmapCell is one (constellation, elevation band) cell of the signal
// heatmap: the average RSRP over every coverage window whose peak elevation
// falls in the band.
type HeatmapCell struct {
	Constellation    string  `json:"constellation"`
	ElevationBandDeg int     `json:"elevation_band_deg"` // band lower bound, 10-degree bands
	WindowCount      int     `json:"window_count"`
	AvgRSRPdBm       float64 `json:"avg_rsrp_dbm"`
}

// QualitySummaryEntry is one constellation's signal-quality roll-up.
type QualitySummaryEntry struct {
	Constellation  string  `json:"constellation"`
	CandidateCount int     `json:"candidate_count"`
	AvgQuality     float64 `json:"avg_quality"`
	MinQuality     float64 `json:"min_quality"`
	MaxQuality     float64 `json:"max_quality"`
}

// ComparisonFile contrasts the constellations' candidate scoring.
type ComparisonFile struct {
	Constellations []ComparisonEntry `json:"constellations"`
}

// ComparisonEntry is one constellation's side of the comparison.
type ComparisonEntry struct {
	Constellation    string  `json:"constellation"`
	CandidateCount   int     `json:"candidate_count"`
	AvgCoverageScore float64 `json:"avg_coverage_score"`
	AvgSignalQuality float64 `json:"avg_signal_quality"`
	AvgResourceCost  float64 `json:"avg_resource_cost"`
}

// WriteSignalQualityAnalysis writes signal_heatmap.json,
// quality_summary.json and constellation_comparison.json under
// signal_quality_analysis/.
func (b *Builder) WriteSignalQualityAnalysis(candidates []satellite.SatelliteCandidate) error {
	if err := b.writeFileJSON(SignalQualityDir, "signal_heatmap.json", buildHeatmap(candidates)); err != nil {
		return err
	}
	if err := b.writeFileJSON(SignalQualityDir, "quality_summary.json", buildQualitySummary(candidates)); err != nil {
		return err
	}
	return b.writeFileJSON(SignalQualityDir, "constellation_comparison.json", buildComparison(candidates))
}

func buildHeatmap(candidates []satellite.SatelliteCandidate) []HeatmapCell {
	type key struct {
		constellation ids.Constellation
		band          int
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	for _, c := range candidates {
		for _, w := range c.CoverageWindows {
			band := int(w.MaxElevationDeg/10) * 10
			if band < 0 {
				band = 0
			}
			if band > 80 {
				band = 80
			}
			k := key{c.Constellation, band}
			sums[k] += w.AvgRSRPdBm
			counts[k]++
		}
	}
	keys := make([]key, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].constellation != keys[j].constellation {
			return keys[i].constellation < keys[j].constellation
		}
		return keys[i].band < keys[j].band
	})
	cells := make([]HeatmapCell, 0, len(keys))
	for _, k := range keys {
		cells = append(cells, HeatmapCell{
			Constellation:    k.constellation.String(),
			ElevationBandDeg: k.band,
			WindowCount:      counts[k],
			AvgRSRPdBm:       sums[k] / float64(counts[k]),
		})
	}
	return cells
}

func buildQualitySummary(candidates []satellite.SatelliteCandidate) []QualitySummaryEntry {
	entries := make([]QualitySummaryEntry, 0, 2)
	for _, c := range []ids.Constellation{ids.ConstellationStarlink, ids.ConstellationOneWeb} {
		entry := QualitySummaryEntry{Constellation: c.String()}
		var sum float64
		for _, cand := range candidates {
			if cand.Constellation != c {
				continue
			}
			q := cand.SignalQualityScore
			if entry.CandidateCount == 0 || q < entry.MinQuality {
				entry.MinQuality = q
			}
			if entry.CandidateCount == 0 || q > entry.MaxQuality {
				entry.MaxQuality = q
			}
			sum += q
			entry.CandidateCount++
		}
		if entry.CandidateCount > 0 {
			entry.AvgQuality = sum / float64(entry.CandidateCount)
		}
		entries = append(entries, entry)
	}
	return entries
}

func buildComparison(candidates []satellite.SatelliteCandidate) ComparisonFile {
	var file ComparisonFile
	for _, c := range []ids.Constellation{ids.ConstellationStarlink, ids.ConstellationOneWeb} {
		entry := ComparisonEntry{Constellation: c.String()}
		var coverageSum, signalSum, costSum float64
		for _, cand := range candidates {
			if cand.Constellation != c {
				continue
			}
			coverageSum += cand.CoverageScore
			signalSum += cand.SignalQualityScore
			costSum += cand.ResourceCost
			entry.CandidateCount++
		}
		if entry.CandidateCount > 0 {
			n := float64(entry.CandidateCount)
			entry.AvgCoverageScore = coverageSum / n
			entry.AvgSignalQuality = signalSum / n
			entry.AvgResourceCost = costSum / n
		}
		file.Constellations = append(file.Constellations, entry)
	}
	return file
}

// CandidateCacheEntry is one scored candidate as cached for replay.
type CandidateCacheEntry struct {
	Satellite          string  `json:"satellite"`
	Constellation      string  `json:"constellation"`
	CoverageScore      float64 `json:"coverage_score"`
	SignalQualityScore float64 `json:"signal_quality_score"`
	StabilityScore     float64 `json:"stability_score"`
	ResourceCost       float64 `json:"resource_cost"`
	PredictedHandovers int     `json:"predicted_handovers"`
}

// CandidateCache is the processing cache written between optimizer reruns:
// enough to re-score the pool without re-filtering the time series.
type CandidateCache struct {
	RunID      string                `json:"run_id"`
	Candidates []CandidateCacheEntry `json:"candidates"`
}

// WriteProcessingCache writes candidates_cache.json under processing_cache/.
func (b *Builder) WriteProcessingCache(runID string, candidates []satellite.SatelliteCandidate, nameOf func(ids.SatelliteID) string) error {
	cache := CandidateCache{RunID: runID}
	for _, c := range candidates {
		cache.Candidates = append(cache.Candidates, CandidateCacheEntry{
			Satellite:          nameOf(c.SatelliteID),
			Constellation:      c.Constellation.String(),
			CoverageScore:      c.CoverageScore,
			SignalQualityScore: c.SignalQualityScore,
			StabilityScore:     c.StabilityScore,
			ResourceCost:       c.ResourceCost,
			PredictedHandovers: c.PredictedHandovers,
		})
	}
	sort.Slice(cache.Candidates, func(i, j int) bool {
		return cache.Candidates[i].Satellite < cache.Candidates[j].Satellite
	})
	return b.writeFileJSON(ProcessingCacheDir, "candidates_cache.json", cache)
}

// StatusSummary is the run-status information the status files record.
type StatusSummary struct {
	RunID               string `json:"run_id"`
	Stage               string `json:"stage"`
	Status              string `json:"status"` // "completed" | "failed" | "aborted"
	PostgreSQLConnected bool   `json:"postgresql_connected"`
}

type processingStatusFile struct {
	StatusSummary
	GeneratedAt time.Time `json:"generated_at"`
}

type healthCheckFile struct {
	Healthy             bool      `json:"healthy"`
	PostgreSQLConnected bool      `json:"postgresql_connected"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// WriteStatusFiles writes last_processing_time.txt, tle_checksum.txt,
// processing_status.json and health_check.json under status_files/. An
// empty tleChecksum still produces the file so a consumer polling the
// directory sees a complete set.
func (b *Builder) WriteStatusFiles(now time.Time, tleChecksum string, status StatusSummary) error {
	dir := filepath.Join(b.outputDir, StatusFilesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output: create %s: %w", StatusFilesDir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "last_processing_time.txt"), []byte(now.UTC().Format(time.RFC3339)+"\n"), 0o644); err != nil {
		return fmt.Errorf("output: write last_processing_time: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tle_checksum.txt"), []byte(tleChecksum+"\n"), 0o644); err != nil {
		return fmt.Errorf("output: write tle_checksum: %w", err)
	}
	if err := b.writeFileJSON(StatusFilesDir, "processing_status.json", processingStatusFile{StatusSummary: status, GeneratedAt: now.UTC()}); err != nil {
		return err
	}
	return b.writeFileJSON(StatusFilesDir, "health_check.json", healthCheckFile{
		Healthy:             status.Status == "completed",
		PostgreSQLConnected: status.PostgreSQLConnected,
		GeneratedAt:         now.UTC(),
	})
}

// PoolMemberEntry is one selected satellite in the Stage 6 artifact.
type PoolMemberEntry struct {
	Satellite     string `json:"satellite"`
	Constellation string `json:"constellation"`
}

// Stage6Artifact is the dynamic-pool-planning output written under
// data_integration_outputs/.
type Stage6Artifact struct {
	DynamicSatellitePool struct {
		ConfigurationID     string            `json:"configuration_id"`
		SourceAlgorithm     string            `json:"source_algorithm"`
		Starlink            []PoolMemberEntry `json:"starlink"`
		OneWeb              []PoolMemberEntry `json:"oneweb"`
		CoverageRate        float64           `json:"coverage_rate"`
		AvgSignalQuality    float64           `json:"avg_signal_quality"`
		EstHandoverFreq     float64           `json:"est_handover_frequency"`
		ResourceUtilization float64           `json:"resource_utilization"`
		FitnessScore        float64           `json:"fitness_score"`
	} `json:"dynamic_satellite_pool"`
	CoverageValidation           coverage.Assessment `json:"coverage_validation"`
	AcademicComplianceValidation AcademicCompliance  `json:"academic_compliance_validation"`
	Recommendations              []string            `json:"recommendations"`
}

// BuildStage6Artifact assembles the Stage 6 artifact from the accepted pool
// and the coverage verdict. Recommendations reflect the remediation rung
// the coverage engine had to reach.
func BuildStage6Artifact(pool satellite.PoolConfiguration, assessment coverage.Assessment, compliance AcademicCompliance, nameOf func(ids.SatelliteID) string) Stage6Artifact {
	var artifact Stage6Artifact
	p := &artifact.DynamicSatellitePool
	p.ConfigurationID = pool.ConfigurationID
	p.SourceAlgorithm = pool.SourceAlgorithm
	for _, id := range pool.StarlinkSet {
		p.Starlink = append(p.Starlink, PoolMemberEntry{Satellite: nameOf(id), Constellation: ids.ConstellationStarlink.String()})
	}
	for _, id := range pool.OneWebSet {
		p.OneWeb = append(p.OneWeb, PoolMemberEntry{Satellite: nameOf(id), Constellation: ids.ConstellationOneWeb.String()})
	}
	p.CoverageRate = pool.CoverageRate
	p.AvgSignalQuality = pool.AvgSignalQuality
	p.EstHandoverFreq = pool.EstHandoverFrequency
	p.ResourceUtilization = pool.ResourceUtilization
	p.FitnessScore = pool.FitnessScore

	artifact.CoverageValidation = assessment
	artifact.AcademicComplianceValidation = compliance
	artifact.Recommendations = recommendationsFor(assessment)
	return artifact
}

func recommendationsFor(a coverage.Assessment) []string {
	var recs []string
	switch a.RemediationApplied {
	case coverage.StepActivateBackup:
		recs = append(recs, "coverage required backup activation; consider enlarging the primary pool")
	case coverage.StepRedistributeRoles:
		recs = append(recs, "constellation roles were redistributed; review the primary/gap-filler split")
	case coverage.StepWidenElevation:
		recs = append(recs, "elevation threshold was widened to close a gap; verify link budgets at the lower bound")
	case coverage.StepNeedsAdjustment:
		recs = append(recs, "coverage guarantee unmet after all remediation; pool needs manual adjustment")
	}
	if a.PhaseDiversityScore < 0.8 {
		recs = append(recs, "orbital phase diversity is near its floor; prefer candidates from underpopulated RAAN bins")
	}
	if len(recs) == 0 {
		recs = append(recs, "pool meets all coverage and diversity targets; no action required")
	}
	return recs
}

// WriteStage6Artifact writes the Stage 6 dynamic-pool artifact under
// data_integration_outputs/.
func (b *Builder) WriteStage6Artifact(artifact Stage6Artifact) error {
	return b.writeFileJSON(DataIntegrationDir, "stage6_dynamic_pool.json", artifact)
}
