// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package index implements the Postgres-backed index store for the storage
// integrator: satellite_index, processing_summary,
// signal_quality_statistics, handover_events_summary and
// satellite_metadata. Writes go through a pgx connection pool; each write
// method sends its rows as upserts in pgx batches of at most BatchSize.
package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/log"
	"github.com/luxfi/constellation/satellite"
)

// BatchSize bounds how many rows a single flush sends to Postgres.
const BatchSize = 100

// Store is a connection-pooled writer against the index schema. The zero
// value is not usable; construct with Connect.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// Connect opens a pool against the Postgres instance described by cfg and
// ensures the index schema exists.
func Connect(ctx context.Context, cfg config.Parameters, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNoOp()
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDatabase)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("index: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	s := &Store{pool: pool, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS satellite_index (
	satellite_id TEXT PRIMARY KEY,
	constellation TEXT NOT NULL,
	norad_id INTEGER,
	sample_count INTEGER NOT NULL,
	visible_samples INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS processing_summary (
	run_id TEXT PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	starlink_count INTEGER NOT NULL,
	oneweb_count INTEGER NOT NULL,
	stage_durations_json JSONB
);
CREATE TABLE IF NOT EXISTS signal_quality_statistics (
	satellite_id TEXT NOT NULL,
	threshold_deg DOUBLE PRECISION NOT NULL,
	avg_rsrp_dbm DOUBLE PRECISION NOT NULL,
	min_rsrp_dbm DOUBLE PRECISION NOT NULL,
	max_rsrp_dbm DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (satellite_id, threshold_deg)
);
CREATE TABLE IF NOT EXISTS handover_events_summary (
	serving_id TEXT NOT NULL,
	neighbor_id TEXT NOT NULL,
	event_kind TEXT NOT NULL,
	event_count INTEGER NOT NULL,
	PRIMARY KEY (serving_id, neighbor_id, event_kind)
);
CREATE TABLE IF NOT EXISTS satellite_metadata (
	satellite_id TEXT PRIMARY KEY,
	norad_id INTEGER,
	semi_major_axis_km DOUBLE PRECISION,
	eccentricity DOUBLE PRECISION,
	inclination_deg DOUBLE PRECISION,
	raan_deg DOUBLE PRECISION,
	updated_at TIMESTAMPTZ NOT NULL
);`
	_, err := s.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("index: ensure schema: %w", err)
	}
	return nil
}

// WriteSatelliteIndex batches and flushes satellite_index rows for every
// satellite in the arena.
func (s *Store) WriteSatelliteIndex(ctx context.Context, arena *satellite.Arena) error {
	satIDs := arena.All()
	for start := 0; start < len(satIDs); start += BatchSize {
		end := start + BatchSize
		if end > len(satIDs) {
			end = len(satIDs)
		}
		rows := make([][]interface{}, 0, end-start)
		for _, id := range satIDs[start:end] {
			sat := arena.Get(id)
			if sat == nil {
				continue
			}
			rows = append(rows, []interface{}{
				sat.ExternalID, sat.Constellation.String(), sat.NORADID,
				len(sat.Samples), sat.VisibleSampleCount(),
			})
		}
		if err := s.upsertBatch(ctx, "satellite_index",
			[]string{"satellite_id", "constellation", "norad_id", "sample_count", "visible_samples"},
			"satellite_id", rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteSatelliteMetadata batches and flushes one orbital-elements row per
// satellite into satellite_metadata.
func (s *Store) WriteSatelliteMetadata(ctx context.Context, arena *satellite.Arena, now time.Time) error {
	satIDs := arena.All()
	for start := 0; start < len(satIDs); start += BatchSize {
		end := start + BatchSize
		if end > len(satIDs) {
			end = len(satIDs)
		}
		rows := make([][]interface{}, 0, end-start)
		for _, id := range satIDs[start:end] {
			sat := arena.Get(id)
			if sat == nil {
				continue
			}
			rows = append(rows, []interface{}{
				sat.ExternalID, sat.NORADID,
				sat.Elements.SemiMajorAxisKM, sat.Elements.Eccentricity,
				sat.Elements.InclinationDeg, sat.Elements.RAANDeg, now,
			})
		}
		if err := s.upsertBatch(ctx, "satellite_metadata",
			[]string{"satellite_id", "norad_id", "semi_major_axis_km", "eccentricity", "inclination_deg", "raan_deg", "updated_at"},
			"satellite_id", rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteProcessingSummary records one row describing an entire pipeline run.
func (s *Store) WriteProcessingSummary(ctx context.Context, runID string, generatedAt time.Time, starlinkCount, onewebCount int, stageDurationsJSON []byte) error {
	const q = `
INSERT INTO processing_summary (run_id, generated_at, starlink_count, oneweb_count, stage_durations_json)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (run_id) DO UPDATE SET
	generated_at = EXCLUDED.generated_at,
	starlink_count = EXCLUDED.starlink_count,
	oneweb_count = EXCLUDED.oneweb_count,
	stage_durations_json = EXCLUDED.stage_durations_json`
	_, err := s.pool.Exec(ctx, q, runID, generatedAt, starlinkCount, onewebCount, stageDurationsJSON)
	if err != nil {
		return fmt.Errorf("index: write processing summary: %w", err)
	}
	return nil
}

// SignalQualityRow is one (satellite, threshold) RSRP aggregate.
type SignalQualityRow struct {
	SatelliteID  string
	ThresholdDeg float64
	AvgRSRPdBm   float64
	MinRSRPdBm   float64
	MaxRSRPdBm   float64
}

// WriteSignalQualityStatistics batches and flushes signal quality rows.
func (s *Store) WriteSignalQualityStatistics(ctx context.Context, rows []SignalQualityRow) error {
	for start := 0; start < len(rows); start += BatchSize {
		end := start + BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([][]interface{}, 0, end-start)
		for _, r := range rows[start:end] {
			batch = append(batch, []interface{}{r.SatelliteID, r.ThresholdDeg, r.AvgRSRPdBm, r.MinRSRPdBm, r.MaxRSRPdBm})
		}
		if err := s.upsertBatch(ctx, "signal_quality_statistics",
			[]string{"satellite_id", "threshold_deg", "avg_rsrp_dbm", "min_rsrp_dbm", "max_rsrp_dbm"},
			"satellite_id, threshold_deg", batch); err != nil {
			return err
		}
	}
	return nil
}

// WriteHandoverEventsSummary aggregates events by (serving, neighbor, kind)
// and flushes the counts in batches.
func (s *Store) WriteHandoverEventsSummary(ctx context.Context, events []satellite.HandoverEvent) error {
	type key struct {
		serving, neighbor ids.SatelliteID
		kind              ids.EventKind
	}
	counts := make(map[key]int)
	for _, ev := range events {
		counts[key{ev.ServingSatID, ev.NeighborSatID, ev.Kind}]++
	}

	rows := make([][]interface{}, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, []interface{}{k.serving.String(), k.neighbor.String(), k.kind.String(), n})
	}
	for start := 0; start < len(rows); start += BatchSize {
		end := start + BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.upsertBatch(ctx, "handover_events_summary",
			[]string{"serving_id", "neighbor_id", "event_kind", "event_count"},
			"serving_id, neighbor_id, event_kind", rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// VerifyRecordCounts re-reads satellite_index and compares each row's
// sample_count against the arena with zero tolerance. Returns the external
// ids of satellites whose counts disagree or whose rows are missing. Rows
// left over from a previous run are ignored.
func (s *Store) VerifyRecordCounts(ctx context.Context, arena *satellite.Arena) ([]string, error) {
	expected := make(map[string]int, arena.Len())
	for _, id := range arena.All() {
		if sat := arena.Get(id); sat != nil {
			expected[sat.ExternalID] = len(sat.Samples)
		}
	}

	rows, err := s.pool.Query(ctx, "SELECT satellite_id, sample_count FROM satellite_index")
	if err != nil {
		return nil, fmt.Errorf("index: verify record counts: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool, len(expected))
	var mismatches []string
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("index: verify record counts: %w", err)
		}
		want, ok := expected[id]
		if !ok {
			continue
		}
		seen[id] = true
		if count != want {
			mismatches = append(mismatches, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index: verify record counts: %w", err)
	}
	for id := range expected {
		if !seen[id] {
			mismatches = append(mismatches, id)
		}
	}
	sort.Strings(mismatches)
	return mismatches, nil
}

func (s *Store) upsertBatch(ctx context.Context, table string, columns []string, conflictCols string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	updates := make([]string, 0, len(columns))
	for _, c := range columns {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table, joinCols(columns), joinCols(placeholders), conflictCols, joinCols(updates),
	)
	for _, row := range rows {
		batch.Queue(q, row...)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("index: batch insert into %s: %w", table, err)
		}
	}
	return nil
}

func joinCols(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
