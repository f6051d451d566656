// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage is the C4 storage integrator: it always writes the
// per-constellation bulk JSON dumps, and additionally writes to the
// Postgres index store when one is configured and reachable. A failed or
// absent index store degrades the run to bulk-only rather than aborting
// it — the bulk writer has no external dependency and is always available.
package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/luxfi/constellation/config"
	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/log"
	"github.com/luxfi/constellation/metrics"
	"github.com/luxfi/constellation/satellite"
	"github.com/luxfi/constellation/storage/bulk"
	"github.com/luxfi/constellation/storage/index"
)

// Balance is the storage-balance analysis: whether the index store was
// written alongside the bulk store, the adaptive target index share for
// this run's record count, and any round-trip count mismatches. The actual
// byte split between the two stores is not measured.
type Balance struct {
	Status           string  // "hybrid" | "volume_only"
	RecordCount      int     // total position samples across the arena
	TargetIndexShare float64 // adaptive target fraction of bytes in the index store
	Mismatches       []string
}

// AdaptiveIndexShare returns the target index-store share of total stored
// bytes as a function of record count: small runs index a smaller fraction,
// large runs a larger one, always inside the 10-30% sizing contract.
func AdaptiveIndexShare(recordCount int) float64 {
	switch {
	case recordCount < 10_000:
		return 0.15
	case recordCount < 100_000:
		return 0.20
	default:
		return 0.25
	}
}

// Result reports what the integrator actually wrote.
type Result struct {
	Balance          bulk.BalanceReport
	StorageBalance   Balance
	IndexStoreWrites bool
	Degraded         bool
	DegradeReason    string
}

// Integrator is C4's entrypoint, holding the always-on bulk writer and an
// optional index store.
type Integrator struct {
	bulkWriter *bulk.Writer
	indexStore *index.Store
	metrics    *metrics.Metrics
	logger     log.Logger
}

// New constructs an Integrator. It attempts to connect to the index store
// when cfg.IndexStoreConfigured(); a connection failure is logged and
// recorded in metrics but does not return an error — the pipeline degrades
// to bulk-only instead.
func New(ctx context.Context, cfg config.Parameters, m *metrics.Metrics, logger log.Logger) *Integrator {
	if logger == nil {
		logger = log.NewNoOp()
	}
	integrator := &Integrator{
		bulkWriter: bulk.New(cfg.OutputDir, logger),
		metrics:    m,
		logger:     logger,
	}
	if !cfg.IndexStoreConfigured() {
		return integrator
	}
	store, err := index.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Warn("index store unavailable, degrading to bulk-only", zap.Error(err))
		if m != nil {
			m.IndexStoreDegraded.Set(1)
		}
		return integrator
	}
	integrator.indexStore = store
	return integrator
}

// Close releases the index store connection, if any.
func (in *Integrator) Close() {
	if in.indexStore != nil {
		in.indexStore.Close()
	}
}

// Persist writes the bulk dumps for every constellation present in the
// arena and, if the index store is live, mirrors satellite/signal-quality/
// handover data into it.
func (in *Integrator) Persist(ctx context.Context, arena *satellite.Arena, events []satellite.HandoverEvent, signalQuality []index.SignalQualityRow, runID string, now time.Time) (Result, error) {
	dumps := make(map[ids.Constellation]bulk.ConstellationDump)
	for _, c := range []ids.Constellation{ids.ConstellationStarlink, ids.ConstellationOneWeb, ids.ConstellationOther} {
		satIDs := arena.ByConstellation(c)
		if len(satIDs) == 0 {
			continue
		}
		dumps[c] = bulk.BuildDump(arena, satIDs, c, events, now)
	}

	report, err := in.bulkWriter.WriteAll(dumps)
	if err != nil {
		return Result{}, err
	}
	recordCount := 0
	for _, id := range arena.All() {
		if sat := arena.Get(id); sat != nil {
			recordCount += len(sat.Samples)
		}
	}
	result := Result{
		Balance: report,
		StorageBalance: Balance{
			Status:           "volume_only",
			RecordCount:      recordCount,
			TargetIndexShare: AdaptiveIndexShare(recordCount),
		},
	}

	if in.indexStore == nil {
		result.Degraded = true
		result.DegradeReason = "index store not configured or unreachable"
		return result, nil
	}

	if err := in.indexStore.WriteSatelliteIndex(ctx, arena); err != nil {
		in.degrade(result.Balance, err)
		result.Degraded = true
		result.DegradeReason = err.Error()
		return result, nil
	}
	if err := in.indexStore.WriteSatelliteMetadata(ctx, arena, now); err != nil {
		result.Degraded = true
		result.DegradeReason = err.Error()
		return result, nil
	}
	if err := in.indexStore.WriteSignalQualityStatistics(ctx, signalQuality); err != nil {
		result.Degraded = true
		result.DegradeReason = err.Error()
		return result, nil
	}
	if err := in.indexStore.WriteHandoverEventsSummary(ctx, events); err != nil {
		result.Degraded = true
		result.DegradeReason = err.Error()
		return result, nil
	}

	starlink := len(arena.ByConstellation(ids.ConstellationStarlink))
	oneweb := len(arena.ByConstellation(ids.ConstellationOneWeb))
	if err := in.indexStore.WriteProcessingSummary(ctx, runID, now, starlink, oneweb, nil); err != nil {
		result.Degraded = true
		result.DegradeReason = err.Error()
		return result, nil
	}

	mismatches, err := in.indexStore.VerifyRecordCounts(ctx, arena)
	if err != nil {
		result.Degraded = true
		result.DegradeReason = err.Error()
		return result, nil
	}
	if len(mismatches) > 0 {
		in.logger.Warn("index store record counts disagree with bulk store", zap.Strings("satellites", mismatches))
	}
	result.StorageBalance.Mismatches = mismatches

	result.IndexStoreWrites = true
	result.StorageBalance.Status = "hybrid"
	return result, nil
}

func (in *Integrator) degrade(_ bulk.BalanceReport, err error) {
	in.logger.Warn("index store write failed, results remain bulk-only", zap.Error(err))
	if in.metrics != nil {
		in.metrics.IndexStoreDegraded.Set(1)
	}
}
