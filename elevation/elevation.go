// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package elevation implements the layered elevation filter: for each
// threshold and constellation, keep only samples that are visible and
// at or above the threshold, and compute per-satellite elevation
// statistics. Filtering never synthesizes samples — inputs are
// authoritative.
package elevation

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/physics"
	"github.com/luxfi/constellation/satellite"
)

// MinQualifyingSamples is the minimum number of qualifying samples a
// satellite must have at a threshold to be kept for that threshold.
const MinQualifyingSamples = 3

// Stats is the per-satellite, per-threshold elevation summary.
type Stats struct {
	SatelliteID   ids.SatelliteID
	ThresholdDeg  float64
	MinDeg        float64
	MaxDeg        float64
	AvgDeg        float64
	FilteredCount int
}

// Result is one threshold's filtering output for one constellation.
type Result struct {
	ThresholdDeg  float64
	Constellation ids.Constellation
	Kept          map[ids.SatelliteID][]satellite.PositionSample
	Stats         []Stats
	Dropped       []ids.SatelliteID // satellites with < MinQualifyingSamples
}

// FilterConstellation filters every satellite of one constellation at one
// threshold. Samples are processed in timestamp order (they already
// arrive that way); filtering never reorders or synthesizes samples.
func FilterConstellation(arena *satellite.Arena, satIDs []ids.SatelliteID, thresholdDeg float64, constellation ids.Constellation) Result {
	res := Result{
		ThresholdDeg:  thresholdDeg,
		Constellation: constellation,
		Kept:          make(map[ids.SatelliteID][]satellite.PositionSample, len(satIDs)),
	}

	for _, id := range satIDs {
		sat := arena.Get(id)
		if sat == nil {
			continue
		}
		kept := make([]satellite.PositionSample, 0, len(sat.Samples))
		minDeg, maxDeg, sumDeg := math.Inf(1), math.Inf(-1), 0.0
		for _, s := range sat.Samples {
			if !s.Observer.IsVisible || s.Observer.ElevationDeg < thresholdDeg {
				continue
			}
			kept = append(kept, s)
			el := s.Observer.ElevationDeg
			if el < minDeg {
				minDeg = el
			}
			if el > maxDeg {
				maxDeg = el
			}
			sumDeg += el
		}

		if len(kept) < MinQualifyingSamples {
			res.Dropped = append(res.Dropped, id)
			continue
		}

		res.Kept[id] = kept
		res.Stats = append(res.Stats, Stats{
			SatelliteID:   id,
			ThresholdDeg:  thresholdDeg,
			MinDeg:        minDeg,
			MaxDeg:        maxDeg,
			AvgDeg:        sumDeg / float64(len(kept)),
			FilteredCount: len(kept),
		})
	}

	return res
}

// FilterAll runs every threshold against every constellation present in the
// arena, parallelizing over (threshold, constellation) pairs with a bounded
// worker group via errgroup.SetLimit.
func FilterAll(ctx context.Context, arena *satellite.Arena, thresholds []float64, constellations []ids.Constellation, maxWorkers int) ([]Result, error) {
	type job struct {
		threshold     float64
		constellation ids.Constellation
	}
	var jobs []job
	for _, th := range thresholds {
		for _, c := range constellations {
			jobs = append(jobs, job{threshold: th, constellation: c})
		}
	}

	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if maxWorkers > 0 {
		g.SetLimit(maxWorkers)
	}

	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			satIDs := arena.ByConstellation(j.constellation)
			results[i] = FilterConstellation(arena, satIDs, j.threshold, j.constellation)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DeriveCoverageWindows groups a satellite's kept samples into contiguous
// visibility windows. Samples more than gapMillis apart are treated as
// separate windows.
// externalID/constellation feed the per-sample RSRP used for the window's
// average signal quality.
func DeriveCoverageWindows(satID ids.SatelliteID, externalID string, constellation ids.Constellation, samples []satellite.PositionSample, thresholdDeg float64, gapMillis int64) []satellite.CoverageWindow {
	if len(samples) == 0 {
		return nil
	}
	var windows []satellite.CoverageWindow
	start := 0
	for i := 1; i <= len(samples); i++ {
		atEnd := i == len(samples)
		brokeGap := !atEnd && samples[i].TimestampUnixMilli-samples[i-1].TimestampUnixMilli > gapMillis
		if atEnd || brokeGap {
			windows = append(windows, buildWindow(satID, externalID, constellation, samples[start:i], thresholdDeg))
			start = i
		}
	}
	return windows
}

func buildWindow(satID ids.SatelliteID, externalID string, constellation ids.Constellation, samples []satellite.PositionSample, thresholdDeg float64) satellite.CoverageWindow {
	maxEl := thresholdDeg
	var sumRSRP float64
	for _, s := range samples {
		if s.Observer.ElevationDeg > maxEl {
			maxEl = s.Observer.ElevationDeg
		}
		sumRSRP += physics.RSRP(physics.RSRPInput{
			SatelliteID:   externalID,
			Constellation: constellation,
			ElevationDeg:  s.Observer.ElevationDeg,
			RangeKM:       s.Observer.RangeKM,
		})
	}
	n := len(samples)
	if n > 0 {
		sumRSRP /= float64(n)
	}
	quality := (maxEl - thresholdDeg) / 90.0
	if quality > 1 {
		quality = 1
	}
	if quality < 0 {
		quality = 0
	}
	return satellite.CoverageWindow{
		SatelliteID:     satID,
		AOSUnixMilli:    samples[0].TimestampUnixMilli,
		LOSUnixMilli:    samples[n-1].TimestampUnixMilli,
		MaxElevationDeg: maxEl,
		AvgRSRPdBm:      sumRSRP,
		QualityScore:    quality,
	}
}
