// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package handover synthesizes 3GPP TS 38.331 A4/A5/D2 measurement events
// from pairs of visible satellites.
package handover

import (
	"math"
	"sort"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/physics"
	"github.com/luxfi/constellation/satellite"
)

// SampleStride bounds complexity by only comparing every 10th aligned
// sample index.
const SampleStride = 10

// MaxEventsPerPair caps synthesized events for any (serving, neighbor) pair.
const MaxEventsPerPair = 5

// pairCandidate is one (serving, neighbor) satellite pair under
// consideration.
type pairCandidate struct {
	servingID     ids.SatelliteID
	servingExtID  string
	servingConst  ids.Constellation
	servingSamples []satellite.PositionSample

	neighborID     ids.SatelliteID
	neighborExtID  string
	neighborConst  ids.Constellation
	neighborSamples []satellite.PositionSample
}

// Synthesize generates handover events for every ordered pair of visible
// satellites in the arena. Output is sorted by (serving_id, neighbor_id,
// timestamp) so downstream hashes are reproducible.
func Synthesize(arena *satellite.Arena, satIDs []ids.SatelliteID) []satellite.HandoverEvent {
	var events []satellite.HandoverEvent

	for _, servingID := range satIDs {
		serving := arena.Get(servingID)
		if serving == nil {
			continue
		}
		for _, neighborID := range satIDs {
			if neighborID == servingID {
				continue
			}
			neighbor := arena.Get(neighborID)
			if neighbor == nil {
				continue
			}
			pairEvents := synthesizePair(pairCandidate{
				servingID:      servingID,
				servingExtID:   serving.ExternalID,
				servingConst:   serving.Constellation,
				servingSamples: serving.Samples,
				neighborID:      neighborID,
				neighborExtID:   neighbor.ExternalID,
				neighborConst:   neighbor.Constellation,
				neighborSamples: neighbor.Samples,
			})
			events = append(events, pairEvents...)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].ServingSatID != events[j].ServingSatID {
			return events[i].ServingSatID < events[j].ServingSatID
		}
		if events[i].NeighborSatID != events[j].NeighborSatID {
			return events[i].NeighborSatID < events[j].NeighborSatID
		}
		return events[i].TimestampUnixMilli < events[j].TimestampUnixMilli
	})

	return events
}

func synthesizePair(p pairCandidate) []satellite.HandoverEvent {
	var events []satellite.HandoverEvent

	n := len(p.servingSamples)
	if len(p.neighborSamples) < n {
		n = len(p.neighborSamples)
	}

	for i := 0; i < n; i += SampleStride {
		if len(events) >= MaxEventsPerPair {
			break
		}
		s := p.servingSamples[i]
		nb := p.neighborSamples[i]
		if !s.Observer.IsVisible || !nb.Observer.IsVisible {
			continue
		}

		servingRSRP := physics.RSRP(physics.RSRPInput{
			SatelliteID:   p.servingExtID,
			Constellation: p.servingConst,
			ElevationDeg:  s.Observer.ElevationDeg,
			RangeKM:       s.Observer.RangeKM,
		})
		neighborRSRP := physics.RSRP(physics.RSRPInput{
			SatelliteID:   p.neighborExtID,
			Constellation: p.neighborConst,
			ElevationDeg:  nb.Observer.ElevationDeg,
			RangeKM:       nb.Observer.RangeKM,
		})

		if ev, ok := tryA4(p, s, nb, servingRSRP, neighborRSRP); ok {
			events = append(events, ev)
			continue
		}
		if ev, ok := tryA5(p, s, nb, servingRSRP, neighborRSRP); ok {
			events = append(events, ev)
			continue
		}
		if ev, ok := tryD2(p, s, nb, servingRSRP, neighborRSRP); ok {
			events = append(events, ev)
		}
	}

	return events
}

// altitudeCompensationDB returns a [0,5] dB term that grows with elevation.
// The event checks add it to their RSRP thresholds, so a higher-elevation
// neighbor must be received more strongly to trigger an event.
func altitudeCompensationDB(elevationDeg float64) float64 {
	comp := elevationDeg / 18.0 // 90deg -> 5dB
	if comp > 5 {
		comp = 5
	}
	if comp < 0 {
		comp = 0
	}
	return comp
}

func elevationCompensationDB(elevationDeg float64) float64 {
	return altitudeCompensationDB(elevationDeg)
}

func tryA4(p pairCandidate, s, nb satellite.PositionSample, servingRSRP, neighborRSRP float64) (satellite.HandoverEvent, bool) {
	threshold := -95.0 + altitudeCompensationDB(nb.Observer.ElevationDeg)
	if neighborRSRP <= threshold {
		return satellite.HandoverEvent{}, false
	}
	return satellite.HandoverEvent{
		Kind:               ids.EventA4,
		ServingSatID:       p.servingID,
		NeighborSatID:      p.neighborID,
		TimestampUnixMilli: s.TimestampUnixMilli,
		TriggerRSRPdBm:     clampRSRP(threshold),
		ServingRSRPdBm:     clampRSRP(servingRSRP),
		NeighborRSRPdBm:    clampRSRP(neighborRSRP),
		ElevationDeg:       s.Observer.ElevationDeg,
		Decision:           decisionFor(neighborRSRP - threshold),
		Citation:           "3GPP TS 38.331 §5.5.4.5 (A4)",
	}, true
}

func tryA5(p pairCandidate, s, nb satellite.PositionSample, servingRSRP, neighborRSRP float64) (satellite.HandoverEvent, bool) {
	threshold1 := -105.0 + elevationCompensationDB(s.Observer.ElevationDeg)
	threshold2 := threshold1 + 5.0
	if servingRSRP >= threshold1 || neighborRSRP <= threshold2 {
		return satellite.HandoverEvent{}, false
	}
	return satellite.HandoverEvent{
		Kind:               ids.EventA5,
		ServingSatID:       p.servingID,
		NeighborSatID:      p.neighborID,
		TimestampUnixMilli: s.TimestampUnixMilli,
		TriggerRSRPdBm:     clampRSRP(threshold1),
		ServingRSRPdBm:     clampRSRP(servingRSRP),
		NeighborRSRPdBm:    clampRSRP(neighborRSRP),
		ElevationDeg:       s.Observer.ElevationDeg,
		Decision:           decisionFor(threshold1 - servingRSRP),
		Citation:           "3GPP TS 38.331 §5.5.4.6 (A5)",
	}, true
}

func tryD2(p pairCandidate, s, nb satellite.PositionSample, servingRSRP, neighborRSRP float64) (satellite.HandoverEvent, bool) {
	diff := math.Abs(neighborRSRP - servingRSRP)
	distanceAdjust := math.Abs(nb.Observer.RangeKM-s.Observer.RangeKM) / 1000.0 // 1dB threshold bump per 1000km differential
	threshold := 3.0 + distanceAdjust
	if diff <= threshold {
		return satellite.HandoverEvent{}, false
	}
	return satellite.HandoverEvent{
		Kind:               ids.EventD2,
		ServingSatID:       p.servingID,
		NeighborSatID:      p.neighborID,
		TimestampUnixMilli: s.TimestampUnixMilli,
		TriggerRSRPdBm:     clampRSRP(-threshold),
		ServingRSRPdBm:     clampRSRP(servingRSRP),
		NeighborRSRPdBm:    clampRSRP(neighborRSRP),
		ElevationDeg:       s.Observer.ElevationDeg,
		Decision:           decisionFor(diff - threshold),
		Citation:           "3GPP TS 38.331 §5.5.4.15a (D2)",
	}, true
}

func decisionFor(margin float64) ids.Decision {
	switch {
	case margin > 3:
		return ids.DecisionTrigger
	case margin > 0:
		return ids.DecisionEvaluate
	default:
		return ids.DecisionHold
	}
}

func clampRSRP(v float64) float64 {
	if v < physics.RSRPClampMin {
		return physics.RSRPClampMin
	}
	if v > physics.RSRPClampMax {
		return physics.RSRPClampMax
	}
	return v
}
