// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package satellite defines the core data model: satellites, position
// samples, coverage windows, handover events, candidates and pool
// configurations. Satellites live in a flat Arena keyed by
// ids.SatelliteID rather than a graph of pointers.
package satellite

import (
	"time"

	"github.com/luxfi/constellation/ids"
)

// OrbitalElements are the six classical elements plus mean motion and
// epoch, immutable for the lifetime of a pipeline run.
type OrbitalElements struct {
	SemiMajorAxisKM float64
	Eccentricity    float64
	InclinationDeg  float64
	RAANDeg         float64
	ArgPerigeeDeg   float64
	MeanAnomalyDeg  float64
	MeanMotionRevDay float64
	Epoch           time.Time
}

// RelativeToObserver is the observer-relative geometry of one position
// sample.
type RelativeToObserver struct {
	ElevationDeg float64
	AzimuthDeg   float64
	RangeKM      float64
	IsVisible    bool
}

// PositionSample is one timestamped observation of a satellite. Within a
// satellite, samples must be in non-decreasing timestamp order.
type PositionSample struct {
	TimestampUnixMilli int64

	ECIX, ECIY, ECIZ    float64
	VelECIX, VelECIY, VelECIZ float64

	LatDeg, LonDeg, AltKM float64

	Observer RelativeToObserver
}

// Time returns the sample's timestamp as a UTC time.Time.
func (s PositionSample) Time() time.Time {
	return time.UnixMilli(s.TimestampUnixMilli).UTC()
}

// Satellite is one satellite's immutable metadata plus its ordered position
// time series.
type Satellite struct {
	ExternalID    string // e.g. "STARLINK-12345"
	NORADID       int
	Constellation ids.Constellation
	Elements      OrbitalElements
	Samples       []PositionSample
}

// VisibleSampleCount returns the number of samples flagged visible.
func (s *Satellite) VisibleSampleCount() int {
	n := 0
	for _, samp := range s.Samples {
		if samp.Observer.IsVisible {
			n++
		}
	}
	return n
}

// Arena is the flat store of satellites for one pipeline run, indexed by
// ids.SatelliteID. Candidate sets over the arena are represented as
// BitSet, not as slices of pointers, so the optimizer's
// population/particle state stays a compact vector.
type Arena struct {
	satellites []Satellite
	byExternal map[string]ids.SatelliteID
}

// NewArena returns an empty Arena with capacity preallocated for n
// satellites.
func NewArena(capacityHint int) *Arena {
	return &Arena{
		satellites: make([]Satellite, 0, capacityHint),
		byExternal: make(map[string]ids.SatelliteID, capacityHint),
	}
}

// Add appends a satellite to the arena and returns its assigned ID.
func (a *Arena) Add(s Satellite) ids.SatelliteID {
	id := ids.SatelliteID(len(a.satellites))
	a.satellites = append(a.satellites, s)
	a.byExternal[s.ExternalID] = id
	return id
}

// Get returns a pointer to the satellite at id. Callers must not retain the
// pointer past the arena's lifetime or across a concurrent Add.
func (a *Arena) Get(id ids.SatelliteID) *Satellite {
	if int(id) >= len(a.satellites) {
		return nil
	}
	return &a.satellites[id]
}

// Lookup resolves an external satellite id (e.g. "STARLINK-12345") to its
// arena index.
func (a *Arena) Lookup(externalID string) (ids.SatelliteID, bool) {
	id, ok := a.byExternal[externalID]
	return id, ok
}

// Len returns the number of satellites in the arena.
func (a *Arena) Len() int { return len(a.satellites) }

// All returns every SatelliteID in the arena, in insertion order.
func (a *Arena) All() []ids.SatelliteID {
	out := make([]ids.SatelliteID, len(a.satellites))
	for i := range a.satellites {
		out[i] = ids.SatelliteID(i)
	}
	return out
}

// ByConstellation returns every SatelliteID belonging to c, in arena order.
func (a *Arena) ByConstellation(c ids.Constellation) []ids.SatelliteID {
	var out []ids.SatelliteID
	for i := range a.satellites {
		if a.satellites[i].Constellation == c {
			out = append(out, ids.SatelliteID(i))
		}
	}
	return out
}

// BitSet is a compact candidate set over arena indices, used for GA
// chromosomes, SA current-state and pool acceptance sets.
type BitSet []uint64

// NewBitSet returns an empty BitSet sized for n arena slots.
func NewBitSet(n int) BitSet {
	return make(BitSet, (n+63)/64)
}

func (b BitSet) Has(id ids.SatelliteID) bool {
	word := int(id) / 64
	if word >= len(b) {
		return false
	}
	return b[word]&(1<<(uint(id)%64)) != 0
}

func (b BitSet) Set(id ids.SatelliteID) {
	word := int(id) / 64
	if word >= len(b) {
		return
	}
	b[word] |= 1 << (uint(id) % 64)
}

func (b BitSet) Clear(id ids.SatelliteID) {
	word := int(id) / 64
	if word >= len(b) {
		return
	}
	b[word] &^= 1 << (uint(id) % 64)
}

// Count returns the number of set bits.
func (b BitSet) Count() int {
	n := 0
	for _, w := range b {
		for w != 0 {
			w &= w - 1
			n++
		}
	}
	return n
}

// ToSlice returns every set SatelliteID in ascending order.
func (b BitSet) ToSlice() []ids.SatelliteID {
	var out []ids.SatelliteID
	for word, w := range b {
		for bit := 0; bit < 64; bit++ {
			if w&(1<<uint(bit)) != 0 {
				out = append(out, ids.SatelliteID(word*64+bit))
			}
		}
	}
	return out
}

// Clone returns an independent copy of b.
func (b BitSet) Clone() BitSet {
	c := make(BitSet, len(b))
	copy(c, b)
	return c
}
