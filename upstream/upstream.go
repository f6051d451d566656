// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package upstream loads the JSON artifacts produced by the earlier
// Stage 1-4 pipeline (animation_enhanced_starlink.json,
// animation_enhanced_oneweb.json) into the arena. It also hashes the
// optional TLE files for the run manifest and can verify input files
// against a sha256 checksum manifest; Load itself does not verify
// checksums.
package upstream

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

// rawSatellite is the upstream JSON shape for one satellite's record. The
// satellite's id is the key it is stored under in the file's satellites
// map, not a field of the record itself.
type rawSatellite struct {
	NORADID  int         `json:"norad_id"`
	Elements rawElements `json:"orbital_elements"`
	Samples  []rawSample `json:"position_timeseries"`
}

type rawElements struct {
	SemiMajorAxisKM  float64 `json:"semi_major_axis_km"`
	Eccentricity     float64 `json:"eccentricity"`
	InclinationDeg   float64 `json:"inclination_deg"`
	RAANDeg          float64 `json:"raan_deg"`
	ArgPerigeeDeg    float64 `json:"arg_perigee_deg"`
	MeanAnomalyDeg   float64 `json:"mean_anomaly_deg"`
	MeanMotionRevDay float64 `json:"mean_motion_rev_per_day"`
	EpochUnixMilli   int64   `json:"epoch_unix_millis"`
}

type rawSample struct {
	TimestampUnixMilli int64   `json:"timestamp_unix_millis"`
	ECIX               float64 `json:"eci_x_km"`
	ECIY               float64 `json:"eci_y_km"`
	ECIZ               float64 `json:"eci_z_km"`
	VelECIX            float64 `json:"vel_eci_x_kms"`
	VelECIY            float64 `json:"vel_eci_y_kms"`
	VelECIZ            float64 `json:"vel_eci_z_kms"`
	LatDeg             float64 `json:"lat_deg"`
	LonDeg             float64 `json:"lon_deg"`
	AltKM              float64 `json:"alt_km"`
	ElevationDeg       float64 `json:"elevation_deg"`
	AzimuthDeg         float64 `json:"azimuth_deg"`
	RangeKM            float64 `json:"range_km"`
	IsVisible          bool    `json:"is_visible"`
}

// rawFile is the upstream artifact's top level: metadata (ignored here)
// plus a satellites map keyed by the constellation-prefixed satellite id.
type rawFile struct {
	Constellation string                  `json:"constellation"`
	Satellites    map[string]rawSatellite `json:"satellites"`
}

// LoadResult reports what was loaded, for logging and the processing
// summary.
type LoadResult struct {
	StarlinkCount int
	OneWebCount   int
}

// Load reads animation_enhanced_starlink.json and
// animation_enhanced_oneweb.json from inputDir, appends their satellites
// into arena, and returns the per-constellation counts loaded.
func Load(inputDir string, arena *satellite.Arena) (LoadResult, error) {
	var result LoadResult

	starlinkN, err := loadFile(filepath.Join(inputDir, "animation_enhanced_starlink.json"), ids.ConstellationStarlink, arena)
	if err != nil {
		return result, err
	}
	result.StarlinkCount = starlinkN

	onewebN, err := loadFile(filepath.Join(inputDir, "animation_enhanced_oneweb.json"), ids.ConstellationOneWeb, arena)
	if err != nil {
		return result, err
	}
	result.OneWebCount = onewebN

	return result, nil
}

func loadFile(path string, expectedConstellation ids.Constellation, arena *satellite.Arena) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("upstream: read %s: %w", path, err)
	}

	var f rawFile
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("upstream: parse %s: %w", path, err)
	}

	// The satellites map's iteration order is randomized; arena insertion
	// order must be stable for byte-identical reruns, so insert by sorted id.
	satIDs := make([]string, 0, len(f.Satellites))
	for id := range f.Satellites {
		satIDs = append(satIDs, id)
	}
	sort.Strings(satIDs)

	for _, id := range satIDs {
		arena.Add(toSatellite(id, f.Satellites[id], expectedConstellation))
	}
	return len(satIDs), nil
}

func toSatellite(externalID string, rs rawSatellite, constellation ids.Constellation) satellite.Satellite {
	samples := make([]satellite.PositionSample, 0, len(rs.Samples))
	for _, rsamp := range rs.Samples {
		samples = append(samples, satellite.PositionSample{
			TimestampUnixMilli: rsamp.TimestampUnixMilli,
			ECIX:               rsamp.ECIX,
			ECIY:               rsamp.ECIY,
			ECIZ:               rsamp.ECIZ,
			VelECIX:            rsamp.VelECIX,
			VelECIY:            rsamp.VelECIY,
			VelECIZ:            rsamp.VelECIZ,
			LatDeg:             rsamp.LatDeg,
			LonDeg:             rsamp.LonDeg,
			AltKM:              rsamp.AltKM,
			Observer: satellite.RelativeToObserver{
				ElevationDeg: rsamp.ElevationDeg,
				AzimuthDeg:   rsamp.AzimuthDeg,
				RangeKM:      rsamp.RangeKM,
				IsVisible:    rsamp.IsVisible,
			},
		})
	}

	return satellite.Satellite{
		ExternalID:    externalID,
		NORADID:       rs.NORADID,
		Constellation: constellation,
		Elements: satellite.OrbitalElements{
			SemiMajorAxisKM:  rs.Elements.SemiMajorAxisKM,
			Eccentricity:     rs.Elements.Eccentricity,
			InclinationDeg:   rs.Elements.InclinationDeg,
			RAANDeg:          rs.Elements.RAANDeg,
			ArgPerigeeDeg:    rs.Elements.ArgPerigeeDeg,
			MeanAnomalyDeg:   rs.Elements.MeanAnomalyDeg,
			MeanMotionRevDay: rs.Elements.MeanMotionRevDay,
			Epoch:            time.UnixMilli(rs.Elements.EpochUnixMilli).UTC(),
		},
		Samples: samples,
	}
}

// TLEChecksum hashes the concatenated contents of
// tle_data/starlink.txt and tle_data/oneweb.txt under inputDir and
// returns the hex sha256 plus the relative names of the files that were
// actually present. The TLE files are optional; when neither exists the
// digest is empty and no error is returned, so the run manifest simply
// records no TLE provenance.
func TLEChecksum(inputDir string) (string, []string, error) {
	h := sha256.New()
	var hashed []string
	for _, name := range []string{"tle_data/starlink.txt", "tle_data/oneweb.txt"} {
		data, err := os.ReadFile(filepath.Join(inputDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", nil, fmt.Errorf("upstream: read tle file %s: %w", name, err)
		}
		h.Write(data)
		hashed = append(hashed, name)
	}
	if len(hashed) == 0 {
		return "", nil, nil
	}
	return hex.EncodeToString(h.Sum(nil)), hashed, nil
}

// ChecksumManifest maps an input file's relative path to its expected
// sha256 checksum, loaded from a TLE checksum manifest alongside the
// animation files.
type ChecksumManifest map[string]string

// LoadChecksumManifest reads a JSON object of path -> hex sha256 from
// inputDir/checksums.json.
func LoadChecksumManifest(inputDir string) (ChecksumManifest, error) {
	data, err := os.ReadFile(filepath.Join(inputDir, "checksums.json"))
	if err != nil {
		return nil, fmt.Errorf("upstream: read checksum manifest: %w", err)
	}
	var manifest ChecksumManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("upstream: parse checksum manifest: %w", err)
	}
	return manifest, nil
}

// VerifyChecksums confirms every file named in manifest exists under
// inputDir and hashes to its recorded sha256, returning the names of any
// files that fail verification.
func VerifyChecksums(inputDir string, manifest ChecksumManifest) ([]string, error) {
	var mismatches []string
	for name, expected := range manifest {
		data, err := os.ReadFile(filepath.Join(inputDir, name))
		if err != nil {
			mismatches = append(mismatches, name)
			continue
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != expected {
			mismatches = append(mismatches, name)
		}
	}
	return mismatches, nil
}
