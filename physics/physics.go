// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package physics implements the pure, stateless orbital-mechanics and
// link-budget calculations. Every function here is a pure function of its
// arguments: no package state, no clock, no random draws, so the same
// inputs always reproduce the same RSRP.
package physics

import (
	"math"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/rng"
	"github.com/luxfi/constellation/satellite"
)

// EarthGravitationalParameter is μ = GM for Earth, in m³/s².
const EarthGravitationalParameter = 3.986004418e14

// EarthRadiusKM is the mean Earth radius used for geometry calculations.
const EarthRadiusKM = 6371.0

// SpeedOfLightMS is the speed of light in m/s.
const SpeedOfLightMS = 299792458.0

// RSRPClampMin and RSRPClampMax bound every RSRP computation per
// 3GPP TS 36.133.
const (
	RSRPClampMin = -140.0
	RSRPClampMax = -44.0
)

// ConstellationRF is the per-constellation EIRP/frequency table.
type ConstellationRF struct {
	EIRPdBW   float64
	FreqHz    float64
}

var constellationRF = map[ids.Constellation]ConstellationRF{
	ids.ConstellationStarlink: {EIRPdBW: 37.5, FreqHz: 20.2e9},
	ids.ConstellationOneWeb:   {EIRPdBW: 40.0, FreqHz: 19.7e9},
}

// defaultRF is used for constellations outside the table (C3/Other), using
// the midpoint of the two known providers so downstream math stays finite.
var defaultRF = ConstellationRF{EIRPdBW: 38.75, FreqHz: 19.95e9}

// UserAntennaGainDBI is the fixed ground-terminal antenna gain assumed for
// the link budget.
const UserAntennaGainDBI = 35.0

// RFFor returns the EIRP/frequency pair for a constellation.
func RFFor(c ids.Constellation) ConstellationRF {
	if rf, ok := constellationRF[c]; ok {
		return rf
	}
	return defaultRF
}

// OrbitalVelocityKMS returns the circular orbital velocity for a semi-major
// axis given in km, via v = sqrt(mu/a).
func OrbitalVelocityKMS(semiMajorAxisKM float64) float64 {
	aM := semiMajorAxisKM * 1000.0
	vMS := math.Sqrt(EarthGravitationalParameter / aM)
	return vMS / 1000.0
}

// OrbitalPeriodMinutes returns the orbital period via Kepler's third law:
// T = 2*pi*sqrt(a^3/mu).
func OrbitalPeriodMinutes(semiMajorAxisKM float64) float64 {
	aM := semiMajorAxisKM * 1000.0
	tSec := 2 * math.Pi * math.Sqrt(aM*aM*aM/EarthGravitationalParameter)
	return tSec / 60.0
}

// FriisFSPLdB returns free-space path loss in dB for the Friis equation:
// FSPL = 20*log10(4*pi*d*f/c).
func FriisFSPLdB(distanceKM, freqHz float64) float64 {
	distanceM := distanceKM * 1000.0
	return 20 * math.Log10(4*math.Pi*distanceM*freqHz/SpeedOfLightMS)
}

// ITUAtmosphericLossDB approximates oxygen, water-vapor and cloud
// attenuation per ITU-R P.618, scaling with a path factor of 1/sin(el) that
// diverges as elevation approaches zero — grazing paths pass through far
// more atmosphere.
func ITUAtmosphericLossDB(elevationDeg, freqHz float64) float64 {
	elevationDeg = math.Max(elevationDeg, 0.5) // avoid division blow-up at the horizon
	elevationRad := elevationDeg * math.Pi / 180.0
	pathFactor := 1.0 / math.Sin(elevationRad)
	freqGHz := freqHz / 1e9

	oxygenDB := 0.1 * freqGHz * pathFactor
	waterVaporDB := 0.05 * freqGHz * pathFactor
	cloudDB := 0.02 * freqGHz * pathFactor

	return oxygenDB + waterVaporDB + cloudDB
}

// SolveKepler solves Kepler's equation M = E - e*sin(E) for the eccentric
// anomaly E via Newton-Raphson, tolerance 1e-8, max 10 iterations.
func SolveKepler(meanAnomalyRad, eccentricity float64) float64 {
	e := meanAnomalyRad
	for i := 0; i < 10; i++ {
		f := e - eccentricity*math.Sin(e) - meanAnomalyRad
		fPrime := 1 - eccentricity*math.Cos(e)
		delta := f / fPrime
		e -= delta
		if math.Abs(delta) < 1e-8 {
			break
		}
	}
	return e
}

// GMSTRadians returns the Greenwich Mean Sidereal Time, in radians, for a
// given number of Julian centuries since J2000 — the standard low-precision
// IAU 1982 polynomial, accurate to the level this pipeline needs for
// ECI<->geographic rotation.
func GMSTRadians(julianCenturiesSinceJ2000 float64) float64 {
	t := julianCenturiesSinceJ2000
	gmstSec := 67310.54841 +
		(876600*3600+8640184.812866)*t +
		0.093104*t*t -
		6.2e-6*t*t*t
	gmstDeg := math.Mod(gmstSec/240.0, 360.0) // 240 = seconds per degree of rotation
	if gmstDeg < 0 {
		gmstDeg += 360
	}
	return gmstDeg * math.Pi / 180.0
}

// JulianCenturiesSinceJ2000 converts Unix seconds to Julian centuries since
// the J2000.0 epoch (2000-01-01T12:00:00Z).
func JulianCenturiesSinceJ2000(unixSeconds float64) float64 {
	const j2000UnixSeconds = 946728000.0
	daysSinceJ2000 := (unixSeconds - j2000UnixSeconds) / 86400.0
	return daysSinceJ2000 / 36525.0
}

// GeographicPosition is a lat/lon/alt triple in degrees/degrees/km.
type GeographicPosition struct {
	LatDeg float64
	LonDeg float64
	AltKM  float64
}

// ECIToGeographic rotates an ECI position (km) into geographic coordinates
// using GMST at the given Unix time.
func ECIToGeographic(xKM, yKM, zKM, unixSeconds float64) GeographicPosition {
	gmst := GMSTRadians(JulianCenturiesSinceJ2000(unixSeconds))

	// Rotate ECI -> ECEF by -GMST around the Z axis.
	xECEF := xKM*math.Cos(gmst) + yKM*math.Sin(gmst)
	yECEF := -xKM*math.Sin(gmst) + yKM*math.Cos(gmst)
	zECEF := zKM

	r := math.Sqrt(xECEF*xECEF + yECEF*yECEF + zECEF*zECEF)
	lonRad := math.Atan2(yECEF, xECEF)
	latRad := math.Asin(zECEF / r)

	return GeographicPosition{
		LatDeg: latRad * 180.0 / math.Pi,
		LonDeg: lonRad * 180.0 / math.Pi,
		AltKM:  r - EarthRadiusKM,
	}
}

// RSRPInput is everything RSRP needs, kept as a value type so the function
// stays a pure function of its arguments rather than a method with hidden
// receiver state.
type RSRPInput struct {
	SatelliteID   string
	Constellation ids.Constellation
	ElevationDeg  float64
	RangeKM       float64
}

// RSRP computes reference signal received power combining EIRP, user
// antenna gain, free-space and atmospheric path loss, and a deterministic
// multipath/shadow-fading term seeded from the satellite id. Clamped to
// [-140, -44] dBm per 3GPP TS 36.133. This function never consults a
// clock, a counter, or math/rand: two calls with identical input always
// return identical output.
func RSRP(in RSRPInput) float64 {
	rf := RFFor(in.Constellation)
	eirpDBm := rf.EIRPdBW + 30.0 // dBW -> dBm

	rangeKM := in.RangeKM
	if rangeKM <= 0 {
		rangeKM = slantRangeKM(in.ElevationDeg)
	}

	fspl := FriisFSPLdB(rangeKM, rf.FreqHz)
	atmos := ITUAtmosphericLossDB(in.ElevationDeg, rf.FreqHz)
	totalPathLoss := fspl + atmos

	shadowFadingDB := rng.TrigTerm(in.SatelliteID, in.Constellation.String(), 6.0)

	rsrp := eirpDBm + UserAntennaGainDBI - totalPathLoss + shadowFadingDB
	return clamp(rsrp, RSRPClampMin, RSRPClampMax)
}

// slantRangeKM derives a representative observer-satellite range from
// elevation alone, for callers (e.g. the elevation filter's statistics and
// the event synthesizer) that have elevation but not a precomputed range. It
// assumes a 550km-class LEO shell, consistent with Starlink/OneWeb altitudes.
func slantRangeKM(elevationDeg float64) float64 {
	const shellAltitudeKM = 550.0
	elevationDeg = math.Max(elevationDeg, 0.1)
	elevationRad := elevationDeg * math.Pi / 180.0

	rEarth := EarthRadiusKM
	rSat := rEarth + shellAltitudeKM

	// Geometric range formula for a spherical Earth:
	// d = sqrt(rSat^2 - (rEarth*cos(el))^2) - rEarth*sin(el)
	term := rSat*rSat - (rEarth*math.Cos(elevationRad))*(rEarth*math.Cos(elevationRad))
	if term < 0 {
		term = 0
	}
	d := math.Sqrt(term) - rEarth*math.Sin(elevationRad)
	if d <= 0 {
		d = rSat - rEarth
	}
	return d
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// DopplerShiftHz returns the maximum Doppler shift for a satellite moving at
// orbitalVelocityKMS relative to a carrier at freqHz.
func DopplerShiftHz(orbitalVelocityKMS, freqHz float64) float64 {
	vMS := orbitalVelocityKMS * 1000.0
	return freqHz * vMS / SpeedOfLightMS
}

// CoverageAreaKM2 approximates the ground footprint visible above a minimum
// elevation angle from a satellite at the given altitude, used by the
// validation framework's physics category.
func CoverageAreaKM2(altitudeKM, minElevationDeg float64) float64 {
	minElevationRad := minElevationDeg * math.Pi / 180.0
	rEarth := EarthRadiusKM
	rSat := rEarth + altitudeKM

	// Half-angle of the spherical cap visible above minElevationDeg.
	cosHalfAngle := (rEarth / rSat) * math.Cos(minElevationRad)
	halfAngle := math.Acos(clamp(cosHalfAngle, -1, 1)) - minElevationRad
	if halfAngle < 0 {
		halfAngle = 0
	}
	capHeight := rEarth * (1 - math.Cos(halfAngle))
	return 2 * math.Pi * rEarth * capHeight
}

// NTNBand is one of the 3GPP NTN frequency bands swept for comparative
// link-budget reporting.
type NTNBand struct {
	Name   string
	FreqHz float64
}

// NTNBands lists the three bands swept for the diagnostic report.
var NTNBands = []NTNBand{
	{Name: "S_BAND", FreqHz: 2.0e9},
	{Name: "Ku_BAND", FreqHz: 14.0e9},
	{Name: "Ka_BAND", FreqHz: 20.0e9},
}

// BandResult is one row of the NTN frequency-band sweep.
type BandResult struct {
	Band          string
	FreqHz        float64
	FSPLdB        float64
	DopplerShiftHz float64
	DopplerPPM    float64
}

// BandSweep reports FSPL and Doppler across all NTN bands for a given
// range/velocity pair. This is a diagnostic report consumed by the output
// builder's physics analysis block; it does not feed the normative
// single-frequency RSRP path above.
func BandSweep(distanceKM, orbitalVelocityKMS float64) []BandResult {
	out := make([]BandResult, 0, len(NTNBands))
	for _, band := range NTNBands {
		doppler := DopplerShiftHz(orbitalVelocityKMS, band.FreqHz)
		out = append(out, BandResult{
			Band:           band.Name,
			FreqHz:         band.FreqHz,
			FSPLdB:         FriisFSPLdB(distanceKM, band.FreqHz),
			DopplerShiftHz: doppler,
			DopplerPPM:     (doppler / band.FreqHz) * 1e6,
		})
	}
	return out
}

// PoolPhysicsAnalysis is the output artifact's physics analysis block for
// one representative pool satellite: its solved eccentric anomaly, the
// geographic position its most recent ECI sample rotates to, and the NTN
// band sweep at that sample's range and the satellite's orbital velocity.
type PoolPhysicsAnalysis struct {
	SatelliteID         string
	EccentricAnomalyRad float64
	GroundTrack         GeographicPosition
	OrbitalVelocityKMS  float64
	OrbitalPeriodMinutes float64
	Bands               []BandResult
}

// AnalyzeRepresentative solves Kepler's equation for sat's mean anomaly,
// rotates its most recent position sample from ECI into geographic
// coordinates via GMST, and sweeps NTN bands at that sample's observer
// range (falling back to the RSRP path's elevation-derived slant range when
// no sample carries a direct range) and the satellite's circular orbital
// velocity.
func AnalyzeRepresentative(sat satellite.Satellite) PoolPhysicsAnalysis {
	meanAnomalyRad := sat.Elements.MeanAnomalyDeg * math.Pi / 180.0
	eccentricAnomaly := SolveKepler(meanAnomalyRad, sat.Elements.Eccentricity)

	var ground GeographicPosition
	var rangeKM float64
	if n := len(sat.Samples); n > 0 {
		last := sat.Samples[n-1]
		ground = ECIToGeographic(last.ECIX, last.ECIY, last.ECIZ, float64(last.TimestampUnixMilli)/1000.0)
		rangeKM = last.Observer.RangeKM
		if rangeKM <= 0 {
			rangeKM = slantRangeKM(last.Observer.ElevationDeg)
		}
	}

	velocity := OrbitalVelocityKMS(sat.Elements.SemiMajorAxisKM)
	period := OrbitalPeriodMinutes(sat.Elements.SemiMajorAxisKM)

	return PoolPhysicsAnalysis{
		SatelliteID:          sat.ExternalID,
		EccentricAnomalyRad:  eccentricAnomaly,
		GroundTrack:          ground,
		OrbitalVelocityKMS:   velocity,
		OrbitalPeriodMinutes: period,
		Bands:                BandSweep(rangeKM, velocity),
	}
}
