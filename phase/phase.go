// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package phase implements the orbital phase analyzer: it bins
// satellites by mean anomaly and RAAN to score how evenly a candidate
// pool spreads its orbital phase, using gonum/stat for the entropy
// terms. Scores are reported globally and per constellation,
// each with a diversity rating graded against the best spread the
// constellation's own size could achieve.
package phase

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/satellite"
)

// MeanAnomalyBins and RAANBins fix the histogram resolution used across
// every diversity computation so scores stay comparable run to run.
const (
	MeanAnomalyBins = 12
	RAANBins        = 8
)

// Rating is the qualitative diversity grade for one constellation.
type Rating string

const (
	RatingExcellent  Rating = "excellent"
	RatingGood       Rating = "good"
	RatingAcceptable Rating = "acceptable"
	RatingPoor       Rating = "poor"
)

// Distribution is one dimension's bin histogram: per-bin counts, the
// satellites occupying each bin, and the normalized entropy score in
// [0, 1], where 1 means perfectly even spread across bins.
type Distribution struct {
	Counts       []int
	Members      [][]ids.SatelliteID
	EntropyScore float64
}

// ConstellationAnalysis is one constellation's phase breakdown.
type ConstellationAnalysis struct {
	Constellation  ids.Constellation
	SatelliteCount int
	MeanAnomaly    Distribution
	RAAN           Distribution
	DiversityScore float64
	Rating         Rating
}

// Analysis is the phase analyzer's full output for one candidate set.
type Analysis struct {
	MeanAnomaly      Distribution
	RAAN             Distribution
	DiversityScore   float64 // adaptively weighted blend of the two dimensions
	PerConstellation []ConstellationAnalysis
}

// Analyze bins every candidate's mean anomaly and RAAN and computes an
// adaptive diversity score: the dimension with the lower raw entropy (the
// more clustered one) is weighted more heavily, since it is the dimension
// most likely to cause a coverage gap. Each constellation additionally
// gets its own breakdown and rating.
func Analyze(candidates []satellite.SatelliteCandidate, elements map[ids.SatelliteID]satellite.OrbitalElements) Analysis {
	maDist, raanDist, diversity := analyzeSet(candidates, elements, ids.ConstellationUnknown)
	analysis := Analysis{
		MeanAnomaly:    maDist,
		RAAN:           raanDist,
		DiversityScore: diversity,
	}

	for _, c := range []ids.Constellation{ids.ConstellationStarlink, ids.ConstellationOneWeb} {
		ma, raan, score := analyzeSet(candidates, elements, c)
		count := 0
		for _, n := range ma.Counts {
			count += n
		}
		analysis.PerConstellation = append(analysis.PerConstellation, ConstellationAnalysis{
			Constellation:  c,
			SatelliteCount: count,
			MeanAnomaly:    ma,
			RAAN:           raan,
			DiversityScore: score,
			Rating:         rateDiversity(score, count),
		})
	}

	return analysis
}

// analyzeSet bins the candidates belonging to constellation (or every
// candidate when constellation is ConstellationUnknown) and blends the two
// dimensions' entropies with adaptive weights.
func analyzeSet(candidates []satellite.SatelliteCandidate, elements map[ids.SatelliteID]satellite.OrbitalElements, constellation ids.Constellation) (maDist, raanDist Distribution, diversity float64) {
	maCounts := make([]int, MeanAnomalyBins)
	maMembers := make([][]ids.SatelliteID, MeanAnomalyBins)
	raanCounts := make([]int, RAANBins)
	raanMembers := make([][]ids.SatelliteID, RAANBins)

	for _, c := range candidates {
		if constellation != ids.ConstellationUnknown && c.Constellation != constellation {
			continue
		}
		el, ok := elements[c.SatelliteID]
		if !ok {
			continue
		}
		maBin := binIndex(el.MeanAnomalyDeg, 360, MeanAnomalyBins)
		maCounts[maBin]++
		maMembers[maBin] = append(maMembers[maBin], c.SatelliteID)
		raanBin := binIndex(el.RAANDeg, 360, RAANBins)
		raanCounts[raanBin]++
		raanMembers[raanBin] = append(raanMembers[raanBin], c.SatelliteID)
	}

	maDist = Distribution{Counts: maCounts, Members: maMembers, EntropyScore: normalizedEntropy(maCounts)}
	raanDist = Distribution{Counts: raanCounts, Members: raanMembers, EntropyScore: normalizedEntropy(raanCounts)}

	wMA, wRAAN := adaptiveWeights(maDist.EntropyScore, raanDist.EntropyScore)
	diversity = wMA*maDist.EntropyScore + wRAAN*raanDist.EntropyScore
	return maDist, raanDist, diversity
}

// rateDiversity grades a diversity score against the best score a
// constellation of this size could possibly reach: n satellites spread as
// evenly as possible across the bins. The thresholds are fractions of that
// achievable ceiling, so a small constellation is not graded poor merely
// for having fewer satellites than bins.
func rateDiversity(score float64, satelliteCount int) Rating {
	if satelliteCount == 0 {
		return RatingPoor
	}
	wMA, wRAAN := adaptiveWeights(
		achievableEntropy(satelliteCount, MeanAnomalyBins),
		achievableEntropy(satelliteCount, RAANBins),
	)
	ceiling := wMA*achievableEntropy(satelliteCount, MeanAnomalyBins) +
		wRAAN*achievableEntropy(satelliteCount, RAANBins)
	if ceiling <= 0 {
		return RatingPoor
	}
	relative := score / ceiling
	switch {
	case relative >= 0.90:
		return RatingExcellent
	case relative >= 0.75:
		return RatingGood
	case relative >= 0.50:
		return RatingAcceptable
	default:
		return RatingPoor
	}
}

// achievableEntropy is the normalized entropy of n items distributed as
// evenly as possible across bins: the ceiling an n-satellite constellation
// can reach on that dimension.
func achievableEntropy(n, bins int) float64 {
	if n <= 0 || bins <= 1 {
		return 0
	}
	counts := make([]int, bins)
	base, extra := n/bins, n%bins
	for i := range counts {
		counts[i] = base
		if i < extra {
			counts[i]++
		}
	}
	return normalizedEntropy(counts)
}

// binIndex maps a degree value in [0, period) to a histogram bin index.
func binIndex(deg, period float64, bins int) int {
	normalized := math.Mod(deg, period)
	if normalized < 0 {
		normalized += period
	}
	idx := int(normalized / period * float64(bins))
	if idx >= bins {
		idx = bins - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// normalizedEntropy returns the Shannon entropy of counts normalized to
// [0, 1] by the maximum possible entropy (log(len(counts))), using
// gonum/stat.Entropy on the counts' frequency distribution.
func normalizedEntropy(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 || len(counts) <= 1 {
		return 0
	}
	freqs := make([]float64, len(counts))
	for i, c := range counts {
		freqs[i] = float64(c) / float64(total)
	}
	entropy := stat.Entropy(freqs)
	maxEntropy := math.Log(float64(len(counts)))
	if maxEntropy == 0 {
		return 0
	}
	return entropy / maxEntropy
}

// adaptiveWeights weights the more clustered dimension (lower entropy) more
// heavily, within [0.3, 0.7], so a single badly-clustered dimension cannot
// be masked by an evenly spread second dimension.
func adaptiveWeights(maEntropy, raanEntropy float64) (wMA, wRAAN float64) {
	diff := raanEntropy - maEntropy // positive => MA more clustered => MA weighted up
	wMA = 0.5 + 0.2*clampUnit(diff)
	wRAAN = 1 - wMA
	return wMA, wRAAN
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
