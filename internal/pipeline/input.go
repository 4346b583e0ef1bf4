// SPDX-License-Identifier: MIT

// Package pipeline turns a raw MS/MS measurement into a ranked, merged,
// formula-annotated peak list. The stages mirror the classical
// fragmentation-pattern preprocessing: validate, preprocess, normalize,
// merge, detect the parent peak, decompose, score. Later stages require
// state produced by earlier ones; Preprocess in the root package runs them
// in order.
package pipeline

import (
	"sort"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/decomp"
	"github.com/mzkit/fragtree/internal/ms"
)

// NormalizationType selects which relative intensity a peak reports.
type NormalizationType int

const (
	NormalizeGlobal NormalizationType = iota
	NormalizeLocal
)

// Profile is the measurement profile: tolerance policy and decomposition
// constraints. It is immutable during a pipeline run.
type Profile struct {
	AllowedMassDeviation chem.Deviation
	IntensityDeviation   float64
	MedianNoiseIntensity float64
	Normalization        NormalizationType
	Constraints          decomp.Constraints
}

// DefaultProfile matches common high-resolution instruments.
func DefaultProfile() Profile {
	return Profile{
		AllowedMassDeviation: chem.Deviation{Ppm: 10, Abs: 0.002},
		IntensityDeviation:   0.02,
		MedianNoiseIntensity: 0.015,
		Normalization:        NormalizeGlobal,
		Constraints:          decomp.DefaultConstraints(),
	}
}

// Peak is a processed peak surviving merging across spectra. Mz may be
// recalibrated later; OriginalMz never changes after merging.
type Peak struct {
	Mz         float64
	OriginalMz float64
	Intensity  float64

	LocalIntensity    float64
	GlobalIntensity   float64
	RelativeIntensity float64

	CollisionEnergies []float64
	Index             int

	// Origins are the raw peaks merged into this one; an empty list marks
	// a synthetic peak (e.g. an inserted parent).
	Origins []ms.Peak
}

// Synthetic reports whether the peak was created by the pipeline rather
// than measured.
func (p *Peak) Synthetic() bool { return len(p.Origins) == 0 }

// Decomposition is a candidate molecular formula with its accumulated
// score.
type Decomposition struct {
	Formula chem.Formula
	Score   float64
}

// Input owns all mutable state of one pipeline run. It is created by
// validation, mutated in place by every stage, and read-only once handed
// to the graph builder.
type Input struct {
	Experiment *ms.Experiment
	Profile    Profile

	Peaks  []*Peak
	Parent *Peak

	// Decompositions holds the candidate formulas per peak, keyed by peak
	// identity. For the parent peak the list is sorted by descending score
	// after peak scoring.
	Decompositions map[*Peak][]Decomposition

	// PeakScores and PairScores are indexed by the final peak indices
	// assigned during peak scoring.
	PeakScores []float64
	PairScores [][]float64

	Warnings []string
}

// Warn records a validation or repair warning.
func (in *Input) Warn(msg string) { in.Warnings = append(in.Warnings, msg) }

// ParentCandidates returns the scored root-formula candidates, best first.
func (in *Input) ParentCandidates() []Decomposition {
	return in.Decompositions[in.Parent]
}

// SortPeaksByMz orders the peak list by ascending m/z.
func (in *Input) SortPeaksByMz() {
	sort.SliceStable(in.Peaks, func(i, j int) bool { return in.Peaks[i].Mz < in.Peaks[j].Mz })
}
