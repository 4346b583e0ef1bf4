// SPDX-License-Identifier: MIT

// Package score holds the pluggable scoring model of the tree
// computation. Scorers come in four capabilities: per-peak, per peak
// pair, per loss formula and per candidate formula. All scores are log
// domain; a non-finite score is a programming error and panics.
package score

import (
	"fmt"
	"math"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/pipeline"
)

// PeakScorer adds a score contribution for every processed peak.
type PeakScorer interface {
	ScorePeaks(in *pipeline.Input, scores []float64)
}

// PeakPairScorer adds contributions for ordered peak pairs. scores is
// indexed [source][target] by peak index, where the source is the heavier
// peak of an implied fragmentation step.
type PeakPairScorer interface {
	ScorePairs(in *pipeline.Input, scores [][]float64)
}

// DecompositionScorer scores a candidate formula at a peak. Prepare runs
// once per pipeline run; its result is passed back to every Score call.
type DecompositionScorer interface {
	Prepare(in *pipeline.Input) any
	Score(f chem.Formula, p *pipeline.Peak, in *pipeline.Input, prepared any) float64
}

// LossScorer scores the formula difference of a fragmentation step.
type LossScorer interface {
	Prepare(in *pipeline.Input) any
	Score(loss chem.Formula, in *pipeline.Input, prepared any) float64
}

// Config is the complete, immutable scoring model. A Config may be shared
// across concurrent computations; scorers must not carry mutable state
// outside their Prepare values.
type Config struct {
	PeakScorers     []PeakScorer
	PairScorers     []PeakPairScorer
	FragmentScorers []DecompositionScorer
	RootScorers     []DecompositionScorer
	LossScorers     []LossScorer
}

// MustBeFinite guards the scorer contract: scores feed additive weights,
// so NaN or infinities would corrupt the ranking silently.
func MustBeFinite(v float64, scorer any) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic(fmt.Sprintf("scorer %T returned a non-finite score %v", scorer, v))
	}
	return v
}
