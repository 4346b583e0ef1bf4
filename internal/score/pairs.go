// SPDX-License-Identifier: MIT

package score

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mzkit/fragtree/internal/pipeline"
)

// LossSizeScorer scores the neutral mass lost in a fragmentation step.
// Loss masses follow a log-normal distribution over the observed spectra;
// very small and very large losses are both unusual.
type LossSizeScorer struct {
	Mu            float64 // default 4
	Sigma         float64 // default 1
	Normalization float64 // default -5
}

// DefaultLossSizeScorer carries the distribution parameters fitted on
// reference spectra.
func DefaultLossSizeScorer() LossSizeScorer {
	return LossSizeScorer{Mu: 4, Sigma: 1, Normalization: -5}
}

func (s LossSizeScorer) ScorePairs(in *pipeline.Input, scores [][]float64) {
	dist := distuv.LogNormal{Mu: s.Mu, Sigma: s.Sigma}
	for i, src := range in.Peaks {
		for j, dst := range in.Peaks {
			lossMass := src.Mz - dst.Mz
			if lossMass <= 0 {
				continue
			}
			scores[i][j] += dist.LogProb(lossMass) - s.Normalization
		}
	}
}

// CollisionEnergyEdgeScorer checks that a fragmentation step is
// consistent with the ramp: a fragment should appear at collision
// energies at least as high as the minimum energy of the peak it breaks
// off from. Consistent steps get a mild bonus, inconsistent ones a
// penalty. Synthetic peaks carry no energies and stay neutral.
type CollisionEnergyEdgeScorer struct {
	ConsistentScore   float64 // default log 0.8
	InconsistentScore float64 // default log 0.1
}

func DefaultCollisionEnergyEdgeScorer() CollisionEnergyEdgeScorer {
	return CollisionEnergyEdgeScorer{
		ConsistentScore:   math.Log(0.8),
		InconsistentScore: math.Log(0.1),
	}
}

func (s CollisionEnergyEdgeScorer) ScorePairs(in *pipeline.Input, scores [][]float64) {
	for i, src := range in.Peaks {
		for j, dst := range in.Peaks {
			if src.Mz <= dst.Mz || len(src.CollisionEnergies) == 0 || len(dst.CollisionEnergies) == 0 {
				continue
			}
			if compatibleEnergies(src.CollisionEnergies, dst.CollisionEnergies) {
				scores[i][j] += s.ConsistentScore
			} else {
				scores[i][j] += s.InconsistentScore
			}
		}
	}
}

func compatibleEnergies(source, target []float64) bool {
	minSource := source[0]
	for _, e := range source[1:] {
		if e < minSource {
			minSource = e
		}
	}
	for _, e := range target {
		if e >= minSource {
			return true
		}
	}
	return false
}
