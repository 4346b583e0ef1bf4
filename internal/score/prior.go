// SPDX-License-Identifier: MIT

package score

import (
	"math"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/pipeline"
)

// partialPareto is uniform up to a knee and decays with a Pareto tail
// beyond it. It models chemical ratio features that are unremarkable
// within a normal range and increasingly implausible outside it.
type partialPareto struct {
	Knee float64
	K    float64
}

// logDensityRatio returns log(density(x)/density(knee)): zero on the
// uniform part, negative on the tail.
func (p partialPareto) logDensityRatio(x float64) float64 {
	if x <= p.Knee {
		return 0
	}
	return -(p.K + 1) * math.Log(x/p.Knee)
}

// ChemicalPriorScorer scores root candidates by how chemically plausible
// the formula is, using the heteroatom-to-carbon ratio. Small formulas
// are exempt: below the minimal mass the ratio carries no signal.
type ChemicalPriorScorer struct {
	Prior       partialPareto
	MinimalMass float64
	Floor       float64 // lower bound on the penalty
}

func DefaultChemicalPriorScorer() ChemicalPriorScorer {
	return ChemicalPriorScorer{
		Prior:       partialPareto{Knee: 1.0, K: 3},
		MinimalMass: 100,
		Floor:       -10,
	}
}

func (ChemicalPriorScorer) Prepare(*pipeline.Input) any { return nil }

func (s ChemicalPriorScorer) Score(f chem.Formula, _ *pipeline.Peak, _ *pipeline.Input, _ any) float64 {
	if f.Mass() < s.MinimalMass {
		return 0
	}
	v := s.Prior.logDensityRatio(f.Hetero2Carbon())
	if v < s.Floor {
		return s.Floor
	}
	return v
}
