// SPDX-License-Identifier: MIT

package score

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/pipeline"
)

// MassDeviationScorer scores how well a candidate formula's theoretical
// ion mass matches the measured peak. The mass error is modelled as
// Gaussian with a standard deviation of a third of the allowed deviation,
// so a formula at the tolerance edge sits three sigma out.
type MassDeviationScorer struct{}

func (MassDeviationScorer) Prepare(*pipeline.Input) any { return nil }

func (MassDeviationScorer) Score(f chem.Formula, p *pipeline.Peak, in *pipeline.Input, _ any) float64 {
	sigma := in.Profile.AllowedMassDeviation.AbsoluteFor(p.Mz) / 3
	theoretical := in.Experiment.IonType.Ionization.AddToMass(f.Mass())
	dist := distuv.Normal{Mu: 0, Sigma: sigma}
	return dist.LogProb(p.Mz - theoretical)
}

// PeakIsNoiseScorer rewards intense peaks: the more intense a peak, the
// less likely it is noise. Noise intensity is modelled exponentially with
// the profile's median noise intensity as the distribution median.
type PeakIsNoiseScorer struct{}

func (PeakIsNoiseScorer) ScorePeaks(in *pipeline.Input, scores []float64) {
	median := in.Profile.MedianNoiseIntensity
	if median <= 0 {
		return
	}
	noise := distuv.Exponential{Rate: math.Ln2 / median}
	for i, p := range in.Peaks {
		scores[i] += -math.Log(noise.Survival(p.RelativeIntensity))
	}
}

// TreeSizeScorer adds a flat bonus per explained peak, steering the tree
// builder towards explaining more of the spectrum. Raising the bonus
// yields larger trees.
type TreeSizeScorer struct {
	Bonus float64
}

func (s TreeSizeScorer) ScorePeaks(in *pipeline.Input, scores []float64) {
	for i := range scores {
		scores[i] += s.Bonus
	}
}
