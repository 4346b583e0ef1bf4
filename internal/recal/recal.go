// SPDX-License-Identifier: MIT

// Package recal fits a mass recalibration from a fragmentation tree. The
// tree's fragments give reference points: the measured peak m/z on one
// side, the theoretical ion mass of the assigned formula on the other. A
// low-degree polynomial fitted through them corrects systematic mass
// drift of the instrument.
package recal

import (
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mzkit/fragtree/internal/ftree"
	"github.com/mzkit/fragtree/internal/pipeline"
)

// Reference is one calibration point.
type Reference struct {
	Measured    float64 // observed peak m/z before any correction
	Theoretical float64 // ion mass of the assigned formula
}

// Result describes a fitted recalibration.
type Result struct {
	Func ftree.RecalibrationFunction

	// EstimatedBonus predicts the mass-deviation score gain of recomputing
	// the tree under the corrected masses.
	EstimatedBonus float64

	// References is the number of calibration points that survived
	// outlier removal.
	References int

	// ShouldRecompute reports whether the estimate justifies recomputing
	// the tree.
	ShouldRecompute bool
}

// Method turns a tree into a recalibration, or nil when the tree provides
// too little evidence to fit one.
type Method interface {
	FromTree(tree *ftree.Tree, in *pipeline.Input) *Result
}

// PolynomialMethod fits a polynomial of bounded degree through the
// references, iteratively discarding outliers beyond a relative error
// limit, the usual loop for spectrum-level calibrant fitting. With fewer
// references than MinReferences the method abstains.
type PolynomialMethod struct {
	Degree        int     // maximum degree, capped at 3
	MinReferences int     // default 5
	OutlierPPM    float64 // relative error limit in ppm, default 20
}

// DefaultMethod is the recalibration used by the standard analysis.
func DefaultMethod() PolynomialMethod {
	return PolynomialMethod{Degree: 2, MinReferences: 5, OutlierPPM: 20}
}

func (m PolynomialMethod) minReferences() int {
	if m.MinReferences <= 0 {
		return 5
	}
	return m.MinReferences
}

func (m PolynomialMethod) outlierPPM() float64 {
	if m.OutlierPPM <= 0 {
		return 20
	}
	return m.OutlierPPM
}

func (m PolynomialMethod) FromTree(tree *ftree.Tree, in *pipeline.Input) *Result {
	if tree == nil {
		return nil
	}
	refs := CollectReferences(tree, in)
	if len(refs) < m.minReferences() {
		return nil
	}

	degree := m.Degree
	if degree > 3 {
		degree = 3
	}
	if degree < 1 {
		degree = 1
	}
	// Leave at least two more references than free parameters.
	for degree > 1 && len(refs) < degree+3 {
		degree--
	}

	p, refs, ok := fitPolynomial(refs, degree, m.outlierPPM(), m.minReferences())
	if !ok {
		return nil
	}
	fn := ftree.RecalibrationFunction{Coeffs: p}
	bonus := estimateBonus(refs, fn, in)
	return &Result{
		Func:            fn,
		EstimatedBonus:  bonus,
		References:      len(refs),
		ShouldRecompute: bonus > 0 && !fn.IsIdentity(),
	}
}

// CollectReferences extracts calibration points from a tree: every
// non-synthetic fragment pairs its measured peak m/z with the theoretical
// ion mass of its formula.
func CollectReferences(tree *ftree.Tree, in *pipeline.Input) []Reference {
	ion := in.Experiment.IonType.Ionization
	refs := make([]Reference, 0, tree.Size())
	for i := range tree.Fragments {
		f := &tree.Fragments[i]
		if f.Peak.Synthetic {
			continue
		}
		refs = append(refs, Reference{
			Measured:    f.Peak.OriginalMz,
			Theoretical: ion.AddToMass(f.Formula.Mass()),
		})
	}
	return refs
}

// fitPolynomial runs the fit/reject loop: least-squares fit, drop
// references whose relative error exceeds the ppm limit, refit until all
// remaining references are in range or too few are left.
func fitPolynomial(refs []Reference, degree int, limitPPM float64, minRefs int) ([]float64, []Reference, bool) {
	var p []float64
	satisfied := false
	for !satisfied && len(refs) >= minRefs {
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				sumOfResiduals := 0.0
				for _, r := range refs {
					diff := evalPoly(x, r.Measured) - r.Theoretical
					sumOfResiduals += diff * diff
				}
				return math.Sqrt(sumOfResiduals)
			},
		}
		pIn := make([]float64, degree+1)
		pIn[1] = 1.0
		result, err := optimize.Minimize(problem, pIn, nil, nil)
		if err != nil {
			return nil, nil, false
		}
		p = result.X
		refs, satisfied = removeOutliersPPM(refs, p, limitPPM)
	}
	if !satisfied {
		return nil, nil, false
	}
	return p, refs, true
}

// removeOutliersPPM drops references whose relative calibration error
// exceeds the limit, in place.
func removeOutliersPPM(refs []Reference, p []float64, limitPPM float64) ([]Reference, bool) {
	limit := limitPPM * 1e-6
	acceptedIdx := 0
	for _, r := range refs {
		relErr := (r.Theoretical - evalPoly(p, r.Measured)) / r.Theoretical
		if relErr >= -limit && relErr <= limit {
			refs[acceptedIdx] = r
			acceptedIdx++
		}
	}
	satisfied := acceptedIdx == len(refs)
	return refs[:acceptedIdx], satisfied
}

func evalPoly(p []float64, mz float64) float64 {
	mp := 1.0
	y := 0.0
	for _, c := range p {
		y += c * mp
		mp *= mz
	}
	return y
}

// estimateBonus predicts the mass-deviation score change when every
// reference moves from its measured to its corrected m/z, using the same
// Gaussian error model as the mass-deviation scorer.
func estimateBonus(refs []Reference, fn ftree.RecalibrationFunction, in *pipeline.Input) float64 {
	bonus := 0.0
	for _, r := range refs {
		sigma := in.Profile.AllowedMassDeviation.AbsoluteFor(r.Measured) / 3
		dist := distuv.Normal{Mu: 0, Sigma: sigma}
		before := dist.LogProb(r.Measured - r.Theoretical)
		after := dist.LogProb(fn.Apply(r.Measured) - r.Theoretical)
		bonus += after - before
	}
	return bonus
}
