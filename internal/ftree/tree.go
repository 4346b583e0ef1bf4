// SPDX-License-Identifier: MIT

// Package ftree extracts the optimal colourful subtree from a scored
// candidate graph and represents the resulting fragmentation tree. The
// builder is exact: among all subtrees of the graph using each peak
// colour at most once, it returns one of maximum total edge weight.
package ftree

import (
	"github.com/mzkit/fragtree/internal/chem"
)

// PeakRef carries the peak values a tree fragment refers to. Trees are
// self-contained: they stay valid after the pipeline state is gone.
type PeakRef struct {
	Index             int
	Mz                float64
	OriginalMz        float64
	Intensity         float64
	RelativeIntensity float64
	Synthetic         bool
}

// Fragment is a tree vertex. Fragments are stored in depth-first order
// with the root at index 0 and reference each other by index.
type Fragment struct {
	Formula chem.Formula
	Peak    PeakRef
	Color   int

	Parent   int // index of the parent fragment, -1 for the root
	Children []int

	// IncomingWeight and IncomingLoss describe the edge from the parent;
	// for the root the weight is zero and the loss empty.
	IncomingWeight float64
	IncomingLoss   chem.Formula
}

// Scoring aggregates the score decomposition of a tree.
type Scoring struct {
	// RootScore is the weight of the graph edge that selected the root
	// formula; LossSum adds all tree edge weights. Their sum is the
	// overall score the trees are ranked by.
	RootScore    float64
	LossSum      float64
	OverallScore float64

	// RecalibrationBonus is the realized score gain of adopting a
	// recalibration; RecalibrationBonusEstimate is the predicted gain,
	// kept for diagnostics even when the corrected tree is rejected.
	RecalibrationBonus         float64
	RecalibrationBonusEstimate float64

	// ExplainedIntensity is the fraction of total fragment peak intensity
	// explained by the tree; ExplainableIntensity divides the same
	// explained intensity by only the intensity of peaks that any
	// submultiset of the root formula could explain.
	ExplainedIntensity   float64
	ExplainableIntensity float64
}

// RecalibrationFunction is a polynomial mass correction m/z -> m/z.
// The zero value (no coefficients) acts as the identity.
type RecalibrationFunction struct {
	Coeffs []float64 // ascending powers
}

// Identity returns the do-nothing correction.
func Identity() RecalibrationFunction {
	return RecalibrationFunction{Coeffs: []float64{0, 1}}
}

// Apply evaluates the polynomial at mz.
func (f RecalibrationFunction) Apply(mz float64) float64 {
	if len(f.Coeffs) == 0 {
		return mz
	}
	y := 0.0
	for i := len(f.Coeffs) - 1; i >= 0; i-- {
		y = y*mz + f.Coeffs[i]
	}
	return y
}

// IsIdentity reports whether applying the function is a no-op.
func (f RecalibrationFunction) IsIdentity() bool {
	if len(f.Coeffs) == 0 {
		return true
	}
	if len(f.Coeffs) < 2 {
		return f.Coeffs[0] == 0
	}
	if f.Coeffs[0] != 0 || f.Coeffs[1] != 1 {
		return false
	}
	for _, c := range f.Coeffs[2:] {
		if c != 0 {
			return false
		}
	}
	return true
}

// Tree is a fragmentation tree: the root explains the parent peak, every
// edge is a neutral loss.
type Tree struct {
	Fragments []Fragment
	Scoring   Scoring

	// Recalibration is the mass correction under which the tree was
	// computed; the identity if none was applied.
	Recalibration RecalibrationFunction
}

// Root returns the root fragment.
func (t *Tree) Root() *Fragment { return &t.Fragments[0] }

// Size returns the number of fragments.
func (t *Tree) Size() int { return len(t.Fragments) }
