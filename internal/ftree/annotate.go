// SPDX-License-Identifier: MIT

package ftree

import "github.com/mzkit/fragtree/internal/pipeline"

// Annotate fills in the intensity statistics of a tree against the
// pipeline state it was computed from. ExplainedIntensity relates the
// intensity of the explained fragment peaks to all fragment peaks;
// ExplainableIntensity keeps the numerator but restricts the denominator
// to peaks that any submultiset of the root formula could explain at all.
// The parent peak is excluded from both sides: it is always explained by
// construction.
func Annotate(tree *Tree, in *pipeline.Input) {
	if tree == nil {
		return
	}
	explained := make(map[int]bool, tree.Size())
	for _, f := range tree.Fragments[1:] {
		explained[f.Peak.Index] = true
	}
	rootFormula := tree.Root().Formula

	var sumAll, sumExplainable, sumExplained float64
	for _, p := range in.Peaks {
		if p == in.Parent {
			continue
		}
		sumAll += p.RelativeIntensity
		if explained[p.Index] {
			sumExplained += p.RelativeIntensity
		}
		for _, d := range in.Decompositions[p] {
			if rootFormula.Contains(d.Formula) {
				sumExplainable += p.RelativeIntensity
				break
			}
		}
	}
	if sumAll > 0 {
		tree.Scoring.ExplainedIntensity = sumExplained / sumAll
	}
	if sumExplainable > 0 {
		tree.Scoring.ExplainableIntensity = sumExplained / sumExplainable
	}
}
