// SPDX-License-Identifier: MIT

package pipeline

import (
	"math"

	"github.com/mzkit/fragtree/internal/decomp"
)

// Decompose computes the candidate formulas of every peak. The parent is
// decomposed on its original m/z with ionization and adduct removed, and
// the adduct is added back so candidates describe the whole precursor.
// Fragments are decomposed on their (possibly recalibrated) m/z with only
// the ionization removed. Adjacent peaks closer than twice the allowed
// deviation must not share formulas: a contested formula stays with the
// peak whose mass matches it better.
func Decompose(in *Input, cache *decomp.Cache) {
	in.SortPeaksByMz()
	dev := in.Profile.AllowedMassDeviation
	ion := in.Experiment.IonType
	d := cache.Decomposer(in.Profile.Constraints)

	parent := in.Parent
	parentNeutral := ion.SubtractIonAndAdduct(parent.OriginalMz)
	candidates := d.Decompose(parentNeutral, dev, in.Profile.Constraints)
	parentList := make([]Decomposition, 0, len(candidates))
	for _, f := range candidates {
		parentList = append(parentList, Decomposition{Formula: f.Add(ion.Adduct)})
	}
	in.Decompositions[parent] = parentList

	for _, p := range in.Peaks {
		if p == parent {
			continue
		}
		mass := ion.Ionization.SubtractFromMass(p.Mz)
		var list []Decomposition
		if mass > 0 {
			for _, f := range d.Decompose(mass, dev, in.Profile.Constraints) {
				list = append(list, Decomposition{Formula: f})
			}
		}
		in.Decompositions[p] = list
	}

	resolveContested(in)
}

// resolveContested enforces disjoint formula sets for near-coinciding
// fragment peaks. Two peaks within twice the allowed deviation of each
// other may both decompose to the same formula; the formula is kept only
// by the peak with the smaller mass error.
func resolveContested(in *Input) {
	dev := in.Profile.AllowedMassDeviation.Multiply(2)
	ion := in.Experiment.IonType.Ionization
	for i := 1; i < len(in.Peaks)-1; i++ {
		left, right := in.Peaks[i-1], in.Peaks[i]
		if !dev.InWindow(right.Mz, left.Mz) {
			continue
		}
		leftList := in.Decompositions[left]
		rightList := in.Decompositions[right]
		keptLeft := leftList[:0]
		for _, dl := range leftList {
			ri := -1
			for j, dr := range rightList {
				if dr.Formula == dl.Formula {
					ri = j
					break
				}
			}
			if ri < 0 {
				keptLeft = append(keptLeft, dl)
				continue
			}
			theo := ion.AddToMass(dl.Formula.Mass())
			if math.Abs(left.Mz-theo) <= math.Abs(right.Mz-theo) {
				keptLeft = append(keptLeft, dl)
				rightList = append(rightList[:ri], rightList[ri+1:]...)
			}
		}
		in.Decompositions[left] = keptLeft
		in.Decompositions[right] = rightList
	}
}
