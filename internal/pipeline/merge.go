// SPDX-License-Identifier: MIT

package pipeline

import (
	"sort"

	"github.com/mzkit/fragtree/internal/ms"
)

// MergePeaks combines peaks measured in different spectra into single
// processed peaks. The most intense unmerged peak seeds a group and
// absorbs every peak within twice the allowed mass deviation; the group's
// m/z is the seed's. Local intensity is the maximum over the group,
// global and relative intensities are sums. Afterwards the list is sorted
// by ascending m/z.
func MergePeaks(in *Input) {
	window := in.Profile.AllowedMassDeviation.Multiply(2)

	order := make([]*Peak, len(in.Peaks))
	copy(order, in.Peaks)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Intensity > order[j].Intensity
	})

	merged := make(map[*Peak]bool, len(order))
	var out []*Peak
	for _, seed := range order {
		if merged[seed] {
			continue
		}
		merged[seed] = true
		group := &Peak{
			Mz:                seed.Mz,
			OriginalMz:        seed.Mz,
			Intensity:         seed.Intensity,
			LocalIntensity:    seed.LocalIntensity,
			GlobalIntensity:   seed.GlobalIntensity,
			RelativeIntensity: seed.RelativeIntensity,
			CollisionEnergies: append([]float64(nil), seed.CollisionEnergies...),
			Origins:           append([]ms.Peak(nil), seed.Origins...),
		}
		for _, p := range order {
			if merged[p] || !window.InWindow(seed.Mz, p.Mz) {
				continue
			}
			merged[p] = true
			group.Intensity += p.Intensity
			group.GlobalIntensity += p.GlobalIntensity
			group.RelativeIntensity += p.RelativeIntensity
			if p.LocalIntensity > group.LocalIntensity {
				group.LocalIntensity = p.LocalIntensity
			}
			group.CollisionEnergies = append(group.CollisionEnergies, p.CollisionEnergies...)
			group.Origins = append(group.Origins, p.Origins...)
		}
		out = append(out, group)
	}

	in.Peaks = out
	in.SortPeaksByMz()
}
