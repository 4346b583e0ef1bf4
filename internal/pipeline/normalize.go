// SPDX-License-Identifier: MIT

package pipeline

import (
	"sort"

	"github.com/mzkit/fragtree/internal/ms"
)

// Normalize converts the raw fragment spectra into processed peaks with
// local and global relative intensities. Within each spectrum, peaks
// closer together than half the allowed mass deviation are deduplicated
// in favour of the more intense one. The local scale of a spectrum is the
// intensity of its base peak below the parent region; the global scale is
// the largest local scale across all spectra.
func Normalize(in *Input) {
	parentMz := in.Experiment.IonMass
	mergeWindow := in.Profile.AllowedMassDeviation.Divide(2)

	globalScale := 0.0
	var all []*Peak

	for _, spec := range in.Experiment.MS2 {
		s := spec
		s.SortPeaks()

		// Deduplicate: the most intense peak absorbs neighbours within the
		// merge window, sweeping in descending intensity.
		order := make([]int, len(s.Peaks))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return s.Peaks[order[a]].Intensity > s.Peaks[order[b]].Intensity
		})
		deleted := make([]bool, len(s.Peaks))
		for _, i := range order {
			if deleted[i] {
				continue
			}
			for j := i - 1; j >= 0 && mergeWindow.InWindow(s.Peaks[i].Mz, s.Peaks[j].Mz); j-- {
				deleted[j] = true
			}
			for j := i + 1; j < len(s.Peaks) && mergeWindow.InWindow(s.Peaks[i].Mz, s.Peaks[j].Mz); j++ {
				deleted[j] = true
			}
		}

		var peaks []*Peak
		for i, raw := range s.Peaks {
			if deleted[i] {
				continue
			}
			peaks = append(peaks, &Peak{
				Mz:                raw.Mz,
				OriginalMz:        raw.Mz,
				Intensity:         raw.Intensity,
				CollisionEnergies: []float64{s.CollisionEnergy},
				Origins:           []ms.Peak{raw},
			})
		}
		if len(peaks) == 0 {
			continue
		}

		// Local scale: the base peak below the parent region, falling back
		// to the first peak for spectra that only contain the precursor.
		scale := 0.0
		for _, p := range peaks {
			if p.Mz < parentMz-0.1 && p.Intensity > scale {
				scale = p.Intensity
			}
		}
		if scale == 0 {
			scale = peaks[0].Intensity
		}
		if scale > 0 {
			for _, p := range peaks {
				p.LocalIntensity = p.Intensity / scale
			}
			if scale > globalScale {
				globalScale = scale
			}
		}
		all = append(all, peaks...)
	}

	if globalScale > 0 {
		for _, p := range all {
			p.GlobalIntensity = p.Intensity / globalScale
			if in.Profile.Normalization == NormalizeLocal {
				p.RelativeIntensity = p.LocalIntensity
			} else {
				p.RelativeIntensity = p.GlobalIntensity
			}
		}
	}
	in.Peaks = all
}
