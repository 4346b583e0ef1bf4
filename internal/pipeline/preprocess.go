// SPDX-License-Identifier: MIT

package pipeline

import (
	"sort"

	"github.com/mzkit/fragtree/internal/ms"
)

// Preprocessor rewrites raw spectra before normalization. Preprocessors
// see the experiment copy owned by the pipeline and may mutate it freely.
type Preprocessor interface {
	Process(exp *ms.Experiment, profile Profile)
}

// NormalizeToSum scales every fragment spectrum so its intensities sum to
// a fixed value, removing inter-scan intensity drift before peaks from
// different scans are compared.
type NormalizeToSum struct {
	Total float64 // target intensity sum, default 100
}

func (n NormalizeToSum) Process(exp *ms.Experiment, _ Profile) {
	total := n.Total
	if total <= 0 {
		total = 100
	}
	for i := range exp.MS2 {
		peaks := exp.MS2[i].Peaks
		sum := 0.0
		for _, p := range peaks {
			sum += p.Intensity
		}
		if sum <= 0 {
			continue
		}
		for j := range peaks {
			peaks[j].Intensity *= total / sum
		}
	}
}

// PostProcessor filters or adjusts the merged peak list. Post-processors
// run after merging, before parent detection, and must keep the list
// sorted by m/z if they found it sorted.
type PostProcessor interface {
	Process(in *Input)
}

// NoiseThresholdFilter drops peaks whose relative intensity falls below a
// threshold. The parent region is exempt so a weak precursor survives.
type NoiseThresholdFilter struct {
	Threshold float64 // default 0.005
}

func (f NoiseThresholdFilter) Process(in *Input) {
	threshold := f.Threshold
	if threshold <= 0 {
		threshold = 0.005
	}
	dev := in.Profile.AllowedMassDeviation
	parentMz := in.Experiment.IonMass
	kept := in.Peaks[:0]
	for _, p := range in.Peaks {
		if p.RelativeIntensity >= threshold || dev.InWindow(parentMz, p.Mz) {
			kept = append(kept, p)
		}
	}
	in.Peaks = kept
}

// LimitNumberOfPeaksFilter keeps only the most intense peaks, bounding the
// cost of decomposition and graph construction downstream.
type LimitNumberOfPeaksFilter struct {
	Limit int // default 40
}

func (f LimitNumberOfPeaksFilter) Process(in *Input) {
	limit := f.Limit
	if limit <= 0 {
		limit = 40
	}
	if len(in.Peaks) <= limit {
		return
	}
	byIntensity := append([]*Peak(nil), in.Peaks...)
	sort.SliceStable(byIntensity, func(i, j int) bool {
		return byIntensity[i].RelativeIntensity > byIntensity[j].RelativeIntensity
	})
	keep := make(map[*Peak]bool, limit)
	for _, p := range byIntensity[:limit] {
		keep[p] = true
	}
	kept := in.Peaks[:0]
	for _, p := range in.Peaks {
		if keep[p] {
			kept = append(kept, p)
		}
	}
	in.Peaks = kept
}
