// SPDX-License-Identifier: MIT

package pipeline

import "github.com/mzkit/fragtree/internal/chem"

// DetectParent locates the precursor among the merged peaks or inserts a
// synthetic one. When a survey scan pins the precursor more precisely,
// its m/z becomes the expected parent mass before anything else. Peaks
// heavier than the precursor window are artefacts and are dropped; peaks
// between the parent and one hydrogen below it are the parent measured
// again and are folded into it. The parent ends up as the last (heaviest)
// peak.
func DetectParent(in *Input) {
	parentMz := in.Experiment.IonMass
	dev := in.Profile.AllowedMassDeviation

	// A survey scan measures the precursor with less interference; when it
	// confirms the peak, its m/z replaces the instrument-reported mass for
	// the whole detection.
	surveyed := false
	if len(in.Experiment.MS1) > 0 {
		s := in.Experiment.MS1[0]
		if i := s.MostIntensePeakWithin(parentMz, dev); i >= 0 {
			parentMz = s.Peaks[i].Mz
			surveyed = true
		}
	}

	in.SortPeaksByMz()

	// Sweep down from the heaviest peak until one falls inside the
	// precursor window; everything heavier is discarded.
	found := false
	for len(in.Peaks) > 0 {
		last := in.Peaks[len(in.Peaks)-1]
		if dev.InWindow(parentMz, last.Mz) {
			found = true
			break
		}
		if last.Mz < parentMz {
			break
		}
		in.Peaks = in.Peaks[:len(in.Peaks)-1]
	}
	if !found {
		in.Peaks = append(in.Peaks, &Peak{
			Mz:         parentMz,
			OriginalMz: parentMz,
		})
	}
	parent := in.Peaks[len(in.Peaks)-1]
	if surveyed {
		parent.Mz = parentMz
		parent.OriginalMz = parentMz
	}

	// Near-parent satellites, heavier than one hydrogen below the
	// precursor, cannot be fragments; fold them into the parent the way
	// the merger combines duplicate measurements.
	threshold := parentMz + dev.AbsoluteFor(parentMz) - chem.MassH
	kept := in.Peaks[:0]
	for _, p := range in.Peaks {
		if p == parent || p.Mz <= threshold {
			kept = append(kept, p)
			continue
		}
		parent.Intensity += p.Intensity
		parent.GlobalIntensity += p.GlobalIntensity
		parent.RelativeIntensity += p.RelativeIntensity
		if p.LocalIntensity > parent.LocalIntensity {
			parent.LocalIntensity = p.LocalIntensity
		}
		parent.CollisionEnergies = append(parent.CollisionEnergies, p.CollisionEnergies...)
		parent.Origins = append(parent.Origins, p.Origins...)
	}
	in.Peaks = kept
	in.Parent = parent
}
