// SPDX-License-Identifier: MIT

// Package ms models the raw measurement handed to the tree computation:
// spectra, peaks and the experiment metadata around them.
package ms

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mzkit/fragtree/internal/chem"
)

// Peak is a measured (m/z, intensity) pair.
type Peak struct {
	Mz        float64
	Intensity float64
}

// Spectrum is an ordered peak list from one acquisition. MSLevel 1 marks
// survey scans, level 2 fragment scans. Spectra are immutable once
// ingested; pipeline stages work on copies.
type Spectrum struct {
	Peaks           []Peak
	CollisionEnergy float64
	MSLevel         int
}

// SortPeaks orders peaks by ascending m/z.
func (s *Spectrum) SortPeaks() {
	sort.Slice(s.Peaks, func(i, j int) bool { return s.Peaks[i].Mz < s.Peaks[j].Mz })
}

// MostIntensePeakWithin returns the index of the most intense peak whose
// m/z lies within dev of mass, or -1.
func (s *Spectrum) MostIntensePeakWithin(mass float64, dev chem.Deviation) int {
	best := -1
	for i, p := range s.Peaks {
		if dev.InWindow(mass, p.Mz) && (best < 0 || p.Intensity > s.Peaks[best].Intensity) {
			best = i
		}
	}
	return best
}

// Experiment is one MS/MS measurement: the precursor description, its
// fragment spectra and optional survey scans.
type Experiment struct {
	IonMass float64      // precursor m/z; 0 if unknown
	IonType chem.IonType // zero value if unknown
	MS1     []Spectrum
	MS2     []Spectrum

	// Formula is the known molecular formula, when available; it tightens
	// the decomposition constraints.
	Formula    chem.Formula
	HasFormula bool
}

// Clone returns a deep copy; validation works on copies so the caller's
// experiment stays untouched.
func (e *Experiment) Clone() *Experiment {
	cp := *e
	cp.MS1 = cloneSpectra(e.MS1)
	cp.MS2 = cloneSpectra(e.MS2)
	return &cp
}

func cloneSpectra(specs []Spectrum) []Spectrum {
	out := make([]Spectrum, len(specs))
	for i, s := range specs {
		out[i] = s
		out[i].Peaks = append([]Peak(nil), s.Peaks...)
	}
	return out
}

// ValidationError reports an input that cannot be processed. It aggregates
// everything wrong with the measurement into one message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input in %s: %s", e.Field, e.Message)
}

// Validate checks structural soundness of the raw measurement: at least
// one fragment spectrum with finite, positive peaks. Field-level repair
// (ion mass, ion type) is the pipeline's job; this only rejects input that
// no repair can fix.
func (e *Experiment) Validate() error {
	var errs []string
	if len(e.MS2) == 0 {
		errs = append(errs, "at least one MS2 spectrum is required")
	}
	checkPeaks := func(kind string, specs []Spectrum) int {
		total := 0
		for si, s := range specs {
			total += len(s.Peaks)
			for pi, p := range s.Peaks {
				if math.IsNaN(p.Mz) || math.IsInf(p.Mz, 0) || p.Mz <= 0 {
					errs = append(errs, fmt.Sprintf("%s spectrum %d peak %d has invalid m/z", kind, si, pi))
				}
				if math.IsNaN(p.Intensity) || math.IsInf(p.Intensity, 0) || p.Intensity < 0 {
					errs = append(errs, fmt.Sprintf("%s spectrum %d peak %d has invalid intensity", kind, si, pi))
				}
			}
		}
		return total
	}
	checkPeaks("MS1", e.MS1)
	if len(e.MS2) > 0 && checkPeaks("MS2", e.MS2) == 0 {
		errs = append(errs, "all MS2 spectra are empty")
	}
	if len(errs) > 0 {
		return &ValidationError{Field: "Experiment", Message: strings.Join(errs, "; ")}
	}
	return nil
}
