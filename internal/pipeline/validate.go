// SPDX-License-Identifier: MIT

package pipeline

import (
	"fmt"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/ms"
)

// Validator inspects one experiment field and repairs or rejects it.
// Validators run on a private copy of the experiment, so repairs never
// touch caller data.
type Validator interface {
	Validate(exp *ms.Experiment, warn func(string), repair bool) error
}

// MissingValueValidator fills in a missing precursor m/z or ion type.
// The ion mass is recovered from the survey scan when one exists,
// otherwise from the heaviest fragment peak; a missing ion type defaults
// to protonation matching the charge. Without repair permission a missing
// field is an error.
type MissingValueValidator struct{}

func (MissingValueValidator) Validate(exp *ms.Experiment, warn func(string), repair bool) error {
	if exp.IonType.Ionization.Name == "" {
		if !repair {
			return &ms.ValidationError{Field: "IonType", Message: "ion type is unknown"}
		}
		exp.IonType = chem.ProtonationFor(1)
		warn(fmt.Sprintf("ion type is unknown, assuming %s", exp.IonType.Ionization.Name))
	}
	if exp.IonMass <= 0 {
		if !repair {
			return &ms.ValidationError{Field: "IonMass", Message: "precursor m/z is missing"}
		}
		mz, src := guessIonMass(exp)
		if mz <= 0 {
			return &ms.ValidationError{Field: "IonMass", Message: "precursor m/z is missing and cannot be recovered"}
		}
		exp.IonMass = mz
		warn(fmt.Sprintf("precursor m/z is missing, using %.5f from %s", mz, src))
	}
	return nil
}

func guessIonMass(exp *ms.Experiment) (float64, string) {
	// Known formula pins the precursor exactly.
	if exp.HasFormula {
		neutral := exp.Formula.Add(exp.IonType.Adduct)
		return exp.IonType.Ionization.AddToMass(neutral.Mass()), "the molecular formula"
	}
	// Otherwise the most intense survey peak, then the heaviest fragment.
	best := 0.0
	bestIntensity := -1.0
	for _, s := range exp.MS1 {
		for _, p := range s.Peaks {
			if p.Intensity > bestIntensity {
				best, bestIntensity = p.Mz, p.Intensity
			}
		}
	}
	if best > 0 {
		return best, "the survey scan"
	}
	for _, s := range exp.MS2 {
		for _, p := range s.Peaks {
			if p.Mz > best {
				best = p.Mz
			}
		}
	}
	return best, "the heaviest fragment peak"
}

// Validate runs the structural check and the field validators on a copy
// of the experiment and returns the pipeline state for it. When the
// compound formula is known, the decomposition constraints are tightened
// to its submultisets.
func Validate(exp *ms.Experiment, profile Profile, validators []Validator, repair bool) (*Input, error) {
	cp := exp.Clone()
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	in := &Input{
		Experiment:     cp,
		Profile:        profile,
		Decompositions: make(map[*Peak][]Decomposition),
	}
	for _, v := range validators {
		if err := v.Validate(cp, in.Warn, repair); err != nil {
			return nil, err
		}
	}
	if cp.HasFormula {
		bounded := cp.Formula.Add(cp.IonType.Adduct)
		in.Profile.Constraints = in.Profile.Constraints.RestrictToSubsetsOf(bounded)
	}
	return in, nil
}
