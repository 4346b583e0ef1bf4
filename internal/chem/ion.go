// SPDX-License-Identifier: MIT

package chem

import "fmt"

// Ionization maps between neutral masses and measured m/z for singly
// charged ions. MassShift is added to the neutral mass to obtain the ion
// mass (proton and adduct masses minus the electron bookkeeping).
type Ionization struct {
	Name      string
	Charge    int
	MassShift float64
}

// AddToMass converts a neutral mass to the ion m/z.
func (i Ionization) AddToMass(neutral float64) float64 {
	return neutral + i.MassShift
}

// SubtractFromMass converts a measured m/z back to the neutral mass.
func (i Ionization) SubtractFromMass(mz float64) float64 {
	return mz - i.MassShift
}

// IonType is the precursor ion type: an ionization plus an optional adduct
// formula. The adduct is part of the precursor but may be lost during
// fragmentation, so parent candidates get it re-added after decomposition.
type IonType struct {
	Ionization Ionization
	Adduct     Formula
}

// SubtractIonAndAdduct removes both the ionization shift and the adduct
// mass from a measured m/z, yielding the neutral mass to decompose.
func (t IonType) SubtractIonAndAdduct(mz float64) float64 {
	return t.Ionization.SubtractFromMass(mz) - t.Adduct.Mass()
}

var ionTypes = func() map[string]IonType {
	ammonia := NewFormula(map[Element]int{N: 1, H: 3})
	m := map[string]IonType{
		"[M+H]+":  {Ionization: Ionization{Name: "[M+H]+", Charge: 1, MassShift: MassProton}},
		"[M-H]-":  {Ionization: Ionization{Name: "[M-H]-", Charge: -1, MassShift: -MassProton}},
		"[M]+":    {Ionization: Ionization{Name: "[M]+", Charge: 1, MassShift: -MassElectron}},
		"[M]-":    {Ionization: Ionization{Name: "[M]-", Charge: -1, MassShift: MassElectron}},
		"[M+Na]+": {Ionization: Ionization{Name: "[M+Na]+", Charge: 1, MassShift: Na.Mass() - MassElectron}},
		"[M+K]+":  {Ionization: Ionization{Name: "[M+K]+", Charge: 1, MassShift: K.Mass() - MassElectron}},
		"[M+Cl]-": {Ionization: Ionization{Name: "[M+Cl]-", Charge: -1, MassShift: Cl.Mass() + MassElectron}},
		// protonation of the M+NH3 adduct species; the ionization part is
		// the bare proton so that fragment masses de-ionize correctly even
		// when the adduct was lost during fragmentation
		"[M+NH4]+": {
			Ionization: Ionization{Name: "[M+NH4]+", Charge: 1, MassShift: MassProton},
			Adduct:     ammonia,
		},
	}
	return m
}()

// ParseIonType resolves an ion type by its conventional name.
func ParseIonType(name string) (IonType, error) {
	t, ok := ionTypes[name]
	if !ok {
		return IonType{}, fmt.Errorf("unknown ion type %q", name)
	}
	return t, nil
}

// ProtonationFor returns the plain protonation/deprotonation ion type for
// the given charge sign, used when the input does not state an ion type.
func ProtonationFor(charge int) IonType {
	if charge < 0 {
		return ionTypes["[M-H]-"]
	}
	return ionTypes["[M+H]+"]
}
