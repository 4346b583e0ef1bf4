// SPDX-License-Identifier: MIT

// Package chem provides molecular formulas, mass deviations and ionization
// arithmetic for small-molecule MS/MS data.
package chem

// Monoisotopic masses of particles that are not part of the element table.
const (
	MassProton   = 1.007276466879
	MassElectron = 0.00054857990946
)

// Element indexes the fixed periodic table below.
type Element int8

const (
	H Element = iota
	C
	N
	O
	P
	S
	F
	Cl
	Br
	I
	Na
	K
	numElements
)

type elementData struct {
	symbol  string
	mass    float64 // monoisotopic
	valence int
}

var elements = [numElements]elementData{
	H:  {"H", 1.0078250321, 1},
	C:  {"C", 12.0000000000, 4},
	N:  {"N", 14.0030740052, 3},
	O:  {"O", 15.9949146221, 2},
	P:  {"P", 30.9737615100, 3},
	S:  {"S", 31.9720706900, 2},
	F:  {"F", 18.9984031630, 1},
	Cl: {"Cl", 34.9688527100, 1},
	Br: {"Br", 78.9183376000, 1},
	I:  {"I", 126.9044730000, 1},
	Na: {"Na", 22.9897692800, 1},
	K:  {"K", 38.9637066800, 1},
}

var symbolIndex = func() map[string]Element {
	m := make(map[string]Element, numElements)
	for e := Element(0); e < numElements; e++ {
		m[elements[e].symbol] = e
	}
	return m
}()

// ElementBySymbol returns the element with the given symbol.
func ElementBySymbol(symbol string) (Element, bool) {
	e, ok := symbolIndex[symbol]
	return e, ok
}

// NumElements is the size of the periodic table, for callers that index
// arrays by Element.
const NumElements = int(numElements)

func (e Element) Symbol() string { return elements[e].symbol }
func (e Element) Mass() float64  { return elements[e].mass }
func (e Element) Valence() int   { return elements[e].valence }

// MassH is the monoisotopic mass of hydrogen, used by the parent-peak
// threshold (the heaviest chemically possible fragment is M-H).
const MassH = 1.0078250321
