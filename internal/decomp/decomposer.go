// SPDX-License-Identifier: MIT

// Package decomp enumerates molecular formulas that explain a measured
// mass within a tolerance, subject to element-count constraints. It is the
// mass-decomposition service of the tree computation: deterministic for
// identical inputs and memoized per chemical alphabet.
package decomp

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mzkit/fragtree/internal/chem"
)

// Constraints bound the formula search: per-element maximum counts (the
// alphabet is the set of elements with a non-zero maximum) and a lower
// bound on the ring/double-bond equivalent.
type Constraints struct {
	max     [chem.NumElements]int16 // indexed by chem.Element
	MinRDBE float64
	hasMin  bool
}

// NewConstraints builds constraints from per-element maxima.
func NewConstraints(maxCounts map[chem.Element]int) Constraints {
	c := Constraints{MinRDBE: -0.5, hasMin: true}
	for e, n := range maxCounts {
		c.max[e] = int16(n)
	}
	return c
}

// DefaultConstraints covers CHNOPS with permissive bounds, the usual
// alphabet for small-molecule work.
func DefaultConstraints() Constraints {
	return NewConstraints(map[chem.Element]int{
		chem.C: 60, chem.H: 120, chem.N: 20, chem.O: 40, chem.P: 8, chem.S: 8,
	})
}

// Max returns the maximum allowed count for an element.
func (c Constraints) Max(e chem.Element) int { return int(c.max[e]) }

// WithMax returns a copy with the maximum for one element replaced.
func (c Constraints) WithMax(e chem.Element, n int) Constraints {
	c.max[e] = int16(n)
	return c
}

// RestrictToSubsetsOf tightens the constraints so that only submultisets
// of the given formula remain decomposable. Used when the molecular
// formula of the compound is known.
func (c Constraints) RestrictToSubsetsOf(f chem.Formula) Constraints {
	for e := range c.max {
		n := int16(f.NumberOf(chem.Element(e)))
		if c.max[e] > n {
			c.max[e] = n
		}
	}
	return c
}

// Satisfied reports whether a formula obeys the constraints.
func (c Constraints) Satisfied(f chem.Formula) bool {
	for e := range c.max {
		if int16(f.NumberOf(chem.Element(e))) > c.max[e] {
			return false
		}
	}
	return !c.hasMin || f.RDBE() >= c.MinRDBE
}

// Key returns a deterministic identifier of the alphabet and bounds, used
// as the memoization key of the decomposer cache.
func (c Constraints) Key() string {
	var sb strings.Builder
	for e := range c.max {
		if c.max[e] > 0 {
			sb.WriteString(chem.Element(e).Symbol())
			sb.WriteString(strconv.Itoa(int(c.max[e])))
		}
	}
	sb.WriteString("|")
	sb.WriteString(strconv.FormatFloat(c.MinRDBE, 'g', -1, 64))
	return sb.String()
}

// Decomposer enumerates formulas for one alphabet. Construct via
// Cache.Decomposer so that per-alphabet setup happens once.
type Decomposer struct {
	elements []chem.Element // descending mass, hydrogen last
}

func newDecomposer(c Constraints) *Decomposer {
	d := &Decomposer{}
	for e := range c.max {
		if c.max[e] > 0 {
			d.elements = append(d.elements, chem.Element(e))
		}
	}
	sort.Slice(d.elements, func(i, j int) bool {
		return d.elements[i].Mass() > d.elements[j].Mass()
	})
	return d
}

// Decompose returns all formulas over the alphabet whose mass lies within
// dev of mass, ordered deterministically (by descending-mass element
// counts). A non-positive mass yields no formulas.
func (d *Decomposer) Decompose(mass float64, dev chem.Deviation, c Constraints) []chem.Formula {
	if mass <= 0 || len(d.elements) == 0 {
		return nil
	}
	tol := dev.AbsoluteFor(mass)
	var out []chem.Formula
	var current chem.Formula
	d.search(mass, tol, c, 0, current, &out)
	return out
}

func (d *Decomposer) search(remaining, tol float64, c Constraints, level int, current chem.Formula, out *[]chem.Formula) {
	if level == len(d.elements)-1 {
		// last element: the count range is forced by the remaining mass
		e := d.elements[level]
		em := e.Mass()
		lo := int((remaining - tol) / em)
		if float64(lo)*em < remaining-tol {
			lo++
		}
		if lo < 0 {
			lo = 0
		}
		hi := int((remaining + tol) / em)
		if hi > c.Max(e) {
			hi = c.Max(e)
		}
		for k := lo; k <= hi; k++ {
			f := current.Add(chem.NewFormula(map[chem.Element]int{e: k}))
			if c.Satisfied(f) {
				*out = append(*out, f)
			}
		}
		return
	}
	e := d.elements[level]
	em := e.Mass()
	maxCount := int((remaining + tol) / em)
	if m := c.Max(e); maxCount > m {
		maxCount = m
	}
	one := chem.NewFormula(map[chem.Element]int{e: 1})
	f := current
	for k := 0; k <= maxCount; k++ {
		d.search(remaining-float64(k)*em, tol, c, level+1, f, out)
		f = f.Add(one)
	}
}
