// SPDX-License-Identifier: MIT

package chem

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Formula is a molecular formula over the fixed element table. The zero
// value is the empty formula. Formula is a comparable value type and can be
// used as a map key.
type Formula struct {
	counts [numElements]int16
}

// NewFormula builds a formula from element/count pairs.
func NewFormula(pairs map[Element]int) Formula {
	var f Formula
	for e, n := range pairs {
		f.counts[e] = int16(n)
	}
	return f
}

// ParseFormula parses a formula in conventional notation, e.g. "C6H12O6".
func ParseFormula(s string) (Formula, error) {
	var f Formula
	i := 0
	for i < len(s) {
		if s[i] < 'A' || s[i] > 'Z' {
			return Formula{}, fmt.Errorf("parse formula %q: unexpected character %q", s, s[i])
		}
		j := i + 1
		for j < len(s) && s[j] >= 'a' && s[j] <= 'z' {
			j++
		}
		el, ok := ElementBySymbol(s[i:j])
		if !ok {
			return Formula{}, fmt.Errorf("parse formula %q: unknown element %q", s, s[i:j])
		}
		i = j
		n := 1
		if i < len(s) && s[i] >= '0' && s[i] <= '9' {
			k := i
			for k < len(s) && s[k] >= '0' && s[k] <= '9' {
				k++
			}
			var err error
			n, err = strconv.Atoi(s[i:k])
			if err != nil {
				return Formula{}, fmt.Errorf("parse formula %q: %w", s, err)
			}
			i = k
		}
		f.counts[el] += int16(n)
	}
	return f, nil
}

// NumberOf returns the count of the given element.
func (f Formula) NumberOf(e Element) int { return int(f.counts[e]) }

// NumAtoms returns the total atom count.
func (f Formula) NumAtoms() int {
	n := 0
	for _, c := range f.counts {
		n += int(c)
	}
	return n
}

// IsEmpty reports whether the formula contains no atoms.
func (f Formula) IsEmpty() bool { return f == Formula{} }

// Mass returns the monoisotopic mass.
func (f Formula) Mass() float64 {
	m := 0.0
	for e, c := range f.counts {
		if c != 0 {
			m += float64(c) * elements[e].mass
		}
	}
	return m
}

// Add returns the element-wise sum of f and g.
func (f Formula) Add(g Formula) Formula {
	for e := range f.counts {
		f.counts[e] += g.counts[e]
	}
	return f
}

// Subtract returns f-g. The result may have negative counts; see Contains.
func (f Formula) Subtract(g Formula) Formula {
	for e := range f.counts {
		f.counts[e] -= g.counts[e]
	}
	return f
}

// Contains reports whether g is a submultiset of f, i.e. f-g is
// non-negative in every element.
func (f Formula) Contains(g Formula) bool {
	for e := range f.counts {
		if g.counts[e] > f.counts[e] {
			return false
		}
	}
	return true
}

// IsStrictSubsetOf reports whether f is contained in g and differs from it.
func (f Formula) IsStrictSubsetOf(g Formula) bool {
	return f != g && g.Contains(f)
}

// RDBE returns the ring/double-bond equivalent, 1 + sum(n_e*(v_e-2))/2.
// Non-integral values indicate an odd-electron (radical) species.
func (f Formula) RDBE() float64 {
	s := 0
	for e, c := range f.counts {
		s += int(c) * (elements[e].valence - 2)
	}
	return 1 + float64(s)/2
}

// IsRadical reports whether the formula is an odd-electron species.
func (f Formula) IsRadical() bool {
	s := 0
	for e, c := range f.counts {
		s += int(c) * elements[e].valence
	}
	return s%2 != 0
}

// Hetero2Carbon returns the hetero-atom to carbon ratio (atoms that are
// neither C nor H, divided by C). Returns the hetero count if no carbon is
// present.
func (f Formula) Hetero2Carbon() float64 {
	hetero := 0
	for e, c := range f.counts {
		if Element(e) != C && Element(e) != H {
			hetero += int(c)
		}
	}
	carbon := f.NumberOf(C)
	if carbon == 0 {
		return float64(hetero)
	}
	return float64(hetero) / float64(carbon)
}

// String formats the formula in Hill order: C, H, then remaining elements
// alphabetically.
func (f Formula) String() string {
	if f.IsEmpty() {
		return ""
	}
	var sb strings.Builder
	appendEl := func(e Element) {
		if c := f.counts[e]; c != 0 {
			sb.WriteString(elements[e].symbol)
			if c != 1 {
				sb.WriteString(strconv.Itoa(int(c)))
			}
		}
	}
	appendEl(C)
	appendEl(H)
	rest := make([]Element, 0, numElements)
	for e := Element(0); e < numElements; e++ {
		if e != C && e != H && f.counts[e] != 0 {
			rest = append(rest, e)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		return elements[rest[i]].symbol < elements[rest[j]].symbol
	})
	for _, e := range rest {
		appendEl(e)
	}
	return sb.String()
}
