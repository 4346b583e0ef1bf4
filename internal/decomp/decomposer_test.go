// SPDX-License-Identifier: MIT

package decomp

import (
	"math"
	"sync"
	"testing"

	"github.com/mzkit/fragtree/internal/chem"
)

func TestDecomposeGlucose(t *testing.T) {
	constraints := DefaultConstraints()
	cache := NewCache()
	d := cache.Decomposer(constraints)

	glucose, _ := chem.ParseFormula("C6H12O6")
	dev := chem.Deviation{Ppm: 5, Abs: 0.0001}
	formulas := d.Decompose(glucose.Mass(), dev, constraints)
	if len(formulas) == 0 {
		t.Fatalf("Expected decompositions for glucose mass, got none")
	}
	found := false
	for _, f := range formulas {
		if f == glucose {
			found = true
		}
		if math.Abs(f.Mass()-glucose.Mass()) > dev.AbsoluteFor(glucose.Mass()) {
			t.Errorf("Formula %v outside tolerance: mass %f", f, f.Mass())
		}
	}
	if !found {
		t.Errorf("Expected C6H12O6 among decompositions")
	}
}

func TestConstraintsCoverFullElementTable(t *testing.T) {
	constraints := DefaultConstraints()
	glucose, _ := chem.ParseFormula("C6H12O6")
	if !constraints.Satisfied(glucose) {
		t.Errorf("C6H12O6 must satisfy the default constraints")
	}
	// Every element of the table can be queried and bounded, including
	// those beyond the default CHNOPS alphabet.
	for e := chem.Element(0); int(e) < chem.NumElements; e++ {
		c := constraints.WithMax(e, 3)
		if c.Max(e) != 3 {
			t.Errorf("Max(%s) = %d after WithMax, want 3", e.Symbol(), c.Max(e))
		}
		if !c.RestrictToSubsetsOf(glucose).Satisfied(chem.Formula{}) {
			t.Errorf("Empty formula must satisfy restricted constraints for %s", e.Symbol())
		}
	}
}

func TestDecomposeRespectsConstraints(t *testing.T) {
	constraints := NewConstraints(map[chem.Element]int{chem.C: 2, chem.H: 6, chem.O: 1})
	d := newDecomposer(constraints)

	ethanol, _ := chem.ParseFormula("C2H6O")
	formulas := d.Decompose(ethanol.Mass(), chem.Deviation{Ppm: 10, Abs: 0.001}, constraints)
	if len(formulas) != 1 || formulas[0] != ethanol {
		t.Errorf("Expected exactly [C2H6O], got %v", formulas)
	}

	// Tighten the alphabet so the only explanation disappears
	tight := constraints.WithMax(chem.O, 0)
	formulas = newDecomposer(tight).Decompose(ethanol.Mass(), chem.Deviation{Ppm: 10, Abs: 0.001}, tight)
	if len(formulas) != 0 {
		t.Errorf("Expected no decompositions without oxygen, got %v", formulas)
	}
}

func TestDecomposeEmptyResultIsNotAnError(t *testing.T) {
	constraints := DefaultConstraints()
	d := newDecomposer(constraints)
	if got := d.Decompose(-5.0, chem.Deviation{Ppm: 10}, constraints); got != nil {
		t.Errorf("Expected nil for non-positive mass, got %v", got)
	}
	// A mass that sits between any two CH combinations at tiny tolerance
	if got := d.Decompose(12.5, chem.Deviation{Abs: 1e-9}, constraints); len(got) != 0 {
		t.Errorf("Expected no decompositions, got %v", got)
	}
}

func TestDecomposeDeterministic(t *testing.T) {
	constraints := DefaultConstraints()
	d := newDecomposer(constraints)
	dev := chem.Deviation{Ppm: 20, Abs: 0.002}
	a := d.Decompose(120.0, dev, constraints)
	b := d.Decompose(120.0, dev, constraints)
	if len(a) != len(b) {
		t.Fatalf("Non-deterministic result count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Non-deterministic order at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRestrictToSubsets(t *testing.T) {
	constraints := DefaultConstraints()
	caffeine, _ := chem.ParseFormula("C8H10N4O2")
	restricted := constraints.RestrictToSubsetsOf(caffeine)
	d := newDecomposer(restricted)
	for _, f := range d.Decompose(caffeine.Mass(), chem.Deviation{Ppm: 10, Abs: 0.002}, restricted) {
		if !caffeine.Contains(f) {
			t.Errorf("Formula %v is not a submultiset of caffeine", f)
		}
	}
}

func TestCacheComputeOnce(t *testing.T) {
	cache := NewCache()
	constraints := DefaultConstraints()
	first := cache.Decomposer(constraints)

	var wg sync.WaitGroup
	results := make([]*Decomposer, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Decomposer(constraints)
		}(i)
	}
	wg.Wait()
	for i, d := range results {
		if d != first {
			t.Errorf("Lookup %d returned a different decomposer instance", i)
		}
	}
	if cache.Len() != 1 {
		t.Errorf("Expected one cached alphabet, got %d", cache.Len())
	}
}
