// SPDX-License-Identifier: MIT

package ms

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadExperiment(t *testing.T) {
	src := `
>compound glucose
>parentmass 181.0707
>ionization [M+H]+
>formula C6H12O6

>collision 20
91.0390 30
151.0601 60
181.0707 100

>ms1
181.0707 1200
182.0740 80
`
	exp, err := ReadExperiment(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if exp.IonMass != 181.0707 {
		t.Errorf("IonMass %f, want 181.0707", exp.IonMass)
	}
	if exp.IonType.Ionization.Name != "[M+H]+" {
		t.Errorf("IonType %q", exp.IonType.Ionization.Name)
	}
	if !exp.HasFormula {
		t.Errorf("Expected the formula directive to be picked up")
	}
	if len(exp.MS2) != 1 || len(exp.MS1) != 1 {
		t.Fatalf("Expected 1 MS2 and 1 MS1 spectrum, got %d/%d", len(exp.MS2), len(exp.MS1))
	}
	if exp.MS2[0].CollisionEnergy != 20 {
		t.Errorf("Collision energy %f, want 20", exp.MS2[0].CollisionEnergy)
	}
	wantPeaks := []Peak{{Mz: 91.0390, Intensity: 30}, {Mz: 151.0601, Intensity: 60}, {Mz: 181.0707, Intensity: 100}}
	if diff := cmp.Diff(wantPeaks, exp.MS2[0].Peaks); diff != "" {
		t.Errorf("MS2 peaks mismatch (-want +got):\n%s", diff)
	}
	if err := exp.Validate(); err != nil {
		t.Errorf("Parsed experiment should validate: %v", err)
	}
}

func TestReadExperimentImplicitSpectrum(t *testing.T) {
	exp, err := ReadExperiment(strings.NewReader("100.0 1\n120.0 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(exp.MS2) != 1 || len(exp.MS2[0].Peaks) != 2 {
		t.Fatalf("Bare peak lines should open an MS2 spectrum, got %+v", exp)
	}
}

func TestReadExperimentErrors(t *testing.T) {
	cases := []string{
		">parentmass abc\n",
		">ionization [M+XX]+\n",
		">formula C6H12O6X\n",
		">nonsense 1\n",
		"100.0\n",
		"100.0 abc\n",
	}
	for _, src := range cases {
		if _, err := ReadExperiment(strings.NewReader(src)); err == nil {
			t.Errorf("Expected an error for %q", src)
		}
	}
}
