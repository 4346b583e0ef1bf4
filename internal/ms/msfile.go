// SPDX-License-Identifier: MIT

package ms

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mzkit/fragtree/internal/chem"
)

// ReadExperiment parses the plain peak-list format:
//
//	>compound caffeine
//	>parentmass 195.0877
//	>ionization [M+H]+
//	>formula C8H10N4O2
//	>collision 20
//	138.0662 100.0
//	...
//	>ms1
//	195.0877 1200.0
//
// Directives start with '>'; ">collision E" and ">ms2" open a fragment
// spectrum, ">ms1" a survey spectrum. Peak lines are "mz intensity"
// pairs attached to the open spectrum.
func ReadExperiment(r io.Reader) (*Experiment, error) {
	exp := &Experiment{}
	var current *Spectrum
	lineNo := 0

	flush := func() {
		if current == nil || len(current.Peaks) == 0 {
			current = nil
			return
		}
		if current.MSLevel == 1 {
			exp.MS1 = append(exp.MS1, *current)
		} else {
			exp.MS2 = append(exp.MS2, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, ">") {
			directive, arg, _ := strings.Cut(line[1:], " ")
			arg = strings.TrimSpace(arg)
			switch strings.ToLower(directive) {
			case "compound":
				// informational only
			case "parentmass":
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad parentmass %q", lineNo, arg)
				}
				exp.IonMass = v
			case "ionization", "ion":
				ion, err := chem.ParseIonType(arg)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				exp.IonType = ion
			case "formula":
				f, err := chem.ParseFormula(arg)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				exp.Formula = f
				exp.HasFormula = true
			case "collision", "ms2":
				flush()
				energy := 0.0
				if arg != "" {
					v, err := strconv.ParseFloat(arg, 64)
					if err != nil {
						return nil, fmt.Errorf("line %d: bad collision energy %q", lineNo, arg)
					}
					energy = v
				}
				current = &Spectrum{MSLevel: 2, CollisionEnergy: energy}
			case "ms1":
				flush()
				current = &Spectrum{MSLevel: 1}
			default:
				return nil, fmt.Errorf("line %d: unknown directive >%s", lineNo, directive)
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"mz intensity\", got %q", lineNo, line)
		}
		mz, err1 := strconv.ParseFloat(fields[0], 64)
		intensity, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("line %d: bad peak %q", lineNo, line)
		}
		if current == nil {
			current = &Spectrum{MSLevel: 2}
		}
		current.Peaks = append(current.Peaks, Peak{Mz: mz, Intensity: intensity})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return exp, nil
}

// ReadExperimentFile reads a peak-list file from disk.
func ReadExperimentFile(path string) (*Experiment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	exp, err := ReadExperiment(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return exp, nil
}
