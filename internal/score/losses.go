// SPDX-License-Identifier: MIT

package score

import (
	"math"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/pipeline"
)

// CommonLossEdgeScorer rewards neutral losses that are chemically common
// and penalizes a small set of implausible ones. Scores are log-domain
// bonuses keyed by exact loss formula; unknown losses are neutral.
type CommonLossEdgeScorer struct {
	Losses map[chem.Formula]float64
}

// DefaultCommonLossEdgeScorer carries the expert list of frequent
// fragmentation losses plus known artefact losses.
func DefaultCommonLossEdgeScorer() CommonLossEdgeScorer {
	strong := math.Log(4)
	moderate := math.Log(2)
	weak := math.Log(1.5)
	implausible := math.Log(0.25)
	losses := map[string]float64{
		"H2O":    strong,
		"CO":     strong,
		"CO2":    strong,
		"NH3":    strong,
		"CH2O":   strong,
		"CH4":    moderate,
		"C2H2":   moderate,
		"C2H4":   moderate,
		"HCN":    moderate,
		"H2S":    moderate,
		"CH4O":   moderate,
		"C2H4O2": moderate,
		"H2":     weak,
		"C3H6":   weak,
		"SO2":    weak,
		"C2H2O":  weak,
		"CHNO":   weak,
		// artefact losses that almost never happen in one step
		"C2O":  implausible,
		"C4O":  implausible,
		"C3H2": implausible,
		"C5H2": implausible,
	}
	m := make(map[chem.Formula]float64, len(losses))
	for s, v := range losses {
		f, err := chem.ParseFormula(s)
		if err != nil {
			panic(err)
		}
		m[f] = v
	}
	return CommonLossEdgeScorer{Losses: m}
}

func (CommonLossEdgeScorer) Prepare(*pipeline.Input) any { return nil }

func (s CommonLossEdgeScorer) Score(loss chem.Formula, _ *pipeline.Input, _ any) float64 {
	return s.Losses[loss]
}

// FreeRadicalEdgeScorer handles homolytic cleavages. A few radical losses
// are well known and only mildly penalized; any other radical loss is
// strongly suppressed. Non-radical losses are not touched.
type FreeRadicalEdgeScorer struct {
	Known          map[chem.Formula]float64
	GenericPenalty float64
}

func DefaultFreeRadicalEdgeScorer() FreeRadicalEdgeScorer {
	known := math.Log(0.9)
	names := []string{"H", "OH", "CH3", "CH3O", "NO", "NO2", "Cl", "Br", "I"}
	m := make(map[chem.Formula]float64, len(names))
	for _, s := range names {
		f, err := chem.ParseFormula(s)
		if err != nil {
			panic(err)
		}
		m[f] = known
	}
	return FreeRadicalEdgeScorer{Known: m, GenericPenalty: math.Log(0.01)}
}

func (FreeRadicalEdgeScorer) Prepare(*pipeline.Input) any { return nil }

func (s FreeRadicalEdgeScorer) Score(loss chem.Formula, _ *pipeline.Input, _ any) float64 {
	if !loss.IsRadical() {
		return 0
	}
	if v, ok := s.Known[loss]; ok {
		return v
	}
	return s.GenericPenalty
}

// DBELossScorer penalizes losses with a negative ring/double-bond
// equivalent, which cannot exist as neutral molecules.
type DBELossScorer struct {
	Penalty float64 // default log 0.25
}

func DefaultDBELossScorer() DBELossScorer { return DBELossScorer{Penalty: math.Log(0.25)} }

func (DBELossScorer) Prepare(*pipeline.Input) any { return nil }

func (s DBELossScorer) Score(loss chem.Formula, _ *pipeline.Input, _ any) float64 {
	if loss.RDBE() < 0 {
		return s.Penalty
	}
	return 0
}

// PureCarbonNitrogenLossScorer penalizes losses consisting solely of
// carbon or solely of nitrogen; bare Cn and Nn fragments do not detach
// in collision-induced dissociation.
type PureCarbonNitrogenLossScorer struct {
	Penalty float64 // default log 0.01
}

func DefaultPureCarbonNitrogenLossScorer() PureCarbonNitrogenLossScorer {
	return PureCarbonNitrogenLossScorer{Penalty: math.Log(0.01)}
}

func (PureCarbonNitrogenLossScorer) Prepare(*pipeline.Input) any { return nil }

func (s PureCarbonNitrogenLossScorer) Score(loss chem.Formula, _ *pipeline.Input, _ any) float64 {
	if loss.IsEmpty() {
		return 0
	}
	if loss.NumberOf(chem.C) == loss.NumAtoms() || loss.NumberOf(chem.N) == loss.NumAtoms() {
		return s.Penalty
	}
	return 0
}
