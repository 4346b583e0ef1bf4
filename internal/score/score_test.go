// SPDX-License-Identifier: MIT

package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/decomp"
	"github.com/mzkit/fragtree/internal/ms"
	"github.com/mzkit/fragtree/internal/pipeline"
)

func preparedInput(t *testing.T) *pipeline.Input {
	t.Helper()
	ion, err := chem.ParseIonType("[M+H]+")
	require.NoError(t, err)
	exp := &ms.Experiment{
		IonMass: 120.0,
		IonType: ion,
		MS2: []ms.Spectrum{{
			MSLevel:         2,
			CollisionEnergy: 20,
			Peaks: []ms.Peak{
				{Mz: 50.0, Intensity: 30},
				{Mz: 80.0, Intensity: 60},
				{Mz: 120.0, Intensity: 100},
			},
		}},
	}
	profile := pipeline.DefaultProfile()
	profile.AllowedMassDeviation = chem.Deviation{Abs: 0.01}
	in, err := pipeline.Validate(exp, profile, nil, true)
	require.NoError(t, err)
	pipeline.Normalize(in)
	pipeline.MergePeaks(in)
	pipeline.DetectParent(in)
	pipeline.Decompose(in, decomp.NewCache())
	return in
}

func TestScorePeaksAssignsIndicesAndZeroParentScore(t *testing.T) {
	in := preparedInput(t)
	cfg := Config{
		PeakScorers: []PeakScorer{PeakIsNoiseScorer{}, TreeSizeScorer{Bonus: 1}},
		PairScorers: []PeakPairScorer{DefaultLossSizeScorer()},
		FragmentScorers: []DecompositionScorer{
			MassDeviationScorer{},
		},
		RootScorers: []DecompositionScorer{
			MassDeviationScorer{},
			DefaultChemicalPriorScorer(),
		},
	}
	ScorePeaks(in, cfg)

	require.Len(t, in.PeakScores, len(in.Peaks))
	for i, p := range in.Peaks {
		assert.Equal(t, i, p.Index, "peak indices must match the final order")
		if i > 0 {
			assert.Less(t, in.Peaks[i-1].Mz, p.Mz)
		}
	}
	assert.Zero(t, in.PeakScores[len(in.Peaks)-1], "parent peak score must be zero")
	assert.Greater(t, in.PeakScores[0], 0.0, "fragment peaks collect noise and size bonuses")

	roots := in.ParentCandidates()
	require.NotEmpty(t, roots)
	for i := 1; i < len(roots); i++ {
		assert.GreaterOrEqual(t, roots[i-1].Score, roots[i].Score, "root candidates must be sorted best first")
	}
}

func TestMassDeviationScorerPrefersSmallerError(t *testing.T) {
	in := preparedInput(t)
	s := MassDeviationScorer{}
	f, err := chem.ParseFormula("C4H3OS")
	require.NoError(t, err)
	theo := in.Experiment.IonType.Ionization.AddToMass(f.Mass())
	near := &pipeline.Peak{Mz: theo + 0.001}
	far := &pipeline.Peak{Mz: theo + 0.008}
	assert.Greater(t, s.Score(f, near, in, nil), s.Score(f, far, in, nil))
}

func TestPeakIsNoiseScorerRewardsIntensePeaks(t *testing.T) {
	in := preparedInput(t)
	scores := make([]float64, len(in.Peaks))
	PeakIsNoiseScorer{}.ScorePeaks(in, scores)
	// Peaks are sorted by m/z: 50 (weak), 80 (strong), parent.
	assert.Greater(t, scores[1], scores[0])
	for _, v := range scores {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestLossSizeScorerFillsHeavierToLighterOnly(t *testing.T) {
	in := preparedInput(t)
	n := len(in.Peaks)
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, n)
	}
	DefaultLossSizeScorer().ScorePairs(in, scores)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if in.Peaks[i].Mz <= in.Peaks[j].Mz {
				assert.Zero(t, scores[i][j])
			}
		}
	}
	assert.NotZero(t, scores[n-1][0])
}

func TestCollisionEnergyEdgeScorer(t *testing.T) {
	s := DefaultCollisionEnergyEdgeScorer()
	assert.True(t, compatibleEnergies([]float64{10, 20}, []float64{20, 40}))
	assert.False(t, compatibleEnergies([]float64{20}, []float64{10}))
	assert.Less(t, s.InconsistentScore, s.ConsistentScore)
}

func TestCommonLossEdgeScorer(t *testing.T) {
	s := DefaultCommonLossEdgeScorer()
	water, _ := chem.ParseFormula("H2O")
	odd, _ := chem.ParseFormula("C7H3S")
	assert.Greater(t, s.Score(water, nil, nil), 0.0)
	assert.Zero(t, s.Score(odd, nil, nil))
	artefact, _ := chem.ParseFormula("C3H2")
	assert.Less(t, s.Score(artefact, nil, nil), 0.0)
}

func TestFreeRadicalEdgeScorer(t *testing.T) {
	s := DefaultFreeRadicalEdgeScorer()
	h, _ := chem.ParseFormula("H")
	weird, _ := chem.ParseFormula("CH2N")
	water, _ := chem.ParseFormula("H2O")
	require.True(t, h.IsRadical())
	require.True(t, weird.IsRadical())
	assert.Greater(t, s.Score(h, nil, nil), s.Score(weird, nil, nil))
	assert.Zero(t, s.Score(water, nil, nil))
}

func TestDBEAndPureCarbonScorers(t *testing.T) {
	dbe := DefaultDBELossScorer()
	pure := DefaultPureCarbonNitrogenLossScorer()
	c2, _ := chem.ParseFormula("C2")
	n2, _ := chem.ParseFormula("N2")
	water, _ := chem.ParseFormula("H2O")
	assert.Less(t, pure.Score(c2, nil, nil), 0.0)
	assert.Less(t, pure.Score(n2, nil, nil), 0.0)
	assert.Zero(t, pure.Score(water, nil, nil))
	assert.Zero(t, dbe.Score(water, nil, nil))
}

func TestChemicalPriorScorer(t *testing.T) {
	s := DefaultChemicalPriorScorer()
	benign, _ := chem.ParseFormula("C9H11NO2") // phenylalanine-like ratio
	extreme, _ := chem.ParseFormula("CH4N2O6P2S2")
	assert.Zero(t, s.Score(benign, nil, nil, nil))
	assert.Less(t, s.Score(extreme, nil, nil, nil), 0.0)
	assert.GreaterOrEqual(t, s.Score(extreme, nil, nil, nil), s.Floor)

	small, _ := chem.ParseFormula("NO3")
	assert.Zero(t, s.Score(small, nil, nil, nil), "formulas below the minimal mass are exempt")
}

func TestMustBeFinitePanics(t *testing.T) {
	assert.Panics(t, func() { MustBeFinite(math.NaN(), TreeSizeScorer{}) })
	assert.NotPanics(t, func() { MustBeFinite(-3.5, TreeSizeScorer{}) })
}
