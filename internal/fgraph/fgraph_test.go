// SPDX-License-Identifier: MIT

package fgraph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/decomp"
	"github.com/mzkit/fragtree/internal/ms"
	"github.com/mzkit/fragtree/internal/pipeline"
	"github.com/mzkit/fragtree/internal/score"
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
	score.ScorePeaks(in, testConfig())
	return in
}

func testConfig() score.Config {
	return score.Config{
		PeakScorers:     []score.PeakScorer{score.PeakIsNoiseScorer{}},
		PairScorers:     []score.PeakPairScorer{score.DefaultLossSizeScorer()},
		FragmentScorers: []score.DecompositionScorer{score.MassDeviationScorer{}},
		RootScorers:     []score.DecompositionScorer{score.MassDeviationScorer{}},
		LossScorers:     []score.LossScorer{score.DefaultCommonLossEdgeScorer()},
	}
}

func TestBuildGraphStructure(t *testing.T) {
	in := preparedInput(t)
	candidates := in.ParentCandidates()
	require.NotEmpty(t, candidates)

	g := Build(in, candidates[:1])
	root := g.Root()
	assert.Equal(t, -1, root.Color)
	require.Len(t, root.Out, 1, "one root edge per parent candidate")

	for _, v := range g.Fragments[1:] {
		assert.Equal(t, v.Peak.Index, v.Color, "colour must be the peak index")
	}
	for _, e := range g.Losses {
		u, v := g.Fragments[e.Source], g.Fragments[e.Target]
		if u.ID == 0 {
			assert.True(t, e.Formula.IsEmpty())
			continue
		}
		assert.Less(t, v.Peak.Mz, u.Peak.Mz, "edges point from heavier to lighter peaks")
		assert.True(t, v.Formula.IsStrictSubsetOf(u.Formula))
		assert.Equal(t, u.Formula.Subtract(v.Formula), e.Formula)
	}
}

func TestBuildGraphMultiRoot(t *testing.T) {
	in := preparedInput(t)
	candidates := in.ParentCandidates()
	if len(candidates) < 2 {
		t.Skip("input yields a single parent candidate")
	}
	g := Build(in, candidates)
	assert.Len(t, g.Root().Out, len(candidates))
}

func TestScoreGraphWeights(t *testing.T) {
	in := preparedInput(t)
	candidates := in.ParentCandidates()
	g := Build(in, candidates[:1])
	cfg := testConfig()
	ScoreGraph(g, cfg)

	for _, e := range g.Losses {
		assert.False(t, math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0))
		u, v := g.Fragments[e.Source], g.Fragments[e.Target]
		if u.ID == 0 {
			assert.InDelta(t, v.CandidateScore, e.Weight, 1e-12, "root edges carry only the candidate score")
			continue
		}
		want := v.CandidateScore + in.PeakScores[v.Peak.Index] + in.PairScores[u.Peak.Index][v.Peak.Index]
		for _, s := range cfg.LossScorers {
			want += s.Score(e.Formula, in, s.Prepare(in))
		}
		assert.InDelta(t, want, e.Weight, 1e-9)
	}
}

func manualGraph() *Graph {
	parent := &pipeline.Peak{Mz: 120.0, Index: 2}
	mid := &pipeline.Peak{Mz: 80.0, Index: 1}
	low := &pipeline.Peak{Mz: 50.0, Index: 0}

	glucose, _ := chem.ParseFormula("C6H12O6")
	midF, _ := chem.ParseFormula("C4H8O2")
	lowF, _ := chem.ParseFormula("C2H4O")

	g := NewGraph(&pipeline.Input{})
	top := g.AddFragment(glucose, parent, 1.0)
	m := g.AddFragment(midF, mid, 0.5)
	l := g.AddFragment(lowF, low, 0.25)
	g.AddLoss(g.Root(), top).Weight = 1.0
	g.AddLoss(top, m).Weight = 2.0
	g.AddLoss(top, l).Weight = 0.5
	g.AddLoss(m, l).Weight = 1.5
	return g
}

func TestCompactRenumbers(t *testing.T) {
	g := manualGraph()
	before := g.NumFragments()
	require.Greater(t, before, 2)

	victim := g.Fragments[before-1]
	g.MarkFragmentDeleted(victim)
	g.Compact()

	assert.Equal(t, before-1, g.NumFragments())
	for i, v := range g.Fragments {
		assert.Equal(t, i, v.ID)
		for _, eid := range v.Out {
			assert.Equal(t, v.ID, g.Losses[eid].Source)
		}
		for _, eid := range v.In {
			assert.Equal(t, v.ID, g.Losses[eid].Target)
		}
	}
	for i, e := range g.Losses {
		assert.Equal(t, i, e.ID)
	}
}

func TestBoundReductionDropsUnreachable(t *testing.T) {
	in := preparedInput(t)
	g := Build(in, in.ParentCandidates()[:1])
	ScoreGraph(g, testConfig())

	// Detach a vertex from the root side, then reduce with a bound of -inf:
	// only unreachable vertices may disappear.
	reachableBefore := countReachable(g)
	BoundReduction{}.Reduce(g, math.Inf(-1))
	assert.Equal(t, reachableBefore, g.NumFragments())
	assert.Equal(t, countReachable(g), g.NumFragments())
}

func TestBoundReductionHighBoundEmptiesGraph(t *testing.T) {
	in := preparedInput(t)
	g := Build(in, in.ParentCandidates()[:1])
	ScoreGraph(g, testConfig())
	BoundReduction{}.Reduce(g, 1e9)
	assert.Equal(t, 1, g.NumFragments(), "only the pseudo-root survives an unreachable bound")
}

func TestBoundReductionKeepsOptimum(t *testing.T) {
	// Optimal tree: root -> C6H12O6 -> C4H8O2 -> C2H4O with score 4.5.
	g := manualGraph()
	BoundReduction{}.Reduce(g, 4.5)

	assert.Equal(t, 4, g.NumFragments(), "no vertex of the optimum may be pruned")
	assert.Equal(t, 3, g.NumLosses(), "only the dominated direct edge to the lightest peak goes")
	for _, e := range g.Losses {
		u, v := g.Fragments[e.Source], g.Fragments[e.Target]
		if u.Color == 2 && v.Color == 0 {
			t.Errorf("The dominated edge survived the reduction")
		}
	}
}

func countReachable(g *Graph) int {
	seen := make([]bool, len(g.Fragments))
	stack := []int{0}
	seen[0] = true
	count := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		for _, eid := range g.Fragments[id].Out {
			tgt := g.Losses[eid].Target
			if !seen[tgt] {
				seen[tgt] = true
				stack = append(stack, tgt)
			}
		}
	}
	return count
}
