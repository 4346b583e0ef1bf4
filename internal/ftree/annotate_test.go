// SPDX-License-Identifier: MIT

package ftree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzkit/fragtree/internal/pipeline"
)

func TestAnnotateIntensityFractions(t *testing.T) {
	g := diamondGraph(t)
	// Restrict to two colours so only the middle peak gets explained.
	tree := DPBuilder{MaxColors: 2}.BuildTree(g, math.Inf(-1))
	require.NotNil(t, tree)

	parent := &pipeline.Peak{Mz: 120.0, Index: 2, RelativeIntensity: 1.0}
	mid := &pipeline.Peak{Mz: 80.0, Index: 1, RelativeIntensity: 0.6}
	low := &pipeline.Peak{Mz: 50.0, Index: 0, RelativeIntensity: 0.4}
	in := &pipeline.Input{
		Peaks:  []*pipeline.Peak{low, mid, parent},
		Parent: parent,
		Decompositions: map[*pipeline.Peak][]pipeline.Decomposition{
			mid: {{Formula: mustFormula(t, "C4H8O2")}},
			low: {{Formula: mustFormula(t, "C2H4O")}},
		},
	}
	Annotate(tree, in)

	assert.InDelta(t, 0.6, tree.Scoring.ExplainedIntensity, 1e-12)
	// Both fragment peaks are explainable, so the explainable ratio is the
	// explained 0.6 over the full fragment intensity 1.0.
	assert.InDelta(t, 0.6, tree.Scoring.ExplainableIntensity, 1e-12)
}

func TestAnnotateExplainableRatioExcludesForeignPeaks(t *testing.T) {
	g := diamondGraph(t)
	tree := DPBuilder{MaxColors: 2}.BuildTree(g, math.Inf(-1))
	require.NotNil(t, tree)

	parent := &pipeline.Peak{Mz: 120.0, Index: 2, RelativeIntensity: 1.0}
	mid := &pipeline.Peak{Mz: 80.0, Index: 1, RelativeIntensity: 0.6}
	low := &pipeline.Peak{Mz: 50.0, Index: 0, RelativeIntensity: 0.4}
	in := &pipeline.Input{
		Peaks:  []*pipeline.Peak{low, mid, parent},
		Parent: parent,
		Decompositions: map[*pipeline.Peak][]pipeline.Decomposition{
			mid: {{Formula: mustFormula(t, "C4H8O2")}},
			// Not a submultiset of the root formula: the low peak cannot
			// be explained by any loss from the precursor.
			low: {{Formula: mustFormula(t, "C2H4S")}},
		},
	}
	Annotate(tree, in)

	assert.InDelta(t, 0.6, tree.Scoring.ExplainedIntensity, 1e-12)
	assert.InDelta(t, 1.0, tree.Scoring.ExplainableIntensity, 1e-12, "the tree explains all explainable intensity")
}
