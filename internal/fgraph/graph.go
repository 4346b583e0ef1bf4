// SPDX-License-Identifier: MIT

// Package fgraph builds and reduces the candidate graph of a measurement:
// a DAG whose vertices are (peak, formula) pairs coloured by peak index
// and whose edges are chemically possible fragmentation steps. The graph
// is arena-allocated; vertices and edges carry stable integer ids and are
// deleted in two phases, mark then compact, so traversals never race a
// structural mutation.
package fgraph

import (
	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/pipeline"
)

// Fragment is a graph vertex: one candidate formula explaining one peak.
// The pseudo-root (id 0) has no peak and the colour -1.
type Fragment struct {
	ID      int
	Formula chem.Formula
	Peak    *pipeline.Peak
	Color   int

	// CandidateScore is the decomposition score of the formula at its
	// peak, incorporated into incoming edge weights during graph scoring.
	CandidateScore float64

	In  []int // incoming loss ids
	Out []int // outgoing loss ids

	deleted bool
}

// Loss is a directed edge: the source fragment loses a neutral part and
// becomes the target fragment.
type Loss struct {
	ID      int
	Source  int
	Target  int
	Formula chem.Formula
	Weight  float64

	deleted bool
}

// Graph is the scored candidate graph of one pipeline run.
type Graph struct {
	Input     *pipeline.Input
	Fragments []*Fragment
	Losses    []*Loss
}

// NewGraph returns a graph holding only the pseudo-root.
func NewGraph(in *pipeline.Input) *Graph {
	g := &Graph{Input: in}
	g.Fragments = append(g.Fragments, &Fragment{ID: 0, Color: -1})
	return g
}

// Root returns the pseudo-root vertex.
func (g *Graph) Root() *Fragment { return g.Fragments[0] }

// AddFragment appends a vertex for a candidate formula at a peak.
func (g *Graph) AddFragment(f chem.Formula, p *pipeline.Peak, candidateScore float64) *Fragment {
	v := &Fragment{
		ID:             len(g.Fragments),
		Formula:        f,
		Peak:           p,
		Color:          p.Index,
		CandidateScore: candidateScore,
	}
	g.Fragments = append(g.Fragments, v)
	return v
}

// AddLoss connects two vertices. The loss formula is the difference of
// the endpoint formulas; edges from the pseudo-root carry an empty one.
func (g *Graph) AddLoss(source, target *Fragment) *Loss {
	e := &Loss{
		ID:     len(g.Losses),
		Source: source.ID,
		Target: target.ID,
	}
	if source.ID != 0 {
		e.Formula = source.Formula.Subtract(target.Formula)
	}
	g.Losses = append(g.Losses, e)
	source.Out = append(source.Out, e.ID)
	target.In = append(target.In, e.ID)
	return e
}

// MarkFragmentDeleted marks a vertex and all its incident edges for
// removal in the next Compact.
func (g *Graph) MarkFragmentDeleted(v *Fragment) {
	v.deleted = true
	for _, id := range v.In {
		g.Losses[id].deleted = true
	}
	for _, id := range v.Out {
		g.Losses[id].deleted = true
	}
}

// MarkLossDeleted marks an edge for removal.
func (g *Graph) MarkLossDeleted(e *Loss) { e.deleted = true }

// Compact removes everything marked deleted and renumbers the surviving
// ids. Pointers into the old arena become invalid.
func (g *Graph) Compact() {
	fragID := make([]int, len(g.Fragments))
	kept := g.Fragments[:0]
	for _, v := range g.Fragments {
		if v.deleted {
			fragID[v.ID] = -1
			continue
		}
		fragID[v.ID] = len(kept)
		kept = append(kept, v)
	}
	g.Fragments = kept

	lossID := make([]int, len(g.Losses))
	keptLosses := g.Losses[:0]
	for _, e := range g.Losses {
		if e.deleted || fragID[e.Source] < 0 || fragID[e.Target] < 0 {
			lossID[e.ID] = -1
			continue
		}
		lossID[e.ID] = len(keptLosses)
		keptLosses = append(keptLosses, e)
	}
	g.Losses = keptLosses

	for _, v := range g.Fragments {
		v.ID = fragID[v.ID]
		v.In = remapIDs(v.In, lossID)
		v.Out = remapIDs(v.Out, lossID)
	}
	for _, e := range g.Losses {
		e.ID = lossID[e.ID]
		e.Source = fragID[e.Source]
		e.Target = fragID[e.Target]
	}
}

func remapIDs(ids []int, remap []int) []int {
	out := ids[:0]
	for _, id := range ids {
		if remap[id] >= 0 {
			out = append(out, remap[id])
		}
	}
	return out
}

// NumFragments counts vertices including the pseudo-root.
func (g *Graph) NumFragments() int { return len(g.Fragments) }

// NumLosses counts edges.
func (g *Graph) NumLosses() int { return len(g.Losses) }
