// SPDX-License-Identifier: MIT

package fgraph

import (
	"sort"

	"github.com/mzkit/fragtree/internal/pipeline"
)

// Build constructs the candidate graph for a set of root candidates.
// Typically one graph is built per parent formula; passing several
// candidates yields a multi-root graph whose pseudo-root fans out to all
// of them. A fragment formula enters the graph only if it is a strict
// submultiset of at least one root candidate, and an edge u→v exists iff
// v's peak is lighter and v's formula a strict submultiset of u's.
func Build(in *pipeline.Input, candidates []pipeline.Decomposition) *Graph {
	g := NewGraph(in)
	root := g.Root()

	for _, c := range candidates {
		v := g.AddFragment(c.Formula, in.Parent, c.Score)
		g.AddLoss(root, v)
	}

	// Heavier peaks first so that every possible edge points forward to an
	// already smaller formula.
	peaks := make([]*pipeline.Peak, 0, len(in.Peaks))
	for _, p := range in.Peaks {
		if p != in.Parent {
			peaks = append(peaks, p)
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].Mz > peaks[j].Mz })

	for _, p := range peaks {
		for _, d := range in.Decompositions[p] {
			fits := false
			for _, c := range candidates {
				if d.Formula.IsStrictSubsetOf(c.Formula) {
					fits = true
					break
				}
			}
			if !fits {
				continue
			}
			v := g.AddFragment(d.Formula, p, d.Score)
			// Earlier vertices all sit on heavier peaks.
			for _, u := range g.Fragments[1:v.ID] {
				if v.Peak.Mz < u.Peak.Mz && v.Formula.IsStrictSubsetOf(u.Formula) {
					g.AddLoss(u, v)
				}
			}
		}
	}
	return g
}
