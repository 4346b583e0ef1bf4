// SPDX-License-Identifier: MIT

package fgraph

import (
	"math"
	"sort"
)

// Reduction prunes graph regions that provably cannot contribute to any
// tree scoring at least lowerBound. Implementations must be sound: a
// vertex or edge of the true optimum is never removed, so building a tree
// on the reduced graph yields the same score as on the original.
type Reduction interface {
	Reduce(g *Graph, lowerBound float64)
}

// NullReduction leaves the graph untouched.
type NullReduction struct{}

func (NullReduction) Reduce(*Graph, float64) {}

// BoundReduction removes vertices and edges whose score upper bound stays
// below the lower bound. The bound for a vertex combines the best path
// weight from the root with, for every other colour, the best positive
// edge weight into that colour; any colourful subtree through the vertex
// collects at most one edge per colour, so the bound dominates every
// completion of every tree containing it. Unreachable vertices are always
// removed.
type BoundReduction struct{}

func (BoundReduction) Reduce(g *Graph, lowerBound float64) {
	neg := math.Inf(-1)

	// Best root path weight per vertex. Vertex ids are not topologically
	// ordered, so relax in peak-mass order: edges always point from
	// heavier to lighter peaks.
	order := topologicalOrder(g)
	bp := make([]float64, len(g.Fragments))
	for i := range bp {
		bp[i] = neg
	}
	bp[0] = 0
	for _, id := range order {
		v := g.Fragments[id]
		if bp[id] == neg {
			continue
		}
		for _, eid := range v.Out {
			e := g.Losses[eid]
			if w := bp[id] + e.Weight; w > bp[e.Target] {
				bp[e.Target] = w
			}
		}
	}

	// Best positive edge weight per colour.
	maxColor := -1
	for _, v := range g.Fragments {
		if v.Color > maxColor {
			maxColor = v.Color
		}
	}
	wmax := make([]float64, maxColor+1)
	for _, e := range g.Losses {
		target := g.Fragments[e.Target]
		if target.Color >= 0 && e.Weight > wmax[target.Color] {
			wmax[target.Color] = e.Weight
		}
	}
	total := 0.0
	for _, w := range wmax {
		total += w
	}

	for _, v := range g.Fragments[1:] {
		if bp[v.ID] == neg {
			g.MarkFragmentDeleted(v)
			continue
		}
		if bp[v.ID]+total-wmax[v.Color] < lowerBound {
			g.MarkFragmentDeleted(v)
		}
	}
	for _, e := range g.Losses {
		if e.deleted {
			continue
		}
		u := g.Fragments[e.Source]
		v := g.Fragments[e.Target]
		if u.deleted || v.deleted || bp[u.ID] == neg {
			continue
		}
		rest := total - wmax[v.Color]
		if u.Color >= 0 {
			rest -= wmax[u.Color]
		}
		if bp[u.ID]+e.Weight+rest < lowerBound {
			g.MarkLossDeleted(e)
		}
	}
	g.Compact()
}

// topologicalOrder returns vertex ids root first, then by descending peak
// mass, which is a topological order of the fragmentation DAG.
func topologicalOrder(g *Graph) []int {
	order := make([]int, 0, len(g.Fragments))
	for _, v := range g.Fragments {
		order = append(order, v.ID)
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := g.Fragments[order[a]], g.Fragments[order[b]]
		if va.Peak == nil {
			return true
		}
		if vb.Peak == nil {
			return false
		}
		return va.Peak.Mz > vb.Peak.Mz
	})
	return order
}
