// SPDX-License-Identifier: MIT

package ftree

import (
	"math"
	"sort"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/fgraph"
	"github.com/mzkit/fragtree/internal/pipeline"
)

// Builder extracts a maximum colourful subtree. A nil tree means no
// subtree reaches the lower bound; that is a result, not an error.
type Builder interface {
	BuildTree(g *fgraph.Graph, lowerBound float64) *Tree
}

// DPBuilder solves the problem exactly by dynamic programming over colour
// subsets: D(v, S) is the best weight of a subtree rooted in v using
// exactly the colours S. The recurrence attaches child subtrees one
// colour-set at a time, giving O(3^k * E) time and O(2^k * V) space for k
// colour classes. Graphs with more colours than MaxColors are restricted
// to the most intense peaks first; the parent colour always stays.
type DPBuilder struct {
	MaxColors int // default 16
}

func (b DPBuilder) maxColors() int {
	if b.MaxColors <= 0 {
		return 16
	}
	return b.MaxColors
}

func (b DPBuilder) BuildTree(g *fgraph.Graph, lowerBound float64) *Tree {
	root := g.Root()
	if len(root.Out) == 0 {
		return nil
	}
	rootColor := g.Fragments[g.Losses[root.Out[0]].Target].Color

	colorBit := b.selectColors(g, rootColor)
	if colorBit == nil {
		return nil
	}
	k := 0
	for _, bit := range colorBit {
		if bit >= k {
			k = bit + 1
		}
	}
	size := 1 << k

	// Vertices in ascending peak mass: every edge points from a later to
	// an earlier vertex, so child tables are complete when needed.
	order := make([]*fgraph.Fragment, 0, len(g.Fragments)-1)
	for _, v := range g.Fragments[1:] {
		if _, ok := colorBit[v.Color]; ok {
			order = append(order, v)
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].Peak.Mz < order[j].Peak.Mz })

	neg := math.Inf(-1)
	d := make([][]float64, len(g.Fragments))
	back := make([][]dpChoice, len(g.Fragments))

	for _, v := range order {
		bit := uint32(1) << colorBit[v.Color]
		tab := make([]float64, size)
		for i := range tab {
			tab[i] = neg
		}
		tab[bit] = 0
		bp := make([]dpChoice, size)
		for i := range bp {
			bp[i].edge = -1
		}

		for s := int(bit); s < size; s++ {
			mask := uint32(s)
			if mask&bit == 0 {
				continue
			}
			rest := mask &^ bit
			for _, eid := range v.Out {
				e := g.Losses[eid]
				u := g.Fragments[e.Target]
				ubit, ok := colorBit[u.Color]
				if !ok {
					continue
				}
				ub := uint32(1) << ubit
				if rest&ub == 0 {
					continue
				}
				if d[u.ID] == nil {
					continue
				}
				// attach a child subtree on colour set sub
				for sub := rest; sub > 0; sub = (sub - 1) & rest {
					if sub&ub == 0 {
						continue
					}
					childScore := d[u.ID][sub]
					if childScore == neg {
						continue
					}
					base := tab[mask^sub]
					if base == neg {
						continue
					}
					if w := base + childScore + e.Weight; w > tab[mask] {
						tab[mask] = w
						bp[mask] = dpChoice{edge: eid, sub: sub}
					}
				}
			}
		}
		d[v.ID] = tab
		back[v.ID] = bp
	}

	// Pick the best root candidate over all colour sets.
	best := neg
	bestVertex := -1
	bestMask := uint32(0)
	bestEdge := -1
	for _, eid := range root.Out {
		e := g.Losses[eid]
		v := g.Fragments[e.Target]
		if d[v.ID] == nil {
			continue
		}
		for s, w := range d[v.ID] {
			if w == neg {
				continue
			}
			if total := e.Weight + w; total > best {
				best = total
				bestVertex = v.ID
				bestMask = uint32(s)
				bestEdge = eid
			}
		}
	}
	if bestVertex < 0 || best < lowerBound {
		return nil
	}

	tree := &Tree{Recalibration: Identity()}
	tree.Scoring.RootScore = g.Losses[bestEdge].Weight
	b.emit(g, back, tree, bestVertex, bestMask, -1, 0, chem.Formula{})
	for _, f := range tree.Fragments[1:] {
		tree.Scoring.LossSum += f.IncomingWeight
	}
	tree.Scoring.OverallScore = tree.Scoring.RootScore + tree.Scoring.LossSum
	return tree
}

// dpChoice records how a table entry was reached: the edge attaching a
// child subtree and the colour set that subtree uses.
type dpChoice struct {
	edge int
	sub  uint32
}

// emit reconstructs the subtree (vertex, mask) depth-first into the tree.
func (b DPBuilder) emit(g *fgraph.Graph, back [][]dpChoice, tree *Tree, vertexID int, mask uint32, parentIdx int, incomingWeight float64, incomingLoss chem.Formula) int {
	v := g.Fragments[vertexID]
	idx := len(tree.Fragments)
	tree.Fragments = append(tree.Fragments, Fragment{
		Formula:        v.Formula,
		Peak:           peakRef(v.Peak),
		Color:          v.Color,
		Parent:         parentIdx,
		IncomingWeight: incomingWeight,
		IncomingLoss:   incomingLoss,
	})
	if parentIdx >= 0 {
		tree.Fragments[parentIdx].Children = append(tree.Fragments[parentIdx].Children, idx)
	}
	for {
		c := back[vertexID][mask]
		if c.edge < 0 {
			break
		}
		e := g.Losses[c.edge]
		b.emit(g, back, tree, e.Target, c.sub, idx, e.Weight, e.Formula)
		mask ^= c.sub
	}
	return idx
}

// selectColors maps each kept colour to a bit index, or nil if the graph
// has no usable vertices.
func (b DPBuilder) selectColors(g *fgraph.Graph, rootColor int) map[int]int {
	type colorInfo struct {
		color     int
		intensity float64
	}
	seen := make(map[int]float64)
	for _, v := range g.Fragments[1:] {
		if cur, ok := seen[v.Color]; !ok || v.Peak.RelativeIntensity > cur {
			seen[v.Color] = v.Peak.RelativeIntensity
		}
	}
	if len(seen) == 0 {
		return nil
	}
	infos := make([]colorInfo, 0, len(seen))
	for c, i := range seen {
		infos = append(infos, colorInfo{color: c, intensity: i})
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].color == rootColor {
			return true
		}
		if infos[j].color == rootColor {
			return false
		}
		if infos[i].intensity != infos[j].intensity {
			return infos[i].intensity > infos[j].intensity
		}
		return infos[i].color < infos[j].color
	})
	limit := b.maxColors()
	if len(infos) > limit {
		infos = infos[:limit]
	}
	bits := make(map[int]int, len(infos))
	for i, info := range infos {
		bits[info.color] = i
	}
	return bits
}

func peakRef(p *pipeline.Peak) PeakRef {
	if p == nil {
		return PeakRef{Index: -1, Synthetic: true}
	}
	return PeakRef{
		Index:             p.Index,
		Mz:                p.Mz,
		OriginalMz:        p.OriginalMz,
		Intensity:         p.Intensity,
		RelativeIntensity: p.RelativeIntensity,
		Synthetic:         p.Synthetic(),
	}
}
