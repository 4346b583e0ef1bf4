// SPDX-License-Identifier: MIT

package fgraph

import (
	"github.com/mzkit/fragtree/internal/score"
)

// ScoreGraph assigns every edge its final weight. The weight of u→v
// bundles everything gained by explaining v's peak with v's formula via
// this step: the candidate score and peak score of v, the pairwise score
// of the two peaks and the loss scorers applied to the formula
// difference. Edges from the pseudo-root carry only the root candidate's
// score, since the parent peak score is zero by construction.
func ScoreGraph(g *Graph, cfg score.Config) {
	in := g.Input
	prepared := make([]any, len(cfg.LossScorers))
	for i, s := range cfg.LossScorers {
		prepared[i] = s.Prepare(in)
	}
	for _, e := range g.Losses {
		u := g.Fragments[e.Source]
		v := g.Fragments[e.Target]
		w := v.CandidateScore
		if u.ID != 0 {
			w += in.PeakScores[v.Peak.Index]
			w += in.PairScores[u.Peak.Index][v.Peak.Index]
			for i, s := range cfg.LossScorers {
				w += score.MustBeFinite(s.Score(e.Formula, in, prepared[i]), s)
			}
		}
		e.Weight = score.MustBeFinite(w, cfg)
	}
}
