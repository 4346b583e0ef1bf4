// SPDX-License-Identifier: MIT

package score

import (
	"sort"

	"github.com/mzkit/fragtree/internal/pipeline"
)

// ScorePeaks is the final pipeline stage. It fixes the peak order (by
// ascending m/z, parent last), assigns final peak indices, fills the
// per-peak and pairwise score tables and scores every candidate formula.
// The parent peak's own score is defined as zero: the precursor is always
// part of the tree and must not bias root-formula ranking. Root
// candidates are sorted by descending score afterwards.
func ScorePeaks(in *pipeline.Input, cfg Config) {
	in.SortPeaksByMz()
	n := len(in.Peaks)
	for i, p := range in.Peaks {
		p.Index = i
	}

	in.PairScores = make([][]float64, n)
	for i := range in.PairScores {
		in.PairScores[i] = make([]float64, n)
	}
	for _, s := range cfg.PairScorers {
		s.ScorePairs(in, in.PairScores)
	}
	for i := range in.PairScores {
		for j := range in.PairScores[i] {
			MustBeFinite(in.PairScores[i][j], cfg)
		}
	}

	in.PeakScores = make([]float64, n)
	for _, s := range cfg.PeakScorers {
		s.ScorePeaks(in, in.PeakScores)
	}
	for i := range in.PeakScores {
		MustBeFinite(in.PeakScores[i], cfg)
	}
	in.PeakScores[n-1] = 0

	prepFrag := prepareAll(cfg.FragmentScorers, in)
	for _, p := range in.Peaks {
		if p == in.Parent {
			continue
		}
		list := in.Decompositions[p]
		for i := range list {
			sum := 0.0
			for k, s := range cfg.FragmentScorers {
				sum += MustBeFinite(s.Score(list[i].Formula, p, in, prepFrag[k]), s)
			}
			list[i].Score = sum
		}
	}

	prepRoot := prepareAll(cfg.RootScorers, in)
	roots := in.Decompositions[in.Parent]
	for i := range roots {
		sum := 0.0
		for k, s := range cfg.RootScorers {
			sum += MustBeFinite(s.Score(roots[i].Formula, in.Parent, in, prepRoot[k]), s)
		}
		roots[i].Score = sum
	}
	sort.SliceStable(roots, func(i, j int) bool { return roots[i].Score > roots[j].Score })
	in.Decompositions[in.Parent] = roots
}

func prepareAll(scorers []DecompositionScorer, in *pipeline.Input) []any {
	prepared := make([]any, len(scorers))
	for i, s := range scorers {
		prepared[i] = s.Prepare(in)
	}
	return prepared
}
