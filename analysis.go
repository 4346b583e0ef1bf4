// SPDX-License-Identifier: MIT

// Package fragtree computes fragmentation trees from MS/MS measurements:
// it explains the fragment peaks of a precursor by molecular formulas
// connected through neutral losses, ranked by a probabilistic score.
//
// The entry point is Analysis: configure one (or take DefaultAnalysis),
// then feed experiments through Preprocess and ComputeTrees. An Analysis
// is immutable after construction and safe to share across goroutines;
// all mutable state lives in the per-run pipeline input, graph and tree.
package fragtree

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/decomp"
	"github.com/mzkit/fragtree/internal/fgraph"
	"github.com/mzkit/fragtree/internal/ftree"
	"github.com/mzkit/fragtree/internal/ms"
	"github.com/mzkit/fragtree/internal/pipeline"
	"github.com/mzkit/fragtree/internal/recal"
	"github.com/mzkit/fragtree/internal/score"
)

// Analysis bundles the full configuration of the tree computation.
type Analysis struct {
	Profile        pipeline.Profile
	Validators     []pipeline.Validator
	Preprocessors  []pipeline.Preprocessor
	PostProcessors []pipeline.PostProcessor
	Scoring        score.Config
	Reduction      fgraph.Reduction
	Builder        ftree.Builder
	Recalibration  recal.Method

	// RepairInput lets validation fill in missing fields instead of
	// rejecting the measurement.
	RepairInput bool

	// ForceRecalibration adopts a corrected tree even when it scores
	// worse than the original.
	ForceRecalibration bool

	decomposers *decomp.Cache
}

// DefaultAnalysis returns the standard configuration: permissive CHNOPS
// constraints, the full scorer set, bound reduction, the exact subtree
// builder and polynomial recalibration.
func DefaultAnalysis() *Analysis {
	return &Analysis{
		Profile:       pipeline.DefaultProfile(),
		Validators:    []pipeline.Validator{pipeline.MissingValueValidator{}},
		Preprocessors: []pipeline.Preprocessor{pipeline.NormalizeToSum{}},
		PostProcessors: []pipeline.PostProcessor{
			pipeline.NoiseThresholdFilter{},
			pipeline.LimitNumberOfPeaksFilter{},
		},
		Scoring: score.Config{
			PeakScorers: []score.PeakScorer{
				score.PeakIsNoiseScorer{},
				score.TreeSizeScorer{Bonus: 0.5},
			},
			PairScorers: []score.PeakPairScorer{
				score.DefaultLossSizeScorer(),
				score.DefaultCollisionEnergyEdgeScorer(),
			},
			FragmentScorers: []score.DecompositionScorer{
				score.MassDeviationScorer{},
			},
			RootScorers: []score.DecompositionScorer{
				score.MassDeviationScorer{},
				score.DefaultChemicalPriorScorer(),
			},
			LossScorers: []score.LossScorer{
				score.DefaultCommonLossEdgeScorer(),
				score.DefaultFreeRadicalEdgeScorer(),
				score.DefaultDBELossScorer(),
				score.DefaultPureCarbonNitrogenLossScorer(),
			},
		},
		Reduction:     fgraph.BoundReduction{},
		Builder:       ftree.DPBuilder{},
		Recalibration: recal.DefaultMethod(),
		RepairInput:   true,
		decomposers:   decomp.NewCache(),
	}
}

func (a *Analysis) cache() *decomp.Cache {
	if a.decomposers == nil {
		a.decomposers = decomp.NewCache()
	}
	return a.decomposers
}

// Preprocess runs the peak pipeline on a measurement and returns the
// scored, formula-annotated peak list.
func (a *Analysis) Preprocess(exp *ms.Experiment) (*pipeline.Input, error) {
	return a.preprocess(exp, ftree.RecalibrationFunction{})
}

func (a *Analysis) preprocess(exp *ms.Experiment, fn ftree.RecalibrationFunction) (*pipeline.Input, error) {
	in, err := pipeline.Validate(exp, a.Profile, a.Validators, a.RepairInput)
	if err != nil {
		return nil, err
	}
	for _, p := range a.Preprocessors {
		p.Process(in.Experiment, in.Profile)
	}
	pipeline.Normalize(in)
	pipeline.MergePeaks(in)
	if !fn.IsIdentity() {
		for _, p := range in.Peaks {
			p.OriginalMz = p.Mz
			p.Mz = fn.Apply(p.Mz)
		}
	}
	for _, p := range a.PostProcessors {
		p.Process(in)
	}
	pipeline.DetectParent(in)
	pipeline.Decompose(in, a.cache())
	score.ScorePeaks(in, a.Scoring)
	return in, nil
}

// BuildGraph constructs and scores the candidate graph for one root
// candidate, reduced against the lower bound.
func (a *Analysis) BuildGraph(in *pipeline.Input, candidate pipeline.Decomposition, lowerBound float64) *fgraph.Graph {
	g := fgraph.Build(in, []pipeline.Decomposition{candidate})
	fgraph.ScoreGraph(g, a.Scoring)
	if a.Reduction != nil {
		a.Reduction.Reduce(g, lowerBound)
	}
	return g
}

// ComputeTree computes the optimal tree for one root candidate, including
// the recalibration round trip. A nil tree (with nil error) means no tree
// reached the lower bound.
func (a *Analysis) ComputeTree(in *pipeline.Input, candidate pipeline.Decomposition, lowerBound float64) (*ftree.Tree, error) {
	tree := a.computeTreeOnce(in, candidate, lowerBound)
	if tree == nil {
		return nil, nil
	}
	if a.Recalibration == nil {
		return tree, nil
	}
	return a.recalibrateTree(in, candidate, tree)
}

func (a *Analysis) computeTreeOnce(in *pipeline.Input, candidate pipeline.Decomposition, lowerBound float64) *ftree.Tree {
	g := a.BuildGraph(in, candidate, lowerBound)
	tree := a.Builder.BuildTree(g, lowerBound)
	ftree.Annotate(tree, in)
	return tree
}

// recalibrateTree fits a mass correction from the tree, recomputes the
// tree on corrected masses at most once, and keeps whichever scores
// better. A rejected correction still leaves the estimated bonus on the
// original tree as a diagnostic.
func (a *Analysis) recalibrateTree(in *pipeline.Input, candidate pipeline.Decomposition, tree *ftree.Tree) (*ftree.Tree, error) {
	res := a.Recalibration.FromTree(tree, in)
	if res == nil {
		return tree, nil
	}
	tree.Scoring.RecalibrationBonusEstimate = res.EstimatedBonus
	if !res.ShouldRecompute && !a.ForceRecalibration {
		return tree, nil
	}

	corrected, err := a.preprocess(in.Experiment, res.Func)
	if err != nil {
		return tree, nil
	}
	var newCandidate *pipeline.Decomposition
	for i, c := range corrected.ParentCandidates() {
		if c.Formula == candidate.Formula {
			newCandidate = &corrected.ParentCandidates()[i]
			break
		}
	}
	if newCandidate == nil {
		// The corrected masses no longer support the formula; keep the
		// original tree.
		return tree, nil
	}
	newTree := a.computeTreeOnce(corrected, *newCandidate, math.Inf(-1))
	if newTree == nil {
		return tree, nil
	}
	gain := newTree.Scoring.OverallScore - tree.Scoring.OverallScore
	newTree.Scoring.RecalibrationBonusEstimate = res.EstimatedBonus
	if gain > 0 || a.ForceRecalibration {
		newTree.Scoring.RecalibrationBonus = gain
		newTree.Recalibration = res.Func
		return newTree, nil
	}
	return tree, nil
}

// CandidateResult is one ranked tree.
type CandidateResult struct {
	Formula chem.Formula
	Tree    *ftree.Tree
	Score   float64
}

// ComputeTrees computes trees for the best root candidates concurrently
// and returns them ranked by score. topN <= 0 means all candidates. The
// context cancels outstanding candidates; trees finished before
// cancellation are discarded and the context error returned.
func (a *Analysis) ComputeTrees(ctx context.Context, in *pipeline.Input, topN int) ([]CandidateResult, error) {
	candidates := in.ParentCandidates()
	if len(candidates) == 0 {
		return nil, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(candidates) {
		workers = len(candidates)
	}
	jobs := make(chan pipeline.Decomposition)
	results := make(chan CandidateResult, len(candidates))
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			failed := false
			for c := range jobs {
				if failed {
					continue
				}
				tree, err := a.ComputeTree(in, c, math.Inf(-1))
				if err != nil {
					errs <- err
					failed = true
					continue
				}
				if tree != nil {
					results <- CandidateResult{Formula: c.Formula, Tree: tree, Score: tree.Scoring.OverallScore}
				}
			}
		}()
	}

feed:
	for _, c := range candidates {
		select {
		case jobs <- c:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	close(errs)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := <-errs; ok && err != nil {
		return nil, err
	}

	ranked := make([]CandidateResult, 0, len(candidates))
	for r := range results {
		ranked = append(ranked, r)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// RecalculateScores recomputes every score contribution of a tree from
// the pipeline state and verifies that the stored overall score is the
// sum of its parts. It returns the recomputed score; a deviation beyond
// 1e-8 is an internal consistency error.
func (a *Analysis) RecalculateScores(in *pipeline.Input, tree *ftree.Tree) (float64, error) {
	prepared := make([]any, len(a.Scoring.LossScorers))
	for i, s := range a.Scoring.LossScorers {
		prepared[i] = s.Prepare(in)
	}

	root := tree.Root()
	rootScore := math.NaN()
	for _, c := range in.ParentCandidates() {
		if c.Formula == root.Formula {
			rootScore = c.Score
			break
		}
	}
	if math.IsNaN(rootScore) {
		return 0, fmt.Errorf("root formula %s is not a parent candidate", root.Formula)
	}

	total := rootScore
	for i := 1; i < tree.Size(); i++ {
		f := &tree.Fragments[i]
		parent := &tree.Fragments[f.Parent]
		w := math.NaN()
		for _, d := range in.Decompositions[in.Peaks[f.Peak.Index]] {
			if d.Formula == f.Formula {
				w = d.Score
				break
			}
		}
		if math.IsNaN(w) {
			return 0, fmt.Errorf("fragment formula %s is not a candidate of peak %d", f.Formula, f.Peak.Index)
		}
		w += in.PeakScores[f.Peak.Index]
		w += in.PairScores[parent.Peak.Index][f.Peak.Index]
		for k, s := range a.Scoring.LossScorers {
			w += s.Score(f.IncomingLoss, in, prepared[k])
		}
		total += w
	}

	if math.Abs(total-tree.Scoring.OverallScore) > 1e-8 {
		return total, fmt.Errorf("tree score %.12f does not decompose into its parts (%.12f)", tree.Scoring.OverallScore, total)
	}
	return total, nil
}
