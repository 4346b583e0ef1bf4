// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mzkit/fragtree"
	"github.com/mzkit/fragtree/internal/ftree"
	"github.com/mzkit/fragtree/internal/ms"
)

var computeCmd = &cobra.Command{
	Use:   "compute <spectrum.ms> [more.ms ...]",
	Short: "Compute fragmentation trees for peak-list files",
	Long: `Compute reads one or more peak-list files, runs the full pipeline
(validation, normalization, merging, parent detection, decomposition,
scoring, tree extraction, recalibration) and prints the ranked root
formulas with their tree scores.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompute,
}

func runCompute(cmd *cobra.Command, args []string) error {
	analysis, err := buildAnalysis()
	if err != nil {
		return err
	}
	for _, path := range args {
		if err := computeFile(cmd, analysis, path); err != nil {
			return err
		}
	}
	return nil
}

func buildAnalysis() (*fragtree.Analysis, error) {
	a := fragtree.DefaultAnalysis()
	if profileFile != "" {
		cfg, err := fragtree.LoadProfileFile(profileFile)
		if err != nil {
			return nil, err
		}
		a, err = cfg.Analysis()
		if err != nil {
			return nil, err
		}
	}
	if noRecalibration {
		a.Recalibration = nil
	}
	a.ForceRecalibration = forceRecal
	return a, nil
}

func computeFile(cmd *cobra.Command, analysis *fragtree.Analysis, path string) error {
	exp, err := ms.ReadExperimentFile(path)
	if err != nil {
		return err
	}
	in, err := analysis.Preprocess(exp)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, w := range in.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: warning: %s\n", path, w)
	}

	ranked, err := analysis.ComputeTrees(cmd.Context(), in, numTrees)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(ranked) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no fragmentation tree found\n", path)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (precursor m/z %.5f, %s)\n", path, in.Experiment.IonMass, in.Experiment.IonType.Ionization.Name)
	for i, r := range ranked {
		t := r.Tree
		fmt.Fprintf(cmd.OutOrStdout(), "%3d. %-20s score %9.4f  fragments %2d  explained %5.1f%%",
			i+1, r.Formula, r.Score, t.Size(), 100*t.Scoring.ExplainedIntensity)
		if !t.Recalibration.IsIdentity() {
			fmt.Fprintf(cmd.OutOrStdout(), "  recalibrated (%+.4f)", t.Scoring.RecalibrationBonus)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}

	if dotFile != "" {
		if err := os.WriteFile(dotFile, []byte(treeToDOT(ranked[0].Tree)), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// treeToDOT renders a tree in Graphviz DOT format, fragments labelled
// with formula and m/z, edges with the neutral loss.
func treeToDOT(t *ftree.Tree) string {
	var sb strings.Builder
	sb.WriteString("strict digraph {\n")
	sb.WriteString("\tnode [shape=box];\n")
	for i := range t.Fragments {
		f := &t.Fragments[i]
		fmt.Fprintf(&sb, "\tv%d [label=\"%s\\n%.4f\"];\n", i, f.Formula, f.Peak.Mz)
	}
	for i := range t.Fragments {
		f := &t.Fragments[i]
		if f.Parent < 0 {
			continue
		}
		fmt.Fprintf(&sb, "\tv%d -> v%d [label=\"-%s\"];\n", f.Parent, i, f.IncomingLoss)
	}
	sb.WriteString("}\n")
	return sb.String()
}
