// SPDX-License-Identifier: MIT

// Package cmd provides the CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	profileFile     string
	numTrees        int
	dotFile         string
	noRecalibration bool
	forceRecal      bool
)

var rootCmd = &cobra.Command{
	Use:   "fragtree",
	Short: "fragtree - fragmentation trees from MS/MS spectra",
	Long: `fragtree explains the fragment peaks of a tandem mass spectrum by
molecular formulas connected through neutral losses. For each input
spectrum it decomposes the precursor mass into candidate formulas,
builds a fragmentation graph and extracts the best-scoring tree per
candidate, with iterative mass recalibration.`,
	Version: "1.0.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringVarP(&profileFile, "profile", "p", "", "Analysis profile (YAML)")
	computeCmd.Flags().IntVarP(&numTrees, "trees", "n", 5, "Number of top-ranked trees to report (0 = all)")
	computeCmd.Flags().StringVar(&dotFile, "dot", "", "Write the best tree as Graphviz DOT to this file")
	computeCmd.Flags().BoolVar(&noRecalibration, "no-recalibration", false, "Skip mass recalibration")
	computeCmd.Flags().BoolVar(&forceRecal, "force-recalibration", false, "Adopt the recalibrated tree even when it scores worse")
}
