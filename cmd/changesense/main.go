package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "changesense",
	Short: "Deterministic legal document comparison",
	Long: `ChangeSense compares two versions of a legal document clause by
clause: alignment, token/word/sentence diffs, materiality rules,
definition impact analysis, and integrity checks. Results are
reproducible and fingerprinted.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
