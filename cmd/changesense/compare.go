package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/changesense/internal/compare"
	"github.com/dgallion1/changesense/internal/enrich"
	"github.com/dgallion1/changesense/internal/ingest"
	"github.com/dgallion1/changesense/internal/pipeline"
)

var compareOut string

var compareCmd = &cobra.Command{
	Use:   "compare <version_a> <version_b>",
	Short: "Compare two document versions offline and emit the result as JSON",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&compareOut, "out", "o", "", "write result to file instead of stdout")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	docA, err := parseFile(args[0])
	if err != nil {
		return err
	}
	docB, err := parseFile(args[1])
	if err != nil {
		return err
	}

	result := compare.Run(docA, docB)
	record := pipeline.RunRecord{Result: result, Enrichment: enrich.Fallback()}

	blob, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	blob = append(blob, '\n')

	if compareOut != "" {
		if err := os.WriteFile(compareOut, blob, 0644); err != nil {
			return fmt.Errorf("write %s: %w", compareOut, err)
		}
		return nil
	}
	_, err = os.Stdout.Write(blob)
	return err
}

func parseFile(path string) (*ingest.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := ingest.ParseUpload(path, f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
