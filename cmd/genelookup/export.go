package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/inodb/genelookup/internal/duckdb"
)

func newExportCmd() *cobra.Command {
	var (
		gtfPath    string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export GTF gene intervals to a DuckDB database",
		Long: `Parse a GTF file and write its gene intervals to the gene_intervals table
of a DuckDB database for SQL queries. An existing output file is replaced.`,
		Example: `  genelookup export --gtf annotations.gtf.gz -o genes.duckdb
  genelookup export --gtf gencode.v46.annotation.gtf.gz --feature gene -o genes.duckdb`,
		Args: usageArgs(cobra.NoArgs),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"annotate.feature":         "feature",
				"annotate.normalize_chrom": "normalize-chrom",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if gtfPath == "" {
				return usageErrorf("--gtf is required")
			}
			if outputPath == "" {
				return usageErrorf("--output is required")
			}
			return runExport(cmd, gtfPath, outputPath)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&gtfPath, "gtf", "", "GTF annotation file, plain or gzipped")
	flags.StringVarP(&outputPath, "output", "o", "", "Output DuckDB file path")
	flags.String("feature", "", `Only export GTF records of this feature type (e.g. "gene")`)
	flags.Bool("normalize-chrom", false, `Store chromosome names without a "chr" prefix`)
	return cmd
}

func runExport(cmd *cobra.Command, gtfPath, outputPath string) error {
	// Ensure output has .duckdb extension
	if ext := filepath.Ext(outputPath); ext != ".duckdb" && ext != ".db" {
		outputPath += ".duckdb"
	}

	if _, err := os.Stat(outputPath); err == nil {
		if err := os.Remove(outputPath); err != nil {
			return fmt.Errorf("remove existing file: %w", err)
		}
	}

	cat, err := loadCatalog(gtfPath)
	if err != nil {
		return err
	}

	store, err := duckdb.Open(outputPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WriteCatalog(cat); err != nil {
		return fmt.Errorf("write intervals: %w", err)
	}

	n, err := store.IntervalCount()
	if err != nil {
		return err
	}
	if n != cat.IntervalCount() {
		return fmt.Errorf("wrote %d intervals, expected %d", n, cat.IntervalCount())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Export complete!\n")
	fmt.Fprintf(out, "  Intervals:   %d\n", n)
	fmt.Fprintf(out, "  Chromosomes: %d\n", len(cat.Chromosomes()))
	fmt.Fprintf(out, "  Output file: %s\n", outputPath)
	return nil
}
