package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/genelookup/internal/annotate"
	"github.com/inodb/genelookup/internal/duckdb"
	"github.com/inodb/genelookup/internal/output"
)

func newQueryCmd() *cobra.Command {
	var (
		dbPath   string
		gene     string
		position string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a DuckDB database written by export or annotate --db",
		Example: `  genelookup query --db genes.duckdb --position chr1:150
  genelookup query --db results.duckdb --gene BRCA1`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return usageErrorf("--db is required")
			}
			if (gene == "") == (position == "") {
				return usageErrorf("exactly one of --gene or --position is required")
			}

			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if position != "" {
				chrom, pos, err := parseRegion(position)
				if err != nil {
					return &usageError{err: err}
				}
				genes, err := store.GenesAt(chrom, pos)
				if err != nil {
					return err
				}
				if len(genes) == 0 {
					genes = []string{annotate.NoMatch}
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(genes, ","))
				return nil
			}

			results, err := store.SearchByGene(gene)
			if err != nil {
				return err
			}
			w := output.NewCSVWriter(cmd.OutOrStdout())
			if err := w.WriteHeader(); err != nil {
				return err
			}
			for _, r := range results {
				if err := w.Write(r); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB database path")
	cmd.Flags().StringVar(&gene, "gene", "", "List annotated positions overlapping this gene")
	cmd.Flags().StringVar(&position, "position", "", "List stored genes containing chrom:pos")
	return cmd
}

// parseRegion parses "chrom:pos".
func parseRegion(s string) (string, int64, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid position %q: expected chrom:pos", s)
	}
	pos, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid position %q: %w", s, err)
	}
	return s[:i], pos, nil
}
