package main

import (
	"encoding/csv"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/genelookup/internal/ensembl"
)

func newVEPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vep <variant-id>...",
		Short: "Fetch transcript consequences for variant IDs from the Ensembl REST API",
		Long: `Fetch the Variant Effect Predictor annotation of each variant ID and print
one tab-separated row per transcript consequence. IDs that fail are reported
and skipped; the command exits non-zero if any failed.`,
		Example: `  genelookup vep rs56116432
  genelookup vep --server https://grch37.rest.ensembl.org rs56116432 rs699`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"ensembl.server": "server",
				"ensembl.rate":   "rate",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ensembl.NewClient(viper.GetString("ensembl.server"), viper.GetFloat64("ensembl.rate"))
			client.SetLogger(logger)

			w := csv.NewWriter(cmd.OutOrStdout())
			w.Comma = '\t'
			if err := w.Write(ensembl.Columns); err != nil {
				return err
			}

			failed := 0
			for _, id := range args {
				variants, err := client.FetchVariant(cmd.Context(), id)
				if err != nil {
					if cmd.Context().Err() != nil {
						w.Flush()
						return err
					}
					logger.Error("fetch variant", zap.String("id", id), zap.Error(err))
					failed++
					continue
				}
				for _, row := range ensembl.ParseConsequences(variants) {
					if err := w.Write(row.Fields()); err != nil {
						return err
					}
				}
			}

			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d variants could not be fetched", failed, len(args))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("server", ensembl.DefaultServer, "Ensembl REST server")
	flags.Float64("rate", ensembl.DefaultRate, "Maximum requests per second")
	return cmd
}
