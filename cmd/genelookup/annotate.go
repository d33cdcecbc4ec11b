package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/genelookup/internal/annotate"
	"github.com/inodb/genelookup/internal/catalog"
	"github.com/inodb/genelookup/internal/duckdb"
	"github.com/inodb/genelookup/internal/output"
	"github.com/inodb/genelookup/internal/positions"
)

type annotateOptions struct {
	gtfPath    string
	outputPath string
	dbPath     string
	assembly   string
}

func newAnnotateCmd() *cobra.Command {
	var opts annotateOptions

	cmd := &cobra.Command{
		Use:   "annotate [flags] <positions>",
		Short: "Annotate positions with overlapping gene names",
		Long: `Annotate tab-separated chromosome/position lines with the names of the
genes whose GTF intervals contain them. Results are written as CSV with the
header "chromosome,position,gene", one row per input position, in input order.`,
		Example: `  genelookup annotate --gtf hg19_annotations.gtf -o annotated.csv positions.txt
  genelookup annotate --gtf gencode.v46.annotation.gtf.gz --feature gene positions.txt
  cat positions.txt | genelookup annotate --gtf annotations.gtf -`,
		Args: usageArgs(cobra.ExactArgs(1)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"annotate.window":          "window",
				"annotate.workers":         "workers",
				"annotate.normalize_chrom": "normalize-chrom",
				"annotate.feature":         "feature",
				"annotate.snapshot_dir":    "snapshot-dir",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.gtfPath, "gtf", "", "GTF annotation file, plain or gzipped (default: downloaded GENCODE GTF)")
	flags.StringVarP(&opts.outputPath, "output", "o", "", "Output CSV file (default: stdout)")
	flags.StringVar(&opts.dbPath, "db", "", "Also store results in this DuckDB database, replacing earlier results")
	flags.StringVar(&opts.assembly, "assembly", "GRCh38", "Assembly of the downloaded GTF used when --gtf is not set")
	flags.Int("window", 0, fmt.Sprintf("Only scan this many intervals left of each position (legacy mode, e.g. %d); 0 finds every overlap", catalog.LegacyWindow))
	flags.Int("workers", 0, "Annotation worker goroutines (default: number of CPUs)")
	flags.Bool("normalize-chrom", false, `Match chromosome names with and without a "chr" prefix`)
	flags.String("feature", "", `Only index GTF records of this feature type (e.g. "gene")`)
	flags.String("snapshot-dir", "", "Cache the parsed catalog in this directory")

	return cmd
}

func runAnnotate(cmd *cobra.Command, opts annotateOptions, positionsPath string) error {
	gtfPath := opts.gtfPath
	if gtfPath == "" {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		found, ok := FindGENCODEGTF(dir, opts.assembly)
		if !ok {
			return usageErrorf("--gtf is required (or download GENCODE annotations with: genelookup download --assembly %s)", opts.assembly)
		}
		gtfPath = found
	}

	cat, err := loadCatalog(gtfPath)
	if err != nil {
		return err
	}

	parser, err := positions.NewParser(positionsPath)
	if err != nil {
		return err
	}
	defer parser.Close()
	parser.SetLogger(logger)

	out, closeOut, err := createOutput(opts.outputPath, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var writer annotate.ResultWriter = output.NewCSVWriter(out)
	if opts.dbPath != "" {
		store, err := duckdb.Open(opts.dbPath)
		if err != nil {
			closeOut()
			return err
		}
		defer store.Close()
		writer = output.NewMultiWriter(writer, duckdb.NewResultWriter(store))
	}

	if err := writer.WriteHeader(); err != nil {
		closeOut()
		return fmt.Errorf("write header: %w", err)
	}

	ann := annotate.NewAnnotator(cat)
	ann.SetWindow(viper.GetInt("annotate.window"))
	ann.SetWorkers(viper.GetInt("annotate.workers"))
	ann.SetLogger(logger)

	stats, err := ann.AnnotateAll(cmd.Context(), parser, writer)
	if cerr := closeOut(); err == nil && cerr != nil {
		err = fmt.Errorf("close output file: %w", cerr)
	}
	if err != nil {
		return err
	}

	if n := parser.Skipped(); n > 0 {
		logger.Warn("skipped malformed position lines", zap.Int("count", n))
	}
	logger.Info("annotation complete",
		zap.Int("positions", stats.Queries),
		zap.Int("matched", stats.Matched),
		zap.Int("skipped", parser.Skipped()))
	return nil
}

// loadCatalog builds the gene catalog for gtfPath, going through the
// snapshot cache when one is configured.
func loadCatalog(gtfPath string) (*catalog.Catalog, error) {
	opts := catalog.LoadOptions{
		Feature:        viper.GetString("annotate.feature"),
		NormalizeChrom: viper.GetBool("annotate.normalize_chrom"),
		Logger:         logger,
	}

	dir := viper.GetString("annotate.snapshot_dir")
	if dir == "" || gtfPath == "-" {
		cat, err := catalog.Load(gtfPath, opts)
		if err != nil {
			return nil, fmt.Errorf("load annotations: %w", err)
		}
		return cat, nil
	}

	cat, cached, err := catalog.NewSnapshotStore(dir).LoadOrBuild(gtfPath, opts)
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}
	logger.Debug("catalog ready", zap.Bool("snapshot", cached), zap.Int("intervals", cat.IntervalCount()))
	return cat, nil
}
