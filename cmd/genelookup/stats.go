package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/genelookup/internal/coverage"
	"github.com/inodb/genelookup/internal/seqstats"
)

func newFastqStatsCmd() *cobra.Command {
	var (
		threshold int
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "fastq-stats <dir>",
		Short: "Report the share of long reads in every FASTQ file under a directory",
		Example: `  genelookup fastq-stats sample_files
  genelookup fastq-stats --threshold 50 runs/`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := seqstats.SummarizeDir(cmd.Context(), args[0], threshold, workers)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				logger.Warn("no FASTQ files found", zap.String("dir", args[0]))
			}

			out := cmd.OutOrStdout()
			for _, s := range summaries {
				fmt.Fprintf(out, "%s: %.2f%% sequences longer than %d nt\n",
					filepath.Base(s.Path), s.Percent(), threshold)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&threshold, "threshold", seqstats.DefaultLongReadThreshold, "Reads strictly longer than this many nucleotides count as long")
	cmd.Flags().IntVar(&workers, "workers", 0, "Files read concurrently (default: number of CPUs)")
	return cmd
}

func newFastaTopCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:     "fasta-top <fasta>",
		Short:   "Report the most frequent sequences of a FASTA file",
		Example: `  genelookup fasta-top -k 5 sample.fasta`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := seqstats.TopSequences(args[0], top)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range counts {
				fmt.Fprintf(out, "Sequence: %s\nCount: %d\n\n", c.Sequence, c.Count)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "k", seqstats.DefaultTopSequences, "Number of sequences to report (0 for all)")
	return cmd
}

func newGCCoverageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gc-coverage <table>",
		Short: "Report mean target coverage per 10% GC bin",
		Long: `Read a tab-separated per-target coverage table (such as Picard's
PER_TARGET_COVERAGE output) with "%gc" (0-1) and "mean_coverage" columns,
and report the mean coverage of the targets in each 10% GC bin.`,
		Example: `  genelookup gc-coverage Example.hs_intervals.txt`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := coverage.NewSummarizer()
			s.SetLogger(logger)

			bins, err := s.SummarizeFile(args[0])
			if err != nil {
				return err
			}
			if n := s.Skipped(); n > 0 {
				logger.Warn("skipped malformed coverage rows", zap.Int("count", n))
			}

			out := cmd.OutOrStdout()
			for _, b := range bins {
				fmt.Fprintf(out, "GC%% bin %s: Mean Coverage = %.2f\n", b.Label, b.MeanCoverage)
			}
			return nil
		},
	}
}
