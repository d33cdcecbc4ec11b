// Package seqstats computes summary statistics over FASTQ and FASTA files.
package seqstats

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/inodb/genelookup/internal/xopen"
)

// DefaultLongReadThreshold is the read length, in nucleotides, that a read
// must exceed to count as long.
const DefaultLongReadThreshold = 30

// maxLineSize bounds a single sequence line.
const maxLineSize = 64 * 1024 * 1024

// IsFASTQ reports whether name has a FASTQ extension, optionally gzipped.
func IsFASTQ(name string) bool {
	name = strings.TrimSuffix(name, ".gz")
	return strings.HasSuffix(name, ".fastq")
}

// FindFASTQ returns the FASTQ files under dir, recursively, in lexical order.
func FindFASTQ(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsFASTQ(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return paths, nil
}

// ReadLengths counts the reads of a FASTQ file.
type ReadLengths struct {
	Reads int // total reads
	Long  int // reads strictly longer than the threshold
}

// Percent returns the share of long reads as a percentage, or 0 for a file
// without reads.
func (r ReadLengths) Percent() float64 {
	if r.Reads == 0 {
		return 0
	}
	return float64(r.Long) / float64(r.Reads) * 100
}

// CountReadLengths reads the FASTQ file at path and counts reads longer than
// threshold. The sequence is the second line of every four-line record;
// record headers are not validated.
func CountReadLengths(path string, threshold int) (ReadLengths, error) {
	r, err := xopen.Open(path)
	if err != nil {
		return ReadLengths{}, fmt.Errorf("open fastq file: %w", err)
	}
	defer r.Close()

	var counts ReadLengths
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for line := 0; s.Scan(); line++ {
		if line%4 != 1 {
			continue
		}
		counts.Reads++
		if len(strings.TrimSpace(s.Text())) > threshold {
			counts.Long++
		}
	}
	if err := s.Err(); err != nil {
		return ReadLengths{}, fmt.Errorf("read fastq file %s: %w", path, err)
	}
	return counts, nil
}

// LongReadPercentage returns the percentage of reads in the FASTQ file at
// path that are strictly longer than threshold.
func LongReadPercentage(path string, threshold int) (float64, error) {
	counts, err := CountReadLengths(path, threshold)
	if err != nil {
		return 0, err
	}
	return counts.Percent(), nil
}

// FileSummary is the long-read summary of one FASTQ file.
type FileSummary struct {
	Path string
	ReadLengths
}

// SummarizeDir computes read-length summaries for every FASTQ file under
// dir using up to workers goroutines (runtime.NumCPU() when workers <= 0).
// Summaries are returned in the order of FindFASTQ.
func SummarizeDir(ctx context.Context, dir string, threshold, workers int) ([]FileSummary, error) {
	paths, err := FindFASTQ(dir)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	summaries := make([]FileSummary, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			counts, err := CountReadLengths(path, threshold)
			if err != nil {
				return err
			}
			summaries[i] = FileSummary{Path: path, ReadLengths: counts}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}
