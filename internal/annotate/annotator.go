// Package annotate looks up the genes overlapping genomic positions.
package annotate

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/genelookup/internal/catalog"
	"github.com/inodb/genelookup/internal/positions"
)

// NoMatch is reported when no interval overlaps a position or the
// chromosome is not in the catalog.
const NoMatch = "NA"

// IndexLookup finds the interval index of a chromosome.
type IndexLookup interface {
	Index(chrom string) (*catalog.ChromosomeIndex, bool)
}

// Result is the annotation of a single query.
type Result struct {
	Seq   int // position of the query in the input stream
	Chrom string
	Pos   int64
	Genes []string // sorted, deduplicated; [NoMatch] when nothing overlaps
}

// GeneField returns the genes joined by commas.
func (r Result) GeneField() string {
	return strings.Join(r.Genes, ",")
}

// Matched reports whether at least one gene overlaps the position.
func (r Result) Matched() bool {
	return len(r.Genes) > 0 && !(len(r.Genes) == 1 && r.Genes[0] == NoMatch)
}

// Annotator answers overlap queries against a catalog.
// It never modifies the catalog and is safe for concurrent use.
type Annotator struct {
	catalog IndexLookup
	window  int
	workers int
	logger  *zap.Logger
}

// NewAnnotator creates an annotator over c using the exhaustive
// augmented-tree search.
func NewAnnotator(c IndexLookup) *Annotator {
	return &Annotator{
		catalog: c,
		logger:  zap.NewNop(),
	}
}

// SetWindow switches to the legacy fixed-window search when n > 0
// (see catalog.LegacyWindow). n <= 0 restores the exhaustive search.
func (a *Annotator) SetWindow(n int) {
	a.window = max(n, 0)
}

// Window returns the legacy window size, or 0 for the exhaustive search.
func (a *Annotator) Window() int {
	return a.window
}

// SetWorkers sets the size of the worker pool used by AnnotateAll.
// n <= 0 uses runtime.NumCPU().
func (a *Annotator) SetWorkers(n int) {
	a.workers = n
}

// SetLogger sets the logger for warning and info messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Genes returns the sorted, deduplicated names of genes overlapping pos,
// or [NoMatch].
func (a *Annotator) Genes(chrom string, pos int64) []string {
	x, ok := a.catalog.Index(chrom)
	if !ok {
		return []string{NoMatch}
	}

	var hits []catalog.GenomicInterval
	if a.window > 0 {
		hits = x.WindowOverlaps(pos, a.window)
	} else {
		hits = x.Overlaps(pos)
	}
	if len(hits) == 0 {
		return []string{NoMatch}
	}

	genes := make([]string, len(hits))
	for i, iv := range hits {
		genes[i] = iv.GeneName
	}
	slices.Sort(genes)
	return slices.Compact(genes)
}

// Annotate annotates a single query.
func (a *Annotator) Annotate(q *positions.Query) Result {
	return Result{
		Chrom: q.Chrom,
		Pos:   q.Pos,
		Genes: a.Genes(q.Chrom, q.Pos),
	}
}

// QueryReader is a source of queries. Next returns nil, nil at the end.
type QueryReader interface {
	Next() (*positions.Query, error)
}

// ResultWriter defines the interface for writing annotation results.
type ResultWriter interface {
	WriteHeader() error
	Write(r Result) error
	Flush() error
}

// Stats summarizes an AnnotateAll run.
type Stats struct {
	Queries int // rows written
	Matched int // rows with at least one gene
}

// AnnotateAll annotates every query from reader and writes the results to
// writer in input order. The caller writes the header. On failure, rows
// annotated so far are flushed before the error is returned.
func (a *Annotator) AnnotateAll(ctx context.Context, reader QueryReader, writer ResultWriter) (Stats, error) {
	workers := a.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	items := make(chan WorkItem, 2*workers)
	var stats Stats

	// The reader stops when the group is cancelled. It reports only the
	// caller's cancellation; a collector failure carries its own error.
	g.Go(func() error {
		defer close(items)
		for seq := 0; ; seq++ {
			if gctx.Err() != nil {
				return ctx.Err()
			}
			q, err := reader.Next()
			if err != nil {
				return fmt.Errorf("read query: %w", err)
			}
			if q == nil {
				return nil
			}
			select {
			case items <- WorkItem{Seq: seq, Query: q}:
			case <-gctx.Done():
				return ctx.Err()
			}
		}
	})

	results := a.ParallelAnnotate(items, workers)

	g.Go(func() error {
		return OrderedCollect(results, func(r Result) error {
			if err := writer.Write(r); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			stats.Queries++
			if r.Matched() {
				stats.Matched++
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		if ferr := writer.Flush(); ferr != nil {
			a.logger.Warn("flush after failure", zap.Error(ferr))
		}
		return stats, err
	}

	if stats.Queries == 0 {
		a.logger.Info("0 positions processed")
	}

	return stats, writer.Flush()
}
