package duckdb

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/inodb/genelookup/internal/annotate"
)

// defaultBatchSize is the number of rows ResultWriter buffers per append.
const defaultBatchSize = 10000

// WriteResults batch-inserts annotation results using the Appender API.
func (s *Store) WriteResults(results []annotate.Result) error {
	if len(results) == 0 {
		return nil
	}
	return s.appendRows("annotation_results", func(appendRow func(...driver.Value) error) error {
		for _, r := range results {
			if err := appendRow(int64(r.Seq), r.Chrom, r.Pos, r.GeneField()); err != nil {
				return fmt.Errorf("append result: %w", err)
			}
		}
		return nil
	})
}

// ClearResults removes all stored annotation results.
func (s *Store) ClearResults() error {
	_, err := s.db.Exec("DELETE FROM annotation_results")
	return err
}

// SearchByGene returns the stored results that list gene, in input order.
func (s *Store) SearchByGene(gene string) ([]annotate.Result, error) {
	rows, err := s.db.Query(`SELECT seq, chrom, pos, genes
		FROM annotation_results
		WHERE list_contains(string_split(genes, ','), ?)
		ORDER BY seq`, gene)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	defer rows.Close()

	var results []annotate.Result
	for rows.Next() {
		var (
			seq   int64
			r     annotate.Result
			genes string
		)
		if err := rows.Scan(&seq, &r.Chrom, &r.Pos, &genes); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Seq = int(seq)
		r.Genes = strings.Split(genes, ",")
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// ResultWriter buffers annotation results and appends them to a Store in
// batches. It satisfies annotate.ResultWriter. The store keeps one run.
type ResultWriter struct {
	store     *Store
	batch     []annotate.Result
	batchSize int
}

// NewResultWriter creates a writer that appends to s.
func NewResultWriter(s *Store) *ResultWriter {
	return &ResultWriter{store: s, batchSize: defaultBatchSize}
}

// WriteHeader starts a new run, replacing results stored by earlier runs.
func (w *ResultWriter) WriteHeader() error {
	w.batch = w.batch[:0]
	if err := w.store.ClearResults(); err != nil {
		return fmt.Errorf("clear previous results: %w", err)
	}
	return nil
}

// Write buffers r, appending the batch once it is full.
func (w *ResultWriter) Write(r annotate.Result) error {
	w.batch = append(w.batch, r)
	if len(w.batch) >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// Flush appends any buffered results.
func (w *ResultWriter) Flush() error {
	if len(w.batch) == 0 {
		return nil
	}
	err := w.store.WriteResults(w.batch)
	w.batch = w.batch[:0]
	return err
}
