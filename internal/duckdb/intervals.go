package duckdb

import (
	"database/sql/driver"
	"fmt"

	"github.com/inodb/genelookup/internal/catalog"
)

// WriteCatalog replaces the gene_intervals table with every interval of c.
func (s *Store) WriteCatalog(c *catalog.Catalog) error {
	if _, err := s.db.Exec("DELETE FROM gene_intervals"); err != nil {
		return fmt.Errorf("clear gene intervals: %w", err)
	}

	return s.appendRows("gene_intervals", func(appendRow func(...driver.Value) error) error {
		for _, chrom := range c.Chromosomes() {
			x, _ := c.Index(chrom)
			for _, iv := range x.Intervals() {
				if err := appendRow(chrom, iv.Start, iv.End, iv.GeneName); err != nil {
					return fmt.Errorf("append interval: %w", err)
				}
			}
		}
		return nil
	})
}

// IntervalCount returns the number of stored gene intervals.
func (s *Store) IntervalCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT count(*) FROM gene_intervals").Scan(&n); err != nil {
		return 0, fmt.Errorf("count intervals: %w", err)
	}
	return n, nil
}

// GenesAt returns the sorted, distinct names of stored genes whose closed
// interval contains pos.
func (s *Store) GenesAt(chrom string, pos int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT gene_name
		FROM gene_intervals
		WHERE chrom=? AND start_pos<=? AND end_pos>=?
		ORDER BY gene_name`, chrom, pos, pos)
	if err != nil {
		return nil, fmt.Errorf("query genes: %w", err)
	}
	defer rows.Close()

	var genes []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan gene: %w", err)
		}
		genes = append(genes, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genes: %w", err)
	}
	return genes, nil
}
