// Package output provides annotation output formatters.
package output

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"

	"github.com/inodb/genelookup/internal/annotate"
)

// Columns is the exact header of the annotation table.
var Columns = []string{"chromosome", "position", "gene"}

// CSVWriter writes results as a comma-separated table.
// A gene field listing several genes is quoted per RFC 4180.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter creates a new CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// WriteHeader writes the header line.
func (cw *CSVWriter) WriteHeader() error {
	return cw.w.Write(Columns)
}

// Write writes a single result row.
func (cw *CSVWriter) Write(r annotate.Result) error {
	return cw.w.Write([]string{
		r.Chrom,
		strconv.FormatInt(r.Pos, 10),
		r.GeneField(),
	})
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}

// MultiWriter duplicates every call to each of its writers, in order.
type MultiWriter struct {
	writers []annotate.ResultWriter
}

// NewMultiWriter creates a writer that fans out to writers.
func NewMultiWriter(writers ...annotate.ResultWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteHeader writes the header of every writer.
func (m *MultiWriter) WriteHeader() error {
	for _, w := range m.writers {
		if err := w.WriteHeader(); err != nil {
			return err
		}
	}
	return nil
}

// Write writes r to every writer, stopping at the first error.
func (m *MultiWriter) Write(r annotate.Result) error {
	for _, w := range m.writers {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every writer, even after a failure, and returns all errors.
func (m *MultiWriter) Flush() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
