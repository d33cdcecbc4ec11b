// Package coverage summarizes per-target coverage metrics.
package coverage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/inodb/genelookup/internal/xopen"
)

// Column names read from the per-target table.
const (
	GCColumn       = "%gc"
	CoverageColumn = "mean_coverage"
)

// BinWidth is the width of a GC bin in percent.
const BinWidth = 10

// GCBin is the mean coverage of targets whose GC content falls in
// [Start, Start+BinWidth) percent.
type GCBin struct {
	Start        int
	Label        string
	MeanCoverage float64 // rounded to two decimals
	Targets      int
}

// BinStart returns the start of the bin holding a GC fraction in [0, 1].
func BinStart(gc float64) int {
	return int(gc*10) * BinWidth
}

// Summarizer bins coverage by GC content.
type Summarizer struct {
	logger  *zap.Logger
	skipped int
}

// NewSummarizer creates a new Summarizer.
func NewSummarizer() *Summarizer {
	return &Summarizer{logger: zap.NewNop()}
}

// SetLogger sets the logger used to report skipped rows.
func (s *Summarizer) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Skipped returns the number of malformed rows skipped by the last call.
func (s *Summarizer) Skipped() int {
	return s.skipped
}

// SummarizeFile summarizes the tab-separated table at path.
func (s *Summarizer) SummarizeFile(path string) ([]GCBin, error) {
	r, err := xopen.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coverage table: %w", err)
	}
	defer r.Close()
	return s.Summarize(r)
}

// Summarize reads a tab-separated table whose header names the GCColumn and
// CoverageColumn columns, and returns the mean coverage per GC bin in
// ascending bin order. Rows with a missing or non-numeric value are skipped.
func (s *Summarizer) Summarize(r io.Reader) ([]GCBin, error) {
	s.skipped = 0

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	gcCol, covCol := slices.Index(header, GCColumn), slices.Index(header, CoverageColumn)

	sums := make(map[int]float64)
	counts := make(map[int]int)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				s.skip(perr.Line, perr.Err.Error())
				continue
			}
			return nil, fmt.Errorf("read coverage table: %w", err)
		}

		line, _ := cr.FieldPos(0)
		gc, cov, reason := parseRow(row, gcCol, covCol)
		if reason != "" {
			s.skip(line, reason)
			continue
		}
		bin := BinStart(gc)
		sums[bin] += cov
		counts[bin]++
	}

	bins := make([]GCBin, 0, len(counts))
	for start, n := range counts {
		bins = append(bins, GCBin{
			Start:        start,
			Label:        fmt.Sprintf("%d-%d", start, start+BinWidth),
			MeanCoverage: math.Round(sums[start]/float64(n)*100) / 100,
			Targets:      n,
		})
	}
	slices.SortFunc(bins, func(a, b GCBin) int { return a.Start - b.Start })
	return bins, nil
}

func (s *Summarizer) skip(line int, reason string) {
	s.skipped++
	s.logger.Debug("skipping coverage row", zap.Int("line", line), zap.String("reason", reason))
}

// parseRow returns the GC fraction and coverage of a row, or a reason the
// row cannot be used.
func parseRow(row []string, gcCol, covCol int) (gc, cov float64, reason string) {
	if gcCol < 0 || gcCol >= len(row) {
		return 0, 0, "missing " + GCColumn
	}
	if covCol < 0 || covCol >= len(row) {
		return 0, 0, "missing " + CoverageColumn
	}
	gc, err := strconv.ParseFloat(row[gcCol], 64)
	if err != nil || math.IsNaN(gc) || math.IsInf(gc, 0) {
		return 0, 0, "invalid " + GCColumn
	}
	cov, err = strconv.ParseFloat(row[covCol], 64)
	if err != nil {
		return 0, 0, "invalid " + CoverageColumn
	}
	return gc, cov, ""
}

// SummarizeGC is a convenience wrapper around Summarizer.Summarize.
func SummarizeGC(r io.Reader) ([]GCBin, error) {
	return NewSummarizer().Summarize(r)
}
