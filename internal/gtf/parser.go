// Package gtf reads gene intervals from GTF annotation files.
package gtf

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/genelookup/internal/xopen"
)

// UnknownGene is the gene name given to records without a gene_name attribute.
const UnknownGene = "unknown"

// minFields is the number of tab-separated columns in a GTF record.
const minFields = 9

var geneNamePattern = regexp.MustCompile(`gene_name "([^"]+)"`)

// Record is a single interval read from a GTF line.
type Record struct {
	Chrom    string
	Source   string
	Feature  string
	Start    int64 // inclusive
	End      int64 // inclusive
	GeneName string
	Line     int
}

// Parser reads records from a GTF file.
// Comment, blank, short and unparseable lines are skipped.
type Parser struct {
	reader     *xopen.Reader
	lineNumber int
	skipped    int
	feature    string
	logger     *zap.Logger
}

// NewParser opens a GTF file. Gzip-compressed files are read transparently;
// "-" reads from stdin.
func NewParser(path string) (*Parser, error) {
	r, err := xopen.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gtf file: %w", err)
	}
	return &Parser{reader: r, logger: zap.NewNop()}, nil
}

// NewParserFromReader creates a parser over r.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	xr, err := xopen.Wrap(r)
	if err != nil {
		return nil, fmt.Errorf("open gtf stream: %w", err)
	}
	return &Parser{reader: xr, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger used to report skipped records.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// SetFeatureFilter restricts Next to records of the given feature type
// (column 3, e.g. "gene"). An empty string disables filtering.
func (p *Parser) SetFeatureFilter(feature string) {
	p.feature = feature
}

// Next reads the next record. Returns nil, nil at end of input.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read gtf line %d: %w", p.lineNumber+1, err)
		}
		if err == io.EOF && line == "" {
			return nil, nil
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		rec, perr := parseLine(line)
		if perr != nil {
			p.skipped++
			p.logger.Debug("skipping gtf record",
				zap.Int("line", p.lineNumber),
				zap.String("reason", perr.Error()))
			continue
		}
		if p.feature != "" && rec.Feature != p.feature {
			continue
		}
		rec.Line = p.lineNumber
		return rec, nil
	}
}

// LineNumber returns the number of lines consumed so far.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Skipped returns the number of malformed records skipped so far.
func (p *Parser) Skipped() int {
	return p.skipped
}

// Close closes the parser and releases resources.
func (p *Parser) Close() error {
	return p.reader.Close()
}

// parseLine parses a single non-comment GTF line.
func parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return nil, fmt.Errorf("expected %d fields, got %d", minFields, len(fields))
	}

	start, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}
	end, err := strconv.ParseInt(strings.TrimSpace(fields[4]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid interval [%d, %d]", start, end)
	}

	return &Record{
		Chrom:    fields[0],
		Source:   fields[1],
		Feature:  fields[2],
		Start:    start,
		End:      end,
		GeneName: GeneName(fields[8]),
	}, nil
}

// GeneName extracts the gene_name value from a GTF attribute column,
// returning UnknownGene when it is missing.
func GeneName(attributes string) string {
	m := geneNamePattern.FindStringSubmatch(attributes)
	if m == nil {
		return UnknownGene
	}
	return m[1]
}
