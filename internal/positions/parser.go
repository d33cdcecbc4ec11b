// Package positions reads genomic position queries, one
// "chromosome<TAB>position" pair per line.
package positions

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/genelookup/internal/xopen"
)

// Query is a single position to annotate.
type Query struct {
	Chrom string
	Pos   int64
	Line  int // 1-based line number in the input
}

// ParseError describes a query line that was skipped.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("positions parse error at line %d: %s", e.Line, e.Message)
}

// Parser reads queries from a positions file.
// Blank lines are ignored; malformed lines are logged and skipped.
type Parser struct {
	reader     *xopen.Reader
	lineNumber int
	skipped    int
	logger     *zap.Logger
}

// NewParser opens a positions file ("-" for stdin, gzip detected).
func NewParser(path string) (*Parser, error) {
	r, err := xopen.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open positions file: %w", err)
	}
	return &Parser{reader: r, logger: zap.NewNop()}, nil
}

// NewParserFromReader creates a parser over r.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	xr, err := xopen.Wrap(r)
	if err != nil {
		return nil, fmt.Errorf("open positions stream: %w", err)
	}
	return &Parser{reader: xr, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger used to report skipped lines.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Next reads the next query. Returns nil, nil when there are no more.
func (p *Parser) Next() (*Query, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read positions line %d: %w", p.lineNumber+1, err)
		}
		if err == io.EOF && line == "" {
			return nil, nil
		}
		p.lineNumber++

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		q, perr := parseLine(line, p.lineNumber)
		if perr != nil {
			p.skipped++
			p.logger.Warn("skipping malformed position line",
				zap.Int("line", perr.Line),
				zap.String("reason", perr.Message))
			continue
		}
		return q, nil
	}
}

// LineNumber returns the number of lines consumed so far.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Skipped returns the number of malformed lines skipped so far.
func (p *Parser) Skipped() int {
	return p.skipped
}

// Close closes the parser and releases resources.
func (p *Parser) Close() error {
	return p.reader.Close()
}

func parseLine(line string, lineNumber int) (*Query, *ParseError) {
	fields := strings.Split(line, "\t")
	if len(fields) != 2 {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("expected 2 tab-separated fields, got %d", len(fields)),
		}
	}

	chrom := strings.TrimSpace(fields[0])
	if chrom == "" {
		return nil, &ParseError{Line: lineNumber, Message: "empty chromosome"}
	}

	pos, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("invalid position %q", fields[1]),
		}
	}

	return &Query{Chrom: chrom, Pos: pos, Line: lineNumber}, nil
}
