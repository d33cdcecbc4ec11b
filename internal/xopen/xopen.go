// Package xopen opens plain or gzip-compressed input files.
package xopen

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// gzip magic number
var gzipMagic = []byte{0x1f, 0x8b}

// Reader is a buffered reader over a possibly decompressed input.
type Reader struct {
	*bufio.Reader
	file *os.File
	gz   *gzip.Reader
}

// Open opens path for reading. Gzip input is detected from its magic bytes,
// not its extension. The path "-" reads from stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return Wrap(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, err := Wrap(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// Wrap returns a Reader over r, transparently decompressing gzip data.
func Wrap(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek input: %w", err)
	}
	if len(magic) < 2 || magic[0] != gzipMagic[0] || magic[1] != gzipMagic[1] {
		return &Reader{Reader: br}, nil
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	return &Reader{Reader: bufio.NewReaderSize(gz, 64*1024), gz: gz}, nil
}

// Close releases the decompressor and the underlying file, if any.
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
