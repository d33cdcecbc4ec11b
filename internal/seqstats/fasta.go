package seqstats

import (
	"bufio"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/inodb/genelookup/internal/xopen"
)

// DefaultTopSequences is the number of sequences reported by default.
const DefaultTopSequences = 10

// SequenceCount is a distinct sequence and the number of records holding it.
type SequenceCount struct {
	Sequence string
	Count    int
	first    int // index of the first record with this sequence
}

// TopSequences returns the k most frequent sequences of the FASTA file at
// path. Multi-line records are joined. Ties keep the order in which the
// sequences first appear. k <= 0 returns every distinct sequence.
func TopSequences(path string, k int) ([]SequenceCount, error) {
	r, err := xopen.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fasta file: %w", err)
	}
	defer r.Close()

	counts := make(map[string]*SequenceCount)
	records := 0
	add := func(seq string) {
		if c, ok := counts[seq]; ok {
			c.Count++
		} else {
			counts[seq] = &SequenceCount{Sequence: seq, Count: 1, first: records}
		}
		records++
	}

	var (
		current strings.Builder
		inSeq   bool
	)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if strings.HasPrefix(line, ">") {
			if inSeq {
				add(current.String())
				current.Reset()
				inSeq = false
			}
			continue
		}
		current.WriteString(line)
		inSeq = true
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read fasta file %s: %w", path, err)
	}
	if inSeq {
		add(current.String())
	}

	top := make([]SequenceCount, 0, len(counts))
	for _, c := range counts {
		top = append(top, *c)
	}
	slices.SortFunc(top, func(a, b SequenceCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.first, b.first)
	})
	if k > 0 && len(top) > k {
		top = top[:k]
	}
	return top, nil
}
