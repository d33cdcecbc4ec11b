// Package catalog builds per-chromosome gene interval indexes and answers
// position overlap queries against them.
package catalog

import (
	"math"
	"slices"
	"sort"
)

// LegacyWindow is the backward-scan window of the fixed-window search.
// It only applies when a caller opts into WindowOverlaps.
const LegacyWindow = 10

// GenomicInterval is a named closed range [Start, End].
type GenomicInterval struct {
	Start    int64
	End      int64
	GeneName string
}

// Contains returns true if pos lies within [Start, End].
func (iv GenomicInterval) Contains(pos int64) bool {
	return pos >= iv.Start && pos <= iv.End
}

// ChromosomeIndex holds the intervals of one chromosome sorted by Start,
// ties kept in insertion order. Read-only after construction.
//
// The sorted slice doubles as an implicit balanced binary tree: the root of
// the range [lo, hi) is its midpoint. maxEnd[m] is the largest End in the
// subtree rooted at m, which lets a search skip every subtree that ends
// before the query position.
type ChromosomeIndex struct {
	chrom     string
	intervals []GenomicInterval
	starts    []int64
	maxEnd    []int64
}

// newChromosomeIndex takes ownership of intervals.
func newChromosomeIndex(chrom string, intervals []GenomicInterval) *ChromosomeIndex {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})

	x := &ChromosomeIndex{
		chrom:     chrom,
		intervals: intervals,
		starts:    make([]int64, len(intervals)),
		maxEnd:    make([]int64, len(intervals)),
	}
	for i, iv := range intervals {
		x.starts[i] = iv.Start
	}
	x.augment(0, len(intervals))
	return x
}

// augment fills maxEnd for the subtree covering [lo, hi) and returns its max.
func (x *ChromosomeIndex) augment(lo, hi int) int64 {
	if lo >= hi {
		return math.MinInt64
	}
	mid := int(uint(lo+hi) >> 1)
	m := x.intervals[mid].End
	if l := x.augment(lo, mid); l > m {
		m = l
	}
	if r := x.augment(mid+1, hi); r > m {
		m = r
	}
	x.maxEnd[mid] = m
	return m
}

// Chrom returns the chromosome name the index was built for.
func (x *ChromosomeIndex) Chrom() string {
	return x.chrom
}

// Len returns the number of intervals.
func (x *ChromosomeIndex) Len() int {
	return len(x.intervals)
}

// Intervals returns a copy of the intervals in index order.
func (x *ChromosomeIndex) Intervals() []GenomicInterval {
	return slices.Clone(x.intervals)
}

// Starts returns a copy of the sorted start coordinates.
func (x *ChromosomeIndex) Starts() []int64 {
	return slices.Clone(x.starts)
}

// Overlaps returns every interval containing pos, in index order.
// Correct for any amount of nesting.
func (x *ChromosomeIndex) Overlaps(pos int64) []GenomicInterval {
	return x.search(0, len(x.intervals), pos, nil)
}

func (x *ChromosomeIndex) search(lo, hi int, pos int64, out []GenomicInterval) []GenomicInterval {
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if x.maxEnd[mid] < pos {
			return out
		}
		out = x.search(lo, mid, pos, out)
		// Everything right of mid starts at or after starts[mid].
		if x.starts[mid] > pos {
			return out
		}
		if x.intervals[mid].End >= pos {
			out = append(out, x.intervals[mid])
		}
		lo = mid + 1
	}
	return out
}

// WindowOverlaps is the legacy bounded search: it locates the insertion point
// of pos among the sorted starts and checks only the window intervals right
// before it. Overlapping intervals further back are missed, so results are
// incomplete wherever more than window intervals start between an
// overlapping interval and pos.
func (x *ChromosomeIndex) WindowOverlaps(pos int64, window int) []GenomicInterval {
	idx := sort.Search(len(x.starts), func(i int) bool {
		return x.starts[i] > pos
	})

	var out []GenomicInterval
	for i := max(0, idx-window); i < idx; i++ {
		if x.intervals[i].End >= pos {
			out = append(out, x.intervals[i])
		}
	}
	return out
}
