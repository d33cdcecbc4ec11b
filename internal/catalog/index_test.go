package catalog

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/biogo/store/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(intervals ...GenomicInterval) *ChromosomeIndex {
	b := NewBuilder()
	for _, iv := range intervals {
		b.Add("chr1", iv)
	}
	x, _ := b.Build().Index("chr1")
	return x
}

func names(ivs []GenomicInterval) []string {
	var out []string
	for _, iv := range ivs {
		out = append(out, iv.GeneName)
	}
	sort.Strings(out)
	return out
}

func bruteForce(ivs []GenomicInterval, pos int64) []string {
	var out []string
	for _, iv := range ivs {
		if iv.Contains(pos) {
			out = append(out, iv.GeneName)
		}
	}
	sort.Strings(out)
	return out
}

func TestChromosomeIndex_Empty(t *testing.T) {
	x := newChromosomeIndex("chr1", nil)
	assert.Empty(t, x.Overlaps(100))
	assert.Empty(t, x.WindowOverlaps(100, LegacyWindow))
	assert.Zero(t, x.Len())
}

func TestChromosomeIndex_BoundaryInclusive(t *testing.T) {
	x := buildIndex(GenomicInterval{Start: 100, End: 200, GeneName: "BRCA1"})

	assert.Equal(t, []string{"BRCA1"}, names(x.Overlaps(100)), "start boundary inclusive")
	assert.Equal(t, []string{"BRCA1"}, names(x.Overlaps(150)))
	assert.Equal(t, []string{"BRCA1"}, names(x.Overlaps(200)), "end boundary inclusive")
	assert.Empty(t, x.Overlaps(99), "before start")
	assert.Empty(t, x.Overlaps(201), "after end")

	assert.Len(t, x.WindowOverlaps(100, LegacyWindow), 1)
	assert.Len(t, x.WindowOverlaps(200, LegacyWindow), 1)
	assert.Empty(t, x.WindowOverlaps(99, LegacyWindow))
	assert.Empty(t, x.WindowOverlaps(201, LegacyWindow))
}

func TestChromosomeIndex_Overlapping(t *testing.T) {
	x := buildIndex(
		GenomicInterval{Start: 20, End: 60, GeneName: "B"},
		GenomicInterval{Start: 10, End: 50, GeneName: "A"},
	)

	assert.Equal(t, []string{"A", "B"}, names(x.Overlaps(30)))
	assert.Equal(t, []string{"A"}, names(x.Overlaps(15)))
	assert.Equal(t, []string{"B"}, names(x.Overlaps(55)))
	assert.Empty(t, x.Overlaps(61))
}

func TestChromosomeIndex_SortedStable(t *testing.T) {
	x := buildIndex(
		GenomicInterval{Start: 500, End: 600, GeneName: "late"},
		GenomicInterval{Start: 100, End: 110, GeneName: "first"},
		GenomicInterval{Start: 300, End: 400, GeneName: "mid"},
		GenomicInterval{Start: 100, End: 900, GeneName: "second"},
		GenomicInterval{Start: 100, End: 105, GeneName: "third"},
	)

	ivs := x.Intervals()
	for i := 1; i < len(ivs); i++ {
		assert.LessOrEqual(t, ivs[i-1].Start, ivs[i].Start)
	}
	// equal starts keep insertion order
	assert.Equal(t, "first", ivs[0].GeneName)
	assert.Equal(t, "second", ivs[1].GeneName)
	assert.Equal(t, "third", ivs[2].GeneName)

	assert.Equal(t, []int64{100, 100, 100, 300, 500}, x.Starts())
}

func TestChromosomeIndex_IntervalsIsCopy(t *testing.T) {
	x := buildIndex(GenomicInterval{Start: 1, End: 10, GeneName: "G"})
	ivs := x.Intervals()
	ivs[0].GeneName = "mutated"
	assert.Equal(t, []string{"G"}, names(x.Overlaps(5)))
}

func TestChromosomeIndex_LongIntervalBeforeShortOnes(t *testing.T) {
	// A long interval followed by many short ones that end before pos.
	ivs := []GenomicInterval{{Start: 0, End: 1000, GeneName: "long"}}
	for i := 0; i < 50; i++ {
		ivs = append(ivs, GenomicInterval{Start: int64(10 + i), End: int64(20 + i), GeneName: fmt.Sprintf("short%02d", i)})
	}
	x := buildIndex(ivs...)

	assert.Equal(t, []string{"long"}, names(x.Overlaps(500)))
}

func TestChromosomeIndex_DeepNesting(t *testing.T) {
	// 25 nested intervals all containing position 1000.
	var ivs []GenomicInterval
	for i := 0; i < 25; i++ {
		ivs = append(ivs, GenomicInterval{
			Start:    int64(i * 10),
			End:      int64(2000 - i*10),
			GeneName: fmt.Sprintf("G%02d", i),
		})
	}
	x := buildIndex(ivs...)

	assert.Len(t, x.Overlaps(1000), 25, "augmented search finds every nested interval")
}

func TestWindowOverlaps_MissesBeyondWindow(t *testing.T) {
	// The outer interval starts first; 10 short intervals start after it and
	// before the query without covering it. The legacy window never reaches
	// the outer interval.
	ivs := []GenomicInterval{{Start: 0, End: 10000, GeneName: "outer"}}
	for i := 0; i < LegacyWindow; i++ {
		ivs = append(ivs, GenomicInterval{Start: int64(100 + i), End: int64(110 + i), GeneName: fmt.Sprintf("inner%d", i)})
	}
	x := buildIndex(ivs...)

	assert.Equal(t, []string{"outer"}, names(x.Overlaps(5000)))
	assert.Empty(t, x.WindowOverlaps(5000, LegacyWindow), "legacy window misses the outer interval")
	assert.Equal(t, []string{"outer"}, names(x.WindowOverlaps(5000, LegacyWindow+1)), "a wider window reaches it")
}

func TestWindowOverlaps_MoreThanWindowNested(t *testing.T) {
	var ivs []GenomicInterval
	for i := 0; i < 15; i++ {
		ivs = append(ivs, GenomicInterval{Start: int64(i), End: 1000, GeneName: fmt.Sprintf("N%02d", i)})
	}
	x := buildIndex(ivs...)

	assert.Len(t, x.Overlaps(500), 15)
	got := names(x.WindowOverlaps(500, LegacyWindow))
	assert.Len(t, got, LegacyWindow, "only the last window intervals are scanned")
	assert.Equal(t, "N05", got[0])
}

func TestWindowOverlaps_AgreesWhenShallow(t *testing.T) {
	x := buildIndex(
		GenomicInterval{Start: 1000, End: 5000, GeneName: "A"},
		GenomicInterval{Start: 2000, End: 3000, GeneName: "B"},
		GenomicInterval{Start: 4000, End: 8000, GeneName: "C"},
		GenomicInterval{Start: 6000, End: 7000, GeneName: "D"},
		GenomicInterval{Start: 9000, End: 10000, GeneName: "E"},
	)

	for pos := int64(0); pos <= 11000; pos += 250 {
		assert.Equal(t, names(x.Overlaps(pos)), names(x.WindowOverlaps(pos, LegacyWindow)), "pos=%d", pos)
	}
}

// oracleInterval adapts a closed interval to biogo's half-open IntTree.
type oracleInterval struct {
	start, end int
	id         uintptr
	gene       string
}

func (o oracleInterval) Overlap(b interval.IntRange) bool { return o.end > b.Start && o.start < b.End }
func (o oracleInterval) ID() uintptr                      { return o.id }
func (o oracleInterval) Range() interval.IntRange         { return interval.IntRange{Start: o.start, End: o.end} }

type oracleQuery int

func (q oracleQuery) Overlap(b interval.IntRange) bool { return b.Start <= int(q) && int(q) < b.End }

func TestChromosomeIndex_RandomAgainstOracles(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))

	for round := 0; round < 20; round++ {
		n := 1 + rng.IntN(400)
		ivs := make([]GenomicInterval, n)
		tree := &interval.IntTree{}
		for i := range ivs {
			start := rng.Int64N(5000)
			// mix of short features and long nested ones
			length := rng.Int64N(50)
			if rng.IntN(5) == 0 {
				length = rng.Int64N(4000)
			}
			ivs[i] = GenomicInterval{Start: start, End: start + length, GeneName: fmt.Sprintf("g%d", i)}
			require.NoError(t, tree.Insert(oracleInterval{
				start: int(start),
				end:   int(start + length + 1),
				id:    uintptr(i + 1),
				gene:  ivs[i].GeneName,
			}, false))
		}
		x := buildIndex(ivs...)

		for q := 0; q < 200; q++ {
			pos := rng.Int64N(9500) - 100
			got := names(x.Overlaps(pos))

			assert.Equal(t, bruteForce(ivs, pos), got, "round=%d pos=%d", round, pos)

			var want []string
			for _, hit := range tree.Get(oracleQuery(pos)) {
				want = append(want, hit.(oracleInterval).gene)
			}
			sort.Strings(want)
			assert.Equal(t, want, got, "biogo oracle round=%d pos=%d", round, pos)
		}
	}
}

func BenchmarkOverlaps(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	bld := NewBuilder()
	for i := 0; i < 60000; i++ {
		start := rng.Int64N(250_000_000)
		bld.Add("chr1", GenomicInterval{Start: start, End: start + rng.Int64N(100_000), GeneName: fmt.Sprintf("g%d", i)})
	}
	x, _ := bld.Build().Index("chr1")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x.Overlaps(rng.Int64N(250_000_000))
	}
}
