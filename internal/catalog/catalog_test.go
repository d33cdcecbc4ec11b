package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genelookup/internal/gtf"
)

func TestBuilder_Partitions(t *testing.T) {
	b := NewBuilder()
	b.Add("chr2", GenomicInterval{Start: 20, End: 60, GeneName: "B"})
	b.Add("chr1", GenomicInterval{Start: 100, End: 200, GeneName: "BRCA1"})
	b.Add("chr2", GenomicInterval{Start: 10, End: 50, GeneName: "A"})
	assert.Equal(t, 3, b.Len())

	c := b.Build()
	assert.Equal(t, []string{"chr1", "chr2"}, c.Chromosomes())
	assert.Equal(t, 3, c.IntervalCount())

	x, ok := c.Index("chr2")
	require.True(t, ok)
	assert.Equal(t, "chr2", x.Chrom())
	assert.Equal(t, []int64{10, 20}, x.Starts())

	_, ok = c.Index("chrX")
	assert.False(t, ok)
}

func TestBuilder_ReuseAfterBuild(t *testing.T) {
	b := NewBuilder()
	b.Add("chr1", GenomicInterval{Start: 100, End: 200, GeneName: "BRCA1"})
	first := b.Build()
	assert.Zero(t, b.Len())

	require.NotPanics(t, func() {
		b.Add("chr2", GenomicInterval{Start: 10, End: 50, GeneName: "A"})
	})
	second := b.Build()

	assert.Equal(t, []string{"chr1"}, first.Chromosomes(), "earlier catalog is unaffected")
	assert.Equal(t, []string{"chr2"}, second.Chromosomes())
	assert.Equal(t, 1, second.IntervalCount())
}

func TestBuilder_NormalizeChrom(t *testing.T) {
	b := NewBuilder()
	b.SetNormalizeChrom(true)
	b.Add("chr12", GenomicInterval{Start: 25205246, End: 25250929, GeneName: "KRAS"})
	c := b.Build()

	assert.True(t, c.NormalizesChrom())
	assert.Equal(t, []string{"12"}, c.Chromosomes())

	for _, chrom := range []string{"12", "chr12"} {
		x, ok := c.Index(chrom)
		require.True(t, ok, chrom)
		assert.Len(t, x.Overlaps(25245351), 1)
	}
}

func TestBuilder_NoNormalization(t *testing.T) {
	b := NewBuilder()
	b.Add("chr12", GenomicInterval{Start: 1, End: 2, GeneName: "G"})
	c := b.Build()

	_, ok := c.Index("12")
	assert.False(t, ok, "chromosome names are exact by default")
}

func TestNormalizeChrom(t *testing.T) {
	assert.Equal(t, "1", NormalizeChrom("chr1"))
	assert.Equal(t, "1", NormalizeChrom("1"))
	assert.Equal(t, "X", NormalizeChrom("chrX"))
	assert.Equal(t, "", NormalizeChrom(""))
}

func TestLoad_File(t *testing.T) {
	c, err := Load("../../testdata/sample.gtf", LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"chr1", "chr12", "chr2"}, c.Chromosomes())
	assert.Equal(t, 6, c.IntervalCount())

	x, ok := c.Index("chr2")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, names(x.Overlaps(30)))
	assert.Equal(t, []string{gtf.UnknownGene}, names(x.Overlaps(80)))
}

func TestLoad_FeatureFilter(t *testing.T) {
	c, err := Load("../../testdata/sample.gtf", LoadOptions{Feature: "transcript"})
	require.NoError(t, err)

	assert.Equal(t, []string{"chr1"}, c.Chromosomes())
	assert.Equal(t, 1, c.IntervalCount())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("../../testdata/missing.gtf", LoadOptions{})
	require.Error(t, err)
}

func TestLoadFrom_Reader(t *testing.T) {
	input := "chr1\tsrc\tgene\t100\t200\t.\t+\t.\tgene_name \"BRCA1\"\n"
	p, err := gtf.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	c, err := LoadFrom(p, LoadOptions{NormalizeChrom: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, c.Chromosomes())
}
