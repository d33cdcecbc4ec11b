package coverage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const sampleTable = "chrom\tstart\tend\tlength\tname\t%gc\tmean_coverage\n" +
	"chr1\t1\t100\t100\tt1\t0.23\t100.0\n" +
	"chr1\t200\t300\t100\tt2\t0.27\t50.5\n" +
	"chr1\t400\t500\t100\tt3\t0.05\t10\n" +
	"chr1\t600\t700\t100\tt4\t0.61\t33.333\n" +
	"chr1\t800\t900\t100\tt5\t0.1\t20\n"

func TestBinStart(t *testing.T) {
	tests := []struct {
		gc   float64
		want int
	}{
		{0, 0},
		{0.05, 0},
		{0.1, 10},
		{0.23, 20},
		{0.999, 90},
		{1, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BinStart(tt.gc), "gc=%v", tt.gc)
	}
}

func TestSummarizeGC(t *testing.T) {
	bins, err := SummarizeGC(strings.NewReader(sampleTable))
	require.NoError(t, err)

	assert.Equal(t, []GCBin{
		{Start: 0, Label: "0-10", MeanCoverage: 10, Targets: 1},
		{Start: 10, Label: "10-20", MeanCoverage: 20, Targets: 1},
		{Start: 20, Label: "20-30", MeanCoverage: 75.25, Targets: 2},
		{Start: 60, Label: "60-70", MeanCoverage: 33.33, Targets: 1},
	}, bins)
}

func TestSummarizeGC_SkipsMalformedRows(t *testing.T) {
	table := "%gc\tmean_coverage\n" +
		"0.21\t10\n" +
		"abc\t10\n" +
		"0.22\t\n" +
		"0.23\n" +
		"0.24\t20\n"

	core, logs := observer.New(zap.DebugLevel)
	s := NewSummarizer()
	s.SetLogger(zap.New(core))

	bins, err := s.Summarize(strings.NewReader(table))
	require.NoError(t, err)
	require.Len(t, bins, 1)
	assert.Equal(t, 15.0, bins[0].MeanCoverage)
	assert.Equal(t, 2, bins[0].Targets)
	assert.Equal(t, 3, s.Skipped())
	assert.Equal(t, 3, logs.FilterMessage("skipping coverage row").Len())
}

func TestSummarizeGC_MissingColumns(t *testing.T) {
	bins, err := SummarizeGC(strings.NewReader("gc\tcoverage\n0.2\t10\n"))
	require.NoError(t, err)
	assert.Empty(t, bins)
}

func TestSummarizeGC_Empty(t *testing.T) {
	bins, err := SummarizeGC(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, bins)
}

func TestSummarizeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hs_intervals.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleTable), 0644))

	bins, err := NewSummarizer().SummarizeFile(path)
	require.NoError(t, err)
	assert.Len(t, bins, 4)

	_, err = NewSummarizer().SummarizeFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
