package catalog

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/genelookup/internal/gtf"
)

// Catalog maps chromosome names to their interval indexes.
// A Catalog is immutable and safe for concurrent queries.
type Catalog struct {
	indexes        map[string]*ChromosomeIndex
	normalizeChrom bool
}

// Index returns the index for chrom.
func (c *Catalog) Index(chrom string) (*ChromosomeIndex, bool) {
	if c.normalizeChrom {
		chrom = NormalizeChrom(chrom)
	}
	x, ok := c.indexes[chrom]
	return x, ok
}

// Chromosomes returns the sorted chromosome names in the catalog.
func (c *Catalog) Chromosomes() []string {
	chroms := make([]string, 0, len(c.indexes))
	for chrom := range c.indexes {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}

// IntervalCount returns the total number of intervals across chromosomes.
func (c *Catalog) IntervalCount() int {
	n := 0
	for _, x := range c.indexes {
		n += x.Len()
	}
	return n
}

// NormalizesChrom reports whether chromosome names are compared without a
// "chr" prefix.
func (c *Catalog) NormalizesChrom() bool {
	return c.normalizeChrom
}

// Builder collects intervals and produces a Catalog.
// A Builder must not be reused after Build.
type Builder struct {
	partitions     map[string][]GenomicInterval
	normalizeChrom bool
	count          int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{partitions: make(map[string][]GenomicInterval)}
}

// SetNormalizeChrom strips a leading "chr" from chromosome names, both when
// adding intervals and when querying the built catalog.
func (b *Builder) SetNormalizeChrom(normalize bool) {
	b.normalizeChrom = normalize
}

// Add appends an interval to chrom's partition. Insertion order breaks ties
// between intervals with equal starts.
func (b *Builder) Add(chrom string, iv GenomicInterval) {
	if b.normalizeChrom {
		chrom = NormalizeChrom(chrom)
	}
	b.partitions[chrom] = append(b.partitions[chrom], iv)
	b.count++
}

// Len returns the number of intervals added so far.
func (b *Builder) Len() int {
	return b.count
}

// Build sorts every partition and returns the finished catalog. The builder
// is left empty and can be reused for another catalog.
func (b *Builder) Build() *Catalog {
	c := &Catalog{
		indexes:        make(map[string]*ChromosomeIndex, len(b.partitions)),
		normalizeChrom: b.normalizeChrom,
	}
	for chrom, intervals := range b.partitions {
		c.indexes[chrom] = newChromosomeIndex(chrom, intervals)
	}
	b.partitions = make(map[string][]GenomicInterval)
	b.count = 0
	return c
}

// LoadOptions configures how a GTF source becomes a catalog.
type LoadOptions struct {
	// Feature keeps only records of this GTF feature type. Empty keeps all.
	Feature string
	// NormalizeChrom matches "chr1" and "1" as the same chromosome.
	NormalizeChrom bool
	Logger         *zap.Logger
}

func (o LoadOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Load parses the GTF file at path and builds a catalog from it.
func Load(path string, opts LoadOptions) (*Catalog, error) {
	p, err := gtf.NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return LoadFrom(p, opts)
}

// LoadFrom builds a catalog from every record p yields.
func LoadFrom(p *gtf.Parser, opts LoadOptions) (*Catalog, error) {
	log := opts.logger()
	p.SetLogger(log)
	p.SetFeatureFilter(opts.Feature)

	b := NewBuilder()
	b.SetNormalizeChrom(opts.NormalizeChrom)

	for {
		rec, err := p.Next()
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		if rec == nil {
			break
		}
		b.Add(rec.Chrom, GenomicInterval{
			Start:    rec.Start,
			End:      rec.End,
			GeneName: rec.GeneName,
		})
	}

	c := b.Build()
	log.Info("catalog built",
		zap.Int("intervals", c.IntervalCount()),
		zap.Int("chromosomes", len(c.indexes)),
		zap.Int("skipped", p.Skipped()))
	return c, nil
}

// NormalizeChrom removes a leading "chr" prefix.
// GENCODE uses "chr1" where many query files use "1".
func NormalizeChrom(chrom string) string {
	return strings.TrimPrefix(chrom, "chr")
}
