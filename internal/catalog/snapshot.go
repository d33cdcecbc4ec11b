package catalog

import (
	"encoding/gob"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// FileFingerprint identifies the exact bytes of a file at a location.
// Size and ModTime alone survive cp -p and tar, so Hash covers the content.
type FileFingerprint struct {
	Path    string // absolute
	Size    int64
	ModTime time.Time
	Hash    uint64 // xxhash of the file as stored (compressed if gzipped)
}

// FingerprintFile stats and hashes the file at path.
func FingerprintFile(path string) (FileFingerprint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return FileFingerprint{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return FileFingerprint{}, err
	}
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return FileFingerprint{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return FileFingerprint{
		Path:    abs,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Hash:    h.Sum64(),
	}, nil
}

// SnapshotStore keeps a gob-serialized catalog on disk so repeated runs
// against the same GTF skip parsing:
//
//	{dir}/catalog.gob       (sorted intervals per chromosome)
//	{dir}/catalog.gob.meta  (source fingerprint and load options)
type SnapshotStore struct {
	dir string
}

// snapshot is the on-disk form of a Catalog.
type snapshot struct {
	NormalizeChrom bool
	Chroms         map[string][]GenomicInterval
}

// NewSnapshotStore creates a snapshot store rooted at dir.
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

func (s *SnapshotStore) gobPath() string {
	return filepath.Join(s.dir, "catalog.gob")
}

func (s *SnapshotStore) metaPath() string {
	return filepath.Join(s.dir, "catalog.gob.meta")
}

// Valid checks whether the stored snapshot was built from src with opts.
func (s *SnapshotStore) Valid(src FileFingerprint, opts LoadOptions) bool {
	meta, err := s.readMeta()
	if err != nil {
		return false
	}

	for key, val := range metaValues(src, opts) {
		if meta[key] != val {
			return false
		}
	}

	if _, err := os.Stat(s.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads the stored snapshot and rebuilds its indexes.
func (s *SnapshotStore) Load() (*Catalog, error) {
	f, err := os.Open(s.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open catalog snapshot: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode catalog snapshot: %w", err)
	}

	c := &Catalog{
		indexes:        make(map[string]*ChromosomeIndex, len(snap.Chroms)),
		normalizeChrom: snap.NormalizeChrom,
	}
	for chrom, intervals := range snap.Chroms {
		c.indexes[chrom] = newChromosomeIndex(chrom, intervals)
	}
	return c, nil
}

// Write serializes c and records the fingerprint of the source it came from.
func (s *SnapshotStore) Write(c *Catalog, src FileFingerprint, opts LoadOptions) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	snap := snapshot{
		NormalizeChrom: c.normalizeChrom,
		Chroms:         make(map[string][]GenomicInterval, len(c.indexes)),
	}
	for chrom, x := range c.indexes {
		snap.Chroms[chrom] = x.intervals
	}

	tmp := s.gobPath() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create catalog snapshot: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close catalog snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.gobPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename catalog snapshot: %w", err)
	}

	return s.writeMeta(src, opts)
}

// LoadOrBuild returns the stored catalog when it matches the GTF at path,
// otherwise loads the GTF and refreshes the snapshot. The second result
// reports whether the snapshot was used.
func (s *SnapshotStore) LoadOrBuild(path string, opts LoadOptions) (*Catalog, bool, error) {
	src, err := FingerprintFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("fingerprint gtf file: %w", err)
	}

	if s.Valid(src, opts) {
		c, err := s.Load()
		if err == nil {
			return c, true, nil
		}
		opts.logger().Warn("ignoring unreadable catalog snapshot")
	}

	c, err := Load(path, opts)
	if err != nil {
		return nil, false, err
	}
	if err := s.Write(c, src, opts); err != nil {
		return nil, false, err
	}
	return c, false, nil
}

// Clear removes the stored snapshot files.
func (s *SnapshotStore) Clear() {
	os.Remove(s.gobPath())
	os.Remove(s.metaPath())
}

func metaValues(src FileFingerprint, opts LoadOptions) map[string]string {
	return map[string]string{
		"gtf_path":        src.Path,
		"gtf_size":        strconv.FormatInt(src.Size, 10),
		"gtf_modtime":     src.ModTime.UTC().Format(time.RFC3339Nano),
		"gtf_xxhash":      strconv.FormatUint(src.Hash, 16),
		"feature":         opts.Feature,
		"normalize_chrom": strconv.FormatBool(opts.NormalizeChrom),
	}
}

func (s *SnapshotStore) writeMeta(src FileFingerprint, opts LoadOptions) error {
	vals := metaValues(src, opts)
	var sb strings.Builder
	for _, key := range slices.Sorted(maps.Keys(vals)) {
		fmt.Fprintf(&sb, "%s=%s\n", key, vals[key])
	}
	fmt.Fprintf(&sb, "created_at=%s\n", time.Now().UTC().Format(time.RFC3339))
	return os.WriteFile(s.metaPath(), []byte(sb.String()), 0644)
}

func (s *SnapshotStore) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(s.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
