package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bft-labs/patchview/internal/domain"
	"github.com/bft-labs/patchview/internal/ports"
	"github.com/bft-labs/patchview/pkg/log"
)

// DefaultPattern names chunk files by their 1-based acquisition sequence.
const DefaultPattern = "rawData-%d.json"

// ErrMissingChunk is returned when an expected chunk file does not exist.
var ErrMissingChunk = errors.New("chunk file missing")

// ChunkDir implements ports.BatchStore over a directory of chunk files,
// one JSON array of records per fetched chunk.
type ChunkDir struct {
	dir      string
	pattern  string
	match    *regexp.Regexp
	deviceID string
	span     domain.ChunkSpan
	logger   ports.Logger
}

// Option configures a ChunkDir.
type Option func(*ChunkDir)

// WithPattern sets the file name pattern. It must contain exactly one %d.
func WithPattern(pattern string) Option {
	return func(c *ChunkDir) { c.pattern = pattern }
}

// WithDevice tags loaded batches with the device id.
func WithDevice(id string) Option {
	return func(c *ChunkDir) { c.deviceID = id }
}

// WithChunkSpan sets the requested time range. When it covers a positive
// number of chunks, every one of them must be present.
func WithChunkSpan(span domain.ChunkSpan) Option {
	return func(c *ChunkDir) { c.span = span }
}

// WithLogger sets the logger.
func WithLogger(l ports.Logger) Option {
	return func(c *ChunkDir) { c.logger = l }
}

// NewChunkDir creates a ChunkDir rooted at dir.
func NewChunkDir(dir string, opts ...Option) (*ChunkDir, error) {
	c := &ChunkDir{dir: dir, pattern: DefaultPattern}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.NewNoopLogger()
	}
	re, err := patternRegexp(c.pattern)
	if err != nil {
		return nil, err
	}
	c.match = re
	return c, nil
}

// Dir returns the watched directory.
func (c *ChunkDir) Dir() string {
	return c.dir
}

// Matches reports whether name is a chunk file and returns its sequence.
// Only the name Path would produce matches, so "rawData-01.json" is not
// chunk 1.
func (c *ChunkDir) Matches(name string) (int, bool) {
	base := filepath.Base(name)
	m := c.match.FindStringSubmatch(base)
	if m == nil {
		return 0, false
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil || seq < 1 || fmt.Sprintf(c.pattern, seq) != base {
		return 0, false
	}
	return seq, true
}

// Path returns the file path of chunk seq.
func (c *ChunkDir) Path(seq int) string {
	return filepath.Join(c.dir, fmt.Sprintf(c.pattern, seq))
}

// Batches loads every chunk file ordered by sequence.
func (c *ChunkDir) Batches(ctx context.Context) ([]domain.Batch, error) {
	seqs, err := c.sequences()
	if err != nil {
		return nil, err
	}

	if want := c.span.Count(); want > 0 {
		have := make(map[int]bool, len(seqs))
		for _, s := range seqs {
			have[s] = true
		}
		for i := 1; i <= want; i++ {
			if !have[i] {
				return nil, fmt.Errorf("%w: %s", ErrMissingChunk, c.Path(i))
			}
		}
		seqs = seqs[:sort.SearchInts(seqs, want+1)]
	}

	batches := make([]domain.Batch, 0, len(seqs))
	prev := 0
	for _, seq := range seqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if seq != prev+1 {
			c.logger.Warn("gap in chunk sequence",
				ports.Int("after", prev),
				ports.Int("next", seq),
			)
		}
		prev = seq

		b, err := c.Load(seq)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// Load reads a single chunk file.
func (c *ChunkDir) Load(seq int) (domain.Batch, error) {
	path := c.Path(seq)
	records, err := ReadChunk(path)
	if err != nil {
		return domain.Batch{}, err
	}
	b := domain.NewBatch(seq)
	b.ID = filepath.Base(path)
	b.DeviceID = c.deviceID
	for _, r := range records {
		b.Add(r)
	}
	if b.Empty() {
		c.logger.Warn("empty chunk", ports.String("file", b.ID))
	}
	if c.span.Span > 0 {
		b.StartMs, b.EndMs = c.span.Bounds(seq)
	}
	c.logger.Debug("loaded chunk",
		ports.String("file", b.ID),
		ports.Int("records", b.Size()),
	)
	return *b, nil
}

// Save writes b as chunk file b.Seq. Writes are atomic.
func (c *ChunkDir) Save(ctx context.Context, b domain.Batch) (domain.Batch, error) {
	if b.Seq < 1 {
		return domain.Batch{}, fmt.Errorf("save chunk: sequence %d must be positive", b.Seq)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return domain.Batch{}, err
	}
	path := c.Path(b.Seq)
	if err := WriteChunk(path, b.Records); err != nil {
		return domain.Batch{}, err
	}
	b.ID = filepath.Base(path)
	return b, nil
}

func (c *ChunkDir) sequences() ([]int, error) {
	ents, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("%w\n\nPlease verify:\n  - The --batch-dir flag points to the directory holding the chunk files\n  - The directory exists and is readable", err)
	}
	var seqs []int
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		seq, ok := c.Matches(e.Name())
		if !ok {
			if c.match.MatchString(e.Name()) {
				c.logger.Warn("ignoring chunk file with non-canonical name",
					ports.String("file", e.Name()),
				)
			}
			continue
		}
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)
	return seqs, nil
}

// ReadChunk decodes a chunk file. Each element is decoded on its own so a
// malformed record is reported with its position.
func ReadChunk(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", filepath.Base(path), domain.ErrMalformedRecord, err)
	}

	records := make([]domain.Record, 0, len(raw))
	for i, msg := range raw {
		var meta domain.RecordMeta
		if err := json.Unmarshal(msg, &meta); err != nil {
			return nil, fmt.Errorf("%s record %d: %w: %v", filepath.Base(path), i, domain.ErrMalformedRecord, err)
		}
		r, err := meta.ToRecord()
		if err != nil {
			return nil, fmt.Errorf("%s record %d: %w", filepath.Base(path), i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// WriteChunk encodes records as a JSON array in the flat layout.
func WriteChunk(path string, records []domain.Record) error {
	metas := make([]domain.RecordMeta, len(records))
	for i, r := range records {
		metas[i] = r.ToMeta()
	}
	data, err := json.Marshal(metas)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func patternRegexp(pattern string) (*regexp.Regexp, error) {
	if strings.Count(pattern, "%d") != 1 || strings.Count(pattern, "%") != 1 {
		return nil, fmt.Errorf("chunk pattern %q must contain exactly one %%d", pattern)
	}
	parts := strings.SplitN(pattern, "%d", 2)
	return regexp.Compile("^" + regexp.QuoteMeta(parts[0]) + `(\d+)` + regexp.QuoteMeta(parts[1]) + "$")
}
