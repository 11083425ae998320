// Package mapper owns the per-level backing files of a pyramid and hands
// out scoped memory-map windows over them. It is the only package that
// talks to the OS's mmap/fallocate/madvise/fsync primitives directly;
// everything above it (downsampling, tile building, streaming) works in
// terms of Window.Bytes slices.
package mapper

import (
	"fmt"
	"log/slog"

	"github.com/nyzil/tilepyramid/tile"
)

// Mapper owns one backing file per pyramid level. Levels are created in
// order as the caller learns their dimensions (level 0 first, from the
// decoded header; levels 1..L-1 once downsampling begins).
type Mapper struct {
	logger  *slog.Logger
	tempDir string
	levels  map[int]*Level
}

type Option func(*Mapper)

// WithLogger injects a structured logger; the default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) { m.logger = logger }
}

// WithTempDir overrides where level backing files are created. Empty
// string (the default) uses the host's default temp directory via
// os.CreateTemp.
func WithTempDir(dir string) Option {
	return func(m *Mapper) { m.tempDir = dir }
}

func New(opts ...Option) *Mapper {
	m := &Mapper{
		logger: slog.New(slog.DiscardHandler),
		levels: make(map[int]*Level),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateLevel computes a level's geometry, creates a unique unlinked
// backing file, requests a contiguous preallocation hint, and truncates it
// to its full mapped size. Geometries with Empty() true (a level halved
// past the source's last bit) are rejected: the caller must skip creating
// such levels entirely rather than asking for a zero-size file.
func (m *Mapper) CreateLevel(level, width, height int) (*Level, error) {
	geometry := tile.NewGeometry(level, width, height)
	if geometry.Empty() {
		return nil, fmt.Errorf("mapper: level %d has empty geometry (%dx%d); caller must skip it", level, width, height)
	}

	f, err := createUnlinkedTemp(m.tempDir, fmt.Sprintf("pyramid-level-%d-*.tiles", level))
	if err != nil {
		return nil, fmt.Errorf("mapper: create level %d: %w", level, err)
	}

	if err := disableReadAhead(f); err != nil {
		m.logger.Debug("mapper: disable read-ahead failed", "level", level, "err", err)
	}

	if err := preallocateContiguous(f, geometry.MappedSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("mapper: preallocate level %d: %w", level, err)
	}
	if err := f.Truncate(geometry.MappedSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("mapper: size level %d: %w", level, err)
	}

	l := newLevel(f, geometry, m.logger)
	m.levels[level] = l
	m.logger.Debug("mapper: created level", "level", level, "width", width, "height", height, "mapped_size", geometry.MappedSize)
	return l, nil
}

// Level returns a previously created level, or false if none exists yet.
func (m *Mapper) Level(level int) (*Level, bool) {
	l, ok := m.levels[level]
	return l, ok
}

// Levels returns every created level, ordered by level index, for callers
// that need to walk the whole pyramid. (The Archive Packager and the XYZ
// Exporter walk levels through pyramid.Pyramid.Level, not through this.)
func (m *Mapper) Levels() []*Level {
	out := make([]*Level, 0, len(m.levels))
	for i := 0; i < len(m.levels); i++ {
		if l, ok := m.levels[i]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Close releases every level's file handle. Because the files were opened
// unlinked, the kernel reclaims their storage once the last reference
// (including any outstanding tile windows) drops.
func (m *Mapper) Close() error {
	var firstErr error
	for _, l := range m.levels {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
