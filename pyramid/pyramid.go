// Package pyramid ties the mapper, downsample, tilebuilder, flush and
// decoder packages together into the public build and read-back API: a
// multi-resolution tile pyramid built from a whole image, a file path, or
// a stream of network bytes, with tiles read back by (level, row, col).
package pyramid

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nyzil/tilepyramid/decoder"
	"github.com/nyzil/tilepyramid/downsample"
	"github.com/nyzil/tilepyramid/flush"
	"github.com/nyzil/tilepyramid/mapper"
	"github.com/nyzil/tilepyramid/tile"
	"github.com/nyzil/tilepyramid/tilebuilder"
)

// Pyramid is a built (or being-built) tile pyramid. All exported methods
// are safe for concurrent use; a failed pyramid (§7) latches that failure
// permanently rather than risk serving a torn build.
type Pyramid struct {
	logger *slog.Logger

	mapper  *mapper.Mapper
	builder *tilebuilder.Builder
	strat   downsample.Strategy
	flush   *flush.Coordinator
	ownFlush bool

	decoderKind       decoder.Kind
	mapperOpts        []mapper.Option
	levelCap          int // 0 means unbounded: build every level down to 1x1
	flushDiskCache    bool
	memoryConstrained bool

	mu     sync.Mutex
	levels []*mapper.Level // index by level; nil entries are impossible, empty levels are simply absent past the last one
	failed bool
	err    error

	// streaming-only state, nil for whole-image builds
	stream *streamState
}

type Option func(*Pyramid)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pyramid) { p.logger = logger }
}

func WithDownsampleStrategy(kind downsample.Kind) Option {
	return func(p *Pyramid) { p.strat = downsample.Select(kind) }
}

func WithDecoderKind(kind decoder.Kind) Option {
	return func(p *Pyramid) { p.decoderKind = kind }
}

// WithFlushCoordinator injects a Coordinator (tests use a private one via
// flush.New; production callers usually let this default to flush.Global).
func WithFlushCoordinator(c *flush.Coordinator) Option {
	return func(p *Pyramid) { p.flush = c }
}

// WithMapperTempDir overrides where level backing files are created.
func WithMapperTempDir(dir string) Option {
	return func(p *Pyramid) { p.mapperOpts = append(p.mapperOpts, mapper.WithTempDir(dir)) }
}

// WithLevels caps the pyramid at exactly n levels (level 0 plus n-1
// downsampled levels), matching the caller-supplied L of §3/§6 ("2 or 3 in
// typical use"). Without this option a build keeps halving down to a 1x1
// level, which remains useful for tests and tools that want the full
// cascade.
func WithLevels(n int) Option {
	return func(p *Pyramid) { p.levelCap = n }
}

// WithFlushDiskCache lowers the pyramid's own Flush Coordinator threshold
// to a quarter of flush.DefaultThreshold, so new level allocations wait on
// outstanding background fsyncs sooner. Every finalized level is scheduled
// for a background fsync with or without this option.
// Ignored if WithFlushCoordinator supplies an already-configured Coordinator.
func WithFlushDiskCache(enabled bool) Option {
	return func(p *Pyramid) { p.flushDiskCache = enabled }
}

// WithMemoryConstrained(true) behaves as WithFlushDiskCache(true) whatever
// that option is set to, and additionally throttles new level allocations
// until every outstanding flush completes (threshold 0), for hosts
// where the OS buffer cache has no room to absorb writes ahead of fsync.
// Ignored if WithFlushCoordinator supplies an already-configured Coordinator.
func WithMemoryConstrained(enabled bool) Option {
	return func(p *Pyramid) { p.memoryConstrained = enabled }
}

func newPyramid(opts ...Option) *Pyramid {
	p := &Pyramid{
		logger:      slog.New(slog.DiscardHandler),
		strat:       downsample.Select(downsample.Decimate),
		decoderKind: decoder.CgStyleOneShot,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.flush == nil {
		flushOpts := []flush.Option{flush.WithLogger(p.logger)}
		switch {
		case p.memoryConstrained:
			flushOpts = append(flushOpts, flush.WithThreshold(0))
		case p.flushDiskCache:
			flushOpts = append(flushOpts, flush.WithThreshold(flush.DefaultThreshold/4))
		}
		p.flush = flush.New(flushOpts...)
		p.ownFlush = true
	}
	p.mapper = mapper.New(append(p.mapperOpts, mapper.WithLogger(p.logger))...)
	p.builder = tilebuilder.New(tilebuilder.WithLogger(p.logger))
	return p
}

// ImageSize returns level 0's pixel dimensions.
func (p *Pyramid) ImageSize() (width, height int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkFailedLocked(); err != nil {
		return 0, 0, err
	}
	if len(p.levels) == 0 {
		return 0, 0, newError(OutOfRange, "pyramid.ImageSize", fmt.Errorf("no levels built yet"))
	}
	g := p.levels[0].Geometry
	return g.Width, g.Height, nil
}

// LevelCount returns the number of active levels (levels halved past zero
// pixels are never created, per invariant on empty geometries).
func (p *Pyramid) LevelCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.levels)
}

// Level exposes a level's geometry and reader for the delivery-facing
// packages (archive, export) layered on top of a finished build.
func (p *Pyramid) Level(level int) (tile.Geometry, tile.Reader, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if level < 0 || level >= len(p.levels) {
		return tile.Geometry{}, nil, false
	}
	l := p.levels[level]
	return l.Geometry, &levelTileReader{level: l}, true
}

func (p *Pyramid) checkFailedLocked() error {
	if p.failed {
		return fmt.Errorf("%w: %v", ErrFailed, p.err)
	}
	return nil
}

// fail latches the sticky failure flag (§7): once set, every subsequent
// call returns ErrFailed instead of re-attempting I/O.
func (p *Pyramid) fail(err error) error {
	p.mu.Lock()
	if !p.failed {
		p.failed = true
		p.err = err
		p.logger.Error("pyramid: build failed", "err", err)
	}
	p.mu.Unlock()
	return err
}

// Close releases every level's backing file and, if this Pyramid created
// its own Flush Coordinator, shuts that down too.
func (p *Pyramid) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.mapper.Close()
	if p.ownFlush {
		if ferr := p.flush.Close(); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}
