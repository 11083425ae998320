package mapper

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nyzil/tilepyramid/tile"
)

// Level owns one zoom level's backing file plus the two pieces of producer
// state that advance as the pipeline writes into it: Outline (next row
// index to receive scanline writes, streaming mode only) and Row (next
// tile row the Tile Builder has yet to emit). Geometry is fixed at
// creation; Outline and Row are mutated by the pyramid package as the
// build progresses.
type Level struct {
	Geometry tile.Geometry
	Outline  int
	Row      int

	handle *FileHandle
	logger *slog.Logger
}

func newLevel(f *os.File, geometry tile.Geometry, logger *slog.Logger) *Level {
	return &Level{
		Geometry: geometry,
		handle:   newFileHandle(f),
		logger:   logger,
	}
}

// Handle returns the level's reference-counted file descriptor handle, for
// callers that need to keep the file alive past the level's own lifetime.
// Nothing else in this module calls it: the Flush Coordinator is handed
// Fsync, and the archive packager reads through a tile.Reader.
func (l *Level) Handle() *FileHandle {
	return l.handle
}

// MapWhole maps the entire backing file. Used by the whole-image pipeline,
// which prefers one large sequential map over many small windows so the
// kernel can prefetch ahead of the decoder.
func (l *Level) MapWhole(mode AccessMode) (*Window, error) {
	return l.MapWindow(0, l.Geometry.MappedSize, mode, HintSequential)
}

// MapWindow maps exactly [byteOffset, byteOffset+byteLen) of the backing
// file, rounding byteOffset down to the OS page boundary as mmap requires
// and adjusting byteLen upward by the same amount. Window.Bytes is the
// caller's logical slice within the (possibly larger) mapped region.
func (l *Level) MapWindow(byteOffset, byteLen int64, mode AccessMode, hint Hint) (*Window, error) {
	if byteLen <= 0 {
		return nil, fmt.Errorf("mapper: map window: non-positive length %d", byteLen)
	}

	aligned := byteOffset - byteOffset%pageSize
	delta := byteOffset - aligned
	mapLen := byteLen + delta

	base, err := mmap(l.handle.Fd(), aligned, mapLen, mode)
	if err != nil {
		return nil, fmt.Errorf("mapper: map window at level %d offset %d: %w", l.Geometry.Level, byteOffset, err)
	}

	if err := madvise(base, hint); err != nil {
		l.logger.Debug("mapper: madvise failed", "level", l.Geometry.Level, "err", err)
	}

	l.handle.Acquire()
	return &Window{handle: l.handle, base: base, Bytes: base[delta : delta+byteLen]}, nil
}

// TruncateScratch shrinks the file by exactly Geometry.ScratchBytes from
// the end, leaving the file sized to its tiled payload (invariant 4). It
// must be called exactly once per level, after that level's Tile Builder
// pass has completed with final=true.
func (l *Level) TruncateScratch() error {
	if err := l.handle.File().Truncate(l.Geometry.TiledSize()); err != nil {
		return fmt.Errorf("mapper: truncate scratch at level %d: %w", l.Geometry.Level, err)
	}
	return nil
}

// Fsync flushes this level's dirty pages to media. Safe to call
// concurrently with the producer so long as the producer is not writing
// the same pages at the same instant (the Flush Coordinator only ever
// calls this after a level has finished writing).
func (l *Level) Fsync() error {
	return fsyncFd(l.handle.File())
}

// Size reports the backing file's current size on disk.
func (l *Level) Size() (int64, error) {
	info, err := l.handle.File().Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Close releases the level's own reference to its file handle. The
// underlying descriptor stays open until every Window and tile acquired
// from it has also been released.
func (l *Level) Close() error {
	return l.handle.Release()
}
