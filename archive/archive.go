// Package archive packages a finished pyramid into a single portable file:
// a header, a small per-level geometry table, a gzip-compressed
// Hilbert-clustered tile directory, and a contiguous tile data region.
// Adapted from a web-map single-file tile archive format (see
// archive/spec), generalized from that format's global (Z,X,Y) addressing
// to this module's per-level (Row,Col) grids.
package archive

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	aspec "github.com/nyzil/tilepyramid/archive/spec"
	"github.com/nyzil/tilepyramid/tile"
)

// ErrInvalidArchive is re-exported from archive/spec for callers that only
// import this package.
var ErrInvalidArchive = aspec.ErrInvalidArchive

// PyramidSource is the read side of a built pyramid: what PackPyramid
// needs from it. *pyramid.Pyramid satisfies this directly.
type PyramidSource interface {
	LevelCount() int
	Level(level int) (tile.Geometry, tile.Reader, bool)
}

// PackPyramid writes every level of src to a single archive file at path,
// visiting each level's tiles in Hilbert order so the packaged file reads
// back with spatial locality even though the pyramid's own tile.Reader
// only guarantees row-major order.
func PackPyramid(src PyramidSource, path string, opts ...Option) error {
	cfg := packConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", path, err)
	}
	defer f.Close()

	levelCount := src.LevelCount()
	levelInfos := make([]aspec.LevelInfo, levelCount)
	geoms := make([]tile.Geometry, levelCount)
	readers := make([]tile.Reader, levelCount)
	for i := 0; i < levelCount; i++ {
		g, r, ok := src.Level(i)
		if !ok {
			return fmt.Errorf("archive: pack: level %d missing", i)
		}
		geoms[i] = g
		readers[i] = r
		levelInfos[i] = aspec.LevelInfo{Level: uint32(g.Level), Width: uint32(g.Width), Height: uint32(g.Height), Cols: uint32(g.Cols), Rows: uint32(g.Rows)}
	}

	header := aspec.NewHeader()
	header.TileSide = tile.Size
	header.LevelCount = uint32(levelCount)

	levelTable := aspec.SerializeLevelTable(levelInfos)
	headerLen := int64(aspec.HeaderLength)
	header.LevelTableOffset = uint64(headerLen)
	header.LevelTableLength = uint64(len(levelTable))

	if _, err := f.Seek(headerLen, io.SeekStart); err != nil {
		return fmt.Errorf("archive: pack: %w", err)
	}
	if _, err := f.Write(levelTable); err != nil {
		return fmt.Errorf("archive: pack: write level table: %w", err)
	}

	tileDataOffset, err := f.Seek(int64(len(levelTable)), io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("archive: pack: %w", err)
	}
	header.TileDataOffset = uint64(tileDataOffset)

	tw := bufio.NewWriter(f)
	var entries []aspec.Entry
	var tileOffset uint64

	for i := 0; i < levelCount; i++ {
		g, r := geoms[i], readers[i]
		side := aspec.SideFor(uint32(g.Cols), uint32(g.Rows))
		total := side * side
		for code := 0; code < total; code++ {
			addr := aspec.DecodeTileCode(uint32(g.Level), uint64(code), uint32(g.Cols), uint32(g.Rows))
			if addr.Row >= uint32(g.Rows) || addr.Col >= uint32(g.Cols) {
				continue
			}
			data, err := r.ReadTile(addr)
			if err != nil {
				return fmt.Errorf("archive: pack: read tile %+v: %w", addr, err)
			}
			if _, err := tw.Write(data); err != nil {
				return fmt.Errorf("archive: pack: write tile %+v: %w", addr, err)
			}
			entries = append(entries, aspec.Entry{
				Key:    aspec.EncodeKey(uint32(g.Level), uint64(code)),
				Offset: tileOffset,
				Length: uint32(len(data)),
			})
			tileOffset += uint64(len(data))
		}
		cfg.logger.Debug("archive: packed level", "level", g.Level, "tiles", g.Cols*g.Rows)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("archive: pack: flush tile data: %w", err)
	}
	header.TileDataLength = tileOffset

	aspec.SortEntries(entries)
	dirRaw := aspec.SerializeDirectory(entries)
	dirCompressed, err := aspec.Compress(dirRaw)
	if err != nil {
		return fmt.Errorf("archive: pack: %w", err)
	}

	dirOffset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("archive: pack: %w", err)
	}
	if _, err := f.Write(dirCompressed); err != nil {
		return fmt.Errorf("archive: pack: write directory: %w", err)
	}
	header.DirectoryOffset = uint64(dirOffset)
	header.DirectoryLength = uint64(len(dirCompressed))

	if _, err := f.WriteAt(aspec.SerializeHeader(&header), 0); err != nil {
		return fmt.Errorf("archive: pack: write header: %w", err)
	}
	return nil
}

type packConfig struct {
	logger *slog.Logger
}

type Option func(*packConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *packConfig) { c.logger = logger }
}
