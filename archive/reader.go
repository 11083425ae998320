package archive

import (
	"fmt"
	"io"
	"os"
	"sort"

	aspec "github.com/nyzil/tilepyramid/archive/spec"
	"github.com/nyzil/tilepyramid/tile"
)

// Archive is a read-only handle on a packaged pyramid file, opened once
// and queried by (level, row, col) many times.
type Archive struct {
	file    *os.File
	header  *aspec.Header
	levels  []aspec.LevelInfo
	entries []aspec.Entry
}

// OpenArchive opens and validates a packaged pyramid file, reading and
// decompressing its directory once up front.
func OpenArchive(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}

	a, err := openFrom(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

func openFrom(f *os.File) (*Archive, error) {
	headerBuf := make([]byte, aspec.HeaderLength)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidArchive, err)
	}
	header, err := aspec.DeserializeHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	levelTableBuf := make([]byte, header.LevelTableLength)
	if _, err := f.ReadAt(levelTableBuf, int64(header.LevelTableOffset)); err != nil {
		return nil, fmt.Errorf("%w: read level table: %v", ErrInvalidArchive, err)
	}
	levels, err := aspec.DeserializeLevelTable(levelTableBuf, int(header.LevelCount))
	if err != nil {
		return nil, err
	}

	dirCompressed := make([]byte, header.DirectoryLength)
	if _, err := f.ReadAt(dirCompressed, int64(header.DirectoryOffset)); err != nil {
		return nil, fmt.Errorf("%w: read directory: %v", ErrInvalidArchive, err)
	}
	dirRaw, err := aspec.Decompress(dirCompressed)
	if err != nil {
		return nil, err
	}
	entries, err := aspec.DeserializeDirectory(dirRaw)
	if err != nil {
		return nil, err
	}

	return &Archive{file: f, header: header, levels: levels, entries: entries}, nil
}

func (a *Archive) Close() error { return a.file.Close() }

// LevelCount and LevelGeometry report the packaged levels' count and
// geometry. Archive has no Level method, so it does not satisfy
// PyramidSource or export.PyramidSource and cannot stand in for a live
// pyramid there.
func (a *Archive) LevelCount() int { return len(a.levels) }

func (a *Archive) LevelGeometry(level int) (tile.Geometry, bool) {
	if level < 0 || level >= len(a.levels) {
		return tile.Geometry{}, false
	}
	li := a.levels[level]
	return tile.NewGeometry(int(li.Level), int(li.Width), int(li.Height)), true
}

// ReadTile looks up addr in the directory and reads its bytes.
func (a *Archive) ReadTile(addr tile.Addr) ([]byte, error) {
	li, ok := a.levelInfo(addr.Level)
	if !ok {
		return nil, fmt.Errorf("archive: level %d not present", addr.Level)
	}
	code := aspec.EncodeTileCode(addr, li.Cols, li.Rows)
	key := aspec.EncodeKey(addr.Level, code)

	entry, ok := aspec.FindEntry(a.entries, key)
	if !ok {
		return nil, fmt.Errorf("archive: tile %+v not found", addr)
	}
	buf := make([]byte, entry.Length)
	if _, err := a.file.ReadAt(buf, int64(a.header.TileDataOffset+entry.Offset)); err != nil {
		return nil, fmt.Errorf("archive: read tile %+v: %w", addr, err)
	}
	return buf, nil
}

// VisitTiles walks every tile in directory (Hilbert-clustered) order.
func (a *Archive) VisitTiles(visitor func(tile.Addr, []byte) error) error {
	entries := append([]aspec.Entry(nil), a.entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Offset < entries[j].Offset })

	for _, e := range entries {
		level, code := aspec.DecodeKey(e.Key)
		li, ok := a.levelInfo(level)
		if !ok {
			return fmt.Errorf("archive: entry references missing level %d", level)
		}
		addr := aspec.DecodeTileCode(level, code, li.Cols, li.Rows)

		buf := make([]byte, e.Length)
		if _, err := a.file.ReadAt(buf, int64(a.header.TileDataOffset+e.Offset)); err != nil {
			return fmt.Errorf("archive: read tile %+v: %w", addr, err)
		}
		if err := visitor(addr, buf); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) levelInfo(level uint32) (aspec.LevelInfo, bool) {
	for _, li := range a.levels {
		if li.Level == level {
			return li, true
		}
	}
	return aspec.LevelInfo{}, false
}

var _ io.Closer = (*Archive)(nil)
