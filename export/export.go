// Package export writes a finished pyramid out as individual tile files
// in the conventional {level}/{row}/{col} directory layout. Adapted from
// a web-map XYZ directory format's pattern-based reader/writer, retargeted
// from that format's {z}/{x}/{y} placeholders to this module's per-level
// (Row,Col) addressing and its raw ABGR8 tile bytes.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nyzil/tilepyramid/tile"
)

var ErrInvalidPattern = errors.New("export: invalid file pattern")

// Encoding selects how a tile's raw ABGR8 bytes are written to disk.
type Encoding int

const (
	Raw Encoding = iota
	PNG
)

// PyramidSource is the read side of a built pyramid: what ExportTiles
// needs. *pyramid.Pyramid satisfies this directly.
type PyramidSource interface {
	LevelCount() int
	Level(level int) (tile.Geometry, tile.Reader, bool)
}

func validatePattern(pattern string) error {
	for _, p := range []string{"{level}", "{row}", "{col}"} {
		if !strings.Contains(pattern, p) {
			return fmt.Errorf("%w: placeholder %v not found", ErrInvalidPattern, p)
		}
	}
	return nil
}

func formatPattern(pattern string, addr tile.Addr) string {
	r := strings.NewReplacer(
		"{level}", fmt.Sprintf("%d", addr.Level),
		"{row}", fmt.Sprintf("%d", addr.Row),
		"{col}", fmt.Sprintf("%d", addr.Col),
	)
	return r.Replace(pattern)
}

// ExportTiles walks every level of src and writes each tile to a path
// derived from pattern (e.g. "/out/{level}/{row}/{col}.raw"), encoding raw
// ABGR8 bytes either as-is or as a PNG.
func ExportTiles(src PyramidSource, pattern string, encode Encoding) (int, error) {
	if err := validatePattern(pattern); err != nil {
		return 0, err
	}

	count := 0
	for lvl := 0; lvl < src.LevelCount(); lvl++ {
		_, reader, ok := src.Level(lvl)
		if !ok {
			return count, fmt.Errorf("export: level %d missing", lvl)
		}
		visitor, ok := reader.(tile.Visitor)
		if !ok {
			return count, fmt.Errorf("export: level %d reader does not support VisitTiles", lvl)
		}
		err := visitor.VisitTiles(func(addr tile.Addr, data []byte) error {
			encoded, err := encodeTile(data, encode)
			if err != nil {
				return fmt.Errorf("export: encode tile %+v: %w", addr, err)
			}
			path := formatPattern(pattern, addr)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("export: mkdir for %+v: %w", addr, err)
			}
			if err := os.WriteFile(path, encoded, 0o644); err != nil {
				return fmt.Errorf("export: write tile %+v: %w", addr, err)
			}
			count++
			return nil
		})
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

func encodeTile(data []byte, encode Encoding) ([]byte, error) {
	switch encode {
	case Raw:
		return data, nil
	case PNG:
		img := &image.NRGBA{Pix: data, Stride: tile.RowBytes, Rect: image.Rect(0, 0, tile.Size, tile.Size)}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("export: unknown encoding %d", encode)
	}
}
