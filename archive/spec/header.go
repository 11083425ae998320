// Package spec defines the on-disk layout of a packaged pyramid archive:
// a fixed header, a Hilbert-clustered gzip-compressed tile directory, and
// a contiguous tile data region. Adapted from a web-map single-file tile
// archive format to this module's per-level Row/Col address space.
package spec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	headerMagic   uint64 = 0x52594d4950 // "PIMYR"
	HeaderVersion uint8  = 1
)

// HeaderLength is the fixed, directly binary.Read/Write-able prefix of
// every archive file.
var HeaderLength = binary.Size(Header{})

var (
	ErrInvalidArchive = errors.New("archive: invalid or unrecognized file")
	ErrUnsupportedVersion = errors.New("archive: unsupported version")
)

// Header describes a packaged pyramid: tile side (always tile.Size, but
// recorded so a reader never has to import this build's constant to stay
// correct), level count, and the byte ranges of the directory and tile
// data regions. Per-level geometry (width/height/cols/rows) follows the
// header as a small fixed-size table, LevelCount entries long.
type Header struct {
	Magic           uint64
	Version         uint8
	Clustered       uint8
	Reserved        uint16
	TileSide        uint32
	LevelCount      uint32
	DirectoryOffset uint64
	DirectoryLength uint64
	TileDataOffset  uint64
	TileDataLength  uint64
	LevelTableOffset uint64
	LevelTableLength uint64
}

// LevelInfo is one row of the fixed-size level table following the
// header: a level's pixel dimensions and tile-grid shape, needed to
// reconstruct tile.Geometry without re-deriving it from width/height
// alone (which would require level 0's dimensions plus every halving
// step — this is simpler and self-describing per level).
type LevelInfo struct {
	Level  uint32
	Width  uint32
	Height uint32
	Cols   uint32
	Rows   uint32
}

func SerializeHeader(h *Header) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, h)
	return buf.Bytes()
}

func DeserializeHeader(data []byte) (*Header, error) {
	h := Header{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if h.Magic != headerMagic {
		return nil, ErrInvalidArchive
	}
	if h.Version != HeaderVersion {
		return nil, fmt.Errorf("%w: got version %d, want %d", ErrUnsupportedVersion, h.Version, HeaderVersion)
	}
	return &h, nil
}

func SerializeLevelTable(levels []LevelInfo) []byte {
	var buf bytes.Buffer
	for _, l := range levels {
		binary.Write(&buf, binary.LittleEndian, l)
	}
	return buf.Bytes()
}

func DeserializeLevelTable(data []byte, count int) ([]LevelInfo, error) {
	levels := make([]LevelInfo, count)
	r := bytes.NewReader(data)
	for i := range levels {
		if err := binary.Read(r, binary.LittleEndian, &levels[i]); err != nil {
			return nil, fmt.Errorf("%w: level table: %v", ErrInvalidArchive, err)
		}
	}
	return levels, nil
}

// NewHeader returns a zero-valued header with the magic and version
// stamped, ready for its offset/length fields to be filled in as the
// packager lays out the file.
func NewHeader() Header {
	return Header{Magic: headerMagic, Version: HeaderVersion, Clustered: 1}
}
