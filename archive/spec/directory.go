package spec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// Entry is one tile's directory record. Key combines the level and the
// level's Hilbert tile code into a single sortable value, the same
// delta-and-varint-friendly shape a web-map tile archive format uses for
// its (Z,X,Y)-derived tile IDs.
type Entry struct {
	Key    uint64
	Offset uint64
	Length uint32
}

// EncodeKey packs a level and its per-level Hilbert code into one sortable
// uint64. Levels never exceed a few dozen and Hilbert codes never exceed
// side*side, so 24 bits of level headroom is generous.
func EncodeKey(level uint32, code uint64) uint64 {
	return uint64(level)<<40 | (code & (1<<40 - 1))
}

func DecodeKey(key uint64) (level uint32, code uint64) {
	return uint32(key >> 40), key & (1<<40 - 1)
}

// SerializeDirectory writes entries (which must already be sorted by Key)
// as three parallel delta/varint-coded columns: keys, lengths, offsets.
// The offset column collapses to a single zero byte whenever a tile
// immediately follows the previous one in the data region, keeping a
// fully-clustered archive's directory small.
func SerializeDirectory(entries []Entry) []byte {
	buf := make([]byte, 0, len(entries)*8)
	buf = binary.AppendUvarint(buf, uint64(len(entries)))

	last := uint64(0)
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, e.Key-last)
		last = e.Key
	}
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, uint64(e.Length))
	}
	nextOffset := uint64(0)
	for i, e := range entries {
		if i > 0 && e.Offset == nextOffset {
			buf = binary.AppendUvarint(buf, 0)
		} else {
			buf = binary.AppendUvarint(buf, e.Offset+1)
		}
		nextOffset = e.Offset + uint64(e.Length)
	}
	return buf
}

func DeserializeDirectory(data []byte) ([]Entry, error) {
	r := bytes.NewReader(data)
	readUvarint := func() (uint64, error) { return binary.ReadUvarint(r) }

	count, err := readUvarint()
	if err != nil {
		return nil, fmt.Errorf("%w: directory count: %v", ErrInvalidArchive, err)
	}
	entries := make([]Entry, count)

	last := uint64(0)
	for i := range entries {
		d, err := readUvarint()
		if err != nil {
			return nil, fmt.Errorf("%w: directory key %d: %v", ErrInvalidArchive, i, err)
		}
		last += d
		entries[i].Key = last
	}
	for i := range entries {
		v, err := readUvarint()
		if err != nil {
			return nil, fmt.Errorf("%w: directory length %d: %v", ErrInvalidArchive, i, err)
		}
		entries[i].Length = uint32(v)
	}
	prevEnd := uint64(0)
	for i := range entries {
		v, err := readUvarint()
		if err != nil {
			return nil, fmt.Errorf("%w: directory offset %d: %v", ErrInvalidArchive, i, err)
		}
		if v == 0 && i > 0 {
			entries[i].Offset = prevEnd
		} else {
			entries[i].Offset = v - 1
		}
		prevEnd = entries[i].Offset + uint64(entries[i].Length)
	}
	return entries, nil
}

// SortEntries orders entries by Key ascending, the order SerializeDirectory
// requires for its delta coding to stay non-negative.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}

// FindEntry binary-searches a sorted directory for an exact key.
func FindEntry(entries []Entry, key uint64) (Entry, bool) {
	idx := sort.Search(len(entries), func(i int) bool { return entries[i].Key >= key })
	if idx == len(entries) || entries[idx].Key != key {
		return Entry{}, false
	}
	return entries[idx], true
}
