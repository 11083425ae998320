// Package decoder defines the two contracts the pyramid CORE depends on
// for turning compressed bytes into pixels. The specific codecs
// (CoreGraphics-style one-shot, a turbo one-shot, a streaming scanline
// decoder) are explicitly out-of-scope collaborators: the CORE only ever
// talks to these two small interfaces, never to a concrete codec.
package decoder

import "errors"

// PixelFormat is the only format the CORE ever asks a decoder to produce:
// 8-bit ABGR, little-endian in memory (byte order R, G, B, A), alpha
// carried but never interpreted by the CORE.
const PixelFormat = "ABGR8"

// Kind selects which decoder adapter a producer-facing constructor uses.
type Kind int

const (
	CgStyleOneShot Kind = iota
	StreamingScanline
	OneShotTurbo
)

func (k Kind) String() string {
	switch k {
	case CgStyleOneShot:
		return "CgStyleOneShot"
	case StreamingScanline:
		return "StreamingScanline"
	case OneShotTurbo:
		return "OneShotTurbo"
	default:
		return "Unknown"
	}
}

// OneShot decodes an entire compressed image in a single call, writing
// PixelFormat pixels directly into the caller's destination buffer at the
// given row stride. Used by NewFromPath for every decoder Kind, including
// StreamingScanline. NewForNetwork always drives a ScanlineDecoder whatever
// Kind is configured; it never buffers bytes to a temp file and never
// calls a OneShot decoder.
type OneShot interface {
	Decode(input []byte, dst []byte, dstRowBytes int64, width, height int) error
}

// Progress is the outcome of one Feed call on a Streaming decoder.
type Progress int

const (
	// NeedMore means the decoder consumed what it could but cannot make
	// further progress (header incomplete, or mid-scanline) without more
	// input. Not an error: the caller suspends until more bytes arrive.
	NeedMore Progress = iota
	// Progressed means at least the header, or at least one more
	// scanline, became available as a result of this Feed call.
	Progressed
	// Done means the decoder has produced every scanline of the image.
	Done
)

// Streaming decodes a compressed byte stream incrementally as bytes
// arrive. It never blocks: Feed always returns immediately, and
// PullScanlines returns 0 rows rather than waiting for more input.
type Streaming interface {
	// Feed hands more compressed bytes to the decoder. Idempotent with
	// respect to partial input.
	Feed(input []byte) (Progress, error)

	// HeaderReady reports whether width/height/components are known yet.
	HeaderReady() bool
	Header() (width, height, components int)

	// PullScanlines writes up to max fully-decoded scanlines into dst
	// (one []byte per row, each already sized to width*BytesPerPixel),
	// returning how many were written. May return 0 if the decoder is
	// suspended pending more input.
	PullScanlines(dst [][]byte, max int) (int, error)

	// Finish tells the decoder no more bytes are coming; after this,
	// PullScanlines never again returns NeedMore-style 0 unless decoding
	// is genuinely complete or has failed.
	Finish() error

	// Done reports whether every scanline has been delivered.
	Done() bool
}

// ErrDecode is wrapped into any unrecoverable decoder failure (bad header,
// irrecoverable marker desync) — the DecoderError kind at the pyramid
// layer.
var ErrDecode = errors.New("decoder: unrecoverable error")
