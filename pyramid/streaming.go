package pyramid

import (
	"fmt"

	"github.com/nyzil/tilepyramid/decoder"
	"github.com/nyzil/tilepyramid/downsample"
	"github.com/nyzil/tilepyramid/mapper"
	"github.com/nyzil/tilepyramid/tile"
)

// Phase is the streaming build's explicit state machine, per the design
// note that coroutine-shaped incremental decoding is clearer expressed as
// states than as callback soup.
type Phase int

const (
	AwaitingHeader Phase = iota
	StreamingScanlines
	Finalizing
	Done
	Failed
)

func (ph Phase) String() string {
	switch ph {
	case AwaitingHeader:
		return "AwaitingHeader"
	case StreamingScanlines:
		return "StreamingScanlines"
	case Finalizing:
		return "Finalizing"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

type streamState struct {
	dec   decoder.Streaming
	phase Phase

	width, height int
	geoms         []tile.Geometry
	levels        []*mapper.Level
	windows       []*mapper.Window
	finalized     []bool
}

// NewForNetwork starts a pyramid whose pixels arrive incrementally via
// AppendBytes. The image's dimensions, and every level's backing file,
// are created as soon as the header is decodable — not deferred until
// DataFinished.
func NewForNetwork(opts ...Option) *Pyramid {
	p := newPyramid(opts...)
	p.stream = &streamState{
		dec:   decoder.NewScanlineDecoder(),
		phase: AwaitingHeader,
	}
	return p
}

// Phase reports the streaming build's current state.
func (p *Pyramid) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return Done
	}
	return p.stream.phase
}

// AppendBytes feeds more compressed bytes to a network-driven build,
// decoding and tiling as much as has become available.
func (p *Pyramid) AppendBytes(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkFailedLocked(); err != nil {
		return err
	}
	s := p.stream
	if s == nil || s.phase == Done {
		return newError(OutOfRange, "pyramid.AppendBytes", fmt.Errorf("build already finished"))
	}

	if _, err := s.dec.Feed(data); err != nil {
		return p.failLocked(newError(DecoderError, "pyramid.AppendBytes", err))
	}

	if s.phase == AwaitingHeader {
		if !s.dec.HeaderReady() {
			return nil
		}
		if err := p.startStreamingLocked(); err != nil {
			return p.failLocked(err)
		}
	}

	if err := p.drainScanlinesLocked(); err != nil {
		return p.failLocked(err)
	}
	return nil
}

// DataFinished tells a network-driven build no more bytes are coming,
// drains any scanlines still pending, and finalizes every level.
func (p *Pyramid) DataFinished() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkFailedLocked(); err != nil {
		return err
	}
	s := p.stream
	if s == nil || s.phase == Done {
		return nil
	}

	if err := s.dec.Finish(); err != nil {
		return p.failLocked(newError(DecoderError, "pyramid.DataFinished", err))
	}
	if s.phase == AwaitingHeader {
		if err := p.startStreamingLocked(); err != nil {
			return p.failLocked(err)
		}
	}
	if err := p.drainScanlinesLocked(); err != nil {
		return p.failLocked(err)
	}

	s.phase = Finalizing
	for lvl := range s.levels {
		if !s.finalized[lvl] {
			return p.failLocked(newError(IoError, "pyramid.DataFinished", fmt.Errorf("level %d never completed", lvl)))
		}
	}
	p.levels = s.levels
	s.phase = Done
	return nil
}

// failLocked is fail's counterpart for callers already holding p.mu.
func (p *Pyramid) failLocked(err error) error {
	if !p.failed {
		p.failed = true
		p.err = err
		p.logger.Error("pyramid: build failed", "err", err)
	}
	return err
}

// startStreamingLocked creates every level's backing file up front, as
// soon as the source dimensions are known, and opens one persistent
// whole-file window per level to receive scanline writes.
func (p *Pyramid) startStreamingLocked() error {
	s := p.stream
	width, height, _ := s.dec.Header()
	s.width, s.height = width, height

	geom := tile.NewGeometry(0, width, height)
	for {
		p.flush.Wait()
		level, err := p.mapper.CreateLevel(geom.Level, geom.Width, geom.Height)
		if err != nil {
			return newError(IoError, "pyramid.startStreaming", err)
		}
		win, err := level.MapWhole(mapper.ReadWrite)
		if err != nil {
			return newError(IoError, "pyramid.startStreaming", err)
		}
		s.geoms = append(s.geoms, geom)
		s.levels = append(s.levels, level)
		s.windows = append(s.windows, win)
		s.finalized = append(s.finalized, false)

		if p.levelCap > 0 && len(s.levels) >= p.levelCap {
			break
		}
		next := geom.Halved()
		if next.Empty() {
			break
		}
		geom = next
	}
	s.phase = StreamingScanlines
	return nil
}

// drainScanlinesLocked pulls every scanline currently available from the
// decoder, writes it into level 0, cascades an opportunistic decimation
// into every coarser level whose row index the write happens to align
// with, and retiles any tile row that becomes complete as a result.
func (p *Pyramid) drainScanlinesLocked() error {
	s := p.stream
	if s == nil || len(s.levels) == 0 {
		return nil
	}

	rowBuf := make([][]byte, 1)
	rowBuf[0] = make([]byte, s.width*tile.BytesPerPixel)
	for {
		n, err := s.dec.PullScanlines(rowBuf, 1)
		if err != nil {
			return newError(DecoderError, "pyramid.drainScanlines", err)
		}
		if n == 0 {
			break
		}
		if err := p.writeScanlineLocked(0, s.levels[0].Outline, rowBuf[0]); err != nil {
			return err
		}
	}
	return nil
}

// writeScanlineLocked writes one already-decoded scanline of level lvl at
// row y, then cascades a 2x decimation into every coarser level whose row
// index the write lands on an even boundary of, retiling any tile row
// that completes along the way.
func (p *Pyramid) writeScanlineLocked(lvl int, y int, pixels []byte) error {
	s := p.stream
	cur, curLvl, curPixels := y, lvl, pixels

	for {
		geom := s.geoms[curLvl]
		win := s.windows[curLvl]
		row := win.Bytes[geom.ScratchBytes+geom.RowMajorOffset(cur):]
		copy(row[:geom.Width*tile.BytesPerPixel], curPixels[:geom.Width*tile.BytesPerPixel])
		s.levels[curLvl].Outline = cur + 1

		if err := p.retileReadyRowsLocked(curLvl); err != nil {
			return err
		}

		if cur%2 != 0 || curLvl+1 >= len(s.levels) {
			return nil
		}
		nextGeom := s.geoms[curLvl+1]
		if cur/2 >= nextGeom.Height {
			// An odd-height level has one more even row than the next
			// level (height>>1) has rows; that last row has no target.
			return nil
		}
		nextRow := make([]byte, nextGeom.Width*tile.BytesPerPixel)
		downsample.DecimateRow(nextRow, curPixels[:geom.Width*tile.BytesPerPixel], nextGeom.Width)

		curPixels = nextRow
		cur = cur / 2
		curLvl++
	}
}

// retileReadyRowsLocked builds every tile row of level lvl whose full
// scanline span has now been written, and finalizes the level (truncates
// its scratch band, releases its persistent window) once every row is
// built.
func (p *Pyramid) retileReadyRowsLocked(lvl int) error {
	s := p.stream
	level := s.levels[lvl]
	geom := s.geoms[lvl]

	for level.Row < geom.Rows {
		need := min((level.Row+1)*tile.Size, geom.Height)
		if level.Outline < need {
			break
		}
		if err := p.builder.BuildStreamingRow(level, level.Row); err != nil {
			return newError(IoError, "pyramid.retileReadyRows", err)
		}
		level.Row++
	}

	if level.Row == geom.Rows && !s.finalized[lvl] {
		if err := s.windows[lvl].Release(); err != nil {
			return newError(IoError, "pyramid.retileReadyRows", err)
		}
		if err := level.TruncateScratch(); err != nil {
			return newError(IoError, "pyramid.retileReadyRows", err)
		}
		size, err := level.Size()
		if err != nil {
			return newError(IoError, "pyramid.retileReadyRows", err)
		}
		p.flush.Schedule(size, level.Fsync)
		s.finalized[lvl] = true
	}
	return nil
}
