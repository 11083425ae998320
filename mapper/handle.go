package mapper

import (
	"os"
	"sync/atomic"
)

// FileHandle is a reference-counted wrapper around one level's open file
// descriptor. The level itself holds the first reference for as long as it
// exists; every mapped Window (including the one behind each tile handle
// the pyramid package hands out from TileAt) acquires an additional
// reference for its own lifetime, so the descriptor is not actually closed
// until the level is closed AND every outstanding window has been released. This is the "reference-counted
// handles to file descriptors rather than raw integers" ownership model.
type FileHandle struct {
	file *os.File
	refs atomic.Int64
}

func newFileHandle(f *os.File) *FileHandle {
	h := &FileHandle{file: f}
	h.refs.Store(1)
	return h
}

// Acquire adds a reference and returns the same handle, for chaining into a
// caller's owned state (mirrors the pattern of returning self from a
// retain-style call).
func (h *FileHandle) Acquire() *FileHandle {
	h.refs.Add(1)
	return h
}

func (h *FileHandle) File() *os.File {
	return h.file
}

func (h *FileHandle) Fd() uintptr {
	return h.file.Fd()
}

// Release drops one reference, closing the underlying file once the count
// reaches zero. Safe to call exactly once per Acquire (including the
// implicit one from newFileHandle).
func (h *FileHandle) Release() error {
	if h.refs.Add(-1) == 0 {
		return h.file.Close()
	}
	return nil
}
