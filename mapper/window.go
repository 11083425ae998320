package mapper

// Window is a scoped memory-map: Bytes is the caller's logical slice,
// rounded under the hood to the page boundary required by mmap. Every
// Window must be released on all exit paths, including errors — callers
// should defer Release immediately after a successful map.
type Window struct {
	handle   *FileHandle
	base     []byte
	Bytes    []byte
	released bool
}

// Base returns the raw, page-aligned mapped region backing this window.
// Most callers want Bytes; Base exists for callers that need to reason
// about the alignment adjustment themselves.
func (w *Window) Base() []byte {
	return w.base
}

// Release unmaps the window and drops its reference on the level's file
// handle. Safe to call more than once.
func (w *Window) Release() error {
	if w.released {
		return nil
	}
	w.released = true
	err := munmap(w.base)
	if relErr := w.handle.Release(); relErr != nil && err == nil {
		err = relErr
	}
	return err
}
