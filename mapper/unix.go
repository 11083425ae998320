//go:build unix

package mapper

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var pageSize = int64(unix.Getpagesize())

func protFor(mode AccessMode) int {
	switch mode {
	case ReadOnly:
		return unix.PROT_READ
	case WriteOnly:
		return unix.PROT_WRITE
	default:
		return unix.PROT_READ | unix.PROT_WRITE
	}
}

func adviceFor(hint Hint) int {
	switch hint {
	case HintSequential:
		return unix.MADV_SEQUENTIAL
	case HintRandom:
		return unix.MADV_RANDOM
	case HintWillNotNeed:
		return unix.MADV_DONTNEED
	default:
		return unix.MADV_NORMAL
	}
}

func mmap(fd uintptr, offset int64, length int64, mode AccessMode) ([]byte, error) {
	return unix.Mmap(int(fd), offset, int(length), protFor(mode), unix.MAP_SHARED)
}

func munmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Munmap(b)
}

func madvise(b []byte, hint Hint) error {
	if hint == HintNormal || len(b) == 0 {
		return nil
	}
	return unix.Madvise(b, adviceFor(hint))
}

// disableReadAhead hints to the kernel that this file will be accessed
// randomly (tile read-back, scanline windows), not sequentially, so it
// should not speculatively prefetch pages beyond what was requested.
func disableReadAhead(f *os.File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}

// preallocateContiguous requests a single contiguous extent for the whole
// file up front, falling back to a plain truncate (a sparse file with no
// contiguity guarantee) when the filesystem does not support fallocate.
func preallocateContiguous(f *os.File, size int64) error {
	err := unix.Fallocate(int(f.Fd()), 0, 0, size)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EOPNOTSUPP) {
		return f.Truncate(size)
	}
	return fmt.Errorf("mapper: fallocate: %w", err)
}

func fsyncFd(f *os.File) error {
	return unix.Fsync(int(f.Fd()))
}

// createUnlinkedTemp creates a file in dir, unlinks it immediately so
// abnormal termination cannot leak it, and returns the still-open handle.
// This relies on POSIX semantics: an open file descriptor keeps its inode
// alive after the last link is removed.
func createUnlinkedTemp(dir, pattern string) (*os.File, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(f.Name()); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
