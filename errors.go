package fmfs

import (
	"errors"
	"syscall"
)

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrNotFound is returned when a path component or item does not exist.
	ErrNotFound = errors.New("fmfs: no such file or directory")

	// ErrInvalid is returned when a path contradicts an item's type, or an
	// item's on-disk TYPE byte is unrecognised.
	ErrInvalid = errors.New("fmfs: invalid argument")

	// ErrNotEmpty is returned by Rmdir on a non-empty directory.
	ErrNotEmpty = errors.New("fmfs: directory not empty")

	// ErrNoSpace is returned when no free block remains in the FAT.
	ErrNoSpace = errors.New("fmfs: no space left on device")
)

// Errno maps an FMFS sentinel error to the syscall.Errno the FUSE adapter
// should surface to the host VFS. Anything it doesn't recognise maps to EIO.
func Errno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ErrInvalid):
		return syscall.EINVAL
	case errors.Is(err, ErrNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, ErrNoSpace):
		return syscall.ENOSPC
	default:
		return syscall.EIO
	}
}
