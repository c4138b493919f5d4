// Package device provides positioned read/write access to the raw block
// device (or regular file) backing a graph store, plus the filesystem
// abstraction needed to fake that device out in tests.
//
// The main types are:
//   - [FS]: interface for opening/locking the backing file
//   - [File]: interface for an open file descriptor (satisfied by [os.File])
//   - [Real]: production implementation using the [os] package
//   - [Fake]: in-memory implementation for tests, with crash injection
//   - [Device]: positioned read/write/sync wrapper around a [File]
package device

import (
	"io"
	"os"
)

// File represents an open file descriptor.
//
// This interface is satisfied by [os.File] and can be used with all
// standard library functions that accept [io.Reader], [io.Writer],
// [io.Seeker], or [io.Closer].
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the file descriptor. Used for [syscall.Flock].
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file.
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk.
	Sync() error
}

// Locker represents a held file lock. Call [Locker.Close] to release it.
type Locker interface {
	io.Closer
}

// FS defines filesystem operations needed to open and lock a device file.
//
// Two implementations are provided:
//   - [Real]: production use, wraps the [os] package and a raw device or file
//   - [Fake]: testing use, an in-memory buffer with optional crash injection
type FS interface {
	// OpenFile opens a device file with the given flags and permissions.
	// See [os.OpenFile]. Use os.O_RDWR to get positioned read/write access.
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// Stat returns file info for path. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Lock acquires an exclusive, process-wide advisory lock guarding
	// concurrent opens of the same device path. Call [Locker.Close] to
	// release it.
	Lock(path string) (Locker, error)
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
