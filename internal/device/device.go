package device

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrShortIO reports a positioned read or write that transferred fewer
// bytes than requested — the on-device analogue of a torn write or a
// read past the end of a not-yet-written region.
var ErrShortIO = errors.New("device: short read/write")

// Device is a raw block device (or a regular file standing in for one)
// opened for positioned, fixed-size record I/O. All offsets are absolute
// byte offsets from the start of the device.
type Device struct {
	file File
	lock Locker
}

// Open opens path for positioned read/write access through fsys, holding
// an exclusive advisory lock on it for the lifetime of the returned
// Device — only one process may have a given device open at a time.
func Open(fsys FS, path string) (*Device, error) {
	lock, err := fsys.Lock(path)
	if err != nil {
		return nil, fmt.Errorf("device: lock %s: %w", path, err)
	}

	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		lock.Close()
		return nil, fmt.Errorf("device: open %s: %w", path, err)
	}

	return &Device{file: f, lock: lock}, nil
}

// ReadAt reads exactly len(buf) bytes starting at offset off. It returns
// [ErrShortIO] if the device has fewer bytes than requested (e.g. a device
// that has never been formatted).
func (d *Device) ReadAt(buf []byte, off int64) error {
	_, err := d.file.Seek(off, io.SeekStart)
	if err != nil {
		return fmt.Errorf("device: seek %d: %w", off, err)
	}

	_, err = io.ReadFull(d.file, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("device: read %d bytes at %d: %w: %w", len(buf), off, ErrShortIO, err)
		}

		return fmt.Errorf("device: read %d bytes at %d: %w", len(buf), off, err)
	}

	return nil
}

// WriteAt writes buf in full starting at offset off. It does not sync;
// callers that need durability call [Device.Sync] afterward.
func (d *Device) WriteAt(buf []byte, off int64) error {
	_, err := d.file.Seek(off, io.SeekStart)
	if err != nil {
		return fmt.Errorf("device: seek %d: %w", off, err)
	}

	n, err := d.file.Write(buf)
	if err != nil {
		return fmt.Errorf("device: write %d bytes at %d: %w", len(buf), off, err)
	}

	if n != len(buf) {
		return fmt.Errorf("device: write %d bytes at %d: wrote %d: %w", len(buf), off, n, ErrShortIO)
	}

	return nil
}

// Sync commits prior writes to stable storage. A successful append is
// only durable once Sync has returned.
func (d *Device) Sync() error {
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("device: sync: %w", err)
	}

	return nil
}

// Size returns the current size of the backing file in bytes.
func (d *Device) Size() (int64, error) {
	info, err := d.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("device: stat: %w", err)
	}

	return info.Size(), nil
}

// Close releases the underlying file descriptor and its advisory lock.
func (d *Device) Close() error {
	if d == nil || d.file == nil {
		return nil
	}

	err := d.file.Close()

	if d.lock != nil {
		if lerr := d.lock.Close(); err == nil {
			err = lerr
		}
	}

	return err
}
