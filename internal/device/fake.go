package device

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"
)

// Fake is an in-memory [FS] for tests. It never touches disk; [Fake.OpenFile]
// returns a [*FakeFile] backed by a growable byte buffer.
//
// Fake is grounded on the same "fake the filesystem" idea the teacher uses
// for fault injection, scoped down to the one thing graphd's durability
// tests need: truncating a write partway through to simulate a crash that
// leaves a block with a stale checksum (spec §4.3's durability contract).
type Fake struct {
	files map[string]*fakeFileState
	locks map[string]bool
}

// NewFake returns an empty in-memory filesystem.
func NewFake() *Fake {
	return &Fake{
		files: make(map[string]*fakeFileState),
		locks: make(map[string]bool),
	}
}

type fakeFileState struct {
	buf *bytes.Buffer
	// crashAfter, if >= 0, makes the NEXT WriteAt on any handle to this file
	// only persist crashAfter bytes of the write before returning a short
	// write (simulating a crash mid-write). It is consumed (reset to -1)
	// once triggered.
	crashAfter int
}

// SetCrashAfterBytes arms a one-shot fault: the next write to path persists
// only n bytes of whatever is written, then reports a short write. Used to
// simulate a torn log-block write in [durability.Durability.AddToLog] (the
// stored checksum then no longer matches the block), or a
// mid-checkpoint-write crash.
func (f *Fake) SetCrashAfterBytes(path string, n int) {
	st := f.stateFor(path)
	st.crashAfter = n
}

func (f *Fake) stateFor(path string) *fakeFileState {
	st, ok := f.files[path]
	if !ok {
		st = &fakeFileState{buf: &bytes.Buffer{}, crashAfter: -1}
		f.files[path] = st
	}

	return st
}

// OpenFile returns a handle sharing the named file's backing buffer.
func (f *Fake) OpenFile(path string, _ int, _ os.FileMode) (File, error) {
	st := f.stateFor(path)

	return &FakeFile{state: st, pos: 0}, nil
}

// Stat reports the size of the named file's backing buffer.
func (f *Fake) Stat(path string) (os.FileInfo, error) {
	st, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}

	return fakeFileInfo{size: int64(st.buf.Len())}, nil
}

// Lock is an in-process lock table: a second Lock of a path fails until
// the first Locker is closed. Fake is only ever used from a single test
// goroutine at a time, and cross-process locking has nothing to fake.
func (f *Fake) Lock(path string) (Locker, error) {
	if f.locks[path] {
		return nil, errors.New("fake: already locked")
	}

	f.locks[path] = true

	return &fakeLock{fs: f, path: path}, nil
}

type fakeLock struct {
	fs   *Fake
	path string
}

func (l *fakeLock) Close() error {
	delete(l.fs.locks, l.path)

	return nil
}

// FakeFile is an in-memory [File] backed by a shared byte buffer, grown on
// demand like a sparse file.
type FakeFile struct {
	state *fakeFileState
	pos   int64
}

func (ff *FakeFile) Read(p []byte) (int, error) {
	data := ff.state.buf.Bytes()
	if ff.pos >= int64(len(data)) {
		return 0, io.EOF
	}

	n := copy(p, data[ff.pos:])
	ff.pos += int64(n)

	return n, nil
}

func (ff *FakeFile) Write(p []byte) (int, error) {
	want := len(p)

	if ff.state.crashAfter >= 0 {
		n := ff.state.crashAfter
		if n > want {
			n = want
		}

		ff.state.crashAfter = -1
		ff.writeAt(p[:n])
		ff.pos += int64(n)

		return n, nil
	}

	ff.writeAt(p)
	ff.pos += int64(want)

	return want, nil
}

// writeAt overlays p onto the backing buffer at the file's current
// position, growing the buffer with zero bytes if needed.
func (ff *FakeFile) writeAt(p []byte) {
	data := ff.state.buf.Bytes()

	end := ff.pos + int64(len(p))
	if end > int64(len(data)) {
		grown := make([]byte, end)
		copy(grown, data)
		data = grown
	} else {
		// Copy so in-place mutation below doesn't alias the old slice.
		data = append([]byte(nil), data...)
	}

	copy(data[ff.pos:end], p)

	ff.state.buf = bytes.NewBuffer(data)
}

func (ff *FakeFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		ff.pos = offset
	case io.SeekCurrent:
		ff.pos += offset
	case io.SeekEnd:
		ff.pos = int64(ff.state.buf.Len()) + offset
	default:
		return 0, errors.New("fake: invalid whence")
	}

	if ff.pos < 0 {
		return 0, errors.New("fake: negative seek")
	}

	return ff.pos, nil
}

func (ff *FakeFile) Close() error { return nil }

func (ff *FakeFile) Fd() uintptr { return 0 }

func (ff *FakeFile) Stat() (os.FileInfo, error) {
	return fakeFileInfo{size: int64(ff.state.buf.Len())}, nil
}

func (ff *FakeFile) Sync() error { return nil }

type fakeFileInfo struct{ size int64 }

func (i fakeFileInfo) Name() string       { return "" }
func (i fakeFileInfo) Size() int64        { return i.size }
func (i fakeFileInfo) Mode() os.FileMode  { return 0o644 }
func (i fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (i fakeFileInfo) IsDir() bool        { return false }
func (i fakeFileInfo) Sys() any           { return nil }

// Compile-time interface checks.
var (
	_ FS   = (*Fake)(nil)
	_ File = (*FakeFile)(nil)
)
