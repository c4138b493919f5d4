package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDevice_WriteThenReadAt(t *testing.T) {
	fsys := NewFake()

	dev, err := Open(fsys, "/dev/fake0")
	require.NoError(t, err)

	defer dev.Close()

	want := []byte("durable graph bytes")
	require.NoError(t, dev.WriteAt(want, 4096))

	got := make([]byte, len(want))
	require.NoError(t, dev.ReadAt(got, 4096))
	require.Equal(t, want, got)
}

func TestDevice_ReadAt_ShortReadIsError(t *testing.T) {
	fsys := NewFake()

	dev, err := Open(fsys, "/dev/fake0")
	require.NoError(t, err)

	defer dev.Close()

	buf := make([]byte, 24)
	err = dev.ReadAt(buf, 0)
	require.Error(t, err, "reading an unformatted device must fail, not silently return zeros")
}

func TestDevice_Open_LocksPath(t *testing.T) {
	fsys := NewFake()

	dev1, err := Open(fsys, "/dev/fake0")
	require.NoError(t, err)

	defer dev1.Close()

	_, err = Open(fsys, "/dev/fake0")
	require.Error(t, err, "a second open of the same path must fail while the first holds the lock")
}

func TestDevice_Close_ReleasesLock(t *testing.T) {
	fsys := NewFake()

	dev1, err := Open(fsys, "/dev/fake0")
	require.NoError(t, err)
	require.NoError(t, dev1.Close())

	dev2, err := Open(fsys, "/dev/fake0")
	require.NoError(t, err)
	require.NoError(t, dev2.Close())
}
