package durability

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/graphd/internal/device"
)

func newTestDurability(t *testing.T) (*Durability, *device.Fake) {
	t.Helper()

	fsys := device.NewFake()

	dev, err := device.Open(fsys, "/dev/fake0")
	require.NoError(t, err)

	t.Cleanup(func() { dev.Close() })

	return New(dev, DefaultLayout()), fsys
}

func TestFormat_FreshDeviceStartsAtGenerationZero(t *testing.T) {
	d, _ := newTestDurability(t)

	require.NoError(t, d.Format())
	require.Equal(t, uint32(0), d.Generation())
	require.Equal(t, uint32(0), d.Tail())
}

func TestFormat_ExistingValidSuperblockBumpsGeneration(t *testing.T) {
	d, _ := newTestDurability(t)

	require.NoError(t, d.Format())
	require.NoError(t, d.Format())
	require.Equal(t, uint32(1), d.Generation())
}

func TestBumpGeneration_IncrementsAndResetsTail(t *testing.T) {
	d, _ := newTestDurability(t)
	require.NoError(t, d.Format())

	require.NoError(t, d.AddToLog(OpAddNode, 7, 0))
	require.NoError(t, d.BumpGeneration())

	require.Equal(t, uint32(1), d.Generation())
	require.Equal(t, uint32(0), d.Tail())
}

func TestValidate_RejectsCorruptSuperblock(t *testing.T) {
	d, _ := newTestDurability(t)
	require.NoError(t, d.Format())

	sb, err := d.ReadSuperblock()
	require.NoError(t, err)
	require.True(t, d.Validate(sb))

	sb.Generation = 99
	require.False(t, d.Validate(sb), "mutating a field without recomputing the checksum must fail validation")
}
