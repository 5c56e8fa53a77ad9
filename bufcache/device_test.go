package bufcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDeviceReadZeroFillsUnwrittenBlocks(t *testing.T) {
	d := NewMemDevice()
	data := make([]byte, 8)
	for i := range data {
		data[i] = 0xFF
	}
	require.NoError(t, d.ReadBlock(0, 0, data))
	for _, b := range data {
		assert.Equal(t, byte(0), b)
	}
}

func TestMemDeviceRoundTrip(t *testing.T) {
	d := NewMemDevice()
	require.NoError(t, d.WriteBlock(1, 2, []byte("abcd")))

	got := make([]byte, 4)
	require.NoError(t, d.ReadBlock(1, 2, got))
	assert.Equal(t, []byte("abcd"), got)

	contents, ok := d.Contents(1, 2)
	require.True(t, ok)
	assert.Equal(t, []byte("abcd"), contents)
}

func TestFileDeviceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := NewFileDevice(path, 16)
	require.NoError(t, err)
	defer d.Close()

	payload := make([]byte, 16)
	copy(payload, []byte("blockdata"))
	require.NoError(t, d.WriteBlock(0, 3, payload))

	got := make([]byte, 16)
	require.NoError(t, d.ReadBlock(0, 3, got))
	assert.Equal(t, payload, got)
}

func TestFileDeviceReadUnwrittenBlockZeroFills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := NewFileDevice(path, 16)
	require.NoError(t, err)
	defer d.Close()

	got := make([]byte, 16)
	for i := range got {
		got[i] = 0xAA
	}
	require.NoError(t, d.ReadBlock(0, 9, got))
	for _, b := range got {
		assert.Equal(t, byte(0), b)
	}
}

func TestDiskRWWriteClearsDirtyAndSetsValid(t *testing.T) {
	dev := NewMemDevice()
	b := &Buffer{Identity: Identity{Dev: 0, BlockNo: 0}, data: make([]byte, 4), sleep: newSleepLock()}
	b.flags = FlagDirty
	copy(b.data, []byte("xyz\x00"))

	require.NoError(t, diskRW(dev, b))
	assert.True(t, b.IsValid())
	assert.False(t, b.IsDirty())

	stored, ok := dev.Contents(0, 0)
	require.True(t, ok)
	assert.Equal(t, b.data, stored)
}

func TestDiskRWReadSetsValid(t *testing.T) {
	dev := NewMemDevice()
	require.NoError(t, dev.WriteBlock(0, 0, []byte("data")))

	b := &Buffer{Identity: Identity{Dev: 0, BlockNo: 0}, data: make([]byte, 4), sleep: newSleepLock()}
	require.NoError(t, diskRW(dev, b))
	assert.True(t, b.IsValid())
	assert.Equal(t, []byte("data"), b.data)
}
