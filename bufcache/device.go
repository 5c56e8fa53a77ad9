package bufcache

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Device is the external collaborator from spec §1/§6: a synchronous
// block device the I/O bridge drives via diskRW. The concrete driver is
// explicitly out of scope for this spec; the two implementations below
// exist only as test/demo harnesses, the way the teacher's tests stand in
// a fake basic.SpaceManager/Space in place of real tablespace files.
type Device interface {
	ReadBlock(dev DeviceID, blockno BlockNo, data []byte) error
	WriteBlock(dev DeviceID, blockno BlockNo, data []byte) error
}

// diskRW is the I/O bridge (spec §4.4/§6): it must be called with b's
// sleep lock held, and it reads or writes depending on the DIRTY flag
// alone. On read it sets VALID; on write it clears DIRTY and sets VALID.
func diskRW(dev Device, b *Buffer) error {
	if b.flags.has(FlagDirty) {
		if err := dev.WriteBlock(b.Dev, b.BlockNo, b.data); err != nil {
			return ioFailure("write", b.Identity, err)
		}
		b.flags &^= FlagDirty
		b.flags |= FlagValid
		return nil
	}
	if err := dev.ReadBlock(b.Dev, b.BlockNo, b.data); err != nil {
		return ioFailure("read", b.Identity, err)
	}
	b.flags |= FlagValid
	return nil
}

// MemDevice is an in-memory Device backed by a map, used by the unit
// tests. Zero value is ready to use.
type MemDevice struct {
	mu     sync.Mutex
	blocks map[Identity][]byte
}

// NewMemDevice constructs an empty in-memory device.
func NewMemDevice() *MemDevice {
	return &MemDevice{blocks: make(map[Identity][]byte)}
}

func (d *MemDevice) ReadBlock(dev DeviceID, blockno BlockNo, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if stored, ok := d.blocks[Identity{dev, blockno}]; ok {
		copy(data, stored)
		return nil
	}
	for i := range data {
		data[i] = 0
	}
	return nil
}

func (d *MemDevice) WriteBlock(dev DeviceID, blockno BlockNo, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	d.blocks[Identity{dev, blockno}] = stored
	return nil
}

// Contents returns the raw on-disk bytes for (dev, blockno), letting tests
// assert write-through (spec P5) independently of the cache.
func (d *MemDevice) Contents(dev DeviceID, blockno BlockNo) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.blocks[Identity{dev, blockno}]
	return b, ok
}

// FileDevice is a Device backed by a single os.File, used by
// cmd/bufcachedemo. Block blockno of device dev lives at offset
// blockno*blockSize; dev is advisory (the demo uses a single device).
type FileDevice struct {
	mu        sync.Mutex
	f         *os.File
	blockSize int
}

// NewFileDevice opens (creating if necessary) path as a flat file of
// fixed-size blocks.
func NewFileDevice(path string, blockSize int) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open device file %s: %w", path, err)
	}
	return &FileDevice{f: f, blockSize: blockSize}, nil
}

func (d *FileDevice) offset(blockno BlockNo) int64 {
	return int64(blockno) * int64(d.blockSize)
}

func (d *FileDevice) ReadBlock(_ DeviceID, blockno BlockNo, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.f.ReadAt(data, d.offset(blockno))
	if err != nil && err != io.EOF {
		return err
	}
	// Short/absent block: treat the part past end of file as zero-filled,
	// matching a freshly allocated but never-written disk block.
	for i := n; i < len(data); i++ {
		data[i] = 0
	}
	return nil
}

func (d *FileDevice) WriteBlock(_ DeviceID, blockno BlockNo, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.f.WriteAt(data, d.offset(blockno))
	return err
}

// Close releases the underlying file handle.
func (d *FileDevice) Close() error {
	return d.f.Close()
}
