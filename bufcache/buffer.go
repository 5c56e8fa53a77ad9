// Package bufcache implements a policy-pluggable kernel block buffer cache:
// a fixed pool of in-memory buffers sitting between a file-system-shaped
// caller and a block device, deduplicating reads and providing a per-block
// synchronization point via Bread/Bwrite/Brelse.
package bufcache

// DeviceID identifies a block device.
type DeviceID uint32

// BlockNo identifies a block within a device.
type BlockNo uint32

// Identity is the (dev, blockno) pair that uniquely names a cached block.
type Identity struct {
	Dev     DeviceID
	BlockNo BlockNo
}

// key packs an Identity into the map key used by the cache directory, the
// same way manager/page_cache.go's makeKey(spaceID, pageNo uint32) packs a
// page identity into a uint64.
func (id Identity) key() uint64 {
	return uint64(id.Dev)<<32 | uint64(id.BlockNo)
}

// Flags holds the VALID/DIRTY state of a Buffer.
type Flags uint8

const (
	// FlagValid means the payload reflects on-disk state as of some past read.
	FlagValid Flags = 1 << iota
	// FlagDirty means the payload has unflushed modifications.
	FlagDirty
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// Buffer is one slot of the fixed buffer pool. Identity mutates only under
// the cache lock, during the allocation path of bget. The data payload and
// the VALID/DIRTY flags are protected by sleep during I/O (sleep held) and
// by the cache lock otherwise (see spec §5).
type Buffer struct {
	Identity

	flags      Flags
	refcnt     uint32
	data       []byte
	registered bool // true once this slot has held a real (dev, blockno), distinguishing a never-used slot's zero Identity from a legitimate (0, 0) block

	sleep sleepLock

	// Policy-private bookkeeping. Each policy uses only the fields it
	// needs; unused fields sit at their zero value for the others.
	freq     uint32 // Frequency policy: access counter
	lifetime uint32 // Two-Queue policy: refcnt high-water mark across this identity's residency
}

// newBuffers allocates n free buffers of the given block size, as binit
// does in spec §4.1: fresh sleep locks, empty identity, VALID=0, DIRTY=0,
// refcnt=0.
func newBuffers(n int, blockSize int) []*Buffer {
	bufs := make([]*Buffer, n)
	for i := range bufs {
		bufs[i] = &Buffer{data: make([]byte, blockSize), sleep: newSleepLock()}
	}
	return bufs
}

// RefCount returns the buffer's current reference count. Intended for
// tests and diagnostics; callers must not rely on it staying fresh past
// the call (it can change the instant the cache lock is released).
func (b *Buffer) RefCount() uint32 { return b.refcnt }

// IsValid reports whether the VALID flag is set.
func (b *Buffer) IsValid() bool { return b.flags.has(FlagValid) }

// IsDirty reports whether the DIRTY flag is set.
func (b *Buffer) IsDirty() bool { return b.flags.has(FlagDirty) }

// Data returns the buffer's payload. The caller must hold the buffer's
// sleep lock (acquired implicitly by Bread/Bget) before reading or writing
// through the returned slice.
func (b *Buffer) Data() []byte { return b.data }

// evictable reports whether b may be chosen as a victim: unpinned and
// clean (spec invariants I2, I3).
func (b *Buffer) evictable() bool {
	return b.refcnt == 0 && !b.flags.has(FlagDirty)
}
