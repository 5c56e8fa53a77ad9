package bufcache

import "sync"

// The cache is process-wide kernel state (spec §9 "Global mutable state"):
// initialized once via Init, then reached through Default, which panics if
// nobody called Init. Tests that want several independent caches should
// construct them directly with New instead of going through this
// singleton.
var (
	globalMu    sync.Mutex
	globalCache *Cache
)

// Init initializes the process-wide buffer cache. Idempotence is not
// required (spec §4.1); calling it twice simply replaces the singleton.
func Init(cfg Config, device Device) error {
	c, err := New(cfg, device)
	if err != nil {
		return err
	}
	globalMu.Lock()
	globalCache = c
	globalMu.Unlock()
	return nil
}

// Default returns the process-wide buffer cache, panicking if Init has not
// been called yet.
func Default() *Cache {
	globalMu.Lock()
	c := globalCache
	globalMu.Unlock()
	if c == nil {
		panic("bufcache: Default() called before Init()")
	}
	return c
}

// Bread reads block (dev, blockno) from the process-wide cache, returning
// it locked and VALID. This is the spec §6 kernel-facing entry point;
// library callers that manage their own Cache should call (*Cache).Bread
// directly instead.
func Bread(dev DeviceID, blockno BlockNo) (*Buffer, error) {
	return Default().Bread(dev, blockno)
}

// Bwrite writes b's payload through to disk. Precondition: caller holds
// b's sleep lock (returns ErrLockMisuse otherwise).
func Bwrite(b *Buffer) error {
	return Default().Bwrite(b)
}

// Brelse releases b. Precondition: caller holds b's sleep lock (returns
// ErrLockMisuse otherwise). Callers must not touch b after this call.
func Brelse(b *Buffer) error {
	return Default().Brelse(b)
}
