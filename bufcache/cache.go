package bufcache

import (
	"github.com/zhukovaskychina/blockbuf/internal/xlog"
)

// seeder is implemented by policies that need the full buffer slice handed
// to them once at construction time (binit, spec §4.1).
type seeder interface {
	Seed(bufs []*Buffer)
}

// evictNotifier is implemented by policies that need to observe the
// identity a victim is about to lose, before Cache overwrites it (only
// Two-Queue, for ghost-list admission).
type evictNotifier interface {
	onEvict(victim *Buffer, priorIdentity Identity, hadIdentity bool)
}

// Cache is the buffer pool + cache directory from spec §2: a fixed array
// of buffers, an identity index protected by a short-critical-section
// spin lock, and a pluggable eviction policy. Grounded on
// buffer_pool/buffer_pool.go's BufferPool (config-driven construction,
// free/LRU-backed allocation, read/write-through to a Device).
type Cache struct {
	lock      spinLock
	buffers   []*Buffer
	index     map[uint64]*Buffer
	policy    Policy
	device    Device
	blockSize int
	stats     stats
}

// New constructs a Cache from cfg, wiring it to device. This is the
// spec §4.1 "init()": N buffers with fresh sleep locks and empty
// identity, all registered with the policy in arbitrary order.
func New(cfg Config, device Device) (*Cache, error) {
	policy, err := cfg.buildPolicy()
	if err != nil {
		return nil, err
	}
	bufs := newBuffers(cfg.N, cfg.BlockSize)
	if s, ok := policy.(seeder); ok {
		s.Seed(bufs)
	}
	return &Cache{
		buffers:   bufs,
		index:     make(map[uint64]*Buffer, cfg.N),
		policy:    policy,
		device:    device,
		blockSize: cfg.BlockSize,
	}, nil
}

// Bget implements spec §4.2: returns a buffer identified by (dev, blockno)
// with refcnt incremented and its sleep lock held by the caller. VALID is
// unspecified on return — Bread fixes that via the I/O bridge.
func (c *Cache) Bget(dev DeviceID, blockno BlockNo) (*Buffer, error) {
	id := Identity{Dev: dev, BlockNo: blockno}

	c.lock.Lock()

	// Hit path (spec §4.2 step 1): scan the directory.
	if b, ok := c.index[id.key()]; ok {
		b.refcnt++
		c.policy.OnHit(b)
		c.stats.recordHit()
		c.lock.Unlock()
		b.sleep.acquire()
		return b, nil
	}
	c.stats.recordMiss()

	// Miss path (spec §4.2 step 2): ask the policy for a victim.
	victim, ok := c.policy.SelectVictim(c.buffers)
	if !ok {
		c.lock.Unlock()
		return nil, ErrNoBuffers
	}

	priorIdentity := victim.Identity
	hadIdentity := victim.registered
	promoted := c.policy.GhostHit(id)

	if notifier, ok := c.policy.(evictNotifier); ok {
		notifier.onEvict(victim, priorIdentity, hadIdentity)
	}
	if hadIdentity {
		delete(c.index, priorIdentity.key())
		c.stats.recordEviction()
	}

	victim.Identity = id
	victim.flags = 0
	victim.refcnt = 1
	victim.freq = 1
	victim.lifetime = 1
	victim.registered = true
	c.index[id.key()] = victim

	c.policy.OnInsert(victim, promoted)
	if promoted {
		c.stats.recordGhostHit()
	}

	c.lock.Unlock()

	if hadIdentity {
		xlog.Debugf("evicted dev=%d blockno=%d to make room for dev=%d blockno=%d", priorIdentity.Dev, priorIdentity.BlockNo, id.Dev, id.BlockNo)
	}
	if promoted {
		xlog.Debugf("ghost hit: promoting dev=%d blockno=%d to main", id.Dev, id.BlockNo)
	}

	victim.sleep.acquire()
	return victim, nil
}

// Bread implements spec §4.3: Bget, then fault in the payload via the I/O
// bridge if VALID is not already set.
func (c *Cache) Bread(dev DeviceID, blockno BlockNo) (*Buffer, error) {
	b, err := c.Bget(dev, blockno)
	if err != nil {
		return nil, err
	}
	if !b.IsValid() {
		c.stats.recordRead()
		if err := diskRW(c.device, b); err != nil {
			xlog.Errorf("bread: disk read failed for dev=%d blockno=%d: %v", dev, blockno, err)
			return nil, err
		}
	}
	return b, nil
}

// Bwrite implements spec §4.4: precondition is that the caller holds b's
// sleep lock. DIRTY is set before the I/O bridge runs, so the bridge can
// tell read from write purely from buffer state.
func (c *Cache) Bwrite(b *Buffer) error {
	if !b.sleep.isHeld() {
		return ErrLockMisuse
	}
	b.flags |= FlagDirty
	if err := diskRW(c.device, b); err != nil {
		xlog.Errorf("bwrite: disk write failed for dev=%d blockno=%d: %v", b.Dev, b.BlockNo, err)
		return err
	}
	c.stats.recordWrite()
	return nil
}

// Brelse implements spec §4.5: precondition is that the caller holds b's
// sleep lock. It drops the sleep lock first, then decrements refcnt under
// the cache lock and notifies the policy once refcnt reaches zero.
// Releasing never clears identity; the buffer stays cached and
// discoverable to later lookups. Callers must not touch b after this
// call.
func (c *Cache) Brelse(b *Buffer) error {
	if !b.sleep.isHeld() {
		return ErrLockMisuse
	}
	b.sleep.release()

	c.lock.Lock()
	b.refcnt--
	if b.refcnt == 0 {
		c.policy.OnRelease(b)
	}
	c.lock.Unlock()
	return nil
}

// Stats returns a snapshot of the cache's observability counters (spec §6
// "Observable state").
func (c *Cache) Stats() Stats {
	return c.stats.snapshot()
}
