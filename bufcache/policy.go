package bufcache

// Policy is the eviction/admission strategy interface from spec §4.6. Every
// method runs with the cache lock held; none may block or suspend — the
// same discipline the cache lock itself enforces on its callers.
//
// Three variants are required by spec §2/§4.6: Recency (MRU), Frequency
// (LFU), and Two-Queue (main + ghost). All three share this interface so a
// Cache can be built against any one of them without further changes,
// mirroring the multi-capability LRUCache interface in the teacher's
// buffer_pool/buffer_lru.go (Set/Get/Remove/Has/SetYoung/GetYoung/...).
type Policy interface {
	// OnHit is called when bget finds b already resident via the cache
	// directory (spec §4.2 step 1).
	OnHit(b *Buffer)

	// OnInsert is called after a miss has been resolved and b's identity
	// has just been (re)assigned. promotedFromGhost is true if the
	// identity was found in a ghost list (Two-Queue only; always false
	// for the other policies).
	OnInsert(b *Buffer, promotedFromGhost bool)

	// OnRelease is called from Brelse once a buffer's refcnt has reached
	// zero under the cache lock. Not every policy reorders on release —
	// see spec §9's Open Question, resolved per-policy below.
	OnRelease(b *Buffer)

	// SelectVictim chooses an unpinned, clean buffer to reuse (spec §4.2
	// step 2, invariant P2). It returns (nil, false) only when every buffer
	// the policy tracks is pinned or dirty. bufs is the cache's pool; the
	// three built-in policies ignore it and scan the buffers they were
	// seeded with instead.
	SelectVictim(bufs []*Buffer) (*Buffer, bool)

	// GhostHit reports whether id is recorded in a ghost list (identity
	// known to have been recently evicted) and, if so, consumes the
	// ghost entry. Policies without a ghost list always return false.
	GhostHit(id Identity) bool
}
