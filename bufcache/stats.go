package bufcache

import "sync/atomic"

// stats holds the cache's observability counters. They are not part of the
// correctness contract (spec §6) — grounded on buffer_pool/buffer_pool.go's
// RecordPageHit/RecordPageMiss and buffer_lru.go's embedded *stats.
type stats struct {
	hits      uint64
	misses    uint64
	ghostHits uint64
	reads     uint64
	writes    uint64
	evictions uint64
}

func (s *stats) recordHit()      { atomic.AddUint64(&s.hits, 1) }
func (s *stats) recordMiss()     { atomic.AddUint64(&s.misses, 1) }
func (s *stats) recordGhostHit() { atomic.AddUint64(&s.ghostHits, 1) }
func (s *stats) recordRead()     { atomic.AddUint64(&s.reads, 1) }
func (s *stats) recordWrite()    { atomic.AddUint64(&s.writes, 1) }
func (s *stats) recordEviction() { atomic.AddUint64(&s.evictions, 1) }

// Stats is a point-in-time snapshot of the cache's hit/miss counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	GhostHits uint64
	Reads     uint64
	Writes    uint64
	Evictions uint64
}

// HitRatio returns Hits / (Hits + Misses), or 0 if there have been no
// lookups yet.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s *stats) snapshot() Stats {
	return Stats{
		Hits:      atomic.LoadUint64(&s.hits),
		Misses:    atomic.LoadUint64(&s.misses),
		GhostHits: atomic.LoadUint64(&s.ghostHits),
		Reads:     atomic.LoadUint64(&s.reads),
		Writes:    atomic.LoadUint64(&s.writes),
		Evictions: atomic.LoadUint64(&s.evictions),
	}
}
