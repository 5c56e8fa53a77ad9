package bufcache

import "container/list"

// twoQueuePromoteThreshold is the lifetime-refcnt bar a buffer must have
// crossed before its identity earns a ghost entry on eviction (the C
// source's "if (b->refcnt >= 3)" in bio.c's bget exhaustion branch).
const twoQueuePromoteThreshold = 3

// TwoQueuePolicy is the main+ghost variant of spec §4.6, inspired by
// 2Q/ARC: a main list of resident buffers (MRU at front) plus a ghost list
// of identity-only entries recording recently-evicted buffers whose
// lifetime refcnt crossed twoQueuePromoteThreshold. A ghost hit promotes
// the subsequent allocation straight to the main list's head and bumps the
// ghost-hit counter (spec §4.2's "promote" edge case).
//
// Grounded on bio.c's bcache.ghead/gbuf structures and the ghost-insertion
// branch in bget; cross-checked against other_examples'
// IvanBrykalov-shardcache twoq.go for the A1in/ghost/promote vocabulary
// (not imported — see DESIGN.md).
type TwoQueuePolicy struct {
	nGhost int

	main      *list.List // Value is *Buffer, front = MRU
	mainElems map[*Buffer]*list.Element

	ghost      *list.List // Value is Identity
	ghostElems map[Identity]*list.Element
}

// NewTwoQueuePolicy constructs a Two-Queue policy whose ghost list holds
// at most nGhost identities.
func NewTwoQueuePolicy(nGhost int) *TwoQueuePolicy {
	if nGhost < 1 {
		nGhost = 1
	}
	return &TwoQueuePolicy{
		nGhost:     nGhost,
		main:       list.New(),
		mainElems:  make(map[*Buffer]*list.Element),
		ghost:      list.New(),
		ghostElems: make(map[Identity]*list.Element),
	}
}

// Seed registers the pool's buffers with the main list, in arbitrary order.
func (p *TwoQueuePolicy) Seed(bufs []*Buffer) {
	for _, b := range bufs {
		p.mainElems[b] = p.main.PushBack(b)
	}
}

func (p *TwoQueuePolicy) moveToFront(b *Buffer) {
	if e, ok := p.mainElems[b]; ok {
		p.main.MoveToFront(e)
	}
}

func (p *TwoQueuePolicy) OnHit(b *Buffer) {
	if b.refcnt > b.lifetime {
		b.lifetime = b.refcnt
	}
	p.moveToFront(b)
}

// promotedFromGhost carries no extra bookkeeping here: moving the buffer
// to the main list's front is the same action whether it arrived as a
// plain miss or a ghost-hit promotion. Cache.Bget records the ghost-hit
// stat itself from GhostHit's return value.
func (p *TwoQueuePolicy) OnInsert(b *Buffer, promotedFromGhost bool) {
	b.lifetime = b.refcnt
	p.moveToFront(b)
}

func (p *TwoQueuePolicy) OnRelease(b *Buffer) {
	if b.refcnt > b.lifetime {
		b.lifetime = b.refcnt
	}
	p.moveToFront(b)
}

func (p *TwoQueuePolicy) SelectVictim(_ []*Buffer) (*Buffer, bool) {
	for e := p.main.Back(); e != nil; e = e.Prev() {
		b := e.Value.(*Buffer)
		if b.evictable() {
			return b, true
		}
	}
	return nil, false
}

// GhostHit reports whether id is in the ghost list, consuming the entry if
// so (spec §4.2: a ghost hit is still a miss — no payload exists — but the
// ensuing allocation must be treated as a promotion).
func (p *TwoQueuePolicy) GhostHit(id Identity) bool {
	e, ok := p.ghostElems[id]
	if !ok {
		return false
	}
	p.ghost.Remove(e)
	delete(p.ghostElems, id)
	return true
}

// onEvict is called by Cache right before it overwrites victim's identity,
// so the policy can record the outgoing identity as a ghost if it earned
// one. This is distinct from OnInsert, which runs after the identity has
// already changed to the new value.
func (p *TwoQueuePolicy) onEvict(victim *Buffer, priorIdentity Identity, hadIdentity bool) {
	if !hadIdentity || victim.lifetime < twoQueuePromoteThreshold {
		return
	}
	if e, ok := p.ghostElems[priorIdentity]; ok {
		p.ghost.Remove(e)
	}
	p.ghostElems[priorIdentity] = p.ghost.PushFront(priorIdentity)
	for p.ghost.Len() > p.nGhost {
		tail := p.ghost.Back()
		if tail == nil {
			break
		}
		delete(p.ghostElems, tail.Value.(Identity))
		p.ghost.Remove(tail)
	}
}
