package ecs

import "sync/atomic"

// keyPool hands out inner keys. Recycled keys are reused lowest first before
// a new key is minted.
type keyPool struct {
	lock     SpinLock
	recycled bitmask
	next     atomic.Int64
}

func (p *keyPool) get() uint32 {
	p.lock.Lock()
	k := p.recycled.popLowest()
	p.lock.Unlock()
	if k >= 0 {
		return uint32(k)
	}

	n := p.next.Add(1) - 1
	if n > MaxInnerKey {
		fail("create", ErrCapacityExceeded, "inner keys exhausted")
	}
	return uint32(n)
}

func (p *keyPool) put(key uint32) {
	p.lock.Lock()
	p.recycled.grow(int(key) + 1)
	p.recycled.set(int(key))
	p.lock.Unlock()
}

// reserve grows the recycled mask so later puts below n do not allocate.
func (p *keyPool) reserve(n int) {
	p.lock.Lock()
	p.recycled.grow(n)
	p.lock.Unlock()
}

// minted returns how many distinct keys were ever handed out.
func (p *keyPool) minted() int {
	return int(p.next.Load())
}

func (p *keyPool) reset() {
	p.lock.Lock()
	p.recycled.clear()
	p.next.Store(0)
	p.lock.Unlock()
}
