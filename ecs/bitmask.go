package ecs

import "math/bits"

// bitmask is a growable bit vector. It is not synchronized; owners guard it
// with their own SpinLock.
type bitmask struct {
	words []uint64
	count int
}

// capacity returns the number of addressable bits.
func (m *bitmask) capacity() int {
	return len(m.words) * 64
}

// grow makes at least n bits addressable, rounding up to keyMaskGrowth.
func (m *bitmask) grow(n int) {
	if n <= m.capacity() {
		return
	}
	n = (n + keyMaskGrowth - 1) / keyMaskGrowth * keyMaskGrowth
	words := make([]uint64, n/64)
	copy(words, m.words)
	m.words = words
}

func (m *bitmask) set(i int) {
	w, b := i>>6, uint(i&63)
	if m.words[w]&(1<<b) == 0 {
		m.words[w] |= 1 << b
		m.count++
	}
}

func (m *bitmask) has(i int) bool {
	w := i >> 6
	if w >= len(m.words) {
		return false
	}
	return m.words[w]&(1<<uint(i&63)) != 0
}

// popLowest clears and returns the lowest set bit, or -1.
func (m *bitmask) popLowest() int {
	if m.count == 0 {
		return -1
	}
	for w, word := range m.words {
		if word == 0 {
			continue
		}
		b := bits.TrailingZeros64(word)
		m.words[w] = word &^ (1 << uint(b))
		m.count--
		return w<<6 | b
	}
	return -1
}

// popHighest clears and returns the highest set bit, or -1.
func (m *bitmask) popHighest() int {
	if m.count == 0 {
		return -1
	}
	for w := len(m.words) - 1; w >= 0; w-- {
		word := m.words[w]
		if word == 0 {
			continue
		}
		b := 63 - bits.LeadingZeros64(word)
		m.words[w] = word &^ (1 << uint(b))
		m.count--
		return w<<6 | b
	}
	return -1
}

// each calls fn for every set bit in ascending order.
func (m *bitmask) each(fn func(i int) bool) {
	for w, word := range m.words {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			if !fn(w<<6 | b) {
				return
			}
			word &= word - 1
		}
	}
}

func (m *bitmask) clear() {
	clear(m.words)
	m.count = 0
}
