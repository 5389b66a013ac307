package ecs

import "math/bits"

const maskWords = 4

// Mask is a fixed-width set of component type slots.
type Mask [maskWords]uint64

// MaskFor returns a mask with the slot of every given type set.
func MaskFor(types ...*ComponentType) Mask {
	var m Mask
	for _, t := range types {
		m.Set(t.index)
	}
	return m
}

// Set marks slot i.
func (m *Mask) Set(i int) {
	m[i>>6] |= 1 << (uint(i) & 63)
}

// Clear unmarks slot i.
func (m *Mask) Clear(i int) {
	m[i>>6] &^= 1 << (uint(i) & 63)
}

// Has reports whether slot i is marked.
func (m Mask) Has(i int) bool {
	return m[i>>6]&(1<<(uint(i)&63)) != 0
}

// ContainsAll reports whether every slot of sub is also marked in m.
func (m Mask) ContainsAll(sub Mask) bool {
	for i := range m {
		if m[i]&sub[i] != sub[i] {
			return false
		}
	}
	return true
}

// Intersects reports whether m and o share at least one slot.
func (m Mask) Intersects(o Mask) bool {
	for i := range m {
		if m[i]&o[i] != 0 {
			return true
		}
	}
	return false
}

func (m Mask) IsEmpty() bool {
	return m == Mask{}
}

// Count returns the number of marked slots.
func (m Mask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

// Slots yields the marked slots in ascending order.
func (m Mask) Slots() []int {
	slots := make([]int, 0, m.Count())
	for wi, w := range m {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			slots = append(slots, wi*64+b)
			w &^= 1 << uint(b)
		}
	}
	return slots
}

// bitset is a growable set of small non-negative integers, used for the
// family membership of an entity.
type bitset []uint64

func (b *bitset) set(i int) {
	w := i >> 6
	if w >= len(*b) {
		grown := make(bitset, w+1)
		copy(grown, *b)
		*b = grown
	}
	(*b)[w] |= 1 << (uint(i) & 63)
}

func (b bitset) clear(i int) {
	w := i >> 6
	if w < len(b) {
		b[w] &^= 1 << (uint(i) & 63)
	}
}

func (b bitset) has(i int) bool {
	w := i >> 6
	return w < len(b) && b[w]&(1<<(uint(i)&63)) != 0
}
