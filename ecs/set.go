package ecs

import (
	"iter"
	"math/bits"
	"strconv"
	"strings"
)

// ComponentSet is a set of component type ids with the aggregate size and
// mode of its members. The zero value is an empty set.
type ComponentSet struct {
	bits  [MaxComponentTypes / 64]uint64
	count int
	size  int
	mode  ComponentMode
}

// NewComponentSet combines types into a new set.
func NewComponentSet(types ...ComponentType) (ComponentSet, error) {
	var s ComponentSet
	for _, t := range types {
		if err := s.Combine(t); err != nil {
			return ComponentSet{}, err
		}
	}
	return s, nil
}

// Combine adds t to the set. Null types and members are ignored.
func (s *ComponentSet) Combine(t ComponentType) error {
	if t.IsNull() || s.Contains(t) {
		return nil
	}
	if s.count > 0 && s.mode != t.Mode() {
		return newError("combine", ErrModeConflict, "%s into a %s set", t, s.mode)
	}
	id := t.ID()
	s.bits[id>>6] |= 1 << uint(id&63)
	s.size += t.Size()
	s.count++
	s.mode = t.Mode()
	return nil
}

// Remove deletes t from the set.
func (s *ComponentSet) Remove(t ComponentType) {
	if t.IsNull() || !s.Contains(t) {
		return
	}
	id := t.ID()
	s.bits[id>>6] &^= 1 << uint(id&63)
	s.size -= t.Size()
	s.count--
	if s.count == 0 {
		s.mode = ModeNone
	}
}

// Contains reports whether t is a member.
func (s ComponentSet) Contains(t ComponentType) bool {
	if t.IsNull() {
		return false
	}
	return s.ContainsID(t.ID())
}

// ContainsID reports whether the type with the given id is a member.
func (s ComponentSet) ContainsID(id int) bool {
	if id < 0 || id >= MaxComponentTypes {
		return false
	}
	return s.bits[id>>6]&(1<<uint(id&63)) != 0
}

// ContainsAll reports whether every member of o is a member of s.
func (s ComponentSet) ContainsAll(o ComponentSet) bool {
	for i, w := range o.bits {
		if s.bits[i]&w != w {
			return false
		}
	}
	return true
}

// Equal compares membership only. Sets with equal members always share
// their size, and share their mode unless both are empty.
func (s ComponentSet) Equal(o ComponentSet) bool {
	return s.bits == o.bits
}

// Len returns the number of members.
func (s ComponentSet) Len() int { return s.count }

// Size returns the summed aligned size of the members.
func (s ComponentSet) Size() int { return s.size }

// Mode returns the mode shared by all members, or ModeNone when empty.
func (s ComponentSet) Mode() ComponentMode { return s.mode }

// IsEmpty reports whether the set has no members.
func (s ComponentSet) IsEmpty() bool { return s.count == 0 }

// IDs yields member ids in ascending order.
func (s ComponentSet) IDs() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, w := range s.bits {
			for w != 0 {
				b := bits.TrailingZeros64(w)
				if !yield(i<<6 | b) {
					return
				}
				w &= w - 1
			}
		}
	}
}

// Types yields the members in ascending id order, resolved through r.
func (s ComponentSet) Types(r *TypeRegistry) iter.Seq[ComponentType] {
	return func(yield func(ComponentType) bool) {
		for id := range s.IDs() {
			ct, _, ok := r.Lookup(id)
			if !ok {
				continue
			}
			if !yield(ct) {
				return
			}
		}
	}
}

// Names returns the Go type names of the members in id order.
func (s ComponentSet) Names(r *TypeRegistry) []string {
	names := make([]string, 0, s.count)
	for id := range s.IDs() {
		_, t, ok := r.Lookup(id)
		if !ok {
			continue
		}
		names = append(names, t.String())
	}
	return names
}

func (s ComponentSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for id := range s.IDs() {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(strconv.Itoa(id))
	}
	b.WriteByte('}')
	return b.String()
}
