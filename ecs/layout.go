package ecs

// layoutEntry maps a component id to its byte offset.
type layoutEntry struct {
	id     int16
	offset int32
}

// layoutTable is an open-addressed id -> offset table. Regular archetypes
// fill it once at creation; the singleton container grows it one type at a
// time. Offsets of regular archetypes are relative to the component data
// that follows the entity header; singleton offsets are absolute positions
// in the container's chunk list.
type layoutTable struct {
	used    uint64
	entries [MaxLayoutEntries]layoutEntry
	count   int
	size    int
}

// insert appends t and returns its offset. An entry that would straddle a
// chunk boundary starts at the next boundary instead.
func (l *layoutTable) insert(t ComponentType) (int, error) {
	if l.count >= MaxLayoutEntries {
		return 0, newError("layout insert", ErrCapacityExceeded, "layout holds %d entries", MaxLayoutEntries)
	}

	size := t.Size()
	offset := l.size
	if size > 0 {
		first := offset / ChunkSize
		last := (offset + size - 1) / ChunkSize
		if first != last {
			offset = last * ChunkSize
		}
	}
	end := offset + size
	if end > MaxLayoutChunks*ChunkSize {
		return 0, newError("layout insert", ErrCapacityExceeded,
			"%s does not fit in %d chunks", t, MaxLayoutChunks)
	}

	id := t.ID()
	for i := range MaxLayoutEntries {
		slot := (id + i) & (MaxLayoutEntries - 1)
		if l.used&(1<<uint(slot)) != 0 {
			continue
		}
		l.entries[slot] = layoutEntry{id: int16(id), offset: int32(offset)}
		l.used |= 1 << uint(slot)
		break
	}
	l.size = end
	l.count++
	return offset, nil
}

// find returns the offset of id, or -1.
func (l *layoutTable) find(id int) int {
	for i := range MaxLayoutEntries {
		slot := (id + i) & (MaxLayoutEntries - 1)
		if l.used&(1<<uint(slot)) == 0 {
			return -1
		}
		if int(l.entries[slot].id) == id {
			return int(l.entries[slot].offset)
		}
	}
	return -1
}

// tryAdd returns the offset of t, inserting it first if needed.
func (l *layoutTable) tryAdd(t ComponentType) (offset int, added bool, err error) {
	if offset = l.find(t.ID()); offset >= 0 {
		return offset, false, nil
	}
	offset, err = l.insert(t)
	if err != nil {
		return 0, false, err
	}
	return offset, true, nil
}
