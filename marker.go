package weft

// marker.go contains the marker arena. A Buffer owns an arena of marker
// slots; Marker handles hold an arena index plus a generation and
// resolve through the arena on every access, so killing the buffer
// invalidates every outstanding handle with no cleanup pass.

// markerSlot is one arena entry.
type markerSlot struct {
	gen           uint64
	pos           int
	insertionType bool
	live          bool
}

// Marker is a weakly-held position tracker. It stays valid across edits
// in its buffer until it is detached or the buffer is killed; holders
// must treat a detached marker as permanently stale.
type Marker struct {
	buf   *Buffer
	index int
	gen   uint64
}

// NewMarker creates a marker at pos. With insertionType true the marker
// advances past text inserted exactly at its position; otherwise it
// stays before inserted text.
func (b *Buffer) NewMarker(pos int, insertionType bool) (*Marker, error) {
	if !b.live {
		return nil, ErrDeadBuffer
	}
	if pos < b.begv || pos > b.zv {
		return nil, ErrOutOfRange
	}
	// Reuse a dead slot if one exists.
	idx := -1
	for s := range b.markers {
		if !b.markers[s].live {
			idx = s
			break
		}
	}
	if idx < 0 {
		b.markers = append(b.markers, markerSlot{})
		idx = len(b.markers) - 1
	}
	slot := &b.markers[idx]
	slot.gen++
	slot.pos = pos
	slot.insertionType = insertionType
	slot.live = true
	return &Marker{buf: b, index: idx, gen: slot.gen}, nil
}

// resolve returns the marker's arena slot, or nil if the handle is stale.
func (m *Marker) resolve() *markerSlot {
	if m.buf == nil || !m.buf.live {
		return nil
	}
	if m.index >= len(m.buf.markers) {
		return nil
	}
	slot := &m.buf.markers[m.index]
	if !slot.live || slot.gen != m.gen {
		return nil
	}
	return slot
}

// Buffer returns the marker's buffer, or nil once detached.
func (m *Marker) Buffer() *Buffer {
	if m.resolve() == nil {
		return nil
	}
	return m.buf
}

// Position returns the marker's current position. After detachment the
// position is undefined and the error is ErrDetachedMarker.
func (m *Marker) Position() (int, error) {
	slot := m.resolve()
	if slot == nil {
		return 0, ErrDetachedMarker
	}
	return slot.pos, nil
}

// InsertionType reports whether the marker advances past text inserted
// at its position.
func (m *Marker) InsertionType() (bool, error) {
	slot := m.resolve()
	if slot == nil {
		return false, ErrDetachedMarker
	}
	return slot.insertionType, nil
}

// Detach disconnects the marker from its buffer. Safe to call twice.
func (m *Marker) Detach() {
	slot := m.resolve()
	if slot != nil {
		slot.live = false
	}
	m.buf = nil
}

// adjustMarkersForInsert shifts live markers after an insertion of n
// characters at pos. Markers exactly at pos follow their per-marker
// insertion-type policy.
func (b *Buffer) adjustMarkersForInsert(pos, n int) {
	for idx := range b.markers {
		slot := &b.markers[idx]
		if !slot.live {
			continue
		}
		switch {
		case slot.pos > pos:
			slot.pos += n
		case slot.pos == pos && slot.insertionType:
			slot.pos += n
		}
	}
}

// adjustMarkersForDelete relocates live markers across the deletion of
// [start, end).
func (b *Buffer) adjustMarkersForDelete(start, end int) {
	for idx := range b.markers {
		slot := &b.markers[idx]
		if !slot.live {
			continue
		}
		slot.pos = relocateForDelete(slot.pos, start, end)
	}
}

// detachAllMarkers invalidates every outstanding marker handle. Used
// when the buffer is killed.
func (b *Buffer) detachAllMarkers() {
	for idx := range b.markers {
		b.markers[idx].live = false
	}
	b.markers = nil
}
