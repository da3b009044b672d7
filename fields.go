package weft

// fields.go contains named sub-ranges of a buffer ("fields"). A
// protected field rejects any edit overlapping its interior, raised
// before mutation. Field bounds relocate across edits like markers.

// Field is a named sub-range [Start, End) of a buffer, optionally
// protected against edits.
type Field struct {
	Name      string
	Start     int
	End       int
	Protected bool
}

// AddField registers a field over [start, end).
func (b *Buffer) AddField(name string, start, end int, protected bool) error {
	if !b.live {
		return ErrDeadBuffer
	}
	if start > end {
		start, end = end, start
	}
	if start < b.begv || end > b.zv {
		return ErrOutOfRange
	}
	b.fields = append(b.fields, Field{Name: name, Start: start, End: end, Protected: protected})
	return nil
}

// RemoveField drops the first field with the given name, reporting
// whether one existed.
func (b *Buffer) RemoveField(name string) bool {
	for i := range b.fields {
		if b.fields[i].Name == name {
			b.fields = append(b.fields[:i], b.fields[i+1:]...)
			return true
		}
	}
	return false
}

// Fields returns a copy of the buffer's field list in registration order.
func (b *Buffer) Fields() []Field {
	out := make([]Field, len(b.fields))
	copy(out, b.fields)
	return out
}

// checkFields rejects an edit that touches a protected field: an
// insertion strictly inside one, or a deletion overlapping one.
func (b *Buffer) checkFields(start, end int, insert bool) error {
	for i := range b.fields {
		f := &b.fields[i]
		if !f.Protected {
			continue
		}
		if insert {
			if start > f.Start && start < f.End {
				return ErrProtectedField
			}
			continue
		}
		if start < f.End && end > f.Start {
			return ErrProtectedField
		}
	}
	return nil
}

// adjustFieldsForInsert shifts field bounds after an insertion of n
// characters at pos. A field whose end sits exactly at pos does not
// absorb the inserted text.
func (b *Buffer) adjustFieldsForInsert(pos, n int) {
	for i := range b.fields {
		f := &b.fields[i]
		if f.Start >= pos {
			f.Start += n
		}
		if f.End > pos {
			f.End += n
		}
	}
}

// adjustFieldsForDelete relocates field bounds across the deletion of
// [start, end).
func (b *Buffer) adjustFieldsForDelete(start, end int) {
	for i := range b.fields {
		f := &b.fields[i]
		f.Start = relocateForDelete(f.Start, start, end)
		f.End = relocateForDelete(f.End, start, end)
	}
}
