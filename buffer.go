package weft

// buffer.go contains the Buffer type: gap storage plus visible-region
// bounds, point, modification ticks, the interval-tree root, local
// variable shadow state, the marker arena, fields, and the edit
// operations with their change-hook protocol.
//
// Every mutating operation validates fully before mutating, so a failed
// edit never leaves partial state.

// Hook names fired by buffer edits and lifecycle transitions.
const (
	// HookFirstChange fires exactly once per clean-to-dirty transition,
	// strictly before HookBeforeChange.
	HookFirstChange = "first-change-hook"

	// HookBeforeChange fires strictly before an edit mutates storage.
	HookBeforeChange = "before-change-hook"

	// HookAfterChange fires strictly after an edit mutates storage.
	HookAfterChange = "after-change-hook"

	// HookKillBuffer fires while a buffer being killed is temporarily
	// current, before irrevocable detachment.
	HookKillBuffer = "kill-buffer-hook"
)

// Fundamental is the trivial major mode; requesting it at buffer
// creation invokes no mode collaborator.
const Fundamental = "fundamental"

// Buffer is an in-memory mutable text document plus its metadata.
// Buffers are created through a Registry and stay linked to it until
// killed; a killed buffer is inert and every operation on it fails with
// ErrDeadBuffer.
type Buffer struct {
	registry *Registry
	name     string // "" once the buffer is killed
	live     bool

	storage gapStorage

	// Visible-region bounds and point. Invariant:
	// 1 <= begv <= point <= zv <= textLength()+1.
	begv  int
	zv    int
	point int

	// modTick is monotonic and never decremented; saveTick trails it and
	// drives Modified.
	modTick  uint64
	saveTick uint64

	intervals        *Interval
	balanceThreshold int

	localFlags uint64
	localSlots []any
	localAlist []alistEntry

	markers []markerSlot

	// undo is an opaque payload; the engine never interprets it.
	undo any

	fields   []Field
	readOnly bool

	// Per-category hook re-entrancy guards.
	inFirstChange  bool
	inBeforeChange bool
	inAfterChange  bool

	// Cached point column; invalidated by every edit.
	colCache struct {
		pos   int
		col   int
		valid bool
	}
}

// Name returns the buffer's name, or "" if the buffer has been killed.
func (b *Buffer) Name() string {
	return b.name
}

// Live reports whether the buffer has not been killed.
func (b *Buffer) Live() bool {
	return b.live
}

// textLength returns the total number of characters, ignoring narrowing.
func (b *Buffer) textLength() int {
	return b.storage.chars()
}

// PointMin returns the first accessible position.
func (b *Buffer) PointMin() int {
	return b.begv
}

// PointMax returns the position just past the last accessible character.
func (b *Buffer) PointMax() int {
	return b.zv
}

// Point returns the current editing position.
func (b *Buffer) Point() int {
	return b.point
}

// SetPoint moves point, clamping it to the accessible region.
func (b *Buffer) SetPoint(pos int) {
	if pos < b.begv {
		pos = b.begv
	}
	if pos > b.zv {
		pos = b.zv
	}
	b.point = pos
}

// ReadOnly reports whether edits are rejected.
func (b *Buffer) ReadOnly() bool {
	return b.readOnly
}

// SetReadOnly sets whether edits are rejected.
func (b *Buffer) SetReadOnly(ro bool) {
	b.readOnly = ro
}

// Modified reports whether the buffer has changed since it was last
// marked saved.
func (b *Buffer) Modified() bool {
	return b.modTick > b.saveTick
}

// SetModified forces the modified flag. Marking modified advances the
// modification tick; marking unmodified aligns the save tick with it.
func (b *Buffer) SetModified(flag bool) {
	if flag {
		b.modTick++
	} else {
		b.saveTick = b.modTick
	}
}

// ModTick returns the monotonic modification tick.
func (b *Buffer) ModTick() uint64 {
	return b.modTick
}

// UndoPayload returns the opaque undo payload.
func (b *Buffer) UndoPayload() any {
	return b.undo
}

// SetUndoPayload stores the opaque undo payload; the engine never
// interprets it.
func (b *Buffer) SetUndoPayload(p any) {
	b.undo = p
}

// Narrow restricts the accessible region to [start, end), clamping
// point into it.
func (b *Buffer) Narrow(start, end int) error {
	if !b.live {
		return ErrDeadBuffer
	}
	if start > end {
		start, end = end, start
	}
	if start < 1 || end > b.textLength()+1 {
		return ErrOutOfRange
	}
	b.begv = start
	b.zv = end
	b.SetPoint(b.point)
	return nil
}

// Widen makes the entire buffer accessible again.
func (b *Buffer) Widen() {
	b.begv = 1
	b.zv = b.textLength() + 1
}

// Text returns the characters in [start, end) of the accessible region.
func (b *Buffer) Text(start, end int) (string, error) {
	if !b.live {
		return "", ErrDeadBuffer
	}
	if start > end {
		start, end = end, start
	}
	if start < b.begv || end > b.zv {
		return "", ErrOutOfRange
	}
	return b.storage.text(start, end), nil
}

// String returns the accessible text.
func (b *Buffer) String() string {
	if !b.live {
		return ""
	}
	return b.storage.text(b.begv, b.zv)
}

// CharAt returns the character at pos.
func (b *Buffer) CharAt(pos int) (rune, error) {
	if !b.live {
		return 0, ErrDeadBuffer
	}
	if pos < b.begv || pos >= b.zv {
		return 0, ErrOutOfRange
	}
	return b.storage.charAt(pos), nil
}

// Insert places text at pos. Point, visible bounds, markers, fields and
// the interval partition all shift by the inserted length; the gap ends
// up trailing the inserted text.
func (b *Buffer) Insert(pos int, text string) error {
	if err := b.validateEdit(pos, pos, true); err != nil {
		return err
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	b.signalBeforeChange()
	b.storage.insert(pos, runes)
	b.adjustForInsert(pos, len(runes))
	b.modTick++
	b.colCache.valid = false
	b.signalAfterChange()
	return nil
}

// InsertAtPoint places text at point and leaves point after it.
func (b *Buffer) InsertAtPoint(text string) error {
	return b.Insert(b.point, text)
}

// Delete removes the characters in [start, end), turning the freed
// space into gap. A reversed pair is swapped.
func (b *Buffer) Delete(start, end int) error {
	if start > end {
		start, end = end, start
	}
	if err := b.validateEdit(start, end, false); err != nil {
		return err
	}
	if start == end {
		return nil
	}
	b.signalBeforeChange()
	b.storage.delete(start, end)
	b.adjustForDelete(start, end-start)
	b.modTick++
	b.colCache.valid = false
	b.signalAfterChange()
	return nil
}

// Erase removes all buffer text, ignoring narrowing, and drops the
// interval tree. The undo payload is untouched.
func (b *Buffer) Erase() error {
	if !b.live {
		return ErrDeadBuffer
	}
	if b.readOnly {
		return ErrReadOnlyBuffer
	}
	if err := b.checkFields(1, b.textLength()+1, false); err != nil {
		return err
	}
	b.signalBeforeChange()
	total := b.textLength()
	if total > 0 {
		b.storage.delete(1, total+1)
	}
	b.intervals = nil
	b.begv = 1
	b.zv = 1
	b.point = 1
	for idx := range b.markers {
		if b.markers[idx].live {
			b.markers[idx].pos = 1
		}
	}
	for idx := range b.fields {
		b.fields[idx].Start = 1
		b.fields[idx].End = 1
	}
	b.modTick++
	b.colCache.valid = false
	b.signalAfterChange()
	return nil
}

// validateEdit performs every check an edit needs before any state is
// touched: liveness, read-only, range, and protected fields.
func (b *Buffer) validateEdit(start, end int, insert bool) error {
	if !b.live {
		return ErrDeadBuffer
	}
	if b.readOnly {
		return ErrReadOnlyBuffer
	}
	if start < b.begv || end > b.zv {
		return ErrOutOfRange
	}
	return b.checkFields(start, end, insert)
}

// adjustForInsert relocates every position-bearing structure after an
// insertion of n characters at pos.
func (b *Buffer) adjustForInsert(pos, n int) {
	if b.point >= pos {
		b.point += n
	}
	if b.begv > pos {
		b.begv += n
	}
	if b.zv >= pos {
		b.zv += n
	}
	b.adjustMarkersForInsert(pos, n)
	b.adjustFieldsForInsert(pos, n)
	b.intervals = adjustForInsert(b.intervals, pos, n)
}

// adjustForDelete relocates every position-bearing structure after the
// deletion of n characters beginning at start.
func (b *Buffer) adjustForDelete(start, n int) {
	end := start + n
	b.point = relocateForDelete(b.point, start, end)
	if b.begv > start {
		b.begv = relocateForDelete(b.begv, start, end)
	}
	b.zv = relocateForDelete(b.zv, start, end)
	b.adjustMarkersForDelete(start, end)
	b.adjustFieldsForDelete(start, end)
	b.intervals = adjustForDelete(b.intervals, start, n)
}

// relocateForDelete maps a position across the deletion of [start, end):
// positions inside the range collapse to start, later ones shift left.
func relocateForDelete(pos, start, end int) int {
	if pos <= start {
		return pos
	}
	if pos <= end {
		return start
	}
	return pos - (end - start)
}

// signalBeforeChange fires the first-change collaborator on a
// clean-to-dirty transition, then the before-change collaborator.
// Re-entrant firing of either category during its own run is suppressed.
func (b *Buffer) signalBeforeChange() {
	if b.modTick == b.saveTick && !b.inFirstChange {
		b.inFirstChange = true
		b.registry.eval.RunHook(HookFirstChange)
		b.inFirstChange = false
	}
	if !b.inBeforeChange {
		b.inBeforeChange = true
		b.registry.eval.RunHook(HookBeforeChange)
		b.inBeforeChange = false
	}
}

// signalAfterChange fires the after-change collaborator, suppressing
// re-entrant firing.
func (b *Buffer) signalAfterChange() {
	if b.inAfterChange {
		return
	}
	b.inAfterChange = true
	b.registry.eval.RunHook(HookAfterChange)
	b.inAfterChange = false
}

// CurrentColumn returns the zero-based column of point, counting from
// the previous newline or the start of the accessible region. The
// result is cached until the next edit.
func (b *Buffer) CurrentColumn() int {
	if !b.live {
		return 0
	}
	if b.colCache.valid && b.colCache.pos == b.point {
		return b.colCache.col
	}
	col := 0
	for p := b.point - 1; p >= b.begv; p-- {
		if b.storage.charAt(p) == '\n' {
			break
		}
		col++
	}
	b.colCache.pos = b.point
	b.colCache.col = col
	b.colCache.valid = true
	return col
}
