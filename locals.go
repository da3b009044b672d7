package weft

// locals.go contains the buffer-local variable machinery: a fixed-layout
// registration table of slots (defaults, flags, symbol names, required
// type tags) shared by every buffer, per-buffer shadow cells indexed by
// slot, and a per-buffer overflow association list for slot-less
// variables.
//
// Flag values per slot: 0 = not a variable, -1 = always local, -2 = has
// a default but unflagged (reads always see the shared default), any
// other value is a unique bit in the buffer's local-flags word. A
// flagged slot's bit is set in a buffer's word iff that buffer currently
// overrides the slot.

// SlotID indexes one record in the variable table and one shadow cell in
// every buffer.
type SlotID int

const (
	flagNotVariable = 0
	flagAlwaysLocal = -1
	flagDefaulted   = -2
)

// Type tags a slot may require of its values. The empty tag accepts
// anything.
const (
	TagInteger = "integer"
	TagString  = "string"
	TagBoolean = "boolean"
)

type varRecord struct {
	symbol    string
	def       any
	flag      int64 // 0, -1, -2, or 1<<bit
	tag       string
	permanent bool
}

// varTable is the process-level registration table, owned by a Registry.
type varTable struct {
	records []varRecord
	byName  map[string]SlotID
	nextBit uint
}

func newVarTable() *varTable {
	return &varTable{byName: make(map[string]SlotID)}
}

func (t *varTable) register(rec varRecord) SlotID {
	id := SlotID(len(t.records))
	t.records = append(t.records, rec)
	t.byName[rec.symbol] = id
	return id
}

// alistEntry is one slot-less buffer-local binding.
type alistEntry struct {
	name  string
	value any
}

// RegisterVariable adds a flagged slot: the variable reads the shared
// default until a buffer overrides it, and storing into it from a buffer
// makes it local to that buffer. tag may be "" to accept any value.
// Fails with ErrTooManyLocalVariables once the local-flags word is full.
func (r *Registry) RegisterVariable(symbol string, def any, tag string) (SlotID, error) {
	if r.vars.nextBit >= 64 {
		return 0, ErrTooManyLocalVariables
	}
	bit := int64(1) << r.vars.nextBit
	r.vars.nextBit++
	return r.vars.register(varRecord{symbol: symbol, def: def, flag: bit, tag: tag}), nil
}

// RegisterAlwaysLocal adds a slot that is local in every buffer: each
// buffer starts from the default and changes never leak between buffers.
func (r *Registry) RegisterAlwaysLocal(symbol string, def any, tag string) SlotID {
	id := r.vars.register(varRecord{symbol: symbol, def: def, flag: flagAlwaysLocal, tag: tag})
	for _, b := range r.creation {
		b.ensureSlot(id)
		b.localSlots[id] = def
	}
	return id
}

// RegisterDefaulted adds an unflagged slot carrying a default: reads
// always see the shared default; the per-buffer cell exists only so
// mode resets restore it.
func (r *Registry) RegisterDefaulted(symbol string, def any, tag string) SlotID {
	return r.vars.register(varRecord{symbol: symbol, def: def, flag: flagDefaulted, tag: tag})
}

// MarkPermanent marks a symbol so its buffer-local binding survives a
// mode reset.
func (r *Registry) MarkPermanent(symbol string) {
	if id, ok := r.vars.byName[symbol]; ok {
		r.vars.records[id].permanent = true
	}
	r.permanentNames[symbol] = true
}

// SetDefault changes a slot's shared default; buffers without an
// override observe the change immediately.
func (r *Registry) SetDefault(id SlotID, value any) error {
	rec, err := r.vars.record(id)
	if err != nil {
		return err
	}
	if err := checkTag(rec.tag, rec.symbol, value); err != nil {
		return err
	}
	rec.def = value
	return nil
}

// Default returns a slot's shared default.
func (r *Registry) Default(id SlotID) (any, error) {
	rec, err := r.vars.record(id)
	if err != nil {
		return nil, err
	}
	return rec.def, nil
}

func (t *varTable) record(id SlotID) (*varRecord, error) {
	if id < 0 || int(id) >= len(t.records) {
		return nil, ErrNotAVariable
	}
	rec := &t.records[id]
	if rec.flag == flagNotVariable {
		return nil, ErrNotAVariable
	}
	return rec, nil
}

func checkTag(tag, symbol string, value any) error {
	ok := true
	switch tag {
	case "":
	case TagInteger:
		_, ok = value.(int)
	case TagString:
		_, ok = value.(string)
	case TagBoolean:
		_, ok = value.(bool)
	}
	if !ok {
		return &TypeMismatchError{Tag: tag, Symbol: symbol}
	}
	return nil
}

// ensureSlot grows the buffer's shadow array to cover id.
func (b *Buffer) ensureSlot(id SlotID) {
	for len(b.localSlots) <= int(id) {
		b.localSlots = append(b.localSlots, nil)
	}
}

// LocalValue reads a slot in this buffer: the buffer's override if its
// bit is set, an always-local slot's own cell, otherwise the shared
// default.
func (b *Buffer) LocalValue(id SlotID) (any, error) {
	rec, err := b.registry.vars.record(id)
	if err != nil {
		return nil, err
	}
	switch {
	case rec.flag == flagAlwaysLocal:
		b.ensureSlot(id)
		return b.localSlots[id], nil
	case rec.flag > 0 && b.localFlags&uint64(rec.flag) != 0:
		return b.localSlots[id], nil
	default:
		return rec.def, nil
	}
}

// SetLocalValue stores into a slot in this buffer. Storing into a
// flagged slot makes it local here (its bit is set); an always-local
// slot writes its own cell; an unflagged slot writes the shared default.
func (b *Buffer) SetLocalValue(id SlotID, value any) error {
	rec, err := b.registry.vars.record(id)
	if err != nil {
		return err
	}
	if err := checkTag(rec.tag, rec.symbol, value); err != nil {
		return err
	}
	switch {
	case rec.flag == flagAlwaysLocal:
		b.ensureSlot(id)
		b.localSlots[id] = value
	case rec.flag > 0:
		b.ensureSlot(id)
		b.localSlots[id] = value
		b.localFlags |= uint64(rec.flag)
	default:
		rec.def = value
	}
	return nil
}

// MakeLocal gives this buffer its own binding for a flagged slot,
// initialized from the shared default if not already local.
func (b *Buffer) MakeLocal(id SlotID) error {
	rec, err := b.registry.vars.record(id)
	if err != nil {
		return err
	}
	if rec.flag <= 0 {
		return nil
	}
	if b.localFlags&uint64(rec.flag) == 0 {
		b.ensureSlot(id)
		b.localSlots[id] = rec.def
		b.localFlags |= uint64(rec.flag)
	}
	return nil
}

// KillLocal removes this buffer's binding for a flagged slot; reads fall
// back to the shared default.
func (b *Buffer) KillLocal(id SlotID) error {
	rec, err := b.registry.vars.record(id)
	if err != nil {
		return err
	}
	if rec.flag > 0 {
		b.localFlags &^= uint64(rec.flag)
	}
	return nil
}

// SetAlistLocal binds a slot-less variable locally in this buffer via
// the overflow association list.
func (b *Buffer) SetAlistLocal(name string, value any) {
	for i := range b.localAlist {
		if b.localAlist[i].name == name {
			b.localAlist[i].value = value
			return
		}
	}
	b.localAlist = append(b.localAlist, alistEntry{name: name, value: value})
}

// AlistLocal reads a slot-less buffer-local variable.
func (b *Buffer) AlistLocal(name string) (any, bool) {
	for i := range b.localAlist {
		if b.localAlist[i].name == name {
			return b.localAlist[i].value, true
		}
	}
	return nil, false
}

// LocalVariable is one (symbol, value) pair reported by LocalVariables.
type LocalVariable struct {
	Symbol string
	Value  any
}

// LocalVariables lists every variable currently local in this buffer:
// always-local slots, flagged slots this buffer overrides, then the
// overflow association list, in table and insertion order.
func (b *Buffer) LocalVariables() []LocalVariable {
	var out []LocalVariable
	for id := range b.registry.vars.records {
		rec := &b.registry.vars.records[id]
		switch {
		case rec.flag == flagAlwaysLocal:
			v, _ := b.LocalValue(SlotID(id))
			out = append(out, LocalVariable{Symbol: rec.symbol, Value: v})
		case rec.flag > 0 && b.localFlags&uint64(rec.flag) != 0:
			out = append(out, LocalVariable{Symbol: rec.symbol, Value: b.localSlots[id]})
		}
	}
	for _, e := range b.localAlist {
		out = append(out, LocalVariable{Symbol: e.name, Value: e.value})
	}
	return out
}

// ResetLocals reinstates fundamental defaults: every flagged or
// defaulted slot cell is recopied from the shared default and the
// local-flags word and overflow list are cleared. Bindings whose symbol
// carries the permanent marker are then reinstated with their prior
// values.
func (b *Buffer) ResetLocals() {
	r := b.registry

	type kept struct {
		id    SlotID
		value any
	}
	var keptSlots []kept
	var keptAlist []alistEntry
	for id := range r.vars.records {
		rec := &r.vars.records[id]
		if rec.permanent && rec.flag > 0 && b.localFlags&uint64(rec.flag) != 0 {
			keptSlots = append(keptSlots, kept{SlotID(id), b.localSlots[id]})
		}
	}
	for _, e := range b.localAlist {
		if r.permanentNames[e.name] {
			keptAlist = append(keptAlist, e)
		}
	}

	for id := range r.vars.records {
		rec := &r.vars.records[id]
		if rec.flag > 0 || rec.flag == flagDefaulted {
			b.ensureSlot(SlotID(id))
			b.localSlots[id] = rec.def
		}
	}
	b.localFlags = 0
	b.localAlist = nil

	for _, k := range keptSlots {
		b.localSlots[k.id] = k.value
		b.localFlags |= uint64(r.vars.records[k.id].flag)
	}
	b.localAlist = append(b.localAlist, keptAlist...)
}

// swapAlistLocals forces re-resolution of every alist-based local
// variable around a buffer switch: the outgoing buffer's bindings are
// refreshed from the evaluator's current values, the shared defaults are
// restored, then the incoming buffer's bindings are pushed in. No stale
// cross-buffer value remains visible through the evaluator afterwards.
func (r *Registry) swapAlistLocals(out, in *Buffer) {
	if out == in {
		return
	}
	if out != nil && out.live {
		for i := range out.localAlist {
			e := &out.localAlist[i]
			e.value = r.eval.ResolveVariable(e.name)
		}
		for i := range out.localAlist {
			e := &out.localAlist[i]
			var def any
			if id, ok := r.vars.byName[e.name]; ok {
				def = r.vars.records[id].def
			}
			r.eval.StoreVariable(e.name, def)
		}
	}
	if in != nil {
		for _, e := range in.localAlist {
			r.eval.StoreVariable(e.name, e.value)
		}
	}
}
