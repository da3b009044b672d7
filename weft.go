package weft

import "fmt"

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Evaluator is the external language-evaluator collaborator. Nil
	// installs a no-op evaluator.
	Evaluator Evaluator

	// InitialMode is the major mode requested for newly created buffers.
	// It is applied as a hook by name, and only when non-trivial: an
	// empty name or Fundamental invokes nothing.
	InitialMode string

	// BalanceThreshold is the percentage of an interval tree's total
	// span by which subtree weights may differ before rebalancing.
	// Zero selects the default.
	BalanceThreshold int

	// InitialGapSize is the gap a fresh buffer's storage starts with.
	// Zero selects the default.
	InitialGapSize int
}

// Registry is the process-wide ordered collection of all live buffers.
// It enforces name uniqueness and maintains two explicit orderings: the
// creation chain (newest first) and the recency list ordered by how
// recently each buffer was made the user-visible current buffer.
type Registry struct {
	eval             Evaluator
	initialMode      string
	balanceThreshold int
	initialGap       int

	creation []*Buffer // creation order, newest first
	recency  []*Buffer // most recently selected first

	current    *Buffer
	minibuffer *Buffer

	vars           *varTable
	permanentNames map[string]bool

	inKillHook bool
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	eval := opts.Evaluator
	if eval == nil {
		eval = nopEvaluator{}
	}
	threshold := opts.BalanceThreshold
	if threshold <= 0 {
		threshold = defaultBalanceThreshold
	}
	gap := opts.InitialGapSize
	if gap <= 0 {
		gap = defaultInitialGap
	}
	return &Registry{
		eval:             eval,
		initialMode:      opts.InitialMode,
		balanceThreshold: threshold,
		initialGap:       gap,
		vars:             newVarTable(),
		permanentNames:   make(map[string]bool),
	}
}

// BufferList returns the live buffers in recency order, most recently
// selected first.
func (r *Registry) BufferList() []*Buffer {
	out := make([]*Buffer, len(r.recency))
	copy(out, r.recency)
	return out
}

// GetBuffer returns the live buffer named name, or nil.
func (r *Registry) GetBuffer(name string) *Buffer {
	for _, b := range r.creation {
		if b.name == name {
			return b
		}
	}
	return nil
}

// GetBufferCreate returns the existing live buffer named name, or
// allocates a fresh one: small initial gap, position fields at 1,
// linked at the head of both the creation chain and the recency list.
// A requested non-trivial major mode is then applied through the
// evaluator collaborator.
func (r *Registry) GetBufferCreate(name string) *Buffer {
	if b := r.GetBuffer(name); b != nil {
		return b
	}
	b := &Buffer{
		registry:         r,
		name:             name,
		live:             true,
		storage:          newGapStorage(r.initialGap),
		begv:             1,
		zv:               1,
		point:            1,
		balanceThreshold: r.balanceThreshold,
	}
	b.localSlots = make([]any, len(r.vars.records))
	for id := range r.vars.records {
		rec := &r.vars.records[id]
		if rec.flag != flagNotVariable {
			b.localSlots[id] = rec.def
		}
	}
	r.creation = append([]*Buffer{b}, r.creation...)
	r.recency = append([]*Buffer{b}, r.recency...)
	if r.initialMode != "" && r.initialMode != Fundamental {
		r.eval.RunHook(r.initialMode)
	}
	return b
}

// GenerateNewBufferName returns base if no live buffer uses it, else
// base with "<2>", "<3>", ... appended until the name is free.
func (r *Registry) GenerateNewBufferName(base string) string {
	if r.GetBuffer(base) == nil {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s<%d>", base, n)
		if r.GetBuffer(candidate) == nil {
			return candidate
		}
	}
}

// RenameBuffer gives b a new name, preserving its registry identity.
// If the name belongs to another live buffer, distinguish selects a
// unique variant; otherwise the rename fails with NameCollisionError.
func (r *Registry) RenameBuffer(b *Buffer, newName string, distinguish bool) (string, error) {
	if !b.live {
		return "", ErrDeadBuffer
	}
	if other := r.GetBuffer(newName); other != nil && other != b {
		if !distinguish {
			return "", &NameCollisionError{Name: newName}
		}
		newName = r.GenerateNewBufferName(newName)
	}
	b.name = newName
	return newName, nil
}

// Current returns the current buffer, or nil before any selection.
func (r *Registry) Current() *Buffer {
	return r.current
}

// SetBuffer makes the named buffer current without any display-level
// selection: local-variable forwarding is swapped for the outgoing and
// incoming buffer, but the recency list is not touched.
func (r *Registry) SetBuffer(name string) (*Buffer, error) {
	b := r.GetBuffer(name)
	if b == nil {
		return nil, ErrNoSuchBuffer
	}
	r.setBufferInternal(b)
	return b, nil
}

// setBufferInternal switches the current buffer, forcing re-resolution
// of alist-based locals on both sides of the switch.
func (r *Registry) setBufferInternal(b *Buffer) {
	if r.current == b {
		return
	}
	r.swapAlistLocals(r.current, b)
	r.current = b
}

// RecordRecency moves b to the front of the recency list. Called only on
// user-visible selection, never internal temporary selection.
func (r *Registry) RecordRecency(b *Buffer) {
	for i, x := range r.recency {
		if x == b {
			copy(r.recency[1:i+1], r.recency[:i])
			r.recency[0] = b
			return
		}
	}
}

// SelectBuffer makes the named buffer current as a user-visible
// selection: SetBuffer plus a recency update.
func (r *Registry) SelectBuffer(name string) (*Buffer, error) {
	b, err := r.SetBuffer(name)
	if err != nil {
		return nil, err
	}
	r.RecordRecency(b)
	return b, nil
}

// SetMinibuffer designates the buffer backing the active minibuffer;
// that buffer refuses to be killed. Pass nil to clear.
func (r *Registry) SetMinibuffer(b *Buffer) {
	r.minibuffer = b
}

// KillBuffer kills the named buffer (or the current buffer when name is
// empty). It refuses -- returning false -- if the buffer backs the
// active minibuffer or is already dead. The kill hook runs with the
// buffer temporarily current, before irrevocable detachment; then every
// marker is detached, the buffer leaves the registry, its storage is
// freed, and its name becomes the dead sentinel.
func (r *Registry) KillBuffer(name string) bool {
	var b *Buffer
	if name == "" {
		b = r.current
	} else {
		b = r.GetBuffer(name)
	}
	if b == nil || !b.live || b == r.minibuffer {
		return false
	}

	if !r.inKillHook {
		r.inKillHook = true
		prev := r.current
		r.setBufferInternal(b)
		r.eval.RunHook(HookKillBuffer)
		if prev != nil && prev.live && prev != b {
			r.setBufferInternal(prev)
		}
		r.inKillHook = false
	}

	// If the dying buffer is current, swap its alist locals out while it
	// is still live so the evaluator sees the shared defaults again.
	wasCurrent := r.current == b
	if wasCurrent {
		r.swapAlistLocals(b, nil)
		r.current = nil
	}

	b.detachAllMarkers()
	r.creation = removeBuffer(r.creation, b)
	r.recency = removeBuffer(r.recency, b)
	b.live = false
	b.name = ""
	b.storage.free()
	b.intervals = nil
	b.fields = nil

	if wasCurrent {
		next := r.eval.SelectOtherBuffer(b)
		if next == nil || !next.live {
			if len(r.recency) > 0 {
				next = r.recency[0]
			} else {
				next = nil
			}
		}
		if next != nil {
			r.setBufferInternal(next)
		}
	}
	return true
}

func removeBuffer(list []*Buffer, b *Buffer) []*Buffer {
	for i, x := range list {
		if x == b {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
