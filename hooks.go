package weft

// Evaluator is the external language-evaluator collaborator. The engine
// calls it synchronously: hooks run on the caller's thread and may
// themselves trigger further edits (re-entrant firing of the same hook
// category is suppressed by the buffer).
type Evaluator interface {
	// RunHook invokes zero or more registered no-argument callables.
	RunHook(name string)

	// ResolveVariable reads a symbol's current value from the evaluator's
	// symbol table.
	ResolveVariable(name string) any

	// StoreVariable writes a symbol's current value into the evaluator's
	// symbol table.
	StoreVariable(name string, value any)

	// SelectOtherBuffer picks a buffer other than excluding to become
	// current, preferring buffers invisible in any window and falling
	// back to a well-known scratch buffer. May return nil.
	SelectOtherBuffer(excluding *Buffer) *Buffer
}

// nopEvaluator is the default collaborator: hooks do nothing and the
// symbol table is empty.
type nopEvaluator struct{}

func (nopEvaluator) RunHook(string)                    {}
func (nopEvaluator) ResolveVariable(string) any        { return nil }
func (nopEvaluator) StoreVariable(string, any)         {}
func (nopEvaluator) SelectOtherBuffer(*Buffer) *Buffer { return nil }
