package weft

import "reflect"

// props.go contains the text-property operations: boundary-aligned
// traversals that add, set, remove, and erase properties over a range of
// intervals, the forward/backward boundary scans, and the Buffer-level
// operations wrapping them.
//
// Range arguments are validated by the Buffer against its visible region
// before the tree is touched; a start > end pair is silently swapped,
// never rejected.

// intervalHasAll reports whether i already holds every property in pl
// with a deeply equal value.
func intervalHasAll(i *Interval, pl PropertyList) bool {
	for _, p := range pl {
		v, ok := i.props.Get(p.Name)
		if !ok || !reflect.DeepEqual(v, p.Value) {
			return false
		}
	}
	return true
}

// intervalHasAnyName reports whether i holds any of pl's names,
// regardless of value.
func intervalHasAnyName(i *Interval, pl PropertyList) bool {
	for _, p := range pl {
		if i.props.Has(p.Name) {
			return true
		}
	}
	return false
}

// intervalsAdd merges pl into every interval covering [start, end).
// Covered intervals already holding all of pl's names with equal values
// are skipped; the rest are split so intervals align exactly with the
// range, then mutated. Reports whether ANY covered interval was actually
// mutated -- a compound answer callers depend on: an earlier
// fully-matching sub-range does not mask a later mutation.
func intervalsAdd(root *Interval, pl PropertyList, start, end, objectLen int) (*Interval, bool) {
	if len(pl) == 0 || start >= end {
		return root, false
	}
	if root == nil {
		root = newRootInterval(objectLen)
	}
	i := findInterval(root, start)
	if i.position < start {
		i = splitIntervalRight(i, start-i.position)
	}
	changed := false
	for i != nil && i.position < end {
		if i.position+i.length > end {
			if intervalHasAll(i, pl) {
				break
			}
			splitIntervalRight(i, end-i.position)
		}
		if !intervalHasAll(i, pl) {
			for _, p := range pl {
				i.props.Put(p.Name, p.Value)
			}
			changed = true
		}
		i = nextInterval(i)
	}
	return root, changed
}

// intervalsSet replaces the property list of every interval covering
// [start, end) with a copy of pl. Reports changed whenever pl is
// non-empty; with an empty pl it reports whether anything was cleared.
func intervalsSet(root *Interval, pl PropertyList, start, end, objectLen int) (*Interval, bool) {
	if start >= end {
		return root, false
	}
	if root == nil {
		if len(pl) == 0 {
			return nil, false
		}
		root = newRootInterval(objectLen)
	}
	i := findInterval(root, start)
	if i.position < start {
		i = splitIntervalRight(i, start-i.position)
	}
	changed := len(pl) > 0
	for i != nil && i.position < end {
		if i.position+i.length > end {
			if i.props.Equal(pl) {
				break
			}
			splitIntervalRight(i, end-i.position)
		}
		if len(i.props) > 0 {
			changed = true
		}
		i.props = pl.Copy()
		i = nextInterval(i)
	}
	return root, changed
}

// intervalsRemove drops pl's names (any value) from every interval
// covering [start, end), splitting only intervals that actually hold one
// of the names. Reports whether any property was dropped.
func intervalsRemove(root *Interval, pl PropertyList, start, end int) (*Interval, bool) {
	if root == nil || len(pl) == 0 || start >= end {
		return root, false
	}
	changed := false
	i := findInterval(root, start)
	for i != nil && i.position < end {
		if !intervalHasAnyName(i, pl) {
			i = nextInterval(i)
			continue
		}
		if i.position < start {
			i = splitIntervalRight(i, start-i.position)
		}
		if i.position+i.length > end {
			splitIntervalRight(i, end-i.position)
		}
		for _, p := range pl {
			if i.props.Drop(p.Name) {
				changed = true
			}
		}
		i = nextInterval(i)
	}
	return root, changed
}

// intervalsErase clears all properties from every interval covering
// [start, end). Reports whether any covered interval was non-empty.
func intervalsErase(root *Interval, start, end int) (*Interval, bool) {
	if root == nil || start >= end {
		return root, false
	}
	changed := false
	i := findInterval(root, start)
	for i != nil && i.position < end {
		if len(i.props) == 0 {
			i = nextInterval(i)
			continue
		}
		if i.position < start {
			i = splitIntervalRight(i, start-i.position)
		}
		if i.position+i.length > end {
			splitIntervalRight(i, end-i.position)
		}
		i.props = nil
		changed = true
		i = nextInterval(i)
	}
	return root, changed
}

// intervalsNextBoundary scans forward from the interval at pos through
// adjacent intervals, skipping runs whose property list deep-equals the
// interval at pos, and returns the position where inequality begins.
// The second result is false if the object edge is reached first.
func intervalsNextBoundary(root *Interval, pos int) (int, bool) {
	i := findInterval(root, pos)
	if i == nil {
		return 0, false
	}
	ref := i.props
	for j := nextInterval(i); j != nil; j = nextInterval(j) {
		if !j.props.Equal(ref) {
			return j.position, true
		}
	}
	return 0, false
}

// intervalsPreviousBoundary is the backward scan: it returns the start
// of the run of intervals equal to the one at pos, which is where
// inequality begins when scanning backward.
func intervalsPreviousBoundary(root *Interval, pos int) (int, bool) {
	i := findInterval(root, pos)
	if i == nil {
		return 0, false
	}
	ref := i.props
	for j := previousInterval(i); j != nil; j = previousInterval(j) {
		if !j.props.Equal(ref) {
			return j.position + j.length, true
		}
	}
	return 0, false
}

// --- Buffer operations ---

// validatePropRange swaps a reversed pair and checks it against the
// visible region.
func (b *Buffer) validatePropRange(start, end int) (int, int, error) {
	if !b.live {
		return 0, 0, ErrDeadBuffer
	}
	if start > end {
		start, end = end, start
	}
	if start < b.begv || end > b.zv {
		return 0, 0, ErrOutOfRange
	}
	return start, end, nil
}

// TextPropertiesAt returns a copy of the property list of the character
// at pos. A position exactly at the end of the accessible region
// resolves to the last interval.
func (b *Buffer) TextPropertiesAt(pos int) (PropertyList, error) {
	if !b.live {
		return nil, ErrDeadBuffer
	}
	if pos < b.begv || pos > b.zv {
		return nil, ErrOutOfRange
	}
	i := findInterval(b.intervals, pos)
	if i == nil {
		return nil, nil
	}
	return i.props.Copy(), nil
}

// GetTextProperty returns the value of one named property of the
// character at pos.
func (b *Buffer) GetTextProperty(pos int, name string) (any, bool, error) {
	pl, err := b.TextPropertiesAt(pos)
	if err != nil {
		return nil, false, err
	}
	v, ok := pl.Get(name)
	return v, ok, nil
}

// AddTextProperties merges the given name/value pairs into the text in
// [start, end). Reports whether any interval was actually mutated.
func (b *Buffer) AddTextProperties(start, end int, pairs ...any) (bool, error) {
	pl, err := propsFromPairs(pairs)
	if err != nil {
		return false, err
	}
	start, end, err = b.validatePropRange(start, end)
	if err != nil {
		return false, err
	}
	root, changed := intervalsAdd(b.intervals, pl, start, end, b.textLength())
	b.intervals = root
	b.afterPropertyChange()
	return changed, nil
}

// PutTextProperty sets a single property over [start, end).
func (b *Buffer) PutTextProperty(start, end int, name string, value any) (bool, error) {
	return b.AddTextProperties(start, end, name, value)
}

// SetTextProperties replaces the properties of the text in [start, end)
// with exactly the given pairs.
func (b *Buffer) SetTextProperties(start, end int, pairs ...any) (bool, error) {
	pl, err := propsFromPairs(pairs)
	if err != nil {
		return false, err
	}
	start, end, err = b.validatePropRange(start, end)
	if err != nil {
		return false, err
	}
	root, changed := intervalsSet(b.intervals, pl, start, end, b.textLength())
	b.intervals = root
	b.afterPropertyChange()
	return changed, nil
}

// RemoveTextProperties drops the named properties (values are ignored)
// from the text in [start, end). Reports whether any property was
// actually dropped.
func (b *Buffer) RemoveTextProperties(start, end int, pairs ...any) (bool, error) {
	pl, err := propsFromPairs(pairs)
	if err != nil {
		return false, err
	}
	start, end, err = b.validatePropRange(start, end)
	if err != nil {
		return false, err
	}
	root, changed := intervalsRemove(b.intervals, pl, start, end)
	b.intervals = root
	b.afterPropertyChange()
	return changed, nil
}

// EraseTextProperties clears all properties from the text in [start, end).
// Reports whether any covered interval held properties beforehand.
func (b *Buffer) EraseTextProperties(start, end int) (bool, error) {
	start, end, err := b.validatePropRange(start, end)
	if err != nil {
		return false, err
	}
	root, changed := intervalsErase(b.intervals, start, end)
	b.intervals = root
	b.afterPropertyChange()
	return changed, nil
}

// NextPropertyChange returns the position after pos at which the
// properties differ from those at pos, or ok=false if the end of the
// accessible region is reached with no difference found.
func (b *Buffer) NextPropertyChange(pos int) (int, bool, error) {
	if !b.live {
		return 0, false, ErrDeadBuffer
	}
	if pos < b.begv || pos > b.zv {
		return 0, false, ErrOutOfRange
	}
	at, ok := intervalsNextBoundary(b.intervals, pos)
	if !ok || at >= b.zv {
		return 0, false, nil
	}
	return at, true, nil
}

// PreviousPropertyChange returns the position before pos at which the
// run of properties containing pos begins, or ok=false if the beginning
// of the accessible region is reached with no difference found.
func (b *Buffer) PreviousPropertyChange(pos int) (int, bool, error) {
	if !b.live {
		return 0, false, ErrDeadBuffer
	}
	if pos < b.begv || pos > b.zv {
		return 0, false, ErrOutOfRange
	}
	at, ok := intervalsPreviousBoundary(b.intervals, pos)
	if !ok || at <= b.begv {
		return 0, false, nil
	}
	return at, true, nil
}

// afterPropertyChange runs after a property mutation: the tree is
// rebalanced if its subtree weights have drifted past the threshold.
// Property writes do not advance the modification tick; the tick pair
// drives the first-change protocol for storage edits only.
func (b *Buffer) afterPropertyChange() {
	if needsRebalance(b.intervals, b.balanceThreshold) {
		b.intervals = balanceIntervalTree(b.intervals)
	}
}
