package weft

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestBuffer(t *testing.T, name, text string) *Buffer {
	t.Helper()
	r := NewRegistry(RegistryOptions{})
	b := r.GetBufferCreate(name)
	if text != "" {
		if err := b.Insert(1, text); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	return b
}

func propsAt(t *testing.T, b *Buffer, pos int) PropertyList {
	t.Helper()
	pl, err := b.TextPropertiesAt(pos)
	if err != nil {
		t.Fatalf("TextPropertiesAt(%d) failed: %v", pos, err)
	}
	return pl
}

func TestScenarioAddAndQuery(t *testing.T) {
	b := newTestBuffer(t, "foo", "hello world")

	changed, err := b.AddTextProperties(1, 6, "bold", true)
	if err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	if !changed {
		t.Error("first add should report changed")
	}

	want := PropertyList{{Name: "bold", Value: true}}
	if diff := cmp.Diff(want, propsAt(t, b, 3)); diff != "" {
		t.Errorf("properties at 3 (-want +got):\n%s", diff)
	}
	if got := propsAt(t, b, 7); len(got) != 0 {
		t.Errorf("properties at 7 = %v, want empty", got)
	}
	verifyIntervalTree(t, b.intervals, b.textLength())
}

func TestScenarioBoundaryScan(t *testing.T) {
	b := newTestBuffer(t, "foo", "hello world")
	if _, err := b.AddTextProperties(1, 6, "bold", true); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}

	at, ok, err := b.NextPropertyChange(3)
	if err != nil {
		t.Fatalf("NextPropertyChange failed: %v", err)
	}
	if !ok || at != 6 {
		t.Errorf("NextPropertyChange(3) = %d,%v, want 6,true", at, ok)
	}

	_, ok, err = b.NextPropertyChange(7)
	if err != nil {
		t.Fatalf("NextPropertyChange failed: %v", err)
	}
	if ok {
		t.Error("NextPropertyChange(7) should find no boundary")
	}
}

func TestPreviousPropertyChange(t *testing.T) {
	b := newTestBuffer(t, "foo", "hello world")
	if _, err := b.AddTextProperties(4, 8, "face", "warn"); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}

	tests := []struct {
		name   string
		pos    int
		want   int
		wantOK bool
	}{
		{"inside_run", 6, 4, true},
		{"after_run", 9, 8, true},
		{"at_end_clamps_to_last", 12, 8, true},
		{"in_first_run", 2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, ok, err := b.PreviousPropertyChange(tt.pos)
			if err != nil {
				t.Fatalf("PreviousPropertyChange failed: %v", err)
			}
			if ok != tt.wantOK || (ok && at != tt.want) {
				t.Errorf("PreviousPropertyChange(%d) = %d,%v, want %d,%v", tt.pos, at, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSetIdempotence(t *testing.T) {
	b := newTestBuffer(t, "idem", "abcdefghij")

	for n := 0; n < 2; n++ {
		if _, err := b.SetTextProperties(3, 7, "k", []int{1, 2}); err != nil {
			t.Fatalf("SetTextProperties failed: %v", err)
		}
	}
	want := PropertyList{{Name: "k", Value: []int{1, 2}}}
	for pos := 3; pos < 7; pos++ {
		if diff := cmp.Diff(want, propsAt(t, b, pos)); diff != "" {
			t.Errorf("properties at %d (-want +got):\n%s", pos, diff)
		}
	}
	verifyIntervalTree(t, b.intervals, b.textLength())
}

func TestAddRemoveInverse(t *testing.T) {
	b := newTestBuffer(t, "inv", "abcdefghij")

	// Establish a prior landscape not containing "new".
	if _, err := b.SetTextProperties(2, 5, "old", 1); err != nil {
		t.Fatalf("SetTextProperties failed: %v", err)
	}

	before := make([]PropertyList, 0, 10)
	for pos := 1; pos <= 10; pos++ {
		before = append(before, propsAt(t, b, pos))
	}

	if _, err := b.AddTextProperties(3, 9, "new", "x"); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	changed, err := b.RemoveTextProperties(3, 9, "new", nil)
	if err != nil {
		t.Fatalf("RemoveTextProperties failed: %v", err)
	}
	if !changed {
		t.Error("remove should report a dropped property")
	}

	for pos := 1; pos <= 10; pos++ {
		if diff := cmp.Diff(before[pos-1], propsAt(t, b, pos)); diff != "" {
			t.Errorf("properties at %d not restored (-want +got):\n%s", pos, diff)
		}
	}
	verifyIntervalTree(t, b.intervals, b.textLength())
}

func TestAddReportsCompoundChange(t *testing.T) {
	b := newTestBuffer(t, "cc", "abcdefghij")

	// [1,4) already carries a=1.
	if _, err := b.AddTextProperties(1, 4, "a", 1); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}

	// An add spanning the matching prefix plus fresh text is still a change.
	changed, err := b.AddTextProperties(1, 7, "a", 1)
	if err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	if !changed {
		t.Error("add over partially matching range must report changed")
	}

	// Fully matching add reports no change.
	changed, err = b.AddTextProperties(1, 7, "a", 1)
	if err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	if changed {
		t.Error("fully matching add must not report changed")
	}
}

func TestAddSkipsMatchingValues(t *testing.T) {
	b := newTestBuffer(t, "skip", "abcdefghij")

	if _, err := b.AddTextProperties(1, 11, "a", 1); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	// Same name, different value: still a change.
	changed, err := b.AddTextProperties(4, 6, "a", 2)
	if err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	if !changed {
		t.Error("value overwrite must report changed")
	}
	if v, _ := propsAt(t, b, 4).Get("a"); v != 2 {
		t.Errorf("value at 4 = %v, want 2", v)
	}
	if v, _ := propsAt(t, b, 6).Get("a"); v != 1 {
		t.Errorf("value at 6 = %v, want 1", v)
	}
}

func TestRemoveReportsOnlyRealDrops(t *testing.T) {
	b := newTestBuffer(t, "rm", "abcdefghij")

	changed, err := b.RemoveTextProperties(1, 5, "missing", nil)
	if err != nil {
		t.Fatalf("RemoveTextProperties failed: %v", err)
	}
	if changed {
		t.Error("removing an absent property must not report changed")
	}

	if _, err := b.AddTextProperties(2, 4, "p", true); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	changed, err = b.RemoveTextProperties(1, 5, "p", nil)
	if err != nil {
		t.Fatalf("RemoveTextProperties failed: %v", err)
	}
	if !changed {
		t.Error("removing a present property must report changed")
	}
	if propsAt(t, b, 2).Has("p") {
		t.Error("property survived removal")
	}
}

func TestEraseTextProperties(t *testing.T) {
	b := newTestBuffer(t, "er", "abcdefghij")

	changed, err := b.EraseTextProperties(1, 11)
	if err != nil {
		t.Fatalf("EraseTextProperties failed: %v", err)
	}
	if changed {
		t.Error("erasing a bare buffer must not report changed")
	}

	if _, err := b.AddTextProperties(3, 8, "x", 1); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	changed, err = b.EraseTextProperties(5, 11)
	if err != nil {
		t.Fatalf("EraseTextProperties failed: %v", err)
	}
	if !changed {
		t.Error("erase over a propertied span must report changed")
	}
	if propsAt(t, b, 6).Has("x") {
		t.Error("property survived erase")
	}
	if !propsAt(t, b, 4).Has("x") {
		t.Error("erase clobbered text before the range")
	}
	verifyIntervalTree(t, b.intervals, b.textLength())
}

func TestSwappedRangeIsAccepted(t *testing.T) {
	b := newTestBuffer(t, "swap", "abcdefghij")

	// A reversed pair is silently swapped, never rejected.
	if _, err := b.AddTextProperties(6, 2, "s", 1); err != nil {
		t.Fatalf("AddTextProperties with reversed range failed: %v", err)
	}
	if !propsAt(t, b, 3).Has("s") {
		t.Error("swapped range did not cover position 3")
	}
	if propsAt(t, b, 7).Has("s") {
		t.Error("swapped range leaked past its end")
	}
}

func TestPropertyRangeValidation(t *testing.T) {
	b := newTestBuffer(t, "rv", "abcdefghij")

	if _, err := b.AddTextProperties(1, 99, "a", 1); err != ErrOutOfRange {
		t.Errorf("out-of-range add = %v, want ErrOutOfRange", err)
	}
	if _, err := b.AddTextProperties(1, 4, "a"); err != ErrOddPropertyList {
		t.Errorf("odd pair list = %v, want ErrOddPropertyList", err)
	}
	if _, err := b.AddTextProperties(1, 4, 5, "v"); err != ErrPropertyName {
		t.Errorf("non-string name = %v, want ErrPropertyName", err)
	}
	if _, err := b.TextPropertiesAt(99); err != ErrOutOfRange {
		t.Errorf("out-of-range query = %v, want ErrOutOfRange", err)
	}
}

func TestEndOfObjectQueryResolvesLastInterval(t *testing.T) {
	b := newTestBuffer(t, "edge", "abcde")
	if _, err := b.AddTextProperties(3, 6, "tail", true); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}

	// PointMax is just past the last character: it must clamp to the
	// last interval rather than fail.
	pl := propsAt(t, b, b.PointMax())
	if !pl.Has("tail") {
		t.Errorf("properties at end = %v, want tail", pl)
	}
}

func TestSinglePointRangeIsNoopButQueryResolves(t *testing.T) {
	b := newTestBuffer(t, "pt", "abcde")

	changed, err := b.AddTextProperties(3, 3, "z", 1)
	if err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	if changed {
		t.Error("empty range add must not report changed")
	}
	// The point query still resolves an interval after properties exist.
	if _, err := b.AddTextProperties(1, 6, "w", 1); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	if !propsAt(t, b, 3).Has("w") {
		t.Error("single-point query did not resolve an interval")
	}
}

func TestNarrowedRangeValidation(t *testing.T) {
	b := newTestBuffer(t, "nv", "abcdefghij")
	if err := b.Narrow(3, 8); err != nil {
		t.Fatalf("Narrow failed: %v", err)
	}

	if _, err := b.AddTextProperties(1, 5, "a", 1); err != ErrOutOfRange {
		t.Errorf("add below narrow = %v, want ErrOutOfRange", err)
	}
	if _, err := b.AddTextProperties(4, 7, "a", 1); err != nil {
		t.Errorf("add inside narrow failed: %v", err)
	}
}

func TestPropertyListsNotSharedAcrossIntervals(t *testing.T) {
	b := newTestBuffer(t, "share", "abcdefghij")
	if _, err := b.AddTextProperties(1, 11, "a", 1); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	// Splitting via a partial overwrite must not alias the untouched half.
	if _, err := b.AddTextProperties(1, 5, "b", 2); err != nil {
		t.Fatalf("AddTextProperties failed: %v", err)
	}
	if propsAt(t, b, 7).Has("b") {
		t.Error("property list aliased across a split")
	}
}
