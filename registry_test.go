package weft

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGetBufferCreateIsIdempotent(t *testing.T) {
	r := NewRegistry(RegistryOptions{})

	a := r.GetBufferCreate("x")
	b := r.GetBufferCreate("x")
	if a != b {
		t.Error("GetBufferCreate twice should return the identical buffer")
	}

	if !r.KillBuffer("x") {
		t.Fatal("KillBuffer failed")
	}
	c := r.GetBufferCreate("x")
	if c == a {
		t.Error("recreation after kill should return a distinct buffer")
	}
	if c.Modified() || len(c.LocalVariables()) != 0 || c.PointMax() != 1 {
		t.Error("recreated buffer does not start from fundamental state")
	}
}

func TestGenerateNewBufferName(t *testing.T) {
	r := NewRegistry(RegistryOptions{})

	if got := r.GenerateNewBufferName("foo"); got != "foo" {
		t.Errorf("free name = %q, want %q", got, "foo")
	}

	r.GetBufferCreate("foo")
	if got := r.GenerateNewBufferName("foo"); got != "foo<2>" {
		t.Errorf("one taken = %q, want %q", got, "foo<2>")
	}

	r.GetBufferCreate("foo<2>")
	if got := r.GenerateNewBufferName("foo"); got != "foo<3>" {
		t.Errorf("two taken = %q, want %q", got, "foo<3>")
	}
}

func TestRenameBuffer(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	b := r.GetBufferCreate("foo")

	// Round trip to a fresh name and back preserves identity.
	if _, err := r.RenameBuffer(b, "bar", false); err != nil {
		t.Fatalf("RenameBuffer failed: %v", err)
	}
	if r.GetBuffer("bar") != b || r.GetBuffer("foo") != nil {
		t.Error("rename did not move the registry entry")
	}
	if _, err := r.RenameBuffer(b, "foo", false); err != nil {
		t.Fatalf("RenameBuffer back failed: %v", err)
	}
	if r.GetBuffer("foo") != b {
		t.Error("round-trip rename lost registry identity")
	}

	// Renaming onto itself is allowed.
	if _, err := r.RenameBuffer(b, "foo", false); err != nil {
		t.Errorf("self-rename failed: %v", err)
	}
}

func TestRenameCollision(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	r.GetBufferCreate("a")
	b := r.GetBufferCreate("b")

	_, err := r.RenameBuffer(b, "a", false)
	var collision *NameCollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("rename collision = %v, want NameCollisionError", err)
	}
	if collision.Name != "a" {
		t.Errorf("collision name = %q, want %q", collision.Name, "a")
	}

	got, err := r.RenameBuffer(b, "a", true)
	if err != nil {
		t.Fatalf("distinguishing rename failed: %v", err)
	}
	if got != "a<2>" {
		t.Errorf("distinguished name = %q, want %q", got, "a<2>")
	}
}

func TestBufferListRecencyOrder(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	r.GetBufferCreate("a")
	r.GetBufferCreate("b")
	r.GetBufferCreate("c")

	names := func() []string {
		var out []string
		for _, b := range r.BufferList() {
			out = append(out, b.Name())
		}
		return out
	}

	// Creation links at the head of the recency list.
	if diff := cmp.Diff([]string{"c", "b", "a"}, names()); diff != "" {
		t.Errorf("initial order (-want +got):\n%s", diff)
	}

	// User-visible selection reorders.
	if _, err := r.SelectBuffer("a"); err != nil {
		t.Fatalf("SelectBuffer failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "c", "b"}, names()); diff != "" {
		t.Errorf("after select (-want +got):\n%s", diff)
	}

	// SetBuffer is selection without display: recency is untouched.
	if _, err := r.SetBuffer("b"); err != nil {
		t.Fatalf("SetBuffer failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "c", "b"}, names()); diff != "" {
		t.Errorf("after set-buffer (-want +got):\n%s", diff)
	}
	if r.Current().Name() != "b" {
		t.Errorf("current = %q, want %q", r.Current().Name(), "b")
	}
}

func TestKillBuffer(t *testing.T) {
	eval := &recordingEvaluator{}
	r := NewRegistry(RegistryOptions{Evaluator: eval})
	b := r.GetBufferCreate("victim")
	if err := b.Insert(1, "text"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	m, err := b.NewMarker(2, false)
	if err != nil {
		t.Fatalf("NewMarker failed: %v", err)
	}

	if !r.KillBuffer("victim") {
		t.Fatal("KillBuffer returned false")
	}
	if b.Live() || b.Name() != "" {
		t.Error("killed buffer still looks alive")
	}
	if r.GetBuffer("victim") != nil {
		t.Error("killed buffer still registered")
	}
	if _, err := m.Position(); err != ErrDetachedMarker {
		t.Errorf("marker position = %v, want ErrDetachedMarker", err)
	}
	if m.Buffer() != nil {
		t.Error("marker still references the killed buffer")
	}

	// Killing again refuses.
	if r.KillBuffer("victim") {
		t.Error("double kill should return false")
	}

	killHookSeen := false
	for _, h := range eval.hooks {
		if h == HookKillBuffer {
			killHookSeen = true
		}
	}
	if !killHookSeen {
		t.Error("kill hook did not run")
	}
}

func TestKillHookRunsWithBufferCurrent(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	eval := &recordingEvaluator{}
	r.eval = eval

	a := r.GetBufferCreate("a")
	b := r.GetBufferCreate("b")
	if _, err := r.SelectBuffer("a"); err != nil {
		t.Fatalf("SelectBuffer failed: %v", err)
	}

	var currentDuringHook *Buffer
	eval.onHook = func(name string) {
		if name == HookKillBuffer {
			currentDuringHook = r.Current()
		}
	}

	if !r.KillBuffer("b") {
		t.Fatal("KillBuffer failed")
	}
	if currentDuringHook != b {
		t.Error("kill hook did not run with the dying buffer current")
	}
	if r.Current() != a {
		t.Error("previous current buffer not restored after kill")
	}
}

func TestKillRefusesMinibuffer(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	mb := r.GetBufferCreate(" *minibuf*")
	r.SetMinibuffer(mb)

	if r.KillBuffer(" *minibuf*") {
		t.Error("killing the active minibuffer must be refused")
	}
	if !mb.Live() {
		t.Error("refused kill must leave the buffer alive")
	}

	r.SetMinibuffer(nil)
	if !r.KillBuffer(" *minibuf*") {
		t.Error("kill after clearing minibuffer should succeed")
	}
}

func TestKillCurrentSelectsAnother(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	r.GetBufferCreate("stay")
	r.GetBufferCreate("go")
	if _, err := r.SelectBuffer("go"); err != nil {
		t.Fatalf("SelectBuffer failed: %v", err)
	}

	// Empty name kills the current buffer.
	if !r.KillBuffer("") {
		t.Fatal("KillBuffer failed")
	}
	if r.Current() == nil || r.Current().Name() != "stay" {
		t.Error("killing the current buffer should select another")
	}
}

func TestSelectOtherBufferCollaborator(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	scratch := r.GetBufferCreate("*scratch*")
	picky := &pickEvaluator{pick: scratch}
	r.eval = picky

	r.GetBufferCreate("doomed")
	if _, err := r.SelectBuffer("doomed"); err != nil {
		t.Fatalf("SelectBuffer failed: %v", err)
	}
	if !r.KillBuffer("doomed") {
		t.Fatal("KillBuffer failed")
	}
	if r.Current() != scratch {
		t.Error("collaborator's pick was not honored")
	}
}

type pickEvaluator struct {
	nopEvaluator
	pick *Buffer
}

func (e *pickEvaluator) SelectOtherBuffer(excluding *Buffer) *Buffer {
	if e.pick != excluding {
		return e.pick
	}
	return nil
}

func TestInitialModeHook(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		wantHook bool
	}{
		{"trivial_empty", "", false},
		{"trivial_fundamental", Fundamental, false},
		{"real_mode", "text-mode", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := &recordingEvaluator{}
			r := NewRegistry(RegistryOptions{Evaluator: eval, InitialMode: tt.mode})
			r.GetBufferCreate("b")

			seen := false
			for _, h := range eval.hooks {
				if h == tt.mode {
					seen = true
				}
			}
			if seen != tt.wantHook {
				t.Errorf("mode hook fired = %v, want %v", seen, tt.wantHook)
			}
		})
	}
}
