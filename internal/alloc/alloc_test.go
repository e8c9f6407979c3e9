package alloc

import "testing"

func TestAlloc(t *testing.T) {
	a := New(45)
	if got := a.Alloc(10); got != 48 {
		t.Errorf("first block at %d, want 48", got)
	}
	if got := a.Alloc(3); got != 64 {
		t.Errorf("second block at %d, want 64", got)
	}
	if a.EOF() != 72 {
		t.Errorf("eof = %d", a.EOF())
	}
	a.Release(10)
	s := a.Stats()
	if s.Allocations != 2 || s.Allocated != 13 || s.Garbage != 10 {
		t.Errorf("stats = %+v", s)
	}
}
