package game

import "testing"

func TestShortID(t *testing.T) {
	a := ShortID()
	b := ShortID()

	if len(a) != 8 || len(b) != 8 {
		t.Fatalf("short IDs should be 8 chars, got %q and %q", a, b)
	}
	if a == b {
		t.Fatalf("consecutive short IDs should differ, both %q", a)
	}
}
