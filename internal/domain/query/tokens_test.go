package query

import "testing"

func TestTokenSet(t *testing.T) {
	ts := NewTokenSet([]string{"Love", "", "PEACE", "祥子"})

	if ts.Len() != 3 {
		t.Errorf("Len() = %d, want 3", ts.Len())
	}
	for _, term := range []string{"love", "LOVE", "peace", "祥子"} {
		if !ts.Has(term) {
			t.Errorf("Has(%q) = false, want true", term)
		}
	}
	for _, term := range []string{"", "lov", "war", "祥"} {
		if ts.Has(term) {
			t.Errorf("Has(%q) = true, want false", term)
		}
	}
}

func TestTokenSet_Empty(t *testing.T) {
	var ts TokenSet
	if ts.Has("a") {
		t.Error("zero TokenSet must not contain anything")
	}
	if ts.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ts.Len())
	}
}
