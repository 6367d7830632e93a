package hashchain

import (
	"testing"
)

func TestNextLink(t *testing.T) {
	// same link for same input.
	l1 := NextLink(Genesis, []byte("e1"))
	l2 := NextLink(Genesis, []byte("e1"))
	if l1 != l2 {
		t.Fatal()
	}
	// 32-byte digest in hex.
	if len(l1) != 64 {
		t.Fatal()
	}

	// diff links for diff content or diff prev.
	if NextLink(Genesis, []byte("e2")) == l1 {
		t.Fatal()
	}
	if NextLink(l1, []byte("e1")) == l1 {
		t.Fatal()
	}
}

func TestChain(t *testing.T) {
	c := New()
	if c.Tip() != Genesis {
		t.Fatal()
	}

	// Extend folds NextLink over the entries.
	entries := [][]byte{[]byte("e1"), []byte("e2"), []byte("e3")}
	var tips []string
	for _, e := range entries {
		tips = append(tips, c.Extend(e))
	}
	prev := Genesis
	for i, e := range entries {
		prev = NextLink(prev, e)
		if tips[i] != prev {
			t.Fatal()
		}
	}
	if c.Tip() != prev {
		t.Fatal()
	}

	// a resumed chain extends from the given tip.
	r := Resume(tips[1])
	if r.Tip() != tips[1] {
		t.Fatal()
	}
	if r.Extend(entries[2]) != tips[2] {
		t.Fatal()
	}
}
