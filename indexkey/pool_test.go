package indexkey

import "testing"

func TestPoolInternIsIdempotent(t *testing.T) {
	p := NewPool()
	k1 := New(1, 10, 100)
	k2 := New(1, 10, 100)

	h1 := p.Intern(k1)
	h2 := p.Intern(k2)
	if h1 != h2 {
		t.Fatalf("interning two equal keys should return the same handle")
	}
	if p.Size() != 1 {
		t.Fatalf("expected pool size 1, got %d", p.Size())
	}

	h3 := p.Intern(New(1, 10, 101))
	if h3 == h1 {
		t.Fatalf("interning a different key should return a different handle")
	}
	if p.Size() != 2 {
		t.Fatalf("expected pool size 2, got %d", p.Size())
	}
}

func TestPoolLookupNonInserting(t *testing.T) {
	p := NewPool()
	if _, ok := p.Lookup(New(1, 10, 100)); ok {
		t.Fatalf("lookup on empty pool should miss")
	}
	if p.Size() != 0 {
		t.Fatalf("lookup must not insert, size = %d", p.Size())
	}

	h := p.Intern(New(1, 10, 100))
	found, ok := p.Lookup(New(1, 10, 100))
	if !ok || found != h {
		t.Fatalf("lookup should find the interned handle")
	}
}
