package indexkey

import "testing"

func TestCanonicalAndEqual(t *testing.T) {
	k1 := New(1, 10, 100, 101)
	k2 := New(1, 10, 100, 101)
	k3 := New(1, 10, 101, 100) // different column order

	if !k1.Equal(k2) {
		t.Fatalf("expected %v to equal %v", k1, k2)
	}
	if k1.Equal(k3) {
		t.Fatalf("column order should be significant: %v vs %v", k1, k3)
	}
	if k1.Canonical() != "1/10/100,101" {
		t.Fatalf("unexpected canonical form: %v", k1.Canonical())
	}
}

func TestMerge(t *testing.T) {
	a := New(1, 10, 100)
	b := New(1, 10, 101, 100) // 100 already present in a

	m := Merge(a, b)
	if got := m.Columns; len(got) != 2 || got[0] != 100 || got[1] != 101 {
		t.Fatalf("expected merge to append b's new columns in order, got %v", got)
	}

	// merge is not commutative
	m2 := Merge(b, a)
	if m.Equal(m2) {
		t.Fatalf("expected Merge(a,b) != Merge(b,a), got %v == %v", m, m2)
	}
}

func TestMergeIncompatiblePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic merging incompatible keys")
		}
	}()
	Merge(New(1, 10, 100), New(1, 11, 100))
}

func TestCompatible(t *testing.T) {
	a := New(1, 10, 100)
	if !a.Compatible(New(1, 10, 101)) {
		t.Fatalf("same db/table should be compatible")
	}
	if a.Compatible(New(2, 10, 101)) {
		t.Fatalf("different db should not be compatible")
	}
	if a.Compatible(New(1, 11, 101)) {
		t.Fatalf("different table should not be compatible")
	}
}

func TestLessIsTotalOrder(t *testing.T) {
	a := New(1, 10, 100)
	b := New(1, 10, 101)
	if !a.Less(b) {
		t.Fatalf("expected %v < %v", a.Canonical(), b.Canonical())
	}
	if b.Less(a) {
		t.Fatalf("Less should not be symmetric for distinct keys")
	}
}
