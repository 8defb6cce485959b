package arena

import "testing"

func TestAllocDistinctRegions(t *testing.T) {
	a := New()
	defer a.Free()

	x := a.Alloc(16)
	y := a.Alloc(16)
	for i := range x {
		x[i] = 0xAA
	}
	for i := range y {
		if y[i] != 0 {
			t.Fatalf("y not zeroed / overlaps x at %d: %x", i, y[i])
		}
	}
}

func TestFreeIdempotent(t *testing.T) {
	a := New()
	a.Alloc(8)
	a.Free()
	a.Free() // must not panic
}

func TestAllocAfterFreePanics(t *testing.T) {
	a := New()
	a.Free()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic allocating from a freed arena")
		}
	}()
	a.Alloc(8)
}

func TestSpansMultiplePages(t *testing.T) {
	a := New()
	defer a.Free()
	for i := 0; i < 10_000; i++ {
		a.Alloc(64)
	}
	if len(a.pages) < 2 {
		t.Fatalf("expected allocation to span multiple pages, got %d", len(a.pages))
	}
}
