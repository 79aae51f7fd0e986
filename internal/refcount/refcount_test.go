package refcount

import "testing"

func TestCounted_FinalizesAfterLastRelease(t *testing.T) {
	finalized := 0
	c, owner := New(func() { finalized++ })

	extra := c.Acquire()
	if c.Count() != 2 {
		t.Fatalf("expected 2 refs, got %d", c.Count())
	}

	owner.Release()
	if finalized != 0 {
		t.Fatalf("finalized with a reference outstanding")
	}

	extra.Release()
	if finalized != 1 {
		t.Fatalf("expected one finalization, got %d", finalized)
	}
	if !c.Finished() {
		t.Fatalf("expected counter to be finished")
	}
}

func TestHandle_ReleaseIsIdempotent(t *testing.T) {
	finalized := 0
	c, owner := New(func() { finalized++ })
	extra := c.Acquire()

	extra.Release()
	extra.Release()
	extra.Release()
	if c.Count() != 1 {
		t.Fatalf("double release leaked into the count: %d", c.Count())
	}

	owner.Release()
	owner.Release()
	if finalized != 1 {
		t.Fatalf("expected one finalization, got %d", finalized)
	}
}

func TestAcquire_AfterFinishReturnsNil(t *testing.T) {
	c, owner := New(nil)
	owner.Release()

	h := c.Acquire()
	if h != nil {
		t.Fatalf("expected nil handle after finalization")
	}
	// A nil handle is safe to release.
	h.Release()
	if !h.Released() {
		t.Fatalf("nil handle should report released")
	}
}
