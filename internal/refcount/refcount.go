// Package refcount provides shared ownership with explicit, release-once
// handles. It is meant for single-threaded owners; the counter itself is not
// synchronized.
package refcount

// Counted tracks outstanding references and runs a finalizer when the last
// one is released.
type Counted struct {
	n        int
	onZero   func()
	finished bool
}

// New returns a counter holding one reference, owned by the returned handle.
func New(onZero func()) (*Counted, *Handle) {
	c := &Counted{onZero: onZero}
	return c, c.Acquire()
}

// Acquire takes one reference. Acquiring after finalization returns nil.
func (c *Counted) Acquire() *Handle {
	if c.finished {
		return nil
	}
	c.n++
	return &Handle{c: c}
}

// Count returns the number of outstanding references.
func (c *Counted) Count() int {
	return c.n
}

// Finished reports whether the finalizer has run.
func (c *Counted) Finished() bool {
	return c.finished
}

func (c *Counted) release() {
	c.n--
	if c.n > 0 {
		return
	}
	c.finished = true
	if c.onZero != nil {
		c.onZero()
	}
}

// Handle is one reference on a Counted. Release is idempotent, so each
// handle decrements the count at most once.
type Handle struct {
	c        *Counted
	released bool
}

// Release drops the reference. Calls after the first are no-ops.
func (h *Handle) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	h.c.release()
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	return h == nil || h.released
}
