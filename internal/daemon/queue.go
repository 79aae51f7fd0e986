package daemon

import (
	"errors"

	"deedles.dev/xsync/cq"
)

// workQueue carries closures from other goroutines (IPC, timers, signals)
// into the compositor loop. Adds never block on the loop; the loop receives
// everything queued so far as one batch.
type workQueue = cq.BulkQueue[func() error, *batch]

func newWorkQueue() *workQueue {
	return cq.New(func(v []func() error) *batch {
		return &batch{work: v}
	})
}

type batch struct {
	work []func() error
}

// run executes the batch in order and joins the errors.
func (b *batch) run() error {
	var errs []error
	for _, fn := range b.work {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	b.work = nil
	return errors.Join(errs...)
}
