package daemon

import (
	"errors"
	"time"

	"github.com/1broseidon/compshell/internal/ipc"
)

// ErrStopped is returned for requests that arrive after the loop exited.
var ErrStopped = errors.New("compositor is shutting down")

const callTimeout = 3 * time.Second

// controller implements ipc.Controller by running each request on the
// loop goroutine.
type controller struct {
	core    *core
	work    *workQueue
	done    <-chan struct{}
	timeout time.Duration
}

var _ ipc.Controller = (*controller)(nil)

type result[T any] struct {
	v   T
	err error
}

func call[T any](c *controller, fn func() (T, error)) (T, error) {
	var zero T
	out := make(chan result[T], 1)
	job := func() error {
		v, err := fn()
		out <- result[T]{v: v, err: err}
		return nil
	}
	select {
	case c.work.Add() <- job:
	case <-c.done:
		return zero, ErrStopped
	}

	timeout := c.timeout
	if timeout <= 0 {
		timeout = callTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-out:
		return r.v, r.err
	case <-c.done:
		return zero, ErrStopped
	case <-timer.C:
		return zero, errors.New("timed out waiting for the compositor loop")
	}
}

func (c *controller) Status() ipc.StatusData {
	st, _ := call(c, func() (ipc.StatusData, error) { return c.core.status(), nil })
	return st
}

func (c *controller) Windows() []ipc.WindowData {
	ws, _ := call(c, func() ([]ipc.WindowData, error) { return c.core.windows(), nil })
	return ws
}

func (c *controller) Activate(id uint32) error {
	_, err := call(c, func() (struct{}, error) { return struct{}{}, c.core.activate(id) })
	return err
}

func (c *controller) Repaint() error {
	_, err := call(c, func() (struct{}, error) {
		c.core.repaint()
		return struct{}{}, nil
	})
	return err
}

func (c *controller) Reload() error {
	_, err := call(c, func() (struct{}, error) { return struct{}{}, c.core.reload() })
	return err
}
