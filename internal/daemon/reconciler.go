package daemon

import (
	"context"
	"log/slog"
	"time"
)

// ReconcileFunc compares tracked windows with the window system and fixes
// drift. It runs on the compositor loop.
type ReconcileFunc func() (added, removed int, err error)

// SubmitFunc hands fn to the compositor loop. It reports false once the loop
// is gone.
type SubmitFunc func(fn func() error) bool

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks for state drift and corrects it.
type Reconciler struct {
	interval  time.Duration
	reconcile ReconcileFunc
	submit    SubmitFunc
	logger    *slog.Logger
}

// NewReconciler creates a new reconciler. A non-positive interval disables
// the periodic pass; ReconcileNow still works.
func NewReconciler(cfg ReconcilerConfig, reconcile ReconcileFunc, submit SubmitFunc) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		interval:  cfg.Interval,
		reconcile: reconcile,
		submit:    submit,
		logger:    logger,
	}
}

// Run submits a reconciliation pass every interval. Blocks until ctx is
// cancelled or the loop stops accepting work.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Debug("reconciler disabled")
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			if !r.submit(func() error {
				r.ReconcileNow()
				return nil
			}) {
				return
			}
		}
	}
}

// ReconcileNow performs one pass. Call it on the compositor loop.
func (r *Reconciler) ReconcileNow() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	added, removed, err := r.reconcile()
	if err != nil {
		r.logger.Error("reconciler: failed to list windows", "error", err)
		return
	}
	if added > 0 || removed > 0 {
		r.logger.Info("reconciler: corrected drift", "added", added, "removed", removed)
	}
}
