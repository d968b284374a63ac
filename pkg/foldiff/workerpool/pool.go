// Package workerpool provides the bounded parallel worker pool used to run
// per-file operations (hash, patch encode, patch decode, blob copy)
// concurrently, plus a FIFO Sequencer for restoring a deterministic index
// order on the output of those workers (spec §5).
package workerpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency returns the worker pool size used when a caller has no
// more specific sizing rule: roughly the CPU count, matching spec §5's
// guidance for hashing/compression-bound work.
func DefaultConcurrency() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

// Pool is a thin adapter over errgroup.Group: the first unit's error
// cancels the group's context, which every other in-flight unit observes on
// its next context check. This is errgroup's native behavior; Pool exists
// only to pair it with a fixed concurrency limit and a conventional
// constructor, not to reimplement fan-in (spec §7).
type Pool struct {
	group *errgroup.Group
	ctx   context.Context
}

// New creates a Pool bounded to limit concurrent units, deriving its
// cancellation context from ctx.
func New(ctx context.Context, limit int) *Pool {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	return &Pool{group: group, ctx: groupCtx}
}

// Context returns the pool's cancellable context; units should check it at
// blocking I/O boundaries to observe cancellation promptly.
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Go schedules fn to run as soon as a slot is free, passing it the pool's
// context.
func (p *Pool) Go(fn func(ctx context.Context) error) {
	p.group.Go(func() error {
		return fn(p.ctx)
	})
}

// Wait blocks until every scheduled unit has returned, and returns the
// first non-nil error encountered, if any.
func (p *Pool) Wait() error {
	return p.group.Wait()
}
