package workerpool

import (
	"context"
	"sync"

	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
)

// Sequencer restores a strict 0-based index order over work completed by
// concurrent producers. Each producer calls Submit with the index it was
// assigned; Submit blocks until every lower index has already been
// submitted, so emit runs in index order even though producers finish in
// any order (spec §5: "a producer that finishes blob i+1 before blob i
// waits until i has been flushed").
//
// A Sequencer is bound to the same cancellable context as the worker pool
// producing its indices: once that context is done (the first worker error
// cancels every peer, per spec §7), every producer still blocked inside
// Submit is woken and returns a cancellation error instead of hanging
// forever waiting on an index that will never arrive.
type Sequencer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	aborted bool
}

// NewSequencer creates a Sequencer starting at index 0, bound to ctx: when
// ctx is done, every Submit call currently waiting (or yet to be made) is
// released with a cancellation error.
func NewSequencer(ctx context.Context) *Sequencer {
	s := &Sequencer{}
	s.cond = sync.NewCond(&s.mu)
	go func() {
		<-ctx.Done()
		s.abort()
	}()
	return s
}

// abort marks the sequencer as cancelled and wakes every waiting producer.
func (s *Sequencer) abort() {
	s.mu.Lock()
	s.aborted = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Submit blocks until index is the next expected index, then calls emit
// while holding the sequencer's internal lock (so emit calls across
// producers are themselves serialized, matching the single-threaded
// container writer), then advances the expected index and wakes any
// waiting producers. If the sequencer's context is done before or while
// waiting, Submit returns a *ferrors.Error of KindCancelled without calling
// emit.
func (s *Sequencer) Submit(index uint64, emit func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for index != s.next {
		if s.aborted {
			return ferrors.Cancelled()
		}
		s.cond.Wait()
	}

	if s.aborted {
		return ferrors.Cancelled()
	}

	err := emit()
	s.next++
	s.cond.Broadcast()
	return err
}
