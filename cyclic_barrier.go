package disruptor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// generation is the rendezvous epoch a CyclicBarrier is currently in.
// done is closed exactly once, either on a successful trip or on break.
type generation struct {
	broken atomic.Bool
	done   chan struct{}
}

func newGeneration() *generation {
	return &generation{done: make(chan struct{})}
}

// CyclicBarrier is an N-party rendezvous, reusable across generations.
// Reimplemented from the abstract contract (spec §4.4) rather than the
// source's own doWait control flow, which the spec itself flags as
// suspicious.
type CyclicBarrier struct {
	mu      sync.Mutex
	parties int
	count   int
	action  func() error
	gen     *generation
}

// NewCyclicBarrier creates a barrier for the given number of parties.
// action, if non-nil, runs once per trip on the thread of the party that
// completes it, before the next generation starts. action must not call
// Await on this barrier — the caller holds the barrier's lock while it
// runs.
func NewCyclicBarrier(parties int, action func() error) (*CyclicBarrier, error) {
	if parties <= 0 {
		return nil, fmt.Errorf("%w: parties must be positive, got %d", ErrInvalidArgument, parties)
	}
	return &CyclicBarrier{
		parties: parties,
		count:   parties,
		action:  action,
		gen:     newGeneration(),
	}, nil
}

// Parties returns the number of parties required to trip the barrier.
func (b *CyclicBarrier) Parties() int {
	return b.parties
}

// Await blocks until all parties have invoked Await on this generation,
// the context is done, or the generation is broken by another party.
// It returns the caller's arrival index: parties-1 for the first
// arrival, down to 0 for the party that trips the barrier.
func (b *CyclicBarrier) Await(ctx context.Context) (int, error) {
	b.mu.Lock()

	gen := b.gen
	if gen.broken.Load() {
		b.mu.Unlock()
		return 0, ErrBrokenBarrier
	}

	index := b.count - 1
	b.count--

	if index == 0 {
		defer b.mu.Unlock()
		if b.action != nil {
			if err := b.action(); err != nil {
				b.breakGeneration(gen)
				return 0, fmt.Errorf("disruptor: cyclic barrier action failed: %w", err)
			}
		}
		b.trip(gen)
		return 0, nil
	}
	b.mu.Unlock()

	select {
	case <-gen.done:
		if gen.broken.Load() {
			return index, ErrBrokenBarrier
		}
		return index, nil
	case <-ctx.Done():
		b.mu.Lock()
		if b.gen == gen {
			b.breakGeneration(gen)
		}
		b.mu.Unlock()
		return index, ErrTimeoutExpired
	}
}

// Reset breaks the current generation, releasing any waiting parties
// with ErrBrokenBarrier, then starts a fresh generation.
func (b *CyclicBarrier) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.breakGeneration(b.gen)
	b.count = b.parties
	b.gen = newGeneration()
}

// IsBroken reports whether the current generation has been broken.
func (b *CyclicBarrier) IsBroken() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen.broken.Load()
}

// trip completes the current generation successfully and starts a new
// one. Called with b.mu held.
func (b *CyclicBarrier) trip(gen *generation) {
	close(gen.done)
	b.count = b.parties
	b.gen = newGeneration()
}

// breakGeneration marks gen broken and wakes every party waiting on it.
// Idempotent: safe to call from multiple timed-out parties concurrently.
// Called with b.mu held.
func (b *CyclicBarrier) breakGeneration(gen *generation) {
	if gen.broken.CompareAndSwap(false, true) {
		close(gen.done)
	}
}
