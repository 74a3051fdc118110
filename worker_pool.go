package disruptor

import "sync/atomic"

// WorkerPool distributes a single stream of events across several
// WorkHandler workers, each seeing a disjoint subset of sequences. It
// is the work-queue counterpart to a single EventHandler's fan-out-to-
// everyone BatchEventProcessor.
type WorkerPool[T any] struct {
	ringBuffer   *RingBuffer[T]
	workSequence *Sequence
	processors   []*WorkProcessor[T]
	runnables    []runnable
	executor     Executor
	channels     []<-chan error
	started      atomic.Bool
}

// NewWorkerPool builds a pool of len(handlers) workers, all reading
// ringBuffer through independent barriers gated on the given
// dependentSequences (or the ring's cursor, if none are given), and all
// racing over one shared work sequence.
func NewWorkerPool[T any](ringBuffer *RingBuffer[T], executor Executor, handlers []WorkHandler[T], dependentSequences ...*Sequence) *WorkerPool[T] {
	workSequence := NewSequence(InitialCursorValue)
	processors := make([]*WorkProcessor[T], len(handlers))
	runnables := make([]runnable, len(handlers))
	for i, handler := range handlers {
		barrier := ringBuffer.NewBarrier(dependentSequences...)
		wp := NewWorkProcessor(ringBuffer, barrier, handler, workSequence)
		processors[i] = wp
		runnables[i] = wp
	}
	return &WorkerPool[T]{
		ringBuffer:   ringBuffer,
		workSequence: workSequence,
		processors:   processors,
		runnables:    runnables,
		executor:     executor,
	}
}

// Sequences returns each worker's progress sequence, suitable for
// registering with RingBuffer.AddGatingSequences so producers never lap
// the slowest worker.
func (wp *WorkerPool[T]) Sequences() []*Sequence {
	sequences := make([]*Sequence, len(wp.processors))
	for i, p := range wp.processors {
		sequences[i] = p.Sequence()
	}
	return sequences
}

// Start seeds the shared work sequence to the ring's current cursor,
// registers every worker's progress sequence as a gating sequence on
// ringBuffer, and launches every worker on wp.executor. Single-use: a
// second call returns ErrIllegalState instead of re-launching workers.
func (wp *WorkerPool[T]) Start() error {
	if !wp.started.CompareAndSwap(false, true) {
		return ErrIllegalState
	}

	cursor := wp.ringBuffer.Cursor()
	wp.workSequence.Set(cursor)
	for _, p := range wp.processors {
		p.Sequence().Set(cursor)
	}
	wp.ringBuffer.AddGatingSequences(wp.Sequences()...)
	wp.channels = runAll(wp.executor, wp.runnables)
	return nil
}

// DrainAndHalt blocks until every worker's progress sequence has caught
// up to the ring's cursor, then
// halts every worker and waits for their goroutines to return.
func (wp *WorkerPool[T]) DrainAndHalt() []error {
	for wp.minimumSequence() < wp.ringBuffer.Cursor() {
		parkBriefly(0)
	}
	return wp.Halt()
}

// Halt halts every worker immediately, without waiting for in-flight
// work to drain, and returns each worker's exit error.
func (wp *WorkerPool[T]) Halt() []error {
	haltAll(wp.runnables)
	errs := make([]error, len(wp.channels))
	for i, ch := range wp.channels {
		errs[i] = <-ch
	}
	return errs
}

func (wp *WorkerPool[T]) minimumSequence() int64 {
	return minSequenceOf(wp.Sequences(), wp.ringBuffer.Cursor())
}

func minSequenceOf(sequences []*Sequence, fallback int64) int64 {
	min := fallback
	for _, s := range sequences {
		if v := s.Get(); v < min {
			min = v
		}
	}
	return min
}
