package disruptor

import (
	"errors"
	"sync/atomic"
)

// WorkHandler is user code invoked once per claimed event by whichever
// WorkProcessor in a WorkerPool happened to claim it. Unlike
// EventHandler, no ordering or batching guarantee is made across
// workers — only one worker ever sees a given sequence.
type WorkHandler[T any] interface {
	OnEvent(event *T, sequence int64) error
}

// WorkHandlerFunc adapts a plain function to a WorkHandler.
type WorkHandlerFunc[T any] func(event *T, sequence int64) error

// OnEvent implements WorkHandler.
func (f WorkHandlerFunc[T]) OnEvent(event *T, sequence int64) error { return f(event, sequence) }

// WorkProcessor is one worker in a WorkerPool. Workers share a single
// workSequence: each claims the next unclaimed sequence with a CAS,
// processes it, then advances its own progress Sequence so producers
// and the pool's minimum-sequence tracking can see it.
type WorkProcessor[T any] struct {
	ringBuffer       *RingBuffer[T]
	barrier          *SequenceBarrier
	handler          WorkHandler[T]
	exceptionHandler ExceptionHandler[T]
	workSequence     *Sequence
	sequence         *Sequence
	running          atomic.Bool
	haltRequested    atomic.Bool
}

// NewWorkProcessor builds a worker sharing workSequence with its
// siblings in the same pool.
func NewWorkProcessor[T any](ringBuffer *RingBuffer[T], barrier *SequenceBarrier, handler WorkHandler[T], workSequence *Sequence) *WorkProcessor[T] {
	return &WorkProcessor[T]{
		ringBuffer:       ringBuffer,
		barrier:          barrier,
		handler:          handler,
		exceptionHandler: newDefaultExceptionHandler[T](nil),
		workSequence:     workSequence,
		sequence:         NewSequence(InitialCursorValue),
	}
}

// WithExceptionHandler overrides the default log-and-continue exception
// handler. Must be called before Run.
func (p *WorkProcessor[T]) WithExceptionHandler(handler ExceptionHandler[T]) *WorkProcessor[T] {
	p.exceptionHandler = handler
	return p
}

// Sequence returns this worker's own progress sequence.
func (p *WorkProcessor[T]) Sequence() *Sequence {
	return p.sequence
}

// IsRunning reports whether Run is currently executing.
func (p *WorkProcessor[T]) IsRunning() bool {
	return p.running.Load()
}

// Halt requests that Run return as soon as it notices. Safe to call
// before Run, in which case Run exits without processing anything.
func (p *WorkProcessor[T]) Halt() {
	p.haltRequested.Store(true)
	p.running.Store(false)
	p.barrier.Alert()
}

// Run drives the claim/process loop until Halt is called. It caches
// the barrier's last reported availableSequence across iterations so a
// worker that races ahead of its siblings doesn't re-wait on the
// barrier for every single claim, only when it has exhausted the
// already-known-available range — the standard LMAX WorkProcessor
// refinement over a naive "WaitFor every sequence" loop.
func (p *WorkProcessor[T]) Run() error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrIllegalState
	}
	defer p.running.Store(false)
	defer p.haltRequested.Store(false)

	p.runProtectedStart()
	defer p.runProtectedShutdown()

	p.barrier.ClearAlert()
	if p.haltRequested.Load() {
		return nil
	}

	cachedAvailable := int64(InitialCursorValue)
	nextSequence := p.sequence.Get()
	processedSequence := true

	for {
		if processedSequence {
			processedSequence = false
			for {
				nextSequence = p.workSequence.Get() + 1
				p.sequence.Set(nextSequence - 1)
				if p.workSequence.CompareAndSet(nextSequence-1, nextSequence) {
					break
				}
			}
		}

		if cachedAvailable >= nextSequence {
			event := p.ringBuffer.Get(nextSequence)
			if err := p.callOnEvent(event, nextSequence); err != nil {
				p.exceptionHandler.HandleEventException(err, nextSequence, event)
			}
			processedSequence = true
			continue
		}

		available, err := p.barrier.WaitFor(nextSequence)
		if err != nil {
			if errors.Is(err, ErrAlert) {
				return nil
			}
			return err
		}
		cachedAvailable = available
	}
}

func (p *WorkProcessor[T]) callOnEvent(event *T, sequence int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("disruptor: work handler panicked")
		}
	}()
	return p.handler.OnEvent(event, sequence)
}

func (p *WorkProcessor[T]) runProtectedStart() {
	aware, ok := p.handler.(LifecycleAware)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.exceptionHandler.HandleOnStartException(errors.New("disruptor: handler OnStart panicked"))
		}
	}()
	aware.OnStart()
}

func (p *WorkProcessor[T]) runProtectedShutdown() {
	aware, ok := p.handler.(LifecycleAware)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.exceptionHandler.HandleOnShutdownException(errors.New("disruptor: handler OnShutdown panicked"))
		}
	}()
	aware.OnShutdown()
}
