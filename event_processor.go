package disruptor

import (
	"errors"
	"log"
	"sync/atomic"
)

// EventHandler is user code invoked once per published event, in
// sequence order, by a single BatchEventProcessor goroutine.
type EventHandler[T any] interface {
	OnEvent(event *T, sequence int64, endOfBatch bool) error
}

// EventHandlerFunc adapts a plain function to an EventHandler.
type EventHandlerFunc[T any] func(event *T, sequence int64, endOfBatch bool) error

// OnEvent implements EventHandler.
func (f EventHandlerFunc[T]) OnEvent(event *T, sequence int64, endOfBatch bool) error {
	return f(event, sequence, endOfBatch)
}

// LifecycleAware lets a handler observe processor start/shutdown. An
// EventHandler or WorkHandler may optionally implement it.
type LifecycleAware interface {
	OnStart()
	OnShutdown()
}

// ExceptionHandler decides what a processor does when OnEvent returns
// an error or panics. The default implementation logs and continues.
type ExceptionHandler[T any] interface {
	HandleEventException(err error, sequence int64, event *T)
	HandleOnStartException(err error)
	HandleOnShutdownException(err error)
}

type defaultExceptionHandler[T any] struct {
	logger *log.Logger
}

func newDefaultExceptionHandler[T any](logger *log.Logger) *defaultExceptionHandler[T] {
	if logger == nil {
		logger = log.Default()
	}
	return &defaultExceptionHandler[T]{logger: logger}
}

func (h *defaultExceptionHandler[T]) HandleEventException(err error, sequence int64, event *T) {
	h.logger.Printf("disruptor: event handler error at sequence %d: %v", sequence, err)
}

func (h *defaultExceptionHandler[T]) HandleOnStartException(err error) {
	h.logger.Printf("disruptor: handler OnStart error: %v", err)
}

func (h *defaultExceptionHandler[T]) HandleOnShutdownException(err error) {
	h.logger.Printf("disruptor: handler OnShutdown error: %v", err)
}

type processorState int32

const (
	processorIdle processorState = iota
	processorRunning
)

// BatchEventProcessor repeatedly waits on a SequenceBarrier, then
// delivers every event in the newly available contiguous run to an
// EventHandler, one at a time, before publishing its own Sequence so
// downstream consumers and gating producers can see its progress.
type BatchEventProcessor[T any] struct {
	ringBuffer       *RingBuffer[T]
	barrier          *SequenceBarrier
	handler          EventHandler[T]
	exceptionHandler ExceptionHandler[T]
	sequence         *Sequence
	state            atomic.Int32
	haltRequested    atomic.Bool
}

// NewBatchEventProcessor builds a processor reading ringBuffer through
// barrier, delivering each event to handler.
func NewBatchEventProcessor[T any](ringBuffer *RingBuffer[T], barrier *SequenceBarrier, handler EventHandler[T]) *BatchEventProcessor[T] {
	return &BatchEventProcessor[T]{
		ringBuffer:       ringBuffer,
		barrier:          barrier,
		handler:          handler,
		exceptionHandler: newDefaultExceptionHandler[T](nil),
		sequence:         NewSequence(InitialCursorValue),
	}
}

// WithExceptionHandler overrides the default log-and-continue exception
// handler. Must be called before Run.
func (p *BatchEventProcessor[T]) WithExceptionHandler(handler ExceptionHandler[T]) *BatchEventProcessor[T] {
	p.exceptionHandler = handler
	return p
}

// Sequence returns this processor's progress sequence, suitable for use
// as a gating sequence or a downstream dependency.
func (p *BatchEventProcessor[T]) Sequence() *Sequence {
	return p.sequence
}

// IsRunning reports whether Run is currently executing.
func (p *BatchEventProcessor[T]) IsRunning() bool {
	return processorState(p.state.Load()) == processorRunning
}

// Halt requests that Run return as soon as it notices, by alerting the
// barrier it is waiting on. Safe to call before Run, in which case Run
// exits immediately after its start/shutdown hooks without processing
// anything.
func (p *BatchEventProcessor[T]) Halt() {
	p.haltRequested.Store(true)
	p.barrier.Alert()
}

// Run drives the processor's wait/deliver loop until Halt is called or
// the barrier's WaitFor fails with an error other than ErrAlert, which
// Run then returns. It blocks the calling
// goroutine; callers normally invoke it via an Executor. A second,
// concurrent call while Run is already running returns ErrIllegalState
// instead of running twice; once Run returns, the processor is idle
// again and a later call may restart it.
func (p *BatchEventProcessor[T]) Run() error {
	if !p.state.CompareAndSwap(int32(processorIdle), int32(processorRunning)) {
		return ErrIllegalState
	}
	defer p.state.CompareAndSwap(int32(processorRunning), int32(processorIdle))
	defer p.haltRequested.Store(false)

	p.runProtectedStart()
	defer p.runProtectedShutdown()

	p.barrier.ClearAlert()
	if p.haltRequested.Load() {
		return nil
	}

	nextSequence := p.sequence.Get() + 1
	for {
		availableSequence, err := p.barrier.WaitFor(nextSequence)
		if err != nil {
			if errors.Is(err, ErrAlert) {
				return nil
			}
			return err
		}

		for nextSequence <= availableSequence {
			event := p.ringBuffer.Get(nextSequence)
			endOfBatch := nextSequence == availableSequence
			if err := p.callOnEvent(event, nextSequence, endOfBatch); err != nil {
				p.exceptionHandler.HandleEventException(err, nextSequence, event)
			}
			nextSequence++
		}
		p.sequence.Set(availableSequence)
	}
}

func (p *BatchEventProcessor[T]) callOnEvent(event *T, sequence int64, endOfBatch bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("disruptor: event handler panicked")
		}
	}()
	return p.handler.OnEvent(event, sequence, endOfBatch)
}

func (p *BatchEventProcessor[T]) runProtectedStart() {
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

func (p *BatchEventProcessor[T]) runProtectedShutdown() {
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
