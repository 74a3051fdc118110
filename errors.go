package disruptor

import "errors"

// Sentinel error kinds. Call sites wrap these with fmt.Errorf("%w: ...")
// to attach context; callers compare with errors.Is.
var (
	// ErrInsufficientCapacity is returned by TryNext when the requested
	// slots cannot be claimed without violating a gating sequence.
	ErrInsufficientCapacity = errors.New("disruptor: insufficient capacity")

	// ErrInvalidArgument covers non-power-of-two buffer sizes, non-positive
	// party counts, negative or oversized batch requests.
	ErrInvalidArgument = errors.New("disruptor: invalid argument")

	// ErrTimeoutExpired is returned by CyclicBarrier.Await when the caller's
	// context is done before the barrier trips.
	ErrTimeoutExpired = errors.New("disruptor: timeout expired")

	// ErrBrokenBarrier is returned to every party of a CyclicBarrier
	// generation once that generation has been broken.
	ErrBrokenBarrier = errors.New("disruptor: broken barrier")

	// ErrAlert is the control-flow signal a SequenceBarrier raises when
	// halted. It never reaches user event/work handler code.
	ErrAlert = errors.New("disruptor: alert")

	// ErrIllegalState covers double-start of a processor or worker pool.
	ErrIllegalState = errors.New("disruptor: illegal state")
)
