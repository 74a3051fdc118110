package disruptor

import (
	"fmt"
	"math/bits"
	"runtime"
	"time"
)

// Sequencer coordinates slot allocation and availability between
// producers and the consumers gating them. SingleProducerSequencer and
// MultiProducerSequencer are the two realizations.
type Sequencer interface {
	// Next blocks until n slots are free and returns the highest
	// claimed sequence in the range.
	Next(n int64) (int64, error)

	// TryNext is the non-blocking form of Next: it returns
	// ErrInsufficientCapacity instead of waiting.
	TryNext(n int64) (int64, error)

	// Publish makes the inclusive range [low, high] visible to consumers.
	Publish(low, high int64)

	// PublishOne is Publish(sequence, sequence).
	PublishOne(sequence int64)

	// IsAvailable reports whether sequence has been published.
	IsAvailable(sequence int64) bool

	// AddGatingSequences registers sequences the sequencer must not lap,
	// seeding each to the current cursor value first.
	AddGatingSequences(sequences ...*Sequence)

	// RemoveGatingSequence removes sequence from the gating set,
	// reporting whether it was present.
	RemoveGatingSequence(sequence *Sequence) bool

	// GetMinimumSequence returns the minimum of the gating sequences and
	// the cursor.
	GetMinimumSequence() int64

	// GetHighestPublishedSequence translates "the cursor moved forward"
	// into "the contiguous run now readable starting at lowerBound".
	GetHighestPublishedSequence(lowerBound, availableSequence int64) int64

	// NewBarrier returns a SequenceBarrier gated on this sequencer's
	// cursor and, if given, on the minimum of dependentSequences instead.
	NewBarrier(dependentSequences ...*Sequence) *SequenceBarrier

	// Claim resets the sequencer's cursor to sequence. Racy: intended
	// only for initialization before any producer/consumer is running.
	Claim(sequence int64)

	// Cursor returns the cursor value: the highest published sequence
	// for a single producer, the highest claimed sequence (published or
	// not) for multiple producers.
	Cursor() int64

	// RemainingCapacity returns how many slots may still be claimed
	// before producers would lap the slowest gating sequence.
	RemainingCapacity() int64

	// HasAvailableCapacity reports whether n slots could be claimed right
	// now without blocking.
	HasAvailableCapacity(n int64) bool

	// BufferSize returns the ring size this sequencer was built for.
	BufferSize() int64
}

// highestPublishedSequenceProvider is the narrow slice of Sequencer a
// SequenceBarrier needs, used so SequenceBarrier doesn't depend on the
// full Sequencer interface.
type highestPublishedSequenceProvider interface {
	GetHighestPublishedSequence(lowerBound, availableSequence int64) int64
}

// validateBufferSize enforces the power-of-two invariant shared by both
// sequencer variants and the ring buffer.
func validateBufferSize(n int64) error {
	if n <= 0 || (n&(n-1)) != 0 {
		return fmt.Errorf("%w: buffer size must be a positive power of two, got %d", ErrInvalidArgument, n)
	}
	return nil
}

// validateBatchSize enforces that a claimed batch is positive and no
// larger than the ring itself.
func validateBatchSize(n, bufferSize int64) error {
	if n < 1 || n > bufferSize {
		return fmt.Errorf("%w: batch size must be between 1 and %d, got %d", ErrInvalidArgument, bufferSize, n)
	}
	return nil
}

// log2 returns the exponent of a power-of-two buffer size, used to
// split a sequence into its slot index and its availability "lap".
func log2(bufferSize int64) uint {
	return uint(bits.Len64(uint64(bufferSize)) - 1)
}

// parkBriefly is what a producer spins on while waiting for gating
// sequences to advance, matching the teacher's own spin-then-yield
// throttling in its CAS retry loops (mpmc.go's goschedEvery).
const spinsBeforeYield = 64

func parkBriefly(spins int64) {
	if spins%spinsBeforeYield == 0 {
		runtime.Gosched()
	} else {
		time.Sleep(time.Nanosecond)
	}
}
