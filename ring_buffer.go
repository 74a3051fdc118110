package disruptor

import "fmt"

// EventFactory pre-allocates the payload objects a RingBuffer stores.
// NewInstance is called exactly bufferSize times, at construction.
type EventFactory[T any] interface {
	NewInstance() T
}

// EventFactoryFunc adapts a plain function to an EventFactory.
type EventFactoryFunc[T any] func() T

// NewInstance implements EventFactory.
func (f EventFactoryFunc[T]) NewInstance() T { return f() }

// RingBuffer is a fixed-size, pre-allocated array of T, addressed by
// sequence & (bufferSize-1). It is a thin façade over a Sequencer: slot
// storage and addressing live here, allocation and gating live there.
type RingBuffer[T any] struct {
	entries    []T
	indexMask  int64
	bufferSize int64
	sequencer  Sequencer
}

// NewSingleProducerRingBuffer builds a ring buffer backed by a
// SingleProducerSequencer. bufferSize must be a positive power of two.
func NewSingleProducerRingBuffer[T any](factory EventFactory[T], bufferSize int64, waitStrategy WaitStrategy) (*RingBuffer[T], error) {
	sequencer, err := NewSingleProducerSequencer(bufferSize, waitStrategy)
	if err != nil {
		return nil, err
	}
	return newRingBuffer(factory, bufferSize, sequencer)
}

// NewMultiProducerRingBuffer builds a ring buffer backed by a
// MultiProducerSequencer. bufferSize must be a positive power of two.
func NewMultiProducerRingBuffer[T any](factory EventFactory[T], bufferSize int64, waitStrategy WaitStrategy) (*RingBuffer[T], error) {
	sequencer, err := NewMultiProducerSequencer(bufferSize, waitStrategy)
	if err != nil {
		return nil, err
	}
	return newRingBuffer(factory, bufferSize, sequencer)
}

func newRingBuffer[T any](factory EventFactory[T], bufferSize int64, sequencer Sequencer) (*RingBuffer[T], error) {
	if err := validateBufferSize(bufferSize); err != nil {
		return nil, err
	}
	entries := make([]T, bufferSize)
	for i := range entries {
		entries[i] = factory.NewInstance()
	}
	return &RingBuffer[T]{
		entries:    entries,
		indexMask:  bufferSize - 1,
		bufferSize: bufferSize,
		sequencer:  sequencer,
	}, nil
}

// Get returns a pointer to the pre-allocated slot for sequence, valid
// both for a producer filling it and a consumer reading it.
func (r *RingBuffer[T]) Get(sequence int64) *T {
	return &r.entries[sequence&r.indexMask]
}

// Next claims the next single slot, blocking if the ring is full.
func (r *RingBuffer[T]) Next() (int64, error) {
	return r.sequencer.Next(1)
}

// NextN claims the next n slots as a contiguous range, blocking if the
// ring cannot free them. Returns the highest claimed sequence.
func (r *RingBuffer[T]) NextN(n int64) (int64, error) {
	return r.sequencer.Next(n)
}

// TryNext is the non-blocking form of Next.
func (r *RingBuffer[T]) TryNext() (int64, error) {
	return r.sequencer.TryNext(1)
}

// TryNextN is the non-blocking form of NextN.
func (r *RingBuffer[T]) TryNextN(n int64) (int64, error) {
	return r.sequencer.TryNext(n)
}

// Publish makes sequence visible to consumers.
func (r *RingBuffer[T]) Publish(sequence int64) {
	r.sequencer.PublishOne(sequence)
}

// PublishRange makes the inclusive range [low, high] visible to
// consumers.
func (r *RingBuffer[T]) PublishRange(low, high int64) {
	r.sequencer.Publish(low, high)
}

// IsPublished reports whether sequence has been published.
func (r *RingBuffer[T]) IsPublished(sequence int64) bool {
	return r.sequencer.IsAvailable(sequence)
}

// AddGatingSequences registers consumer sequences producers must not
// lap.
func (r *RingBuffer[T]) AddGatingSequences(sequences ...*Sequence) {
	r.sequencer.AddGatingSequences(sequences...)
}

// RemoveGatingSequence removes sequence from the gating set.
func (r *RingBuffer[T]) RemoveGatingSequence(sequence *Sequence) bool {
	return r.sequencer.RemoveGatingSequence(sequence)
}

// NewBarrier returns a SequenceBarrier gated on this ring's cursor, or
// on the minimum of dependentSequences if given.
func (r *RingBuffer[T]) NewBarrier(dependentSequences ...*Sequence) *SequenceBarrier {
	return r.sequencer.NewBarrier(dependentSequences...)
}

// Cursor returns the sequencer's cursor: the highest published sequence
// for a single-producer ring, the highest claimed sequence (published or
// not) for a multi-producer ring.
func (r *RingBuffer[T]) Cursor() int64 {
	return r.sequencer.Cursor()
}

// BufferSize returns the ring's capacity.
func (r *RingBuffer[T]) BufferSize() int64 {
	return r.bufferSize
}

// HasAvailableCapacity reports whether n slots could be claimed right
// now without blocking.
func (r *RingBuffer[T]) HasAvailableCapacity(n int64) bool {
	return r.sequencer.HasAvailableCapacity(n)
}

// RemainingCapacity returns how many slots may still be claimed before
// producers would lap the slowest gating sequence.
func (r *RingBuffer[T]) RemainingCapacity() int64 {
	return r.sequencer.RemainingCapacity()
}

// ClaimAndGetPreallocated claims sequence directly (bypassing normal
// allocation) and returns its pre-allocated slot. Intended for seeding
// a ring before any producer runs.
func (r *RingBuffer[T]) ClaimAndGetPreallocated(sequence int64) *T {
	r.sequencer.Claim(sequence)
	return r.Get(sequence)
}

// ResetTo resets the sequencer's cursor to sequence. Racy; intended
// only for initialization.
func (r *RingBuffer[T]) ResetTo(sequence int64) {
	r.sequencer.Claim(sequence)
}

// EventTranslator is the only mechanism by which a caller supplies data
// into a pre-allocated slot.
type EventTranslator[T, A any] interface {
	TranslateTo(event *T, sequence int64, arg A)
}

// EventTranslatorFunc adapts a plain function to an EventTranslator.
type EventTranslatorFunc[T, A any] func(event *T, sequence int64, arg A)

// TranslateTo implements EventTranslator.
func (f EventTranslatorFunc[T, A]) TranslateTo(event *T, sequence int64, arg A) { f(event, sequence, arg) }

// PublishEvent claims a slot, runs translator against it, and publishes
// — even if translator panics. Go methods can't carry their own type
// parameters beyond the receiver's, so the translator-based publish
// helpers are free functions taking the ring buffer as their first
// argument.
func PublishEvent[T, A any](rb *RingBuffer[T], translator EventTranslator[T, A], arg A) error {
	sequence, err := rb.Next()
	if err != nil {
		return err
	}
	return translateAndPublish(rb, translator, sequence, arg)
}

// TryPublishEvent is the non-blocking form of PublishEvent. It returns
// (false, nil) if the ring has no free slot right now.
func TryPublishEvent[T, A any](rb *RingBuffer[T], translator EventTranslator[T, A], arg A) (bool, error) {
	sequence, err := rb.TryNext()
	if err != nil {
		if err == ErrInsufficientCapacity {
			return false, nil
		}
		return false, err
	}
	if err := translateAndPublish(rb, translator, sequence, arg); err != nil {
		return false, err
	}
	return true, nil
}

func translateAndPublish[T, A any](rb *RingBuffer[T], translator EventTranslator[T, A], sequence int64, arg A) (err error) {
	defer func() {
		rb.Publish(sequence)
		if r := recover(); r != nil {
			err = fmt.Errorf("disruptor: event translator panicked: %v", r)
		}
	}()
	translator.TranslateTo(rb.Get(sequence), sequence, arg)
	return nil
}

// PublishEvents claims len(args) slots, translates each, and publishes
// the whole range — even if a translator panics partway through. Batch
// size is always len(args): explicit, never inferred.
func PublishEvents[T, A any](rb *RingBuffer[T], translator EventTranslator[T, A], args []A) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: args must be non-empty", ErrInvalidArgument)
	}
	batchSize := int64(len(args))
	high, err := rb.NextN(batchSize)
	if err != nil {
		return err
	}
	low := high - batchSize + 1
	return translateAndPublishBatch(rb, translator, low, high, args)
}

// TryPublishEvents is the non-blocking form of PublishEvents.
func TryPublishEvents[T, A any](rb *RingBuffer[T], translator EventTranslator[T, A], args []A) (bool, error) {
	if len(args) == 0 {
		return false, fmt.Errorf("%w: args must be non-empty", ErrInvalidArgument)
	}
	batchSize := int64(len(args))
	high, err := rb.TryNextN(batchSize)
	if err != nil {
		if err == ErrInsufficientCapacity {
			return false, nil
		}
		return false, err
	}
	low := high - batchSize + 1
	if err := translateAndPublishBatch(rb, translator, low, high, args); err != nil {
		return false, err
	}
	return true, nil
}

func translateAndPublishBatch[T, A any](rb *RingBuffer[T], translator EventTranslator[T, A], low, high int64, args []A) (err error) {
	defer func() {
		rb.PublishRange(low, high)
		if r := recover(); r != nil {
			err = fmt.Errorf("disruptor: event translator panicked: %v", r)
		}
	}()
	for i, seq := 0, low; seq <= high; i, seq = i+1, seq+1 {
		translator.TranslateTo(rb.Get(seq), seq, args[i])
	}
	return nil
}
