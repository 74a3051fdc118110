package disruptor

import (
	"errors"
	"testing"
	"time"
)

func TestNewSingleProducerSequencerRejectsBadBufferSize(t *testing.T) {
	if _, err := NewSingleProducerSequencer(3, NewBusySpinWaitStrategy()); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSingleProducerSequencerNextPublishIsAvailable(t *testing.T) {
	s, err := NewSingleProducerSequencer(8, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seq, err := s.Next(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != 0 {
		t.Fatalf("expected first claimed sequence 0, got %d", seq)
	}
	if s.IsAvailable(seq) {
		t.Fatalf("sequence should not be available before Publish")
	}

	s.PublishOne(seq)
	if !s.IsAvailable(seq) {
		t.Fatalf("sequence should be available after Publish")
	}
	if got := s.Cursor(); got != 0 {
		t.Fatalf("expected cursor 0, got %d", got)
	}
}

func TestSingleProducerSequencerTryNextRejectsWhenFull(t *testing.T) {
	const size = 4
	s, err := NewSingleProducerSequencer(size, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gating := NewSequence(InitialCursorValue)
	s.AddGatingSequences(gating)

	for i := 0; i < size; i++ {
		if _, err := s.TryNext(1); err != nil {
			t.Fatalf("unexpected error claiming slot %d: %v", i, err)
		}
	}

	if _, err := s.TryNext(1); !errors.Is(err, ErrInsufficientCapacity) {
		t.Fatalf("expected ErrInsufficientCapacity, got %v", err)
	}
}

func TestSingleProducerSequencerTryNextRejectsOversizedBatch(t *testing.T) {
	s, err := NewSingleProducerSequencer(4, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.TryNext(5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSingleProducerSequencerAddGatingSequencesSeedsCursor(t *testing.T) {
	s, err := NewSingleProducerSequencer(8, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Claim(3)

	gating := NewSequence(InitialCursorValue)
	s.AddGatingSequences(gating)

	if got := gating.Get(); got != 3 {
		t.Fatalf("expected gating sequence seeded to cursor value 3, got %d", got)
	}
}

func TestSingleProducerSequencerNextBlocksUntilGatingSequenceAdvances(t *testing.T) {
	const size = 4
	s, err := NewSingleProducerSequencer(size, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gating := NewSequence(InitialCursorValue)
	s.AddGatingSequences(gating)

	for i := 0; i < size; i++ {
		seq, err := s.Next(1)
		if err != nil {
			t.Fatalf("unexpected error claiming slot %d: %v", i, err)
		}
		s.PublishOne(seq)
	}

	// The consumer is stuck at sequence 0 with the ring full, so a 5th
	// claim must block until it advances.
	type result struct {
		seq int64
		err error
	}
	results := make(chan result, 1)
	go func() {
		seq, err := s.Next(1)
		results <- result{seq, err}
	}()

	select {
	case <-results:
		t.Fatalf("Next returned before the gating sequence advanced")
	case <-time.After(20 * time.Millisecond):
	}

	gating.Set(0)

	select {
	case r := <-results:
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if r.seq != 4 {
			t.Fatalf("expected claimed sequence 4, got %d", r.seq)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Next did not return once the gating sequence advanced")
	}
}

func TestSingleProducerSequencerRemainingCapacity(t *testing.T) {
	const size = 8
	s, err := NewSingleProducerSequencer(size, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gating := NewSequence(InitialCursorValue)
	s.AddGatingSequences(gating)

	if got := s.RemainingCapacity(); got != size {
		t.Fatalf("expected full capacity %d, got %d", size, got)
	}

	seq, _ := s.Next(3)
	s.Publish(seq-2, seq)
	gating.Set(seq)

	if got := s.RemainingCapacity(); got != size {
		t.Fatalf("expected capacity %d after consumer caught up, got %d", size, got)
	}
}
