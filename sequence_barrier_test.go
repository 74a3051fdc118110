package disruptor

import (
	"errors"
	"testing"
	"time"
)

func TestSequenceBarrierWaitForCursor(t *testing.T) {
	s, err := NewSingleProducerSequencer(8, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	barrier := s.NewBarrier()

	seq, _ := s.Next(1)
	s.PublishOne(seq)

	available, err := barrier.WaitFor(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if available != 0 {
		t.Fatalf("expected available 0, got %d", available)
	}
}

func TestSequenceBarrierWaitForDependent(t *testing.T) {
	s, err := NewSingleProducerSequencer(8, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dependent := NewSequence(InitialCursorValue)
	barrier := s.NewBarrier(dependent)

	seq, _ := s.Next(1)
	s.PublishOne(seq)

	// Producer has published but the dependent consumer hasn't advanced
	// yet, so the barrier must block until it does.
	type result struct {
		available int64
		err       error
	}
	results := make(chan result, 1)
	go func() {
		available, err := barrier.WaitFor(0)
		results <- result{available, err}
	}()

	select {
	case <-results:
		t.Fatalf("WaitFor returned before the dependent consumer advanced")
	case <-time.After(20 * time.Millisecond):
	}

	dependent.Set(0)

	select {
	case r := <-results:
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if r.available != 0 {
			t.Fatalf("expected available 0 once dependent advances, got %d", r.available)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("WaitFor did not return once dependent advanced")
	}
}

func TestSequenceBarrierAlert(t *testing.T) {
	s, err := NewSingleProducerSequencer(8, NewBlockingWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	barrier := s.NewBarrier()

	if barrier.IsAlerted() {
		t.Fatalf("expected barrier to start unalerted")
	}

	barrier.Alert()
	if !barrier.IsAlerted() {
		t.Fatalf("expected barrier to be alerted")
	}
	if !errors.Is(barrier.CheckAlert(), ErrAlert) {
		t.Fatalf("expected CheckAlert to return ErrAlert")
	}

	if _, err := barrier.WaitFor(0); !errors.Is(err, ErrAlert) {
		t.Fatalf("expected WaitFor to return ErrAlert, got %v", err)
	}

	barrier.ClearAlert()
	if barrier.IsAlerted() {
		t.Fatalf("expected barrier to be unalerted after ClearAlert")
	}
}
