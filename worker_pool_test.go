package disruptor

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestWorkerPoolDrainAndHaltProcessesEverything(t *testing.T) {
	const total = 2000
	rb, err := NewMultiProducerRingBuffer[testEvent](testEventFactory(), 256, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var processed atomic.Int64
	handlers := make([]WorkHandler[testEvent], 4)
	for i := range handlers {
		handlers[i] = WorkHandlerFunc[testEvent](func(event *testEvent, sequence int64) error {
			processed.Add(1)
			return nil
		})
	}

	pool := NewWorkerPool(rb, NewGoroutineExecutor(), handlers)
	rb.AddGatingSequences(pool.Sequences()...)
	if err := pool.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	translator := EventTranslatorFunc[testEvent, int](func(event *testEvent, sequence int64, arg int) {
		event.value = arg
	})
	for i := 0; i < total; i++ {
		if err := PublishEvent(rb, translator, i); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	errs := pool.DrainAndHalt()
	for _, err := range errs {
		if err != nil {
			t.Fatalf("unexpected worker error: %v", err)
		}
	}

	if got := processed.Load(); got != total {
		t.Fatalf("expected %d events processed, got %d", total, got)
	}
}

func TestWorkerPoolSequencesMatchWorkerCount(t *testing.T) {
	rb, err := NewMultiProducerRingBuffer[testEvent](testEventFactory(), 16, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handlers := make([]WorkHandler[testEvent], 3)
	for i := range handlers {
		handlers[i] = WorkHandlerFunc[testEvent](func(event *testEvent, sequence int64) error { return nil })
	}
	pool := NewWorkerPool(rb, NewGoroutineExecutor(), handlers)
	if got := len(pool.Sequences()); got != 3 {
		t.Fatalf("expected 3 sequences, got %d", got)
	}
}

func TestWorkerPoolStartIsSingleUse(t *testing.T) {
	rb, err := NewMultiProducerRingBuffer[testEvent](testEventFactory(), 16, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handlers := make([]WorkHandler[testEvent], 2)
	for i := range handlers {
		handlers[i] = WorkHandlerFunc[testEvent](func(event *testEvent, sequence int64) error { return nil })
	}
	pool := NewWorkerPool(rb, NewGoroutineExecutor(), handlers)
	rb.AddGatingSequences(pool.Sequences()...)

	if err := pool.Start(); err != nil {
		t.Fatalf("unexpected error on first Start: %v", err)
	}
	if err := pool.Start(); !errors.Is(err, ErrIllegalState) {
		t.Fatalf("expected ErrIllegalState on second Start, got %v", err)
	}

	if errs := pool.Halt(); len(errs) != 2 {
		t.Fatalf("expected 2 exit results, got %d", len(errs))
	}
}
