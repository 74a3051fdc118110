package disruptor

import (
	"errors"
	"fmt"
	"testing"
)

type testEvent struct {
	value int
}

func testEventFactory() EventFactoryFunc[testEvent] {
	return func() testEvent { return testEvent{} }
}

func TestNewSingleProducerRingBufferPreallocates(t *testing.T) {
	rb, err := NewSingleProducerRingBuffer[testEvent](testEventFactory(), 8, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rb.BufferSize(); got != 8 {
		t.Fatalf("expected buffer size 8, got %d", got)
	}
	for i := int64(0); i < 8; i++ {
		if rb.Get(i) == nil {
			t.Fatalf("expected slot %d to be pre-allocated", i)
		}
	}
}

func TestNewRingBufferRejectsBadBufferSize(t *testing.T) {
	if _, err := NewSingleProducerRingBuffer[testEvent](testEventFactory(), 3, NewBusySpinWaitStrategy()); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRingBufferNextPublishRoundTrip(t *testing.T) {
	rb, err := NewSingleProducerRingBuffer[testEvent](testEventFactory(), 8, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seq, err := rb.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rb.Get(seq).value = 42
	rb.Publish(seq)

	if !rb.IsPublished(seq) {
		t.Fatalf("expected sequence %d to be published", seq)
	}
	if got := rb.Get(seq).value; got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestPublishEventTranslatesAndPublishes(t *testing.T) {
	rb, err := NewMultiProducerRingBuffer[testEvent](testEventFactory(), 8, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gating := NewSequence(InitialCursorValue)
	rb.AddGatingSequences(gating)

	translator := EventTranslatorFunc[testEvent, int](func(event *testEvent, sequence int64, arg int) {
		event.value = arg
	})

	if err := PublishEvent(rb, translator, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cursor := rb.Cursor()
	if got := rb.Get(cursor).value; got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if !rb.IsPublished(cursor) {
		t.Fatalf("expected sequence to be published")
	}
}

func TestPublishEventPublishesEvenOnTranslatorPanic(t *testing.T) {
	rb, err := NewSingleProducerRingBuffer[testEvent](testEventFactory(), 8, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	translator := EventTranslatorFunc[testEvent, int](func(event *testEvent, sequence int64, arg int) {
		panic("boom")
	})

	err = PublishEvent(rb, translator, 1)
	if err == nil {
		t.Fatalf("expected an error from the panicking translator")
	}

	if !rb.IsPublished(0) {
		t.Fatalf("expected the claimed sequence to still be published despite the panic")
	}
}

func TestPublishEventsBatchUsesArgLength(t *testing.T) {
	rb, err := NewSingleProducerRingBuffer[testEvent](testEventFactory(), 8, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	translator := EventTranslatorFunc[testEvent, int](func(event *testEvent, sequence int64, arg int) {
		event.value = arg
	})

	args := []int{10, 20, 30}
	if err := PublishEvents(rb, translator, args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := rb.Cursor(); got != 2 {
		t.Fatalf("expected cursor 2 after publishing 3 events, got %d", got)
	}
	for i, want := range args {
		if got := rb.Get(int64(i)).value; got != want {
			t.Fatalf("slot %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestPublishEventsRejectsEmptyBatch(t *testing.T) {
	rb, err := NewSingleProducerRingBuffer[testEvent](testEventFactory(), 8, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	translator := EventTranslatorFunc[testEvent, int](func(event *testEvent, sequence int64, arg int) {})
	if err := PublishEvents(rb, translator, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTryPublishEventReturnsFalseWhenFull(t *testing.T) {
	const size = 2
	rb, err := NewSingleProducerRingBuffer[testEvent](testEventFactory(), size, NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gating := NewSequence(InitialCursorValue)
	rb.AddGatingSequences(gating)

	translator := EventTranslatorFunc[testEvent, int](func(event *testEvent, sequence int64, arg int) {
		event.value = arg
	})

	for i := 0; i < size; i++ {
		ok, err := TryPublishEvent(rb, translator, i)
		if err != nil || !ok {
			t.Fatalf("expected slot %d to publish, ok=%v err=%v", i, ok, err)
		}
	}

	ok, err := TryPublishEvent(rb, translator, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected TryPublishEvent to report false when the ring is full")
	}
}

func ExamplePublishEvent() {
	rb, err := NewSingleProducerRingBuffer[testEvent](testEventFactory(), 8, NewBusySpinWaitStrategy())
	if err != nil {
		panic(err)
	}
	translator := EventTranslatorFunc[testEvent, int](func(event *testEvent, sequence int64, arg int) {
		event.value = arg
	})
	if err := PublishEvent(rb, translator, 5); err != nil {
		panic(err)
	}
	fmt.Println(rb.Get(0).value)
	// Output: 5
}
