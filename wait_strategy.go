package disruptor

import (
	"runtime"
	"sync"
	"time"
)

// AlertableBarrier is the subset of SequenceBarrier a WaitStrategy needs
// to notice a halt request promptly.
type AlertableBarrier interface {
	IsAlerted() bool
	CheckAlert() error
}

// WaitStrategy blocks a consumer until a target sequence becomes
// available, or the barrier is alerted.
type WaitStrategy interface {
	// WaitFor returns the highest sequence currently known to be
	// available, which may be less than sequence (the caller retries).
	// It returns ErrAlert as soon as the barrier is alerted.
	WaitFor(sequence int64, cursor, dependent SequenceReader, barrier AlertableBarrier) (int64, error)

	// SignalAllWhenBlocking wakes any goroutine parked in WaitFor. Called
	// by producers after publish and by SequenceBarrier.Alert.
	SignalAllWhenBlocking()
}

// BlockingWaitStrategy parks on a condition variable and is woken by
// SignalAllWhenBlocking. Highest latency, lowest CPU usage.
type BlockingWaitStrategy struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewBlockingWaitStrategy returns a ready-to-use BlockingWaitStrategy.
func NewBlockingWaitStrategy() *BlockingWaitStrategy {
	w := &BlockingWaitStrategy{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *BlockingWaitStrategy) WaitFor(sequence int64, cursor, dependent SequenceReader, barrier AlertableBarrier) (int64, error) {
	available := cursor.Get()
	if available < sequence {
		w.mu.Lock()
		for cursor.Get() < sequence {
			if err := barrier.CheckAlert(); err != nil {
				w.mu.Unlock()
				return -1, err
			}
			w.cond.Wait()
		}
		w.mu.Unlock()
	}

	for {
		available = dependent.Get()
		if available >= sequence {
			return available, nil
		}
		if err := barrier.CheckAlert(); err != nil {
			return -1, err
		}
	}
}

func (w *BlockingWaitStrategy) SignalAllWhenBlocking() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}

// YieldingWaitStrategy spins for a short budget, then yields the OS
// thread, trading CPU for lower latency than Sleeping/Blocking without
// the unconditional spin of BusySpin.
type YieldingWaitStrategy struct {
	spinTries int
}

// NewYieldingWaitStrategy returns a YieldingWaitStrategy with the
// default 100-iteration spin budget.
func NewYieldingWaitStrategy() *YieldingWaitStrategy {
	return &YieldingWaitStrategy{spinTries: 100}
}

func (w *YieldingWaitStrategy) WaitFor(sequence int64, cursor, dependent SequenceReader, barrier AlertableBarrier) (int64, error) {
	counter := w.spinTries
	for {
		available := dependent.Get()
		if available >= sequence {
			return available, nil
		}
		if err := barrier.CheckAlert(); err != nil {
			return -1, err
		}
		if counter == 0 {
			runtime.Gosched()
		} else {
			counter--
		}
	}
}

func (w *YieldingWaitStrategy) SignalAllWhenBlocking() {}

// BusySpinWaitStrategy never yields or sleeps; it burns a CPU core for
// the lowest possible latency.
type BusySpinWaitStrategy struct{}

// NewBusySpinWaitStrategy returns a BusySpinWaitStrategy.
func NewBusySpinWaitStrategy() *BusySpinWaitStrategy {
	return &BusySpinWaitStrategy{}
}

func (w *BusySpinWaitStrategy) WaitFor(sequence int64, cursor, dependent SequenceReader, barrier AlertableBarrier) (int64, error) {
	for {
		available := dependent.Get()
		if available >= sequence {
			return available, nil
		}
		if err := barrier.CheckAlert(); err != nil {
			return -1, err
		}
	}
}

func (w *BusySpinWaitStrategy) SignalAllWhenBlocking() {}

// SleepingWaitStrategy spins, then yields, then parks for a small fixed
// duration. A middle ground between Yielding and Blocking: lower CPU
// than spinning forever, lower latency than a condition variable.
type SleepingWaitStrategy struct {
	spinTries     int
	yieldTries    int
	sleepDuration time.Duration
}

// NewSleepingWaitStrategy returns a SleepingWaitStrategy with defaults
// matched to the teacher's own spin-then-yield throttling (see
// goschedEvery in the teacher's mpmc.go): 100 spins, 100 yields, then a
// 1 microsecond park between checks.
func NewSleepingWaitStrategy() *SleepingWaitStrategy {
	return &SleepingWaitStrategy{
		spinTries:     100,
		yieldTries:    100,
		sleepDuration: time.Microsecond,
	}
}

func (w *SleepingWaitStrategy) WaitFor(sequence int64, cursor, dependent SequenceReader, barrier AlertableBarrier) (int64, error) {
	counter := w.spinTries + w.yieldTries
	for {
		available := dependent.Get()
		if available >= sequence {
			return available, nil
		}
		if err := barrier.CheckAlert(); err != nil {
			return -1, err
		}
		counter = w.applyWaitMethod(counter)
	}
}

func (w *SleepingWaitStrategy) applyWaitMethod(counter int) int {
	switch {
	case counter > w.yieldTries:
		return counter - 1
	case counter > 0:
		runtime.Gosched()
		return counter - 1
	default:
		time.Sleep(w.sleepDuration)
		return counter
	}
}

func (w *SleepingWaitStrategy) SignalAllWhenBlocking() {}
