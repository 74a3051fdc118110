// Command disruptorctl drives a disruptor ring buffer end to end: a
// pool of producer goroutines publishes jittered load, a worker pool
// consumes it, and a summary is printed once every event has been
// processed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fastrand"

	disruptor "github.com/aradilov/disruptor"
	"github.com/aradilov/disruptor/config"
)

// Event is the payload disruptorctl pushes through the ring buffer.
type Event struct {
	ID        uuid.UUID
	Sequence  int64
	Payload   int64
	Submitted time.Time
}

type eventFactory struct{}

func (eventFactory) NewInstance() Event { return Event{} }

type eventArg struct {
	payload int64
}

func translateEvent(event *Event, sequence int64, arg eventArg) {
	event.ID = uuid.New()
	event.Sequence = sequence
	event.Payload = arg.payload
	event.Submitted = time.Now()
}

func buildWaitStrategy(kind config.WaitStrategyKind) disruptor.WaitStrategy {
	switch kind {
	case config.WaitBlocking:
		return disruptor.NewBlockingWaitStrategy()
	case config.WaitBusySpin:
		return disruptor.NewBusySpinWaitStrategy()
	case config.WaitSleeping:
		return disruptor.NewSleepingWaitStrategy()
	default:
		return disruptor.NewYieldingWaitStrategy()
	}
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to built-in values)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("disruptorctl: %v", err)
		}
		cfg = loaded
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("disruptorctl: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	waitStrategy := buildWaitStrategy(cfg.WaitStrategy)

	var (
		ringBuffer *disruptor.RingBuffer[Event]
		err        error
	)
	switch cfg.Producer {
	case config.ProducerSingle:
		ringBuffer, err = disruptor.NewSingleProducerRingBuffer[Event](eventFactory{}, cfg.BufferSize, waitStrategy)
	default:
		ringBuffer, err = disruptor.NewMultiProducerRingBuffer[Event](eventFactory{}, cfg.BufferSize, waitStrategy)
	}
	if err != nil {
		return fmt.Errorf("build ring buffer: %w", err)
	}

	var processed atomic.Int64
	handlers := make([]disruptor.WorkHandler[Event], cfg.Workers)
	for i := range handlers {
		workerID := i
		handlers[i] = disruptor.WorkHandlerFunc[Event](func(event *Event, sequence int64) error {
			latency := time.Since(event.Submitted)
			if latency > 250*time.Millisecond {
				log.Printf("worker %d: event %s at sequence %d took %s", workerID, event.ID, sequence, latency)
			}
			processed.Add(1)
			return nil
		})
	}

	pool := disruptor.NewWorkerPool(ringBuffer, disruptor.NewGoroutineExecutor(), handlers)
	ringBuffer.AddGatingSequences(pool.Sequences()...)
	if err := pool.Start(); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}

	log.Printf("disruptorctl: buffer=%d producer=%s wait=%s workers=%d events=%d",
		cfg.BufferSize, cfg.Producer, cfg.WaitStrategy, cfg.Workers, cfg.Events)

	var wg sync.WaitGroup
	producers := minInt(cfg.Workers, 4)
	if cfg.Producer == config.ProducerSingle {
		// A SingleProducerSequencer must only be driven by one goroutine.
		producers = 1
	}
	perProducer := cfg.Events / producers
	remainder := cfg.Events - perProducer*producers

	start := time.Now()
	for p := 0; p < producers; p++ {
		count := perProducer
		if p == producers-1 {
			count += remainder
		}
		wg.Add(1)
		go func(count int) {
			defer wg.Done()
			var rng fastrand.RNG
			for i := 0; i < count; i++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if rng.Uint32n(100) == 0 {
					time.Sleep(time.Duration(rng.Uint32n(200)) * time.Microsecond)
				}
				if err := disruptor.PublishEvent(ringBuffer, disruptor.EventTranslatorFunc[Event, eventArg](translateEvent), eventArg{payload: int64(i)}); err != nil {
					log.Printf("publish error: %v", err)
					return
				}
			}
		}(count)
	}
	wg.Wait()

	errs := pool.DrainAndHalt()
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("worker exited with error: %w", err)
		}
	}

	elapsed := time.Since(start)
	log.Printf("disruptorctl: processed %d events in %s (%.0f events/sec)",
		processed.Load(), elapsed, float64(processed.Load())/elapsed.Seconds())
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
