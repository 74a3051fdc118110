package disruptor

// Executor runs a processor's Run method on its own goroutine and
// reports how that goroutine exited. Separating this from
// BatchEventProcessor/WorkProcessor mirrors the teacher's own
// goroutine-launching helpers and lets callers substitute a bounded
// worker pool, a metrics-wrapped runner, or similar.
type Executor interface {
	Execute(run func() error) <-chan error
}

// GoroutineExecutor is the default Executor: every Execute call gets
// its own goroutine.
type GoroutineExecutor struct{}

// NewGoroutineExecutor returns the default Executor.
func NewGoroutineExecutor() *GoroutineExecutor {
	return &GoroutineExecutor{}
}

// Execute launches run on a new goroutine and returns a channel that
// receives its result exactly once, when it returns.
func (e *GoroutineExecutor) Execute(run func() error) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- run()
	}()
	return done
}

// runnable is the subset of BatchEventProcessor/WorkProcessor an
// Executor-based pool needs.
type runnable interface {
	Run() error
	Halt()
}

// runAll launches every runnable on executor and returns, in the same
// order, the channel each will report its exit on.
func runAll(executor Executor, processors []runnable) []<-chan error {
	channels := make([]<-chan error, len(processors))
	for i, p := range processors {
		channels[i] = executor.Execute(p.Run)
	}
	return channels
}

func haltAll(processors []runnable) {
	for _, p := range processors {
		p.Halt()
	}
}
