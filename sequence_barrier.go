package disruptor

import "sync/atomic"

// SequenceBarrier gates a consumer on producer progress (the
// sequencer's cursor) and, transitively, on whatever consumers it
// depends on. Consumers never touch the sequencer directly; they call
// WaitFor on their barrier.
type SequenceBarrier struct {
	sequencer          highestPublishedSequenceProvider
	waitStrategy       WaitStrategy
	cursorSequence     *Sequence
	dependentSequences SequenceReader
	alerted            atomic.Bool
}

// newSequenceBarrier builds a barrier for sequencer, gated on cursor if
// no dependents are given, or on the minimum of dependents otherwise.
func newSequenceBarrier(sequencer highestPublishedSequenceProvider, waitStrategy WaitStrategy, cursor *Sequence, dependents ...*Sequence) *SequenceBarrier {
	var dep SequenceReader
	if len(dependents) == 0 {
		dep = cursor
	} else {
		group := NewSequenceGroup()
		for _, d := range dependents {
			group.Add(d)
		}
		dep = group
	}
	return &SequenceBarrier{
		sequencer:          sequencer,
		waitStrategy:       waitStrategy,
		cursorSequence:     cursor,
		dependentSequences: dep,
	}
}

// WaitFor blocks until sequence is available or the barrier is alerted.
// The return value may be less than sequence (no progress yet — the
// caller retries) or, once the wait strategy reports progress, the
// highest sequence in the contiguous run starting at sequence.
func (b *SequenceBarrier) WaitFor(sequence int64) (int64, error) {
	if err := b.CheckAlert(); err != nil {
		return -1, err
	}

	available, err := b.waitStrategy.WaitFor(sequence, b.cursorSequence, b.dependentSequences, b)
	if err != nil {
		return -1, err
	}
	if available < sequence {
		return available, nil
	}
	return b.sequencer.GetHighestPublishedSequence(sequence, available), nil
}

// Alert marks the barrier halted and wakes anything parked in WaitFor.
func (b *SequenceBarrier) Alert() {
	b.alerted.Store(true)
	b.waitStrategy.SignalAllWhenBlocking()
}

// ClearAlert resets the alerted flag, e.g. before a processor restarts.
func (b *SequenceBarrier) ClearAlert() {
	b.alerted.Store(false)
}

// IsAlerted reports whether the barrier is currently alerted.
func (b *SequenceBarrier) IsAlerted() bool {
	return b.alerted.Load()
}

// CheckAlert returns ErrAlert if the barrier is alerted, nil otherwise.
func (b *SequenceBarrier) CheckAlert() error {
	if b.alerted.Load() {
		return ErrAlert
	}
	return nil
}

// GetCursor returns the minimum of the sequences this barrier depends
// on (the producer cursor if there are no explicit dependents).
func (b *SequenceBarrier) GetCursor() int64 {
	return b.dependentSequences.Get()
}
