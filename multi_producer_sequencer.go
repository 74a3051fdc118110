package disruptor

import "sync/atomic"

// MultiProducerSequencer is the Sequencer for the multi-producer case.
// Because several goroutines claim slots concurrently, "the cursor
// advanced" no longer means "everything up to the cursor is filled" —
// producer A can claim and publish sequence 10 while producer B is
// still writing into slot 9. availableBuffer records, per slot, which
// "lap" of the ring last published there; that is the only way a
// consumer can tell a claimed-but-not-yet-written slot from a
// published one.
type MultiProducerSequencer struct {
	bufferSize      int64
	indexMask       int64
	indexShift      uint
	waitStrategy    WaitStrategy
	cursor          *Sequence
	gatingSequences *SequenceGroup

	// gatingSequenceCache mirrors the last computed minimum gating
	// sequence so most Next/TryNext calls can skip walking the group.
	gatingSequenceCache *Sequence

	availableBuffer []int32
}

// NewMultiProducerSequencer builds a sequencer for a ring of the given
// size (must be a positive power of two).
func NewMultiProducerSequencer(bufferSize int64, waitStrategy WaitStrategy) (*MultiProducerSequencer, error) {
	if err := validateBufferSize(bufferSize); err != nil {
		return nil, err
	}
	available := make([]int32, bufferSize)
	for i := range available {
		available[i] = -1
	}
	return &MultiProducerSequencer{
		bufferSize:          bufferSize,
		indexMask:           bufferSize - 1,
		indexShift:          log2(bufferSize),
		waitStrategy:        waitStrategy,
		cursor:              NewSequence(InitialCursorValue),
		gatingSequences:     NewSequenceGroup(),
		gatingSequenceCache: NewSequence(InitialCursorValue),
		availableBuffer:     available,
	}, nil
}

func (s *MultiProducerSequencer) Next(n int64) (int64, error) {
	if err := validateBatchSize(n, s.bufferSize); err != nil {
		return 0, err
	}

	var spins int64
	for {
		current := s.cursor.Get()
		nextSequence := current + n
		wrapPoint := nextSequence - s.bufferSize
		gatingCache := s.gatingSequenceCache.Get()

		if wrapPoint > gatingCache {
			minGating := minSequence(s.gatingSequences, current)
			s.gatingSequenceCache.Set(minGating)
			if wrapPoint > minGating {
				parkBriefly(spins)
				spins++
				continue
			}
		}

		if s.cursor.CompareAndSet(current, nextSequence) {
			return nextSequence, nil
		}
	}
}

func (s *MultiProducerSequencer) TryNext(n int64) (int64, error) {
	if err := validateBatchSize(n, s.bufferSize); err != nil {
		return 0, err
	}
	for {
		current := s.cursor.Get()
		if !s.hasAvailableCapacity(n, current) {
			return 0, ErrInsufficientCapacity
		}
		nextSequence := current + n
		if s.cursor.CompareAndSet(current, nextSequence) {
			return nextSequence, nil
		}
	}
}

func (s *MultiProducerSequencer) Publish(low, high int64) {
	for seq := low; seq <= high; seq++ {
		s.setAvailable(seq)
	}
	s.waitStrategy.SignalAllWhenBlocking()
}

func (s *MultiProducerSequencer) PublishOne(sequence int64) {
	s.setAvailable(sequence)
	s.waitStrategy.SignalAllWhenBlocking()
}

func (s *MultiProducerSequencer) setAvailable(sequence int64) {
	atomic.StoreInt32(&s.availableBuffer[s.calculateIndex(sequence)], s.calculateAvailabilityFlag(sequence))
}

func (s *MultiProducerSequencer) calculateIndex(sequence int64) int64 {
	return sequence & s.indexMask
}

func (s *MultiProducerSequencer) calculateAvailabilityFlag(sequence int64) int32 {
	return int32(sequence >> s.indexShift)
}

func (s *MultiProducerSequencer) IsAvailable(sequence int64) bool {
	return atomic.LoadInt32(&s.availableBuffer[s.calculateIndex(sequence)]) == s.calculateAvailabilityFlag(sequence)
}

func (s *MultiProducerSequencer) GetHighestPublishedSequence(lowerBound, availableSequence int64) int64 {
	for seq := lowerBound; seq <= availableSequence; seq++ {
		if !s.IsAvailable(seq) {
			return seq - 1
		}
	}
	return availableSequence
}

func (s *MultiProducerSequencer) AddGatingSequences(sequences ...*Sequence) {
	cursorValue := s.cursor.Get()
	for _, seq := range sequences {
		seq.Set(cursorValue)
		s.gatingSequences.Add(seq)
	}
}

func (s *MultiProducerSequencer) RemoveGatingSequence(sequence *Sequence) bool {
	return s.gatingSequences.Remove(sequence)
}

func (s *MultiProducerSequencer) GetMinimumSequence() int64 {
	return minSequence(s.gatingSequences, s.cursor.Get())
}

func (s *MultiProducerSequencer) NewBarrier(dependentSequences ...*Sequence) *SequenceBarrier {
	return newSequenceBarrier(s, s.waitStrategy, s.cursor, dependentSequences...)
}

func (s *MultiProducerSequencer) Claim(sequence int64) {
	s.cursor.Set(sequence)
}

func (s *MultiProducerSequencer) Cursor() int64 {
	return s.cursor.Get()
}

func (s *MultiProducerSequencer) RemainingCapacity() int64 {
	produced := s.cursor.Get()
	consumed := minSequence(s.gatingSequences, produced)
	return s.bufferSize - (produced - consumed)
}

func (s *MultiProducerSequencer) HasAvailableCapacity(n int64) bool {
	return s.hasAvailableCapacity(n, s.cursor.Get())
}

func (s *MultiProducerSequencer) hasAvailableCapacity(n, current int64) bool {
	nextSequence := current + n
	wrapPoint := nextSequence - s.bufferSize
	cachedGating := s.gatingSequenceCache.Get()

	if wrapPoint > cachedGating || cachedGating > current {
		minGating := minSequence(s.gatingSequences, current)
		s.gatingSequenceCache.Set(minGating)
		if wrapPoint > minGating {
			return false
		}
	}
	return true
}

func (s *MultiProducerSequencer) BufferSize() int64 {
	return s.bufferSize
}
