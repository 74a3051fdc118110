package disruptor

// SingleProducerSequencer is the Sequencer for the single-producer
// case. nextValue and cachedValue (the cached gating minimum) are plain
// int64 fields, not
// atomics: the single-writer discipline is what makes that safe. Only
// the cursor, which consumers read concurrently, is atomic.
type SingleProducerSequencer struct {
	bufferSize      int64
	waitStrategy    WaitStrategy
	cursor          *Sequence
	gatingSequences *SequenceGroup

	nextValue   int64
	cachedValue int64
}

// NewSingleProducerSequencer builds a sequencer for a ring of the given
// size (must be a positive power of two).
func NewSingleProducerSequencer(bufferSize int64, waitStrategy WaitStrategy) (*SingleProducerSequencer, error) {
	if err := validateBufferSize(bufferSize); err != nil {
		return nil, err
	}
	return &SingleProducerSequencer{
		bufferSize:      bufferSize,
		waitStrategy:    waitStrategy,
		cursor:          NewSequence(InitialCursorValue),
		gatingSequences: NewSequenceGroup(),
		nextValue:       InitialCursorValue,
		cachedValue:     InitialCursorValue,
	}, nil
}

func (s *SingleProducerSequencer) Next(n int64) (int64, error) {
	if err := validateBatchSize(n, s.bufferSize); err != nil {
		return 0, err
	}

	nextValue := s.nextValue
	nextSequence := nextValue + n
	wrapPoint := nextSequence - s.bufferSize
	cachedGating := s.cachedValue

	if wrapPoint > cachedGating || cachedGating > nextValue {
		var spins int64
		for {
			gating := minSequence(s.gatingSequences, nextValue)
			if wrapPoint <= gating {
				s.cachedValue = gating
				break
			}
			parkBriefly(spins)
			spins++
		}
	}

	s.nextValue = nextSequence
	return nextSequence, nil
}

func (s *SingleProducerSequencer) TryNext(n int64) (int64, error) {
	if err := validateBatchSize(n, s.bufferSize); err != nil {
		return 0, err
	}
	if !s.HasAvailableCapacity(n) {
		return 0, ErrInsufficientCapacity
	}
	nextSequence := s.nextValue + n
	s.nextValue = nextSequence
	return nextSequence, nil
}

func (s *SingleProducerSequencer) Publish(low, high int64) {
	s.cursor.Set(high)
	s.waitStrategy.SignalAllWhenBlocking()
}

func (s *SingleProducerSequencer) PublishOne(sequence int64) {
	s.Publish(sequence, sequence)
}

func (s *SingleProducerSequencer) IsAvailable(sequence int64) bool {
	return sequence <= s.cursor.Get()
}

func (s *SingleProducerSequencer) AddGatingSequences(sequences ...*Sequence) {
	cursorValue := s.cursor.Get()
	for _, seq := range sequences {
		seq.Set(cursorValue)
		s.gatingSequences.Add(seq)
	}
}

func (s *SingleProducerSequencer) RemoveGatingSequence(sequence *Sequence) bool {
	return s.gatingSequences.Remove(sequence)
}

func (s *SingleProducerSequencer) GetMinimumSequence() int64 {
	return minSequence(s.gatingSequences, s.cursor.Get())
}

func (s *SingleProducerSequencer) GetHighestPublishedSequence(lowerBound, availableSequence int64) int64 {
	// Single producer: the cursor itself is the publication signal, so
	// anything at or below it is contiguous by construction.
	return availableSequence
}

func (s *SingleProducerSequencer) NewBarrier(dependentSequences ...*Sequence) *SequenceBarrier {
	return newSequenceBarrier(s, s.waitStrategy, s.cursor, dependentSequences...)
}

func (s *SingleProducerSequencer) Claim(sequence int64) {
	s.nextValue = sequence
	s.cursor.Set(sequence)
}

func (s *SingleProducerSequencer) Cursor() int64 {
	return s.cursor.Get()
}

func (s *SingleProducerSequencer) RemainingCapacity() int64 {
	produced := s.nextValue
	consumed := minSequence(s.gatingSequences, produced)
	return s.bufferSize - (produced - consumed)
}

func (s *SingleProducerSequencer) HasAvailableCapacity(n int64) bool {
	nextValue := s.nextValue
	wrapPoint := (nextValue + n) - s.bufferSize
	cachedGating := s.cachedValue

	if wrapPoint > cachedGating || cachedGating > nextValue {
		gating := minSequence(s.gatingSequences, nextValue)
		s.cachedValue = gating
		if wrapPoint > gating {
			return false
		}
	}
	return true
}

func (s *SingleProducerSequencer) BufferSize() int64 {
	return s.bufferSize
}
