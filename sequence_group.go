package disruptor

import (
	"math"
	"sync/atomic"
)

// SequenceGroup is a concurrent, copy-on-write bag of sequences. Readers
// (Get, Set, Count, Snapshot) never block; Add/Remove swap in a fresh
// backing slice under CAS so readers always see a consistent snapshot.
type SequenceGroup struct {
	sequences atomic.Pointer[[]*Sequence]
}

// NewSequenceGroup returns an empty group.
func NewSequenceGroup() *SequenceGroup {
	g := &SequenceGroup{}
	empty := make([]*Sequence, 0)
	g.sequences.Store(&empty)
	return g
}

// Get returns the minimum of the contained sequences, or math.MaxInt64
// if the group is empty.
func (g *SequenceGroup) Get() int64 {
	seqs := *g.sequences.Load()
	if len(seqs) == 0 {
		return math.MaxInt64
	}
	minimum := seqs[0].Get()
	for _, s := range seqs[1:] {
		if v := s.Get(); v < minimum {
			minimum = v
		}
	}
	return minimum
}

// Set broadcasts value to every sequence currently in the group.
func (g *SequenceGroup) Set(value int64) {
	for _, s := range *g.sequences.Load() {
		s.Set(value)
	}
}

// Add inserts seq into the group. Safe for concurrent use alongside
// Remove, Get, Set, and Count.
func (g *SequenceGroup) Add(seq *Sequence) {
	for {
		old := g.sequences.Load()
		oldSlice := *old
		newSlice := make([]*Sequence, len(oldSlice)+1)
		copy(newSlice, oldSlice)
		newSlice[len(oldSlice)] = seq
		if g.sequences.CompareAndSwap(old, &newSlice) {
			return
		}
	}
}

// Remove deletes the first occurrence of seq from the group, reporting
// whether it was present. A subsequent call without re-adding reports
// false.
func (g *SequenceGroup) Remove(seq *Sequence) bool {
	for {
		old := g.sequences.Load()
		oldSlice := *old

		index := -1
		for i, s := range oldSlice {
			if s == seq {
				index = i
				break
			}
		}
		if index == -1 {
			return false
		}

		newSlice := make([]*Sequence, 0, len(oldSlice)-1)
		newSlice = append(newSlice, oldSlice[:index]...)
		newSlice = append(newSlice, oldSlice[index+1:]...)
		if g.sequences.CompareAndSwap(old, &newSlice) {
			return true
		}
	}
}

// Count returns the number of sequences currently in the group.
func (g *SequenceGroup) Count() int {
	return len(*g.sequences.Load())
}

// Snapshot returns a defensive copy of the contained sequences.
func (g *SequenceGroup) Snapshot() []*Sequence {
	seqs := *g.sequences.Load()
	out := make([]*Sequence, len(seqs))
	copy(out, seqs)
	return out
}

// minSequence returns the lesser of fallback and the minimum of group,
// tolerating an empty group (whose Get() is math.MaxInt64).
func minSequence(group *SequenceGroup, fallback int64) int64 {
	if groupMin := group.Get(); groupMin < fallback {
		return groupMin
	}
	return fallback
}
