package session

import (
	"maps"
	"slices"
	"time"

	"github.com/pavelanni/mockexam/internal/model"
)

// IndexSet is a set of question indices.
type IndexSet map[int]struct{}

// Has reports whether i is in the set.
func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Add inserts i into the set.
func (s IndexSet) Add(i int) {
	s[i] = struct{}{}
}

// Len returns the number of indices in the set.
func (s IndexSet) Len() int {
	return len(s)
}

// Sorted returns the indices in ascending order.
func (s IndexSet) Sorted() []int {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns an independent copy of the set.
func (s IndexSet) Clone() IndexSet {
	out := make(IndexSet, len(s))
	for i := range s {
		out[i] = struct{}{}
	}
	return out
}

// State is the mutable record of one exam attempt. Engine owns the live
// instance; callers only ever see copies returned by Engine.Snapshot.
type State struct {
	Phase           model.Phase
	CurrentIndex    int
	Answers         map[int]model.Choice
	Flagged         IndexSet
	Revealed        IndexSet
	DurationMinutes int
	StartedAt       time.Time // zero until the session starts
}

func newState() *State {
	return &State{
		Phase:           model.PhaseSetup,
		Answers:         make(map[int]model.Choice),
		Flagged:         make(IndexSet),
		Revealed:        make(IndexSet),
		DurationMinutes: DefaultDurationMinutes,
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() State {
	out := *s
	out.Answers = maps.Clone(s.Answers)
	if out.Answers == nil {
		out.Answers = make(map[int]model.Choice)
	}
	out.Flagged = s.Flagged.Clone()
	out.Revealed = s.Revealed.Clone()
	return out
}

// Answered reports whether index i has a recorded answer.
func (s *State) Answered(i int) bool {
	_, ok := s.Answers[i]
	return ok
}

// settled reports whether question i was answered or flagged.
func (s *State) settled(i int) bool {
	return s.Answered(i) || s.Flagged.Has(i)
}
