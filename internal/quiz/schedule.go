package quiz

import "ideogrid/internal/model"

// Schedule is the ordered list of question slots. Substitution swaps the
// question of one slot and never changes the slot count.
type Schedule struct {
	slots []model.Question
	index map[int]int
}

// NewSchedule creates a schedule in the given order
func NewSchedule(questions []model.Question) *Schedule {
	s := &Schedule{index: make(map[int]int, len(questions))}
	s.Append(questions...)
	return s
}

// Len returns the number of slots
func (s *Schedule) Len() int {
	return len(s.slots)
}

// At returns the question in slot i
func (s *Schedule) At(i int) model.Question {
	return s.slots[i]
}

// Slot returns the slot holding a question id
func (s *Schedule) Slot(id int) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Contains reports whether a question id is scheduled
func (s *Schedule) Contains(id int) bool {
	_, ok := s.index[id]
	return ok
}

// Replace puts q in slot i and returns the displaced question
func (s *Schedule) Replace(i int, q model.Question) model.Question {
	old := s.slots[i]
	delete(s.index, old.ID)
	s.slots[i] = q
	s.index[q.ID] = i
	return old
}

// Append adds slots at the end. Ids already scheduled are ignored.
func (s *Schedule) Append(qs ...model.Question) {
	for _, q := range qs {
		if _, dup := s.index[q.ID]; dup {
			continue
		}
		s.index[q.ID] = len(s.slots)
		s.slots = append(s.slots, q)
	}
}

// Range returns a copy of slots [from, to)
func (s *Schedule) Range(from, to int) []model.Question {
	out := make([]model.Question, to-from)
	copy(out, s.slots[from:to])
	return out
}

// IDs returns the question ids in slot order
func (s *Schedule) IDs() []int {
	ids := make([]int, len(s.slots))
	for i, q := range s.slots {
		ids[i] = q.ID
	}
	return ids
}
