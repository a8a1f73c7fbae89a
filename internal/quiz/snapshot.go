package quiz

import (
	"errors"
	"fmt"
	"sort"

	"ideogrid/internal/model"
)

// ErrSnapshot is returned when a snapshot cannot be rehydrated
var ErrSnapshot = errors.New("invalid session snapshot")

// Snapshot captures the session for storage. Questions are referenced by id.
func (s *Session) Snapshot() model.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.SessionSnapshot{
		ID:             s.id,
		Variant:        s.variant.Name,
		State:          s.state,
		ScreenSize:     s.screenSize,
		Phase1Slots:    s.phase1,
		Schedule:       s.schedule.IDs(),
		Answers:        make(map[int]float64, len(s.answers)),
		CheckpointDone: s.checkpointDone,
		Triggered:      append([]model.BoundaryTag(nil), s.triggered...),
		Macro:          s.macro,
		Supplementary:  copyMap(s.supplementary),
		StartedAt:      s.startedAt,
		UpdatedAt:      s.updatedAt,
	}
	for id, v := range s.answers {
		snap.Answers[id] = v
	}
	for id := range s.skipped {
		snap.Skipped = append(snap.Skipped, id)
	}
	sort.Ints(snap.Skipped)
	if s.category != nil {
		c := *s.category
		snap.Category = &c
	}
	return snap
}

// Restore rebuilds a session from a snapshot, resolving question ids against
// source
func Restore(snap model.SessionSnapshot, variant model.Variant, source QuestionSource, opts Options) (*Session, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: no question source", ErrSnapshot)
	}
	if snap.Phase1Slots <= 0 || snap.Phase1Slots > len(snap.Schedule) {
		return nil, fmt.Errorf("%w: phase 1 covers %d of %d slots", ErrSnapshot, snap.Phase1Slots, len(snap.Schedule))
	}

	questions := make([]model.Question, 0, len(snap.Schedule))
	for _, id := range snap.Schedule {
		q, ok := source.Question(id)
		if !ok {
			return nil, fmt.Errorf("%w: question %d not in catalog", ErrSnapshot, id)
		}
		questions = append(questions, q)
	}

	s := newSession(snap.ID, variant, source, opts)
	s.schedule = NewSchedule(questions)
	if s.schedule.Len() != len(snap.Schedule) {
		return nil, fmt.Errorf("%w: duplicate question in schedule", ErrSnapshot)
	}
	s.phase1 = snap.Phase1Slots
	s.screenSize = snap.ScreenSize
	if s.screenSize < 1 {
		s.screenSize = s.phase1
	}
	s.state = snap.State
	s.checkpointDone = snap.CheckpointDone
	s.triggered = append([]model.BoundaryTag(nil), snap.Triggered...)
	s.macro = snap.Macro
	s.supplementary = copyMap(snap.Supplementary)
	s.startedAt = snap.StartedAt
	s.updatedAt = snap.UpdatedAt
	for id, v := range snap.Answers {
		if s.schedule.Contains(id) {
			s.answers[id] = v
		}
	}
	for _, id := range snap.Skipped {
		if s.schedule.Contains(id) {
			s.skipped[id] = true
		}
	}
	if snap.Category != nil {
		c := *snap.Category
		s.category = &c
	}
	s.recompute()
	return s, nil
}
