// Package quiz holds the per-respondent questionnaire session: the slot
// schedule, answers and skips, the phase state machine and the one-shot
// boundary checkpoint.
package quiz

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"ideogrid/internal/boundary"
	"ideogrid/internal/classify"
	"ideogrid/internal/model"
	"ideogrid/internal/sampler"
	"ideogrid/internal/scoring"
)

// QuestionSource resolves question ids and tiebreakers. *catalog.Catalog
// satisfies it.
type QuestionSource interface {
	Question(id int) (model.Question, bool)
	TiebreakersFor(tags []model.BoundaryTag) []model.Question
}

// Options are the session collaborators
type Options struct {
	Detector boundary.Detector // zero value uses boundary.DefaultBand
	Logger   *zap.Logger
	Now      func() time.Time
}

// Update describes the effect of one mutation
type Update struct {
	State         model.SessionState
	StateChanged  bool
	Scores        map[model.Axis]float64
	Triggered     []model.BoundaryTag
	Substitutions []boundary.Replacement
}

// Session is one respondent's questionnaire. All methods are safe for
// concurrent use; a checkpoint substitution happens entirely under the
// write lock.
type Session struct {
	mu sync.RWMutex

	id       string
	variant  model.Variant
	source   QuestionSource
	detector boundary.Detector
	logger   *zap.Logger
	now      func() time.Time

	state          model.SessionState
	screenSize     int
	schedule       *Schedule
	phase1         int
	answers        map[int]float64
	skipped        map[int]bool
	checkpointDone bool
	triggered      []model.BoundaryTag
	scores         map[model.Axis]float64
	macro          model.MacroCode
	supplementary  map[string]float64
	category       *model.GridCell
	startedAt      time.Time
	updatedAt      time.Time
}

func newSession(id string, variant model.Variant, source QuestionSource, opts Options) *Session {
	if opts.Detector.Band == 0 {
		opts.Detector.Band = boundary.DefaultBand
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		id:       id,
		variant:  variant,
		source:   source,
		detector: opts.Detector,
		logger:   opts.Logger.With(zap.String("session", id)),
		now:      opts.Now,
		state:    model.StateInit,
		answers:  make(map[int]float64),
		skipped:  make(map[int]bool),
		scores:   make(map[model.Axis]float64),
	}
}

// New starts a session over the sampled phase-1 screens
func New(id string, variant model.Variant, screens [][]model.Question, source QuestionSource, opts Options) (*Session, error) {
	questions := sampler.Flatten(screens)
	if len(questions) == 0 {
		return nil, ErrEmptySchedule
	}

	s := newSession(id, variant, source, opts)
	s.schedule = NewSchedule(questions)
	s.phase1 = s.schedule.Len()
	s.screenSize = variant.ScreenSize
	if s.screenSize < 1 {
		s.screenSize = s.phase1
	}
	s.startedAt = s.now()
	s.updatedAt = s.startedAt
	s.recompute()
	s.state = model.StatePhase1
	return s, nil
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Variant returns the questionnaire variant
func (s *Session) Variant() model.Variant { return s.variant }

// State returns the current lifecycle state
func (s *Session) State() model.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Macro returns the resolved macro cell, empty before phase 1 completes
func (s *Session) Macro() model.MacroCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.macro
}

// Scores returns a copy of the current axis scores
func (s *Session) Scores() map[model.Axis]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyScores(s.scores)
}

// Supplementary returns the resolved supplementary scores
func (s *Session) Supplementary() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.supplementary)
}

// Answer records a value in [0,1]. Answering a skipped question unskips it.
func (s *Session) Answer(id int, value float64) (Update, error) {
	if math.IsNaN(value) || value < 0 || value > 1 {
		return Update{}, fmt.Errorf("%w: got %v", ErrInvalidAnswer, value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.mutable("answer", id); err != nil {
		return Update{}, err
	}
	s.answers[id] = value
	delete(s.skipped, id)
	return s.afterChange(), nil
}

// Skip withdraws a question from scoring while keeping its value. A skip
// that would put more than half of the question's pool in the skipped state
// is rejected with a *SkipLimitError and changes nothing.
func (s *Session) Skip(id int) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.mutable("skip", id)
	if err != nil {
		return Update{}, err
	}
	if s.skipped[id] {
		return s.snapshotUpdate(s.state), nil
	}

	pool := poolOf(s.schedule.At(slot))
	scheduled, skipped := s.poolCounts(pool)
	if (skipped+1)*2 > scheduled {
		return Update{}, &SkipLimitError{
			Axis:      pool,
			Skipped:   skipped,
			Scheduled: scheduled,
			Ratio:     float64(skipped) / float64(scheduled),
		}
	}

	s.skipped[id] = true
	return s.afterChange(), nil
}

// Unskip puts a skipped question back into scoring with its retained value
func (s *Session) Unskip(id int) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.mutable("unskip", id); err != nil {
		return Update{}, err
	}
	if !s.skipped[id] {
		return s.snapshotUpdate(s.state), nil
	}
	delete(s.skipped, id)
	return s.afterChange(), nil
}

// MarkPhase2Loading moves a finished phase 1 into loading for variants that
// refine within the macro cell
func (s *Session) MarkPhase2Loading() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == model.StateSubmitted {
		return ErrSubmitted
	}
	if s.state != model.StatePhase1Complete || !s.variant.Phase2 {
		return &StateError{Op: "load phase 2", State: s.state}
	}
	s.state = model.StatePhase2Loading
	s.updatedAt = s.now()
	return nil
}

// BeginPhase2 appends the refinement questions. Variants without phase 2,
// or an empty question set, complete the session directly.
func (s *Session) BeginPhase2(questions []model.Question) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	switch s.state {
	case model.StatePhase1Complete, model.StatePhase2Loading:
	case model.StateSubmitted:
		return Update{}, ErrSubmitted
	default:
		return Update{}, &StateError{Op: "begin phase 2", State: s.state}
	}

	if s.variant.Phase2 {
		s.schedule.Append(questions...)
	}
	if s.schedule.Len() == s.phase1 {
		s.complete()
	} else {
		s.state = model.StatePhase2
		s.recompute()
	}
	s.updatedAt = s.now()
	return s.snapshotUpdate(prev), nil
}

// Resolve records the category cell describing the result
func (s *Session) Resolve(cell model.GridCell) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case model.StateComplete:
	case model.StateSubmitted:
		return ErrSubmitted
	default:
		return &StateError{Op: "resolve", State: s.state}
	}
	s.category = &cell
	return nil
}

// Submit freezes the session and returns the submission payload
func (s *Session) Submit(now time.Time) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case model.StateComplete:
	case model.StateSubmitted:
		return model.Submission{}, ErrSubmitted
	default:
		return model.Submission{}, &StateError{Op: "submit", State: s.state}
	}

	sub := model.Submission{
		SessionID:     s.id,
		Variant:       s.variant.Name,
		Scores:        primaryScores(s.scores),
		Macro:         s.macro,
		MacroLabel:    s.macro.Label(),
		Category:      s.macro.Label(),
		Supplementary: copyMap(s.supplementary),
		Answers:       s.records(),
		StartedAt:     s.startedAt,
		SubmittedAt:   now,
	}
	if c := s.category; c != nil {
		sub.Category = c.Label
		sub.CategoryDescription = c.Description
		sub.AlignsWith = append([]string(nil), c.AlignsWith...)
		sub.Surprising = append([]string(nil), c.Surprising...)
		if c.MacroLabel != "" {
			sub.MacroLabel = c.MacroLabel
		}
	}

	s.state = model.StateSubmitted
	s.updatedAt = now
	return sub, nil
}

// Progress returns the presentation view of the current screen
func (s *Session) Progress() model.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := model.Progress{
		SessionID:     s.id,
		State:         s.state,
		Total:         s.schedule.Len(),
		Scores:        copyScores(s.scores),
		SkipRatios:    s.skipRatios(),
		Macro:         s.macro,
		Supplementary: copyMap(s.supplementary),
	}
	for _, id := range s.schedule.IDs() {
		if s.skipped[id] {
			p.Skipped++
		} else if _, ok := s.answers[id]; ok {
			p.Answered++
		}
	}

	from, to := 0, s.phase1
	switch s.state {
	case model.StatePhase1:
	case model.StatePhase2:
		from, to = s.phase1, s.schedule.Len()
	default:
		return p
	}

	n := to - from
	p.Screens = (n + s.screenSize - 1) / s.screenSize
	p.Screen = p.Screens - 1
	for i := from; i < to; i++ {
		if !s.handled(s.schedule.At(i).ID) {
			p.Screen = (i - from) / s.screenSize
			break
		}
	}
	start := from + p.Screen*s.screenSize
	end := min(start+s.screenSize, to)
	for i := start; i < end; i++ {
		p.Questions = append(p.Questions, s.view(s.schedule.At(i)))
	}
	return p
}

// mutable checks that id can be answered or skipped now and returns its slot
func (s *Session) mutable(op string, id int) (int, error) {
	switch s.state {
	case model.StatePhase1, model.StatePhase2:
	case model.StateSubmitted:
		return 0, ErrSubmitted
	default:
		return 0, &StateError{Op: op, State: s.state}
	}
	slot, ok := s.schedule.Slot(id)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownQuestion, id)
	}
	if s.state == model.StatePhase2 && slot < s.phase1 {
		return 0, &StateError{Op: op + " phase 1 question", State: s.state}
	}
	return slot, nil
}

func (s *Session) afterChange() Update {
	prev := s.state
	s.recompute()

	var subs []boundary.Replacement
	switch s.state {
	case model.StatePhase1:
		subs = s.checkpoint()
		if s.allHandled(0, s.phase1) {
			s.state = model.StatePhase1Complete
			s.macro = classify.Macro(s.scores[model.AxisEconomic], s.scores[model.AxisAuthority])
			s.logger.Info("phase 1 complete",
				zap.String("macro", string(s.macro)),
				zap.Float64("econ", s.scores[model.AxisEconomic]),
				zap.Float64("auth", s.scores[model.AxisAuthority]))
		}
	case model.StatePhase2:
		if s.allHandled(s.phase1, s.schedule.Len()) {
			s.complete()
		}
	}
	s.updatedAt = s.now()

	u := s.snapshotUpdate(prev)
	u.Substitutions = subs
	return u
}

// checkpoint runs the boundary check once, when enough phase-1 slots have
// been handled, and applies the resulting substitutions. Any unanswered
// phase-1 slot may be displaced, unless removing it would push its skip
// pool over the 50% limit.
func (s *Session) checkpoint() []boundary.Replacement {
	if s.checkpointDone || s.variant.Checkpoint <= 0 {
		return nil
	}
	if s.countHandled(0, s.phase1) < s.variant.Checkpoint {
		return nil
	}
	s.checkpointDone = true
	s.triggered = s.detector.Triggered(s.scores)
	if len(s.triggered) == 0 || s.source == nil {
		s.logger.Debug("checkpoint passed without triggered boundaries")
		return nil
	}

	var slots []boundary.Slot
	for i := 0; i < s.phase1; i++ {
		q := s.schedule.At(i)
		_, answered := s.answers[q.ID]
		slots = append(slots, boundary.Slot{Index: i, Question: q, Answered: answered && !s.skipped[q.ID]})
	}
	scheduled := make(map[int]bool, s.schedule.Len())
	for _, id := range s.schedule.IDs() {
		scheduled[id] = true
	}

	counts := make(map[model.Axis]*[2]int) // scheduled, skipped
	count := func(pool model.Axis) *[2]int {
		if c, ok := counts[pool]; ok {
			return c
		}
		sch, sk := s.poolCounts(pool)
		c := &[2]int{sch, sk}
		counts[pool] = c
		return c
	}
	accept := func(r boundary.Replacement) bool {
		from := count(poolOf(r.Displaced))
		sk := from[1]
		if s.skipped[r.Displaced.ID] {
			sk--
		}
		if sk*2 > from[0]-1 {
			return false
		}
		from[0]--
		from[1] = sk
		count(poolOf(r.Tiebreaker))[0]++
		return true
	}

	plan := s.detector.Plan(slots, s.source.TiebreakersFor(s.triggered), s.triggered, scheduled, accept)
	for _, r := range plan {
		s.schedule.Replace(r.Slot, r.Tiebreaker)
		delete(s.skipped, r.Displaced.ID)
		delete(s.answers, r.Displaced.ID)
	}
	if len(plan) > 0 {
		s.recompute()
	}

	s.logger.Info("checkpoint applied",
		zap.Int("triggered", len(s.triggered)),
		zap.Int("substitutions", len(plan)))
	return plan
}

func (s *Session) complete() {
	s.state = model.StateComplete
	s.supplementary = scoring.Supplementary(s.scores)
}

func (s *Session) recompute() {
	s.scores = scoring.Score(s.schedule.Range(0, s.schedule.Len()), s.answers, s.skipped)
}

func (s *Session) snapshotUpdate(prev model.SessionState) Update {
	return Update{
		State:        s.state,
		StateChanged: prev != s.state,
		Scores:       copyScores(s.scores),
		Triggered:    append([]model.BoundaryTag(nil), s.triggered...),
	}
}

func (s *Session) handled(id int) bool {
	if s.skipped[id] {
		return true
	}
	_, ok := s.answers[id]
	return ok
}

func (s *Session) countHandled(from, to int) int {
	n := 0
	for i := from; i < to; i++ {
		if s.handled(s.schedule.At(i).ID) {
			n++
		}
	}
	return n
}

func (s *Session) allHandled(from, to int) bool {
	return s.countHandled(from, to) == to-from
}

// poolOf is the skip-limit pool of a question: its axis for primary
// questions, its category for refinement questions
func poolOf(q model.Question) model.Axis {
	if code, ok := q.CategoryCode(); ok {
		return model.Axis(code)
	}
	return q.Axis
}

func (s *Session) poolCounts(pool model.Axis) (scheduled, skipped int) {
	for i := 0; i < s.schedule.Len(); i++ {
		q := s.schedule.At(i)
		if poolOf(q) != pool {
			continue
		}
		scheduled++
		if s.skipped[q.ID] {
			skipped++
		}
	}
	return scheduled, skipped
}

func (s *Session) skipRatios() map[model.Axis]float64 {
	out := make(map[model.Axis]float64)
	seen := make(map[model.Axis]bool)
	for i := 0; i < s.schedule.Len(); i++ {
		pool := poolOf(s.schedule.At(i))
		if seen[pool] {
			continue
		}
		seen[pool] = true
		scheduled, skipped := s.poolCounts(pool)
		out[pool] = float64(skipped) / float64(scheduled)
	}
	return out
}

func (s *Session) view(q model.Question) model.QuestionView {
	v := model.QuestionView{
		ID:        q.ID,
		Text:      q.Text,
		Axis:      q.Axis,
		Phase:     q.Phase,
		Kind:      q.Kind(),
		IsSkipped: s.skipped[q.ID],
	}
	if val, ok := s.answers[q.ID]; ok {
		v.Answer = &val
	}
	return v
}

func (s *Session) records() []model.AnswerRecord {
	out := make([]model.AnswerRecord, 0, s.schedule.Len())
	for i := 0; i < s.schedule.Len(); i++ {
		q := s.schedule.At(i)
		r := model.AnswerRecord{QuestionID: q.ID, Axis: q.Axis, IsSkipped: s.skipped[q.ID]}
		if val, ok := s.answers[q.ID]; ok {
			r.Value = &val
		}
		out = append(out, r)
	}
	return out
}

func primaryScores(scores map[model.Axis]float64) map[model.Axis]float64 {
	out := make(map[model.Axis]float64, len(model.PrimaryAxes))
	for _, axis := range model.PrimaryAxes {
		out[axis] = scores[axis]
	}
	return out
}

func copyScores(in map[model.Axis]float64) map[model.Axis]float64 {
	out := make(map[model.Axis]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
