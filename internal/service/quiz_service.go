package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ideogrid/internal/boundary"
	"ideogrid/internal/catalog"
	"ideogrid/internal/classify"
	"ideogrid/internal/model"
	"ideogrid/internal/quiz"
	"ideogrid/internal/sampler"
	"ideogrid/internal/vectors"
)

var (
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrResultNotFound  = errors.New("result not found")
	ErrUnknownVariant  = errors.New("unknown questionnaire variant")
	ErrUnknownTally    = errors.New("unknown tally kind")
)

// SessionStore keeps in-flight session snapshots. Load returns nil, nil for
// an unknown or expired session.
type SessionStore interface {
	Save(ctx context.Context, snap model.SessionSnapshot) error
	Load(ctx context.Context, id string) (*model.SessionSnapshot, error)
	Delete(ctx context.Context, id string) error
}

// ResultStore persists submissions and assigns their ids. GetByID returns
// nil, nil when the id is unknown.
type ResultStore interface {
	Create(ctx context.Context, sub *model.Submission) (string, error)
	GetByID(ctx context.Context, id string) (*model.Result, error)
	CountByMacro(ctx context.Context) (map[model.MacroCode]int64, error)
}

// Tally keeps aggregate counters per macro cell and fine category
type Tally interface {
	Increment(ctx context.Context, kind model.TallyKind, key string) error
	Set(ctx context.Context, kind model.TallyKind, key string, count int64) error
	Top(ctx context.Context, kind model.TallyKind, limit int) ([]model.TallyEntry, error)
}

// QuizSettings are the questionnaire parameters shared by all sessions
type QuizSettings struct {
	Variants       []model.Variant
	DefaultVariant string
	Detector       boundary.Detector
	Matcher        classify.Matcher
}

// QuizService drives questionnaire sessions against the stores. Sessions
// are rehydrated from the session store on every call, so any replica can
// serve any respondent.
type QuizService struct {
	catalog  *catalog.Loader
	vectors  *vectors.Store
	sessions SessionStore
	results  ResultStore
	tally    Tally
	authSvc  *AuthService
	settings QuizSettings
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	seed     func() uint64
	locks    [64]sync.Mutex
}

// NewQuizService creates a new quiz service
func NewQuizService(
	catalogLoader *catalog.Loader,
	vectorStore *vectors.Store,
	sessions SessionStore,
	results ResultStore,
	tally Tally,
	authSvc *AuthService,
	settings QuizSettings,
	logger *zap.Logger,
) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{
		catalog:  catalogLoader,
		vectors:  vectorStore,
		sessions: sessions,
		results:  results,
		tally:    tally,
		authSvc:  authSvc,
		settings: settings,
		notifier: nopNotifier{},
		logger:   logger,
		now:      time.Now,
		seed:     rand.Uint64,
	}
}

// SetNotifier sets the notifier for live session events
func (s *QuizService) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.notifier = n
}

// Variant looks up a variant by name; empty selects the default
func (s *QuizService) Variant(name string) (model.Variant, bool) {
	if name == "" {
		name = s.settings.DefaultVariant
	}
	for _, v := range s.settings.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return model.Variant{}, false
}

// Start creates a session with a freshly sampled phase-1 schedule
func (s *QuizService) Start(ctx context.Context, variantName string) (*model.StartResponse, error) {
	variant, ok := s.Variant(variantName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variantName)
	}

	cat, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	id := uuid.NewString()
	screens := sampler.NewSampler(variant.ScreenSize, s.seed()).Draw(cat.CorePhase1())
	sess, err := quiz.New(id, variant, screens, cat, s.sessionOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.sessions.Save(ctx, sess.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.authSvc.GenerateRespondentToken(id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("session started",
		zap.String("session", id),
		zap.String("variant", variant.Name),
		zap.Int("questions", len(sampler.Flatten(screens))))

	progress := sess.Progress()
	return &model.StartResponse{SessionID: id, Token: token, Progress: &progress}, nil
}

// Progress returns the current screen of a session
func (s *QuizService) Progress(ctx context.Context, id string) (*model.Progress, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	p := sess.Progress()
	return &p, nil
}

// Answer records an answer value in [0,1]
func (s *QuizService) Answer(ctx context.Context, id string, questionID int, value float64) (*model.Progress, error) {
	return s.mutate(ctx, id, func(sess *quiz.Session) (quiz.Update, error) {
		return sess.Answer(questionID, value)
	})
}

// Skip withdraws a question from scoring. A rejected skip returns an error
// matching quiz.ErrSkipLimitExceeded and leaves the session unchanged.
func (s *QuizService) Skip(ctx context.Context, id string, questionID int) (*model.Progress, error) {
	return s.mutate(ctx, id, func(sess *quiz.Session) (quiz.Update, error) {
		return sess.Skip(questionID)
	})
}

// Unskip restores a skipped question's retained answer
func (s *QuizService) Unskip(ctx context.Context, id string, questionID int) (*model.Progress, error) {
	return s.mutate(ctx, id, func(sess *quiz.Session) (quiz.Update, error) {
		return sess.Unskip(questionID)
	})
}

// Continue moves a session whose phase 1 is finished into phase 2. Mutations
// already do this; Continue resumes a session stored between the two.
func (s *QuizService) Continue(ctx context.Context, id string) (*model.Progress, error) {
	return s.mutate(ctx, id, func(sess *quiz.Session) (quiz.Update, error) {
		return quiz.Update{State: sess.State(), Scores: sess.Scores()}, nil
	})
}

// Submit resolves the fine category, persists the submission and retires the
// session
func (s *QuizService) Submit(ctx context.Context, id string) (*model.Result, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.advance(ctx, sess); err != nil {
		return nil, err
	}
	if sess.State() == model.StateComplete {
		if err := sess.Resolve(s.resolveCell(ctx, sess)); err != nil {
			return nil, err
		}
	}

	sub, err := sess.Submit(s.now())
	if err != nil {
		return nil, err
	}

	resultID, err := s.results.Create(ctx, &sub)
	if err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	if err := s.tally.Increment(ctx, model.TallyMacro, string(sub.Macro)); err != nil {
		s.logger.Warn("failed to update macro tally", zap.String("session", id), zap.Error(err))
	}
	if err := s.tally.Increment(ctx, model.TallyCategory, sub.Category); err != nil {
		s.logger.Warn("failed to update category tally", zap.String("session", id), zap.Error(err))
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete submitted session", zap.String("session", id), zap.Error(err))
	}

	result := &model.Result{ID: resultID, Submission: sub}
	s.notifier.Notify(id, EventSubmitted, map[string]string{"resultId": resultID})
	s.notifier.CloseSession(id)

	s.logger.Info("session submitted",
		zap.String("session", id),
		zap.String("result", resultID),
		zap.String("macro", string(sub.Macro)),
		zap.String("category", sub.Category))
	return result, nil
}

// Result returns a stored result without recomputing it
func (s *QuizService) Result(ctx context.Context, id string) (*model.Result, error) {
	res, err := s.results.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if res == nil {
		return nil, ErrResultNotFound
	}
	return res, nil
}

// Stats returns the top aggregate counters of one kind
func (s *QuizService) Stats(ctx context.Context, kind model.TallyKind, limit int) ([]model.TallyEntry, error) {
	if kind != model.TallyMacro && kind != model.TallyCategory {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTally, kind)
	}
	if limit < 1 {
		limit = 10
	}
	return s.tally.Top(ctx, kind, limit)
}

// Reconcile rebuilds the macro counters from the stored results
func (s *QuizService) Reconcile(ctx context.Context) error {
	counts, err := s.results.CountByMacro(ctx)
	if err != nil {
		return fmt.Errorf("failed to count results: %w", err)
	}
	for macro, n := range counts {
		if err := s.tally.Set(ctx, model.TallyMacro, string(macro), n); err != nil {
			return fmt.Errorf("failed to set tally %s: %w", macro, err)
		}
	}
	s.logger.Info("macro tally reconciled", zap.Int("cells", len(counts)))
	return nil
}

func (s *QuizService) mutate(ctx context.Context, id string, fn func(*quiz.Session) (quiz.Update, error)) (*model.Progress, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	update, err := fn(sess)
	if err != nil {
		return nil, err
	}
	if err := s.advance(ctx, sess); err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, sess.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.publish(id, update, sess)
	p := sess.Progress()
	return &p, nil
}

// advance loads phase 2 once phase 1 is finished
func (s *QuizService) advance(ctx context.Context, sess *quiz.Session) error {
	switch sess.State() {
	case model.StatePhase1Complete, model.StatePhase2Loading:
	default:
		return nil
	}

	var questions []model.Question
	if sess.Variant().Phase2 {
		if sess.State() == model.StatePhase1Complete {
			if err := sess.MarkPhase2Loading(); err != nil {
				return err
			}
		}
		cat, err := s.catalog.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		questions = cat.Phase2QuestionsFor(sess.Macro())
		if len(questions) == 0 {
			s.logger.Warn("no refinement questions for macro cell",
				zap.String("session", sess.ID()),
				zap.String("macro", string(sess.Macro())))
		}
	}

	_, err := sess.BeginPhase2(questions)
	return err
}

// resolveCell picks the grid cell describing a completed session. Missing
// vectors or grid rows fall back to the macro cell and are logged.
func (s *QuizService) resolveCell(ctx context.Context, sess *quiz.Session) model.GridCell {
	macro := sess.Macro()
	variant := sess.Variant()
	fallback := model.GridCell{Scheme: model.SchemeCoarse, Macro: macro, MacroLabel: macro.Label(), Label: macro.Label()}

	if variant.Grid == model.SchemeFine {
		vs, err := s.vectors.VectorsFor(ctx, macro)
		if err != nil {
			s.logger.Warn("category vectors unavailable", zap.String("session", sess.ID()), zap.Error(err))
		}
		match := s.settings.Matcher.Closest(macro, vs, sess.Supplementary())
		if match.Fallback {
			s.logger.Warn("no category vectors for macro cell, using macro label",
				zap.String("session", sess.ID()),
				zap.String("macro", string(macro)))
		} else {
			cell, ok, err := s.vectors.Cell(ctx, model.SchemeFine, macro, match.Label)
			switch {
			case err != nil:
				s.logger.Warn("fine grid unavailable", zap.String("session", sess.ID()), zap.Error(err))
			case ok:
				return cell
			}
			fallback.Label = match.Label
		}
	}

	cell, ok, err := s.vectors.Cell(ctx, model.SchemeCoarse, macro, "")
	if err != nil {
		s.logger.Warn("coarse grid unavailable", zap.String("session", sess.ID()), zap.Error(err))
		return fallback
	}
	if !ok {
		return fallback
	}
	if fallback.Label != macro.Label() {
		cell.Label = fallback.Label
	}
	return cell
}

func (s *QuizService) publish(id string, u quiz.Update, sess *quiz.Session) {
	s.notifier.Notify(id, EventScoresUpdated, u.Scores)
	if len(u.Substitutions) > 0 {
		type swap struct {
			Slot       int `json:"slot"`
			Displaced  int `json:"displaced"`
			Tiebreaker int `json:"tiebreaker"`
		}
		swaps := make([]swap, len(u.Substitutions))
		for i, r := range u.Substitutions {
			swaps[i] = swap{Slot: r.Slot, Displaced: r.Displaced.ID, Tiebreaker: r.Tiebreaker.ID}
		}
		s.notifier.Notify(id, EventTiebreakersInserted, map[string]interface{}{
			"triggered":     u.Triggered,
			"substitutions": swaps,
		})
	}
	if state := sess.State(); u.StateChanged || state != u.State {
		s.notifier.Notify(id, EventPhaseChanged, map[string]interface{}{
			"state": state,
			"macro": sess.Macro(),
		})
	}
}

func (s *QuizService) load(ctx context.Context, id string) (*quiz.Session, error) {
	snap, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}

	variant, ok := s.Variant(snap.Variant)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, snap.Variant)
	}
	cat, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return quiz.Restore(*snap, variant, cat, s.sessionOptions())
}

func (s *QuizService) sessionOptions() quiz.Options {
	return quiz.Options{Detector: s.settings.Detector, Logger: s.logger, Now: s.now}
}

// lock returns the mutex serialising requests for one session id
func (s *QuizService) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%uint32(len(s.locks))]
}
