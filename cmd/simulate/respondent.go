package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"ideogrid/internal/catalog"
	"ideogrid/internal/model"
	"ideogrid/internal/quiz"
	"ideogrid/internal/service"
)

// Respondent answers as a fixed lean per axis plus noise. Leans are drawn
// lazily in [-1, 1]; a positive lean agrees with positively directed
// questions.
type Respondent struct {
	rng      *rand.Rand
	lean     map[model.Axis]float64
	skipRate float64
	noise    float64
}

// NewRespondent creates a respondent fully determined by seed
func NewRespondent(seed uint64, skipRate float64) *Respondent {
	return &Respondent{
		rng:      rand.New(rand.NewPCG(seed, seed^0x5bd1e995)),
		lean:     make(map[model.Axis]float64),
		skipRate: skipRate,
		noise:    0.15,
	}
}

// Lean returns the respondent's position on an axis
func (r *Respondent) Lean(axis model.Axis) float64 {
	l, ok := r.lean[axis]
	if !ok {
		l = r.rng.Float64()*2 - 1
		r.lean[axis] = l
	}
	return l
}

// Value picks an answer in [0,1] for q
func (r *Respondent) Value(q model.Question) float64 {
	v := 0.5 + 0.5*r.Lean(q.Axis)*float64(q.Direction) + r.rng.NormFloat64()*r.noise
	return math.Max(0, math.Min(1, v))
}

func (r *Respondent) wantsSkip() bool {
	return r.skipRate > 0 && r.rng.Float64() < r.skipRate
}

// Run completes one session through the service and submits it
func (r *Respondent) Run(ctx context.Context, svc *service.QuizService, cat *catalog.Catalog, variant string) (*model.Result, error) {
	start, err := svc.Start(ctx, variant)
	if err != nil {
		return nil, err
	}

	p := start.Progress
	for p.State == model.StatePhase1 || p.State == model.StatePhase2 {
		next, ok := firstOpen(p)
		if !ok {
			return nil, fmt.Errorf("session %s: no open question on screen %d", start.SessionID, p.Screen)
		}
		q, ok := cat.Question(next)
		if !ok {
			return nil, fmt.Errorf("session %s: question %d not in catalog", start.SessionID, next)
		}

		if r.wantsSkip() {
			p, err = svc.Skip(ctx, start.SessionID, q.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, quiz.ErrSkipLimitExceeded) {
				return nil, err
			}
		}
		if p, err = svc.Answer(ctx, start.SessionID, q.ID, r.Value(q)); err != nil {
			return nil, err
		}
	}

	return svc.Submit(ctx, start.SessionID)
}

func firstOpen(p *model.Progress) (int, bool) {
	for _, q := range p.Questions {
		if q.Answer == nil && !q.IsSkipped {
			return q.ID, true
		}
	}
	return 0, false
}
