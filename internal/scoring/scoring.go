// Package scoring turns slider answers into normalized axis scores.
package scoring

import "ideogrid/internal/model"

const (
	// Neutral is the slider midpoint
	Neutral = 0.5
	// MaxScore bounds a normalized axis score on both sides
	MaxScore = 100.0
)

// Contribution maps one [0,1] answer to [-2,2] in the question's direction
func Contribution(value float64, direction int) float64 {
	d := 1.0
	if direction < 0 {
		d = -1
	}
	return (value - Neutral) * 4 * d
}

// Normalize scales a contribution sum over n answers to [-100,100].
// No answers normalizes to 0.
func Normalize(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	v := sum / float64(n*2) * MaxScore
	return max(-MaxScore, min(MaxScore, v))
}

// Score computes the score of every axis that has at least one of the given
// questions. Skipped questions and questions without an answer contribute
// nothing. The result does not depend on question order.
func Score(questions []model.Question, answers map[int]float64, skipped map[int]bool) map[model.Axis]float64 {
	type acc struct {
		sum float64
		n   int
	}
	totals := make(map[model.Axis]*acc)
	for _, q := range questions {
		a, ok := totals[q.Axis]
		if !ok {
			a = &acc{}
			totals[q.Axis] = a
		}
		if skipped[q.ID] {
			continue
		}
		v, ok := answers[q.ID]
		if !ok {
			continue
		}
		a.sum += Contribution(v, q.Direction)
		a.n++
	}

	scores := make(map[model.Axis]float64, len(totals))
	for axis, a := range totals {
		scores[axis] = Normalize(a.sum, a.n)
	}
	return scores
}

// Supplementary filters a score map down to the non-primary axes, keyed by
// axis code
func Supplementary(scores map[model.Axis]float64) map[string]float64 {
	out := make(map[string]float64)
	for axis, v := range scores {
		if !axis.IsPrimary() {
			out[string(axis)] = v
		}
	}
	return out
}
