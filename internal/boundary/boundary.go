// Package boundary detects provisional scores that sit close to a macro
// category boundary and plans tiebreaker substitutions for them.
package boundary

import (
	"errors"
	"fmt"

	"ideogrid/internal/model"
)

const (
	// Threshold is the distance of each macro boundary from the origin
	Threshold = 33.0
	// DefaultBand is the half-width of the detection band
	DefaultBand = 10.0
)

// ErrInvalidBand is returned for a band outside (0, Threshold)
var ErrInvalidBand = errors.New("boundary band must be in (0, 33)")

// Boundary is one axis threshold between two macro rows or columns
type Boundary struct {
	Tag       model.BoundaryTag
	Axis      model.Axis
	Threshold float64
}

// Boundaries lists the four boundaries in detection order
var Boundaries = []Boundary{
	{model.BoundaryEconLeft, model.AxisEconomic, -Threshold},
	{model.BoundaryEconRight, model.AxisEconomic, Threshold},
	{model.BoundaryAuthLib, model.AxisAuthority, -Threshold},
	{model.BoundaryAuthAuth, model.AxisAuthority, Threshold},
}

// Detector flags boundaries within Band of a score
type Detector struct {
	Band float64
}

// NewDetector validates band and returns a detector
func NewDetector(band float64) (Detector, error) {
	if band <= 0 || band >= Threshold {
		return Detector{}, fmt.Errorf("%w: got %v", ErrInvalidBand, band)
	}
	return Detector{Band: band}, nil
}

// Triggered returns the tags of boundaries where |score - threshold| <= Band,
// in Boundaries order. Axes missing from scores count as 0.
func (d Detector) Triggered(scores map[model.Axis]float64) []model.BoundaryTag {
	var out []model.BoundaryTag
	for _, b := range Boundaries {
		dist := scores[b.Axis] - b.Threshold
		if dist < 0 {
			dist = -dist
		}
		if dist <= d.Band {
			out = append(out, b.Tag)
		}
	}
	return out
}

// Slot is one schedule position considered for displacement
type Slot struct {
	Index    int
	Question model.Question
	Answered bool // holds a non-skipped answer
}

// Replacement swaps the question in one slot for a tiebreaker
type Replacement struct {
	Slot       int
	Displaced  model.Question
	Tiebreaker model.Question
}

// Plan pairs displaceable slots with tiebreakers. Unanswered core slots of
// first priority are eligible once any boundary triggers, second priority
// ones only when two or more do; first priority slots are used first, each
// tier in schedule order. Tiebreakers are taken round-robin across the
// triggered boundaries, skipping any already scheduled. A non-nil accept
// vetoes individual replacements; a vetoed candidate keeps its question and
// the tiebreaker goes to the next candidate. Pairing stops when either side
// runs out.
func (d Detector) Plan(tail []Slot, tiebreakers []model.Question, triggered []model.BoundaryTag, scheduled map[int]bool, accept func(Replacement) bool) []Replacement {
	if len(triggered) == 0 {
		return nil
	}

	var first, second []Slot
	for _, s := range tail {
		if s.Answered || s.Question.Kind() != model.KindCore || s.Question.Phase != 1 {
			continue
		}
		switch s.Question.RemovalPriority() {
		case model.PriorityFirst:
			first = append(first, s)
		case model.PrioritySecond:
			if len(triggered) >= 2 {
				second = append(second, s)
			}
		}
	}
	candidates := append(first, second...)

	picks := interleave(tiebreakers, triggered, scheduled)

	var out []Replacement
	for _, c := range candidates {
		if len(out) == len(picks) {
			break
		}
		r := Replacement{Slot: c.Index, Displaced: c.Question, Tiebreaker: picks[len(out)]}
		if accept != nil && !accept(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func interleave(tiebreakers []model.Question, triggered []model.BoundaryTag, scheduled map[int]bool) []model.Question {
	queues := make([][]model.Question, len(triggered))
	index := make(map[model.BoundaryTag]int, len(triggered))
	for i, tag := range triggered {
		index[tag] = i
	}
	seen := make(map[int]bool)
	for _, q := range tiebreakers {
		tag, ok := q.BoundaryTag()
		if !ok || scheduled[q.ID] || seen[q.ID] {
			continue
		}
		i, ok := index[tag]
		if !ok {
			continue
		}
		seen[q.ID] = true
		queues[i] = append(queues[i], q)
	}

	var out []model.Question
	for more := true; more; {
		more = false
		for i := range queues {
			if len(queues[i]) == 0 {
				continue
			}
			out = append(out, queues[i][0])
			queues[i] = queues[i][1:]
			more = true
		}
	}
	return out
}
