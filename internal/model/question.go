package model

import "fmt"

// Axis identifies one ideological dimension
type Axis string

const (
	AxisEconomic  Axis = "econ" // left (-) / right (+)
	AxisAuthority Axis = "auth" // libertarian (-) / authoritarian (+)
	AxisCultural  Axis = "cult" // progressive (-) / traditional (+)
)

// PrimaryAxes are the phase-1 axes in bucket order
var PrimaryAxes = []Axis{AxisEconomic, AxisAuthority, AxisCultural}

// IsPrimary reports whether a is one of the phase-1 axes
func (a Axis) IsPrimary() bool {
	switch a {
	case AxisEconomic, AxisAuthority, AxisCultural:
		return true
	}
	return false
}

// QuestionKind is derived from a question's placement
type QuestionKind string

const (
	KindCore       QuestionKind = "core"
	KindTiebreaker QuestionKind = "tiebreaker"
	KindRefinement QuestionKind = "refinement"
)

// RemovalPriority marks which core questions may be displaced by tiebreakers
type RemovalPriority int

const (
	PriorityNone   RemovalPriority = 0
	PriorityFirst  RemovalPriority = 1 // displaced when any boundary triggers
	PrioritySecond RemovalPriority = 2 // displaced when two or more trigger
)

// BoundaryTag names one macro-category boundary
type BoundaryTag string

const (
	BoundaryEconLeft  BoundaryTag = "econ-left"
	BoundaryEconRight BoundaryTag = "econ-right"
	BoundaryAuthLib   BoundaryTag = "auth-lib"
	BoundaryAuthAuth  BoundaryTag = "auth-auth"
)

// Placement is the kind-specific part of a question.
// Only Core, Tiebreaker and Refinement implement it.
type Placement interface {
	kind() QuestionKind
}

// Core is a scheduled phase-1 question
type Core struct {
	Priority RemovalPriority
}

// Tiebreaker is a phase-1 substitute that sharpens one boundary
type Tiebreaker struct {
	Boundary BoundaryTag
}

// Refinement is a phase-2 question owned by one macro category
type Refinement struct {
	Category MacroCode
}

func (Core) kind() QuestionKind       { return KindCore }
func (Tiebreaker) kind() QuestionKind { return KindTiebreaker }
func (Refinement) kind() QuestionKind { return KindRefinement }

// Question is an immutable catalog record
type Question struct {
	ID        int       `json:"id"`
	SourceID  string    `json:"sourceId"`
	Text      string    `json:"text"`
	Axis      Axis      `json:"axis"`
	Direction int       `json:"direction"` // +1 or -1
	Phase     int       `json:"phase"`     // 1 or 2
	Placement Placement `json:"-"`
}

// Kind returns the question kind implied by its placement
func (q Question) Kind() QuestionKind {
	if q.Placement == nil {
		return KindCore
	}
	return q.Placement.kind()
}

// BoundaryTag returns the boundary a tiebreaker resolves
func (q Question) BoundaryTag() (BoundaryTag, bool) {
	if tb, ok := q.Placement.(Tiebreaker); ok {
		return tb.Boundary, true
	}
	return "", false
}

// CategoryCode returns the macro category a refinement question belongs to
func (q Question) CategoryCode() (MacroCode, bool) {
	if r, ok := q.Placement.(Refinement); ok {
		return r.Category, true
	}
	return "", false
}

// RemovalPriority returns the displacement tier of a core question
func (q Question) RemovalPriority() RemovalPriority {
	if c, ok := q.Placement.(Core); ok {
		return c.Priority
	}
	return PriorityNone
}

func (q Question) String() string {
	return fmt.Sprintf("Q%d[%s %s%+d]", q.ID, q.Kind(), q.Axis, q.Direction)
}

// QuestionView is the JSON shape handed to presentation
type QuestionView struct {
	ID        int          `json:"id"`
	Text      string       `json:"text"`
	Axis      Axis         `json:"axis"`
	Phase     int          `json:"phase"`
	Kind      QuestionKind `json:"kind"`
	Answer    *float64     `json:"answer,omitempty"`
	IsSkipped bool         `json:"isSkipped"`
}
