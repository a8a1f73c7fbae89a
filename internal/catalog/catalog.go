// Package catalog parses the tabular question source into typed questions
// and exposes the filtered views the questionnaire needs.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ideogrid/internal/model"
	"ideogrid/internal/refdata"
)

// Catalog is an immutable set of questions indexed for the session views
type Catalog struct {
	byID        map[int]model.Question
	core        []model.Question
	tiebreakers map[model.BoundaryTag][]model.Question
	refinement  map[model.MacroCode][]model.Question
	skipped     []RowError
}

// New builds a catalog from already-typed questions. Later duplicates of an
// id are ignored.
func New(questions []model.Question) *Catalog {
	c := &Catalog{
		byID:        make(map[int]model.Question, len(questions)),
		tiebreakers: make(map[model.BoundaryTag][]model.Question),
		refinement:  make(map[model.MacroCode][]model.Question),
	}
	for _, q := range questions {
		c.add(q)
	}
	c.sort()
	return c
}

// Parse reads a CSV question source. Malformed rows are dropped and logged;
// an unreadable or empty source, or one with no usable row, is a *ParseError.
func Parse(name string, r io.Reader, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	table, err := refdata.ReadTable(r)
	if err != nil {
		return nil, &ParseError{Source: name, Err: err}
	}
	for _, col := range []string{"id", "phase", "axis"} {
		if !table.Has(col) {
			return nil, &ParseError{Source: name, Err: fmt.Errorf("missing column %q", col)}
		}
	}

	c := New(nil)
	for _, row := range table.Rows {
		q, err := parseRow(row)
		if err == nil {
			if _, dup := c.byID[q.ID]; dup {
				err = errors.New("duplicate id")
			}
		}
		if err != nil {
			rowErr := RowError{Line: row.Line, ID: row.Get("id"), Reason: err.Error()}
			c.skipped = append(c.skipped, rowErr)
			logger.Warn("catalog row skipped",
				zap.String("source", name),
				zap.Int("line", rowErr.Line),
				zap.String("id", rowErr.ID),
				zap.String("reason", rowErr.Reason))
			continue
		}
		c.add(q)
	}

	if len(c.byID) == 0 {
		return nil, &ParseError{Source: name, Err: errors.New("no usable rows")}
	}
	c.sort()

	logger.Info("catalog loaded",
		zap.String("source", name),
		zap.Int("questions", len(c.byID)),
		zap.Int("core", len(c.core)),
		zap.Int("skipped", len(c.skipped)))
	return c, nil
}

func parseRow(row refdata.Row) (model.Question, error) {
	var q model.Question

	id, err := strconv.Atoi(row.Get("id"))
	if err != nil || id <= 0 {
		return q, errors.New("missing or invalid id")
	}
	phase, err := strconv.Atoi(row.Get("phase"))
	if err != nil || (phase != 1 && phase != 2) {
		return q, errors.New("missing or invalid phase")
	}
	axis := model.Axis(row.Get("axis"))
	if axis == "" {
		return q, errors.New("missing axis")
	}
	if phase == 1 && !axis.IsPrimary() {
		return q, fmt.Errorf("phase 1 question on non-primary axis %q", axis)
	}

	direction := 1
	switch row.Get("direction") {
	case "", "1", "+1":
	case "-1":
		direction = -1
	default:
		return q, fmt.Errorf("invalid direction %q", row.Get("direction"))
	}

	text := row.Get("text")
	if text == "" {
		return q, errors.New("missing text")
	}

	placement, err := parsePlacement(row, phase)
	if err != nil {
		return q, err
	}

	return model.Question{
		ID:        id,
		SourceID:  row.Get("source_id"),
		Text:      text,
		Axis:      axis,
		Direction: direction,
		Phase:     phase,
		Placement: placement,
	}, nil
}

func parsePlacement(row refdata.Row, phase int) (model.Placement, error) {
	kind := model.QuestionKind(strings.ToLower(row.Get("kind")))
	if kind == "" {
		kind = model.KindCore
		if phase == 2 {
			kind = model.KindRefinement
		}
	}
	tag := row.Get("tag")

	switch kind {
	case model.KindCore:
		if phase != 1 {
			return nil, errors.New("core question must be phase 1")
		}
		if tag != "" {
			return nil, fmt.Errorf("core question carries tag %q", tag)
		}
		switch row.Get("priority") {
		case "":
			return model.Core{}, nil
		case "1":
			return model.Core{Priority: model.PriorityFirst}, nil
		case "2":
			return model.Core{Priority: model.PrioritySecond}, nil
		default:
			return nil, fmt.Errorf("invalid priority %q", row.Get("priority"))
		}

	case model.KindTiebreaker:
		if phase != 1 {
			return nil, errors.New("tiebreaker must be phase 1")
		}
		b := model.BoundaryTag(tag)
		switch b {
		case model.BoundaryEconLeft, model.BoundaryEconRight, model.BoundaryAuthLib, model.BoundaryAuthAuth:
			return model.Tiebreaker{Boundary: b}, nil
		}
		return nil, fmt.Errorf("unknown boundary tag %q", tag)

	case model.KindRefinement:
		if phase != 2 {
			return nil, errors.New("refinement question must be phase 2")
		}
		code := model.MacroCode(strings.ToUpper(tag))
		if !code.Valid() {
			return nil, fmt.Errorf("unknown category code %q", tag)
		}
		return model.Refinement{Category: code}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

func (c *Catalog) add(q model.Question) {
	if _, dup := c.byID[q.ID]; dup {
		return
	}
	c.byID[q.ID] = q
	switch p := q.Placement.(type) {
	case model.Tiebreaker:
		c.tiebreakers[p.Boundary] = append(c.tiebreakers[p.Boundary], q)
	case model.Refinement:
		c.refinement[p.Category] = append(c.refinement[p.Category], q)
	default:
		if q.Phase == 1 {
			c.core = append(c.core, q)
		}
	}
}

func (c *Catalog) sort() {
	byID := func(qs []model.Question) {
		sort.SliceStable(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
	}
	byID(c.core)
	for _, qs := range c.tiebreakers {
		byID(qs)
	}
	for _, qs := range c.refinement {
		byID(qs)
	}
}

// Question looks up a question by id
func (c *Catalog) Question(id int) (model.Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Len returns the number of questions
func (c *Catalog) Len() int {
	return len(c.byID)
}

// CorePhase1 returns the scheduled phase-1 questions sorted by id
func (c *Catalog) CorePhase1() []model.Question {
	return clone(c.core)
}

// TiebreakersFor returns the tiebreakers of each tag, grouped in tag order
// and sorted by id within a tag
func (c *Catalog) TiebreakersFor(tags []model.BoundaryTag) []model.Question {
	var out []model.Question
	seen := make(map[model.BoundaryTag]bool, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, c.tiebreakers[tag]...)
	}
	return out
}

// Phase2QuestionsFor returns the refinement questions of one macro category
func (c *Catalog) Phase2QuestionsFor(code model.MacroCode) []model.Question {
	return clone(c.refinement[code])
}

// Skipped returns the rows dropped while parsing
func (c *Catalog) Skipped() []RowError {
	out := make([]RowError, len(c.skipped))
	copy(out, c.skipped)
	return out
}

func clone(qs []model.Question) []model.Question {
	if len(qs) == 0 {
		return nil
	}
	out := make([]model.Question, len(qs))
	copy(out, qs)
	return out
}
