// Package vectors loads the fine category reference vectors and the coarse
// and fine category grids.
package vectors

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ideogrid/internal/model"
	"ideogrid/internal/refdata"
)

// MaxAxes is the number of axis triples a vector row can carry
const MaxAxes = 6

// ErrSource marks a vector or grid source that cannot be read at all
var ErrSource = errors.New("reference source unavailable")

// ParseVectors reads the category vector table. Malformed rows are skipped
// with a warning.
func ParseVectors(name string, r io.Reader, logger *zap.Logger) ([]model.CategoryVector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	table, err := refdata.ReadTable(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSource, name, err)
	}

	var out []model.CategoryVector
	for _, row := range table.Rows {
		v, err := parseVector(row)
		if err != nil {
			logger.Warn("vector row skipped",
				zap.String("source", name),
				zap.Int("line", row.Line),
				zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	logger.Info("vectors loaded", zap.String("source", name), zap.Int("vectors", len(out)))
	return out, nil
}

func parseVector(row refdata.Row) (model.CategoryVector, error) {
	macro := model.MacroCode(strings.ToUpper(row.Get("macro")))
	if !macro.Valid() {
		return model.CategoryVector{}, fmt.Errorf("unknown macro code %q", row.Get("macro"))
	}
	label := row.Get("category")
	if label == "" {
		return model.CategoryVector{}, errors.New("missing category")
	}

	v := model.CategoryVector{Macro: macro, Label: label}
	for i := 1; i <= MaxAxes; i++ {
		prefix := fmt.Sprintf("axis%d_", i)
		code := row.Get(prefix + "code")
		if code == "" {
			continue
		}
		score, err := strconv.ParseFloat(row.Get(prefix+"score"), 64)
		if err != nil {
			return model.CategoryVector{}, fmt.Errorf("axis %d score: %w", i, err)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return model.CategoryVector{}, fmt.Errorf("axis %d score: not finite: %v", i, score)
		}
		v.Axes = append(v.Axes, model.AxisRef{
			Name:  row.Get(prefix + "name"),
			Code:  code,
			Score: score,
		})
	}
	return v, nil
}

// ParseGrid reads a category grid table for scheme
func ParseGrid(name string, scheme model.GridScheme, r io.Reader, logger *zap.Logger) ([]model.GridCell, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	table, err := refdata.ReadTable(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSource, name, err)
	}

	var out []model.GridCell
	for _, row := range table.Rows {
		macro := model.MacroCode(strings.ToUpper(row.Get("macro")))
		label := row.Get("category")
		if !macro.Valid() || label == "" {
			logger.Warn("grid row skipped",
				zap.String("source", name),
				zap.Int("line", row.Line),
				zap.String("macro", row.Get("macro")))
			continue
		}
		macroLabel := row.Get("macro_label")
		if macroLabel == "" {
			macroLabel = macro.Label()
		}
		out = append(out, model.GridCell{
			Scheme:      scheme,
			Macro:       macro,
			MacroLabel:  macroLabel,
			Label:       label,
			Range:       row.Get("range"),
			Description: row.Get("description"),
			AlignsWith:  row.List("aligns_with"),
			Surprising:  row.List("surprising"),
		})
	}
	logger.Info("grid loaded", zap.String("source", name), zap.String("scheme", string(scheme)), zap.Int("cells", len(out)))
	return out, nil
}
