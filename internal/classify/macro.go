// Package classify resolves axis scores to a macro cell and, within a cell,
// to the nearest fine category.
package classify

import "ideogrid/internal/model"

// Boundary is where a primary axis splits into thirds. A score exactly on
// the boundary stays in the middle third.
const Boundary = 33.0

// Macro maps the economic and authority scores to one of the nine cells
func Macro(econ, auth float64) model.MacroCode {
	return model.MacroCode(third(econ, "L", "C", "R") + third(auth, "L", "M", "A"))
}

func third(score float64, low, mid, high string) string {
	switch {
	case score < -Boundary:
		return low
	case score > Boundary:
		return high
	default:
		return mid
	}
}
