package classify

import (
	"math"

	"ideogrid/internal/model"
)

// Match is the outcome of fine category matching
type Match struct {
	Macro    model.MacroCode
	Label    string
	Distance float64
	// Fallback is set when the macro cell has no vectors and Label is the
	// cell's generic label
	Fallback bool
}

// Matcher finds the nearest category vector. Weights scale individual axis
// codes; an axis without a weight counts 1.
type Matcher struct {
	Weights map[string]float64
}

// Closest returns the vector of macro nearest to scores by weighted
// Euclidean distance. Axes missing from scores count as 0. Exact ties keep
// the vector that comes first.
func (m Matcher) Closest(macro model.MacroCode, vectors []model.CategoryVector, scores map[string]float64) Match {
	best := Match{Macro: macro, Label: macro.Label(), Fallback: true}
	bestDist := math.Inf(1)

	for _, v := range vectors {
		if v.Macro != macro {
			continue
		}
		d := m.distance(v, scores)
		if d < bestDist {
			bestDist = d
			best = Match{Macro: macro, Label: v.Label, Distance: d}
		}
	}
	return best
}

func (m Matcher) distance(v model.CategoryVector, scores map[string]float64) float64 {
	var sum float64
	for _, axis := range v.Axes {
		w := 1.0
		if cw, ok := m.Weights[axis.Code]; ok {
			w = cw
		}
		diff := scores[axis.Code] - axis.Score
		sum += w * diff * diff
	}
	return math.Sqrt(sum)
}
