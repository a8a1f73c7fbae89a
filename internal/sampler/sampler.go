// Package sampler orders the core phase-1 questions into screens balanced
// across axis and direction.
package sampler

import (
	"math/rand/v2"

	"ideogrid/internal/model"
)

// Bucket is one axis x direction partition of the core questions
type Bucket struct {
	Axis      model.Axis
	Direction int
}

// Buckets lists the six partitions in plan order
var Buckets = [6]Bucket{
	{model.AxisEconomic, 1}, {model.AxisEconomic, -1},
	{model.AxisAuthority, 1}, {model.AxisAuthority, -1},
	{model.AxisCultural, 1}, {model.AxisCultural, -1},
}

// BucketOf returns the bucket index of a question, false for non-primary axes
func BucketOf(q model.Question) (int, bool) {
	for i, b := range Buckets {
		if b.Axis != q.Axis {
			continue
		}
		if (q.Direction < 0) == (b.Direction < 0) {
			return i, true
		}
	}
	return 0, false
}

// Plan lays out which bucket feeds each position of each screen. It is
// deterministic in its inputs: every draw takes the non-empty bucket that is
// furthest behind its proportional share of the draws so far, ties going to
// the bucket drawn least on the current screen and then to bucket order.
// An exhausted bucket is never chosen, so the next most under-drawn bucket
// stands in for it. A screenSize below 1 yields a single screen.
func Plan(sizes [6]int, screenSize int) [][]int {
	total := 0
	for _, n := range sizes {
		total += n
	}
	if total == 0 {
		return nil
	}
	if screenSize < 1 {
		screenSize = total
	}
	screens := (total + screenSize - 1) / screenSize

	var drawn [6]int
	plan := make([][]int, 0, screens)
	k := 0
	for s := 0; s < screens; s++ {
		count := min(screenSize, total-k)
		screen := make([]int, 0, count)
		var picks [6]int
		for i := 0; i < count; i++ {
			k++
			best := -1
			for b := range sizes {
				if drawn[b] >= sizes[b] {
					continue
				}
				if best < 0 {
					best = b
					continue
				}
				// deficits scaled by total to stay in integers
				d := sizes[b]*k - drawn[b]*total
				bd := sizes[best]*k - drawn[best]*total
				if d > bd || (d == bd && picks[b] < picks[best]) {
					best = b
				}
			}
			drawn[best]++
			picks[best]++
			screen = append(screen, best)
		}
		plan = append(plan, screen)
	}
	return plan
}

// Sampler draws screen orders. It is not safe for concurrent use; create one
// per session.
type Sampler struct {
	screenSize int
	rng        *rand.Rand
}

// NewSampler creates a sampler whose shuffles are driven by seed
func NewSampler(screenSize int, seed uint64) *Sampler {
	return &Sampler{
		screenSize: screenSize,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Draw partitions questions into buckets, shuffles each bucket, fills the
// screens following Plan and finally shuffles within each screen. Questions
// on non-primary axes are ignored.
func (s *Sampler) Draw(questions []model.Question) [][]model.Question {
	var buckets [6][]model.Question
	for _, q := range questions {
		if i, ok := BucketOf(q); ok {
			buckets[i] = append(buckets[i], q)
		}
	}

	var sizes [6]int
	for i := range buckets {
		b := buckets[i]
		s.rng.Shuffle(len(b), func(x, y int) { b[x], b[y] = b[y], b[x] })
		sizes[i] = len(b)
	}

	var next [6]int
	plan := Plan(sizes, s.screenSize)
	out := make([][]model.Question, len(plan))
	for i, layout := range plan {
		screen := make([]model.Question, len(layout))
		for j, b := range layout {
			screen[j] = buckets[b][next[b]]
			next[b]++
		}
		s.rng.Shuffle(len(screen), func(x, y int) { screen[x], screen[y] = screen[y], screen[x] })
		out[i] = screen
	}
	return out
}

// Flatten concatenates screens into slot order
func Flatten(screens [][]model.Question) []model.Question {
	var out []model.Question
	for _, s := range screens {
		out = append(out, s...)
	}
	return out
}
