package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideogrid/internal/model"
)

func TestPlan_EqualBucketsRoundRobin(t *testing.T) {
	plan := Plan([6]int{5, 5, 5, 5, 5, 5}, 5)
	require.Len(t, plan, 6)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, plan[0])
	assert.Equal(t, []int{5, 0, 1, 2, 3}, plan[1])

	for i, screen := range plan {
		seen := map[int]bool{}
		for _, b := range screen {
			assert.False(t, seen[b], "screen %d repeats bucket %d", i, b)
			seen[b] = true
		}
	}
}

func TestPlan_Balance(t *testing.T) {
	cases := []struct {
		sizes      [6]int
		screenSize int
	}{
		{[6]int{10, 2, 5, 5, 4, 4}, 5},
		{[6]int{6, 0, 5, 5, 5, 5}, 4},
		{[6]int{12, 0, 0, 3, 1, 9}, 7},
		{[6]int{1, 1, 1, 1, 1, 1}, 10},
	}
	for _, tc := range cases {
		plan := Plan(tc.sizes, tc.screenSize)

		total := 0
		for _, n := range tc.sizes {
			total += n
		}
		wantScreens := (total + tc.screenSize - 1) / tc.screenSize
		require.Len(t, plan, wantScreens)

		var drawn [6]int
		k := 0
		for i, screen := range plan {
			if i < len(plan)-1 {
				assert.Len(t, screen, tc.screenSize)
			}
			for _, b := range screen {
				drawn[b]++
				k++
				for c := range drawn {
					share := float64(tc.sizes[c]) * float64(k) / float64(total)
					assert.Less(t, math.Abs(float64(drawn[c])-share), 2.0,
						"bucket %d drifted at draw %d for %v", c, k, tc.sizes)
				}
			}
		}
		assert.Equal(t, tc.sizes, drawn)
	}
}

func TestPlan_Deterministic(t *testing.T) {
	sizes := [6]int{7, 3, 6, 4, 5, 5}
	assert.Equal(t, Plan(sizes, 6), Plan(sizes, 6))
}

func TestPlan_Degenerate(t *testing.T) {
	assert.Nil(t, Plan([6]int{}, 5))
	plan := Plan([6]int{2, 1, 0, 0, 0, 0}, 0)
	require.Len(t, plan, 1)
	assert.Len(t, plan[0], 3)
}

func TestSampler_Draw(t *testing.T) {
	questions := coreSet()

	a := NewSampler(5, 1).Draw(questions)
	b := NewSampler(5, 1).Draw(questions)
	c := NewSampler(5, 2).Draw(questions)

	assert.Equal(t, a, b, "same seed gives same order")
	assert.NotEqual(t, Flatten(a), Flatten(c), "different seed reshuffles")

	require.Len(t, a, 6)
	seen := map[int]bool{}
	for _, screen := range a {
		assert.Len(t, screen, 5)
		for _, q := range screen {
			assert.False(t, seen[q.ID])
			seen[q.ID] = true
		}
	}
	assert.Len(t, seen, 30)

	// both draws follow the same plan: per-screen bucket counts match
	for i := range a {
		assert.Equal(t, bucketCounts(a[i]), bucketCounts(c[i]))
	}
}

func TestSampler_IgnoresNonPrimary(t *testing.T) {
	qs := []model.Question{
		{ID: 1, Axis: model.AxisEconomic, Direction: 1, Phase: 1},
		{ID: 2, Axis: "RL-MKT", Direction: 1, Phase: 2},
	}
	out := Flatten(NewSampler(5, 0).Draw(qs))
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].ID)
}

func coreSet() []model.Question {
	var qs []model.Question
	id := 1
	for _, b := range Buckets {
		for i := 0; i < 5; i++ {
			qs = append(qs, model.Question{ID: id, Axis: b.Axis, Direction: b.Direction, Phase: 1})
			id++
		}
	}
	return qs
}

func bucketCounts(screen []model.Question) [6]int {
	var out [6]int
	for _, q := range screen {
		i, _ := BucketOf(q)
		out[i]++
	}
	return out
}
