package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ideogrid/internal/model"
)

func TestRespondent_Deterministic(t *testing.T) {
	q := model.Question{ID: 1, Axis: model.AxisEconomic, Direction: 1}
	a, b := NewRespondent(42, 0), NewRespondent(42, 0)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Value(q), b.Value(q))
	}
	assert.NotEqual(t, NewRespondent(1, 0).Lean(model.AxisEconomic), NewRespondent(2, 0).Lean(model.AxisEconomic))
}

func TestRespondent_ValueFollowsLean(t *testing.T) {
	r := NewRespondent(7, 0)
	r.noise = 0
	r.lean[model.AxisEconomic] = 0.8

	assert.InDelta(t, 0.9, r.Value(model.Question{Axis: model.AxisEconomic, Direction: 1}), 1e-9)
	assert.InDelta(t, 0.1, r.Value(model.Question{Axis: model.AxisEconomic, Direction: -1}), 1e-9)

	r.noise = 10
	for i := 0; i < 100; i++ {
		v := r.Value(model.Question{Axis: model.AxisCultural, Direction: 1})
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestRespondent_SkipRate(t *testing.T) {
	assert.False(t, NewRespondent(1, 0).wantsSkip())

	r := NewRespondent(1, 0.5)
	skips := 0
	for i := 0; i < 1000; i++ {
		if r.wantsSkip() {
			skips++
		}
	}
	assert.InDelta(t, 500, skips, 80)
}
