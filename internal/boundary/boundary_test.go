package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideogrid/internal/model"
)

func TestNewDetector(t *testing.T) {
	d, err := NewDetector(DefaultBand)
	require.NoError(t, err)
	assert.Equal(t, 10.0, d.Band)

	for _, band := range []float64{0, -1, 33, 40} {
		_, err := NewDetector(band)
		assert.ErrorIs(t, err, ErrInvalidBand, band)
	}
}

func TestTriggered(t *testing.T) {
	d := Detector{Band: 10}

	tests := []struct {
		name   string
		scores map[model.Axis]float64
		want   []model.BoundaryTag
	}{
		{"origin", map[model.Axis]float64{}, nil},
		{"neutral", map[model.Axis]float64{model.AxisEconomic: 0, model.AxisAuthority: 0}, nil},
		{"band edge", map[model.Axis]float64{model.AxisEconomic: 23}, []model.BoundaryTag{model.BoundaryEconRight}},
		{"just outside", map[model.Axis]float64{model.AxisEconomic: 22.99}, nil},
		{"two", map[model.Axis]float64{model.AxisEconomic: -40, model.AxisAuthority: 30},
			[]model.BoundaryTag{model.BoundaryEconLeft, model.BoundaryAuthAuth}},
		{"cultural ignored", map[model.Axis]float64{model.AxisCultural: 33}, nil},
		{"far", map[model.Axis]float64{model.AxisEconomic: 80, model.AxisAuthority: -80}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Triggered(tt.scores))
		})
	}
}

func core(id int, p model.RemovalPriority) model.Question {
	return model.Question{ID: id, Axis: model.AxisCultural, Direction: 1, Phase: 1, Placement: model.Core{Priority: p}}
}

func tb(id int, tag model.BoundaryTag) model.Question {
	return model.Question{ID: id, Axis: model.AxisEconomic, Direction: 1, Phase: 1, Placement: model.Tiebreaker{Boundary: tag}}
}

func TestPlan_OneBoundaryUsesFirstPriorityOnly(t *testing.T) {
	d := Detector{Band: 10}
	tail := []Slot{
		{Index: 20, Question: core(1, model.PrioritySecond)},
		{Index: 21, Question: core(2, model.PriorityFirst)},
		{Index: 22, Question: core(3, model.PriorityNone)},
		{Index: 23, Question: core(4, model.PriorityFirst), Answered: true},
		{Index: 24, Question: core(5, model.PriorityFirst)},
	}
	tbs := []model.Question{tb(101, model.BoundaryEconLeft), tb(102, model.BoundaryEconLeft), tb(103, model.BoundaryEconLeft)}

	plan := d.Plan(tail, tbs, []model.BoundaryTag{model.BoundaryEconLeft}, nil, nil)
	require.Len(t, plan, 2)
	assert.Equal(t, 21, plan[0].Slot)
	assert.Equal(t, 2, plan[0].Displaced.ID)
	assert.Equal(t, 101, plan[0].Tiebreaker.ID)
	assert.Equal(t, 24, plan[1].Slot)
	assert.Equal(t, 102, plan[1].Tiebreaker.ID)
}

func TestPlan_TwoBoundariesAddSecondPriorityAndInterleave(t *testing.T) {
	d := Detector{Band: 10}
	tail := []Slot{
		{Index: 20, Question: core(1, model.PrioritySecond)},
		{Index: 21, Question: core(2, model.PriorityFirst)},
		{Index: 22, Question: core(3, model.PrioritySecond)},
		{Index: 23, Question: tb(107, model.BoundaryAuthAuth)},
	}
	triggered := []model.BoundaryTag{model.BoundaryEconLeft, model.BoundaryAuthAuth}
	tbs := []model.Question{
		tb(101, model.BoundaryEconLeft), tb(102, model.BoundaryEconLeft),
		tb(107, model.BoundaryAuthAuth), tb(108, model.BoundaryAuthAuth),
	}
	scheduled := map[int]bool{107: true}

	plan := d.Plan(tail, tbs, triggered, scheduled, nil)
	require.Len(t, plan, 3)
	assert.Equal(t, []int{21, 20, 22}, []int{plan[0].Slot, plan[1].Slot, plan[2].Slot})
	assert.Equal(t, []int{101, 108, 102}, []int{plan[0].Tiebreaker.ID, plan[1].Tiebreaker.ID, plan[2].Tiebreaker.ID})
}

func TestPlan_NothingTriggered(t *testing.T) {
	d := Detector{Band: 10}
	tail := []Slot{{Index: 0, Question: core(1, model.PriorityFirst)}}
	assert.Nil(t, d.Plan(tail, []model.Question{tb(101, model.BoundaryEconLeft)}, nil, nil, nil))
}

func TestPlan_NoTiebreakers(t *testing.T) {
	d := Detector{Band: 10}
	tail := []Slot{{Index: 0, Question: core(1, model.PriorityFirst)}}
	assert.Empty(t, d.Plan(tail, nil, []model.BoundaryTag{model.BoundaryEconLeft}, nil, nil))
}

func TestPlan_AcceptVetoesCandidate(t *testing.T) {
	d := Detector{Band: 10}
	tail := []Slot{
		{Index: 20, Question: core(1, model.PriorityFirst)},
		{Index: 21, Question: core(2, model.PriorityFirst)},
		{Index: 22, Question: core(3, model.PriorityFirst)},
	}
	tbs := []model.Question{tb(101, model.BoundaryEconLeft), tb(102, model.BoundaryEconLeft)}

	var asked []int
	plan := d.Plan(tail, tbs, []model.BoundaryTag{model.BoundaryEconLeft}, nil, func(r Replacement) bool {
		asked = append(asked, r.Displaced.ID)
		return r.Displaced.ID != 1
	})
	require.Len(t, plan, 2)
	assert.Equal(t, []int{21, 22}, []int{plan[0].Slot, plan[1].Slot})
	assert.Equal(t, []int{101, 102}, []int{plan[0].Tiebreaker.ID, plan[1].Tiebreaker.ID})
	assert.Equal(t, []int{1, 2, 3}, asked)
}
