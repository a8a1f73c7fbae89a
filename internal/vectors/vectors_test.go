package vectors

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ideogrid/internal/model"
)

func TestParseVectors(t *testing.T) {
	src := `macro,category,axis1_name,axis1_code,axis1_score,axis2_name,axis2_code,axis2_score,extra
RL,Minarchism,Markets,RL-MKT,60,Tradition,RL-TRD,0,x
rl,Agorism,Markets,RL-MKT,95,,,,
ZZ,Nowhere,Markets,ZZ-MKT,1,,,,
RL,,Markets,RL-MKT,1,,,,
RL,Broken,Markets,RL-MKT,high,,,,
RL,Undefined,Markets,RL-MKT,NaN,,,,
RL,Unbounded,Markets,RL-MKT,+Inf,,,,
`
	core, logs := observer.New(zapcore.WarnLevel)
	vs, err := ParseVectors("test", strings.NewReader(src), zap.New(core))
	require.NoError(t, err)
	require.Len(t, vs, 2)

	assert.Equal(t, model.MacroRightLib, vs[0].Macro)
	assert.Equal(t, "Minarchism", vs[0].Label)
	assert.Equal(t, []model.AxisRef{
		{Name: "Markets", Code: "RL-MKT", Score: 60},
		{Name: "Tradition", Code: "RL-TRD", Score: 0},
	}, vs[0].Axes)
	assert.Len(t, vs[1].Axes, 1)
	assert.Equal(t, 5, logs.FilterMessage("vector row skipped").Len())
}

func TestParseVectors_Unreadable(t *testing.T) {
	_, err := ParseVectors("test", strings.NewReader(""), nil)
	assert.ErrorIs(t, err, ErrSource)
}

func TestParseGrid(t *testing.T) {
	src := `macro,macro_label,range,category,description,aligns_with,surprising
CM,,-33..33,Centrism,Middle ground.,Social Liberalism | Third Way,
XX,Bad,,Bad,,,
`
	cells, err := ParseGrid("test", model.SchemeFine, strings.NewReader(src), nil)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	c := cells[0]
	assert.Equal(t, model.SchemeFine, c.Scheme)
	assert.Equal(t, "Centrist", c.MacroLabel)
	assert.Equal(t, []string{"Social Liberalism", "Third Way"}, c.AlignsWith)
	assert.Nil(t, c.Surprising)
}

func TestStore_Embedded(t *testing.T) {
	s := NewStore(DefaultSources(), nil)
	ctx := context.Background()

	all, err := s.Vectors(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 27)

	for _, code := range model.MacroCodes {
		vs, err := s.VectorsFor(ctx, code)
		require.NoError(t, err)
		assert.Len(t, vs, 3, code)
		for _, v := range vs {
			assert.NotEmpty(t, v.Axes)
			for _, a := range v.Axes {
				assert.True(t, strings.HasPrefix(a.Code, string(code)+"-"), a.Code)
			}
		}
	}

	coarse, err := s.Grid(ctx, model.SchemeCoarse)
	require.NoError(t, err)
	assert.Len(t, coarse, 9)
	fine, err := s.Grid(ctx, model.SchemeFine)
	require.NoError(t, err)
	assert.Len(t, fine, 27)

	for _, v := range all {
		_, ok, err := s.Cell(ctx, model.SchemeFine, v.Macro, v.Label)
		require.NoError(t, err)
		assert.True(t, ok, "no fine cell for %s", v.Label)
	}

	cell, ok, err := s.Cell(ctx, model.SchemeCoarse, model.MacroRightLib, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Libertarian Right", cell.MacroLabel)

	_, ok, err = s.Cell(ctx, model.SchemeFine, model.MacroRightLib, "Nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Grid(ctx, "hex")
	assert.Error(t, err)
}

type flakySource struct {
	opens atomic.Int32
	fail  atomic.Bool
	body  string
}

func (s *flakySource) Open(context.Context) (io.ReadCloser, error) {
	s.opens.Add(1)
	if s.fail.Load() {
		return nil, errors.New("unreachable")
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func (s *flakySource) Name() string { return "flaky" }

func TestStore_LoadsOnceAndRetriesFailures(t *testing.T) {
	src := &flakySource{body: "macro,category,axis1_code,axis1_score\nCM,Centrism,CM-MKT,0\n"}
	src.fail.Store(true)
	def := DefaultSources()
	s := NewStore(Sources{Vectors: src, Coarse: def.Coarse, Fine: def.Fine}, nil)

	_, err := s.Vectors(context.Background())
	require.ErrorIs(t, err, ErrSource)

	src.fail.Store(false)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vs, err := s.Vectors(context.Background())
			assert.NoError(t, err)
			assert.Len(t, vs, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), src.opens.Load())
}
