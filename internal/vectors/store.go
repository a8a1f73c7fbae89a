package vectors

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ideogrid/internal/model"
	"ideogrid/internal/refdata"
)

// Sources names the three reference tables
type Sources struct {
	Vectors refdata.Source
	Coarse  refdata.Source
	Fine    refdata.Source
}

// DefaultSources are the tables embedded in the binary
func DefaultSources() Sources {
	return Sources{
		Vectors: refdata.EmbedSource{File: "vectors.csv"},
		Coarse:  refdata.EmbedSource{File: "grid_coarse.csv"},
		Fine:    refdata.EmbedSource{File: "grid_fine.csv"},
	}
}

// Store caches the parsed vectors and grids. Each table is read at most once
// and concurrent first reads share one fetch.
type Store struct {
	vectors *refdata.Lazy[[]model.CategoryVector]
	grids   map[model.GridScheme]*refdata.Lazy[[]model.GridCell]
}

// NewStore creates a lazily loading store
func NewStore(src Sources, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		vectors: refdata.NewLazy(func(ctx context.Context) ([]model.CategoryVector, error) {
			rc, err := src.Vectors.Open(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrSource, src.Vectors.Name(), err)
			}
			defer rc.Close()
			return ParseVectors(src.Vectors.Name(), rc, logger)
		}),
		grids: map[model.GridScheme]*refdata.Lazy[[]model.GridCell]{
			model.SchemeCoarse: gridLoader(src.Coarse, model.SchemeCoarse, logger),
			model.SchemeFine:   gridLoader(src.Fine, model.SchemeFine, logger),
		},
	}
}

func gridLoader(src refdata.Source, scheme model.GridScheme, logger *zap.Logger) *refdata.Lazy[[]model.GridCell] {
	return refdata.NewLazy(func(ctx context.Context) ([]model.GridCell, error) {
		rc, err := src.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSource, src.Name(), err)
		}
		defer rc.Close()
		return ParseGrid(src.Name(), scheme, rc, logger)
	})
}

// Vectors returns every category vector in table order
func (s *Store) Vectors(ctx context.Context) ([]model.CategoryVector, error) {
	return s.vectors.Get(ctx)
}

// VectorsFor returns the vectors of one macro cell in table order
func (s *Store) VectorsFor(ctx context.Context, macro model.MacroCode) ([]model.CategoryVector, error) {
	all, err := s.Vectors(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.CategoryVector
	for _, v := range all {
		if v.Macro == macro {
			out = append(out, v)
		}
	}
	return out, nil
}

// Grid returns the cells of one grid scheme
func (s *Store) Grid(ctx context.Context, scheme model.GridScheme) ([]model.GridCell, error) {
	lazy, ok := s.grids[scheme]
	if !ok {
		return nil, fmt.Errorf("unknown grid scheme %q", scheme)
	}
	return lazy.Get(ctx)
}

// Cell finds the grid cell for a macro code and, on the fine grid, a
// category label. The coarse grid is keyed by macro code alone.
func (s *Store) Cell(ctx context.Context, scheme model.GridScheme, macro model.MacroCode, label string) (model.GridCell, bool, error) {
	cells, err := s.Grid(ctx, scheme)
	if err != nil {
		return model.GridCell{}, false, err
	}
	for _, c := range cells {
		if c.Macro != macro {
			continue
		}
		if scheme == model.SchemeCoarse || c.Label == label {
			return c, true, nil
		}
	}
	return model.GridCell{}, false, nil
}
