package catalog

import (
	"context"

	"go.uber.org/zap"

	"ideogrid/internal/refdata"
)

// Loader loads the catalog from a source at most once per process
type Loader struct {
	source refdata.Source
	lazy   *refdata.Lazy[*Catalog]
}

// NewLoader creates a cached catalog loader
func NewLoader(source refdata.Source, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{source: source}
	l.lazy = refdata.NewLazy(func(ctx context.Context) (*Catalog, error) {
		rc, err := source.Open(ctx)
		if err != nil {
			return nil, &ParseError{Source: source.Name(), Err: err}
		}
		defer rc.Close()
		return Parse(source.Name(), rc, logger)
	})
	return l
}

// Load returns the cached catalog, fetching it on first use
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	return l.lazy.Get(ctx)
}

// Source returns the configured source
func (l *Loader) Source() refdata.Source {
	return l.source
}
