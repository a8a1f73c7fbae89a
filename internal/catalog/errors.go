package catalog

import (
	"errors"
	"fmt"
)

// ErrCatalogParse marks a catalog source that cannot be used at all
var ErrCatalogParse = errors.New("catalog parse error")

// ParseError reports an unreadable, empty or unusable catalog source
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrCatalogParse, e.Err}
}

// RowError describes one malformed row that was dropped
type RowError struct {
	Line   int
	ID     string
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d (id %q): %s", e.Line, e.ID, e.Reason)
}
