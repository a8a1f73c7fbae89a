// Package refdata provides access to the tabular reference sources (question
// catalog, category grids, category vectors) and a deduplicating lazy loader
// for the values parsed from them.
package refdata

import (
	"context"
	"embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

//go:embed data/*.csv
var embedded embed.FS

// Source is a readable tabular data source
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// FileSource reads a CSV file from disk
type FileSource struct {
	Path string
}

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(s.Path)
}

func (s FileSource) Name() string { return "file:" + s.Path }

// EmbedSource reads one of the CSV files shipped with the binary
type EmbedSource struct {
	File string // e.g. "questions.csv"
}

func (s EmbedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return embedded.Open("data/" + s.File)
}

func (s EmbedSource) Name() string { return "embedded:" + s.File }

// URLSource fetches a published CSV export over HTTP
type URLSource struct {
	URL    string
	Client *http.Client
}

// NewURLSource creates a URL source with a bounded client timeout
func NewURLSource(url string, timeout time.Duration) URLSource {
	return URLSource{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", s.URL, resp.StatusCode)
	}
	return resp.Body, nil
}

func (s URLSource) Name() string { return "url:" + s.URL }

// Resolve picks a source for a configured location: http(s) URLs become
// URLSource, "embedded:<file>" or an empty location fall back to the
// embedded default, anything else is a file path.
func Resolve(location, defaultFile string, timeout time.Duration) Source {
	switch {
	case location == "":
		return EmbedSource{File: defaultFile}
	case strings.HasPrefix(location, "embedded:"):
		return EmbedSource{File: strings.TrimPrefix(location, "embedded:")}
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewURLSource(location, timeout)
	default:
		return FileSource{Path: location}
	}
}
