package catalog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/spektr-org/catalogdash/lookup"
)

// Source hands out the catalog to render against.
type Source interface {
	Catalog(ctx context.Context) (*Catalog, error)
}

// Static serves one catalog loaded up front.
type Static struct {
	cat *Catalog
}

// NewStatic wraps an already loaded catalog.
func NewStatic(cat *Catalog) *Static {
	return &Static{cat: cat}
}

// Catalog returns the wrapped catalog.
func (s *Static) Catalog(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.cat, nil
}

// FileSource re-reads the CSV on every call, so edits to the file show up
// on the next request.
type FileSource struct {
	Path   string
	Tables *lookup.Tables
	Logger zerolog.Logger
}

// Catalog loads the file.
func (s *FileSource) Catalog(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.Path, s.Tables, s.Logger)
}
