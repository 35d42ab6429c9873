package storage

import (
	"context"
	"io"
)

// Store is a path-addressable byte store for uploaded and generated PDFs.
// Paths are relative, namespaced per candidate by externalId
// (e.g. "uploads/D-2026-042/annexe.pdf").
type Store interface {
	Save(ctx context.Context, path string, r io.Reader) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
	// Abs resolves a stored path to an absolute filesystem path, for
	// collaborators that read files directly (the PDF merger).
	Abs(path string) string
}
