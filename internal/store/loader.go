package store

import (
	"context"
	"fmt"

	"quadsync/internal/format"
)

// Loader feeds parsed documents into one graph of a Store and records seed
// file hashes there.
type Loader struct {
	Store   Store
	Graph   string
	Formats *format.Registry
}

func (l *Loader) Ingest(ctx context.Context, doc format.Document) (int, error) {
	quads, err := l.Formats.ParseAll(ctx, doc)
	if err != nil {
		return 0, err
	}
	n, err := l.Store.AddQuads(ctx, l.Graph, quads)
	if err != nil {
		return 0, fmt.Errorf("storing quads: %w", err)
	}
	return int(n), nil
}

func (l *Loader) SeedHashes(ctx context.Context) (map[string]string, error) {
	return l.Store.SeedHashes(ctx, l.Graph)
}

func (l *Loader) RecordSeedHash(ctx context.Context, path, hash string) error {
	return l.Store.RecordSeedHash(ctx, l.Graph, path, hash)
}
