package ingest

import (
	"context"

	"quadsync/internal/format"
)

// Target receives parsed seed documents. The data broker and the reference
// store loader both satisfy it.
type Target interface {
	Ingest(ctx context.Context, doc format.Document) (int, error)
}

// HashStore remembers the content hash of every loaded file so unchanged
// files can be skipped on the next run.
type HashStore interface {
	SeedHashes(ctx context.Context) (map[string]string, error)
	RecordSeedHash(ctx context.Context, path, hash string) error
}
