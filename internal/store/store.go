// Package store persists the statements held by the reference semantic
// store. Statements are grouped in named graphs: one per project plus
// UsersGraph for user descriptions.
package store

import (
	"context"

	"quadsync/internal/rdf"
)

const UsersGraph = "_users"

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	AddQuads(ctx context.Context, graph string, quads []rdf.Quad) (int64, error)
	RemoveQuads(ctx context.Context, graph string, quads []rdf.Quad) (int64, error)
	// ReplaceSubject drops every statement about subject in graph before adding quads.
	ReplaceSubject(ctx context.Context, graph string, subject rdf.Term, quads []rdf.Quad) error
	RemoveGraph(ctx context.Context, graph string) (int64, error)

	GraphQuads(ctx context.Context, graph string) ([]rdf.Quad, error)
	// SubjectQuads returns the statements about subject across all graphs.
	SubjectQuads(ctx context.Context, subject rdf.Term) ([]rdf.Quad, error)
	ListGraphs(ctx context.Context) ([]GraphSummary, error)
	Search(ctx context.Context, query, graph string) ([]SearchResult, error)

	SeedHashes(ctx context.Context, graph string) (map[string]string, error)
	RecordSeedHash(ctx context.Context, graph, path, hash string) error

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
