// Package mcp exposes a project client to MCP collaborators over the
// resource, mutation and sync operations.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"quadsync/internal/databroker"
	"quadsync/internal/rdf"
	"quadsync/internal/resource"
	"quadsync/internal/syncservice"
)

// Collaborator is the subset of client.Client the tools drive.
type Collaborator interface {
	GetResource(uri string) *resource.Resource
	GetDeferredResource(ctx context.Context, uri string, opts ...databroker.DeferredOption) *databroker.Deferred
	CreateResource(uri string, types ...string) (*resource.Resource, error)
	DeleteResource(uri string)
	Sync(ctx context.Context) (syncservice.Report, error)
	HasUnsavedChanges() bool
	HasSyncErrors() bool
	CreateUUID() string
	Term(value string) rdf.Term
	Dump(format string) ([]byte, error)
}

type Server struct {
	client Collaborator
	mcp    *sdk.Server
}

func NewServer(client Collaborator, version string) *Server {
	s := &Server{
		client: client,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "quadsync",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
