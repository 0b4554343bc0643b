package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"quadsync/internal/databroker"
	"quadsync/internal/rdf"
	"quadsync/internal/resource"
)

type GetResourceInput struct {
	URI string `json:"uri" jsonschema:"resource URI or prefixed name"`
}

type ResolveResourceInput struct {
	URI   string   `json:"uri" jsonschema:"resource URI or prefixed name"`
	Force bool     `json:"force,omitempty" jsonschema:"refetch URLs that were already requested"`
	URLs  []string `json:"urls,omitempty" jsonschema:"extra URLs to fetch before describers"`
}

type PropertyInput struct {
	Predicate string `json:"predicate" jsonschema:"predicate IRI or prefixed name"`
	Value     string `json:"value" jsonschema:"IRI, prefixed name or literal text"`
	Kind      string `json:"kind,omitempty" jsonschema:"iri or literal (default literal)"`
	Lang      string `json:"lang,omitempty" jsonschema:"language tag for literals"`
	Datatype  string `json:"datatype,omitempty" jsonschema:"datatype IRI for literals"`
}

type CreateResourceInput struct {
	URI        string          `json:"uri,omitempty" jsonschema:"resource URI; a urn:uuid is minted when empty"`
	Types      []string        `json:"types" jsonschema:"rdf:type values"`
	Properties []PropertyInput `json:"properties,omitempty" jsonschema:"initial statements"`
}

type SetPropertyInput struct {
	URI       string `json:"uri" jsonschema:"resource URI or prefixed name"`
	Predicate string `json:"predicate" jsonschema:"predicate IRI or prefixed name"`
	Value     string `json:"value" jsonschema:"IRI, prefixed name or literal text"`
	Kind      string `json:"kind,omitempty" jsonschema:"iri or literal (default literal)"`
	Lang      string `json:"lang,omitempty" jsonschema:"language tag for literals"`
	Datatype  string `json:"datatype,omitempty" jsonschema:"datatype IRI for literals"`
	Replace   bool   `json:"replace,omitempty" jsonschema:"replace every existing value of the predicate"`
}

type DeletePropertyInput struct {
	URI       string `json:"uri" jsonschema:"resource URI or prefixed name"`
	Predicate string `json:"predicate" jsonschema:"predicate IRI or prefixed name"`
	Value     string `json:"value,omitempty" jsonschema:"value to remove; every value when empty"`
	Kind      string `json:"kind,omitempty" jsonschema:"iri or literal (default literal)"`
	Lang      string `json:"lang,omitempty"`
	Datatype  string `json:"datatype,omitempty"`
}

type DeleteResourceInput struct {
	URI string `json:"uri" jsonschema:"resource URI or prefixed name"`
}

type EmptyInput struct{}

type DumpInput struct {
	Format string `json:"format,omitempty" jsonschema:"turtle or nquads (default from config)"`
}

type StatementOutput struct {
	Predicate string `json:"predicate"`
	Value     string `json:"value"`
	Kind      string `json:"kind"`
	Lang      string `json:"lang,omitempty"`
	Datatype  string `json:"datatype,omitempty"`
}

type ResourceOutput struct {
	URI        string            `json:"uri"`
	Title      string            `json:"title,omitempty"`
	Types      []string          `json:"types"`
	Statements []StatementOutput `json:"statements"`
}

type ResolveResourceOutput struct {
	State    string         `json:"state"`
	Resource ResourceOutput `json:"resource"`
}

type StatusOutput struct {
	HasUnsavedChanges bool `json:"has_unsaved_changes"`
	HasSyncErrors     bool `json:"has_sync_errors"`
}

type SyncOutput struct {
	Sent              int    `json:"sent"`
	Rejected          int    `json:"rejected"`
	Failed            int    `json:"failed"`
	Purged            int    `json:"purged"`
	Error             string `json:"error,omitempty"`
	HasUnsavedChanges bool   `json:"has_unsaved_changes"`
	HasSyncErrors     bool   `json:"has_sync_errors"`
}

type UUIDOutput struct {
	URI string `json:"uri"`
}

type DumpOutput struct {
	Data string `json:"data"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_resource",
		Description: "Show what is currently known about a resource without fetching",
	}, s.handleGetResource)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "resolve_resource",
		Description: "Fetch a resource from its describers or guessed URLs and show it",
	}, s.handleResolveResource)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "create_resource",
		Description: "Create a new local resource with types and initial statements",
	}, s.handleCreateResource)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "set_property",
		Description: "Add a statement to a resource, optionally replacing existing values",
	}, s.handleSetProperty)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "delete_property",
		Description: "Remove one or every value of a predicate from a resource",
	}, s.handleDeleteProperty)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "delete_resource",
		Description: "Delete a resource locally and queue the deletion for sync",
	}, s.handleDeleteResource)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "sync_now",
		Description: "Push pending changes to the semantic store immediately",
	}, s.handleSyncNow)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "sync_status",
		Description: "Report unsaved changes and sync errors",
	}, s.handleSyncStatus)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "create_uuid",
		Description: "Mint a urn:uuid unused by any known resource",
	}, s.handleCreateUUID)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "dump_store",
		Description: "Serialize every statement the client knows",
	}, s.handleDump)
}

func (s *Server) handleGetResource(ctx context.Context, req *sdk.CallToolRequest, input GetResourceInput) (*sdk.CallToolResult, ResourceOutput, error) {
	if input.URI == "" {
		return nil, ResourceOutput{}, fmt.Errorf("uri is required")
	}
	return nil, resourceOutput(s.client.GetResource(input.URI)), nil
}

func (s *Server) handleResolveResource(ctx context.Context, req *sdk.CallToolRequest, input ResolveResourceInput) (*sdk.CallToolResult, ResolveResourceOutput, error) {
	if input.URI == "" {
		return nil, ResolveResourceOutput{}, fmt.Errorf("uri is required")
	}
	var opts []databroker.DeferredOption
	if input.Force {
		opts = append(opts, databroker.WithForce())
	}
	if len(input.URLs) > 0 {
		opts = append(opts, databroker.WithURLs(input.URLs...))
	}
	d := s.client.GetDeferredResource(ctx, input.URI, opts...)
	res, err := d.Wait(ctx)
	if err != nil {
		return nil, ResolveResourceOutput{}, fmt.Errorf("resolving %s: %w", input.URI, err)
	}
	return nil, ResolveResourceOutput{State: d.State().String(), Resource: resourceOutput(res)}, nil
}

func (s *Server) handleCreateResource(ctx context.Context, req *sdk.CallToolRequest, input CreateResourceInput) (*sdk.CallToolResult, ResourceOutput, error) {
	if len(input.Types) == 0 {
		return nil, ResourceOutput{}, fmt.Errorf("at least one type is required")
	}
	statements := make([][2]rdf.Term, 0, len(input.Properties))
	for _, p := range input.Properties {
		pred, obj, err := s.statement(p)
		if err != nil {
			return nil, ResourceOutput{}, err
		}
		statements = append(statements, [2]rdf.Term{pred, obj})
	}

	res, err := s.client.CreateResource(input.URI, input.Types...)
	if err != nil {
		return nil, ResourceOutput{}, err
	}
	for _, st := range statements {
		res.AddProperty(st[0], st[1])
	}
	return nil, resourceOutput(res), nil
}

func (s *Server) handleSetProperty(ctx context.Context, req *sdk.CallToolRequest, input SetPropertyInput) (*sdk.CallToolResult, ResourceOutput, error) {
	if input.URI == "" {
		return nil, ResourceOutput{}, fmt.Errorf("uri is required")
	}
	pred, obj, err := s.statement(PropertyInput{
		Predicate: input.Predicate,
		Value:     input.Value,
		Kind:      input.Kind,
		Lang:      input.Lang,
		Datatype:  input.Datatype,
	})
	if err != nil {
		return nil, ResourceOutput{}, err
	}
	res := s.client.GetResource(input.URI)
	if input.Replace {
		res.SetProperty(pred, obj)
	} else {
		res.AddProperty(pred, obj)
	}
	return nil, resourceOutput(res), nil
}

func (s *Server) handleDeleteProperty(ctx context.Context, req *sdk.CallToolRequest, input DeletePropertyInput) (*sdk.CallToolResult, ResourceOutput, error) {
	if input.URI == "" || input.Predicate == "" {
		return nil, ResourceOutput{}, fmt.Errorf("uri and predicate are required")
	}
	pred := s.client.Term(input.Predicate)
	var obj rdf.Term
	if input.Value != "" {
		var err error
		obj, err = s.value(PropertyInput{Value: input.Value, Kind: input.Kind, Lang: input.Lang, Datatype: input.Datatype})
		if err != nil {
			return nil, ResourceOutput{}, err
		}
	}
	res := s.client.GetResource(input.URI)
	res.DeleteProperty(pred, obj)
	return nil, resourceOutput(res), nil
}

func (s *Server) handleDeleteResource(ctx context.Context, req *sdk.CallToolRequest, input DeleteResourceInput) (*sdk.CallToolResult, StatusOutput, error) {
	if input.URI == "" {
		return nil, StatusOutput{}, fmt.Errorf("uri is required")
	}
	s.client.DeleteResource(input.URI)
	return nil, s.status(), nil
}

func (s *Server) handleSyncNow(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, SyncOutput, error) {
	report, err := s.client.Sync(ctx)
	out := SyncOutput{
		Sent:              report.Sent,
		Rejected:          report.Rejected,
		Failed:            report.Failed,
		Purged:            report.Purged,
		HasUnsavedChanges: s.client.HasUnsavedChanges(),
		HasSyncErrors:     s.client.HasSyncErrors(),
	}
	if err != nil {
		out.Error = err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleSyncStatus(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, StatusOutput, error) {
	return nil, s.status(), nil
}

func (s *Server) handleCreateUUID(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, UUIDOutput, error) {
	return nil, UUIDOutput{URI: s.client.CreateUUID()}, nil
}

func (s *Server) handleDump(ctx context.Context, req *sdk.CallToolRequest, input DumpInput) (*sdk.CallToolResult, DumpOutput, error) {
	data, err := s.client.Dump(input.Format)
	if err != nil {
		return nil, DumpOutput{}, err
	}
	return nil, DumpOutput{Data: string(data)}, nil
}

func (s *Server) status() StatusOutput {
	return StatusOutput{
		HasUnsavedChanges: s.client.HasUnsavedChanges(),
		HasSyncErrors:     s.client.HasSyncErrors(),
	}
}

func (s *Server) statement(in PropertyInput) (rdf.Term, rdf.Term, error) {
	if in.Predicate == "" {
		return rdf.Term{}, rdf.Term{}, fmt.Errorf("predicate is required")
	}
	obj, err := s.value(in)
	if err != nil {
		return rdf.Term{}, rdf.Term{}, err
	}
	return s.client.Term(in.Predicate), obj, nil
}

// value builds the object term; Predicate is ignored.
func (s *Server) value(in PropertyInput) (rdf.Term, error) {
	switch strings.ToLower(in.Kind) {
	case "iri", "uri":
		if in.Value == "" {
			return rdf.Term{}, fmt.Errorf("iri value is required")
		}
		return s.client.Term(in.Value), nil
	case "", "literal":
		switch {
		case in.Lang != "":
			return rdf.LangLiteral(in.Value, in.Lang), nil
		case in.Datatype != "":
			return rdf.TypedLiteral(in.Value, s.client.Term(in.Datatype).Value), nil
		default:
			return rdf.Literal(in.Value), nil
		}
	default:
		return rdf.Term{}, fmt.Errorf("unknown value kind %q", in.Kind)
	}
}

func resourceOutput(res *resource.Resource) ResourceOutput {
	out := ResourceOutput{
		URI:        res.URI(),
		Title:      res.Title(),
		Types:      []string{},
		Statements: []StatementOutput{},
	}
	for _, t := range res.Types() {
		out.Types = append(out.Types, t.URI())
	}
	sort.Strings(out.Types)
	for _, q := range res.Quads() {
		out.Statements = append(out.Statements, StatementOutput{
			Predicate: q.Predicate.URI(),
			Value:     q.Object.URI(),
			Kind:      q.Object.Kind.String(),
			Lang:      q.Object.Lang,
			Datatype:  q.Object.Datatype,
		})
	}
	sort.Slice(out.Statements, func(i, j int) bool {
		a, b := out.Statements[i], out.Statements[j]
		if a.Predicate != b.Predicate {
			return a.Predicate < b.Predicate
		}
		return a.Value < b.Value
	})
	return out
}
