package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"quadsync/internal/client"
	"quadsync/internal/config"
	"quadsync/internal/rdf"
)

func newTestServer(t *testing.T, host string) (*Server, *client.Client) {
	t.Helper()
	cfg := config.Default("demo", host)
	cfg.Namespaces = map[string]string{"ex": "http://example.org/ns#"}
	c, err := client.New(cfg, nil)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return NewServer(c, "test"), c
}

func TestGetResource_RequiresURI(t *testing.T) {
	server, _ := newTestServer(t, "example.invalid")

	_, _, err := server.handleGetResource(context.Background(), nil, GetResourceInput{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestCreateAndEditResource(t *testing.T) {
	server, c := newTestServer(t, "example.invalid")
	ctx := context.Background()

	_, created, err := server.handleCreateResource(ctx, nil, CreateResourceInput{
		URI:   "ex:text1",
		Types: []string{"dctypes:Text"},
		Properties: []PropertyInput{
			{Predicate: "dc:title", Value: "Draft"},
			{Predicate: "rdfs:seeAlso", Value: "ex:other", Kind: "iri"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.URI != "http://example.org/ns#text1" || created.Title != "Draft" {
		t.Fatalf("unexpected create output: %+v", created)
	}
	if len(created.Types) != 1 || created.Types[0] != rdf.NSDCTypes+"Text" {
		t.Fatalf("unexpected types: %v", created.Types)
	}
	if !c.HasUnsavedChanges() {
		t.Fatalf("create left no unsaved changes")
	}

	t.Run("replace", func(t *testing.T) {
		_, out, err := server.handleSetProperty(ctx, nil, SetPropertyInput{
			URI:       "ex:text1",
			Predicate: "dc:title",
			Value:     "Final",
			Lang:      "EN",
			Replace:   true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var titles []StatementOutput
		for _, st := range out.Statements {
			if st.Predicate == rdf.DCTitle.URI() {
				titles = append(titles, st)
			}
		}
		if len(titles) != 1 || titles[0].Value != "Final" || titles[0].Lang != "en" {
			t.Fatalf("unexpected titles: %+v", titles)
		}
	})

	t.Run("delete every value", func(t *testing.T) {
		_, out, err := server.handleDeleteProperty(ctx, nil, DeletePropertyInput{URI: "ex:text1", Predicate: "rdfs:seeAlso"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, st := range out.Statements {
			if st.Predicate == rdf.NSRDFS+"seeAlso" {
				t.Fatalf("seeAlso survived: %+v", out.Statements)
			}
		}
	})

	t.Run("bad kind", func(t *testing.T) {
		_, _, err := server.handleSetProperty(ctx, nil, SetPropertyInput{
			URI:       "ex:text1",
			Predicate: "dc:title",
			Value:     "x",
			Kind:      "number",
		})
		if err == nil {
			t.Fatalf("expected error for unknown kind")
		}
	})

	t.Run("dump", func(t *testing.T) {
		_, out, err := server.handleDump(ctx, nil, DumpInput{Format: "application/n-quads"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.Data, "<http://example.org/ns#text1>") {
			t.Fatalf("dump misses the resource: %s", out.Data)
		}
	})

	t.Run("delete resource", func(t *testing.T) {
		_, status, err := server.handleDeleteResource(ctx, nil, DeleteResourceInput{URI: "ex:text1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.HasUnsavedChanges {
			t.Fatalf("deleting a never-synced resource should leave nothing to sync")
		}
	})
}

func TestCreateResource_RequiresTypes(t *testing.T) {
	server, _ := newTestServer(t, "example.invalid")

	_, _, err := server.handleCreateResource(context.Background(), nil, CreateResourceInput{URI: "ex:a"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestSyncNow(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	server, _ := newTestServer(t, strings.TrimPrefix(srv.URL, "http://"))
	ctx := context.Background()

	_, uuid, err := server.handleCreateUUID(ctx, nil, EmptyInput{})
	if err != nil || !strings.HasPrefix(uuid.URI, "urn:uuid:") {
		t.Fatalf("unexpected uuid output: %+v, %v", uuid, err)
	}
	if _, _, err := server.handleCreateResource(ctx, nil, CreateResourceInput{URI: uuid.URI, Types: []string{"dctypes:Text"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, out, err := server.handleSyncNow(ctx, nil, EmptyInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Error != "" || out.HasUnsavedChanges || out.HasSyncErrors {
		t.Fatalf("unexpected sync output: %+v", out)
	}
	if posts.Load() != 1 {
		t.Fatalf("posts = %d, want 1", posts.Load())
	}
}

func TestResolveResource(t *testing.T) {
	var uri string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/doc" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/turtle")
		w.Write([]byte(`<` + uri + `> <http://purl.org/dc/elements/1.1/title> "Folio 1r" .`))
	}))
	defer srv.Close()
	uri = srv.URL + "/doc"

	server, _ := newTestServer(t, "example.invalid")
	_, out, err := server.handleResolveResource(context.Background(), nil, ResolveResourceInput{URI: uri})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.State != "resolved" || out.Resource.Title != "Folio 1r" {
		t.Fatalf("unexpected resolve output: %+v", out)
	}
}
