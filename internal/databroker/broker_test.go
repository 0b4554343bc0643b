package databroker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quadsync/internal/format"
	"quadsync/internal/quadstore"
	"quadsync/internal/rdf"
	"quadsync/internal/resource"
)

type docServer struct {
	*httptest.Server
	mu    sync.Mutex
	docs  map[string]string
	types map[string]string
	hits  map[string]int
	gate  chan struct{}
}

func newDocServer(t *testing.T) *docServer {
	t.Helper()
	s := &docServer{docs: map[string]string{}, types: map[string]string{}, hits: map[string]int{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		body, ok := s.docs[r.URL.Path]
		ct := s.types[r.URL.Path]
		gate := s.gate
		s.mu.Unlock()
		if gate != nil {
			<-gate
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if ct == "" {
			ct = "text/turtle"
		}
		w.Header().Set("Content-Type", ct)
		w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *docServer) serve(path, body string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = body
	return s.URL + path
}

func (s *docServer) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func newTestBroker() *Broker {
	return New(Options{
		User: "http://example.org/users/tester",
		Now:  func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func TestDeferredResolvesFetchedResource(t *testing.T) {
	srv := newDocServer(t)
	uri := srv.URL + "/a"
	srv.serve("/a", `<`+uri+`> <http://purl.org/dc/elements/1.1/title> "Foo" .`)

	b := newTestBroker()
	d := b.GetDeferredResource(context.Background(), uri)
	res, err := d.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if d.State() != StateResolved {
		t.Fatalf("state = %s", d.State())
	}
	if got := res.GetOneProperty(rdf.DCTitle); got != "Foo" {
		t.Fatalf("title = %q, want Foo", got)
	}
	if !b.WasReceived(uri) || !b.HasFailed(uri+".xml") {
		t.Fatal("url tracking sets not updated")
	}
}

func TestFetchDeduplicatesConcurrentRequests(t *testing.T) {
	srv := newDocServer(t)
	url := srv.serve("/doc", `<http://x/a> <http://x/p> "v" .`)
	gate := make(chan struct{})
	srv.mu.Lock()
	srv.gate = gate
	srv.mu.Unlock()

	b := newTestBroker()
	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- b.FetchRDF(context.Background(), url, false)
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("FetchRDF: %v", err)
		}
	}
	if n := srv.hitCount("/doc"); n != 1 {
		t.Fatalf("server hit %d times, want 1", n)
	}

	if err := b.FetchRDF(context.Background(), url, true); err != nil {
		t.Fatalf("forced FetchRDF: %v", err)
	}
	if n := srv.hitCount("/doc"); n != 2 {
		t.Fatalf("forced fetch should hit the server again, got %d hits", n)
	}
}

func TestFetchFailures(t *testing.T) {
	srv := newDocServer(t)
	b := newTestBroker()

	t.Run("not found", func(t *testing.T) {
		err := b.FetchRDF(context.Background(), srv.URL+"/missing", false)
		var fe *FetchError
		if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
			t.Fatalf("err = %v, want FetchError 404", err)
		}
		if !errors.Is(err, ErrNetwork) {
			t.Fatal("fetch error should match ErrNetwork")
		}
		if !b.HasFailed(srv.URL + "/missing") {
			t.Fatal("url not marked failed")
		}
	})

	t.Run("unparseable", func(t *testing.T) {
		url := srv.serve("/garbage", "{{{ not rdf")
		err := b.FetchRDF(context.Background(), url, false)
		if !errors.Is(err, format.ErrParse) {
			t.Fatalf("err = %v, want ErrParse", err)
		}
		if !b.HasFailed(url) {
			t.Fatal("url not marked failed")
		}
	})

	t.Run("no content", func(t *testing.T) {
		url := srv.serve("/empty", "")
		if err := b.FetchRDF(context.Background(), url, false); err != nil {
			t.Fatalf("FetchRDF: %v", err)
		}
		if !b.WasReceived(url) {
			t.Fatal("204 response should count as received")
		}
	})
}

func TestBlankNodeIsolation(t *testing.T) {
	b := newTestBroker()
	ctx := context.Background()
	for _, title := range []string{"first", "second"} {
		doc := format.Document{Data: []byte(`_:b0 <http://purl.org/dc/elements/1.1/title> "` + title + `" .`), ContentType: "text/turtle"}
		if _, err := b.Ingest(ctx, doc); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}
	subjects := quadstore.Subjects(b.Store(), rdf.Term{}, rdf.DCTitle, rdf.Term{}, rdf.Term{})
	if len(subjects) != 2 {
		t.Fatalf("expected two distinct blank subjects, got %v", subjects)
	}
	if subjects[0] == subjects[1] || !subjects[0].IsBlank() || !subjects[1].IsBlank() {
		t.Fatalf("blank nodes merged: %v", subjects)
	}
}

func TestBlankNodesShareLabelWithinDocument(t *testing.T) {
	b := newTestBroker()
	doc := format.Document{Data: []byte(`
_:x <http://purl.org/dc/elements/1.1/title> "t" .
<http://x/a> <http://x/p> _:x .`), ContentType: "text/turtle"}
	if _, err := b.Ingest(context.Background(), doc); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	objects := quadstore.Objects(b.Store(), rdf.IRI("http://x/a"), rdf.IRI("http://x/p"), rdf.Term{}, rdf.Term{})
	if len(objects) != 1 || b.Store().Count(objects[0], rdf.DCTitle, rdf.Term{}, rdf.Term{}) != 1 {
		t.Fatalf("label not mapped consistently within a document: %v", objects)
	}
}

func TestDeltaInvariant(t *testing.T) {
	b := newTestBroker()
	q := rdf.Triple(rdf.IRI("http://x/a"), rdf.DCTitle, rdf.Literal("Foo"))

	b.AddNewQuad(q)
	if !b.NewQuads().Contains(q) {
		t.Fatal("added quad not marked new")
	}
	b.DeleteQuad(q)
	if b.Store().Contains(q) {
		t.Fatal("quad still in main store")
	}
	if !b.DeletedQuads().Contains(q) {
		t.Fatal("quad not recorded as deleted")
	}
	if b.NewQuads().Contains(q) {
		t.Fatal("quad still pending as new")
	}
}

func TestAddExistingQuadIsNotNew(t *testing.T) {
	b := newTestBroker()
	doc := format.Document{Data: []byte(`<http://x/a> <http://x/p> "v" .`), ContentType: "text/turtle"}
	if _, err := b.Ingest(context.Background(), doc); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	b.AddNewQuad(rdf.Triple(rdf.IRI("http://x/a"), rdf.IRI("http://x/p"), rdf.Literal("v")))
	if b.NewQuads().Count(rdf.Term{}, rdf.Term{}, rdf.Term{}, rdf.Term{}) != 0 {
		t.Fatal("re-adding a known quad must not mark it new")
	}
}

func TestResurrectionGuard(t *testing.T) {
	b := newTestBroker()
	ctx := context.Background()
	doc := format.Document{Data: []byte(`<http://x/a> <http://purl.org/dc/elements/1.1/title> "Foo" .`), ContentType: "text/turtle"}
	if _, err := b.Ingest(ctx, doc); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	q := rdf.Triple(rdf.IRI("http://x/a"), rdf.DCTitle, rdf.Literal("Foo"))
	b.DeleteQuad(q)

	added, err := b.Ingest(ctx, doc)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if added != 0 || b.Store().Contains(q) {
		t.Fatal("locally deleted quad was resurrected")
	}
}

func TestCreateResource(t *testing.T) {
	b := newTestBroker()
	text := rdf.IRI(rdf.NSDCTypes + "Text")

	res, err := b.CreateResource("urn:uuid:1", text)
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if !res.HasType(text) {
		t.Fatal("type not stamped")
	}
	if res.GetOneProperty(rdf.DCCreator) != "http://example.org/users/tester" {
		t.Fatal("creator not stamped")
	}
	if res.GetOneProperty(rdf.DCCreated) != "2024-05-01T12:00:00Z" {
		t.Fatalf("created = %q", res.GetOneProperty(rdf.DCCreated))
	}
	if got := b.NewResourceURIs(); len(got) != 1 || got[0] != "urn:uuid:1" {
		t.Fatalf("NewResourceURIs = %v", got)
	}

	_, err = b.CreateResource("urn:uuid:1", text)
	if !errors.Is(err, ErrResourceExists) {
		t.Fatalf("second CreateResource err = %v, want ErrResourceExists", err)
	}
}

func TestDeleteResource(t *testing.T) {
	t.Run("unsynced local resource is forgotten", func(t *testing.T) {
		b := newTestBroker()
		if _, err := b.CreateResource("urn:uuid:2"); err != nil {
			t.Fatalf("CreateResource: %v", err)
		}
		b.DeleteResource("urn:uuid:2")
		if b.HasUnsavedChanges() {
			t.Fatalf("expected nothing to sync, new=%v deleted=%v", b.NewResourceURIs(), b.DeletedResourceURIs())
		}
	})

	t.Run("known resource is queued for deletion", func(t *testing.T) {
		b := newTestBroker()
		doc := format.Document{Data: []byte(`<http://x/a> <http://x/p> "v" .`), ContentType: "text/turtle"}
		if _, err := b.Ingest(context.Background(), doc); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
		b.DeleteResource("http://x/a")
		if got := b.DeletedResourceURIs(); len(got) != 1 || got[0] != "http://x/a" {
			t.Fatalf("DeletedResourceURIs = %v", got)
		}
		if b.HasResourceData("http://x/a") {
			t.Fatal("statements survived")
		}
		if len(b.ModifiedSubjects()) != 0 {
			t.Fatal("deleted resources are not modified resources")
		}
	})
}

func TestCreateUUID(t *testing.T) {
	b := newTestBroker()
	id := b.CreateUUID()
	if !strings.HasPrefix(id, "urn:uuid:") || b.KnowsAboutResource(id) {
		t.Fatalf("CreateUUID = %q", id)
	}
	if id == b.CreateUUID() {
		t.Fatal("uuids repeat")
	}
}

func TestEquivalenceAwareQueries(t *testing.T) {
	b := newTestBroker()
	doc := format.Document{Data: []byte(`
<http://x/a> <http://www.w3.org/2002/07/owl#sameAs> <http://y/a> .
<http://y/a> <http://purl.org/dc/elements/1.1/title> "Mirror" .
<http://x/anno> <http://www.w3.org/ns/oa#hasTarget> <http://y/a> .`), ContentType: "text/turtle"}
	if _, err := b.Ingest(context.Background(), doc); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if got := b.PropertiesForResource("http://x/a", rdf.DCTitle); len(got) != 1 || got[0].Value != "Mirror" {
		t.Fatalf("PropertiesForResource = %v", got)
	}
	if got := b.URIsWithProperty(rdf.OAHasTarget, rdf.IRI("http://x/a")); len(got) != 1 {
		t.Fatalf("URIsWithProperty = %v", got)
	}
	if !b.AreEquivalentURIs("http://y/a", "http://x/a") {
		t.Fatal("expected equivalence")
	}
	if !b.KnowsAboutResource("http://x/a") || !b.HasResourceData("http://x/a") {
		t.Fatal("expected data through equivalence")
	}
}

func TestURLsToRequest(t *testing.T) {
	ingest := func(t *testing.T, b *Broker, data string) {
		t.Helper()
		if _, err := b.Ingest(context.Background(), format.Document{Data: []byte(data), ContentType: "text/turtle"}); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	t.Run("describers win over guesses", func(t *testing.T) {
		b := newTestBroker()
		ingest(t, b, `<http://x/a> <http://www.openarchives.org/ore/terms/isDescribedBy> <http://x/a.ttl> .`)
		got := b.URLsToRequest("http://x/a", false, false)
		if len(got) != 1 || got[0] != "http://x/a.ttl" {
			t.Fatalf("URLsToRequest = %v", got)
		}
	})

	t.Run("reverse describes", func(t *testing.T) {
		b := newTestBroker()
		ingest(t, b, `<http://x/doc> <http://www.openarchives.org/ore/terms/describes> <http://x/a> .`)
		got := b.Describers("http://x/a")
		if len(got) != 1 || got[0] != "http://x/doc" {
			t.Fatalf("Describers = %v", got)
		}
		if got := b.ResourcesDescribedByURL("http://x/doc"); len(got) != 1 || got[0] != "http://x/a" {
			t.Fatalf("ResourcesDescribedByURL = %v", got)
		}
	})

	t.Run("guesses", func(t *testing.T) {
		b := newTestBroker()
		got := b.URLsToRequest("http://x/a", false, false)
		want := []string{"http://x/a", "http://x/a.xml", "http://x/a.rdf"}
		if strings.Join(got, " ") != strings.Join(want, " ") {
			t.Fatalf("URLsToRequest = %v, want %v", got, want)
		}
		if got := b.GuessResourceURLs("http://x/a.ttl"); len(got) != 1 {
			t.Fatalf("extension should suppress guesses: %v", got)
		}
		if got := b.GuessResourceURLs("http://x/dir/"); len(got) != 1 {
			t.Fatalf("trailing slash should suppress guesses: %v", got)
		}
	})

	t.Run("local uuids are never guessed", func(t *testing.T) {
		b := newTestBroker()
		if got := b.URLsToRequest("urn:uuid:abc", false, false); len(got) != 0 {
			t.Fatalf("URLsToRequest = %v", got)
		}
	})

	t.Run("no guesses", func(t *testing.T) {
		b := newTestBroker()
		if got := b.URLsToRequest("http://x/a", false, true); len(got) != 0 {
			t.Fatalf("URLsToRequest = %v", got)
		}
	})

	t.Run("canvas pulls in its lists and manifest aggregations", func(t *testing.T) {
		b := newTestBroker()
		ingest(t, b, `@prefix sc: <http://www.shared-canvas.org/ns/> .
@prefix ore: <http://www.openarchives.org/ore/terms/> .
<http://x/canvas> a sc:Canvas ; ore:isDescribedBy <http://x/canvas.ttl> .
<http://x/annos> sc:forCanvas <http://x/canvas> ; ore:isDescribedBy <http://x/annos.ttl> .
<http://x/manifest> a sc:Manifest ; ore:aggregates <http://x/seq> , <http://x/images> .
<http://x/seq> ore:aggregates <http://x/canvas> ; ore:isDescribedBy <http://x/seq.ttl> .
<http://x/images> ore:isDescribedBy <http://x/images.ttl> .`)
		got := b.URLsToRequest("http://x/canvas", false, false)
		sort.Strings(got)
		want := []string{"http://x/annos.ttl", "http://x/canvas.ttl", "http://x/images.ttl", "http://x/seq.ttl"}
		if strings.Join(got, " ") != strings.Join(want, " ") {
			t.Fatalf("URLsToRequest = %v, want %v", got, want)
		}
	})

	t.Run("failed and received guesses", func(t *testing.T) {
		srv := newDocServer(t)
		b := newTestBroker()
		uri := srv.URL + "/thing"
		srv.serve("/thing.rdf", `<`+uri+`> <http://x/p> "v" .`)

		if err := b.FetchRDF(context.Background(), uri, false); err == nil {
			t.Fatal("expected failure")
		}
		if err := b.FetchRDF(context.Background(), uri+".rdf", false); err != nil {
			t.Fatalf("FetchRDF: %v", err)
		}
		got := b.GuessResourceURLs(uri)
		if len(got) != 1 || got[0] != uri+".rdf" {
			t.Fatalf("received guess should win, got %v", got)
		}
		if got := b.URLsToRequest(uri, true, false); len(got) != 0 {
			t.Fatalf("forced request should skip received urls, got %v", got)
		}
	})
}

func TestDeferredRejectsWhenDescribersFail(t *testing.T) {
	srv := newDocServer(t)
	b := newTestBroker()
	doc := `<http://x/a> <http://www.openarchives.org/ore/terms/isDescribedBy> <` + srv.URL + `/missing1> , <` + srv.URL + `/missing2> .`
	if _, err := b.Ingest(context.Background(), format.Document{Data: []byte(doc), ContentType: "text/turtle"}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	var failed atomic.Bool
	d := b.GetDeferredResource(context.Background(), "http://x/a", WithFail(func(_ *resource.Resource, err error) {
		failed.Store(true)
	}))
	_, err := d.Wait(context.Background())
	if !errors.Is(err, ErrUnresolved) || !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrUnresolved wrapping ErrNetwork", err)
	}
	if d.State() != StateRejected || !failed.Load() {
		t.Fatalf("state = %s, fail listener called = %v", d.State(), failed.Load())
	}
}

func TestDeferredAbandonedOnCancel(t *testing.T) {
	srv := newDocServer(t)
	gate := make(chan struct{})
	srv.gate = gate
	t.Cleanup(func() { close(gate) })
	srv.serve("/slow", `<http://x/a> <http://x/p> "v" .`)
	b := newTestBroker()

	var called atomic.Bool
	ctx, cancel := context.WithCancel(context.Background())
	d := b.GetDeferredResource(ctx, srv.URL+"/slow",
		WithDone(func(*resource.Resource) { called.Store(true) }),
		WithFail(func(*resource.Resource, error) { called.Store(true) }),
	)
	cancel()

	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("abandoned resolution never finished")
	}
	if _, err := d.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait err = %v, want context.Canceled", err)
	}
	d.OnFail(func(*resource.Resource, error) { called.Store(true) })
	if called.Load() {
		t.Fatal("listener called for an abandoned resolution")
	}
}

func TestDeferredResolvesWithoutDescribers(t *testing.T) {
	srv := newDocServer(t)
	b := newTestBroker()
	d := b.GetDeferredResource(context.Background(), srv.URL+"/nothing")
	res, err := d.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if d.State() != StateResolved || len(res.Quads()) != 0 {
		t.Fatalf("state = %s, quads = %v", d.State(), res.Quads())
	}
}

func TestDeferredResolvesImmediatelyWithoutURLs(t *testing.T) {
	b := newTestBroker()
	var done atomic.Bool
	d := b.GetDeferredResource(context.Background(), "urn:uuid:local", WithDone(func(*resource.Resource) { done.Store(true) }))
	if _, err := d.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !done.Load() {
		t.Fatal("done listener not called")
	}

	late := false
	d.OnDone(func(*resource.Resource) { late = true })
	if !late {
		t.Fatal("OnDone after resolution should run immediately")
	}
}

func TestDeferredProgressOrdering(t *testing.T) {
	srv := newDocServer(t)
	b := newTestBroker()
	one := srv.serve("/one", `<http://x/a> <http://purl.org/dc/elements/1.1/title> "one" .`)
	two := srv.serve("/two", `<http://x/a> <http://purl.org/dc/elements/1.1/title> "two" .`)
	doc := `<http://x/a> <http://www.openarchives.org/ore/terms/isDescribedBy> <` + one + `> , <` + two + `> , <` + srv.URL + `/gone> .`
	if _, err := b.Ingest(context.Background(), format.Document{Data: []byte(doc), ContentType: "text/turtle"}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}
	d := b.GetDeferredResource(context.Background(), "http://x/a",
		WithProgress(func(*resource.Resource) { record("progress") }),
		WithDone(func(*resource.Resource) { record("done") }),
		WithFail(func(*resource.Resource, error) { record("fail") }),
	)
	res, err := d.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	// One notification because the resource was already known, then one per
	// successful fetch.
	if len(events) != 4 || events[3] != "done" {
		t.Fatalf("events = %v", events)
	}
	if n := len(res.Properties(rdf.DCTitle)); n != 2 {
		t.Fatalf("got %d titles, want 2", n)
	}
}

func TestProxyAndImages(t *testing.T) {
	b := New(Options{
		Proxy:         "http://local:8000/proxy?url={url}",
		LocalHost:     "local:8000",
		CORSDomains:   []string{"cors.example.org"},
		ImageRewrites: []ImageRewrite{{From: "http://img.example.org/", To: "https://img.example.org/"}},
	})

	tests := []struct {
		url  string
		want string
	}{
		{"http://local:8000/store/x", "http://local:8000/store/x"},
		{"https://cors.example.org/doc", "https://cors.example.org/doc"},
		{"http://other.org/doc", "http://local:8000/proxy?url=http%3A%2F%2Fother.org%2Fdoc"},
	}
	for _, tt := range tests {
		if got := b.ProxyURL(tt.url); got != tt.want {
			t.Fatalf("ProxyURL(%s) = %s, want %s", tt.url, got, tt.want)
		}
	}

	if got := b.ImageSrc("http://img.example.org/iiif/1/full/full/0/native.jpg", 200, 100); got != "https://img.example.org/iiif/1/full/!200,100/0/native.jpg" {
		t.Fatalf("IIIF ImageSrc = %s", got)
	}
	if got := b.ImageSrc("http://other.org/a.jpg", 200, 100); got != "http://other.org/a.jpg?w=200&h=100" {
		t.Fatalf("ImageSrc = %s", got)
	}
	if got := b.ImageSrc("http://other.org/a.jpg", 0, 0); got != "http://other.org/a.jpg" {
		t.Fatalf("ImageSrc without size = %s", got)
	}
}

func TestListURIsInOrder(t *testing.T) {
	b := newTestBroker()
	doc := `<http://x/list> <http://x/p> ( <http://x/1> <http://x/2> <http://x/3> ) .`
	if _, err := b.Ingest(context.Background(), format.Document{Data: []byte(doc), ContentType: "text/turtle"}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	heads := quadstore.Objects(b.Store(), rdf.IRI("http://x/list"), rdf.IRI("http://x/p"), rdf.Term{}, rdf.Term{})
	if len(heads) != 1 {
		t.Fatalf("heads = %v", heads)
	}
	items := b.ListURIsInOrder(heads[0].URI())
	if len(items) != 3 || items[0].Value != "http://x/1" || items[2].Value != "http://x/3" {
		t.Fatalf("ListURIsInOrder = %v", items)
	}
}

func TestSortURIsByTitle(t *testing.T) {
	b := newTestBroker()
	doc := `<http://x/1> <http://purl.org/dc/elements/1.1/title> "beta" .
<http://x/2> <http://purl.org/dc/elements/1.1/title> "Alpha" .`
	if _, err := b.Ingest(context.Background(), format.Document{Data: []byte(doc), ContentType: "text/turtle"}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	uris := []string{"http://x/1", "http://x/2"}
	b.SortURIsByTitle(uris)
	if uris[0] != "http://x/2" {
		t.Fatalf("sorted = %v", uris)
	}
}
