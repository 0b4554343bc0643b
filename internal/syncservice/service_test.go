package syncservice

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"quadsync/internal/config"
	"quadsync/internal/databroker"
	"quadsync/internal/format"
	"quadsync/internal/quadstore"
	"quadsync/internal/rdf"
)

type request struct {
	method string
	path   string
	body   string
	csrf   string
}

type restServer struct {
	*httptest.Server
	mu     sync.Mutex
	reqs   []request
	status func(r *http.Request) int
	hit    chan struct{}
}

func newRESTServer(t *testing.T, status func(r *http.Request) int) *restServer {
	t.Helper()
	s := &restServer{status: status, hit: make(chan struct{}, 64)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.reqs = append(s.reqs, request{method: r.Method, path: r.URL.Path, body: string(body), csrf: r.Header.Get("X-CSRFToken")})
		s.mu.Unlock()
		w.WriteHeader(s.status(r))
		select {
		case s.hit <- struct{}{}:
		default:
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *restServer) requests() []request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]request(nil), s.reqs...)
}

func (s *restServer) host() string {
	return strings.TrimPrefix(s.URL, "http://")
}

func newService(t *testing.T, srv *restServer, b *databroker.Broker) *Service {
	t.Helper()
	cfg := config.Default("p", srv.host())
	return New(b, Options{Project: cfg.Project, REST: cfg.REST, HTTPClient: srv.Client(), Concurrency: 2})
}

func ingest(t *testing.T, b *databroker.Broker, doc string) {
	t.Helper()
	prefixes := `@prefix sc: <http://www.shared-canvas.org/ns/> .
@prefix oa: <http://www.w3.org/ns/oa#> .
@prefix dc: <http://purl.org/dc/elements/1.1/> .
@prefix cnt: <http://www.w3.org/2011/content#> .
@prefix foaf: <http://xmlns.com/foaf/0.1/> .
@prefix dm: <http://dm.drew.edu/ns/> .
@prefix dcterms: <http://purl.org/dc/terms/> .
`
	if _, err := b.Ingest(context.Background(), format.Document{Data: []byte(prefixes + doc), ContentType: "text/turtle"}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
}

func countAll(r quadstore.Reader) int {
	return r.Count(rdf.Term{}, rdf.Term{}, rdf.Term{}, rdf.Term{})
}

func TestPassPostsNewAndPurgesRejected(t *testing.T) {
	srv := newRESTServer(t, func(r *http.Request) int {
		if strings.Contains(r.URL.Path, "/texts/") {
			return http.StatusCreated
		}
		return http.StatusBadRequest
	})
	b := databroker.New(databroker.Options{})
	ingest(t, b, `<http://example.org/canvas1> a sc:Canvas ; dc:title "Old" .`)

	if _, err := b.CreateResource("urn:uuid:text-1", rdf.IRI(rdf.NSDCTypes+"Text")); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	b.AddNewQuad(rdf.Triple(rdf.IRI("http://example.org/canvas1"), rdf.DCTitle, rdf.Literal("New")))

	svc := newService(t, srv, b)
	report, err := svc.Pass(context.Background())
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Pass error = %v, want ErrRejected", err)
	}
	if report.Sent != 1 || report.Rejected != 1 {
		t.Fatalf("report = %+v", report)
	}

	if got := b.NewResourceURIs(); len(got) != 0 {
		t.Fatalf("NewResourceURIs = %v, want empty", got)
	}
	if n := countAll(b.NewQuads()); n != 0 {
		t.Fatalf("new quads left = %d, want 0", n)
	}
	if !b.HasSyncErrors() {
		t.Fatal("HasSyncErrors = false after rejection")
	}
	if !b.Store().Contains(rdf.Triple(rdf.IRI("http://example.org/canvas1"), rdf.DCTitle, rdf.Literal("New"))) {
		t.Fatal("rejected statement removed from main store")
	}

	var sawPost, sawPut bool
	for _, r := range srv.requests() {
		switch {
		case r.method == http.MethodPost && r.path == "/store/projects/p/texts/urn:uuid:text-1":
			sawPost = true
		case r.method == http.MethodPut && r.path == "/store/projects/p/":
			sawPut = true
			if !strings.Contains(r.body, "New") {
				t.Fatalf("PUT body missing new title:\n%s", r.body)
			}
		}
	}
	if !sawPost || !sawPut {
		t.Fatalf("requests = %+v", srv.requests())
	}

	before := len(srv.requests())
	if _, err := svc.Pass(context.Background()); err != nil {
		t.Fatalf("second Pass: %v", err)
	}
	if got := len(srv.requests()); got != before {
		t.Fatalf("second pass sent %d requests, want none", got-before)
	}
}

func TestPassRetainsOnServerError(t *testing.T) {
	srv := newRESTServer(t, func(*http.Request) int { return http.StatusInternalServerError })
	b := databroker.New(databroker.Options{})
	if _, err := b.CreateResource("urn:uuid:text-2", rdf.IRI(rdf.NSCnt+"ContentAsText")); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	pending := countAll(b.NewQuads())

	svc := newService(t, srv, b)
	_, err := svc.Pass(context.Background())
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("Pass error = %v, want ErrTransient", err)
	}
	var sendErr *SendError
	if !errors.As(err, &sendErr) || sendErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Pass error = %#v, want SendError with 500", err)
	}
	if got := b.NewResourceURIs(); len(got) != 1 {
		t.Fatalf("NewResourceURIs = %v, want the text", got)
	}
	if n := countAll(b.NewQuads()); n != pending {
		t.Fatalf("new quads = %d, want %d", n, pending)
	}
	if !b.HasSyncErrors() {
		t.Fatal("HasSyncErrors = false after failure")
	}
	if !svc.HasUnsavedChanges() {
		t.Fatal("HasUnsavedChanges = false")
	}
}

func TestPassSendsRemovalsAndDeletedResources(t *testing.T) {
	srv := newRESTServer(t, func(*http.Request) int { return http.StatusOK })
	b := databroker.New(databroker.Options{})
	ingest(t, b, `
<http://example.org/canvas1> a sc:Canvas ; dc:title "Keep" , "Drop" .
<http://example.org/canvas2> a sc:Canvas ; dc:title "Gone" .`)

	b.DeleteQuad(rdf.Triple(rdf.IRI("http://example.org/canvas1"), rdf.DCTitle, rdf.Literal("Drop")))
	b.DeleteResource("http://example.org/canvas2")

	svc := newService(t, srv, b)
	if _, err := svc.Pass(context.Background()); err != nil {
		t.Fatalf("Pass: %v", err)
	}
	if n := countAll(b.DeletedQuads()); n != 0 {
		t.Fatalf("deleted quads left = %d", n)
	}
	if got := b.DeletedResourceURIs(); len(got) != 0 {
		t.Fatalf("DeletedResourceURIs = %v", got)
	}
	if svc.HasUnsavedChanges() {
		t.Fatal("HasUnsavedChanges = true after confirmed pass")
	}

	var removals int
	for _, r := range srv.requests() {
		if r.method == http.MethodPut && r.path == "/store/projects/p/remove_triples" {
			removals++
		}
	}
	if removals != 2 {
		t.Fatalf("remove_triples requests = %d, want 2: %+v", removals, srv.requests())
	}
}

func TestPassRoutesSelectorsAndBlankNodesToOwners(t *testing.T) {
	srv := newRESTServer(t, func(*http.Request) int { return http.StatusOK })
	b := databroker.New(databroker.Options{})
	ingest(t, b, `
<http://example.org/sr1> a oa:SpecificResource ; oa:hasSelector <http://example.org/sel1> .
<http://example.org/sel1> a oa:TextQuoteSelector .
<http://example.org/anno1> a oa:Annotation ; oa:hasBody [ cnt:chars "first" ] .`)

	b.AddNewQuad(rdf.Triple(rdf.IRI("http://example.org/sel1"), rdf.IRI(rdf.NSOA+"exact"), rdf.Literal("quoted")))
	bodies := quadstore.Objects(b.Store(), rdf.IRI("http://example.org/anno1"), rdf.OAHasBody, rdf.Term{}, rdf.Term{})
	if len(bodies) != 1 || !bodies[0].IsBlank() {
		t.Fatalf("annotation bodies = %v", bodies)
	}
	b.AddNewQuad(rdf.Triple(bodies[0], rdf.IRI(rdf.NSCnt+"format"), rdf.Literal("text/plain")))

	svc := newService(t, srv, b)
	if _, err := svc.Pass(context.Background()); err != nil {
		t.Fatalf("Pass: %v", err)
	}
	var selectorSent, annotationSent bool
	for _, r := range srv.requests() {
		if r.method != http.MethodPut || r.path != "/store/projects/p/" {
			t.Fatalf("unexpected request %s %s", r.method, r.path)
		}
		if strings.Contains(r.body, "quoted") {
			selectorSent = true
		}
		if strings.Contains(r.body, "text/plain") && strings.Contains(r.body, "first") {
			annotationSent = true
		}
	}
	if !selectorSent || !annotationSent {
		t.Fatalf("requests = %+v", srv.requests())
	}
	if n := countAll(b.NewQuads()); n != 0 {
		t.Fatalf("new quads left = %d", n)
	}
}

func TestPassPurgesUntypedAndUserNoise(t *testing.T) {
	srv := newRESTServer(t, func(*http.Request) int { return http.StatusOK })
	b := databroker.New(databroker.Options{})
	ingest(t, b, `<http://example.org/users/ada> a foaf:Agent ; dm:lastOpenProject <http://example.org/p1> .`)

	b.DeleteQuad(rdf.Triple(rdf.IRI("http://example.org/users/ada"), rdf.DMLastOpenProject, rdf.IRI("http://example.org/p1")))
	b.AddNewQuad(rdf.Triple(rdf.IRI("http://example.org/loose"), rdf.DCTitle, rdf.Literal("untyped")))

	svc := newService(t, srv, b)
	report, err := svc.Pass(context.Background())
	if err != nil {
		t.Fatalf("Pass: %v", err)
	}
	if report.Purged != 1 {
		t.Fatalf("report = %+v, want one purged quad", report)
	}
	if reqs := srv.requests(); len(reqs) != 0 {
		t.Fatalf("requests = %+v, want none", reqs)
	}
	if svc.HasUnsavedChanges() {
		t.Fatal("HasUnsavedChanges = true")
	}
}

func TestPassPurgesRejectedTextDeletions(t *testing.T) {
	srv := newRESTServer(t, func(*http.Request) int { return http.StatusBadRequest })
	b := databroker.New(databroker.Options{})
	ingest(t, b, `<http://example.org/t1> a <`+rdf.NSDCTypes+`Text> ; dc:title "A" ; dc:description "B" .`)
	b.DeleteQuad(rdf.Triple(rdf.IRI("http://example.org/t1"), rdf.IRI(rdf.NSDC+"description"), rdf.Literal("B")))

	svc := newService(t, srv, b)
	if _, err := svc.Pass(context.Background()); !errors.Is(err, ErrRejected) {
		t.Fatalf("Pass error = %v, want ErrRejected", err)
	}
	if n := countAll(b.DeletedQuads()); n != 0 {
		t.Fatalf("deleted quads left = %d, want 0", n)
	}
	if svc.HasUnsavedChanges() {
		t.Fatal("HasUnsavedChanges = true after rejection")
	}

	before := len(srv.requests())
	if before != 1 {
		t.Fatalf("first pass sent %d requests, want 1", before)
	}
	if _, err := svc.Pass(context.Background()); err != nil {
		t.Fatalf("second Pass: %v", err)
	}
	if got := len(srv.requests()); got != before {
		t.Fatalf("second pass sent %d requests, want none", got-before)
	}
}

func TestPassPurgesUntypedDeletions(t *testing.T) {
	srv := newRESTServer(t, func(*http.Request) int { return http.StatusOK })
	b := databroker.New(databroker.Options{})
	ingest(t, b, `<http://example.org/loose> dc:title "untyped" .`)
	b.DeleteQuad(rdf.Triple(rdf.IRI("http://example.org/loose"), rdf.DCTitle, rdf.Literal("untyped")))

	svc := newService(t, srv, b)
	report, err := svc.Pass(context.Background())
	if err != nil {
		t.Fatalf("Pass: %v", err)
	}
	if report.Purged != 1 {
		t.Fatalf("report = %+v, want one purged quad", report)
	}
	if reqs := srv.requests(); len(reqs) != 0 {
		t.Fatalf("requests = %+v, want none", reqs)
	}
	if svc.HasUnsavedChanges() {
		t.Fatal("HasUnsavedChanges = true")
	}
}

func TestPassSendsUserChanges(t *testing.T) {
	srv := newRESTServer(t, func(*http.Request) int { return http.StatusOK })
	b := databroker.New(databroker.Options{})
	ingest(t, b, `<http://example.org/users/ada> a foaf:Agent .`)
	b.AddNewQuad(rdf.Triple(rdf.IRI("http://example.org/users/ada"), rdf.IRI(rdf.NSFOAF+"name"), rdf.Literal("Ada")))

	svc := newService(t, srv, b)
	if _, err := svc.Pass(context.Background()); err != nil {
		t.Fatalf("Pass: %v", err)
	}
	reqs := srv.requests()
	if len(reqs) != 1 || reqs[0].method != http.MethodPut || reqs[0].path != "/store/users/ada/" {
		t.Fatalf("requests = %+v", reqs)
	}
}

func TestCSRFHeaderFromCookie(t *testing.T) {
	srv := newRESTServer(t, func(*http.Request) int { return http.StatusCreated })
	b := databroker.New(databroker.Options{})
	if _, err := b.CreateResource("urn:uuid:text-3", rdf.IRI(rdf.NSDCTypes+"Text")); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	u, _ := url.Parse(srv.URL)
	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "secret", Path: "/"}})
	client := srv.Client()
	client.Jar = jar

	cfg := config.Default("p", srv.host())
	svc := New(b, Options{Project: "p", REST: cfg.REST, HTTPClient: client})
	if _, err := svc.Pass(context.Background()); err != nil {
		t.Fatalf("Pass: %v", err)
	}
	reqs := srv.requests()
	if len(reqs) != 1 || reqs[0].csrf != "secret" {
		t.Fatalf("requests = %+v", reqs)
	}
}

func TestRunSyncsOnRequest(t *testing.T) {
	srv := newRESTServer(t, func(*http.Request) int { return http.StatusCreated })
	b := databroker.New(databroker.Options{})
	if _, err := b.CreateResource("urn:uuid:text-4", rdf.IRI(rdf.NSDCTypes+"Text")); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	cfg := config.Default("p", srv.host())
	svc := New(b, Options{Project: "p", REST: cfg.REST, HTTPClient: srv.Client(), Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	svc.RequestSync()
	select {
	case <-srv.hit:
	case <-time.After(5 * time.Second):
		t.Fatal("no request after RequestSync")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRestURL(t *testing.T) {
	cfg := config.Default("p", "example.org/")
	svc := New(databroker.New(databroker.Options{}), Options{Project: "p", REST: cfg.REST})

	tests := []struct {
		name    string
		project string
		kind    ResType
		id      string
		want    string
	}{
		{name: "project", project: "p", kind: ResProject, want: "http://example.org/store/projects/p/"},
		{name: "text", project: "p", kind: ResText, id: "urn:uuid:1", want: "http://example.org/store/projects/p/texts/urn:uuid:1"},
		{name: "annotation", project: "p", kind: ResAnnotation, id: "a1", want: "http://example.org/store/projects/p/annotations/a1"},
		{name: "user", kind: ResUser, id: "ada", want: "http://example.org/store/users/ada"},
		{name: "escaped id", project: "p", kind: ResResource, id: "http://x.org/r", want: "http://example.org/store/projects/p/resources/http:%2F%2Fx.org%2Fr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.RestURL(tt.project, tt.kind, tt.id); got != tt.want {
				t.Fatalf("RestURL = %q, want %q", got, tt.want)
			}
		})
	}

	if got := svc.ProjectDownloadURL("p", ""); got != "http://example.org/store/projects/p/download.ttl" {
		t.Fatalf("ProjectDownloadURL = %q", got)
	}
}
