// Package databroker owns the quad store and its change-sets. Every mutation
// of shared RDF state goes through a Broker so the change-sets stay exact.
package databroker

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"quadsync/internal/datamodel"
	"quadsync/internal/format"
	"quadsync/internal/quadstore"
	"quadsync/internal/rdf"
	"quadsync/internal/resource"
)

type ImageRewrite struct {
	From string
	To   string
}

type Options struct {
	Namespaces *rdf.Namespaces
	Formats    *format.Registry
	Model      *datamodel.Model
	HTTPClient *http.Client
	Logger     *slog.Logger
	// User is the creator URI stamped on created resources.
	User string
	// Proxy is a URL template containing "{url}".
	Proxy         string
	LocalHost     string
	CORSDomains   []string
	ImageRewrites []ImageRewrite
	Now           func() time.Time
}

type Broker struct {
	ns      *rdf.Namespaces
	formats *format.Registry
	model   *datamodel.Model
	client  *http.Client
	logger  *slog.Logger
	user    string
	proxy   string
	local   string
	cors    map[string]bool
	images  []ImageRewrite
	now     func() time.Time

	store   *quadstore.Store
	newQ    *quadstore.Store
	deleted *quadstore.Store

	// mu serializes compound mutations across the three stores and the
	// resource tracking sets.
	mu               sync.Mutex
	newResources     map[string]struct{}
	deletedResources map[string]struct{}

	urlMu     sync.Mutex
	requested map[string]struct{}
	received  map[string]struct{}
	failed    map[string]struct{}

	fetches    singleflight.Group
	blankCount atomic.Uint64
	syncErrors atomic.Bool
}

var _ resource.Writer = (*Broker)(nil)

func New(opts Options) *Broker {
	if opts.Namespaces == nil {
		opts.Namespaces = rdf.NewNamespaces(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Formats == nil {
		opts.Formats = format.Default(opts.Namespaces, opts.Logger)
	}
	if opts.Model == nil {
		opts.Model = datamodel.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cors := make(map[string]bool, len(opts.CORSDomains))
	for _, domain := range opts.CORSDomains {
		cors[domain] = true
	}
	return &Broker{
		ns:               opts.Namespaces,
		formats:          opts.Formats,
		model:            opts.Model,
		client:           opts.HTTPClient,
		logger:           opts.Logger,
		user:             opts.User,
		proxy:            opts.Proxy,
		local:            opts.LocalHost,
		cors:             cors,
		images:           opts.ImageRewrites,
		now:              opts.Now,
		store:            quadstore.New(),
		newQ:             quadstore.New(),
		deleted:          quadstore.New(),
		newResources:     make(map[string]struct{}),
		deletedResources: make(map[string]struct{}),
		requested:        make(map[string]struct{}),
		received:         make(map[string]struct{}),
		failed:           make(map[string]struct{}),
	}
}

func (b *Broker) Namespaces() *rdf.Namespaces { return b.ns }
func (b *Broker) Formats() *format.Registry   { return b.formats }
func (b *Broker) Model() *datamodel.Model     { return b.model }
func (b *Broker) Logger() *slog.Logger        { return b.logger }

// Store is the read side of the canonical quad store.
func (b *Broker) Store() quadstore.Reader { return b.store }

// NewQuads lists locally added statements not yet confirmed by the server.
func (b *Broker) NewQuads() quadstore.Reader { return b.newQ }

// DeletedQuads lists locally removed statements not yet confirmed by the server.
func (b *Broker) DeletedQuads() quadstore.Reader { return b.deleted }

// Conjunctive is the union of the main and deleted stores, so resources
// whose type statements were deleted can still be classified.
func (b *Broker) Conjunctive() quadstore.Reader {
	return quadstore.NewUnion(b.store, b.deleted)
}

// Resource returns a fresh view of uri over the main store.
func (b *Broker) Resource(uri string) *resource.Resource {
	return b.ResourceFor(rdf.TermFromURI(uri))
}

func (b *Broker) ResourceFor(term rdf.Term) *resource.Resource {
	return resource.New(term, b.store, b, resource.WithTitlePredicates(b.model.TitlePredicates()...))
}

// ConjunctiveResource views uri over the main and deleted stores together.
func (b *Broker) ConjunctiveResource(uri string) *resource.Resource {
	return resource.New(rdf.TermFromURI(uri), b.Conjunctive(), b, resource.WithTitlePredicates(b.model.TitlePredicates()...))
}

// AddNewQuad adds a locally created statement. Only a statement that was not
// already in the store is recorded as new; a pending deletion of it is cancelled.
func (b *Broker) AddNewQuad(q rdf.Quad) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addNewQuadLocked(q)
}

func (b *Broker) AddNewQuads(quads []rdf.Quad) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, q := range quads {
		b.addNewQuadLocked(q)
	}
}

func (b *Broker) addNewQuadLocked(q rdf.Quad) {
	b.deleted.Remove(q)
	if b.store.Add(q) {
		b.newQ.Add(q)
	}
}

// DeleteQuad removes a statement and records the deletion for sync.
func (b *Broker) DeleteQuad(q rdf.Quad) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteQuadLocked(q)
}

func (b *Broker) DeleteQuads(quads []rdf.Quad) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, q := range quads {
		b.deleteQuadLocked(q)
	}
}

func (b *Broker) deleteQuadLocked(q rdf.Quad) {
	b.store.Remove(q)
	b.newQ.Remove(q)
	b.deleted.Add(q)
}

// NewResourceURIs returns the locally created resources awaiting their first sync.
func (b *Broker) NewResourceURIs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sortedKeys(b.newResources)
}

// DeletedResourceURIs returns the locally deleted resources awaiting sync.
func (b *Broker) DeletedResourceURIs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sortedKeys(b.deletedResources)
}

func (b *Broker) IsNewResource(uri string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.newResources[uri]
	return ok
}

func (b *Broker) HasSyncErrors() bool { return b.syncErrors.Load() }

func (b *Broker) SetSyncErrors(v bool) { b.syncErrors.Store(v) }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
