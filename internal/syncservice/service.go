// Package syncservice pushes the broker's change-sets to the REST store.
// Entries leave a change-set only once the server has confirmed them.
package syncservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"quadsync/internal/config"
	"quadsync/internal/datamodel"
	"quadsync/internal/quadstore"
	"quadsync/internal/rdf"
)

// Broker is the part of the data broker the service reads and confirms against.
type Broker interface {
	Model() *datamodel.Model
	Store() quadstore.Reader
	NewQuads() quadstore.Reader
	DeletedQuads() quadstore.Reader
	Conjunctive() quadstore.Reader
	ModifiedSubjects() []rdf.Term
	NewResourceURIs() []string
	DeletedResourceURIs() []string
	HasUnsavedChanges() bool
	ConfirmNewQuads(quads []rdf.Quad) int
	ConfirmDeletedQuads(quads []rdf.Quad) int
	ConfirmNewResource(uri string)
	ConfirmDeletedResources(uris []string)
	PurgeNewQuads(subject, predicate rdf.Term) int
	PurgeDeletedQuads(subject, predicate rdf.Term) int
	SetSyncErrors(v bool)
	SerializeQuads(quads []rdf.Quad, format string) ([]byte, error)
}

type Options struct {
	Project    string
	REST       config.RESTConfig
	HTTPClient *http.Client
	// CSRFToken is sent when the client's cookie jar has no CSRF cookie.
	CSRFToken   string
	Interval    time.Duration
	Concurrency int
	Logger      *slog.Logger
}

// Report counts the requests of one pass.
type Report struct {
	Sent     int
	Rejected int
	Failed   int
	Purged   int
}

type Service struct {
	broker      Broker
	project     string
	rest        config.RESTConfig
	client      *http.Client
	csrf        string
	interval    time.Duration
	concurrency int
	logger      *slog.Logger

	passMu  sync.Mutex
	trigger chan struct{}

	reportMu sync.Mutex
	report   Report
}

func New(broker Broker, opts Options) *Service {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.REST.Format == "" {
		opts.REST.Format = "text/turtle"
	}
	if opts.REST.CSRFCookie == "" {
		opts.REST.CSRFCookie = "csrftoken"
	}
	if opts.REST.CSRFHeader == "" {
		opts.REST.CSRFHeader = "X-CSRFToken"
	}
	return &Service{
		broker:      broker,
		project:     opts.Project,
		rest:        opts.REST,
		client:      opts.HTTPClient,
		csrf:        opts.CSRFToken,
		interval:    opts.Interval,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		trigger:     make(chan struct{}, 1),
	}
}

func (s *Service) HasUnsavedChanges() bool {
	return s.broker.HasUnsavedChanges()
}

// RequestSync asks Run to start a pass without waiting for the next tick.
func (s *Service) RequestSync() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run performs a pass on every tick and on every RequestSync until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-s.trigger:
		}
		if !s.HasUnsavedChanges() {
			continue
		}
		if _, err := s.Pass(ctx); err != nil {
			s.logger.Warn("sync pass finished with errors", "error", err)
		}
	}
}

// Pass pushes new resources, then modified ones, then deletions. Passes never
// overlap. The returned error joins every failed send.
func (s *Service) Pass(ctx context.Context) (Report, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	s.reportMu.Lock()
	s.report = Report{}
	s.reportMu.Unlock()

	var errs []error
	for _, phase := range []func(context.Context) []error{
		s.postNewResources,
		s.putModifiedResources,
		s.deleteDeletedResources,
	} {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		errs = append(errs, phase(ctx)...)
	}

	s.reportMu.Lock()
	report := s.report
	s.reportMu.Unlock()
	return report, errors.Join(errs...)
}

func (s *Service) postNewResources(ctx context.Context) []error {
	conj := s.broker.Conjunctive()
	model := s.broker.Model()

	var c collector
	g := s.group()
	for _, uri := range s.broker.NewResourceURIs() {
		subject := rdf.TermFromURI(uri)
		switch model.Classify(conj, subject) {
		case datamodel.CategorySpecificResource, datamodel.CategorySelector:
			// Pushed through their owners as ordinary modifications.
			s.broker.ConfirmNewResource(uri)
			continue
		}
		g.Go(func() error {
			c.add(s.sendResource(ctx, subject, http.MethodPost, func() {
				s.broker.ConfirmNewResource(uri)
			}))
			return nil
		})
	}
	_ = g.Wait()
	return c.errs
}

func (s *Service) putModifiedResources(ctx context.Context) []error {
	conj := s.broker.Conjunctive()
	store := s.broker.Store()
	model := s.broker.Model()
	userTypes := model.Types(datamodel.CategoryUser)

	targets := make(map[rdf.Term]bool)
	var order []rdf.Term
	queue := func(t rdf.Term) {
		if !targets[t] {
			targets[t] = true
			order = append(order, t)
		}
	}

	for _, subject := range s.broker.ModifiedSubjects() {
		if subject.IsBlank() {
			owner, ok := s.owner(subject)
			if !ok {
				s.logger.Warn("dropping changes to unreachable blank node", "subject", subject.String())
				s.broker.PurgeNewQuads(subject, rdf.Term{})
				continue
			}
			if s.isPendingResource(owner) {
				continue
			}
			subject = owner
		}

		for _, t := range userTypes {
			if store.Count(subject, rdf.RDFType, t, rdf.Term{}) > 0 {
				s.broker.PurgeDeletedQuads(subject, rdf.DMLastOpenProject)
				s.broker.PurgeDeletedQuads(subject, rdf.DCModified)
				break
			}
		}

		switch {
		case model.Classify(conj, subject) == datamodel.CategorySelector:
			if owner, ok := model.SelectorOwner(store, subject); ok {
				queue(owner)
			}
		case conj.Count(subject, rdf.RDFType, rdf.Term{}, rdf.Term{}) == 0:
			n := s.broker.PurgeNewQuads(subject, rdf.Term{})
			n += s.broker.PurgeDeletedQuads(subject, rdf.Term{})
			s.addReport(func(r *Report) { r.Purged += n })
		default:
			queue(subject)
		}
	}

	var c collector
	g := s.group()
	for _, subject := range order {
		g.Go(func() error {
			c.add(s.sendResource(ctx, subject, http.MethodPut, nil))
			return nil
		})
	}
	_ = g.Wait()
	return c.errs
}

func (s *Service) deleteDeletedResources(ctx context.Context) []error {
	uris := s.broker.DeletedResourceURIs()
	if len(uris) == 0 {
		return nil
	}
	var quads []rdf.Quad
	for _, uri := range uris {
		quads = append(quads, quadstore.Collect(s.broker.DeletedQuads(), rdf.TermFromURI(uri), rdf.Term{}, rdf.Term{}, rdf.Term{})...)
	}
	if len(quads) == 0 {
		s.broker.ConfirmDeletedResources(uris)
		return nil
	}

	target := s.RestURL(s.project, ResProject, "") + "remove_triples"
	err := s.sendQuads(ctx, quads, target, http.MethodPut)
	switch {
	case err == nil:
		s.broker.ConfirmDeletedQuads(quads)
		s.broker.ConfirmDeletedResources(uris)
		s.addReport(func(r *Report) { r.Sent++ })
		return nil
	case errors.Is(err, ErrRejected):
		s.logger.Error("server rejected resource deletion", "url", target, "error", err)
		s.broker.ConfirmDeletedQuads(quads)
		s.broker.ConfirmDeletedResources(uris)
		s.broker.SetSyncErrors(true)
		s.addReport(func(r *Report) { r.Rejected++ })
	default:
		s.logger.Warn("resource deletion failed", "url", target, "error", err)
		s.broker.SetSyncErrors(true)
		s.addReport(func(r *Report) { r.Failed++ })
	}
	return []error{err}
}

// sendResource pushes removals and then additions for one subject. onSuccess
// runs once the additions are confirmed, or straight away if there are none.
func (s *Service) sendResource(ctx context.Context, subject rdf.Term, method string, onSuccess func()) error {
	category := s.broker.Model().Classify(s.broker.Conjunctive(), subject)
	build, ok := rules[category]
	if !ok {
		s.logger.Error("no sync rule for resource", "subject", subject.String())
		return nil
	}
	p, ok := build(s, subject, method)
	if !ok {
		return nil
	}

	var errs []error
	if len(p.remove) > 0 {
		target := p.url + "remove_triples"
		err := s.sendQuads(ctx, p.remove, target, http.MethodPut)
		switch {
		case err == nil:
			s.broker.ConfirmDeletedQuads(p.remove)
			s.addReport(func(r *Report) { r.Sent++ })
		case errors.Is(err, ErrRejected):
			s.logger.Error("server rejected removals", "url", target, "subject", subject.String(), "error", err)
			s.broker.ConfirmDeletedQuads(p.remove)
			s.broker.SetSyncErrors(true)
			s.addReport(func(r *Report) { r.Rejected++ })
			errs = append(errs, err)
		default:
			s.logger.Warn("sending removals failed", "url", target, "subject", subject.String(), "error", err)
			s.broker.SetSyncErrors(true)
			s.addReport(func(r *Report) { r.Failed++ })
			errs = append(errs, err)
		}
	}

	if len(p.post) == 0 {
		if onSuccess != nil && len(errs) == 0 {
			onSuccess()
		}
		return errors.Join(errs...)
	}

	err := s.sendQuads(ctx, p.post, p.url, p.method)
	switch {
	case err == nil:
		s.broker.SetSyncErrors(false)
		s.broker.ConfirmNewQuads(p.post)
		s.broker.ConfirmNewQuads(p.confirmNew)
		s.broker.ConfirmDeletedQuads(p.confirmDeleted)
		s.addReport(func(r *Report) { r.Sent++ })
		if onSuccess != nil {
			onSuccess()
		}
	case errors.Is(err, ErrRejected):
		s.logger.Error("server rejected resource", "url", p.url, "method", p.method, "subject", subject.String(), "error", err)
		s.broker.SetSyncErrors(true)
		s.broker.ConfirmNewQuads(p.post)
		s.broker.ConfirmNewQuads(p.confirmNew)
		s.broker.ConfirmDeletedQuads(p.confirmDeleted)
		s.broker.ConfirmNewResource(subject.URI())
		s.addReport(func(r *Report) { r.Rejected++ })
		errs = append(errs, err)
	default:
		s.logger.Warn("sending resource failed", "url", p.url, "method", p.method, "subject", subject.String(), "error", err)
		s.broker.SetSyncErrors(true)
		s.addReport(func(r *Report) { r.Failed++ })
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// owner walks from a blank node up to the first IRI that references it.
func (s *Service) owner(blank rdf.Term) (rdf.Term, bool) {
	conj := s.broker.Conjunctive()
	seen := map[rdf.Term]bool{blank: true}
	current := blank
	for current.IsBlank() {
		parents := quadstore.Subjects(conj, rdf.Term{}, rdf.Term{}, current, rdf.Term{})
		if len(parents) == 0 || seen[parents[0]] {
			return rdf.Term{}, false
		}
		current = parents[0]
		seen[current] = true
	}
	return current, true
}

func (s *Service) isPendingResource(t rdf.Term) bool {
	for _, uri := range s.broker.NewResourceURIs() {
		if uri == t.URI() {
			return true
		}
	}
	for _, uri := range s.broker.DeletedResourceURIs() {
		if uri == t.URI() {
			return true
		}
	}
	return false
}

func (s *Service) group() *errgroup.Group {
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	return g
}

func (s *Service) addReport(fn func(*Report)) {
	s.reportMu.Lock()
	fn(&s.report)
	s.reportMu.Unlock()
}

type collector struct {
	mu   sync.Mutex
	errs []error
}

func (c *collector) add(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}
