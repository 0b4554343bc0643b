package databroker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"quadsync/internal/rdf"
	"quadsync/internal/resource"
)

type State int

const (
	StatePending State = iota
	StateResolving
	StateResolved
	StateRejected
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type (
	ProgressFunc func(*resource.Resource)
	DoneFunc     func(*resource.Resource)
	FailFunc     func(*resource.Resource, error)
)

type DeferredOption func(*Deferred)

// WithProgress registers a progress listener before resolution starts, so
// no notification is missed.
func WithProgress(fn ProgressFunc) DeferredOption {
	return func(d *Deferred) { d.progress = append(d.progress, fn) }
}

func WithDone(fn DoneFunc) DeferredOption {
	return func(d *Deferred) { d.done = append(d.done, fn) }
}

func WithFail(fn FailFunc) DeferredOption {
	return func(d *Deferred) { d.fail = append(d.fail, fn) }
}

// WithURLs fetches urls in addition to the known describers of the resource.
// Heuristic guesses are not made.
func WithURLs(urls ...string) DeferredOption {
	return func(d *Deferred) { d.extraURLs = append(d.extraURLs, urls...) }
}

// WithForce refetches documents that were already received.
func WithForce() DeferredOption {
	return func(d *Deferred) { d.force = true }
}

// Deferred tracks one resolution of a resource. Listeners are called from a
// single goroutine: progress in fetch completion order, then exactly one of
// done or fail. Nothing fires after the terminal state.
type Deferred struct {
	uri       string
	broker    *Broker
	extraURLs []string
	force     bool

	mu        sync.Mutex
	state     State
	progress  []ProgressFunc
	done      []DoneFunc
	fail      []FailFunc
	result    *resource.Resource
	err       error
	abandoned bool
	finished  chan struct{}
}

// GetDeferredResource starts resolving uri in the background. Cancelling ctx
// abandons this resolution: its listeners are dropped without being called,
// Done is closed and Wait reports ctx.Err(). Fetches already shared with
// others still complete and merge into the store.
func (b *Broker) GetDeferredResource(ctx context.Context, uri string, opts ...DeferredOption) *Deferred {
	d := &Deferred{
		uri:      rdf.UnwrapURI(uri),
		broker:   b,
		finished: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run(ctx)
	return d
}

// GetDeferredResources starts one independent resolution per uri.
func (b *Broker) GetDeferredResources(ctx context.Context, uris []string, opts ...DeferredOption) []*Deferred {
	out := make([]*Deferred, 0, len(uris))
	for _, uri := range uris {
		out = append(out, b.GetDeferredResource(ctx, uri, opts...))
	}
	return out
}

func (d *Deferred) URI() string { return d.uri }

func (d *Deferred) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Done is closed once the resolution is Resolved or Rejected.
func (d *Deferred) Done() <-chan struct{} { return d.finished }

// Wait blocks until the resolution ends or ctx is cancelled.
func (d *Deferred) Wait(ctx context.Context) (*resource.Resource, error) {
	select {
	case <-d.finished:
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.result, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnProgress adds a listener for later progress notifications.
func (d *Deferred) OnProgress(fn ProgressFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state < StateResolved {
		d.progress = append(d.progress, fn)
	}
}

// OnDone adds a listener; it runs immediately if the resolution already succeeded.
func (d *Deferred) OnDone(fn DoneFunc) {
	d.mu.Lock()
	switch d.state {
	case StateResolved:
		res := d.result
		d.mu.Unlock()
		fn(res)
		return
	case StateRejected:
	default:
		d.done = append(d.done, fn)
	}
	d.mu.Unlock()
}

// OnFail adds a listener; it runs immediately if the resolution already failed.
func (d *Deferred) OnFail(fn FailFunc) {
	d.mu.Lock()
	switch d.state {
	case StateRejected:
		if d.abandoned {
			break
		}
		res, err := d.result, d.err
		d.mu.Unlock()
		fn(res, err)
		return
	case StateResolved:
	default:
		d.fail = append(d.fail, fn)
	}
	d.mu.Unlock()
}

func (d *Deferred) run(ctx context.Context) {
	b := d.broker
	var urls []string
	if len(d.extraURLs) > 0 {
		urls = appendUnique(b.URLsToRequest(d.uri, d.force, true), d.extraURLs...)
	} else {
		urls = b.URLsToRequest(d.uri, d.force, false)
	}
	if len(urls) == 0 {
		d.finish(StateResolved, nil)
		return
	}

	d.setState(StateResolving)
	if b.KnowsAboutResource(d.uri) {
		d.notify()
	}

	results := make(chan error, len(urls))
	for _, url := range urls {
		go func(url string) {
			results <- b.FetchRDF(ctx, url, d.force)
		}(url)
	}

	var errs []error
	for range urls {
		select {
		case err := <-results:
			if err != nil {
				errs = append(errs, err)
				continue
			}
			d.notify()
		case <-ctx.Done():
			d.abandon(ctx.Err())
			return
		}
	}

	if err := ctx.Err(); err != nil {
		d.abandon(err)
		return
	}
	if len(errs) < len(urls) {
		d.finish(StateResolved, nil)
		return
	}
	if len(b.Describers(d.uri)) > 0 {
		d.finish(StateRejected, fmt.Errorf("%w: %s: %w", ErrUnresolved, d.uri, errors.Join(errs...)))
		return
	}
	d.finish(StateResolved, nil)
}

func (d *Deferred) setState(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = s
}

func (d *Deferred) notify() {
	d.mu.Lock()
	listeners := append([]ProgressFunc(nil), d.progress...)
	d.mu.Unlock()
	res := d.broker.Resource(d.uri)
	for _, fn := range listeners {
		fn(res)
	}
}

func (d *Deferred) finish(state State, err error) {
	res := d.broker.Resource(d.uri)

	d.mu.Lock()
	d.state = state
	d.result = res
	d.err = err
	done := d.done
	fail := d.fail
	d.progress, d.done, d.fail = nil, nil, nil
	d.mu.Unlock()
	defer close(d.finished)

	if state == StateResolved {
		for _, fn := range done {
			fn(res)
		}
		return
	}
	for _, fn := range fail {
		fn(res, err)
	}
}

// abandon ends the resolution without calling any listener.
func (d *Deferred) abandon(err error) {
	d.mu.Lock()
	d.state = StateRejected
	d.result = d.broker.Resource(d.uri)
	d.err = err
	d.abandoned = true
	d.progress, d.done, d.fail = nil, nil, nil
	d.mu.Unlock()
	close(d.finished)
}

func appendUnique(list []string, more ...string) []string {
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		seen[s] = true
	}
	for _, s := range more {
		if !seen[s] {
			seen[s] = true
			list = append(list, s)
		}
	}
	return list
}
