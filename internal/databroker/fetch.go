package databroker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"quadsync/internal/format"
	"quadsync/internal/rdf"
)

// FetchRDF downloads url and merges its statements into the store. Concurrent
// calls for the same url share one request unless force is set. The shared
// request runs to completion even when ctx is cancelled.
func (b *Broker) FetchRDF(ctx context.Context, url string, force bool) error {
	b.markURL(b.requested, url)
	if force {
		b.fetches.Forget(url)
	}
	ch := b.fetches.DoChan(url, func() (any, error) {
		return nil, b.fetch(context.WithoutCancel(ctx), url)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Broker) fetch(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.ProxyURL(url), nil)
	if err != nil {
		b.markFailed(url)
		return &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", b.formats.AcceptHeader())

	resp, err := b.client.Do(req)
	if err != nil {
		b.markFailed(url)
		b.logger.Warn("fetch failed", "url", url, "error", err)
		return &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b.markFailed(url)
		b.logger.Warn("fetch rejected", "url", url, "status", resp.StatusCode)
		return &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		b.markFailed(url)
		return &FetchError{URL: url, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		b.markReceived(url)
		return nil
	}

	added, err := b.Ingest(ctx, format.Document{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Base:        url,
	})
	if err != nil {
		b.markFailed(url)
		b.logger.Error("could not parse fetched document", "url", url, "error", err)
		return fmt.Errorf("ingesting %s: %w", url, err)
	}
	b.markReceived(url)
	b.logger.Debug("fetched", "url", url, "added", added)
	return nil
}

// Ingest parses doc and merges the result. Blank nodes are renamed to fresh
// store-wide labels, and statements pending local deletion are skipped. It
// returns the number of statements that were new to the store.
func (b *Broker) Ingest(ctx context.Context, doc format.Document) (int, error) {
	arena := b.newArena()
	added := 0
	err := b.formats.Parse(ctx, doc, func(batch []rdf.Quad, _ bool) error {
		added += b.merge(batch, arena)
		return nil
	})
	return added, err
}

func (b *Broker) merge(batch []rdf.Quad, arena *blankArena) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	added := 0
	for _, q := range batch {
		q = arena.rename(q)
		if b.deleted.Contains(q) {
			continue
		}
		if b.store.Add(q) {
			added++
		}
	}
	return added
}

// blankArena maps the blank node labels of one document to labels allocated
// from the broker-wide counter. It lives for a single Ingest call.
type blankArena struct {
	broker *Broker
	labels map[string]rdf.Term
}

func (b *Broker) newArena() *blankArena {
	return &blankArena{broker: b, labels: make(map[string]rdf.Term)}
}

func (a *blankArena) rename(q rdf.Quad) rdf.Quad {
	for pos := 0; pos < 4; pos++ {
		t := q.Term(pos)
		if !t.IsBlank() {
			continue
		}
		renamed, ok := a.labels[t.Value]
		if !ok {
			renamed = rdf.Blank("b" + strconv.FormatUint(a.broker.blankCount.Add(1), 10))
			a.labels[t.Value] = renamed
		}
		q = q.WithTerm(pos, renamed)
	}
	return q
}

func (b *Broker) markURL(set map[string]struct{}, url string) {
	b.urlMu.Lock()
	defer b.urlMu.Unlock()
	set[url] = struct{}{}
}

func (b *Broker) markReceived(url string) {
	b.urlMu.Lock()
	defer b.urlMu.Unlock()
	b.received[url] = struct{}{}
	delete(b.failed, url)
}

func (b *Broker) markFailed(url string) {
	b.urlMu.Lock()
	defer b.urlMu.Unlock()
	b.failed[url] = struct{}{}
	delete(b.received, url)
}

func (b *Broker) hasURL(set map[string]struct{}, url string) bool {
	b.urlMu.Lock()
	defer b.urlMu.Unlock()
	_, ok := set[url]
	return ok
}

func (b *Broker) WasRequested(url string) bool { return b.hasURL(b.requested, url) }
func (b *Broker) WasReceived(url string) bool  { return b.hasURL(b.received, url) }
func (b *Broker) HasFailed(url string) bool    { return b.hasURL(b.failed, url) }
