// Package client wires a project config into a data broker and a sync
// service and exposes the operations user-facing tools need.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"

	"quadsync/internal/config"
	"quadsync/internal/databroker"
	"quadsync/internal/datamodel"
	"quadsync/internal/format"
	"quadsync/internal/rdf"
	"quadsync/internal/resource"
	"quadsync/internal/syncservice"
)

type Client struct {
	cfg    *config.ProjectConfig
	ns     *rdf.Namespaces
	broker *databroker.Broker
	sync   *syncservice.Service
	logger *slog.Logger
}

func New(cfg *config.ProjectConfig, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("creating client: config is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ns := rdf.NewNamespaces(cfg.Namespaces)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout, Jar: jar}

	rewrites := make([]databroker.ImageRewrite, 0, len(cfg.Images.Rewrites))
	for _, rw := range cfg.Images.Rewrites {
		rewrites = append(rewrites, databroker.ImageRewrite{From: rw.From, To: rw.To})
	}

	broker := databroker.New(databroker.Options{
		Namespaces:    ns,
		Formats:       format.Default(ns, logger),
		Model:         datamodel.New(cfg.Vocabulary, ns),
		HTTPClient:    httpClient,
		Logger:        logger.With("component", "databroker"),
		User:          cfg.User,
		Proxy:         cfg.Fetch.Proxy,
		LocalHost:     cfg.Fetch.LocalHost,
		CORSDomains:   cfg.Fetch.CORSDomains,
		ImageRewrites: rewrites,
	})

	svc := syncservice.New(broker, syncservice.Options{
		Project:     cfg.Project,
		REST:        cfg.REST,
		HTTPClient:  httpClient,
		Interval:    cfg.Sync.Interval,
		Concurrency: cfg.Sync.Concurrency,
		Logger:      logger.With("component", "sync"),
	})

	return &Client{cfg: cfg, ns: ns, broker: broker, sync: svc, logger: logger}, nil
}

func (c *Client) Config() *config.ProjectConfig     { return c.cfg }
func (c *Client) Broker() *databroker.Broker        { return c.broker }
func (c *Client) SyncService() *syncservice.Service { return c.sync }

// GetResource returns whatever the store currently knows about uri without
// fetching anything. Prefixed names such as "dm:Project" are expanded.
func (c *Client) GetResource(uri string) *resource.Resource {
	return c.broker.ResourceFor(c.term(uri))
}

// GetDeferredResource resolves uri from its describers or guessed URLs.
func (c *Client) GetDeferredResource(ctx context.Context, uri string, opts ...databroker.DeferredOption) *databroker.Deferred {
	return c.broker.GetDeferredResource(ctx, c.term(uri).URI(), opts...)
}

// CreateResource registers a new local resource; types may be prefixed names.
func (c *Client) CreateResource(uri string, types ...string) (*resource.Resource, error) {
	terms := c.ns.AutoExpandAll(types...)
	if uri != "" {
		uri = c.term(uri).URI()
	}
	return c.broker.CreateResource(uri, terms...)
}

// Sync runs one pass immediately.
func (c *Client) Sync(ctx context.Context) (syncservice.Report, error) {
	return c.sync.Pass(ctx)
}

// RequestSync wakes a running Start loop.
func (c *Client) RequestSync() { c.sync.RequestSync() }

// Start runs periodic synchronization until ctx is done.
func (c *Client) Start(ctx context.Context) error {
	c.logger.Info("sync loop started", "project", c.cfg.Project, "interval", c.cfg.Sync.Interval)
	return c.sync.Run(ctx)
}

func (c *Client) CreateUUID() string { return c.broker.CreateUUID() }

func (c *Client) GetImageSrc(uri string, width, height int) string {
	return c.broker.ImageSrc(uri, width, height)
}

func (c *Client) HasUnsavedChanges() bool { return c.sync.HasUnsavedChanges() }

func (c *Client) HasSyncErrors() bool { return c.broker.HasSyncErrors() }

// ProjectDownloadURL points at the server export of the configured project.
func (c *Client) ProjectDownloadURL(ext string) string {
	return c.sync.ProjectDownloadURL(c.cfg.Project, ext)
}

// Term expands a prefixed name or unwraps a bracketed IRI.
func (c *Client) Term(value string) rdf.Term { return c.term(value) }

func (c *Client) term(value string) rdf.Term {
	return c.ns.AutoExpand(value)
}

// DeleteResource removes uri locally and queues the deletion for sync.
func (c *Client) DeleteResource(uri string) {
	c.broker.DeleteResource(c.term(uri).URI())
}

// Dump serializes everything the client currently knows.
func (c *Client) Dump(format string) ([]byte, error) {
	if format == "" {
		format = c.cfg.REST.Format
	}
	return c.broker.Dump(format)
}
