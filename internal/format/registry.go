package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quadsync/internal/rdf"
)

// Registry keeps parsers and serializers in registration order, indexed by
// the content types they declare.
type Registry struct {
	parsers     []Parser
	byType      map[string][]Parser
	serializers []Serializer
	logger      *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{byType: make(map[string][]Parser), logger: logger}
}

// Default registers Turtle, RDF/XML and N-Quads parsers, in that order, and
// Turtle plus N-Quads serializers.
func Default(ns *rdf.Namespaces, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.RegisterParser(TurtleParser{})
	r.RegisterParser(RDFXMLParser{})
	r.RegisterParser(NQuadsParser{})
	r.RegisterSerializer(&TurtleSerializer{Namespaces: ns})
	r.RegisterSerializer(NQuadsSerializer{})
	return r
}

func (r *Registry) RegisterParser(p Parser) {
	r.parsers = append(r.parsers, p)
	for _, ct := range p.ContentTypes() {
		ct = NormalizeContentType(ct)
		r.byType[ct] = append(r.byType[ct], p)
	}
}

func (r *Registry) RegisterSerializer(s Serializer) {
	r.serializers = append(r.serializers, s)
}

// ParseableTypes lists every content type a registered parser accepts, in
// registration order without duplicates.
func (r *Registry) ParseableTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.parsers {
		for _, ct := range p.ContentTypes() {
			if !strings.Contains(ct, "/") || seen[ct] {
				continue
			}
			seen[ct] = true
			out = append(out, ct)
		}
	}
	return out
}

// AcceptHeader is the value sent with every fetch.
func (r *Registry) AcceptHeader() string {
	return strings.Join(r.ParseableTypes(), ", ")
}

// Parse tries the parsers registered for the document's content type, or all
// parsers when none match, until one succeeds. Errors returned by emit are
// passed through without trying further parsers.
func (r *Registry) Parse(ctx context.Context, doc Document, emit EmitFunc) error {
	if len(r.parsers) == 0 {
		return ErrNoParser
	}
	candidates := r.byType[NormalizeContentType(doc.ContentType)]
	if len(candidates) == 0 {
		candidates = r.parsers
	}

	var errs []error
	for _, p := range candidates {
		emitted := false
		err := p.Parse(ctx, doc, func(batch []rdf.Quad, done bool) error {
			emitted = true
			return emit(batch, done)
		})
		if err == nil {
			return nil
		}
		if emitted || !errors.Is(err, ErrParse) {
			return err
		}
		r.logger.Warn("parser failed, trying next", "parser", p.Name(), "content_type", doc.ContentType, "error", err)
		errs = append(errs, err)
	}
	return fmt.Errorf("parsing %q document: %w", doc.ContentType, errors.Join(errs...))
}

// SerializerFor looks a serializer up by name or content type.
func (r *Registry) SerializerFor(format string) (Serializer, error) {
	want := NormalizeContentType(format)
	for _, s := range r.serializers {
		if strings.EqualFold(s.Name(), format) {
			return s, nil
		}
		for _, ct := range s.ContentTypes() {
			if ct == want {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSerializer, format)
}

func (r *Registry) Serialize(quads []rdf.Quad, format string) ([]byte, error) {
	s, err := r.SerializerFor(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.Serialize(&buf, quads); err != nil {
		return nil, fmt.Errorf("serializing %s: %w", s.Name(), err)
	}
	return buf.Bytes(), nil
}

// ParseAll collects every quad of a document.
func (r *Registry) ParseAll(ctx context.Context, doc Document) ([]rdf.Quad, error) {
	var out []rdf.Quad
	err := r.Parse(ctx, doc, func(batch []rdf.Quad, _ bool) error {
		out = append(out, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
