// Package resource is a read/write view over the quad store scoped to one subject.
package resource

import (
	"quadsync/internal/quadstore"
	"quadsync/internal/rdf"
)

// Writer routes mutations through the owner of the change-sets.
type Writer interface {
	AddNewQuad(q rdf.Quad)
	DeleteQuad(q rdf.Quad)
}

// Resource holds no data of its own. Two instances for the same URI are
// independent but Equal.
type Resource struct {
	term   rdf.Term
	graph  rdf.Term
	reader quadstore.Reader
	writer Writer
	titles []rdf.Term
}

type Option func(*Resource)

// InGraph scopes reads and writes to one named graph.
func InGraph(graph rdf.Term) Option {
	return func(r *Resource) { r.graph = graph }
}

// WithTitlePredicates sets the predicates Title consults, in priority order.
func WithTitlePredicates(predicates ...rdf.Term) Option {
	return func(r *Resource) { r.titles = predicates }
}

func New(term rdf.Term, reader quadstore.Reader, writer Writer, opts ...Option) *Resource {
	r := &Resource{
		term:   term,
		reader: reader,
		writer: writer,
		titles: []rdf.Term{rdf.DCTitle, rdf.RDFSLabel},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resource) URI() string    { return r.term.URI() }
func (r *Resource) Term() rdf.Term { return r.term }
func (r *Resource) String() string { return r.term.String() }

func (r *Resource) Equal(other *Resource) bool {
	return other != nil && r.term == other.term && r.graph == other.graph
}

// Equivalents is the resource term plus its owl:sameAs neighbours.
func (r *Resource) Equivalents() []rdf.Term {
	return quadstore.EquivalentTerms(r.reader, r.term)
}

// Properties returns the distinct values of predicate across all equivalent URIs.
func (r *Resource) Properties(predicate rdf.Term) []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var out []rdf.Term
	for _, subject := range r.Equivalents() {
		for _, o := range quadstore.Objects(r.reader, subject, predicate, rdf.Term{}, r.graph) {
			if !seen[o] {
				seen[o] = true
				out = append(out, o)
			}
		}
	}
	return out
}

// OneProperty returns an arbitrary value of predicate.
func (r *Resource) OneProperty(predicate rdf.Term) (rdf.Term, bool) {
	for _, subject := range r.Equivalents() {
		for q := range r.reader.Query(subject, predicate, rdf.Term{}, r.graph) {
			return q.Object, true
		}
	}
	return rdf.Term{}, false
}

// GetOneProperty is OneProperty reduced to the bare value, "" when absent.
func (r *Resource) GetOneProperty(predicate rdf.Term) string {
	if o, ok := r.OneProperty(predicate); ok {
		return o.URI()
	}
	return ""
}

func (r *Resource) HasPredicate(predicate rdf.Term) bool {
	for _, subject := range r.Equivalents() {
		if r.reader.Count(subject, predicate, rdf.Term{}, r.graph) > 0 {
			return true
		}
	}
	return false
}

func (r *Resource) HasProperty(predicate, object rdf.Term) bool {
	for _, subject := range r.Equivalents() {
		if r.reader.Count(subject, predicate, object, r.graph) > 0 {
			return true
		}
	}
	return false
}

func (r *Resource) Types() []rdf.Term {
	return r.Properties(rdf.RDFType)
}

func (r *Resource) HasType(t rdf.Term) bool {
	return r.HasProperty(rdf.RDFType, t)
}

func (r *Resource) HasAnyType(types ...rdf.Term) bool {
	for _, t := range types {
		if r.HasType(t) {
			return true
		}
	}
	return false
}

// ReferencingResources returns the subjects pointing at this resource through predicate.
func (r *Resource) ReferencingResources(predicate rdf.Term) []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var out []rdf.Term
	for _, object := range r.Equivalents() {
		for _, s := range quadstore.Subjects(r.reader, rdf.Term{}, predicate, object, r.graph) {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Title returns the first value found among the title predicates.
func (r *Resource) Title() string {
	for _, predicate := range r.titles {
		if title := r.GetOneProperty(predicate); title != "" {
			return title
		}
	}
	return ""
}

// Quads returns the statements whose subject is exactly this resource.
func (r *Resource) Quads() []rdf.Quad {
	return quadstore.Collect(r.reader, r.term, rdf.Term{}, rdf.Term{}, r.graph)
}

func (r *Resource) AddProperty(predicate, object rdf.Term) {
	r.writer.AddNewQuad(rdf.NewQuad(r.term, predicate, object, r.graph))
}

// SetProperty replaces every value of predicate with object.
func (r *Resource) SetProperty(predicate, object rdf.Term) {
	keep := rdf.NewQuad(r.term, predicate, object, r.graph)
	for _, q := range quadstore.Collect(r.reader, r.term, predicate, rdf.Term{}, r.graph) {
		if q != keep {
			r.writer.DeleteQuad(q)
		}
	}
	r.writer.AddNewQuad(keep)
}

// DeleteProperty removes predicate/object statements; a zero object removes every value.
func (r *Resource) DeleteProperty(predicate, object rdf.Term) {
	for _, q := range quadstore.Collect(r.reader, r.term, predicate, object, r.graph) {
		r.writer.DeleteQuad(q)
	}
}
