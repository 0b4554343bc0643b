// Package datamodel knows which rdf:type values put a resource in which
// category and which statements belong to a resource when it is synced.
package datamodel

import (
	"quadsync/internal/config"
	"quadsync/internal/quadstore"
	"quadsync/internal/rdf"
)

type Category int

const (
	CategoryUnknown Category = iota
	CategoryText
	CategoryCanvas
	CategoryAnnotation
	CategoryProject
	CategoryUser
	CategorySpecificResource
	CategorySelector
)

// classifyOrder decides ties for resources carrying types of several categories.
var classifyOrder = []Category{
	CategoryText,
	CategoryCanvas,
	CategoryAnnotation,
	CategoryProject,
	CategoryUser,
	CategorySpecificResource,
	CategorySelector,
}

func (c Category) String() string {
	switch c {
	case CategoryText:
		return "text"
	case CategoryCanvas:
		return "canvas"
	case CategoryAnnotation:
		return "annotation"
	case CategoryProject:
		return "project"
	case CategoryUser:
		return "user"
	case CategorySpecificResource:
		return "specific_resource"
	case CategorySelector:
		return "selector"
	default:
		return "unknown"
	}
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(name string) Category {
	for _, c := range classifyOrder {
		if c.String() == name {
			return c
		}
	}
	return CategoryUnknown
}

type Model struct {
	types  map[Category][]rdf.Term
	titles []rdf.Term
}

func New(v config.Vocabulary, ns *rdf.Namespaces) *Model {
	expand := func(values []string) []rdf.Term {
		return ns.AutoExpandAll(values...)
	}
	return &Model{
		types: map[Category][]rdf.Term{
			CategoryText:             expand(v.Text),
			CategoryCanvas:           expand(v.Canvas),
			CategoryAnnotation:       expand(v.Annotation),
			CategoryProject:          expand(v.Project),
			CategoryUser:             expand(v.User),
			CategorySpecificResource: expand(v.SpecificResource),
			CategorySelector:         expand(v.Selector),
		},
		titles: expand(v.Title),
	}
}

// Default uses the built-in vocabulary and namespaces.
func Default() *Model {
	return New(config.DefaultVocabulary(), rdf.NewNamespaces(nil))
}

func (m *Model) Types(c Category) []rdf.Term { return m.types[c] }

func (m *Model) TitlePredicates() []rdf.Term { return m.titles }

// Classify returns the first category, in a fixed priority order, whose types
// the subject carries in r.
func (m *Model) Classify(r quadstore.Reader, subject rdf.Term) Category {
	for _, c := range classifyOrder {
		for _, t := range m.types[c] {
			if r.Count(subject, rdf.RDFType, t, rdf.Term{}) > 0 {
				return c
			}
		}
	}
	return CategoryUnknown
}

// QuadsForText returns every statement about the text plus statements about
// blank nodes it owns. Texts are overwritten as a whole on the server.
func (m *Model) QuadsForText(r quadstore.Reader, text rdf.Term) []rdf.Quad {
	return closure(r, text, nil)
}

// QuadsForAnnotation follows the annotation into its bodies, targets and
// their selectors.
func (m *Model) QuadsForAnnotation(r quadstore.Reader, anno rdf.Term) []rdf.Quad {
	return closure(r, anno, map[rdf.Term]bool{rdf.OAHasBody: true, rdf.OAHasTarget: true, rdf.OAHasSelector: true})
}

func (m *Model) QuadsForSpecificResource(r quadstore.Reader, specific rdf.Term) []rdf.Quad {
	return closure(r, specific, map[rdf.Term]bool{rdf.OAHasSelector: true})
}

func (m *Model) QuadsForCanvas(r quadstore.Reader, canvas rdf.Term) []rdf.Quad {
	return quadstore.Collect(r, canvas, rdf.Term{}, rdf.Term{}, rdf.Term{})
}

func (m *Model) QuadsForProject(r quadstore.Reader, project rdf.Term) []rdf.Quad {
	return closure(r, project, nil)
}

func (m *Model) QuadsForUser(r quadstore.Reader, user rdf.Term) []rdf.Quad {
	return quadstore.Collect(r, user, rdf.Term{}, rdf.Term{}, rdf.Term{})
}

// MetadataQuads are the statements a project needs to list an aggregated
// resource without fetching it: types, titles, describers and creation stamps.
func (m *Model) MetadataQuads(r quadstore.Reader, subject rdf.Term) []rdf.Quad {
	predicates := append([]rdf.Term{rdf.RDFType, rdf.OREIsDescribedBy, rdf.DCCreator, rdf.DCCreated}, m.titles...)
	var out []rdf.Quad
	for _, p := range predicates {
		out = append(out, quadstore.Collect(r, subject, p, rdf.Term{}, rdf.Term{})...)
	}
	return out
}

// SelectorOwner returns the specific resource that points at selector.
func (m *Model) SelectorOwner(r quadstore.Reader, selector rdf.Term) (rdf.Term, bool) {
	owners := quadstore.Subjects(r, rdf.Term{}, rdf.OAHasSelector, selector, rdf.Term{})
	if len(owners) == 0 {
		return rdf.Term{}, false
	}
	return owners[0], true
}

var manifestTypes = []rdf.Term{rdf.IRI(rdf.NSSC + "Manifest"), rdf.IRI(rdf.NSDMS + "Manifest")}

// ResourcesForCanvas lists the annotation and image lists declared for canvas.
func (m *Model) ResourcesForCanvas(r quadstore.Reader, canvas rdf.Term) []rdf.Term {
	return quadstore.Subjects(r, rdf.Term{}, rdf.SCForCanvas, canvas, rdf.Term{})
}

// ManifestsContainingCanvas follows ore:aggregates upwards from canvas and
// stops at the first manifest on each path.
func (m *Model) ManifestsContainingCanvas(r quadstore.Reader, canvas rdf.Term) []rdf.Term {
	var out []rdf.Term
	visited := map[rdf.Term]bool{canvas: true}
	queue := []rdf.Term{canvas}
	for len(queue) > 0 {
		child := queue[0]
		queue = queue[1:]
		for _, parent := range quadstore.Subjects(r, rdf.Term{}, rdf.OREAggregates, child, rdf.Term{}) {
			if visited[parent] {
				continue
			}
			visited[parent] = true
			if hasAnyType(r, parent, manifestTypes) {
				out = append(out, parent)
				continue
			}
			queue = append(queue, parent)
		}
	}
	return out
}

// ManifestAggregations lists the sequences and lists a manifest aggregates.
func (m *Model) ManifestAggregations(r quadstore.Reader, manifest rdf.Term) []rdf.Term {
	var out []rdf.Term
	for _, t := range quadstore.Objects(r, manifest, rdf.OREAggregates, rdf.Term{}, rdf.Term{}) {
		if !t.IsBlank() && !t.IsLiteral() {
			out = append(out, t)
		}
	}
	return out
}

func hasAnyType(r quadstore.Reader, subject rdf.Term, types []rdf.Term) bool {
	for _, t := range types {
		if r.Count(subject, rdf.RDFType, t, rdf.Term{}) > 0 {
			return true
		}
	}
	return false
}

// closure collects the statements about start, then about every blank node
// object and every object reached through a followed predicate.
func closure(r quadstore.Reader, start rdf.Term, follow map[rdf.Term]bool) []rdf.Quad {
	var out []rdf.Quad
	visited := map[rdf.Term]bool{start: true}
	queue := []rdf.Term{start}
	for len(queue) > 0 {
		subject := queue[0]
		queue = queue[1:]
		for q := range r.Query(subject, rdf.Term{}, rdf.Term{}, rdf.Term{}) {
			out = append(out, q)
			o := q.Object
			if visited[o] || o.IsLiteral() {
				continue
			}
			if o.IsBlank() || follow[q.Predicate] {
				visited[o] = true
				queue = append(queue, o)
			}
		}
	}
	return out
}
