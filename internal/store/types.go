package store

import (
	"fmt"

	"quadsync/internal/rdf"
)

type GraphSummary struct {
	Name  string
	Quads int64
}

type SearchResult struct {
	Graph     string
	Subject   string
	Predicate string
	Value     string
	Score     float64
	Snippet   string
}

// Row is the column form of a statement: each term in N-Triples syntax.
type Row struct {
	Subject   string
	Predicate string
	Object    string
}

func RowFor(q rdf.Quad) Row {
	return Row{Subject: q.Subject.String(), Predicate: q.Predicate.String(), Object: q.Object.String()}
}

// Quad decodes the row into a default-graph statement.
func (r Row) Quad() (rdf.Quad, error) {
	s, err := rdf.ParseTerm(r.Subject)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("decoding subject: %w", err)
	}
	p, err := rdf.ParseTerm(r.Predicate)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("decoding predicate: %w", err)
	}
	o, err := rdf.ParseTerm(r.Object)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("decoding object: %w", err)
	}
	return rdf.Triple(s, p, o), nil
}

// SearchValue is the text indexed for full-text search: the lexical form of
// literals, nothing for other terms.
func SearchValue(o rdf.Term) string {
	if o.IsLiteral() {
		return o.Value
	}
	return ""
}
