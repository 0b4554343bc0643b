package quadstore

import (
	"iter"

	"quadsync/internal/rdf"
)

// Collect materializes a query.
func Collect(r Reader, subject, predicate, object, context rdf.Term) []rdf.Quad {
	var out []rdf.Quad
	for q := range r.Query(subject, predicate, object, context) {
		out = append(out, q)
	}
	return out
}

// Subjects returns the distinct subjects of matching quads in first-seen order.
func Subjects(r Reader, subject, predicate, object, context rdf.Term) []rdf.Term {
	return distinct(r.Query(subject, predicate, object, context), 0)
}

// Objects returns the distinct objects of matching quads in first-seen order.
func Objects(r Reader, subject, predicate, object, context rdf.Term) []rdf.Term {
	return distinct(r.Query(subject, predicate, object, context), 2)
}

func distinct(seq iter.Seq[rdf.Quad], position int) []rdf.Term {
	seen := make(map[rdf.Term]struct{})
	var out []rdf.Term
	for q := range seq {
		t := q.Term(position)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// EquivalentTerms returns t plus every IRI linked to it by owl:sameAs in
// either direction. Only one hop is followed.
func EquivalentTerms(r Reader, t rdf.Term) []rdf.Term {
	out := []rdf.Term{t}
	if !t.IsIRI() {
		return out
	}
	seen := map[rdf.Term]struct{}{t: {}}
	add := func(terms []rdf.Term) {
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			out = append(out, term)
		}
	}
	add(Subjects(r, rdf.Term{}, rdf.OWLSameAs, t, rdf.Term{}))
	add(Objects(r, t, rdf.OWLSameAs, rdf.Term{}, rdf.Term{}))
	return out
}

// AreEquivalent reports whether a and b are equal or directly linked by owl:sameAs.
func AreEquivalent(r Reader, a, b rdf.Term) bool {
	if a == b {
		return true
	}
	return r.Count(a, rdf.OWLSameAs, b, rdf.Term{})+r.Count(b, rdf.OWLSameAs, a, rdf.Term{}) > 0
}
