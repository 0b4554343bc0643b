package rdf

import (
	"fmt"
	"strings"
)

// Quad is an immutable statement. A zero Context means the default graph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Context   Term
}

func NewQuad(subject, predicate, object, context Term) Quad {
	return Quad{Subject: subject, Predicate: predicate, Object: object, Context: context}
}

func Triple(subject, predicate, object Term) Quad {
	return Quad{Subject: subject, Predicate: predicate, Object: object}
}

// Term returns the component at position 0..3 (subject, predicate, object, context).
func (q Quad) Term(position int) Term {
	switch position {
	case 0:
		return q.Subject
	case 1:
		return q.Predicate
	case 2:
		return q.Object
	default:
		return q.Context
	}
}

// WithTerm returns a copy of q with the component at position replaced.
func (q Quad) WithTerm(position int, t Term) Quad {
	switch position {
	case 0:
		q.Subject = t
	case 1:
		q.Predicate = t
	case 2:
		q.Object = t
	default:
		q.Context = t
	}
	return q
}

// Matches reports whether q fits the pattern; zero pattern terms match anything.
func (q Quad) Matches(s, p, o, c Term) bool {
	return (s.IsZero() || q.Subject == s) &&
		(p.IsZero() || q.Predicate == p) &&
		(o.IsZero() || q.Object == o) &&
		(c.IsZero() || q.Context == c)
}

func (q Quad) Valid() error {
	if q.Subject.IsZero() || q.Predicate.IsZero() || q.Object.IsZero() {
		return fmt.Errorf("%w: quad has empty component", ErrInvalidTerm)
	}
	if q.Subject.IsLiteral() {
		return fmt.Errorf("%w: literal subject %s", ErrInvalidTerm, q.Subject)
	}
	if !q.Predicate.IsIRI() {
		return fmt.Errorf("%w: predicate must be an IRI, got %s", ErrInvalidTerm, q.Predicate)
	}
	if q.Context.IsLiteral() {
		return fmt.Errorf("%w: literal graph name %s", ErrInvalidTerm, q.Context)
	}
	return nil
}

// String renders the quad as one N-Quads line without the trailing newline.
func (q Quad) String() string {
	var b strings.Builder
	b.WriteString(q.Subject.String())
	b.WriteByte(' ')
	b.WriteString(q.Predicate.String())
	b.WriteByte(' ')
	b.WriteString(q.Object.String())
	if !q.Context.IsZero() {
		b.WriteByte(' ')
		b.WriteString(q.Context.String())
	}
	b.WriteString(" .")
	return b.String()
}
