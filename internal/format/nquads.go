package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"quadsync/internal/rdf"
)

// NQuadsParser reads N-Quads and, as a subset, N-Triples. A quad that names
// its own graph keeps it; the document graph only fills the default graph.
type NQuadsParser struct{}

func (NQuadsParser) Name() string { return "nquads" }

func (NQuadsParser) ContentTypes() []string {
	return []string{"application/n-quads", "application/n-triples", "text/x-nquads", "nquads", "ntriples"}
}

func (p NQuadsParser) Parse(ctx context.Context, doc Document, emit EmitFunc) error {
	r := nquads.NewReader(bytes.NewReader(doc.Data), true)
	var quads []rdf.Quad
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cq, err := r.ReadQuad()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return parseError(p.Name(), err)
		}
		q, err := fromCayley(cq, doc.Graph)
		if err != nil {
			return parseError(p.Name(), err)
		}
		quads = append(quads, q)
	}
	return emitChunks(ctx, quads, emit)
}

func fromCayley(cq quad.Quad, graph rdf.Term) (rdf.Quad, error) {
	var q rdf.Quad
	for pos, v := range []quad.Value{cq.Subject, cq.Predicate, cq.Object, cq.Label} {
		if v == nil {
			continue
		}
		t, err := cayleyTerm(v)
		if err != nil {
			return rdf.Quad{}, err
		}
		q = q.WithTerm(pos, t)
	}
	if q.Context.IsZero() {
		q.Context = graph
	}
	return q, q.Valid()
}

func cayleyTerm(v quad.Value) (rdf.Term, error) {
	switch v := v.(type) {
	case quad.IRI:
		return rdf.IRI(string(v)), nil
	case quad.BNode:
		return rdf.Blank(string(v)), nil
	case quad.String:
		return rdf.Literal(string(v)), nil
	case quad.LangString:
		return rdf.LangLiteral(string(v.Value), v.Lang), nil
	case quad.TypedString:
		return rdf.TypedLiteral(string(v.Value), string(v.Type)), nil
	default:
		return rdf.ParseTerm(v.String())
	}
}

func toCayley(t rdf.Term) quad.Value {
	switch t.Kind {
	case rdf.KindIRI:
		return quad.IRI(t.Value)
	case rdf.KindBlank:
		return quad.BNode(t.Value)
	case rdf.KindLiteral:
		switch {
		case t.Lang != "":
			return quad.LangString{Value: quad.String(t.Value), Lang: t.Lang}
		case t.Datatype != "":
			return quad.TypedString{Value: quad.String(t.Value), Type: quad.IRI(t.Datatype)}
		default:
			return quad.String(t.Value)
		}
	default:
		return nil
	}
}

type NQuadsSerializer struct{}

func (NQuadsSerializer) Name() string { return "nquads" }

func (NQuadsSerializer) ContentTypes() []string {
	return []string{"application/n-quads", "application/n-triples", "text/x-nquads"}
}

func (NQuadsSerializer) Serialize(w io.Writer, quads []rdf.Quad) error {
	enc := nquads.NewWriter(w)
	for _, q := range quads {
		cq := quad.Quad{
			Subject:   toCayley(q.Subject),
			Predicate: toCayley(q.Predicate),
			Object:    toCayley(q.Object),
			Label:     toCayley(q.Context),
		}
		if err := enc.WriteQuad(cq); err != nil {
			return fmt.Errorf("writing %s: %w", q, err)
		}
	}
	return enc.Close()
}
