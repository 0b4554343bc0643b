package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	krdf "github.com/knakk/rdf"

	"quadsync/internal/rdf"
)

// TurtleParser reads Turtle and the Turtle-compatible subset of N3.
type TurtleParser struct{}

func (TurtleParser) Name() string { return "turtle" }

func (TurtleParser) ContentTypes() []string {
	return []string{"text/turtle", "text/n3", "application/x-turtle", "turtle", "n3"}
}

func (p TurtleParser) Parse(ctx context.Context, doc Document, emit EmitFunc) error {
	data := doc.Data
	if doc.Base != "" {
		data = append([]byte("@base <"+doc.Base+"> .\n"), data...)
	}
	quads, err := decodeTriples(ctx, krdf.NewTripleDecoder(bytes.NewReader(data), krdf.Turtle), doc.Graph)
	if err != nil {
		return parseError(p.Name(), err)
	}
	return emitChunks(ctx, quads, emit)
}

type RDFXMLParser struct{}

func (RDFXMLParser) Name() string { return "rdfxml" }

func (RDFXMLParser) ContentTypes() []string {
	return []string{"application/rdf+xml", "text/rdf+xml", "application/xml", "text/xml", "xml", "rdf"}
}

func (p RDFXMLParser) Parse(ctx context.Context, doc Document, emit EmitFunc) error {
	if trimmed := bytes.TrimSpace(doc.Data); len(trimmed) > 0 && trimmed[0] != '<' {
		return parseError(p.Name(), errors.New("document is not XML"))
	}
	quads, err := decodeTriples(ctx, krdf.NewTripleDecoder(bytes.NewReader(doc.Data), krdf.RDFXML), doc.Graph)
	if err != nil {
		return parseError(p.Name(), err)
	}
	return emitChunks(ctx, quads, emit)
}

func decodeTriples(ctx context.Context, dec krdf.TripleDecoder, graph rdf.Term) ([]rdf.Quad, error) {
	var quads []rdf.Quad
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return quads, nil
		}
		if err != nil {
			return nil, err
		}
		q, err := fromKnakk(tr, graph)
		if err != nil {
			return nil, err
		}
		quads = append(quads, q)
	}
}

func fromKnakk(tr krdf.Triple, graph rdf.Term) (rdf.Quad, error) {
	s, err := knakkTerm(tr.Subj)
	if err != nil {
		return rdf.Quad{}, err
	}
	p, err := knakkTerm(tr.Pred)
	if err != nil {
		return rdf.Quad{}, err
	}
	o, err := knakkTerm(tr.Obj)
	if err != nil {
		return rdf.Quad{}, err
	}
	return rdf.NewQuad(s, p, o, graph), nil
}

func knakkTerm(t krdf.Term) (rdf.Term, error) {
	switch v := t.(type) {
	case krdf.IRI:
		return rdf.IRI(v.String()), nil
	case krdf.Blank:
		return rdf.Blank(v.String()), nil
	case krdf.Literal:
		if v.Lang() != "" {
			return rdf.LangLiteral(v.String(), v.Lang()), nil
		}
		return rdf.TypedLiteral(v.String(), v.DataType.String()), nil
	default:
		return rdf.Term{}, fmt.Errorf("%w: term %T", ErrUnsupportedRDF, t)
	}
}
