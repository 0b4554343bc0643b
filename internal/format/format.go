// Package format converts between RDF wire formats and quad batches.
package format

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"quadsync/internal/rdf"
)

var (
	// ErrParse marks a document no parser could decode.
	ErrParse = errors.New("parse failed")
	// ErrNoParser is returned when the registry has no parser at all.
	ErrNoParser       = errors.New("no parser registered")
	ErrNoSerializer   = errors.New("no serializer for format")
	ErrUnsupportedRDF = errors.New("unsupported RDF construct")
)

// ChunkSize is the number of quads handed to an EmitFunc per call.
const ChunkSize = 1500

// Document is one raw payload to decode.
type Document struct {
	Data        []byte
	ContentType string
	// Base resolves relative IRIs where the format allows it.
	Base string
	// Graph is the context of every produced quad; zero means the default graph.
	Graph rdf.Term
}

// EmitFunc receives decoded quads. It is called once per chunk and exactly
// once with done set. Returning an error stops the parse.
type EmitFunc func(batch []rdf.Quad, done bool) error

// Parser decodes a whole document before emitting anything, so a structural
// failure never yields a partial batch.
type Parser interface {
	Name() string
	ContentTypes() []string
	Parse(ctx context.Context, doc Document, emit EmitFunc) error
}

type Serializer interface {
	Name() string
	ContentTypes() []string
	Serialize(w io.Writer, quads []rdf.Quad) error
}

// NormalizeContentType strips parameters and lowercases the media type.
func NormalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// emitChunks delivers quads in ChunkSize slices, checking ctx between chunks.
func emitChunks(ctx context.Context, quads []rdf.Quad, emit EmitFunc) error {
	for len(quads) > ChunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(quads[:ChunkSize], false); err != nil {
			return err
		}
		quads = quads[ChunkSize:]
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return emit(quads, true)
}

func parseError(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrParse, name, err)
}
