package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quadsync/internal/format"
	"quadsync/internal/rdf"
	"quadsync/internal/store"
)

const maxBody = 32 << 20

var downloadTypes = map[string]string{
	"ttl": "text/turtle",
	"nt":  "application/n-triples",
	"nq":  "application/n-quads",
}

func (s *Server) listProjects(c *gin.Context) {
	graphs, err := s.store.ListGraphs(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	out := make([]gin.H, 0, len(graphs))
	for _, g := range graphs {
		if g.Name == store.UsersGraph {
			continue
		}
		out = append(out, gin.H{"project": g.Name, "quads": g.Quads})
	}
	c.JSON(http.StatusOK, out)
}

// getProject serves the whole project graph at "/" and "/download.{ext}".
func (s *Server) getProject(c *gin.Context) {
	project := c.Param("project")
	rest := strings.Trim(c.Param("rest"), "/")

	contentType := negotiate(c.GetHeader("Accept"))
	switch {
	case rest == "":
	case strings.HasPrefix(rest, "download."):
		ct, ok := downloadTypes[strings.TrimPrefix(rest, "download.")]
		if !ok {
			s.fail(c, http.StatusNotAcceptable, fmt.Errorf("unsupported download format %q", rest))
			return
		}
		contentType = ct
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", project+"."+strings.TrimPrefix(rest, "download.")))
	default:
		s.fail(c, http.StatusNotFound, fmt.Errorf("no such project resource %q", rest))
		return
	}

	quads, err := s.store.GraphQuads(c.Request.Context(), project)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	s.writeQuads(c, quads, contentType)
}

// writeProject handles every write below a project: whole-text overwrites,
// statement additions and "remove_triples".
func (s *Server) writeProject(c *gin.Context) {
	project := c.Param("project")
	rest := strings.Trim(c.Param("rest"), "/")

	quads, ok := s.readQuads(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	kind, id, _ := strings.Cut(rest, "/")
	switch {
	case rest == "":
		n, err := s.store.AddQuads(ctx, project, quads)
		s.respond(c, "added", n, err)
	case rest == "remove_triples":
		n, err := s.store.RemoveQuads(ctx, project, quads)
		s.respond(c, "removed", n, err)
	case kind == s.segment(s.rest.TextPath) && id != "":
		err := s.store.ReplaceSubject(ctx, project, rdf.TermFromURI(id), quads)
		s.respond(c, "added", int64(len(quads)), err)
	case (kind == s.segment(s.rest.ResourcePath) || kind == s.segment(s.rest.AnnotationPath) || kind == s.segment(s.rest.CanvasPath)) && id != "":
		n, err := s.store.AddQuads(ctx, project, quads)
		s.respond(c, "added", n, err)
	default:
		s.fail(c, http.StatusNotFound, fmt.Errorf("no such project resource %q", rest))
	}
}

func (s *Server) writeUser(c *gin.Context) {
	user := strings.Trim(c.Param("user"), "/")
	if user == "" {
		s.fail(c, http.StatusNotFound, errors.New("user name required"))
		return
	}
	quads, ok := s.readQuads(c)
	if !ok {
		return
	}
	n, err := s.store.AddQuads(c.Request.Context(), store.UsersGraph, quads)
	s.respond(c, "added", n, err)
}

func (s *Server) getUser(c *gin.Context) {
	user := strings.Trim(c.Param("user"), "/")
	quads, err := s.store.GraphQuads(c.Request.Context(), store.UsersGraph)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	var out []rdf.Quad
	for _, q := range quads {
		if q.Subject.IsIRI() && userName(q.Subject.Value) == user {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		s.fail(c, http.StatusNotFound, fmt.Errorf("unknown user %q", user))
		return
	}
	s.writeQuads(c, out, negotiate(c.GetHeader("Accept")))
}

// getResource is a describer document: every statement about ?uri=.
func (s *Server) getResource(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		s.fail(c, http.StatusBadRequest, errors.New("uri query parameter required"))
		return
	}
	quads, err := s.store.SubjectQuads(c.Request.Context(), rdf.TermFromURI(uri))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if len(quads) == 0 {
		s.fail(c, http.StatusNotFound, fmt.Errorf("nothing known about %s", uri))
		return
	}
	s.writeQuads(c, quads, negotiate(c.GetHeader("Accept")))
}

func (s *Server) search(c *gin.Context) {
	results, err := s.store.Search(c.Request.Context(), c.Query("q"), c.Query("project"))
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) readQuads(c *gin.Context) ([]rdf.Quad, bool) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
	if err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("reading body: %w", err))
		return nil, false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, true
	}
	quads, err := s.formats.ParseAll(c.Request.Context(), format.Document{
		Data:        data,
		ContentType: c.ContentType(),
		Base:        requestURL(c.Request),
	})
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return nil, false
	}
	return quads, true
}

func (s *Server) writeQuads(c *gin.Context, quads []rdf.Quad, contentType string) {
	data, err := s.formats.Serialize(quads, contentType)
	if err != nil {
		s.fail(c, http.StatusNotAcceptable, err)
		return
	}
	c.Data(http.StatusOK, contentType+"; charset=utf-8", data)
}

func (s *Server) respond(c *gin.Context, key string, n int64, err error) {
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{key: n})
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) segment(path string) string { return strings.Trim(path, "/") }

// negotiate picks the first serializable type from an Accept header.
func negotiate(accept string) string {
	for _, part := range strings.Split(accept, ",") {
		ct := format.NormalizeContentType(part)
		for _, known := range downloadTypes {
			if ct == known {
				return ct
			}
		}
	}
	return "text/turtle"
}

func userName(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}
