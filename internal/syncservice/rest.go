package syncservice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"quadsync/internal/rdf"
)

type ResType int

const (
	ResProject ResType = iota
	ResText
	ResResource
	ResAnnotation
	ResUser
	ResCanvas
)

// RestURL builds protocol://host/base/[projects/{project}/][{type}/]{id}.
func (s *Service) RestURL(project string, kind ResType, id string) string {
	r := s.rest
	var b strings.Builder
	b.WriteString(r.Protocol + "://" + strings.TrimRight(r.Host, "/") + "/")
	if base := strings.Trim(r.BasePath, "/"); base != "" {
		b.WriteString(base + "/")
	}
	if project != "" {
		b.WriteString(strings.Trim(r.ProjectPath, "/") + "/" + url.PathEscape(project) + "/")
	}
	switch kind {
	case ResText:
		b.WriteString(strings.Trim(r.TextPath, "/") + "/")
	case ResResource:
		b.WriteString(strings.Trim(r.ResourcePath, "/") + "/")
	case ResAnnotation:
		b.WriteString(strings.Trim(r.AnnotationPath, "/") + "/")
	case ResUser:
		b.WriteString(strings.Trim(r.UserPath, "/") + "/")
	case ResCanvas:
		b.WriteString(strings.Trim(r.CanvasPath, "/") + "/")
	}
	if id != "" {
		b.WriteString(url.PathEscape(id))
	}
	return b.String()
}

// ProjectDownloadURL points at the server's export of a whole project.
func (s *Service) ProjectDownloadURL(project, ext string) string {
	if ext == "" {
		ext = "ttl"
	}
	return s.RestURL(project, ResProject, "") + "download." + ext
}

func (s *Service) sendQuads(ctx context.Context, quads []rdf.Quad, target, method string) error {
	data, err := s.broker.SerializeQuads(quads, s.rest.Format)
	if err != nil {
		return &SendError{URL: target, Method: method, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(data))
	if err != nil {
		return &SendError{URL: target, Method: method, Err: err}
	}
	req.Header.Set("Content-Type", s.rest.Format+"; charset=UTF-8")
	if token := s.csrfToken(req.URL); token != "" {
		req.Header.Set(s.rest.CSRFHeader, token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &SendError{URL: target, Method: method, Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		sendErr := &SendError{URL: target, Method: method, StatusCode: resp.StatusCode}
		if msg := strings.TrimSpace(string(body)); msg != "" {
			sendErr.Err = fmt.Errorf("%s", msg)
		}
		return sendErr
	}
	return nil
}

// csrfToken reads the CSRF cookie for u from the client's jar, falling back
// to a configured static token.
func (s *Service) csrfToken(u *url.URL) string {
	if s.client.Jar != nil {
		for _, c := range s.client.Jar.Cookies(u) {
			if c.Name == s.rest.CSRFCookie {
				return c.Value
			}
		}
	}
	return s.csrf
}
