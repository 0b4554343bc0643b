// Package server is a reference implementation of the REST semantic store
// the sync service pushes to.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"quadsync/internal/config"
	"quadsync/internal/format"
	"quadsync/internal/store"
)

type Options struct {
	Store   store.Store
	Formats *format.Registry
	REST    config.RESTConfig
	// CSRF requires writes to echo the CSRF cookie in the CSRF header.
	CSRF   bool
	Logger *slog.Logger
}

type Server struct {
	store   store.Store
	formats *format.Registry
	rest    config.RESTConfig
	logger  *slog.Logger
	router  *gin.Engine
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Formats == nil {
		opts.Formats = format.Default(nil, opts.Logger)
	}
	opts.REST = opts.REST.WithDefaults()

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		store:   opts.Store,
		formats: opts.Formats,
		rest:    opts.REST,
		logger:  opts.Logger,
		router:  gin.New(),
	}
	s.router.Use(gin.Recovery(), s.logRequests())
	if opts.CSRF {
		s.router.Use(s.requireCSRF())
	}

	base := "/" + strings.Trim(opts.REST.BasePath, "/")
	if base == "/" {
		base = ""
	}
	projects := base + "/" + strings.Trim(opts.REST.ProjectPath, "/")
	users := base + "/" + strings.Trim(opts.REST.UserPath, "/")

	s.router.GET(projects, s.listProjects)
	s.router.GET(projects+"/:project/*rest", s.getProject)
	s.router.PUT(projects+"/:project/*rest", s.writeProject)
	s.router.POST(projects+"/:project/*rest", s.writeProject)
	s.router.PUT(users+"/*user", s.writeUser)
	s.router.POST(users+"/*user", s.writeUser)
	s.router.GET(users+"/*user", s.getUser)
	s.router.GET(base+"/"+strings.Trim(opts.REST.ResourcePath, "/"), s.getResource)
	s.router.GET(base+"/search", s.search)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errs := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()
	s.logger.Info("semantic store listening", "addr", addr)

	select {
	case err := <-errs:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if c.Writer.Status() >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		s.logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) requireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		cookie, err := c.Cookie(s.rest.CSRFCookie)
		if err != nil || cookie == "" || c.GetHeader(s.rest.CSRFHeader) != cookie {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token missing or incorrect"})
			return
		}
		c.Next()
	}
}
