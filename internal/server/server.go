// Package server serves the question form and the JSON API.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"pizza-rag/internal/config"
	"pizza-rag/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Answerer answers one question.
type Answerer interface {
	Query(ctx context.Context, question string) (*models.PromptResponse, error)
}

// Counter reports the size of the index.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type Server struct {
	rag    Answerer
	index  Counter
	config *config.ServerConfig
	tmpl   *template.Template
	md     goldmark.Markdown
	server *http.Server
}

func NewServer(rag Answerer, index Counter, cfg *config.ServerConfig) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	s := &Server{
		rag:    rag,
		index:  index,
		config: cfg,
		tmpl:   tmpl,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
	// built up front so Stop can run concurrently with Start
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.Router(),
	}
	return s, nil
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleForm)
	r.Post("/", s.handleFormSubmit)
	r.Post("/api/v1/ask", s.handleAsk)
	r.Get("/health", s.handleHealth)
	return r
}

// Start serves until Stop is called. After Stop it returns
// http.ErrServerClosed.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
