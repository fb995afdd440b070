package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"pizza-rag/internal/models"
)

const emptyQuestionMessage = "Veuillez saisir une question."

type page struct {
	Question string
	Answer   template.HTML
	Error    string
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	ID       string          `json:"id"`
	Question string          `json:"question"`
	Pizza    string          `json:"pizza,omitempty"`
	Sources  []models.Source `json:"sources"`
	Answer   string          `json:"answer"`
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, page{})
}

func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, r, http.StatusBadRequest, page{Error: "invalid form"})
		return
	}
	question := strings.TrimSpace(r.PostFormValue("question"))
	if question == "" {
		s.renderPage(w, r, http.StatusBadRequest, page{Error: emptyQuestionMessage})
		return
	}

	resp, err := s.rag.Query(r.Context(), question)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("question", question).Msg("answer failed")
		s.renderPage(w, r, http.StatusBadGateway, page{Question: question, Error: err.Error()})
		return
	}
	hlog.FromRequest(r).Debug().Str("id", resp.ID).Str("pizza", resp.PizzaName).Msg("answered")
	s.renderPage(w, r, http.StatusOK, page{Question: question, Answer: s.renderMarkdown(r, resp.Content)})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	resp, err := s.rag.Query(r.Context(), question)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("question", question).Msg("answer failed")
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	sources := resp.Sources
	if sources == nil {
		sources = []models.Source{}
	}
	s.respondJSON(w, http.StatusOK, askResponse{
		ID:       resp.ID,
		Question: resp.Query,
		Pizza:    resp.PizzaName,
		Sources:  sources,
		Answer:   resp.Content,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.index.Count(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("health: count chunks failed")
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "chunks": count})
}

// renderMarkdown converts the model output to HTML. Raw HTML in the
// output is not passed through.
func (s *Server) renderMarkdown(r *http.Request, content string) template.HTML {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("markdown rendering failed")
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(buf.String())
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, p page) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", p); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("template rendering failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
