package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"pizza-rag/internal/config"
	"pizza-rag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnswerer struct {
	answer    string
	err       error
	questions []string
}

func (s *stubAnswerer) Query(_ context.Context, question string) (*models.PromptResponse, error) {
	s.questions = append(s.questions, question)
	if s.err != nil {
		return nil, s.err
	}
	return &models.PromptResponse{
		ID:        "3f1c2a9e-0000-4000-8000-000000000000",
		Query:     question,
		PizzaName: "Margherita",
		Sources:   []models.Source{models.SourceMenu},
		Content:   s.answer,
	}, nil
}

type stubCounter struct {
	n   int
	err error
}

func (c stubCounter) Count(context.Context) (int, error) {
	return c.n, c.err
}

func newTestServer(t *testing.T, a Answerer, c Counter) http.Handler {
	t.Helper()
	srv, err := NewServer(a, c, &config.ServerConfig{Port: 7860})
	require.NoError(t, err)
	return srv.Router()
}

func postForm(h http.Handler, question string) *httptest.ResponseRecorder {
	form := url.Values{"question": {question}}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleForm(t *testing.T) {
	h := newTestServer(t, &stubAnswerer{}, stubCounter{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `name="question"`)
	assert.Contains(t, w.Body.String(), "Assistant Bella Napoli")
}

func TestHandleFormSubmit_RendersAnswer(t *testing.T) {
	a := &stubAnswerer{answer: "Ingrédients de la pizza **Margherita** : tomate, mozzarella"}
	h := newTestServer(t, a, stubCounter{})

	w := postForm(h, "  Quels ingrédients contient la pizza Margherita ?  ")

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, a.questions, 1)
	assert.Equal(t, "Quels ingrédients contient la pizza Margherita ?", a.questions[0])
	assert.Contains(t, w.Body.String(), "<strong>Margherita</strong>")
}

func TestHandleFormSubmit_EscapesRawHTML(t *testing.T) {
	a := &stubAnswerer{answer: "<script>alert(1)</script>"}
	h := newTestServer(t, a, stubCounter{})

	w := postForm(h, "pizza Regina ?")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<script>alert(1)</script>")
}

func TestHandleFormSubmit_EmptyQuestion(t *testing.T) {
	a := &stubAnswerer{}
	h := newTestServer(t, a, stubCounter{})

	w := postForm(h, "   ")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), emptyQuestionMessage)
	assert.Empty(t, a.questions)
}

func TestHandleFormSubmit_ModelFailure(t *testing.T) {
	a := &stubAnswerer{err: errors.New("failed to generate answer: connection refused")}
	h := newTestServer(t, a, stubCounter{})

	w := postForm(h, "pizza Regina ?")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestHandleAsk(t *testing.T) {
	a := &stubAnswerer{answer: "Ingrédients de la pizza Margherita : tomate"}
	h := newTestServer(t, a, stubCounter{})

	body, _ := json.Marshal(askRequest{Question: "Quels ingrédients contient la pizza Margherita ?"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var out askResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, "Margherita", out.Pizza)
	assert.Equal(t, []models.Source{models.SourceMenu}, out.Sources)
	assert.Equal(t, "Ingrédients de la pizza Margherita : tomate", out.Answer)
	assert.NotEmpty(t, out.ID)
}

func TestHandleAsk_BadRequests(t *testing.T) {
	h := newTestServer(t, &stubAnswerer{}, stubCounter{})

	for _, body := range []string{"not json", `{"question": ""}`} {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestHandleAsk_ModelFailure(t *testing.T) {
	h := newTestServer(t, &stubAnswerer{err: errors.New("ollama down")}, stubCounter{})

	r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"question":"pizza Regina ?"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var out map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, "ollama down", out["error"])
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(t, &stubAnswerer{}, stubCounter{n: 12})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, float64(12), out["chunks"])
}

func TestHandleHealth_IndexUnavailable(t *testing.T) {
	h := newTestServer(t, &stubAnswerer{}, stubCounter{err: errors.New("db closed")})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
