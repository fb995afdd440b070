package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"pizza-rag/internal/helper"
	"pizza-rag/internal/llmservice"
	"pizza-rag/internal/models"
	"pizza-rag/internal/vectorstore"
)

// Retriever returns the chunks closest to a query.
type Retriever struct {
	store    vectorstore.Store
	embedder embeddings.Embedder
	topK     int
}

func NewRetriever(store vectorstore.Store, embedder embeddings.Embedder, topK int) *Retriever {
	return &Retriever{store: store, embedder: embedder, topK: topK}
}

// Retrieve embeds query and returns up to topK chunks, nearest first. There
// is no threshold, re-ranking or source filter.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.SearchResult, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return r.store.Search(ctx, queryEmbedding, r.topK)
}

// RAG answers questions from the retrieved chunks. It holds no per-request
// state and is shared by all handlers.
type RAG struct {
	retriever *Retriever
	llm       llms.Model
	prompt    prompts.PromptTemplate
}

func NewRAG(retriever *Retriever, llm llms.Model) *RAG {
	return &RAG{
		retriever: retriever,
		llm:       llm,
		prompt:    prompts.NewPromptTemplate(models.AnswerPromptTemplate, models.AnswerPromptInputVariables),
	}
}

// Query runs preprocess, retrieve, prompt and generate for one question.
// Model errors are returned as is; there is no retry.
func (r *RAG) Query(ctx context.Context, question string) (*models.PromptResponse, error) {
	q := Preprocess(question)

	results, err := r.retriever.Retrieve(ctx, q.Text)
	if err != nil {
		return nil, err
	}

	prompt, err := r.BuildPrompt(results, q.Text)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("query", q.Text).Str("pizza", q.PizzaName).Int("chunks", len(results)).Msg("Querying language model")
	answer, err := llmservice.GenerateContent(ctx, r.llm, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	return &models.PromptResponse{
		ID:        id,
		Query:     q.Text,
		PizzaName: q.PizzaName,
		Sources:   sources(results),
		Content:   answer,
	}, nil
}

// BuildPrompt fills the answer template with the chunk texts and question.
func (r *RAG) BuildPrompt(results []models.SearchResult, question string) (string, error) {
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Content
	}
	prompt, err := r.prompt.Format(map[string]any{
		"context":  strings.Join(texts, models.ContextSeparator),
		"question": question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format prompt: %w", err)
	}
	return prompt, nil
}

// sources lists the distinct provenance labels in retrieval order.
func sources(results []models.SearchResult) []models.Source {
	var out []models.Source
	seen := make(map[models.Source]bool)
	for _, res := range results {
		if !seen[res.Source] {
			seen[res.Source] = true
			out = append(out, res.Source)
		}
	}
	return out
}
