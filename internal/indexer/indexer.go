// Package indexer builds the vector index from the menu and allergen
// documents. The collection is rebuilt from scratch on every run.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"pizza-rag/internal/embedding"
	"pizza-rag/internal/models"
	"pizza-rag/internal/parser"
	"pizza-rag/internal/vectorstore"
)

// SourceFile is a document on disk and the label its chunks carry.
type SourceFile struct {
	Path   string
	Source models.Source
}

type Indexer struct {
	store    vectorstore.Store
	embedder embeddings.Embedder
	splitter *parser.Splitter
	files    []SourceFile
}

func NewIndexer(store vectorstore.Store, embedder embeddings.Embedder, splitter *parser.Splitter, files ...SourceFile) *Indexer {
	return &Indexer{
		store:    store,
		embedder: embedder,
		splitter: splitter,
		files:    files,
	}
}

// LoadChunks loads every source file and splits it.
func (i *Indexer) LoadChunks() ([]models.Chunk, error) {
	var docs []models.Document
	for _, f := range i.files {
		d, err := parser.Load(f.Path, f.Source)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	chunks, err := i.splitter.Split(docs)
	if err != nil {
		return nil, err
	}
	log.Info().Int("documents", len(docs)).Int("chunks", len(chunks)).Msg("Parsed content")
	return chunks, nil
}

// Build loads, chunks and embeds the documents, then replaces the
// collection with the result. It returns the number of indexed chunks.
func (i *Indexer) Build(ctx context.Context) (int, error) {
	start := time.Now()

	chunks, err := i.LoadChunks()
	if err != nil {
		return 0, err
	}

	chunkEmbeddings, err := embedding.EmbedChunks(ctx, i.embedder, chunks)
	if err != nil {
		return 0, err
	}

	// embeddings are computed before the old collection is dropped
	if err := i.store.Reset(ctx); err != nil {
		return 0, fmt.Errorf("failed to reset collection: %w", err)
	}

	log.Info().Msgf("Adding %d documents to vector database", len(chunkEmbeddings))
	if err := i.store.Add(ctx, chunkEmbeddings); err != nil {
		return 0, err
	}

	log.Info().Int("chunks", len(chunkEmbeddings)).Dur("took", time.Since(start)).Msg("Index built")
	return len(chunkEmbeddings), nil
}
