// Package vectorstore defines the index the retriever searches and builds
// the configured backend.
package vectorstore

import (
	"context"
	"fmt"

	"pizza-rag/internal/chromemdb"
	"pizza-rag/internal/config"
	"pizza-rag/internal/db"
	"pizza-rag/internal/models"
)

// Store holds (chunk, vector) pairs of a single named collection.
type Store interface {
	// Reset drops the collection and recreates it empty.
	Reset(ctx context.Context) error
	Add(ctx context.Context, chunks []models.ChunkEmbedding) error
	// Search returns at most k chunks, most similar first.
	Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// New opens the backend selected by cfg.VectorStore.Type.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	vs := cfg.VectorStore
	var (
		store Store
		err   error
	)
	switch vs.Type {
	case config.StoreChromem:
		store, err = chromemdb.NewVectorDBManager(vs.Path, vs.Collection, false, vs.EncryptionKey)
	case config.StorePGVector:
		store, err = db.NewStore(ctx, vs.DSN, vs.Collection, cfg.Debug)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", vs.Type)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
