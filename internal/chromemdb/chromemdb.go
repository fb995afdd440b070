package chromemdb

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"pizza-rag/internal/models"
)

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
	dbPath         string
	compress       bool
	encryptionKey  string
}

const (
	compress = false
)

// NewVectorDBManager opens (or creates) the database at dbPath and the
// named collection inside it.
func NewVectorDBManager(dbPath, collectionName string, inMemory bool, encryptionKey string) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	m := &VectorDBManager{
		db:             db,
		collectionName: collectionName,
		dbPath:         dbPath,
		compress:       compress,
		encryptionKey:  encryptionKey,
	}
	if _, err := m.GetOrCreateCollection(); err != nil {
		return nil, err
	}
	return m, nil
}

// create or read collection
func (m *VectorDBManager) GetOrCreateCollection() (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(m.collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.collection = c
	return c, nil
}

// Reset deletes the collection, including its files on disk, and starts a
// new empty one with the same name.
func (m *VectorDBManager) Reset(ctx context.Context) error {
	if err := m.db.DeleteCollection(m.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	_, err := m.GetOrCreateCollection()
	return err
}

// add multiple documents
func (m *VectorDBManager) Add(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(chunks))
	for i, ce := range chunks {
		docs[i] = chromem.Document{
			ID:        ce.ID(),
			Content:   ce.Content,
			Metadata:  CreateMetadata(ce.Chunk),
			Embedding: ce.Embedding,
		}
	}
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Search performs a similarity search on the query embedding. k is capped at
// the collection size since chromem rejects larger result counts.
func (m *VectorDBManager) Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error) {
	// exit if embedding is not provided
	if len(vector) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}

	n := min(k, m.collection.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := m.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, models.SearchResult{
			Chunk:      chunkFromResult(r),
			Similarity: r.Similarity,
		})
	}
	return out, nil
}

func (m *VectorDBManager) Count(ctx context.Context) (int, error) {
	return m.collection.Count(), nil
}

// Export writes the collection to a snapshot file, encrypted when an
// encryption key is configured.
func (m *VectorDBManager) Export(ctx context.Context, filePath string) error {
	if filePath == "" {
		filePath = filepath.Join(m.dbPath, m.collectionName+".gob")
	}

	log.Debug().Str("collection", m.collectionName).Str("file", filePath).Bool("compress", m.compress).Bool("encrypted", m.encryptionKey != "").Msg("Exporting collection")

	err := m.db.ExportToFile(filePath, m.compress, m.encryptionKey, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Close is a no-op; chromem persists every write immediately.
func (m *VectorDBManager) Close() error {
	return nil
}

// CreateMetadata flattens the chunk provenance into chromem's string map.
func CreateMetadata(chunk models.Chunk) map[string]string {
	return map[string]string{
		models.MetadataSource:  string(chunk.Source),
		models.MetadataPage:    strconv.Itoa(chunk.PageNumber),
		models.MetadataChunkID: strconv.Itoa(chunk.ChunkID),
	}
}

func chunkFromResult(r chromem.Result) models.Chunk {
	page, _ := strconv.Atoi(r.Metadata[models.MetadataPage])
	chunkID, _ := strconv.Atoi(r.Metadata[models.MetadataChunkID])
	return models.Chunk{
		Content:    r.Content,
		Source:     models.Source(r.Metadata[models.MetadataSource]),
		PageNumber: page,
		ChunkID:    chunkID,
	}
}
