package chromemdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pizza-rag/internal/mocks"
	"pizza-rag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedAll(t *testing.T, chunks []models.Chunk) []models.ChunkEmbedding {
	t.Helper()
	e := mocks.NewEmbedder()
	out := make([]models.ChunkEmbedding, len(chunks))
	for i, c := range chunks {
		v, err := e.EmbedQuery(context.Background(), c.Content)
		require.NoError(t, err)
		out[i] = models.ChunkEmbedding{Chunk: c, Embedding: v}
	}
	return out
}

var menuChunks = []models.Chunk{
	{Content: "Margherita : sauce tomate, mozzarella, basilic", Source: models.SourceMenu, PageNumber: 1, ChunkID: 1},
	{Content: "Regina : sauce tomate, mozzarella, jambon, champignons", Source: models.SourceMenu, PageNumber: 1, ChunkID: 2},
	{Content: "Quatre fromages : mozzarella, gorgonzola, chèvre, parmesan", Source: models.SourceMenu, PageNumber: 2, ChunkID: 1},
	{Content: "1 Gluten 7 Lait 9 Céleri", Source: models.SourceAllergens, PageNumber: 1, ChunkID: 1},
}

func TestVectorDBManager_AddSearchCount(t *testing.T) {
	ctx := context.Background()
	m, err := NewVectorDBManager(t.TempDir(), "pizzas", false, "")
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Add(ctx, embedAll(t, menuChunks)))

	count, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(menuChunks), count)

	q, err := mocks.NewEmbedder().EmbedQuery(ctx, "regina jambon champignons")
	require.NoError(t, err)

	results, err := m.Search(ctx, q, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "menu-1-2", results[0].ID())
	assert.Equal(t, models.SourceMenu, results[0].Source)
	assert.Equal(t, 1, results[0].PageNumber)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
}

func TestVectorDBManager_SearchCapsAtCollectionSize(t *testing.T) {
	ctx := context.Background()
	m, err := NewVectorDBManager(t.TempDir(), "pizzas", true, "")
	require.NoError(t, err)

	q, err := mocks.NewEmbedder().EmbedQuery(ctx, "margherita")
	require.NoError(t, err)

	results, err := m.Search(ctx, q, 4)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, m.Add(ctx, embedAll(t, menuChunks[:2])))
	results, err = m.Search(ctx, q, 4)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestVectorDBManager_SearchRequiresEmbedding(t *testing.T) {
	m, err := NewVectorDBManager(t.TempDir(), "pizzas", true, "")
	require.NoError(t, err)

	_, err = m.Search(context.Background(), nil, 4)
	assert.Error(t, err)
}

func TestVectorDBManager_ResetDropsPersistedDocuments(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m, err := NewVectorDBManager(dir, "pizzas", false, "")
	require.NoError(t, err)
	require.NoError(t, m.Add(ctx, embedAll(t, menuChunks)))

	// a new process sees the previous run's collection until it resets it
	reopened, err := NewVectorDBManager(dir, "pizzas", false, "")
	require.NoError(t, err)
	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(menuChunks), count)

	require.NoError(t, reopened.Reset(ctx))
	require.NoError(t, reopened.Add(ctx, embedAll(t, menuChunks[:1])))

	count, err = reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	again, err := NewVectorDBManager(dir, "pizzas", false, "")
	require.NoError(t, err)
	count, err = again.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVectorDBManager_Export(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m, err := NewVectorDBManager(dir, "pizzas", true, "")
	require.NoError(t, err)
	require.NoError(t, m.Add(ctx, embedAll(t, menuChunks)))

	path := filepath.Join(dir, "snapshot.gob")
	require.NoError(t, m.Export(ctx, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestCreateMetadata(t *testing.T) {
	md := CreateMetadata(models.Chunk{Source: models.SourceAllergens, PageNumber: 2, ChunkID: 5})
	assert.Equal(t, map[string]string{"source": "allergens", "page": "2", "chunk_id": "5"}, md)
}
