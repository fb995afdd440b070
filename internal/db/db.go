package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pizza-rag/internal/models"
)

// Document is one row of the chunk table. The table name is the collection
// name, set per query.
type Document struct {
	bun.BaseModel `bun:"table:chunks,alias:d"`
	ID            string  `bun:"id,pk"`
	Content       string  `bun:"content,notnull"`
	Source        string  `bun:"source,notnull"`
	PageNumber    int     `bun:"page_number"`
	ChunkID       int     `bun:"chunk_id"`
	Embedding     Vector  `bun:"embedding,notnull,type:vector"`
	Similarity    float32 `bun:"similarity,scanonly"`
}

// Vector is a pgvector value, written as '[1,2,3]'.
type Vector []float32

func (v Vector) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

func (v *Vector) Scan(src any) error {
	var s string
	switch t := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return fmt.Errorf("cannot scan %T into Vector", src)
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return fmt.Errorf("invalid vector literal %q", s)
	}
	s = strings.TrimSpace(s[1 : len(s)-1])
	if s == "" {
		*v = Vector{}
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(Vector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	*v = out
	return nil
}

// Store keeps chunks in a Postgres table with a pgvector column.
type Store struct {
	db    *bun.DB
	table string
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(dsn string) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
}

// NewStore connects to dsn and uses the table named after the collection.
func NewStore(ctx context.Context, dsn, collection string, debug bool) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("pgvector store requires a dsn")
	}
	db := NewDB(ConnectDB(dsn), debug)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db, table: collection}, nil
}

func (s *Store) model() *Document {
	return (*Document)(nil)
}

func (s *Store) dropTableQuery() *bun.DropTableQuery {
	return s.db.NewDropTable().Table(s.table).IfExists()
}

func (s *Store) createTableQuery() *bun.CreateTableQuery {
	return s.db.NewCreateTable().Model(s.model()).ModelTableExpr("?", bun.Ident(s.table))
}

func (s *Store) insertQuery(docs *[]Document) *bun.InsertQuery {
	return s.db.NewInsert().Model(docs).ModelTableExpr("? AS d", bun.Ident(s.table))
}

// searchQuery orders by cosine distance; similarity is 1 - distance.
func (s *Store) searchQuery(dest *[]Document, vector Vector, k int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(dest).
		ModelTableExpr("? AS d", bun.Ident(s.table)).
		Column("id", "content", "source", "page_number", "chunk_id").
		ColumnExpr("1 - (embedding <=> ?) AS similarity", vector).
		OrderExpr("embedding <=> ?", vector).
		Limit(k)
}

func (s *Store) countQuery() *bun.SelectQuery {
	return s.db.NewSelect().Model(s.model()).ModelTableExpr("? AS d", bun.Ident(s.table))
}

// Reset drops the table and recreates it empty.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if _, err := s.dropTableQuery().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := s.createTableQuery().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func toDocuments(chunks []models.ChunkEmbedding) []Document {
	docs := make([]Document, len(chunks))
	for i, ce := range chunks {
		docs[i] = Document{
			ID:         ce.ID(),
			Content:    ce.Content,
			Source:     string(ce.Source),
			PageNumber: ce.PageNumber,
			ChunkID:    ce.ChunkID,
			Embedding:  Vector(ce.Embedding),
		}
	}
	return docs
}

func (s *Store) Add(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := toDocuments(chunks)
	if _, err := s.insertQuery(&docs).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error) {
	if len(vector) == 0 {
		return nil, errors.New("query embedding must be provided")
	}
	if k <= 0 {
		return nil, nil
	}
	var docs []Document
	if err := s.searchQuery(&docs, Vector(vector), k).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	results := make([]models.SearchResult, len(docs))
	for i, d := range docs {
		results[i] = models.SearchResult{
			Chunk: models.Chunk{
				Content:    d.Content,
				Source:     models.Source(d.Source),
				PageNumber: d.PageNumber,
				ChunkID:    d.ChunkID,
			},
			Similarity: d.Similarity,
		}
	}
	return results, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return s.countQuery().Count(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
