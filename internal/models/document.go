package models

import "fmt"

// Source is the provenance label carried by every document and chunk.
type Source string

const (
	SourceMenu      Source = "menu"
	SourceAllergens Source = "allergens"
)

func (s Source) Valid() bool {
	return s == SourceMenu || s == SourceAllergens
}

// Document is the text of one page (or sheet) of a source file
type Document struct {
	Content    string
	Source     Source
	PageNumber int
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string
	Source     Source
	PageNumber int
	ChunkID    int
}

// ID is unique within a collection.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s-%d-%d", c.Source, c.PageNumber, c.ChunkID)
}

type ChunkEmbedding struct {
	Chunk
	Embedding []float32
}

type SearchResult struct {
	Chunk
	Similarity float32
}

type PromptResponse struct {
	ID        string
	Query     string
	PizzaName string
	Sources   []Source
	Content   string
}
