package parser

import (
	"fmt"
	"strings"

	"pizza-rag/internal/models"

	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter cuts documents into overlapping character windows.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Split chunks every document on its own so no chunk spans two pages. The
// source and page number of the parent are copied onto each chunk.
func (s *Splitter) Split(docs []models.Document) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		texts, err := s.splitter.SplitText(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("split %s page %d: %w", doc.Source, doc.PageNumber, err)
		}
		chunkID := 0
		for _, text := range texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			chunkID++
			chunks = append(chunks, models.Chunk{
				Content:    text,
				Source:     doc.Source,
				PageNumber: doc.PageNumber,
				ChunkID:    chunkID,
			})
		}
	}
	return chunks, nil
}
