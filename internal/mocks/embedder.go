// Package mocks provides offline stand-ins for the embedding and language
// model services.
package mocks

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"
)

const DefaultDimensions = 64

// Embedder hashes lower-cased words into a fixed number of buckets, so texts
// that share words end up close to each other. The last dimension is a
// constant bias that keeps vectors non-zero.
type Embedder struct {
	Dimensions int
	Err        error

	mu    sync.Mutex
	calls int
}

func NewEmbedder() *Embedder {
	return &Embedder{Dimensions: DefaultDimensions}
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := e.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	dims := e.Dimensions
	if dims < 2 {
		return nil, errors.New("mock embedder needs at least 2 dimensions")
	}
	v := make([]float32, dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(dims-1)]++
	}
	v[dims-1] = 0.1
	return v, nil
}

// Calls counts EmbedQuery invocations, including those made through
// EmbedDocuments.
func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
