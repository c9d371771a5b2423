package search

import (
	"context"
	"fmt"

	"easylaw-be/internal/entity"
	"easylaw-be/internal/repository/contract"
	"easylaw-be/pkg/embedding"
)

// Retriever finds the law excerpts closest to a question within one scope.
type Retriever struct {
	embedder embedding.EmbeddingProvider
	chunks   contract.LawChunkRepository
	topK     int
}

func NewRetriever(embedder embedding.EmbeddingProvider, chunks contract.LawChunkRepository, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{embedder: embedder, chunks: chunks, topK: topK}
}

func (r *Retriever) Retrieve(ctx context.Context, scope string, question string) ([]*entity.LawChunk, error) {
	vec, err := r.embedder.Generate(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	chunks, err := r.chunks.SearchSimilar(ctx, scope, vec.Values, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search law chunks: %w", err)
	}
	return chunks, nil
}
