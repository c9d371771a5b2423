package contract

import (
	"context"

	"easylaw-be/internal/entity"
)

type LawChunkRepository interface {
	SearchSimilar(ctx context.Context, scope string, embedding []float32, limit int) ([]*entity.LawChunk, error)
}
