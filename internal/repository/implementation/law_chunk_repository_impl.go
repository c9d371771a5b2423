package implementation

import (
	"context"

	"easylaw-be/internal/entity"
	"easylaw-be/internal/model"
	"easylaw-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type LawChunkRepositoryImpl struct {
	db *gorm.DB
}

func NewLawChunkRepository(db *gorm.DB) contract.LawChunkRepository {
	return &LawChunkRepositoryImpl{db: db}
}

func (r *LawChunkRepositoryImpl) SearchSimilar(ctx context.Context, scope string, embedding []float32, limit int) ([]*entity.LawChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.LawChunk
		Distance float64
	}
	var results []result

	// Cosine distance: smaller is closer.
	queryVector := pgvector.NewVector(embedding)
	err := r.db.WithContext(ctx).
		Table("law_chunks").
		Select("law_chunks.*, (embedding <=> ?) AS distance", queryVector).
		Where("scope = ?", scope).
		Order("distance ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	chunks := make([]*entity.LawChunk, len(results))
	for i, res := range results {
		chunks[i] = &entity.LawChunk{
			Id:         res.Id,
			Scope:      res.Scope,
			Source:     res.Source,
			Content:    res.Content,
			ChunkIndex: res.ChunkIndex,
			Distance:   res.Distance,
			CreatedAt:  res.CreatedAt,
		}
	}
	return chunks, nil
}
