package implementation

import (
	"context"
	"errors"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/entity"
	"easylaw-be/internal/mapper"
	"easylaw-be/internal/model"
	"easylaw-be/internal/repository/contract"
	"easylaw-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(db *gorm.DB) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var m model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatSessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var models []*model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatSessionsToEntities(models), nil
}

func (r *ChatSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChatSessionRepositoryImpl) MarkClosed(ctx context.Context, id uuid.UUID, closedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ? AND status = ?", id, constant.SessionStatusActive).
		Updates(map[string]interface{}{
			"status":     constant.SessionStatusClosed,
			"closed_at":  closedAt,
			"updated_at": closedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *ChatSessionRepositoryImpl) IncrementCounters(ctx context.Context, id uuid.UUID, tokens int, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ? AND status = ?", id, constant.SessionStatusActive).
		Updates(map[string]interface{}{
			"message_count": gorm.Expr("message_count + ?", 1),
			"total_tokens":  gorm.Expr("total_tokens + ?", tokens),
			"updated_at":    at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *ChatSessionRepositoryImpl) SetTitleIfEmpty(ctx context.Context, id uuid.UUID, title string) error {
	return r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ? AND title IS NULL", id).
		UpdateColumn("title", title).Error
}

func (r *ChatSessionRepositoryImpl) OverwriteCounters(ctx context.Context, id uuid.UUID, messageCount int, totalTokens int) error {
	return r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"message_count": messageCount,
			"total_tokens":  totalTokens,
		}).Error
}
