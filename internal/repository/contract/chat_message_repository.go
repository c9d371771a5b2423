package contract

import (
	"context"

	"easylaw-be/internal/entity"
	"easylaw-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageTotals struct {
	Count  int64
	Tokens int64
}

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Totals(ctx context.Context, chatSessionId uuid.UUID) (*MessageTotals, error)
}
