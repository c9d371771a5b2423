package contract

import (
	"context"
	"time"

	"easylaw-be/internal/entity"
	"easylaw-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// MarkClosed moves an active session to closed. It reports false when the
	// session was not active.
	MarkClosed(ctx context.Context, id uuid.UUID, closedAt time.Time) (bool, error)
	// IncrementCounters adds one message and the given tokens to an active
	// session. It reports false when the session was not active.
	IncrementCounters(ctx context.Context, id uuid.UUID, tokens int, at time.Time) (bool, error)
	// SetTitleIfEmpty only writes when the session has no title yet.
	SetTitleIfEmpty(ctx context.Context, id uuid.UUID, title string) error
	// OverwriteCounters is used by the repair pass.
	OverwriteCounters(ctx context.Context, id uuid.UUID, messageCount int, totalTokens int) error
}
