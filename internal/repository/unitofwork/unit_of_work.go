package unitofwork

import (
	"context"

	"easylaw-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	AdminLogRepository() contract.AdminLogRepository
	LawChunkRepository() contract.LawChunkRepository
}
