package entity

import (
	"time"

	"easylaw-be/internal/constant"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Mode         string
	Status       string
	Title        *string
	MessageCount int
	TotalTokens  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}

func (s *ChatSession) IsActive() bool {
	return s.Status == constant.SessionStatusActive
}
