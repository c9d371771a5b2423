package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_sessions_user_status,priority:1"`
	Mode         string    `gorm:"type:varchar(32);not null"`
	Status       string    `gorm:"type:varchar(16);not null;default:'active';index:idx_chat_sessions_user_status,priority:2"`
	Title        *string   `gorm:"type:varchar(200)"`
	MessageCount int       `gorm:"not null;default:0"`
	TotalTokens  int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time `gorm:"not null"`
	ClosedAt     *time.Time
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
