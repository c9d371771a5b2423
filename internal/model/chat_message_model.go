package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_messages_session_seq,priority:1"`
	Seq           int64     `gorm:"not null;uniqueIndex:idx_chat_messages_session_seq,priority:2"`
	Sender        string    `gorm:"type:varchar(16);not null"`
	Content       string    `gorm:"type:text;not null"`
	Tokens        int       `gorm:"not null;default:0"`
	Metadata      datatypes.JSON
	CreatedAt     time.Time `gorm:"not null;index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
