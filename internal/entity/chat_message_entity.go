package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Seq           int64
	Sender        string
	Content       string
	Tokens        int
	Metadata      Metadata
	CreatedAt     time.Time
}
