package entity

import (
	"time"

	"github.com/google/uuid"
)

type LawChunk struct {
	Id         uuid.UUID
	Scope      string
	Source     string
	Content    string
	ChunkIndex int
	Distance   float64
	CreatedAt  time.Time
}
