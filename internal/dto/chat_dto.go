package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Mode  string  `json:"mode" validate:"required"`
	Title *string `json:"title,omitempty" validate:"omitempty,max=200"`
}

type SessionResponse struct {
	Id           uuid.UUID  `json:"id"`
	UserId       uuid.UUID  `json:"user_id"`
	Mode         string     `json:"mode"`
	Status       string     `json:"status"`
	Title        *string    `json:"title"`
	MessageCount int        `json:"message_count"`
	TotalTokens  int        `json:"total_tokens"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

type SessionsListResponse struct {
	Sessions       []*SessionResponse `json:"sessions"`
	TotalSessions  int64              `json:"total_sessions"`
	ActiveSessions int64              `json:"active_sessions"`
}

type MessageResponse struct {
	Id        uuid.UUID              `json:"id"`
	SessionId uuid.UUID              `json:"session_id"`
	Seq       int64                  `json:"seq"`
	Sender    string                 `json:"sender"`
	Content   string                 `json:"content"`
	Tokens    int                    `json:"tokens"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
}

type HistoryQuery struct {
	Cursor string `query:"cursor"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=200"`
}

type ChatHistoryResponse struct {
	Session       *SessionResponse   `json:"session"`
	Messages      []*MessageResponse `json:"messages"`
	TotalMessages int64              `json:"total_messages"`
	// NextCursor resumes after the last message read so far, also at the
	// tail, so later appends can be picked up. Nil only before any message.
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// SendMessageRequest is the client frame sent over the chat websocket.
type SendMessageRequest struct {
	Type      string    `json:"type" validate:"required,eq=message"`
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Content   string    `json:"content" validate:"required"`
	RequestId string    `json:"request_id,omitempty" validate:"omitempty,max=128"`
}
