package dto

import (
	"easylaw-be/internal/constant"

	"github.com/google/uuid"
)

// StreamingMessage is one event of a streaming turn. Field names are part of
// the client contract.
type StreamingMessage struct {
	Type      string                 `json:"type"`
	Content   string                 `json:"content,omitempty"`
	MessageId *uuid.UUID             `json:"message_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	SessionId *uuid.UUID             `json:"session_id,omitempty"`
}

func (m StreamingMessage) IsTerminal() bool {
	return m.Type == constant.StreamEventComplete || m.Type == constant.StreamEventError
}

// SessionEventFrame relays a session event to the owner's connections.
type SessionEventFrame struct {
	Type  string                 `json:"type"`
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}
