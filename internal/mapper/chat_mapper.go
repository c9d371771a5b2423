package mapper

import (
	"encoding/json"

	"easylaw-be/internal/entity"
	"easylaw-be/internal/model"

	"github.com/samber/lo"
	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}
	return &entity.ChatSession{
		Id:           s.Id,
		UserId:       s.UserId,
		Mode:         s.Mode,
		Status:       s.Status,
		Title:        s.Title,
		MessageCount: s.MessageCount,
		TotalTokens:  s.TotalTokens,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		ClosedAt:     s.ClosedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}
	return &model.ChatSession{
		Id:           s.Id,
		UserId:       s.UserId,
		Mode:         s.Mode,
		Status:       s.Status,
		Title:        s.Title,
		MessageCount: s.MessageCount,
		TotalTokens:  s.TotalTokens,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		ClosedAt:     s.ClosedAt,
	}
}

func (m *ChatMapper) ChatSessionsToEntities(models []*model.ChatSession) []*entity.ChatSession {
	return lo.Map(models, func(item *model.ChatSession, _ int) *entity.ChatSession {
		return m.ChatSessionToEntity(item)
	})
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Seq:           msg.Seq,
		Sender:        msg.Sender,
		Content:       msg.Content,
		Tokens:        msg.Tokens,
		Metadata:      entity.Metadata(DecodeJSONMap(msg.Metadata)),
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Seq:           msg.Seq,
		Sender:        msg.Sender,
		Content:       msg.Content,
		Tokens:        msg.Tokens,
		Metadata:      EncodeJSONMap(msg.Metadata),
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessagesToEntities(models []*model.ChatMessage) []*entity.ChatMessage {
	return lo.Map(models, func(item *model.ChatMessage, _ int) *entity.ChatMessage {
		return m.ChatMessageToEntity(item)
	})
}

// EncodeJSONMap stores an absent map as an empty JSON object.
func EncodeJSONMap[M ~map[string]interface{}](value M) datatypes.JSON {
	if len(value) == 0 {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

func DecodeJSONMap(raw datatypes.JSON) map[string]interface{} {
	out := map[string]interface{}{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}
