package service

import (
	"context"
	"time"

	"easylaw-be/internal/dto"
	"easylaw-be/internal/entity"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/pkg/events"

	"github.com/samber/lo"
)

// Clock is replaced in tests.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// publishEvent is fire-and-forget: the write it describes is already
// committed, so a bus failure is only logged.
func publishEvent(ctx context.Context, publisher events.Publisher, log logger.ILogger, eventType string, data map[string]interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), events.NewEvent(eventType, data)); err != nil {
		log.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func sessionEventData(session *entity.ChatSession) map[string]interface{} {
	return map[string]interface{}{
		"session_id":    session.Id.String(),
		"user_id":       session.UserId.String(),
		"mode":          session.Mode,
		"status":        session.Status,
		"message_count": session.MessageCount,
	}
}

func ToSessionResponse(session *entity.ChatSession) *dto.SessionResponse {
	if session == nil {
		return nil
	}
	return &dto.SessionResponse{
		Id:           session.Id,
		UserId:       session.UserId,
		Mode:         session.Mode,
		Status:       session.Status,
		Title:        session.Title,
		MessageCount: session.MessageCount,
		TotalTokens:  session.TotalTokens,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
		ClosedAt:     session.ClosedAt,
	}
}

func ToMessageResponse(message *entity.ChatMessage) *dto.MessageResponse {
	metadata := map[string]interface{}(message.Metadata)
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &dto.MessageResponse{
		Id:        message.Id,
		SessionId: message.ChatSessionId,
		Seq:       message.Seq,
		Sender:    message.Sender,
		Content:   message.Content,
		Tokens:    message.Tokens,
		Metadata:  metadata,
		CreatedAt: message.CreatedAt,
	}
}

func toMessageResponses(messages []*entity.ChatMessage) []*dto.MessageResponse {
	return lo.Map(messages, func(m *entity.ChatMessage, _ int) *dto.MessageResponse {
		return ToMessageResponse(m)
	})
}
