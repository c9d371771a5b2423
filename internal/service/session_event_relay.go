package service

import (
	"context"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/pkg/events"

	"github.com/google/uuid"
)

// SessionEventDelivery pushes frames to a user's live connections.
// Implemented by the websocket hub.
type SessionEventDelivery interface {
	SendToUser(userId uuid.UUID, frame interface{})
}

const sessionRelayDurable = "chat-session-relay"

// SessionEventRelay forwards chat events to the owner's websocket
// connections so other tabs and devices see session changes.
type SessionEventRelay struct {
	subscriber events.Subscriber
	delivery   SessionEventDelivery
	logger     logger.ILogger
}

func NewSessionEventRelay(subscriber events.Subscriber, delivery SessionEventDelivery, log logger.ILogger) *SessionEventRelay {
	return &SessionEventRelay{
		subscriber: subscriber,
		delivery:   delivery,
		logger:     log,
	}
}

func (r *SessionEventRelay) Start() error {
	if err := r.subscriber.Subscribe(constant.ChatEventSubjects, sessionRelayDurable, r.handleEvent); err != nil {
		r.logger.Error("RELAY", "Failed to start session event relay", map[string]interface{}{"error": err.Error()})
		return err
	}
	r.logger.Info("RELAY", "Session event relay started", map[string]interface{}{"subject": constant.ChatEventSubjects})
	return nil
}

func (r *SessionEventRelay) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	rawUserId, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(rawUserId)
	if err != nil {
		// Nothing to route on; retrying will not help.
		r.logger.Warn("RELAY", "Event without owner, skipping", map[string]interface{}{"type": event.EventType()})
		return nil
	}

	r.delivery.SendToUser(userId, dto.SessionEventFrame{
		Type:  constant.FrameTypeSessionEvent,
		Event: event.EventType(),
		Data:  payload,
	})
	return nil
}
