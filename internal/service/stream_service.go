package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/entity"
	"easylaw-be/internal/pkg/apperror"
	"easylaw-be/internal/pkg/lock"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/internal/repository/memory"
	"easylaw-be/internal/tracer"
	"easylaw-be/pkg/events"
	"easylaw-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EventSink receives the events of one streaming turn. A Send error means
// the client is gone.
type EventSink interface {
	Send(message dto.StreamingMessage) error
}

type IStreamService interface {
	// SendMessage runs a full turn for a client frame. Every failure is also
	// reported to the sink as exactly one error event.
	SendMessage(ctx context.Context, actor entity.Identity, request *dto.SendMessageRequest, sink EventSink) error

	// Stream generates and stores the answer to an already appended user
	// message. The caller must hold the session's generation slot.
	Stream(ctx context.Context, session *entity.ChatSession, userMessage *entity.ChatMessage, sink EventSink) (*entity.ChatMessage, error)
}

type StreamServiceConfig struct {
	HistoryLimit     int
	MaxMessageLength int
}

type streamService struct {
	sessions  ISessionService
	messages  IMessageService
	generator llm.Generator
	locker    lock.Locker
	turns     *memory.TurnRepository
	publisher events.Publisher
	logger    logger.ILogger
	cfg       StreamServiceConfig
}

func NewStreamService(
	sessions ISessionService,
	messages IMessageService,
	generator llm.Generator,
	locker lock.Locker,
	turns *memory.TurnRepository,
	publisher events.Publisher,
	logger logger.ILogger,
	cfg StreamServiceConfig,
) IStreamService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = constant.DefaultMessageMaxLength
	}
	return &streamService{
		sessions:  sessions,
		messages:  messages,
		generator: generator,
		locker:    locker,
		turns:     turns,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

func (s *streamService) SendMessage(ctx context.Context, actor entity.Identity, request *dto.SendMessageRequest, sink EventSink) error {
	emitter := newTurnEmitter(sink, request.SessionId, s.logger)

	fail := func(err error) error {
		emitter.fail(err)
		return err
	}

	content := strings.TrimSpace(request.Content)
	if content == "" {
		return fail(apperror.Validation("content must not be empty", map[string]interface{}{"content": "required"}))
	}
	if len([]rune(content)) > s.cfg.MaxMessageLength {
		return fail(apperror.Validation("content is too long", map[string]interface{}{
			"content": fmt.Sprintf("must be at most %d characters", s.cfg.MaxMessageLength),
		}))
	}

	session, err := s.sessions.FindAccessible(ctx, actor, request.SessionId)
	if err != nil {
		return fail(err)
	}

	if turn, ok := s.completedTurn(request); ok {
		s.replay(emitter, turn)
		return nil
	}

	if !session.IsActive() {
		return fail(apperror.ErrSessionClosed)
	}

	release, acquired, err := s.locker.TryLock(ctx, lock.SessionTurnKey(session.Id))
	if err != nil {
		return fail(fmt.Errorf("acquire generation slot: %w", err))
	}
	if !acquired {
		return fail(apperror.ErrSessionBusy)
	}
	defer release()

	// A retry may have raced with the original turn finishing.
	if turn, ok := s.completedTurn(request); ok {
		s.replay(emitter, turn)
		return nil
	}

	userMessage, err := s.messages.Append(ctx, session.Id, constant.SenderUser, content, nil)
	if err != nil {
		return fail(err)
	}

	assistant, err := s.stream(context.WithoutCancel(ctx), session, userMessage, emitter)
	if err != nil {
		return err
	}

	if request.RequestId != "" && s.turns != nil {
		s.turns.Save(&memory.CompletedTurn{
			SessionId:          session.Id,
			RequestId:          request.RequestId,
			UserMessageId:      userMessage.Id,
			AssistantMessageId: assistant.Id,
			Metadata:           completeMetadata(assistant),
			CompletedAt:        time.Now().UTC(),
		})
	}
	return nil
}

func (s *streamService) Stream(ctx context.Context, session *entity.ChatSession, userMessage *entity.ChatMessage, sink EventSink) (*entity.ChatMessage, error) {
	return s.stream(ctx, session, userMessage, newTurnEmitter(sink, session.Id, s.logger))
}

func (s *streamService) stream(ctx context.Context, session *entity.ChatSession, userMessage *entity.ChatMessage, emitter *turnEmitter) (*entity.ChatMessage, error) {
	ctx, span := tracer.Tracer().Start(ctx, "chat.stream_turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.session_id", session.Id.String()),
		attribute.String("chat.mode", session.Mode),
	)

	failTurn := func(err error) (*entity.ChatMessage, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.CodeOf(err))
		emitter.fail(err)
		s.logger.Error("STREAM", "Streaming turn failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"code":       apperror.CodeOf(err),
			"error":      err.Error(),
		})
		publishEvent(ctx, s.publisher, s.logger, constant.EventTurnFailed, map[string]interface{}{
			"session_id":      session.Id.String(),
			"user_id":         session.UserId.String(),
			"user_message_id": userMessage.Id.String(),
			"code":            apperror.CodeOf(err),
		})
		return nil, err
	}

	// History is fetched with one extra row so the current user message can
	// be dropped without shortening the context window.
	prior, err := s.messages.Recent(ctx, session.Id, s.cfg.HistoryLimit+1)
	if err != nil {
		return failTurn(err)
	}
	prior = lo.Filter(prior, func(m *entity.ChatMessage, _ int) bool {
		return m.Id != userMessage.Id
	})
	if len(prior) > s.cfg.HistoryLimit {
		prior = prior[len(prior)-s.cfg.HistoryLimit:]
	}

	request := llm.GenerationRequest{
		Mode: session.Mode,
		History: lo.Map(prior, func(m *entity.ChatMessage, _ int) llm.Message {
			return llm.Message{Role: m.Sender, Content: m.Content}
		}),
		Content: userMessage.Content,
	}

	var answer strings.Builder
	fragments := 0
	result, err := s.generator.Generate(ctx, request, func(fragment string) error {
		if fragment == "" {
			return nil
		}
		fragments++
		answer.WriteString(fragment)
		emitter.token(fragment)
		return nil
	})
	if err != nil {
		return failTurn(apperror.ErrUpstream.Wrap(err))
	}
	if answer.Len() == 0 {
		return failTurn(apperror.ErrUpstream.Wrap(errors.New("empty answer")))
	}

	metadata := entity.Metadata{}
	if result != nil {
		metadata = entity.Metadata(result.Metadata).Sanitize()
	}

	assistant, err := s.messages.Append(ctx, session.Id, constant.SenderAssistant, answer.String(), metadata)
	if err != nil {
		return failTurn(err)
	}

	span.SetAttributes(
		attribute.Int("chat.fragments", fragments),
		attribute.Int("chat.tokens", assistant.Tokens),
	)
	emitter.complete(assistant.Id, completeMetadata(assistant))

	s.logger.Info("STREAM", "Streaming turn completed", map[string]interface{}{
		"session_id": session.Id.String(),
		"message_id": assistant.Id.String(),
		"tokens":     assistant.Tokens,
		"fragments":  fragments,
		"detached":   emitter.isDetached(),
	})
	return assistant, nil
}

func (s *streamService) completedTurn(request *dto.SendMessageRequest) (*memory.CompletedTurn, bool) {
	if request.RequestId == "" || s.turns == nil {
		return nil, false
	}
	return s.turns.Get(request.SessionId, request.RequestId)
}

func (s *streamService) replay(emitter *turnEmitter, turn *memory.CompletedTurn) {
	s.logger.Info("STREAM", "Replaying completed turn", map[string]interface{}{
		"session_id": turn.SessionId.String(),
		"request_id": turn.RequestId,
	})
	metadata := lo.Assign(turn.Metadata, map[string]interface{}{"replayed": true})
	emitter.complete(turn.AssistantMessageId, metadata)
}

func completeMetadata(assistant *entity.ChatMessage) map[string]interface{} {
	return lo.Assign(map[string]interface{}(assistant.Metadata), map[string]interface{}{
		"tokens": assistant.Tokens,
		"seq":    assistant.Seq,
	})
}

// turnEmitter delivers the events of one turn in order and lets exactly
// one terminal event through. After the sink fails it drops everything.
type turnEmitter struct {
	mu         sync.Mutex
	sink       EventSink
	sessionId  uuid.UUID
	logger     logger.ILogger
	terminated bool
	detached   bool
}

func newTurnEmitter(sink EventSink, sessionId uuid.UUID, logger logger.ILogger) *turnEmitter {
	return &turnEmitter{sink: sink, sessionId: sessionId, logger: logger}
}

func (e *turnEmitter) token(fragment string) {
	e.emit(dto.StreamingMessage{Type: constant.StreamEventToken, Content: fragment})
}

func (e *turnEmitter) complete(messageId uuid.UUID, metadata map[string]interface{}) {
	e.emit(dto.StreamingMessage{
		Type:      constant.StreamEventComplete,
		MessageId: &messageId,
		Metadata:  metadata,
	})
}

func (e *turnEmitter) fail(err error) {
	appErr := apperror.From(err)
	metadata := map[string]interface{}{"code": appErr.Code}
	for k, v := range appErr.Details {
		metadata[k] = v
	}
	e.emit(dto.StreamingMessage{
		Type:     constant.StreamEventError,
		Content:  appErr.Message,
		Metadata: metadata,
	})
}

func (e *turnEmitter) emit(message dto.StreamingMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.terminated {
		return
	}
	if message.IsTerminal() {
		e.terminated = true
	}
	if e.detached || e.sink == nil {
		return
	}

	sessionId := e.sessionId
	message.SessionId = &sessionId
	if err := e.sink.Send(message); err != nil {
		e.detached = true
		e.logger.Warn("STREAM", "Client detached, dropping remaining events", map[string]interface{}{
			"session_id": e.sessionId.String(),
			"error":      err.Error(),
		})
	}
}

func (e *turnEmitter) isDetached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detached
}
