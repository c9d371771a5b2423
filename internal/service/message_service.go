package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/entity"
	"easylaw-be/internal/pkg/apperror"
	"easylaw-be/internal/pkg/lock"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/internal/pkg/tokenizer"
	"easylaw-be/internal/repository/specification"
	"easylaw-be/internal/repository/unitofwork"
	"easylaw-be/pkg/events"

	"github.com/google/uuid"
)

// IMessageService is the only writer of the message log.
type IMessageService interface {
	Append(ctx context.Context, sessionId uuid.UUID, sender string, content string, metadata entity.Metadata) (*entity.ChatMessage, error)
	History(ctx context.Context, actor entity.Identity, sessionId uuid.UUID, query dto.HistoryQuery) (*dto.ChatHistoryResponse, error)
	// Recent returns the last limit messages in ascending log order.
	Recent(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatMessage, error)
}

type MessageServiceConfig struct {
	HistoryLimit int
}

type messageService struct {
	uowFactory unitofwork.RepositoryFactory
	locker     lock.Locker
	counter    tokenizer.Counter
	publisher  events.Publisher
	logger     logger.ILogger
	cfg        MessageServiceConfig
	now        Clock
}

func NewMessageService(
	uowFactory unitofwork.RepositoryFactory,
	locker lock.Locker,
	counter tokenizer.Counter,
	publisher events.Publisher,
	logger logger.ILogger,
	cfg MessageServiceConfig,
) IMessageService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.HistoryLimit > constant.HistoryMaxLimit {
		cfg.HistoryLimit = constant.HistoryMaxLimit
	}
	return &messageService{
		uowFactory: uowFactory,
		locker:     locker,
		counter:    counter,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
		now:        systemClock,
	}
}

func (s *messageService) Append(ctx context.Context, sessionId uuid.UUID, sender string, content string, metadata entity.Metadata) (*entity.ChatMessage, error) {
	if !constant.IsValidSender(sender) {
		return nil, apperror.Validation("invalid sender", map[string]interface{}{"sender": sender})
	}
	if err := metadata.Validate(); err != nil {
		return nil, apperror.Validation("metadata contains unsupported values", map[string]interface{}{"metadata": err.Error()})
	}
	if metadata == nil {
		metadata = entity.Metadata{}
	}

	release, err := s.locker.Lock(ctx, lock.SessionWriteKey(sessionId))
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	defer release()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, apperror.NotFound("session")
	}
	if !session.IsActive() {
		return nil, apperror.ErrSessionClosed
	}

	last, err := uow.ChatMessageRepository().FindOne(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.InLogOrder{Desc: true},
	)
	if err != nil {
		return nil, fmt.Errorf("load last message: %w", err)
	}

	var lastSeq int64
	floor := session.CreatedAt
	if last != nil {
		lastSeq = last.Seq
		floor = last.CreatedAt
	}
	createdAt := nextTimestamp(s.now(), floor, last != nil)

	tokens := s.counter.Count(content)

	ok, err := uow.ChatSessionRepository().IncrementCounters(ctx, sessionId, tokens, createdAt)
	if err != nil {
		return nil, fmt.Errorf("increment counters: %w", err)
	}
	if !ok {
		return nil, apperror.ErrSessionClosed
	}

	message := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Seq:           lastSeq + 1,
		Sender:        sender,
		Content:       content,
		Tokens:        tokens,
		Metadata:      metadata,
		CreatedAt:     createdAt,
	}
	if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	if sender == constant.SenderUser && session.Title == nil {
		if err := uow.ChatSessionRepository().SetTitleIfEmpty(ctx, sessionId, DeriveTitle(content)); err != nil {
			return nil, fmt.Errorf("derive title: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit message: %w", err)
	}

	publishEvent(ctx, s.publisher, s.logger, constant.EventMessageAppended, map[string]interface{}{
		"session_id": sessionId.String(),
		"user_id":    session.UserId.String(),
		"message_id": message.Id.String(),
		"seq":        message.Seq,
		"sender":     sender,
		"tokens":     tokens,
	})

	return message, nil
}

// nextTimestamp keeps created_at strictly increasing within a session at
// microsecond resolution, even when the wall clock steps backwards.
func nextTimestamp(now time.Time, floor time.Time, strict bool) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	floor = floor.UTC().Truncate(time.Microsecond)
	if now.After(floor) || (!strict && now.Equal(floor)) {
		return now
	}
	return floor.Add(time.Microsecond)
}

// DeriveTitle turns the first user message into a session title.
func DeriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	runes := []rune(title)
	if len(runes) > constant.DerivedTitleMaxRunes {
		return strings.TrimSpace(string(runes[:constant.DerivedTitleMaxRunes]))
	}
	return title
}

func (s *messageService) History(ctx context.Context, actor entity.Identity, sessionId uuid.UUID, query dto.HistoryQuery) (*dto.ChatHistoryResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if limit > constant.HistoryMaxLimit {
		limit = constant.HistoryMaxLimit
	}

	var afterSeq int64
	if query.Cursor != "" {
		cursor, err := dto.DecodeCursor(query.Cursor)
		if err != nil {
			if errors.Is(err, dto.ErrInvalidCursor) {
				return nil, apperror.Validation("invalid cursor", map[string]interface{}{"cursor": "malformed"})
			}
			return nil, err
		}
		afterSeq = cursor.Seq
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, apperror.NotFound("session")
	}
	if !actor.CanAccess(session) {
		return nil, apperror.ErrForbidden
	}

	// One extra row tells whether another page exists.
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.AfterSeq{Seq: afterSeq},
		specification.InLogOrder{},
		specification.Pagination{Limit: limit + 1},
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	var nextCursor *string
	switch {
	case len(messages) > 0:
		lastSeen := messages[len(messages)-1]
		token := dto.EncodeCursor(dto.HistoryCursor{
			CreatedAt: lastSeen.CreatedAt,
			Seq:       lastSeen.Seq,
			Id:        lastSeen.Id,
		})
		nextCursor = &token
	case query.Cursor != "":
		token := query.Cursor
		nextCursor = &token
	}

	return &dto.ChatHistoryResponse{
		Session:       ToSessionResponse(session),
		Messages:      toMessageResponses(messages),
		TotalMessages: int64(session.MessageCount),
		NextCursor:    nextCursor,
		HasMore:       hasMore,
	}, nil
}

func (s *messageService) Recent(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatMessage, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.InLogOrder{Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}
	slices.Reverse(messages)
	return messages, nil
}
