package service

import (
	"context"
	"fmt"
	"strings"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/entity"
	"easylaw-be/internal/pkg/apperror"
	"easylaw-be/internal/pkg/lock"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/internal/repository/specification"
	"easylaw-be/internal/repository/unitofwork"
	"easylaw-be/pkg/events"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ISessionService is the only writer of session status.
type ISessionService interface {
	CreateSession(ctx context.Context, actor entity.Identity, request *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	CloseSession(ctx context.Context, actor entity.Identity, sessionId uuid.UUID) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, ownerId uuid.UUID) (*dto.SessionsListResponse, error)
	GetSession(ctx context.Context, actor entity.Identity, sessionId uuid.UUID) (*dto.SessionResponse, error)

	// FindAccessible loads a session the actor may act on.
	FindAccessible(ctx context.Context, actor entity.Identity, sessionId uuid.UUID) (*entity.ChatSession, error)
}

type SessionServiceConfig struct {
	MaxActiveSessions int
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	locker     lock.Locker
	publisher  events.Publisher
	logger     logger.ILogger
	cfg        SessionServiceConfig
	now        Clock
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	locker lock.Locker,
	publisher events.Publisher,
	logger logger.ILogger,
	cfg SessionServiceConfig,
) ISessionService {
	if cfg.MaxActiveSessions <= 0 {
		cfg.MaxActiveSessions = 3
	}
	return &sessionService{
		uowFactory: uowFactory,
		locker:     locker,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
		now:        systemClock,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, actor entity.Identity, request *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	if !constant.IsValidSessionMode(request.Mode) {
		return nil, apperror.ErrInvalidMode.WithDetails(map[string]interface{}{
			"mode":    request.Mode,
			"allowed": []string{constant.SessionModeLawsPublic, constant.SessionModeLawsInternal},
		})
	}

	var title *string
	if request.Title != nil {
		trimmed := strings.TrimSpace(*request.Title)
		if len([]rune(trimmed)) > constant.SessionTitleMaxLength {
			return nil, apperror.Validation("title is too long", map[string]interface{}{"title": "must be at most 200 characters"})
		}
		if trimmed != "" {
			title = &trimmed
		}
	}

	// Count-then-insert must not interleave with another create for the
	// same owner.
	release, err := s.locker.Lock(ctx, lock.OwnerSessionsKey(actor.UserId))
	if err != nil {
		return nil, fmt.Errorf("acquire owner lock: %w", err)
	}
	defer release()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	active, err := uow.ChatSessionRepository().Count(ctx,
		specification.UserOwnedBy{UserID: actor.UserId},
		specification.ByStatus{Status: constant.SessionStatusActive},
	)
	if err != nil {
		return nil, fmt.Errorf("count active sessions: %w", err)
	}
	if active >= int64(s.cfg.MaxActiveSessions) {
		return nil, apperror.CapacityExceeded(s.cfg.MaxActiveSessions, active)
	}

	now := s.now()
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    actor.UserId,
		Mode:      request.Mode,
		Status:    constant.SessionStatusActive,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit session: %w", err)
	}

	s.logger.Info("SESSION", "Session created", map[string]interface{}{
		"session_id": session.Id.String(),
		"user_id":    actor.UserId.String(),
		"mode":       session.Mode,
	})
	publishEvent(ctx, s.publisher, s.logger, constant.EventSessionCreated, sessionEventData(session))

	return ToSessionResponse(session), nil
}

func (s *sessionService) CloseSession(ctx context.Context, actor entity.Identity, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	if _, err := s.FindAccessible(ctx, actor, sessionId); err != nil {
		return nil, err
	}

	// Serialize with appends so no message lands after closed_at.
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

	closed, err := uow.ChatSessionRepository().MarkClosed(ctx, sessionId, s.now())
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session")
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit close: %w", err)
	}

	if closed {
		s.logger.Info("SESSION", "Session closed", map[string]interface{}{
			"session_id": sessionId.String(),
			"closed_by":  actor.UserId.String(),
			"messages":   session.MessageCount,
		})
		publishEvent(ctx, s.publisher, s.logger, constant.EventSessionClosed, sessionEventData(session))
	}
	return ToSessionResponse(session), nil
}

func (s *sessionService) ListSessions(ctx context.Context, ownerId uuid.UUID) (*dto.SessionsListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: ownerId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	active := lo.CountBy(sessions, func(session *entity.ChatSession) bool {
		return session.IsActive()
	})

	return &dto.SessionsListResponse{
		Sessions:       lo.Map(sessions, func(session *entity.ChatSession, _ int) *dto.SessionResponse { return ToSessionResponse(session) }),
		TotalSessions:  int64(len(sessions)),
		ActiveSessions: int64(active),
	}, nil
}

func (s *sessionService) GetSession(ctx context.Context, actor entity.Identity, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.FindAccessible(ctx, actor, sessionId)
	if err != nil {
		return nil, err
	}
	return ToSessionResponse(session), nil
}

func (s *sessionService) FindAccessible(ctx context.Context, actor entity.Identity, sessionId uuid.UUID) (*entity.ChatSession, error) {
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
	return session, nil
}
