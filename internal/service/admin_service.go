package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/entity"
	"easylaw-be/internal/pkg/apperror"
	"easylaw-be/internal/pkg/lock"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/internal/repository/specification"
	"easylaw-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IAdminService interface {
	GetStats(ctx context.Context) (*dto.AdminStatsResponse, error)

	// Maintenance
	RepairMessageCounts(ctx context.Context, admin entity.Identity, meta dto.RequestMeta, request *dto.RepairCountsRequest) (*dto.RepairCountsResponse, error)

	// Session oversight
	ListUserSessions(ctx context.Context, userId uuid.UUID) (*dto.SessionsListResponse, error)
	CloseSession(ctx context.Context, admin entity.Identity, meta dto.RequestMeta, sessionId uuid.UUID) (*dto.SessionResponse, error)

	// Logs
	GetAdminLogs(ctx context.Context, query dto.PageQuery) (*dto.AdminLogListResponse, error)
	GetSystemLogs(ctx context.Context, query dto.PageQuery) ([]*dto.LogListResponse, error)
	GetSystemLogById(ctx context.Context, id string) (*dto.LogListResponse, error)
}

type adminService struct {
	uowFactory unitofwork.RepositoryFactory
	sessions   ISessionService
	locker     lock.Locker
	logger     logger.ILogger
	now        Clock
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	sessions ISessionService,
	locker lock.Locker,
	logger logger.ILogger,
) IAdminService {
	return &adminService{
		uowFactory: uowFactory,
		sessions:   sessions,
		locker:     locker,
		logger:     logger,
		now:        systemClock,
	}
}

func (s *adminService) GetStats(ctx context.Context) (*dto.AdminStatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	stats := &dto.AdminStatsResponse{GeneratedAt: s.now()}

	var err error
	if stats.TotalUsers, err = uow.UserRepository().Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.ActiveUsers, err = uow.UserRepository().Count(ctx, specification.ActiveUsers{}); err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}
	if stats.TotalSessions, err = uow.ChatSessionRepository().Count(ctx); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if stats.ActiveSessions, err = uow.ChatSessionRepository().Count(ctx, specification.ByStatus{Status: constant.SessionStatusActive}); err != nil {
		return nil, fmt.Errorf("count active sessions: %w", err)
	}
	if stats.TotalMessages, err = uow.ChatMessageRepository().Count(ctx); err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	today := stats.GeneratedAt.Truncate(24 * time.Hour)
	for i := 6; i >= 0; i-- {
		from := today.AddDate(0, 0, -i)
		count, err := uow.ChatMessageRepository().Count(ctx, specification.CreatedBetween{From: from, To: from.AddDate(0, 0, 1)})
		if err != nil {
			return nil, fmt.Errorf("count daily messages: %w", err)
		}
		stats.SevenDayActivity = append(stats.SevenDayActivity, dto.DailyActivity{
			Date:     from.Format("2006-01-02"),
			Messages: count,
		})
	}
	stats.MessagesToday = stats.SevenDayActivity[len(stats.SevenDayActivity)-1].Messages

	return stats, nil
}

// RepairMessageCounts recomputes message_count and total_tokens from the
// message log and rewrites sessions that drifted.
func (s *adminService) RepairMessageCounts(ctx context.Context, admin entity.Identity, meta dto.RequestMeta, request *dto.RepairCountsRequest) (*dto.RepairCountsResponse, error) {
	started := time.Now()
	params := map[string]interface{}{}
	if request != nil && request.SessionId != nil {
		params["session_id"] = request.SessionId.String()
	}

	response, err := s.repairCounts(ctx, request)

	result := map[string]interface{}{}
	if response != nil {
		result["checked"] = response.Checked
		result["repaired"] = len(response.Repaired)
	}
	s.recordAction(ctx, admin, meta, constant.AdminActionRepairCounts, params, result, started, err)

	if err != nil {
		return nil, err
	}
	return response, nil
}

func (s *adminService) repairCounts(ctx context.Context, request *dto.RepairCountsRequest) (*dto.RepairCountsResponse, error) {
	var sessionIds []uuid.UUID
	if request != nil && request.SessionId != nil {
		sessionIds = []uuid.UUID{*request.SessionId}
	} else {
		sessions, err := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().FindAll(ctx,
			specification.OrderBy{Field: "created_at"},
		)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessionIds = lo.Map(sessions, func(session *entity.ChatSession, _ int) uuid.UUID { return session.Id })
	}

	response := &dto.RepairCountsResponse{Repaired: []dto.RepairedSession{}}
	for _, sessionId := range sessionIds {
		repaired, err := s.repairSession(ctx, sessionId)
		if err != nil {
			return nil, err
		}
		response.Checked++
		if repaired != nil {
			response.Repaired = append(response.Repaired, *repaired)
		}
	}

	s.logger.Info("ADMIN", "Message count repair finished", map[string]interface{}{
		"checked":  response.Checked,
		"repaired": len(response.Repaired),
	})
	return response, nil
}

// repairSession holds the session write lock so no append can slip in
// between counting and rewriting.
func (s *adminService) repairSession(ctx context.Context, sessionId uuid.UUID) (*dto.RepairedSession, error) {
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

	totals, err := uow.ChatMessageRepository().Totals(ctx, sessionId)
	if err != nil {
		return nil, fmt.Errorf("sum messages: %w", err)
	}
	actualCount, actualTokens := int(totals.Count), int(totals.Tokens)
	if actualCount == session.MessageCount && actualTokens == session.TotalTokens {
		return nil, nil
	}

	if err := uow.ChatSessionRepository().OverwriteCounters(ctx, sessionId, actualCount, actualTokens); err != nil {
		return nil, fmt.Errorf("overwrite counters: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit repair: %w", err)
	}

	s.logger.Warn("ADMIN", "Session counters drifted from message log", map[string]interface{}{
		"session_id":    sessionId.String(),
		"stored_count":  session.MessageCount,
		"actual_count":  actualCount,
		"stored_tokens": session.TotalTokens,
		"actual_tokens": actualTokens,
	})

	return &dto.RepairedSession{
		SessionId:          sessionId,
		StoredMessageCount: session.MessageCount,
		ActualMessageCount: actualCount,
		StoredTotalTokens:  session.TotalTokens,
		ActualTotalTokens:  actualTokens,
	}, nil
}

func (s *adminService) ListUserSessions(ctx context.Context, userId uuid.UUID) (*dto.SessionsListResponse, error) {
	return s.sessions.ListSessions(ctx, userId)
}

func (s *adminService) CloseSession(ctx context.Context, admin entity.Identity, meta dto.RequestMeta, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	started := time.Now()
	session, err := s.sessions.CloseSession(ctx, admin, sessionId)

	result := map[string]interface{}{}
	if session != nil {
		result["status"] = session.Status
		result["owner_id"] = session.UserId.String()
	}
	s.recordAction(ctx, admin, meta, constant.AdminActionCloseSession,
		map[string]interface{}{"session_id": sessionId.String()}, result, started, err)

	return session, err
}

func (s *adminService) GetAdminLogs(ctx context.Context, query dto.PageQuery) (*dto.AdminLogListResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	var filters []specification.Specification
	if query.Action != "" {
		filters = append(filters, specification.ByAction{Action: query.Action})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.AdminLogRepository().Count(ctx, filters...)
	if err != nil {
		return nil, fmt.Errorf("count admin logs: %w", err)
	}
	logs, err := uow.AdminLogRepository().FindAll(ctx, append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: query.Offset},
	)...)
	if err != nil {
		return nil, fmt.Errorf("list admin logs: %w", err)
	}

	return &dto.AdminLogListResponse{
		Logs:  lo.Map(logs, func(log *entity.AdminLog, _ int) *dto.AdminLogResponse { return toAdminLogResponse(log) }),
		Total: total,
	}, nil
}

func (s *adminService) GetSystemLogs(ctx context.Context, query dto.PageQuery) ([]*dto.LogListResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.logger.GetLogs(query.Level, limit, query.Offset)
	if err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	return lo.Map(entries, func(entry logger.LogEntry, _ int) *dto.LogListResponse {
		return toLogResponse(&entry)
	}), nil
}

func (s *adminService) GetSystemLogById(ctx context.Context, id string) (*dto.LogListResponse, error) {
	entry, err := s.logger.GetLogById(id)
	if err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	if entry == nil {
		return nil, apperror.NotFound("log entry")
	}
	return toLogResponse(entry), nil
}

// recordAction never fails the admin operation it describes.
func (s *adminService) recordAction(ctx context.Context, admin entity.Identity, meta dto.RequestMeta, action string, params, result map[string]interface{}, started time.Time, opErr error) {
	entry := &entity.AdminLog{
		Id:            uuid.New(),
		AdminId:       admin.UserId,
		Action:        action,
		Params:        params,
		Result:        result,
		Success:       opErr == nil,
		ExecutionTime: time.Since(started).Seconds(),
		IpAddress:     meta.IpAddress,
		UserAgent:     meta.UserAgent,
		CreatedAt:     s.now(),
	}
	if opErr != nil {
		message := opErr.Error()
		var appErr *apperror.AppError
		if errors.As(opErr, &appErr) {
			message = appErr.Code + ": " + appErr.Message
		}
		entry.ErrorMessage = &message
	}

	if err := s.uowFactory.NewUnitOfWork(ctx).AdminLogRepository().Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("ADMIN", "Failed to record admin action", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
	}
}

func toAdminLogResponse(log *entity.AdminLog) *dto.AdminLogResponse {
	return &dto.AdminLogResponse{
		Id:            log.Id,
		AdminId:       log.AdminId,
		Action:        log.Action,
		Params:        log.Params,
		Result:        log.Result,
		Success:       log.Success,
		ErrorMessage:  log.ErrorMessage,
		ExecutionTime: log.ExecutionTime,
		IpAddress:     log.IpAddress,
		UserAgent:     log.UserAgent,
		CreatedAt:     log.CreatedAt,
	}
}

func toLogResponse(entry *logger.LogEntry) *dto.LogListResponse {
	return &dto.LogListResponse{
		Id:        entry.Id,
		Timestamp: entry.Timestamp,
		Level:     entry.Level,
		Module:    entry.Module,
		Message:   entry.Message,
		Details:   entry.Details,
	}
}
