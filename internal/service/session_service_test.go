package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()

	title := "  Pesangon  "
	session, err := h.sessions.CreateSession(context.Background(), owner, &dto.CreateSessionRequest{
		Mode:  constant.SessionModeLawsInternal,
		Title: &title,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, session.Id)
	assert.Equal(t, owner.UserId, session.UserId)
	assert.Equal(t, constant.SessionStatusActive, session.Status)
	assert.Equal(t, constant.SessionModeLawsInternal, session.Mode)
	require.NotNil(t, session.Title)
	assert.Equal(t, "Pesangon", *session.Title)
	assert.Zero(t, session.MessageCount)
	assert.Nil(t, session.ClosedAt)
	assert.Equal(t, 1, h.publisher.count(constant.EventSessionCreated))
}

func TestCreateSession_InvalidMode(t *testing.T) {
	h := newHarness(t)

	_, err := h.sessions.CreateSession(context.Background(), userIdentity(), &dto.CreateSessionRequest{Mode: "tax"})
	assert.ErrorIs(t, err, apperror.ErrInvalidMode)
}

func TestCreateSession_CapacityExceeded(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()

	first := h.createSession(t, owner)
	h.createSession(t, owner)
	h.createSession(t, owner)

	_, err := h.sessions.CreateSession(context.Background(), owner, &dto.CreateSessionRequest{Mode: constant.SessionModeLawsPublic})
	require.ErrorIs(t, err, apperror.ErrCapacityExceeded)
	appErr := apperror.From(err)
	assert.Equal(t, 3, appErr.Details["limit"])
	assert.Equal(t, int64(3), appErr.Details["active"])

	list, err := h.sessions.ListSessions(context.Background(), owner.UserId)
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.TotalSessions, "a rejected create must not leave a record")

	// Other owners are unaffected.
	h.createSession(t, userIdentity())

	_, err = h.sessions.CloseSession(context.Background(), owner, first.Id)
	require.NoError(t, err)
	h.createSession(t, owner)
}

func TestCreateSession_ConcurrentCreatesRespectCapacity(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.sessions.CreateSession(context.Background(), owner, &dto.CreateSessionRequest{Mode: constant.SessionModeLawsPublic})
		}(i)
	}
	wg.Wait()

	succeeded := lo.CountBy(errs, func(err error) bool { return err == nil })
	rejected := lo.CountBy(errs, func(err error) bool { return apperror.CodeOf(err) == apperror.ErrCapacityExceeded.Code })
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, attempts-3, rejected)

	list, err := h.sessions.ListSessions(context.Background(), owner.UserId)
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.ActiveSessions)
}

func TestCloseSession(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	created := h.createSession(t, owner)

	closed, err := h.sessions.CloseSession(context.Background(), owner, created.Id)
	require.NoError(t, err)
	assert.Equal(t, constant.SessionStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	closedAt := *closed.ClosedAt

	again, err := h.sessions.CloseSession(context.Background(), owner, created.Id)
	require.NoError(t, err)
	assert.Equal(t, constant.SessionStatusClosed, again.Status)
	require.NotNil(t, again.ClosedAt)
	assert.True(t, closedAt.Equal(*again.ClosedAt), "closing twice must not move closed_at")

	assert.Equal(t, 1, h.publisher.count(constant.EventSessionClosed))
}

func TestCloseSession_ConcurrentClosesTransitionOnce(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	created := h.createSession(t, owner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.sessions.CloseSession(context.Background(), owner, created.Id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.publisher.count(constant.EventSessionClosed))
	assert.Equal(t, constant.SessionStatusClosed, h.loadSession(t, created.Id).Status)
}

func TestCloseSession_Access(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	created := h.createSession(t, owner)

	t.Run("unknown session", func(t *testing.T) {
		_, err := h.sessions.CloseSession(context.Background(), owner, uuid.New())
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("other user", func(t *testing.T) {
		_, err := h.sessions.CloseSession(context.Background(), userIdentity(), created.Id)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		assert.True(t, h.loadSession(t, created.Id).IsActive())
	})

	t.Run("admin", func(t *testing.T) {
		closed, err := h.sessions.CloseSession(context.Background(), adminIdentity(), created.Id)
		require.NoError(t, err)
		assert.Equal(t, constant.SessionStatusClosed, closed.Status)
	})
}

func TestListSessions_NewestFirst(t *testing.T) {
	h := newHarness(t)
	h.sessions.(*sessionService).now = steppingClock(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC))
	owner := userIdentity()

	oldest := h.createSession(t, owner)
	middle := h.createSession(t, owner)
	newest := h.createSession(t, owner)
	h.createSession(t, userIdentity())

	_, err := h.sessions.CloseSession(context.Background(), owner, middle.Id)
	require.NoError(t, err)

	list, err := h.sessions.ListSessions(context.Background(), owner.UserId)
	require.NoError(t, err)

	ids := lo.Map(list.Sessions, func(s *dto.SessionResponse, _ int) uuid.UUID { return s.Id })
	assert.Equal(t, []uuid.UUID{newest.Id, middle.Id, oldest.Id}, ids)
	assert.Equal(t, int64(3), list.TotalSessions)
	assert.Equal(t, int64(2), list.ActiveSessions)
}

func TestGetSession(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	created := h.createSession(t, owner)

	got, err := h.sessions.GetSession(context.Background(), owner, created.Id)
	require.NoError(t, err)
	assert.Equal(t, created.Id, got.Id)

	_, err = h.sessions.GetSession(context.Background(), userIdentity(), created.Id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
