package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/model"
	"easylaw-be/internal/pkg/apperror"
	"easylaw-be/internal/pkg/lock"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/internal/pkg/serverutils"
	"easylaw-be/internal/pkg/tokenizer"
	"easylaw-be/internal/repository/unitofwork"
	"easylaw-be/internal/service"
	"easylaw-be/pkg/database/dbtest"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-secret"

type envelope struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details"`
	Data    json.RawMessage        `json:"data"`
}

func newSessionApp(t *testing.T) (*fiber.App, service.IMessageService) {
	t.Helper()

	db := dbtest.NewSQLite(t, &model.User{}, &model.ChatSession{}, &model.ChatMessage{})
	factory := unitofwork.NewRepositoryFactory(db)
	locker := lock.NewKeyedMutex()
	log := logger.NewNopLogger()

	sessions := service.NewSessionService(factory, locker, nil, log, service.SessionServiceConfig{MaxActiveSessions: 3})
	messages := service.NewMessageService(factory, locker, tokenizer.ApproximateCounter{}, nil, log, service.MessageServiceConfig{HistoryLimit: 50})

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewSessionController(sessions, messages).RegisterRoutes(app.Group("/api"), serverutils.JwtMiddleware(testSecret))
	return app, messages
}

func tokenFor(t *testing.T, userId uuid.UUID, role string) string {
	t.Helper()
	token, err := serverutils.GenerateToken(testSecret, userId, role, time.Hour)
	require.NoError(t, err)
	return token
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestSessionRoutes_Lifecycle(t *testing.T) {
	app, _ := newSessionApp(t)
	token := tokenFor(t, uuid.New(), constant.RoleUser)

	status, env := call(t, app, "POST", "/api/chat/v1/sessions", token, map[string]string{"mode": constant.SessionModeLawsPublic})
	require.Equal(t, fiber.StatusCreated, status)
	var created dto.SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, constant.SessionStatusActive, created.Status)

	status, env = call(t, app, "GET", "/api/chat/v1/sessions", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var list dto.SessionsListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.TotalSessions)
	assert.EqualValues(t, 1, list.ActiveSessions)

	path := fmt.Sprintf("/api/chat/v1/sessions/%s/close", created.Id)
	for i := 0; i < 2; i++ {
		status, env = call(t, app, "POST", path, token, nil)
		require.Equal(t, fiber.StatusOK, status)
		var closed dto.SessionResponse
		require.NoError(t, json.Unmarshal(env.Data, &closed))
		assert.Equal(t, constant.SessionStatusClosed, closed.Status)
	}
}

func TestSessionRoutes_Errors(t *testing.T) {
	app, _ := newSessionApp(t)
	owner := tokenFor(t, uuid.New(), constant.RoleUser)
	stranger := tokenFor(t, uuid.New(), constant.RoleUser)

	status, env := call(t, app, "POST", "/api/chat/v1/sessions", owner, map[string]string{"mode": "gossip"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, apperror.CodeInvalidMode, env.Error)

	var created dto.SessionResponse
	_, env = call(t, app, "POST", "/api/chat/v1/sessions", owner, map[string]string{"mode": constant.SessionModeLawsInternal})
	require.NoError(t, json.Unmarshal(env.Data, &created))

	status, env = call(t, app, "GET", "/api/chat/v1/sessions/"+created.Id.String(), stranger, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, apperror.CodeForbidden, env.Error)

	status, env = call(t, app, "GET", "/api/chat/v1/sessions/not-a-uuid", owner, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, apperror.CodeValidation, env.Error)

	status, env = call(t, app, "GET", "/api/chat/v1/sessions/"+uuid.NewString(), owner, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, apperror.CodeNotFound, env.Error)

	status, _ = call(t, app, "GET", "/api/chat/v1/sessions", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestSessionRoutes_CapacityExceeded(t *testing.T) {
	app, _ := newSessionApp(t)
	token := tokenFor(t, uuid.New(), constant.RoleUser)

	for i := 0; i < 3; i++ {
		status, _ := call(t, app, "POST", "/api/chat/v1/sessions", token, map[string]string{"mode": constant.SessionModeLawsPublic})
		require.Equal(t, fiber.StatusCreated, status)
	}

	status, env := call(t, app, "POST", "/api/chat/v1/sessions", token, map[string]string{"mode": constant.SessionModeLawsPublic})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, apperror.CodeCapacityExceeded, env.Error)
	assert.NotEmpty(t, env.Details)
}

func TestSessionRoutes_HistoryPaging(t *testing.T) {
	app, messages := newSessionApp(t)
	userId := uuid.New()
	token := tokenFor(t, userId, constant.RoleUser)

	var created dto.SessionResponse
	_, env := call(t, app, "POST", "/api/chat/v1/sessions", token, map[string]string{"mode": constant.SessionModeLawsPublic})
	require.NoError(t, json.Unmarshal(env.Data, &created))

	for i := 0; i < 5; i++ {
		_, err := messages.Append(t.Context(), created.Id, constant.SenderUser, fmt.Sprintf("question %d", i), nil)
		require.NoError(t, err)
	}

	var seqs []int64
	cursor := ""
	for pages := 0; pages < 10; pages++ {
		path := fmt.Sprintf("/api/chat/v1/sessions/%s/messages?limit=2", created.Id)
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		status, env := call(t, app, "GET", path, token, nil)
		require.Equal(t, fiber.StatusOK, status)

		var page dto.ChatHistoryResponse
		require.NoError(t, json.Unmarshal(env.Data, &page))
		assert.EqualValues(t, 5, page.TotalMessages)
		for _, m := range page.Messages {
			seqs = append(seqs, m.Seq)
		}
		if !page.HasMore {
			break
		}
		require.NotNil(t, page.NextCursor)
		cursor = *page.NextCursor
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, seqs)

	status, env := call(t, app, "GET", fmt.Sprintf("/api/chat/v1/sessions/%s/messages?cursor=garbage", created.Id), token, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, apperror.CodeValidation, env.Error)
}
