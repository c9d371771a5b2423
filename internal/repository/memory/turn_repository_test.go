package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnRepository_SaveAndGet(t *testing.T) {
	repo := NewTurnRepository(time.Minute)
	sessionId := uuid.New()
	turn := &CompletedTurn{
		SessionId:          sessionId,
		RequestId:          "req-1",
		AssistantMessageId: uuid.New(),
	}
	repo.Save(turn)

	got, ok := repo.Get(sessionId, "req-1")
	require.True(t, ok)
	assert.Equal(t, turn.AssistantMessageId, got.AssistantMessageId)

	_, ok = repo.Get(uuid.New(), "req-1")
	assert.False(t, ok, "request ids are scoped to their session")

	_, ok = repo.Get(sessionId, "req-2")
	assert.False(t, ok)
}

func TestTurnRepository_Expires(t *testing.T) {
	repo := NewTurnRepository(20 * time.Millisecond)
	sessionId := uuid.New()
	repo.Save(&CompletedTurn{SessionId: sessionId, RequestId: "r"})

	time.Sleep(40 * time.Millisecond)
	_, ok := repo.Get(sessionId, "r")
	assert.False(t, ok)
}
