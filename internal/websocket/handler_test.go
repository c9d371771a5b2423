package websocket

import (
	"net"
	"testing"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/entity"
	"easylaw-be/internal/pkg/apperror"
	"easylaw-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWsServer(t *testing.T, hub *Hub) string {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		identity := entity.Identity{UserId: uuid.New(), Role: constant.RoleUser}
		ServeWs(hub, conn, identity, nil, logger.NewNopLogger())
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + ln.Addr().String() + "/ws"
}

func totalConnections(hub *Hub) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	n := 0
	for _, clients := range hub.clients {
		n += len(clients)
	}
	return n
}

// Each pooled conn is reused by the next handshake, so every connection
// must only ever see its own frames.
func TestServeWs_ReconnectsKeepFramesIsolated(t *testing.T) {
	hub := startHub(t, nil)
	url := startWsServer(t, hub)

	for i := 0; i < 100; i++ {
		conn, _, err := gws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)

		require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"type":"ping"}`)))

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var frame dto.StreamingMessage
		require.NoError(t, conn.ReadJSON(&frame), "connection %d", i)
		assert.Equal(t, constant.StreamEventError, frame.Type)
		assert.Equal(t, apperror.CodeValidation, frame.Metadata["code"])

		_ = conn.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
		_ = conn.Close()
	}

	require.Eventually(t, func() bool {
		return totalConnections(hub) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
