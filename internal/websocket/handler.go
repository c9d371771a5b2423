package websocket

import (
	"context"

	"easylaw-be/internal/entity"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one chat connection until the peer goes away. Turns still
// running at that point finish in the background. It returns only after
// the writer has stopped, since the conn is pooled once the handler exits.
func ServeWs(hub *Hub, conn *websocket.Conn, identity entity.Identity, streams service.IStreamService, log logger.ILogger) {
	client := newClient(hub, conn, identity, streams, log)
	if !hub.Register(client) {
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.writePump()
	client.readPump(ctx)

	client.close()
	<-client.writerDone
}
