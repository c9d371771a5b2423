package controller

import (
	"strings"

	"easylaw-be/internal/pkg/logger"
	"easylaw-be/internal/pkg/serverutils"
	"easylaw-be/internal/service"
	internalWS "easylaw-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatWsController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
}

type chatWsController struct {
	hub           *internalWS.Hub
	streamService service.IStreamService
	jwtSecret     string
	logger        logger.ILogger
}

func NewChatWsController(hub *internalWS.Hub, streamService service.IStreamService, jwtSecret string, log logger.ILogger) IChatWsController {
	return &chatWsController{
		hub:           hub,
		streamService: streamService,
		jwtSecret:     jwtSecret,
		logger:        log,
	}
}

func (c *chatWsController) RegisterRoutes(r fiber.Router) {
	r.Get("/chat/v1/ws", c.ServeWs)
}

// ServeWs authenticates the handshake and upgrades. Browsers cannot set
// headers on websocket requests, so the token may come in the query.
func (c *chatWsController) ServeWs(ctx *fiber.Ctx) error {
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		tokenStr = strings.TrimPrefix(ctx.Get("Authorization"), "Bearer ")
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Missing token"))
	}

	identity, err := serverutils.ParseToken(c.jwtSecret, tokenStr)
	if err != nil {
		c.logger.Warn("ChatWs", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("ChatWs", "Starting websocket session", map[string]interface{}{"user_id": identity.UserId.String()})
		internalWS.ServeWs(c.hub, conn, identity, c.streamService, c.logger)
		c.logger.Info("ChatWs", "Websocket session ended", map[string]interface{}{"user_id": identity.UserId.String()})
	})(ctx)
}
