package controller

import (
	"easylaw-be/internal/dto"
	"easylaw-be/internal/pkg/apperror"
	"easylaw-be/internal/pkg/serverutils"
	"easylaw-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	CreateSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	CloseSession(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
	messageService service.IMessageService
}

func NewSessionController(sessionService service.ISessionService, messageService service.IMessageService) ISessionController {
	return &sessionController{
		sessionService: sessionService,
		messageService: messageService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/chat/v1/sessions", auth)
	h.Post("", c.CreateSession)
	h.Get("", c.ListSessions)
	h.Get("/:id", c.GetSession)
	h.Post("/:id/close", c.CloseSession)
	h.Get("/:id/messages", c.GetHistory)
}

func (c *sessionController) CreateSession(ctx *fiber.Ctx) error {
	actor, err := serverutils.CurrentIdentity(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sessionService.CreateSession(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *sessionController) ListSessions(ctx *fiber.Ctx) error {
	actor, err := serverutils.CurrentIdentity(ctx)
	if err != nil {
		return err
	}

	res, err := c.sessionService.ListSessions(ctx.UserContext(), actor.UserId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get sessions", res))
}

func (c *sessionController) GetSession(ctx *fiber.Ctx) error {
	actor, err := serverutils.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.sessionService.GetSession(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *sessionController) CloseSession(ctx *fiber.Ctx) error {
	actor, err := serverutils.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.sessionService.CloseSession(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session closed", res))
}

func (c *sessionController) GetHistory(ctx *fiber.Ctx) error {
	actor, err := serverutils.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var query dto.HistoryQuery
	if err := ctx.QueryParser(&query); err != nil {
		return apperror.Validation("invalid query", nil)
	}
	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}

	res, err := c.messageService.History(ctx.UserContext(), actor, id, query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}
