package controller

import (
	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/pkg/apperror"
	"easylaw-be/internal/pkg/serverutils"
	"easylaw-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetStats(ctx *fiber.Ctx) error
	RepairCounts(ctx *fiber.Ctx) error
	GetUserSessions(ctx *fiber.Ctx) error
	CloseSession(ctx *fiber.Ctx) error
	GetAdminLogs(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	service service.IAdminService
}

func NewAdminController(service service.IAdminService) IAdminController {
	return &adminController{service: service}
}

func (c *adminController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/admin/v1", auth, serverutils.RequireRole(constant.RoleAdmin))

	// Dashboard
	h.Get("/stats", c.GetStats)

	// Maintenance
	h.Post("/maintenance/repair-counts", c.RepairCounts)

	// Sessions
	h.Get("/users/:id/sessions", c.GetUserSessions)
	h.Post("/sessions/:id/close", c.CloseSession)

	// Logs
	h.Get("/admin-logs", c.GetAdminLogs)
	h.Get("/system-logs", c.GetLogs)
	h.Get("/system-logs/:id", c.GetLogDetail)
}

func (c *adminController) GetStats(ctx *fiber.Ctx) error {
	stats, err := c.service.GetStats(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Dashboard stats", stats))
}

func (c *adminController) RepairCounts(ctx *fiber.Ctx) error {
	admin, err := serverutils.CurrentIdentity(ctx)
	if err != nil {
		return err
	}

	var req dto.RepairCountsRequest
	if len(ctx.Body()) > 0 {
		if err := parseBody(ctx, &req); err != nil {
			return err
		}
	}

	res, err := c.service.RepairMessageCounts(ctx.UserContext(), admin, serverutils.RequestMeta(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Message counts repaired", res))
}

func (c *adminController) GetUserSessions(ctx *fiber.Ctx) error {
	userId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.ListUserSessions(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User sessions", res))
}

func (c *adminController) CloseSession(ctx *fiber.Ctx) error {
	admin, err := serverutils.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.CloseSession(ctx.UserContext(), admin, serverutils.RequestMeta(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session closed", res))
}

func (c *adminController) pageQuery(ctx *fiber.Ctx) (dto.PageQuery, error) {
	var query dto.PageQuery
	if err := ctx.QueryParser(&query); err != nil {
		return query, apperror.Validation("invalid query", nil)
	}
	return query, serverutils.ValidateRequest(query)
}

func (c *adminController) GetAdminLogs(ctx *fiber.Ctx) error {
	query, err := c.pageQuery(ctx)
	if err != nil {
		return err
	}

	logs, err := c.service.GetAdminLogs(ctx.UserContext(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Admin logs", logs))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	query, err := c.pageQuery(ctx)
	if err != nil {
		return err
	}

	logs, err := c.service.GetSystemLogs(ctx.UserContext(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	// Log ID is an md5 hash, not a UUID.
	entry, err := c.service.GetSystemLogById(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", entry))
}
