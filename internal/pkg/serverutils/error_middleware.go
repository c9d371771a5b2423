package serverutils

import (
	"errors"

	"easylaw-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders errors returned by handlers further down
// the chain.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return ErrorHandler(ctx, err)
	}
}

// ErrorHandler is also installed as fiber's own ErrorHandler so routing
// errors (404, 405) share the envelope.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
	}

	appErr := apperror.From(err)
	message := appErr.Message
	if appErr.Code == apperror.CodeInternal {
		message = apperror.ErrInternal.Message
	}
	return ctx.Status(appErr.Status).JSON(BaseResponse[any]{
		Success: false,
		Code:    appErr.Status,
		Message: message,
		Error:   appErr.Code,
		Details: appErr.Details,
	})
}
