package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"easylaw-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createReq struct {
	Mode  string  `json:"mode" validate:"required"`
	Title *string `json:"title" validate:"omitempty,max=5"`
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/capacity", func(ctx *fiber.Ctx) error {
		return apperror.CapacityExceeded(3, 3)
	})
	app.Get("/boom", func(ctx *fiber.Ctx) error {
		return errors.New("dial tcp: connection refused")
	})
	app.Get("/fiber", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad body")
	})

	tests := []struct {
		path    string
		status  int
		code    string
		message string
	}{
		{path: "/capacity", status: 409, code: apperror.CodeCapacityExceeded, message: "maximum number of active sessions reached"},
		{path: "/boom", status: 500, code: apperror.CodeInternal, message: "internal server error"},
		{path: "/fiber", status: 400, code: "", message: "bad body"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body BaseResponse[any]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	long := "much too long"
	err := ValidateRequest(&createReq{Title: &long})
	require.Error(t, err)

	appErr := apperror.From(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "is required", appErr.Details["mode"])
	assert.Equal(t, "must be at most 5", appErr.Details["title"])

	assert.NoError(t, ValidateRequest(&createReq{Mode: "laws_public"}))
}
