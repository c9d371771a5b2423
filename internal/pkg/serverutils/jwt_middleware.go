package serverutils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/entity"
	"easylaw-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken issues an HS256 token carrying user_id and role.
func GenerateToken(secret string, userId uuid.UUID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userId.String(),
		"role":    role,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a token and returns the identity it carries.
func ParseToken(secret, tokenStr string) (entity.Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return entity.Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Identity{}, ErrInvalidToken
	}
	rawId, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(rawId)
	if err != nil {
		return entity.Identity{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = constant.RoleUser
	}
	return entity.Identity{UserId: userId, Role: role}, nil
}

func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
		}

		identity, err := ParseToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
		}

		ctx.Locals("user_id", identity.UserId.String())
		ctx.Locals("role", identity.Role)
		return ctx.Next()
	}
}

// RequireRole must run after JwtMiddleware.
func RequireRole(role string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if current, _ := ctx.Locals("role").(string); current != role {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied"))
		}
		return ctx.Next()
	}
}

// CurrentIdentity reads the identity stored by JwtMiddleware.
func CurrentIdentity(ctx *fiber.Ctx) (entity.Identity, error) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return entity.Identity{}, apperror.ErrUnauthorized
	}
	role, _ := ctx.Locals("role").(string)
	return entity.Identity{UserId: userId, Role: role}, nil
}

// RequestMeta captures caller details for the admin action log.
func RequestMeta(ctx *fiber.Ctx) dto.RequestMeta {
	return dto.RequestMeta{
		IpAddress: ctx.IP(),
		UserAgent: ctx.Get(fiber.HeaderUserAgent),
	}
}
