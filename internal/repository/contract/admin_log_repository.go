package contract

import (
	"context"

	"easylaw-be/internal/entity"
	"easylaw-be/internal/repository/specification"
)

type AdminLogRepository interface {
	Create(ctx context.Context, log *entity.AdminLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AdminLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
