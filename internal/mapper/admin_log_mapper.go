package mapper

import (
	"easylaw-be/internal/entity"
	"easylaw-be/internal/model"

	"github.com/samber/lo"
)

type AdminLogMapper struct{}

func NewAdminLogMapper() *AdminLogMapper {
	return &AdminLogMapper{}
}

func (m *AdminLogMapper) ToEntity(l *model.AdminLog) *entity.AdminLog {
	if l == nil {
		return nil
	}
	return &entity.AdminLog{
		Id:            l.Id,
		AdminId:       l.AdminId,
		Action:        l.Action,
		Params:        DecodeJSONMap(l.Params),
		Result:        DecodeJSONMap(l.Result),
		Success:       l.Success,
		ErrorMessage:  l.ErrorMessage,
		ExecutionTime: l.ExecutionTime,
		IpAddress:     l.IpAddress,
		UserAgent:     l.UserAgent,
		CreatedAt:     l.CreatedAt,
	}
}

func (m *AdminLogMapper) ToModel(l *entity.AdminLog) *model.AdminLog {
	if l == nil {
		return nil
	}
	return &model.AdminLog{
		Id:            l.Id,
		AdminId:       l.AdminId,
		Action:        l.Action,
		Params:        EncodeJSONMap(l.Params),
		Result:        EncodeJSONMap(l.Result),
		Success:       l.Success,
		ErrorMessage:  l.ErrorMessage,
		ExecutionTime: l.ExecutionTime,
		IpAddress:     l.IpAddress,
		UserAgent:     l.UserAgent,
		CreatedAt:     l.CreatedAt,
	}
}

func (m *AdminLogMapper) ToEntities(models []*model.AdminLog) []*entity.AdminLog {
	return lo.Map(models, func(item *model.AdminLog, _ int) *entity.AdminLog {
		return m.ToEntity(item)
	})
}
