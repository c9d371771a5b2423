package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AdminLog struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	AdminId       uuid.UUID `gorm:"type:uuid;not null;index"`
	Action        string    `gorm:"type:varchar(50);not null;index"`
	Params        datatypes.JSON
	Result        datatypes.JSON
	Success       bool    `gorm:"not null"`
	ErrorMessage  *string `gorm:"type:text"`
	ExecutionTime float64
	IpAddress     string    `gorm:"type:varchar(64)"`
	UserAgent     string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

func (AdminLog) TableName() string {
	return "admin_logs"
}
