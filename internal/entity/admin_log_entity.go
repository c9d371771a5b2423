package entity

import (
	"time"

	"github.com/google/uuid"
)

type AdminLog struct {
	Id            uuid.UUID
	AdminId       uuid.UUID
	Action        string
	Params        map[string]interface{}
	Result        map[string]interface{}
	Success       bool
	ErrorMessage  *string
	ExecutionTime float64 // seconds
	IpAddress     string
	UserAgent     string
	CreatedAt     time.Time
}
