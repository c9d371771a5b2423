package entity

import (
	"easylaw-be/internal/constant"

	"github.com/google/uuid"
)

// Identity is the authenticated caller as established by the transport layer.
type Identity struct {
	UserId uuid.UUID
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == constant.RoleAdmin
}

func (i Identity) CanAccess(session *ChatSession) bool {
	return i.IsAdmin() || session.UserId == i.UserId
}
