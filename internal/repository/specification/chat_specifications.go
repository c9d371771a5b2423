package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// AfterSeq is the keyset predicate used by history pagination.
type AfterSeq struct {
	Seq int64
}

func (s AfterSeq) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("seq > ?", s.Seq)
}

// InLogOrder orders messages by the log's total order.
type InLogOrder struct {
	Desc bool
}

func (s InLogOrder) Apply(db *gorm.DB) *gorm.DB {
	if s.Desc {
		return db.Order("created_at DESC").Order("seq DESC")
	}
	return db.Order("created_at ASC").Order("seq ASC")
}
