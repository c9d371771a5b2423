package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// HistoryCursor marks the last message a client has seen. It is handed out
// as an opaque base64url token.
type HistoryCursor struct {
	CreatedAt time.Time `json:"created_at"`
	Seq       int64     `json:"seq"`
	Id        uuid.UUID `json:"id"`
}

func EncodeCursor(c HistoryCursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func DecodeCursor(token string) (*HistoryCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c HistoryCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, ErrInvalidCursor
	}
	if c.Seq < 1 {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}
