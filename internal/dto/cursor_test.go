package dto

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	c := HistoryCursor{
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 123000, time.UTC),
		Seq:       42,
		Id:        uuid.New(),
	}
	token := EncodeCursor(c)
	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "+")

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, c.Seq, decoded.Seq)
	assert.Equal(t, c.Id, decoded.Id)
	assert.True(t, c.CreatedAt.Equal(decoded.CreatedAt))
}

func TestDecodeCursor_Rejects(t *testing.T) {
	tests := map[string]string{
		"not base64":   "%%%",
		"not json":     "bm90LWpzb24",
		"missing seq":  EncodeCursor(HistoryCursor{Id: uuid.New()}),
		"negative seq": EncodeCursor(HistoryCursor{Seq: -1}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(token)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}
