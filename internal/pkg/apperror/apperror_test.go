package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := NotFound("session")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))

	wrapped := fmt.Errorf("load session: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "session not found", From(wrapped).Message)
}

func TestAppError_CapacityDetails(t *testing.T) {
	err := CapacityExceeded(3, 3)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Equal(t, 3, err.Details["limit"])
	assert.Nil(t, ErrCapacityExceeded.Details, "sentinel must not be mutated")
}

func TestFrom_UnknownErrorIsInternal(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := From(cause)

	assert.Equal(t, CodeInternal, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, cause)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeSessionBusy, CodeOf(ErrSessionBusy))
	assert.Equal(t, CodeUpstreamGeneration, CodeOf(ErrUpstream.Wrap(errors.New("timeout"))))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}
