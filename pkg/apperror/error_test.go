package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	cause := errors.New("disk full")

	assert.Equal(t, http.StatusBadRequest, Validation("missing required fields").Code)
	assert.Equal(t, http.StatusBadRequest, BadRequest("Invalid request body").Code)

	storageErr := Storage("Failed to send email", cause)
	assert.Equal(t, http.StatusInternalServerError, storageErr.Code)
	assert.ErrorIs(t, storageErr, cause)

	wrapped := fmt.Errorf("submit: %w", Dispatch("Failed to send email", cause))
	assert.Equal(t, KindDispatch, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(cause))
}
