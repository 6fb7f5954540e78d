package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs_RecognisesWrappedAppError(t *testing.T) {
	base := NewInvalidStateError("cannot move a confirmed meal")
	wrapped := fmt.Errorf("move meal: %w", base)

	assert.True(t, Is(wrapped, CodeInvalidState))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.Equal(t, CodeInvalidState, GetCode(wrapped))
}

func TestGetCode_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, GetCode(fmt.Errorf("boom")))
}

func TestStatusCode(t *testing.T) {
	cases := map[*AppError]int{
		NewNotFoundError("meal", "1"):                  http.StatusNotFound,
		NewForbiddenError("meal", "1"):                 http.StatusForbidden,
		NewInvalidStateError("x"):                      http.StatusConflict,
		NewNoEligibleRecipeError("dinner"):             http.StatusUnprocessableEntity,
		NewSubscriptionWindowError("2024-01-01", nil):  http.StatusForbidden,
		NewDatabaseError("save week", fmt.Errorf("x")): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, err.StatusCode(), string(err.Code))
	}
}

func TestWrap_KeepsAppErrorAndWrapsOthers(t *testing.T) {
	appErr := NewForbiddenError("day", "d1")
	assert.Same(t, appErr, Wrap(appErr, "ignored"))

	cause := fmt.Errorf("disk full")
	wrapped := Wrap(cause, "write failed")
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)

	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestNotFoundError_Metadata(t *testing.T) {
	err := NewNotFoundError("preparation", "p-42")
	assert.Equal(t, "preparation", err.Metadata["resource"])
	assert.Equal(t, "p-42", err.Metadata["id"])
	assert.Contains(t, err.Error(), "p-42")
}
