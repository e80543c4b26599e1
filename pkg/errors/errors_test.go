package errors

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrInvalidInput, "end must be after start")

	assert.Equal(t, "end must be after start", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, stdErrors.Is(err, ErrInvalidInput))
	assert.False(t, stdErrors.Is(err, ErrValidation))
	assert.True(t, IsInvalidInput(fmt.Errorf("generate: %w", err)))
	assert.Equal(t, "invalid scheduling input", ErrInvalidInput.Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestWrapUnwraps(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed to load sessions")

	assert.Equal(t, "failed to load sessions: connection refused", err.Error())
	assert.True(t, stdErrors.Is(err, cause))
	assert.True(t, stdErrors.Is(err, ErrInternal))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	typed := Clone(ErrNotFound, "proposal not found or expired")
	assert.Same(t, typed, FromError(fmt.Errorf("lookup: %w", typed)))

	generic := FromError(stdErrors.New("boom"))
	require.NotNil(t, generic)
	assert.Equal(t, ErrInternal.Code, generic.Code)
	assert.Equal(t, http.StatusInternalServerError, generic.Status)
}

func TestNilErrorIsSafe(t *testing.T) {
	var err *Error
	assert.Equal(t, "<nil>", err.Error())
	assert.Nil(t, err.Unwrap())
	assert.False(t, err.Is(ErrInternal))
}

type sessionPayload struct {
	TherapistID string        `validate:"required"`
	Duration    int           `validate:"min=15"`
	Slots       []slotPayload `validate:"dive"`
}

type slotPayload struct {
	Start string `validate:"required"`
}

func TestInvalidCollectsFieldDetails(t *testing.T) {
	verr := validator.New().Struct(sessionPayload{Duration: 5, Slots: []slotPayload{{}}})
	require.Error(t, verr)

	err := Invalid(fmt.Errorf("bind: %w", verr), "invalid session payload")
	assert.True(t, stdErrors.Is(err, ErrValidation))
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, map[string]string{
		"TherapistID":    "required",
		"Duration":       "min=15",
		"Slots[0].Start": "required",
	}, err.Details)
}

func TestInvalidReportsJSONTypeErrors(t *testing.T) {
	var out struct {
		Duration int `json:"durationMinutes"`
	}
	decodeErr := json.Unmarshal([]byte(`{"durationMinutes":"sixty"}`), &out)
	require.Error(t, decodeErr)

	err := Invalid(decodeErr, "invalid payload")
	assert.Equal(t, map[string]string{"durationMinutes": "must be int"}, err.Details)

	plain := Invalid(stdErrors.New("EOF"), "invalid payload")
	assert.Nil(t, plain.Details)
	assert.Equal(t, "invalid payload: EOF", plain.Error())
}
