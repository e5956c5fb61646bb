package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteError_Is(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("load items: %w", &errors.RemoteError{
		Method: http.MethodGet, Path: "/items", Message: "dial failed", Err: cause,
	})

	assert.True(t, errors.Is(err, errors.ErrRemote))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, errors.ErrValidation))

	var remote *errors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, 0, remote.StatusCode)
	assert.Contains(t, remote.Error(), "server unreachable")
}

func TestRemoteError_Message(t *testing.T) {
	err := &errors.RemoteError{StatusCode: http.StatusNotFound, Message: "item not found"}
	assert.Equal(t, "server error (404): item not found", err.Error())
	assert.True(t, err.IsNotFound())
}

func TestValidationErrors(t *testing.T) {
	errs := errors.ValidationErrors{
		errors.Invalid("quantity", "must be a positive number"),
		errors.Invalid("item_id", "select an item"),
	}

	var err error = errs
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Equal(t, []string{"item_id", "quantity"}, errs.Fields())
	assert.Equal(t, "select an item", errs.Details()["item_id"])
	assert.Equal(t, "quantity: must be a positive number; item_id: select an item", err.Error())

	single := errors.Invalid("count", "out of range")
	assert.True(t, errors.Is(single, errors.ErrValidation))
}

func TestAppErrorConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *errors.AppError
		status int
		code   string
		target error
	}{
		{"not found", errors.NotFound("item"), http.StatusNotFound, "NOT_FOUND", errors.ErrNotFound},
		{"bad request", errors.BadRequest("bad"), http.StatusBadRequest, "BAD_REQUEST", errors.ErrBadRequest},
		{"internal", errors.Internal("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", errors.ErrInternal},
		{"validation", errors.Validation(map[string]string{"name": "required"}), http.StatusBadRequest, "VALIDATION_ERROR", errors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.True(t, errors.Is(tt.err, tt.target))
		})
	}
	assert.Equal(t, "item not found: resource not found", errors.NotFound("item").Error())
}
