package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/service/topicgen"
	"github.com/phrazzld/cizu-api/internal/store"
	"github.com/phrazzld/cizu-api/internal/task"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"topic not found", topicgen.ErrTopicNotFound, http.StatusNotFound},
		{"store not found", fmt.Errorf("get: %w", store.ErrTopicNotFound), http.StatusNotFound},
		{"in progress", topicgen.ErrAlreadyInProgress, http.StatusConflict},
		{"validation", domain.NewValidationError("id", "is required", domain.ErrValidation), http.StatusBadRequest},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"queue full", fmt.Errorf("submit: %w", task.ErrQueueFull), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "Topic not found", GetSafeErrorMessage(store.ErrTopicNotFound))
	assert.Equal(t, "Topic generation already in progress", GetSafeErrorMessage(topicgen.ErrAlreadyInProgress))
	assert.Equal(t, "invalid id: has invalid format",
		GetSafeErrorMessage(domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID)))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(errors.New("dial tcp 10.0.0.3:5432: connection refused")))
}
