package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/cizu-api/internal/api/shared"
	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/service/topicgen"
	"github.com/phrazzld/cizu-api/internal/store"
	"github.com/phrazzld/cizu-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, topicgen.ErrTopicNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, topicgen.ErrAlreadyInProgress):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrQueueFull):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		// Field and message are set by our own code, never by input.
		return verr.Error()

	case errors.Is(err, topicgen.ErrTopicNotFound),
		errors.Is(err, store.ErrTopicNotFound):
		return "Topic not found"

	case errors.Is(err, topicgen.ErrAlreadyInProgress):
		return "Topic generation already in progress"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, task.ErrQueueFull):
		return "Too many generation requests, try again later"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the response for err. defaultMsg replaces the
// generic message for errors that map to 500.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		msg = defaultMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}
