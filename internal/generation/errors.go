package generation

import "errors"

// Common errors returned by the generation package and its providers.
var (
	// ErrGenerationFailed is returned when generation fails for any general reason.
	ErrGenerationFailed = errors.New("content generation failed")

	// ErrInvalidResponse is returned when the model's output cannot be parsed or
	// is missing required fields. Callers treat it as a validation failure.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry.
	ErrTransientFailure = errors.New("transient error during content generation")

	// ErrInvalidConfig is returned when a generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrInvalidRequest is returned when a request is missing required input.
	ErrInvalidRequest = errors.New("invalid generation request")
)
