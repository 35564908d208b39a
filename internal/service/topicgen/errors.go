package topicgen

import (
	"errors"
	"fmt"
)

var (
	// ErrTopicNotFound is returned when the requested topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrAlreadyInProgress is returned when another run holds the topic.
	// The API layer maps it to 409 Conflict.
	ErrAlreadyInProgress = errors.New("topic generation already in progress")

	// ErrNoWordsPersisted is returned when a run needed words but none of the
	// proposed candidates could be stored.
	ErrNoWordsPersisted = errors.New("no words persisted")

	// ErrWordListFailed is returned when the word list service fails. It is
	// fatal to the run.
	ErrWordListFailed = errors.New("word list generation failed")

	// ErrNoValidTriple is returned by a word task when no attempt produced a
	// structurally valid sentence triple.
	ErrNoValidTriple = errors.New("no valid sentence triple")
)

// RunError wraps a failure of one step of a generation run.
type RunError struct {
	// Step is the run step that failed (e.g. "claim", "select_words")
	Step string
	// Err is the underlying error
	Err error
}

// Error implements the error interface for RunError.
func (e *RunError) Error() string {
	return fmt.Sprintf("topic generation %s failed: %v", e.Step, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *RunError) Unwrap() error {
	return e.Err
}

func stepError(step string, err error) error {
	if err == nil {
		return nil
	}
	return &RunError{Step: step, Err: err}
}
