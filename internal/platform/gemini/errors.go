package gemini

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/phrazzld/cizu-api/internal/generation"
)

// classifyError maps a Gemini client error onto the generation error set.
// Rate limits and server errors stay transient; request and credential
// errors become permanent.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: gemini rejected credentials: %v", generation.ErrInvalidConfig, err)
	case apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: gemini rejected request: %v", generation.ErrInvalidRequest, err)
	default:
		return err
	}
}
