package generation

// RetryParams are the sampling settings for one sentence attempt.
// Nil fields leave the provider default in place.
type RetryParams struct {
	Attempt          int
	Temperature      *float64
	TopP             *float64
	PresencePenalty  *float64
	FrequencyPenalty *float64
}

// MaxSentenceAttempts is the number of distinct parameter variants.
const MaxSentenceAttempts = 3

// RetryParamsFor returns the sampling settings for a 1-based attempt number.
// Attempt 1 is the default; attempt 2 raises temperature and adds penalties
// to push away from repeated phrasing; attempt 3 narrows sampling with a
// heavy frequency penalty. Attempts past the last variant reuse it.
func RetryParamsFor(attempt int) RetryParams {
	switch {
	case attempt <= 1:
		return RetryParams{
			Attempt:     1,
			Temperature: float(0.7),
			TopP:        float(0.95),
		}
	case attempt == 2:
		return RetryParams{
			Attempt:          2,
			Temperature:      float(0.95),
			PresencePenalty:  float(0.6),
			FrequencyPenalty: float(0.4),
		}
	default:
		return RetryParams{
			Attempt:          attempt,
			Temperature:      float(0.5),
			TopP:             float(0.8),
			PresencePenalty:  float(0.3),
			FrequencyPenalty: float(0.8),
		}
	}
}

func float(v float64) *float64 { return &v }
