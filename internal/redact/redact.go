// Package redact scrubs credentials and other sensitive fragments from error
// text before it reaches logs or HTTP responses. LLM client errors can echo
// API keys or request URLs, and database errors can echo connection strings
// and row values, so every error logged at a boundary goes through Error or
// ErrorAttr.
package redact

import (
	"log/slog"
	"regexp"
)

// Placeholders substituted for redacted fragments.
const (
	KeyPlaceholder        = "[REDACTED_KEY]"
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	HostPlaceholder       = "[REDACTED_HOST]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	StackPlaceholder      = "[STACK_TRACE_REDACTED]"
	SQLValuesPlaceholder  = "[SQL_VALUES_REDACTED]"
	SQLWherePlaceholder   = "[SQL_WHERE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules run in order; later rules see the output of earlier ones.
var rules = []rule{
	{
		regexp.MustCompile(`(?:goroutine \d+ \[|panic: )[\s\S]*`),
		StackPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql|mongodb|redis)://[^@\s/]+@`),
		"${1}://" + CredentialPlaceholder + "@",
	},
	{
		regexp.MustCompile(`(?i)\b(api[_-]?key|key|token|secret|password|passwd|pwd)(\s*[=:]\s*['"]?)[^'"&\s]{3,}`),
		"${1}${2}" + CredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-.~+/=]{8,}`),
		"Bearer " + KeyPlaceholder,
	},
	// Gemini API keys
	{
		regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
		KeyPlaceholder,
	},
	// OpenAI and Anthropic secret keys (sk-..., sk-ant-...)
	{
		regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{16,}`),
		KeyPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
		EmailPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\bVALUES\s*\(.*`),
		"VALUES " + SQLValuesPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\bSET\s+\w+\s*=.*`),
		"SET " + SQLValuesPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\bWHERE\s+[\w.]+\s*(?:=|<|>|!=|\bIN\b|\bIS\b|\bLIKE\b).*`),
		SQLWherePlaceholder,
	},
	{
		regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}(?::\d{1,5})?\b`),
		HostPlaceholder,
	},
	{
		regexp.MustCompile(`\b(?:[A-Za-z0-9\-]+\.)+[A-Za-z]{2,}:\d{1,5}\b`),
		HostPlaceholder,
	},
	{
		regexp.MustCompile(`(^|[\s'"=(])(?:/[\w.\-]+){2,}`),
		"${1}" + PathPlaceholder,
	},
}

// String returns input with every sensitive fragment replaced.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.replacement)
	}
	return input
}

// Error returns the redacted text of err, or "" for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// ErrorAttr is the log attribute for a redacted error.
func ErrorAttr(err error) slog.Attr {
	return slog.String("error", Error(err))
}
