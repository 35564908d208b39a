// Package gemini implements generation.Generator on Google's Gemini API.
//
// It is an infrastructure adapter: prompts come from generation.Prompts,
// replies are requested as JSON with a response schema and parsed by the
// strict parsers in package generation, and transient API failures are
// retried with exponential backoff. Safety blocks and malformed output are
// reported as permanent errors so the caller's own attempt loop decides what
// happens next.
package gemini
