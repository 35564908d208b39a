// Package generation defines the boundary between topic generation and the
// external LLM services that propose vocabulary and example sentences.
//
// It holds the WordListGenerator and SentenceGenerator interfaces, the request
// types passed across them, the retry parameter variants used on successive
// sentence attempts, the prompt templates shared by every provider, and the
// strict parsers that turn raw model output into validated domain values.
// Provider implementations live under internal/platform.
package generation
