// Package openai implements generation.Generator on the OpenAI chat
// completions API, or any server compatible with it via a base URL override.
package openai
