// Package anthropic implements generation.Generator on the Anthropic
// Messages API.
package anthropic
