// Package config loads and validates application settings from environment
// variables (prefixed CIZU_) and an optional config.yaml, giving the server,
// database, LLM provider, generation runs and task runner typed access to
// their configuration.
package config
