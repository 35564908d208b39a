package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the config reads.
const EnvPrefix = "CIZU"

// Default model names per provider.
const (
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-haiku-4-5"
)

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from the file. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound.
	for _, key := range []string{
		"database.url",
		"llm.gemini_api_key",
		"llm.openai_api_key",
		"llm.openai_base_url",
		"llm.anthropic_api_key",
		"llm.anthropic_base_url",
		"llm.model_name",
		"llm.word_prompt_path",
		"llm.sentence_prompt_path",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyProviderDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("generation.sentence_concurrency", 5)
	v.SetDefault("generation.progress_interval", 800*time.Millisecond)
	v.SetDefault("generation.max_attempts", 3)
	v.SetDefault("generation.stale_after", 10*time.Minute)
	v.SetDefault("generation.resume_interval", 5*time.Minute)
	v.SetDefault("generation.max_resumes", 3)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age", 30*time.Minute)
}

func applyProviderDefaults(cfg *Config) {
	if cfg.LLM.ModelName != "" {
		return
	}
	switch cfg.LLM.Provider {
	case ProviderOpenAI:
		cfg.LLM.ModelName = DefaultOpenAIModel
	case ProviderAnthropic:
		cfg.LLM.ModelName = DefaultAnthropicModel
	default:
		cfg.LLM.ModelName = DefaultGeminiModel
	}
}
