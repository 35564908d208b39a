package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Task       TaskConfig       `mapstructure:"task"       validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// Supported LLM providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	Provider         string `mapstructure:"provider"           validate:"required,oneof=gemini openai anthropic"`
	GeminiAPIKey     string `mapstructure:"gemini_api_key"     validate:"required_if=Provider gemini"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key"     validate:"required_if=Provider openai"`
	OpenAIBaseURL    string `mapstructure:"openai_base_url"    validate:"omitempty,url"`
	AnthropicAPIKey  string `mapstructure:"anthropic_api_key"  validate:"required_if=Provider anthropic"`
	AnthropicBaseURL string `mapstructure:"anthropic_base_url" validate:"omitempty,url"`
	ModelName        string `mapstructure:"model_name"         validate:"required"`

	// MaxRetries is the number of transport-level retries per call.
	MaxRetries        int `mapstructure:"max_retries"         validate:"gte=0,lte=5"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`

	// Optional prompt template overrides; embedded defaults are used when empty.
	WordPromptPath     string `mapstructure:"word_prompt_path"`
	SentencePromptPath string `mapstructure:"sentence_prompt_path"`
}

// GenerationConfig tunes topic generation runs.
type GenerationConfig struct {
	SentenceConcurrency int           `mapstructure:"sentence_concurrency" validate:"gte=1,lte=20"`
	ProgressInterval    time.Duration `mapstructure:"progress_interval"    validate:"gt=0"`
	MaxAttempts         int           `mapstructure:"max_attempts"         validate:"gte=1,lte=3"`

	// StaleAfter is how long an in-progress topic may sit idle before another
	// run is allowed to claim it.
	StaleAfter time.Duration `mapstructure:"stale_after" validate:"gt=0"`

	// ResumeInterval is the sweep period for stalled topics. Zero disables it.
	ResumeInterval time.Duration `mapstructure:"resume_interval" validate:"gte=0"`

	// MaxResumes caps sweeper resumes of a topic that is not gaining words.
	MaxResumes int `mapstructure:"max_resumes" validate:"gte=1,lte=50"`
}

// TaskConfig contains background task runner settings.
type TaskConfig struct {
	WorkerCount  int           `mapstructure:"worker_count"   validate:"gte=1,lte=32"`
	QueueSize    int           `mapstructure:"queue_size"     validate:"gte=1"`
	StuckTaskAge time.Duration `mapstructure:"stuck_task_age" validate:"gt=0"`
}
