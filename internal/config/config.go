package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the interview agent
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Generation backend (OpenAI-compatible chat completions API).
	// The key is optional: when empty the generation client degrades to a
	// fixed sentinel response instead of failing the session.
	GenerationAPIKey  string  `envconfig:"GENERATION_API_KEY" default:""`
	GenerationBaseURL string  `envconfig:"GENERATION_BASE_URL" default:"https://api.openai.com/v1"`
	GenerationModel   string  `envconfig:"GENERATION_MODEL" default:"gpt-4o-mini"`
	GenerationTimeout int     `envconfig:"GENERATION_TIMEOUT" default:"30"` // seconds
	Temperature       float64 `envconfig:"GENERATION_TEMPERATURE" default:"0.7"`

	// Deepgram speech configuration. The key is optional: when empty the
	// speech bridge runs in degraded (log-only) mode.
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`
	TTSModel         string `envconfig:"TTS_MODEL" default:"aura-asteria-en"`

	// Interview configuration
	DefaultQuestionCount int    `envconfig:"DEFAULT_QUESTION_COUNT" default:"3"`
	MaxListenRetries     int    `envconfig:"MAX_LISTEN_RETRIES" default:"3"` // standalone flow only
	RecordSeconds        int    `envconfig:"RECORD_SECONDS" default:"45"`    // max utterance length
	PromptsFile          string `envconfig:"PROMPTS_FILE" default:""`        // optional YAML prompt overrides

	// Persistence configuration
	DatabasePath string `envconfig:"DATABASE_PATH" default:"interview_data.db"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"` // milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables.
// It first attempts to load from a .env file if one exists, then from the
// environment. Missing API credentials are not an error: the affected
// components degrade rather than abort startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DefaultQuestionCount < 1 {
		return fmt.Errorf("DEFAULT_QUESTION_COUNT must be at least 1")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

// GenerationConfigured reports whether a generation backend credential is present.
func (c *Config) GenerationConfigured() bool {
	return c.GenerationAPIKey != ""
}

// SpeechConfigured reports whether a speech backend credential is present.
func (c *Config) SpeechConfigured() bool {
	return c.DeepgramAPIKey != ""
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
