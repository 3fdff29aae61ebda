package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`

	// TokenLifetimeMinutes is the validity window of issued access tokens.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"gte=0"`

	// LoginRateLimitPerMinute caps login attempts per client per minute.
	// Zero disables the limiter.
	LoginRateLimitPerMinute int `mapstructure:"login_rate_limit_per_minute" validate:"gte=0"`
}

// LLMConfig contains all settings for the external analytical service.
// When GeminiAPIKey is empty the worker falls back to the deterministic
// static analyzer, which is useful for local development and tests.
type LLMConfig struct {
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	ModelName     string `mapstructure:"model_name"`
	FallbackModel string `mapstructure:"fallback_model"`

	// MaxChars is the character budget for a single analyzer call; longer
	// entries are truncated head-and-tail before being sent.
	MaxChars int `mapstructure:"max_chars" validate:"gte=0"`
}

// WorkerConfig contains the polling worker's tuning knobs.
type WorkerConfig struct {
	// BatchSize is the maximum number of pending jobs fetched per poll.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0,lte=100"`

	// IdleIntervalSeconds is the sleep between polls when no work is pending.
	IdleIntervalSeconds int `mapstructure:"idle_interval_seconds" validate:"required,gt=0"`

	// ErrorBackoffSeconds is the longer sleep applied after a loop-level error.
	ErrorBackoffSeconds int `mapstructure:"error_backoff_seconds" validate:"required,gt=0"`

	// ProcessTimeoutSeconds bounds a single job's processing, including the
	// external analyzer call.
	ProcessTimeoutSeconds int `mapstructure:"process_timeout_seconds" validate:"required,gt=0"`

	// Count is the number of poller loops this process runs.
	Count int `mapstructure:"count" validate:"required,gt=0,lte=32"`
}

// RedisConfig contains settings for the Redis-backed cache used for rate
// limiting and the logout token blacklist. An empty URL disables both.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}
