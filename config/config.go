package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ProviderConfig holds one backend's credentials and tuning. The API key is
// never logged; keep it out of String methods and error messages.
type ProviderConfig struct {
	APIKey       string
	Model        string
	SystemPrompt string
}

// Enabled reports whether the backend has credentials configured.
func (p ProviderConfig) Enabled() bool {
	return p.APIKey != ""
}

// Config is the process-wide service configuration, resolved once at startup
// and passed explicitly to the components that need it.
type Config struct {
	// HTTP front door
	ListenAddr string

	// Transcript storage backend: file, redis, postgres, mongo or memory
	StoreBackend string

	// Conversation defaults
	DefaultRoster []string
	MaxTurns      int
	TurnInterval  time.Duration

	// Per-call policy
	CallTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Runner limits
	MaxConcurrentSessions int
	MaxCallsPerSession    int

	// History token budget handed to prompt.HistoryBudget; 0 disables trimming
	HistoryTokens   int
	HistoryEncoding string

	// Backends, keyed by speaker id
	OpenAI    ProviderConfig
	Gemini    ProviderConfig
	DeepSeek  ProviderConfig
	Anthropic ProviderConfig
}

// Load resolves configuration from the environment. One secret per backend:
// OPENAI_API_KEY, GEMINI_API_KEY, DEEPSEEK_API_KEY, ANTHROPIC_API_KEY.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:            getEnv("ROUNDTABLE_ADDR", ":8080"),
		StoreBackend:          getEnv("ROUNDTABLE_STORE", "file"),
		DefaultRoster:         splitList(getEnv("ROUNDTABLE_ROSTER", "gpt,gemini,deepseek")),
		MaxTurns:              getEnvInt("ROUNDTABLE_MAX_TURNS", 9),
		TurnInterval:          getEnvDuration("ROUNDTABLE_TURN_INTERVAL", 0),
		CallTimeout:           getEnvDuration("ROUNDTABLE_CALL_TIMEOUT", 30*time.Second),
		MaxRetries:            getEnvInt("ROUNDTABLE_MAX_RETRIES", 2),
		RetryBackoff:          getEnvDuration("ROUNDTABLE_RETRY_BACKOFF", 2*time.Second),
		MaxConcurrentSessions: getEnvInt("ROUNDTABLE_MAX_SESSIONS", 10),
		MaxCallsPerSession:    getEnvInt("ROUNDTABLE_MAX_CALLS", 0),
		HistoryTokens:         getEnvInt("ROUNDTABLE_HISTORY_TOKENS", 0),
		HistoryEncoding:       getEnv("ROUNDTABLE_HISTORY_ENCODING", "cl100k_base"),
		OpenAI: ProviderConfig{
			APIKey:       os.Getenv("OPENAI_API_KEY"),
			Model:        getEnv("OPENAI_MODEL", "gpt-4.1"),
			SystemPrompt: os.Getenv("OPENAI_SYSTEM_PROMPT"),
		},
		Gemini: ProviderConfig{
			APIKey:       os.Getenv("GEMINI_API_KEY"),
			Model:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			SystemPrompt: os.Getenv("GEMINI_SYSTEM_PROMPT"),
		},
		DeepSeek: ProviderConfig{
			APIKey:       os.Getenv("DEEPSEEK_API_KEY"),
			Model:        getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
			SystemPrompt: os.Getenv("DEEPSEEK_SYSTEM_PROMPT"),
		},
		Anthropic: ProviderConfig{
			APIKey:       os.Getenv("ANTHROPIC_API_KEY"),
			Model:        getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			SystemPrompt: os.Getenv("ANTHROPIC_SYSTEM_PROMPT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	v := NewValidator()
	v.RequireNonEmpty("listen_addr", c.ListenAddr)
	v.ValidateOneOf("store_backend", c.StoreBackend, "file", "redis", "postgres", "mongo", "memory")
	v.RequireNonEmptyList("default_roster", c.DefaultRoster)
	v.RequirePositive("max_turns", c.MaxTurns)
	v.RequirePositive("call_timeout_ms", int(c.CallTimeout.Milliseconds()))
	if c.MaxRetries < 0 {
		v.RequirePositive("max_retries", c.MaxRetries)
	}
	return v.Error()
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
