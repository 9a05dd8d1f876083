package types

import "time"

// StoreBackend selects where ContentItems are persisted.
type StoreBackend string

const (
	StoreSQLite StoreBackend = "sqlite"
	StoreRedis  StoreBackend = "redis"
)

// RedisConfig holds connection settings shared by the Redis store and bridge.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `json:"db" yaml:"db" mapstructure:"db"`
}

// StoreConfig holds settings for the content record store.
type StoreConfig struct {
	// Backend selects the store: sqlite or redis.
	Backend StoreBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// DataDir is the directory holding the SQLite database (content.db).
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	Redis RedisConfig `json:"redis" yaml:"redis" mapstructure:"redis"`

	// KeyPrefix namespaces Redis keys (default "content").
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`
}

// AIConfig holds shared settings for calls to a Generative AI API.
type AIConfig struct {
	// Provider selects the backend: claude, openai, or echo (offline).
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// GenerationConfig holds settings for the generation boundary.
type GenerationConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// Timeout bounds a single generation call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxTokens caps the response length requested from the model.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// BridgeBackend selects how finished drafts reach the editing surface.
type BridgeBackend string

const (
	BridgeFile  BridgeBackend = "file"
	BridgeRedis BridgeBackend = "redis"
)

// BridgeConfig holds settings for the editor bridge.
type BridgeConfig struct {
	Backend BridgeBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// OutputDir is the directory for published drafts (e.g. "output/drafts").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Channel is the Redis pub/sub channel announcing published drafts.
	Channel string `json:"channel" yaml:"channel" mapstructure:"channel"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `json:"level" yaml:"level" mapstructure:"level"`
	Development bool   `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups every setting of the content-engine CLI.
type Config struct {
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Generation GenerationConfig `json:"generation" yaml:"generation" mapstructure:"generation"`
	Bridge     BridgeConfig     `json:"bridge" yaml:"bridge" mapstructure:"bridge"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`

	// MetricsAddr, when set, serves Prometheus metrics on that address.
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty" mapstructure:"metrics_addr"`
}
