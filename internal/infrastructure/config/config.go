package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all client configuration
type Config struct {
	API    APIConfig
	Log    LogConfig
	Redis  RedisConfig
	State  StateConfig
	OAuth  OAuthConfig
	Client ClientConfig
}

// APIConfig holds the backend endpoint settings
type APIConfig struct {
	BaseURL            string        // Base URL of the onboarding API, including /api/v1
	Timeout            time.Duration // Per-call deadline
	RateLimitThreshold int           // Local advisory limit per endpoint
	RateLimitWindow    time.Duration // Trailing window for the advisory limit
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// RedisConfig holds optional Redis settings for the shared rate-limit tracker.
// When Host is empty the in-memory tracker is used.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StateConfig holds the local state cache settings
type StateConfig struct {
	CachePath string // SQLite file for the saved session and last snapshot
}

// OAuthConfig holds the loopback callback listener settings
type OAuthConfig struct {
	ListenAddr   string        // Address for the one-shot redirect listener
	CallbackPath string        // Route the provider redirects back to
	WaitTimeout  time.Duration // How long to wait for the user to finish
}

// ClientConfig identifies this client to the backend
type ClientConfig struct {
	Name    string
	Version string
}

// DefaultBaseURL is used when no deployment configuration selects one.
const DefaultBaseURL = "https://api.creatorly.io/api/v1"

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CREATORLY_ prefix (e.g., CREATORLY_API_BASE_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/creatorly")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CREATORLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		API: APIConfig{
			BaseURL:            v.GetString("api.base_url"),
			Timeout:            v.GetDuration("api.timeout"),
			RateLimitThreshold: v.GetInt("api.rate_limit_threshold"),
			RateLimitWindow:    v.GetDuration("api.rate_limit_window"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		State: StateConfig{
			CachePath: v.GetString("state.cache_path"),
		},
		OAuth: OAuthConfig{
			ListenAddr:   v.GetString("oauth.listen_addr"),
			CallbackPath: v.GetString("oauth.callback_path"),
			WaitTimeout:  v.GetDuration("oauth.wait_timeout"),
		},
		Client: ClientConfig{
			Name:    v.GetString("client.name"),
			Version: v.GetString("client.version"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 60 * time.Second
	}
	if cfg.API.RateLimitThreshold == 0 {
		cfg.API.RateLimitThreshold = 10
	}
	if cfg.API.RateLimitWindow == 0 {
		cfg.API.RateLimitWindow = 15 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.State.CachePath == "" {
		cfg.State.CachePath = "creatorly-state.db"
	}
	if cfg.OAuth.ListenAddr == "" {
		cfg.OAuth.ListenAddr = "127.0.0.1:8976"
	}
	if cfg.OAuth.CallbackPath == "" {
		cfg.OAuth.CallbackPath = "/oauth/callback"
	}
	if cfg.OAuth.WaitTimeout == 0 {
		cfg.OAuth.WaitTimeout = 5 * time.Minute
	}
	if cfg.Client.Name == "" {
		cfg.Client.Name = "creator-sdk"
	}
	if cfg.Client.Version == "" {
		cfg.Client.Version = "dev"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", u.Scheme)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}
	if c.API.RateLimitThreshold < 0 {
		return fmt.Errorf("api.rate_limit_threshold cannot be negative")
	}
	return nil
}

// Addr returns the Redis address in host:port form.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether a Redis-backed tracker was configured.
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}
