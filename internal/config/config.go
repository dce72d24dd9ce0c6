package config

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for standbot
type Config struct {
	Server    ServerConfig          `mapstructure:"server"`
	Admin     AdminConfig           `mapstructure:"admin"`
	Database  DatabaseConfig        `mapstructure:"database"`
	LLM       LLMConfig             `mapstructure:"llm"`
	Chat      ChatConfig            `mapstructure:"chat"`
	RateLimit RateLimitConfig       `mapstructure:"rate_limit"`
	Session   SessionConfig         `mapstructure:"session"`
	Sites     map[string]SiteConfig `mapstructure:"sites"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	BaseURL      string   `mapstructure:"base_url"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// AdminConfig holds admin authentication configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	ChatModel      string  `mapstructure:"chat_model"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
}

// ChatConfig holds conversation engine tuning
type ChatConfig struct {
	TopK                int     `mapstructure:"top_k"`
	Threshold           float64 `mapstructure:"threshold"`
	HistorySize         int     `mapstructure:"history_size"`
	ContextCacheSize    int     `mapstructure:"context_cache_size"`
	MaxQueryLength      int     `mapstructure:"max_query_length"`
	RequireRegistration bool    `mapstructure:"require_registration"`
}

// RateLimitConfig holds the three stacked admission policies
type RateLimitConfig struct {
	WindowSeconds           int `mapstructure:"window_seconds"`
	MaxRequests             int `mapstructure:"max_requests"`
	MaxUserRequestsPerDay   int `mapstructure:"max_user_requests_per_day"`
	MaxGlobalRequestsPerDay int `mapstructure:"max_global_requests_per_day"`
}

// Window returns the sliding window length
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// SessionConfig holds the session cookie settings
type SessionConfig struct {
	CookieName string `mapstructure:"cookie_name"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Secure     bool   `mapstructure:"secure"`
	SameSite   string `mapstructure:"same_site"` // none, lax or strict
}

// SameSiteMode returns the cookie SameSite attribute; empty means none
func (c SessionConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(strings.TrimSpace(c.SameSite)) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteNoneMode
	}
}

// SecureCookie reports whether the cookie must carry Secure. Browsers drop
// SameSite=None cookies without it.
func (c SessionConfig) SecureCookie() bool {
	return c.Secure || c.SameSiteMode() == http.SameSiteNoneMode
}

// MaxAge returns the advisory cookie lifetime
func (c SessionConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}

// SiteConfig is the tenant configuration of one website
type SiteConfig struct {
	Name           string `mapstructure:"name"`
	Domain         string `mapstructure:"domain"`
	ForcedURL      string `mapstructure:"forced_url"`
	WelcomeMessage string `mapstructure:"welcome_message"`
}

// Load loads configuration from .env, config file and environment
func Load(configPath string) (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables, e.g. STANDBOT_RATE_LIMIT_WINDOW_SECONDS
	v.SetEnvPrefix("STANDBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = cfg.TenantOrigins()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.allow_origins", []string{})

	v.SetDefault("admin.api_key", "")

	v.SetDefault("database.path", "./data/standbot.db")

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.embedding_model", "text-embedding-3-small")
	v.SetDefault("llm.chat_model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.temperature", 0.2)

	v.SetDefault("chat.top_k", 5)
	v.SetDefault("chat.threshold", 0.5)
	v.SetDefault("chat.history_size", 10)
	v.SetDefault("chat.context_cache_size", 20)
	v.SetDefault("chat.max_query_length", 1000)
	v.SetDefault("chat.require_registration", true)

	v.SetDefault("rate_limit.window_seconds", 3)
	v.SetDefault("rate_limit.max_requests", 1)
	v.SetDefault("rate_limit.max_user_requests_per_day", 20)
	v.SetDefault("rate_limit.max_global_requests_per_day", 2000)

	v.SetDefault("session.cookie_name", "standbot_session")
	v.SetDefault("session.max_age_days", 7)
	v.SetDefault("session.secure", true)
	v.SetDefault("session.same_site", "none")

	v.SetDefault("sites", map[string]any{
		"ffd": map[string]any{
			"name":            "Flooring Fair Days",
			"domain":          "flooringfairdays.be",
			"forced_url":      "https://www.flooringfairdays.be/exhibitors",
			"welcome_message": "Welcome to Flooring Fair Days! Which exhibitor are you looking for?",
		},
		"abiss": map[string]any{
			"name":            "Abiss",
			"domain":          "abiss.nl",
			"forced_url":      "https://www.abiss.nl/exposanten",
			"welcome_message": "Welkom bij Abiss! Welke exposant zoekt u?",
		},
		"artisan": map[string]any{
			"name":            "Artisan",
			"domain":          "artisan-fair.com",
			"forced_url":      "https://www.artisan-fair.com/exhibitors",
			"welcome_message": "Welcome to Artisan! How can I help you find an exhibitor?",
		},
	})
}

// Validate checks that all limits are usable.
func (c *Config) Validate() error {
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate_limit.window_seconds must be > 0")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate_limit.max_requests must be > 0")
	}
	if c.RateLimit.MaxUserRequestsPerDay <= 0 {
		return fmt.Errorf("rate_limit.max_user_requests_per_day must be > 0")
	}
	if c.RateLimit.MaxGlobalRequestsPerDay <= 0 {
		return fmt.Errorf("rate_limit.max_global_requests_per_day must be > 0")
	}
	if c.Chat.HistorySize <= 0 {
		return fmt.Errorf("chat.history_size must be > 0")
	}
	if c.Chat.ContextCacheSize <= 0 {
		return fmt.Errorf("chat.context_cache_size must be > 0")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	switch strings.ToLower(strings.TrimSpace(c.Session.SameSite)) {
	case "", "none", "lax", "strict":
	default:
		return fmt.Errorf("session.same_site must be none, lax or strict, got %q", c.Session.SameSite)
	}
	return nil
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Site returns the tenant configuration, falling back to ffd.
func (c *Config) Site(website string) SiteConfig {
	if s, ok := c.Sites[website]; ok {
		return s
	}
	return c.Sites["ffd"]
}

// TenantOrigins returns a "*.domain" CORS pattern per tenant website
func (c *Config) TenantOrigins() []string {
	domains := c.PlatformDomains()
	origins := make([]string, 0, len(domains))
	for _, d := range domains {
		origins = append(origins, "*."+d)
	}
	return origins
}

// PlatformDomains returns the domains of all configured tenants
func (c *Config) PlatformDomains() []string {
	domains := make([]string, 0, len(c.Sites))
	for _, s := range c.Sites {
		if s.Domain != "" {
			domains = append(domains, s.Domain)
		}
	}
	sort.Strings(domains)
	return domains
}
