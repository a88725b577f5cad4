package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Reddit downloader
type Config struct {
	// Reddit API credentials and client tuning
	Reddit RedditConfig `yaml:"reddit" json:"reddit"`

	// Download selection settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Optional image resizing
	Scale ScaleConfig `yaml:"scale" json:"scale"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RedditConfig holds Reddit-specific configuration
type RedditConfig struct {
	ClientID          string        `yaml:"client_id" json:"client_id"`
	ClientSecret      string        `yaml:"client_secret" json:"client_secret"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
}

// DownloadConfig holds candidate selection configuration
type DownloadConfig struct {
	Subreddits      []string `yaml:"subreddits" json:"subreddits"`
	Amount          int      `yaml:"amount" json:"amount"`
	AcceptedFormats []string `yaml:"accepted_formats" json:"accepted_formats"`
	NSFW            bool     `yaml:"nsfw" json:"nsfw"`
	ScanLimit       int      `yaml:"scan_limit" json:"scan_limit"`
}

// ScaleConfig holds optional image resize configuration.
// A preset name takes precedence over explicit dimensions.
type ScaleConfig struct {
	Enabled         bool   `yaml:"enabled" json:"enabled"`
	Preset          string `yaml:"preset" json:"preset"`
	Width           int    `yaml:"width" json:"width"`
	Height          int    `yaml:"height" json:"height"`
	ReplaceOriginal bool   `yaml:"replace_original" json:"replace_original"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	SaveRoot string `yaml:"save_root" json:"save_root"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	Quiet bool   `yaml:"quiet" json:"quiet"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Reddit: RedditConfig{
			UserAgent:         "redditdl/1.0 (image pipeline)",
			RequestTimeout:    30 * time.Second,
			RequestsPerMinute: 60,
			MaxRetries:        3,
		},
		Download: DownloadConfig{
			Subreddits:      []string{"memes"},
			Amount:          5,
			AcceptedFormats: []string{"jpg", "png", "gif"},
			NSFW:            false,
			ScanLimit:       1000,
		},
		Scale: ScaleConfig{
			Enabled:         false,
			ReplaceOriginal: true,
		},
		Output: OutputConfig{
			SaveRoot: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Reddit credentials follow the conventional names used by other
	// Reddit tooling, with REDDITDL_ overrides for everything else.
	if clientID := os.Getenv("REDDIT_CLIENT_ID"); clientID != "" {
		c.Reddit.ClientID = clientID
	}
	if clientSecret := os.Getenv("REDDIT_CLIENT_SECRET"); clientSecret != "" {
		c.Reddit.ClientSecret = clientSecret
	}
	if userAgent := os.Getenv("REDDIT_USER_AGENT"); userAgent != "" {
		c.Reddit.UserAgent = userAgent
	}

	if rpm := os.Getenv("REDDITDL_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Reddit.RequestsPerMinute = val
		}
	}

	if saveRoot := os.Getenv("REDDITDL_SAVE_ROOT"); saveRoot != "" {
		c.Output.SaveRoot = saveRoot
	}

	if subs := os.Getenv("REDDITDL_SUBREDDITS"); subs != "" {
		c.Download.Subreddits = splitList(subs)
	}

	if amount := os.Getenv("REDDITDL_AMOUNT"); amount != "" {
		var val int
		fmt.Sscanf(amount, "%d", &val)
		if val > 0 {
			c.Download.Amount = val
		}
	}

	if nsfw := os.Getenv("REDDITDL_NSFW"); nsfw != "" {
		c.Download.NSFW = strings.ToLower(nsfw) == "true"
	}

	if logLevel := os.Getenv("REDDITDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".redditdl.yaml",
		".redditdl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "redditdl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "redditdl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".redditdl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not
// checked here: the CLI resolves them after loading, falling back to the
// stored credential chain when flags and environment left them empty.
func (c *Config) Validate() error {
	var errs []error

	if c.Reddit.UserAgent == "" {
		errs = append(errs, errors.New("Reddit user agent is required"))
	}
	if c.Reddit.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Reddit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Reddit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if len(c.Download.Subreddits) == 0 {
		errs = append(errs, errors.New("at least one subreddit is required"))
	}
	if c.Download.Amount <= 0 {
		errs = append(errs, errors.New("amount must be positive"))
	}
	if len(c.Download.AcceptedFormats) == 0 {
		errs = append(errs, errors.New("at least one accepted format is required"))
	}
	if c.Download.ScanLimit <= 0 {
		errs = append(errs, errors.New("scan limit must be positive"))
	}

	if c.Scale.Enabled && c.Scale.Preset == "" {
		if c.Scale.Width <= 0 || c.Scale.Height <= 0 {
			errs = append(errs, errors.New("scale requires a preset or positive width and height"))
		}
	}

	if c.Output.SaveRoot == "" {
		errs = append(errs, errors.New("save root is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if clientID, ok := flags["client-id"].(string); ok && clientID != "" {
		c.Reddit.ClientID = clientID
	}
	if clientSecret, ok := flags["client-secret"].(string); ok && clientSecret != "" {
		c.Reddit.ClientSecret = clientSecret
	}
	if userAgent, ok := flags["user-agent"].(string); ok && userAgent != "" {
		c.Reddit.UserAgent = userAgent
	}
	if saveRoot, ok := flags["output"].(string); ok && saveRoot != "" {
		c.Output.SaveRoot = saveRoot
	}
	if subs, ok := flags["subreddits"].(string); ok && subs != "" {
		c.Download.Subreddits = splitList(subs)
	}
	if amount, ok := flags["amount"].(int); ok && amount > 0 {
		c.Download.Amount = amount
	}
	if nsfw, ok := flags["nsfw"].(bool); ok {
		c.Download.NSFW = nsfw
	}
	if preset, ok := flags["scale"].(string); ok && preset != "" {
		c.Scale.Enabled = true
		c.Scale.Preset = preset
	}
	if replace, ok := flags["replace-resized"].(bool); ok {
		c.Scale.ReplaceOriginal = replace
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if quiet, ok := flags["quiet"].(bool); ok {
		c.Logging.Quiet = quiet
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".redditdl.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
