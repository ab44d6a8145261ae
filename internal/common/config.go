package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/labelsync/internal/models"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Jira        JiraConfig    `toml:"jira"`
	Sync        SyncConfig    `toml:"sync"`
	Queue       QueueConfig   `toml:"queue"`
	Storage     StorageConfig `toml:"storage"`
	Cache       CacheConfig   `toml:"cache"`
	Logging     LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// JiraConfig holds the connection details of the Jira site and the mirrored field
type JiraConfig struct {
	BaseURL   string          `toml:"base_url"`   // e.g. https://example.atlassian.net
	Auth      string          `toml:"auth"`       // "basic" or "oauth2"
	Email     string          `toml:"email"`      // Account email for basic auth
	APIToken  string          `toml:"api_token"`  // API token for basic auth
	OAuth     JiraOAuthConfig `toml:"oauth"`      // Used when auth = "oauth2"
	FieldID   string          `toml:"field_id"`   // Custom field id, e.g. customfield_10107
	UserAgent string          `toml:"user_agent"` // User agent sent with every request
	Timeout   string          `toml:"timeout"`    // HTTP timeout, e.g. "30s"
	RateLimit int             `toml:"rate_limit"` // Requests per second
}

// JiraOAuthConfig holds Atlassian OAuth 2.0 (3LO) credentials.
// base_url must then be https://api.atlassian.com/ex/jira/{cloudId}.
type JiraOAuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
	TokenURL     string `toml:"token_url"` // Defaults to the Atlassian token endpoint
}

const (
	JiraAuthBasic  = "basic"
	JiraAuthOAuth2 = "oauth2"
)

// SyncConfig controls how and when the label set is refreshed
type SyncConfig struct {
	Mode         string `toml:"mode"`           // "batch" or "fanout"
	Schedule     string `toml:"schedule"`       // Cron schedule (5 fields)
	Enabled      bool   `toml:"enabled"`        // Register the scheduled refresh
	RunOnStartup bool   `toml:"run_on_startup"` // Enqueue one refresh when the server starts
}

type QueueConfig struct {
	PollInterval      string `toml:"poll_interval"`      // e.g., "1s" - how often workers poll for messages
	Concurrency       int    `toml:"concurrency"`        // Number of concurrent workers
	VisibilityTimeout string `toml:"visibility_timeout"` // e.g., "5m" - message visibility timeout for redelivery
	MaxReceive        int    `toml:"max_receive"`        // Max times a message can be received before it is dropped
	QueueName         string `toml:"queue_name"`         // Queue name prefix in Badger
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CacheConfig controls the label cache
type CacheConfig struct {
	SerializeMerges bool `toml:"serialize_merges"` // Serialise merge read-modify-write within this process
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8086,
			Host: "localhost",
		},
		Jira: JiraConfig{
			Auth:      JiraAuthBasic,
			FieldID:   "customfield_10107",
			UserAgent: "labelsync/" + GetVersion(),
			Timeout:   "30s",
			RateLimit: 10,
		},
		Sync: SyncConfig{
			Mode:     string(models.SyncModeBatch),
			Schedule: "*/30 * * * *",
			Enabled:  true,
		},
		Queue: QueueConfig{
			PollInterval:      "1s",
			Concurrency:       4,
			VisibilityTimeout: "5m",
			MaxReceive:        3,
			QueueName:         "labelsync_jobs",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Cache: CacheConfig{
			SerializeMerges: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LABELSYNC_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("LABELSYNC_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LABELSYNC_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Jira configuration
	if baseURL := os.Getenv("LABELSYNC_JIRA_BASE_URL"); baseURL != "" {
		config.Jira.BaseURL = baseURL
	}
	if email := os.Getenv("LABELSYNC_JIRA_EMAIL"); email != "" {
		config.Jira.Email = email
	}
	if token := os.Getenv("LABELSYNC_JIRA_API_TOKEN"); token != "" {
		config.Jira.APIToken = token
	}
	if auth := os.Getenv("LABELSYNC_JIRA_AUTH"); auth != "" {
		config.Jira.Auth = auth
	}
	if clientID := os.Getenv("LABELSYNC_JIRA_OAUTH_CLIENT_ID"); clientID != "" {
		config.Jira.OAuth.ClientID = clientID
	}
	if clientSecret := os.Getenv("LABELSYNC_JIRA_OAUTH_CLIENT_SECRET"); clientSecret != "" {
		config.Jira.OAuth.ClientSecret = clientSecret
	}
	if refreshToken := os.Getenv("LABELSYNC_JIRA_OAUTH_REFRESH_TOKEN"); refreshToken != "" {
		config.Jira.OAuth.RefreshToken = refreshToken
	}
	if fieldID := os.Getenv("LABELSYNC_JIRA_FIELD_ID"); fieldID != "" {
		config.Jira.FieldID = fieldID
	}
	if rateLimit := os.Getenv("LABELSYNC_JIRA_RATE_LIMIT"); rateLimit != "" {
		if r, err := strconv.Atoi(rateLimit); err == nil {
			config.Jira.RateLimit = r
		}
	}

	// Sync configuration
	if mode := os.Getenv("LABELSYNC_SYNC_MODE"); mode != "" {
		config.Sync.Mode = mode
	}
	if schedule := os.Getenv("LABELSYNC_SYNC_SCHEDULE"); schedule != "" {
		config.Sync.Schedule = schedule
	}
	if enabled := os.Getenv("LABELSYNC_SYNC_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Sync.Enabled = b
		}
	}

	// Queue configuration
	if concurrency := os.Getenv("LABELSYNC_QUEUE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Queue.Concurrency = c
		}
	}
	if maxReceive := os.Getenv("LABELSYNC_QUEUE_MAX_RECEIVE"); maxReceive != "" {
		if m, err := strconv.Atoi(maxReceive); err == nil {
			config.Queue.MaxReceive = m
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("LABELSYNC_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("LABELSYNC_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("LABELSYNC_LOG_OUTPUT"); output != "" {
		var outputs []string
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if !models.SyncMode(c.Sync.Mode).IsValid() {
		return fmt.Errorf("invalid sync mode %q: expected %q or %q", c.Sync.Mode, models.SyncModeBatch, models.SyncModeFanOut)
	}
	if c.Sync.Enabled {
		if err := ValidateJobSchedule(c.Sync.Schedule); err != nil {
			return fmt.Errorf("invalid sync schedule: %w", err)
		}
	}
	if c.Jira.FieldID == "" {
		return fmt.Errorf("jira.field_id is required")
	}
	switch c.Jira.Auth {
	case "", JiraAuthBasic:
	case JiraAuthOAuth2:
		if c.Jira.OAuth.ClientID == "" || c.Jira.OAuth.ClientSecret == "" || c.Jira.OAuth.RefreshToken == "" {
			return fmt.Errorf("jira.oauth requires client_id, client_secret and refresh_token")
		}
	default:
		return fmt.Errorf("invalid jira.auth %q: expected %q or %q", c.Jira.Auth, JiraAuthBasic, JiraAuthOAuth2)
	}
	return nil
}

// ValidateJobSchedule checks a standard five-field cron expression.
// Any interval is accepted; a tick that finds the previous refresh still running is skipped.
func ValidateJobSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// ParseDuration parses a duration string, falling back to def when empty or invalid
func ParseDuration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
