package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// MaxPageSize is the largest page the user timeline endpoint will serve
const MaxPageSize = 200

// Config holds the application configuration
type Config struct {
	Twitter TwitterConfig `mapstructure:"twitter"`
	Cleaner CleanerConfig `mapstructure:"cleaner"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

// TwitterConfig holds API credentials and transport settings
type TwitterConfig struct {
	ConsumerKey       string        `mapstructure:"consumer_key"`
	ConsumerSecret    string        `mapstructure:"consumer_secret"`
	AccessToken       string        `mapstructure:"access_token"`
	AccessTokenSecret string        `mapstructure:"access_token_secret"`
	Username          string        `mapstructure:"username"`
	BaseURL           string        `mapstructure:"base_url"`
	RequestDelay      time.Duration `mapstructure:"request_delay"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// CleanerConfig holds fetch and removal settings
type CleanerConfig struct {
	Limit       int `mapstructure:"limit"`
	PageSize    int `mapstructure:"page_size"`
	Concurrency int `mapstructure:"concurrency"`
}

// StorageConfig holds removal journal settings
type StorageConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty path searches for config.yaml in . and ./config.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Set defaults
	v.SetDefault("twitter.base_url", "https://api.twitter.com/1.1")
	v.SetDefault("twitter.request_delay", "0s")
	v.SetDefault("twitter.timeout", "30s")
	v.SetDefault("cleaner.limit", 3200)
	v.SetDefault("cleaner.page_size", MaxPageSize)
	v.SetDefault("cleaner.concurrency", 1)
	v.SetDefault("storage.type", "none")
	v.SetDefault("storage.path", "./data/removals.db")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	// Environment variable bindings
	for key, env := range map[string]string{
		"twitter.consumer_key":        "TWITTER_CONSUMER_KEY",
		"twitter.consumer_secret":     "TWITTER_CONSUMER_SECRET",
		"twitter.access_token":        "TWITTER_ACCESS_TOKEN",
		"twitter.access_token_secret": "TWITTER_ACCESS_TOKEN_SECRET",
		"twitter.username":            "TWITTER_USERNAME",
		"twitter.base_url":            "TWITTER_BASE_URL",
		"twitter.request_delay":       "TWITTER_REQUEST_DELAY",
		"twitter.timeout":             "TWITTER_TIMEOUT",
		"cleaner.limit":               "CLEANER_LIMIT",
		"cleaner.page_size":           "CLEANER_PAGE_SIZE",
		"cleaner.concurrency":         "CLEANER_CONCURRENCY",
		"storage.type":                "STORAGE_TYPE",
		"storage.path":                "STORAGE_PATH",
		"log.level":                   "LOG_LEVEL",
		"log.format":                  "LOG_FORMAT",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "bind %s", env)
		}
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	return &config, nil
}

// Validate reports every invalid or missing setting
func (c *Config) Validate() error {
	var result *multierror.Error

	required := []struct {
		key, value string
	}{
		{"twitter.consumer_key", c.Twitter.ConsumerKey},
		{"twitter.consumer_secret", c.Twitter.ConsumerSecret},
		{"twitter.access_token", c.Twitter.AccessToken},
		{"twitter.access_token_secret", c.Twitter.AccessTokenSecret},
		{"twitter.username", c.Twitter.Username},
	}
	for _, r := range required {
		if r.value == "" {
			result = multierror.Append(result, fmt.Errorf("%s is required", r.key))
		}
	}

	if c.Cleaner.Limit < 1 {
		result = multierror.Append(result, fmt.Errorf("cleaner.limit must be positive, got %d", c.Cleaner.Limit))
	}
	if c.Cleaner.PageSize < 1 || c.Cleaner.PageSize > MaxPageSize {
		result = multierror.Append(result, fmt.Errorf("cleaner.page_size must be between 1 and %d, got %d", MaxPageSize, c.Cleaner.PageSize))
	}
	if c.Cleaner.Concurrency < 1 {
		result = multierror.Append(result, fmt.Errorf("cleaner.concurrency must be positive, got %d", c.Cleaner.Concurrency))
	}

	switch c.Storage.Type {
	case "none":
	case "sqlite":
		if c.Storage.Path == "" {
			result = multierror.Append(result, errors.New("storage.path is required for sqlite storage"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported storage type: %s", c.Storage.Type))
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported log format: %s", c.Log.Format))
	}

	return result.ErrorOrNil()
}
