package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAgriHome    = "~/.agri"
	DefaultPort        = 8000
	DefaultOpenAIModel = "gpt-4o-mini"
)

var (
	ErrAgriHomeNotSet       = errors.New("agri home directory is not set")
	ErrAgriHomeExpandFailed = errors.New("failed to expand agri home directory")
	ErrInvalidFilesystem    = errors.New("invalid filesystem type")
	ErrS3BucketNotSet       = errors.New("s3 bucket is not set")
	ErrDBNotConfigured      = errors.New("database is not configured")
	ErrInvalidDBDriver      = errors.New("invalid database driver")
)

func setDefaults() {
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("host", "0.0.0.0")
	viper.SetDefault("environment", "dev")
	viper.SetDefault("filesystem_type", FilesystemLocal)
	viper.SetDefault("allowed_origins", []string{"*"})

	viper.SetDefault("db.driver", DriverSQLite)

	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("openai.model", DefaultOpenAIModel)
	viper.SetDefault("openai.max_retries", 3)
	viper.SetDefault("openai.timeout", 30*time.Second)

	viper.SetDefault("auth.token_ttl", 24*time.Hour)

	viper.SetDefault("rate_limit.requests_per_minute", 30)
	viper.SetDefault("rate_limit.burst", 10)

	viper.SetDefault("moderation.enabled", false)
	viper.SetDefault("moderation.model", DefaultOpenAIModel)
}
