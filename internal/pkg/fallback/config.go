package fallback

import (
	"errors"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/env"
)

// Config says where the fallback paywall document lives: a local file, or
// an object in an S3-compatible bucket.
type Config struct {
	Path    string
	// Refresh is a cron spec for reloading the document, empty to load once
	Refresh string

	S3Enabled       bool
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Key             string
	EndpointURL     string // Optional for S3-compatible services
}

// LoadConfig loads fallback configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Path:            env.GetEnv("FALLBACK_PAYWALLS_FILE", ""),
		Refresh:         env.GetEnv("FALLBACK_REFRESH", ""),
		S3Enabled:       env.GetEnv("FALLBACK_S3_ENABLED", "false") == "true",
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		Bucket:          env.GetEnv("FALLBACK_S3_BUCKET", ""),
		Key:             env.GetEnv("FALLBACK_S3_KEY", "fallback/paywalls.json"),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
	}

	// Validate required fields if the S3 source is enabled
	if config.S3Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when FALLBACK_S3_ENABLED is true")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when FALLBACK_S3_ENABLED is true")
		}
		if config.Bucket == "" {
			return nil, errors.New("FALLBACK_S3_BUCKET is required when FALLBACK_S3_ENABLED is true")
		}
	}

	return config, nil
}

// Configured reports whether any fallback source is set.
func (c *Config) Configured() bool {
	return c.S3Enabled || c.Path != ""
}
