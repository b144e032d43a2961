package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         string `validate:"required,numeric"`
	DatabasePath string `validate:"required"`
	LogLevel     string `validate:"oneof=debug info warn error"`

	// S3
	S3Enabled         bool
	S3Endpoint        string `validate:"required_if=S3Enabled true"`
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string `validate:"required_if=S3Enabled true"`
	S3UseSSL          bool

	// Upload limits
	MaxFileSize      int64 `validate:"gt=0"`
	MaxFilesPerBatch int   `validate:"gt=0,lte=100"`

	// Analysis
	AnalysisWorkers int `validate:"gte=0"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	maxFileSize, err := getEnvInt("MAX_FILE_SIZE", 10*1024*1024)
	if err != nil {
		return nil, err
	}
	maxFiles, err := getEnvInt("MAX_FILES_PER_BATCH", 20)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("ANALYSIS_WORKERS", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabasePath:      getEnv("DATABASE_PATH", "data/analyses.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		S3Enabled:         getEnv("S3_ENABLED", "false") == "true",
		S3Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "trial-documents"),
		S3UseSSL:          getEnv("S3_USE_SSL", "false") == "true",
		MaxFileSize:       int64(maxFileSize),
		MaxFilesPerBatch:  maxFiles,
		AnalysisWorkers:   workers,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
