package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_PATH", "LOG_LEVEL", "S3_ENABLED", "MAX_FILE_SIZE", "MAX_FILES_PER_BATCH", "ANALYSIS_WORKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data/analyses.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3Enabled)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 20, cfg.MaxFilesPerBatch)
	assert.Zero(t, cfg.AnalysisWorkers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("S3_ENABLED", "true")
	t.Setenv("S3_ENDPOINT", "minio:9000")
	t.Setenv("S3_BUCKET_NAME", "protocols")
	t.Setenv("MAX_FILE_SIZE", "1024")
	t.Setenv("MAX_FILES_PER_BATCH", "5")
	t.Setenv("ANALYSIS_WORKERS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.S3Enabled)
	assert.Equal(t, "minio:9000", cfg.S3Endpoint)
	assert.Equal(t, "protocols", cfg.S3BucketName)
	assert.Equal(t, int64(1024), cfg.MaxFileSize)
	assert.Equal(t, 5, cfg.MaxFilesPerBatch)
	assert.Equal(t, 3, cfg.AnalysisWorkers)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric size", "MAX_FILE_SIZE", "ten"},
		{"zero size", "MAX_FILE_SIZE", "0"},
		{"too many files", "MAX_FILES_PER_BATCH", "1000"},
		{"negative workers", "ANALYSIS_WORKERS", "-1"},
		{"unknown level", "LOG_LEVEL", "loud"},
		{"non-numeric port", "PORT", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
