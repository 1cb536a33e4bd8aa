package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Import.BatchSize)
	assert.Equal(t, 500, cfg.Import.MaxErrorsRecorded)
	assert.Equal(t, []string{"barcode", "name"}, cfg.Import.RequiredFields)
	assert.False(t, cfg.Import.StrictNumbers)
	assert.Equal(t, int64(10*1024*1024), cfg.Import.MaxFileSizeBytes())
	assert.Equal(t, 15*time.Minute, cfg.Import.RunTimeout)
	assert.Equal(t, 20*time.Minute, cfg.Import.LockTTL)
}

func TestLoad_ImportOverrides(t *testing.T) {
	t.Setenv("IMPORT_BATCH_SIZE", "250")
	t.Setenv("IMPORT_REQUIRED_FIELDS", " barcode , name,category ,")
	t.Setenv("IMPORT_STRICT_NUMBERS", "true")
	t.Setenv("IMPORT_RUN_TIMEOUT", "90s")
	t.Setenv("IMPORT_LOCK_TTL", "2m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Import.BatchSize)
	assert.Equal(t, []string{"barcode", "name", "category"}, cfg.Import.RequiredFields)
	assert.True(t, cfg.Import.StrictNumbers)
	assert.Equal(t, 2*time.Minute, cfg.Import.LockTTL)
}

func TestLoad_LockTTLFollowsRunTimeout(t *testing.T) {
	t.Setenv("IMPORT_RUN_TIMEOUT", "30m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 35*time.Minute, cfg.Import.LockTTL)
}

func TestLoad_LockTTLMustOutliveRunTimeout(t *testing.T) {
	tests := []struct {
		name    string
		ttl     string
		timeout string
	}{
		{"equal", "15m", "15m"},
		{"shorter", "10m", "15m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("IMPORT_LOCK_TTL", tt.ttl)
			t.Setenv("IMPORT_RUN_TIMEOUT", tt.timeout)

			_, err := Load()
			assert.ErrorContains(t, err, "IMPORT_LOCK_TTL")
		})
	}
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("IMPORT_BATCH_SIZE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadDatabaseConfig(t *testing.T) {
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_RETRY_DELAY", "250ms")

	cfg, err := LoadDatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 30*time.Minute, cfg.MaxConnLifetime)

	t.Setenv("DB_CONNECT_TIMEOUT", "soon")
	_, err = LoadDatabaseConfig()
	assert.ErrorContains(t, err, "DB_CONNECT_TIMEOUT")
}
