package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App    AppConfig
	Redis  RedisConfig
	JWT    JWTConfig
	MinIO  MinIOConfig
	Import ImportConfig
	Worker WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type MinIOConfig struct {
	Endpoint  string // localhost:9000
	AccessKey string // minioadmin
	SecretKey string // minioadmin
	Bucket    string // inventory-imports
	UseSSL    bool   // false for local
}

// lockTTLMargin: TTL mặc định của import lock = RunTimeout + margin
const lockTTLMargin = 5 * time.Minute

// ImportConfig gom các tham số của bulk catalog import.
type ImportConfig struct {
	BatchSize         int
	MaxErrorsRecorded int
	RequiredFields    []string
	StrictNumbers     bool
	MaxFileSizeMB     int
	LockTTL           time.Duration
	RunTimeout        time.Duration
	AliasesFile       string // optional YAML alias overrides
}

// WorkerConfig cho asynq worker (async import jobs).
type WorkerConfig struct {
	Concurrency     int
	StaleJobAfter   time.Duration
	SweepSchedule   string
	HealthCheckPort string
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	runTimeout := getEnvDuration("IMPORT_RUN_TIMEOUT", 15*time.Minute)

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Inventory API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "inventory-imports"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Import: ImportConfig{
			BatchSize:         getEnvInt("IMPORT_BATCH_SIZE", 100),
			MaxErrorsRecorded: getEnvInt("IMPORT_MAX_ERRORS", 500),
			RequiredFields:    getEnvList("IMPORT_REQUIRED_FIELDS", []string{"barcode", "name"}),
			StrictNumbers:     getEnvBool("IMPORT_STRICT_NUMBERS", false),
			MaxFileSizeMB:     getEnvInt("IMPORT_MAX_FILE_MB", 10),
			RunTimeout:        runTimeout,
			LockTTL:           getEnvDuration("IMPORT_LOCK_TTL", runTimeout+lockTTLMargin),
			AliasesFile:       getEnv("IMPORT_ALIASES_FILE", ""),
		},
		Worker: WorkerConfig{
			Concurrency:     getEnvInt("WORKER_CONCURRENCY", 2),
			StaleJobAfter:   getEnvDuration("WORKER_STALE_JOB_AFTER", time.Hour),
			SweepSchedule:   getEnv("WORKER_SWEEP_SCHEDULE", "@every 30m"),
			HealthCheckPort: getEnv("WORKER_HEALTH_PORT", "9999"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	if c.Import.BatchSize < 1 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be >= 1, got %d", c.Import.BatchSize)
	}
	if c.Import.MaxFileSizeMB < 1 {
		return fmt.Errorf("IMPORT_MAX_FILE_MB must be >= 1, got %d", c.Import.MaxFileSizeMB)
	}
	if c.Import.RunTimeout <= 0 {
		return fmt.Errorf("IMPORT_RUN_TIMEOUT must be positive")
	}
	// download, convert và final commit chạy ngoài run timeout nhưng vẫn
	// trong lock, nên TTL phải dài hơn run timeout
	if c.Import.LockTTL <= c.Import.RunTimeout {
		return fmt.Errorf("IMPORT_LOCK_TTL (%s) must be greater than IMPORT_RUN_TIMEOUT (%s)",
			c.Import.LockTTL, c.Import.RunTimeout)
	}

	return nil
}

// RedisClientOpt cho asynq client/server/scheduler
func (c *Config) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Redis.Host,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

// MaxFileSizeBytes trả về giới hạn upload theo bytes.
func (c ImportConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvList đọc danh sách phân cách bằng dấu phẩy ("barcode,name").
func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
