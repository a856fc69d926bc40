// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables (optionally seeded from a
// .env file) with sensible defaults and validates all settings on startup to
// fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Upload     UploadConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
	Ingest     IngestConfig
	Sheets     SheetsConfig
	Dictionary DictionaryConfig
	Enrich     EnrichConfig
	History    HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" env-default:"8080"`

	// ReadTimeout is the maximum duration for reading request body
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"15s"`

	// WriteTimeout is 0 by default so progress streams stay open
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"0s"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" env-default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. DB_URL is accepted as well.
	URL             string        `env:"DATABASE_URL,DB_URL" env-required:"true"`
	MaxConns        int32         `env:"DB_MAX_CONNS" env-default:"20"`
	MinConns        int32         `env:"DB_MIN_CONNS" env-default:"4"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" env-default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// UploadConfig holds upload processing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed request body in bytes (default: 20MB)
	MaxFileSize   int64         `env:"UPLOAD_MAX_FILE_SIZE" env-default:"20971520"`
	MaxConcurrent int           `env:"UPLOAD_MAX_CONCURRENT" env-default:"5"`
	MaxWaitTime   time.Duration `env:"UPLOAD_MAX_WAIT_TIME" env-default:"30s"`

	// BatchSize is the number of words written per insert batch
	BatchSize int `env:"UPLOAD_BATCH_SIZE" env-default:"499"`

	Timeout   time.Duration `env:"UPLOAD_TIMEOUT" env-default:"10m"`
	ResultTTL time.Duration `env:"UPLOAD_RESULT_TTL" env-default:"5m"`

	PreviewRows   int `env:"UPLOAD_PREVIEW_ROWS" env-default:"10"`
	PreviewErrors int `env:"UPLOAD_PREVIEW_ERRORS" env-default:"5"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" env-default:"100"`

	// UploadLimit is requests per minute for upload endpoints
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" env-default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" env-default:"true"`

	// RequireAPIKey enables API key authentication for the admin API
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" env-default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// IngestConfig tunes the spreadsheet parser.
type IngestConfig struct {
	// HeaderThreshold is how many known column names make the first row a header
	HeaderThreshold int `env:"INGEST_HEADER_THRESHOLD" env-default:"2"`

	// SampleSize is how many rows decide whether a leading index column is dropped
	SampleSize int `env:"INGEST_SAMPLE_SIZE" env-default:"5"`

	// StrictQuotes rejects malformed quoting instead of reading it leniently
	StrictQuotes bool `env:"INGEST_STRICT_QUOTES" env-default:"false"`
}

// SheetsConfig holds Google Sheets import settings.
type SheetsConfig struct {
	Enabled bool          `env:"SHEETS_ENABLED" env-default:"true"`
	Timeout time.Duration `env:"SHEETS_TIMEOUT" env-default:"30s"`

	// APIBaseURL is the Sheets values API root
	APIBaseURL string `env:"SHEETS_API_BASE_URL" env-default:"https://sheets.googleapis.com/v4/spreadsheets"`
}

// DictionaryConfig holds pronunciation lookup settings.
type DictionaryConfig struct {
	Enabled     bool          `env:"DICTIONARY_ENABLED" env-default:"true"`
	BaseURL     string        `env:"DICTIONARY_BASE_URL" env-default:"https://api.dictionaryapi.dev/api/v2/entries/en"`
	Timeout     time.Duration `env:"DICTIONARY_TIMEOUT" env-default:"10s"`
	Concurrency int           `env:"DICTIONARY_CONCURRENCY" env-default:"5"`
}

// EnrichConfig holds example/translation generation settings.
type EnrichConfig struct {
	// APIKey enables enrichment; without it uploads skip the step
	APIKey    string        `env:"OPENAI_API_KEY"`
	BaseURL   string        `env:"OPENAI_BASE_URL"`
	Model     string        `env:"ENRICH_MODEL" env-default:"gpt-4o-mini"`
	ChunkSize int           `env:"ENRICH_CHUNK_SIZE" env-default:"10"`
	MaxTokens int           `env:"ENRICH_MAX_TOKENS" env-default:"150"`
	Timeout   time.Duration `env:"ENRICH_TIMEOUT" env-default:"30s"`
}

// HistoryConfig holds upload history retention settings.
type HistoryConfig struct {
	// RetentionDays is how long upload history and source backups are kept
	RetentionDays int           `env:"HISTORY_RETENTION_DAYS" env-default:"90"`
	CheckInterval time.Duration `env:"HISTORY_CHECK_INTERVAL" env-default:"24h"`
}

// Retention returns the retention window as a duration.
func (c HistoryConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
