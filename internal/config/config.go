package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	DocchunkAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Chunking defaults
	DefaultChunkSize int
	DefaultOverlap   int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPDFCPU bool

	// Remote fetch
	FetchTimeout  time.Duration
	MaxFetchBytes int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		DocchunkAPIKey: os.Getenv("DOCCHUNK_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DefaultChunkSize: envInt("DEFAULT_CHUNK_SIZE", 2048),
		DefaultOverlap:   envInt("DEFAULT_OVERLAP", 128),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPDFCPU: envBool("PDF_FALLBACK_PDFCPU", true),

		FetchTimeout:  envDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxFetchBytes: envInt64("MAX_FETCH_BYTES", 52428800),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = 2048
	}
	// Overlap 0 is a valid setting (no shared words); only reject negatives.
	if cfg.DefaultOverlap < 0 {
		cfg.DefaultOverlap = 128
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxFetchBytes <= 0 {
		cfg.MaxFetchBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocchunkAPIKey == "" {
		return fmt.Errorf("DOCCHUNK_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
