package server

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// Config holds server configuration.
type Config struct {
	Address string
	Port    int

	// Rate limiting configuration
	RateLimit      rate.Limit // requests per second
	RateLimitBurst int        // burst size

	// WorkDir is where deployment runs check out source trees.
	WorkDir string
	// Kubeconfig is the cluster config path; empty means in-cluster or
	// ~/.kube/config discovery.
	Kubeconfig string

	// Timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Logging
	LogLevel slog.Level
}

// DefaultConfig returns sensible defaults, with PORT, LOG_LEVEL,
// DEPLOYKIT_WORK_DIR, and KUBECONFIG environment overrides applied.
func DefaultConfig() *Config {
	cfg := &Config{
		Address:         "",
		Port:            8080,
		RateLimit:       20,
		RateLimitBurst:  40,
		WorkDir:         os.TempDir(),
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		LogLevel:        slog.LevelInfo,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		var port int
		if _, err := fmt.Sscanf(portStr, "%d", &port); err == nil {
			cfg.Port = port
		}
	}

	if logLevelStr := os.Getenv("LOG_LEVEL"); logLevelStr != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevelStr)); err == nil {
			cfg.LogLevel = level
		}
	}

	if workDir := os.Getenv("DEPLOYKIT_WORK_DIR"); workDir != "" {
		cfg.WorkDir = workDir
	}

	cfg.Kubeconfig = os.Getenv("KUBECONFIG")

	return cfg
}
