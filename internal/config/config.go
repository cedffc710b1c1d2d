// Package config loads process configuration from environment variables
// (and an optional .env file for local development), mirroring the
// teacher's core/config package: a flat Config struct populated by
// getEnv/getEnvInt helpers with IsProduction/IsDevelopment predicates.
// It additionally owns the encrypted-state key and admin API key, and
// (in yaml.go) the interview-bundle loader.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/loopfield/interview-engine/internal/state"
)

// Config holds all process configuration.
type Config struct {
	// Env is the environment name (development, staging, production).
	Env string

	// Port is the HTTP server port.
	Port string

	// OTel holds tracing exporter configuration.
	OTel OTelConfig

	// EncryptionKey authenticates and encrypts every InterviewState
	// envelope (spec.md §4.8).
	EncryptionKey [state.KeySize]byte

	// AdminAPIKey is compared constant-time against the bearer token on
	// admin-only routes.
	AdminAPIKey string

	// InterviewsDir is the filesystem root under which every interview
	// bundle lives, one subdirectory per bundle (YAMLLoader.LoadInterview
	// is called once per subdirectory at startup).
	InterviewsDir string

	// UpdateURL is echoed back to clients in every incomplete response
	// (spec.md §6's `update_url`).
	UpdateURL string

	// HookTimeoutSeconds bounds a Hook step's webhook round trip
	// (spec.md §5: "must honor a per-request deadline").
	HookTimeoutSeconds int
}

// OTelConfig configures the OTLP trace exporter. Endpoint=="" means
// tracing is disabled.
type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// Enabled reports whether an OTLP endpoint was configured.
func (c OTelConfig) Enabled() bool { return c.Endpoint != "" }

// Load reads configuration from the environment, loading a local .env
// file first if one is present (godotenv.Load is a no-op, not an error,
// when the file is absent).
func Load() (Config, error) {
	_ = godotenv.Load()

	key, err := loadEncryptionKey()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Env:  getEnv("ENGINE_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "interview-engine"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		EncryptionKey:      key,
		AdminAPIKey:        getEnv("ADMIN_API_KEY", ""),
		InterviewsDir:      getEnv("INTERVIEWS_DIR", "interviews"),
		UpdateURL:          getEnv("PUBLIC_UPDATE_URL", "/update"),
		HookTimeoutSeconds: getEnvInt("HOOK_TIMEOUT_SECONDS", 10),
	}, nil
}

// loadEncryptionKey reads a base64url-encoded 32-byte key from
// STATE_ENCRYPTION_KEY, or from the file named by
// STATE_ENCRYPTION_KEY_FILE when that is set (spec.md §6 "Configuration
// surface": "supplied via a key file").
func loadEncryptionKey() ([state.KeySize]byte, error) {
	var key [state.KeySize]byte

	encoded := getEnv("STATE_ENCRYPTION_KEY", "")
	if path := getEnv("STATE_ENCRYPTION_KEY_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return key, fmt.Errorf("reading encryption key file: %w", err)
		}
		encoded = strings.TrimSpace(string(raw))
	}
	if encoded == "" {
		return key, fmt.Errorf("STATE_ENCRYPTION_KEY (or STATE_ENCRYPTION_KEY_FILE) must be set")
	}

	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(encoded)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(encoded)
	}
	if err != nil {
		return key, fmt.Errorf("decoding encryption key: %w", err)
	}
	if len(decoded) != state.KeySize {
		return key, fmt.Errorf("encryption key must be %d bytes, got %d", state.KeySize, len(decoded))
	}
	copy(key[:], decoded)
	return key, nil
}

// IsProduction reports whether Env is "production".
func (c Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether Env is "development".
func (c Config) IsDevelopment() bool { return c.Env == "development" }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
