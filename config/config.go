package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backend names accepted by STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Config is the application configuration.
type Config struct {
	AssistantBaseURL string
	StoreBackend     string
	ChatDBPath       string
	DefaultLanguage  string
	StoreQuotaBytes  int
	RequestTimeout   time.Duration
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// Load the .env file when present
	_ = godotenv.Load()

	config := &Config{
		AssistantBaseURL: os.Getenv("ASSISTANT_BASE_URL"),
		StoreBackend:     BackendSQLite,
		ChatDBPath:       "data/chat.db",
		DefaultLanguage:  "en",
		RequestTimeout:   30 * time.Second,
	}

	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		config.StoreBackend = backend
	}

	if dbPath := os.Getenv("CHAT_DB_PATH"); dbPath != "" {
		config.ChatDBPath = dbPath
	}

	if lang := os.Getenv("DEFAULT_LANGUAGE"); lang != "" {
		config.DefaultLanguage = lang
	}

	if rawQuota := os.Getenv("STORE_QUOTA_BYTES"); rawQuota != "" {
		parsed, err := strconv.Atoi(rawQuota)
		if err != nil {
			return nil, fmt.Errorf("STORE_QUOTA_BYTES is not a number: %v", err)
		}
		config.StoreQuotaBytes = parsed
	}

	if rawTimeout := os.Getenv("REQUEST_TIMEOUT_SECONDS"); rawTimeout != "" {
		parsed, err := strconv.Atoi(rawTimeout)
		if err != nil {
			return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS is not a number: %v", err)
		}
		config.RequestTimeout = time.Duration(parsed) * time.Second
	}

	// Validation
	if config.AssistantBaseURL == "" {
		return nil, fmt.Errorf("ASSISTANT_BASE_URL environment variable is empty")
	}
	switch config.StoreBackend {
	case BackendMemory, BackendSQLite, BackendBolt:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of memory, sqlite, bolt; got %q", config.StoreBackend)
	}

	return config, nil
}
