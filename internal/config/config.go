package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration
	LogLevel    string
	LogFormat   string
	// TimerDuration is the countdown length in seconds for a fresh test
	// session. A persisted remaining-time value always wins over it.
	TimerDuration int
	// StorageBackend selects where session state is persisted:
	// "file", "sqlite" or "redis".
	StorageBackend string
	StateFile      string
	StateDB        string
	RedisURL       string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api"),
		HTTPTimeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "auto"),
		TimerDuration:  getEnvInt("TIMER_DURATION_SECONDS", 30*60),
		StorageBackend: getEnv("STORAGE_BACKEND", "file"),
		StateFile:      getEnv("STATE_FILE", "./placement_state.json"),
		StateDB:        getEnv("STATE_DB", "./placement_state.db"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
