package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr          string
	CORSOrigin    string
	IntakeBaseURL string
	SubmitTimeout time.Duration
	RedisURL      string
	DataDir       string
}

func Load() Config {
	return Config{
		Addr:          getenv("API_ADDR", ":8791"),
		CORSOrigin:    getenv("ADSK_CORS_ORIGIN", "*"),
		IntakeBaseURL: normalizeBaseURL(getenv("INTAKE_API_BASE_URL", "")),
		SubmitTimeout: time.Duration(getenvInt("INTAKE_SUBMIT_TIMEOUT_SECONDS", 120)) * time.Second,
		// Redis - optional; drafts fall back to the file store when unset
		RedisURL: getenv("REDIS_URL", ""),
		DataDir:  getenv("ADSK_DATA_DIR", "./data"),
	}
}

// normalizeBaseURL trims whitespace and a single trailing slash so route
// concatenation never produces "//api/...".
func normalizeBaseURL(raw string) string {
	s := strings.TrimSpace(raw)
	return strings.TrimSuffix(s, "/")
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
