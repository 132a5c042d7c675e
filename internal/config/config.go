package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Torque rounding policies. Both existed in production; digit is canonical.
const (
	TorqueDigit    = "digit"
	TorqueNearest5 = "nearest5"
)

type Config struct {
	DBPath    string
	OutputDir string
	WatchDir  string

	HTTPAddr string

	TorqueRounding      string
	ThroughputCeilingKg float64

	UpstreamAPIBaseURL  string
	UpstreamAPIToken    string
	UpstreamRateLimRPS  int
	UpstreamTimeoutMs   int

	WatchSettleMs  int
	WatchAutoMerge bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "rftrank.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		WatchDir:  getEnv("WATCH_DIR", filepath.Join(cwd, "data", "incoming")),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		TorqueRounding:      getEnv("TORQUE_ROUNDING", TorqueDigit),
		ThroughputCeilingKg: getEnvFloat("THROUGHPUT_CEILING_KGH", 2000),

		UpstreamAPIBaseURL: getEnv("UPSTREAM_API_BASE_URL", ""),
		UpstreamAPIToken:   getEnv("UPSTREAM_API_TOKEN", ""),
		UpstreamRateLimRPS: getEnvInt("UPSTREAM_RATE_LIMIT_RPS", 5),
		UpstreamTimeoutMs:  getEnvInt("UPSTREAM_TIMEOUT_MS", 30000),

		WatchSettleMs:  getEnvInt("WATCH_SETTLE_MS", 500),
		WatchAutoMerge: getEnvBool("WATCH_AUTO_MERGE", true),
	}

	if cfg.TorqueRounding != TorqueDigit && cfg.TorqueRounding != TorqueNearest5 {
		return Config{}, fmt.Errorf("unsupported TORQUE_ROUNDING: %s", cfg.TorqueRounding)
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
