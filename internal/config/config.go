package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ReportsDir    string
	StopWordsPath string
	InputFormat   string

	NormalizeThresholdPct float64
	CustomerMatchFields   []string
	VendorMatchFields     []string

	RunLedgerEnabled bool
	DBPath           string

	LogLevel       string
	LogDevelopment bool

	WatchIntervalSec int
	MetricsAddr      string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ReportsDir:    getEnv("REPORTS_DIR", filepath.Join(cwd, "reports")),
		StopWordsPath: getEnv("STOP_WORDS_PATH", filepath.Join(cwd, "stop_words.txt")),
		InputFormat:   strings.ToLower(strings.TrimSpace(getEnv("INPUT_FORMAT", "csv"))),

		NormalizeThresholdPct: getEnvFloat("NORMALIZE_THRESHOLD_PCT", 10),
		CustomerMatchFields:   getEnvList("CUSTOMER_MATCH_FIELDS", []string{"full_name", "name", "assoc"}),
		VendorMatchFields:     getEnvList("VENDOR_MATCH_FIELDS", []string{"assoc_1", "assoc_2", "assoc_other"}),

		RunLedgerEnabled: getEnvBool("RUN_LEDGER_ENABLED", true),
		DBPath:           getEnv("DB_PATH", filepath.Join(cwd, "data", "runs.db")),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: getEnvBool("LOG_DEVELOPMENT", false),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 60),
		MetricsAddr:      strings.TrimSpace(getEnv("METRICS_ADDR", "")),
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.InputFormat {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("unsupported INPUT_FORMAT: %s", c.InputFormat)
	}
	if c.NormalizeThresholdPct < 0 || c.NormalizeThresholdPct > 100 {
		return fmt.Errorf("NORMALIZE_THRESHOLD_PCT out of range: %v", c.NormalizeThresholdPct)
	}
	if len(c.CustomerMatchFields) == 0 {
		return fmt.Errorf("CUSTOMER_MATCH_FIELDS is empty")
	}
	if len(c.VendorMatchFields) == 0 {
		return fmt.Errorf("VENDOR_MATCH_FIELDS is empty")
	}
	if c.WatchIntervalSec < 0 {
		return fmt.Errorf("WATCH_INTERVAL_SEC must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
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

// getEnvList reads a comma separated list. Order is kept; it sets match
// precedence.
func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
