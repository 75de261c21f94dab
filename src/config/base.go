package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/stake-plus/countdown/src/data"
	"gorm.io/gorm"
)

// LoadEnv reads an optional .env file into the environment. Values already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// MySQLDSN returns the MySQL DSN configured via environment.
func MySQLDSN() (string, error) {
	dsn := os.Getenv("MYSQL_DSN")
	if strings.TrimSpace(dsn) == "" {
		return "", errors.New("config: MYSQL_DSN is not set")
	}
	return dsn, nil
}

// RedisURL returns the Redis URL, or "" when event publishing is disabled.
func RedisURL() string {
	return strings.TrimSpace(os.Getenv("REDIS_URL"))
}

// LogLevel returns the configured log level.
func LogLevel() string {
	return getenv("LOG_LEVEL", "info")
}

// LoadSettings fills the settings cache from db. A failure leaves env fallbacks in place.
func LoadSettings(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return data.LoadSettings(db)
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" && envKey != "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

func getBoolSetting(settingKey, envKey string, defaultValue bool) bool {
	return parseBoolDefault(GetSetting(settingKey, envKey, ""), defaultValue)
}

func getIntSetting(settingKey, envKey string, defaultValue int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(GetSetting(settingKey, envKey, ""))); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getFloatSetting(settingKey, envKey string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(GetSetting(settingKey, envKey, "")), 64); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseList(raw string) []string {
	fields := strings.Split(raw, "|")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
