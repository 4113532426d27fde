package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config contains application configuration, read from the environment.
type Config struct {
	MongoURI           string
	MongoDB            string
	Port               string
	WebURL             string
	LogLevel           string
	SweepSchedule      string
	SweepRetentionDays int
}

// Load reads configuration from environment variables. MONGO_URI is the
// only required key; everything else has a default.
func Load() (*Config, error) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}

	retentionDays := 30
	if raw := os.Getenv("SWEEP_RETENTION_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			return nil, fmt.Errorf("invalid SWEEP_RETENTION_DAYS %q", raw)
		}
		retentionDays = days
	}

	return &Config{
		MongoURI:           uri,
		MongoDB:            getEnv("MONGO_DB", "parking"),
		Port:               getEnv("PORT", "8080"),
		WebURL:             os.Getenv("WEB_URL"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SweepSchedule:      os.Getenv("SWEEP_SCHEDULE"),
		SweepRetentionDays: retentionDays,
	}, nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
