package config

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	getEnvDefault := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		return fallback
	}

	getDuration := func(key, fallback string) time.Duration {
		raw := getEnvDefault(key, fallback)
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Error: %s is not a valid duration: %s", key, raw)
		}
		return d
	}

	cfg := Config{
		DBName:        getEnv("DB_NAME"),
		MigrationsDir: "./migrations",
		Port:          getEnv("PORT"),
		Slack: SlackConfig{
			Token:          getEnv("SLACK_BOT_TOKEN"),
			AuditChannelID: getEnv("AUDIT_CHANNEL_ID"),
			GateChannelIDs: splitList(getEnvDefault("GATE_CHANNEL_IDS", "")),
		},
		Turso: TursoConfig{
			PrimaryURL: getEnv("TURSO_PRIMARY_URL"),
			AuthToken:  getEnv("TURSO_AUTH_TOKEN"),
		},
		ProjectID:     getEnv("GCP_PROJECT"),
		AdminIDs:      splitList(getEnvDefault("ADMIN_IDS", "")),
		SweepInterval: getDuration("SWEEP_INTERVAL", "24h"),
		SessionTTL:    getDuration("SESSION_TTL", "30m"),
	}
	return cfg
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
