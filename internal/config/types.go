package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Slack         SlackConfig
	Turso         TursoConfig
	ProjectID     string
	AdminIDs      []string
	SweepInterval time.Duration
	SessionTTL    time.Duration
}

type SlackConfig struct {
	Token          string
	AuditChannelID string
	// Channels a user must be a member of before the main menu opens.
	GateChannelIDs []string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
