package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all configuration for the advocacy backend
type Config struct {
	// Server
	Port           string
	TrustedProxies []string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// SendGrid
	SendGridAPIKey    string
	SendGridFromName  string
	SendGridFromEmail string

	// Admin notifications
	AdminNotifyEmail string

	// Admin console login
	AdminEmail        string
	AdminPasswordHash string
	JWTSecret         string

	// Spreadsheet sync
	GoogleServiceAccountJSON string
	SyncSpreadsheetID        string
	SyncSheetName            string
	SyncSubmissionKind       string

	// Event publishing (optional)
	AMQPURL      string
	AMQPExchange string

	// Client-facing
	RecaptchaSiteKey string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "advocacy"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Timeshare Exit Support"),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "info@timeshare-exit.org"),

		AdminNotifyEmail: getEnv("ADMIN_NOTIFY_EMAIL", ""),

		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),

		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		SyncSpreadsheetID:        getEnv("SYNC_SPREADSHEET_ID", ""),
		SyncSheetName:            getEnv("SYNC_SHEET_NAME", "Submissions"),
		SyncSubmissionKind:       getEnv("SYNC_SUBMISSION_KIND", "before_you_sign"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "advocacy.events"),

		RecaptchaSiteKey: getEnv("RECAPTCHA_SITE_KEY", ""),
	}

	if trustedProxies := os.Getenv("TRUSTED_PROXIES"); trustedProxies != "" {
		cfg.TrustedProxies = strings.Split(trustedProxies, ",")
		for i, proxy := range cfg.TrustedProxies {
			cfg.TrustedProxies[i] = strings.TrimSpace(proxy)
		}
	}

	return cfg
}

// ValidateSync checks the settings the spreadsheet sync cannot run
// without. The returned error names the first missing variable so the
// operator knows exactly what to set.
func (c *Config) ValidateSync() error {
	checks := []struct {
		name  string
		value string
	}{
		{"DB_HOST", c.DBHost},
		{"DB_PASSWORD", c.DBPassword},
		{"GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON},
		{"SYNC_SPREADSHEET_ID", c.SyncSpreadsheetID},
	}
	for _, check := range checks {
		if check.value == "" {
			return fmt.Errorf("missing required environment variable: %s", check.name)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
