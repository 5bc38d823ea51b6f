package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// submissionTables maps a submission kind to its backing table. All
// four tables share the same row shape; only the form they come from
// differs.
var submissionTables = map[string]string{
	"before_you_sign":     "before_you_sign_submissions",
	"where_scams_thrive":  "where_scams_thrive_submissions",
	"timeshare_checklist": "timeshare_checklist_submissions",
	"scam_report":         "scam_report_submissions",
}

// TableForKind resolves a submission kind to its table name. Every
// query interpolating a table name goes through this lookup, so a kind
// taken from a URL can never reach the SQL text unchecked.
func TableForKind(kind string) (string, error) {
	table, ok := submissionTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown submission kind: %s", kind)
	}
	return table, nil
}

const submissionColumns = `
    id CHAR(36) PRIMARY KEY,
    full_name VARCHAR(256) NOT NULL,
    email VARCHAR(256) NOT NULL,
    newsletter_opt_in BOOLEAN NOT NULL DEFAULT FALSE,
    browser VARCHAR(64) NOT NULL DEFAULT '',
    device_type VARCHAR(32) NOT NULL DEFAULT '',
    screen_resolution VARCHAR(32) NOT NULL DEFAULT '',
    timezone VARCHAR(64) NOT NULL DEFAULT '',
    language VARCHAR(32) NOT NULL DEFAULT '',
    ip VARCHAR(64) NOT NULL DEFAULT '',
    city VARCHAR(128) NOT NULL DEFAULT '',
    region VARCHAR(128) NOT NULL DEFAULT '',
    country VARCHAR(128) NOT NULL DEFAULT '',
    latitude VARCHAR(32) NOT NULL DEFAULT '',
    longitude VARCHAR(32) NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    synced_at TIMESTAMP NULL DEFAULT NULL,
    INDEX idx_created_at (created_at),
    INDEX idx_synced_at (synced_at)`

// InitializeSchema creates any missing tables on startup
func InitializeSchema(db *sql.DB) error {
	for kind, table := range submissionTables {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, table, submissionColumns)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table, err)
		}
		log.Debugf("Verified table %s for kind %s", table, kind)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS petitions (
    id CHAR(36) PRIMARY KEY,
    title VARCHAR(256) NOT NULL,
    story TEXT NOT NULL,
    goal INT NOT NULL DEFAULT 0,
    signature_count INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
		`CREATE TABLE IF NOT EXISTS petition_signatures (
    id CHAR(36) PRIMARY KEY,
    petition_id CHAR(36) NOT NULL,
    full_name VARCHAR(256) NOT NULL,
    email VARCHAR(256) NOT NULL,
    newsletter_opt_in BOOLEAN NOT NULL DEFAULT FALSE,
    browser VARCHAR(64) NOT NULL DEFAULT '',
    device_type VARCHAR(32) NOT NULL DEFAULT '',
    screen_resolution VARCHAR(32) NOT NULL DEFAULT '',
    timezone VARCHAR(64) NOT NULL DEFAULT '',
    language VARCHAR(32) NOT NULL DEFAULT '',
    ip VARCHAR(64) NOT NULL DEFAULT '',
    city VARCHAR(128) NOT NULL DEFAULT '',
    region VARCHAR(128) NOT NULL DEFAULT '',
    country VARCHAR(128) NOT NULL DEFAULT '',
    latitude VARCHAR(32) NOT NULL DEFAULT '',
    longitude VARCHAR(32) NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (petition_id) REFERENCES petitions(id) ON DELETE CASCADE,
    INDEX idx_petition_created (petition_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
		`CREATE TABLE IF NOT EXISTS notification_outbox (
    id INT AUTO_INCREMENT PRIMARY KEY,
    kind ENUM('confirmation', 'admin_alert', 'newsletter_signup') NOT NULL,
    recipient VARCHAR(256) NOT NULL,
    payload TEXT NOT NULL,
    attempts INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    sent_at TIMESTAMP NULL DEFAULT NULL,
    INDEX idx_sent_created (sent_at, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	log.Info("Database schema verified")
	return nil
}
