package config

import (
	"strings"
	"testing"
)

func validSyncConfig() *Config {
	return &Config{
		DBHost:                   "localhost",
		DBPassword:               "secret",
		GoogleServiceAccountJSON: `{"type":"service_account"}`,
		SyncSpreadsheetID:        "sheet-id",
	}
}

func TestValidateSync(t *testing.T) {
	if err := validSyncConfig().ValidateSync(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidateSyncNamesFirstMissingVariable(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"db host", func(c *Config) { c.DBHost = "" }, "DB_HOST"},
		{"db password", func(c *Config) { c.DBPassword = "" }, "DB_PASSWORD"},
		{"credentials", func(c *Config) { c.GoogleServiceAccountJSON = "" }, "GOOGLE_SERVICE_ACCOUNT_JSON"},
		{"spreadsheet id", func(c *Config) { c.SyncSpreadsheetID = "" }, "SYNC_SPREADSHEET_ID"},
		{"everything missing names db host first", func(c *Config) { *c = Config{} }, "DB_HOST"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validSyncConfig()
			tc.mutate(cfg)
			err := cfg.ValidateSync()
			if err == nil {
				t.Fatal("expected an error")
			}
			want := "missing required environment variable: " + tc.want
			if err.Error() != want {
				t.Errorf("expected %q, got %q", want, err.Error())
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port == "" {
		t.Error("expected a default port")
	}
	if cfg.SyncSheetName != "Submissions" {
		t.Errorf("expected default sheet name Submissions, got %q", cfg.SyncSheetName)
	}
	if cfg.SyncSubmissionKind != "before_you_sign" {
		t.Errorf("expected default sync kind before_you_sign, got %q", cfg.SyncSubmissionKind)
	}
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2 ,10.0.0.3")

	cfg := Load()

	if len(cfg.TrustedProxies) != 3 {
		t.Fatalf("expected 3 proxies, got %v", cfg.TrustedProxies)
	}
	for _, proxy := range cfg.TrustedProxies {
		if strings.ContainsAny(proxy, " ") {
			t.Errorf("proxy %q was not trimmed", proxy)
		}
	}
}
