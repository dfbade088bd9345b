package config

import (
	"testing"
	"time"

	"log/slog"
)

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout %v, got %v", defaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("expected default log format %q, got %q", defaultLogFormat, cfg.Logging.Format)
	}
	if cfg.Site.URL != defaultSiteURL {
		t.Errorf("expected default site URL %q, got %q", defaultSiteURL, cfg.Site.URL)
	}
	if cfg.Site.Title != defaultSiteTitle {
		t.Errorf("expected default site title %q, got %q", defaultSiteTitle, cfg.Site.Title)
	}
	if cfg.Site.Description != defaultSiteDescription {
		t.Errorf("expected default site description %q, got %q", defaultSiteDescription, cfg.Site.Description)
	}
	if cfg.Feed.DefaultLimit != defaultFeedLimit {
		t.Errorf("expected default feed limit %d, got %d", defaultFeedLimit, cfg.Feed.DefaultLimit)
	}
	if cfg.Feed.MaxLimit != maxFeedLimit {
		t.Errorf("expected default feed max limit %d, got %d", maxFeedLimit, cfg.Feed.MaxLimit)
	}
	if cfg.Feed.RetentionAge != 0 {
		t.Errorf("expected retention disabled by default, got %v", cfg.Feed.RetentionAge)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":                 "9090",
		"SERVER_READ_TIMEOUT_SECONDS": "30",
		"LOG_LEVEL":                   "debug",
		"LOG_FORMAT":                  "text",
		"SITE_URL":                    "https://data.example.org",
		"SITE_TITLE":                  "Example feeds",
		"SITE_LANGUAGE":               "de",
		"FEED_DEFAULT_LIMIT":          "50",
		"FEED_MAX_LIMIT":              "500",
		"ACTIVITY_RETENTION_DAYS":     "90",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected overridden port %q, got %q", "9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout %v, got %v", 30*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("expected log level %v, got %v", slog.LevelDebug, cfg.Logging.Level)
	}
	if cfg.Site.URL != "https://data.example.org" {
		t.Errorf("expected overridden site URL, got %q", cfg.Site.URL)
	}
	if cfg.Site.Title != "Example feeds" {
		t.Errorf("expected overridden site title, got %q", cfg.Site.Title)
	}
	if cfg.Site.Language != "de" {
		t.Errorf("expected overridden site language, got %q", cfg.Site.Language)
	}
	if cfg.Feed.DefaultLimit != 50 {
		t.Errorf("expected feed limit 50, got %d", cfg.Feed.DefaultLimit)
	}
	if cfg.Feed.MaxLimit != 500 {
		t.Errorf("expected feed max limit 500, got %d", cfg.Feed.MaxLimit)
	}
	if cfg.Feed.RetentionAge != 90*24*time.Hour {
		t.Errorf("expected retention age %v, got %v", 90*24*time.Hour, cfg.Feed.RetentionAge)
	}
}

func TestLoadStripsTrailingSlashFromSiteURL(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SITE_URL", "https://data.example.org/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Site.URL != "https://data.example.org" {
		t.Errorf("expected trailing slash stripped, got %q", cfg.Site.URL)
	}
}

func TestLoadPrefersPlatformPort(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "7000" {
		t.Errorf("expected PORT to win, got %q", cfg.Server.Port)
	}
}

func TestLoadWithInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_READ_TIMEOUT_SECONDS":  "-1",
		"SERVER_WRITE_TIMEOUT_SECONDS": "abc",
		"LOG_LEVEL":                    "verbose",
		"LOG_FORMAT":                   "xml",
		"FEED_DEFAULT_LIMIT":           "0",
		"FEED_MAX_LIMIT":               "-5",
		"ACTIVITY_RETENTION_DAYS":      "ninety",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s=%q", key, value)
			}
		})
	}
}

func TestParseLogLevelAliases(t *testing.T) {
	tests := map[string]slog.Level{
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
	}

	for input, expected := range tests {
		level, err := parseLogLevel(input)
		if err != nil {
			t.Fatalf("parseLogLevel(%q) returned error: %v", input, err)
		}

		if level != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, level, expected)
		}
	}
}

func TestParsePositiveIntRejectsInvalidInput(t *testing.T) {
	cases := []string{"0", "-1", "abc", "3.5"}

	for _, input := range cases {
		if _, err := parsePositiveInt(input); err == nil {
			t.Fatalf("expected error for input %q", input)
		}
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT",
		"SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS",
		"SERVER_WRITE_TIMEOUT_SECONDS",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"SITE_URL",
		"SITE_TITLE",
		"SITE_DESCRIPTION",
		"SITE_LANGUAGE",
		"FEED_DEFAULT_LIMIT",
		"FEED_MAX_LIMIT",
		"ACTIVITY_RETENTION_DAYS",
	}

	for _, key := range keys {
		t.Setenv(key, "")
	}
}
