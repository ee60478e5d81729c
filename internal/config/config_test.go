package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}

	// Merge defaults
	if cfg.MergeExistingCSV != "company_career_urls_output.csv" {
		t.Errorf("MergeExistingCSV = %q", cfg.MergeExistingCSV)
	}
	if cfg.MergeNewCSV != "HiringTechCompanies - TheList.csv" {
		t.Errorf("MergeNewCSV = %q", cfg.MergeNewCSV)
	}

	// Scrape defaults
	if cfg.ScrapeTimeout != 15*time.Second {
		t.Errorf("ScrapeTimeout = %v, want %v", cfg.ScrapeTimeout, 15*time.Second)
	}
	if cfg.ScrapeMaxSize != 5242880 {
		t.Errorf("ScrapeMaxSize = %d, want %d", cfg.ScrapeMaxSize, 5242880)
	}
	if cfg.ScrapeKeywordHint != "machine learning" {
		t.Errorf("ScrapeKeywordHint = %q, want %q", cfg.ScrapeKeywordHint, "machine learning")
	}
	if cfg.ScrapeAllowPrivate {
		t.Error("ScrapeAllowPrivate = true, want false")
	}

	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("RateLimitPerMinute = %d, want %d", cfg.RateLimitPerMinute, 120)
	}
	if cfg.CORSAllowedOrigin != "http://localhost:4321" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:4321")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MERGE_EXISTING_CSV", "/tmp/existing.csv")
	t.Setenv("MERGE_NEW_CSV", "/tmp/new.csv")
	t.Setenv("SCRAPE_TIMEOUT", "30s")
	t.Setenv("SCRAPE_MAX_SIZE", "1048576")
	t.Setenv("SCRAPE_KEYWORD_HINT", "data science")
	t.Setenv("SCRAPE_ALLOW_PRIVATE", "true")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "60")
	t.Setenv("CORS_ALLOWED_ORIGIN", "https://tracker.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9090")
	}
	if cfg.MergeExistingCSV != "/tmp/existing.csv" {
		t.Errorf("MergeExistingCSV = %q", cfg.MergeExistingCSV)
	}
	if cfg.MergeNewCSV != "/tmp/new.csv" {
		t.Errorf("MergeNewCSV = %q", cfg.MergeNewCSV)
	}
	if cfg.ScrapeTimeout != 30*time.Second {
		t.Errorf("ScrapeTimeout = %v, want %v", cfg.ScrapeTimeout, 30*time.Second)
	}
	if cfg.ScrapeMaxSize != 1048576 {
		t.Errorf("ScrapeMaxSize = %d, want %d", cfg.ScrapeMaxSize, 1048576)
	}
	if cfg.ScrapeKeywordHint != "data science" {
		t.Errorf("ScrapeKeywordHint = %q", cfg.ScrapeKeywordHint)
	}
	if !cfg.ScrapeAllowPrivate {
		t.Error("ScrapeAllowPrivate = false, want true")
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Errorf("RateLimitPerMinute = %d, want %d", cfg.RateLimitPerMinute, 60)
	}
	if cfg.CORSAllowedOrigin != "https://tracker.example.com" {
		t.Errorf("CORSAllowedOrigin = %q", cfg.CORSAllowedOrigin)
	}

	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v; want %v", level, err, slog.LevelDebug)
	}
}

func TestLoad_UnparsableValue_ReturnsError(t *testing.T) {
	t.Setenv("SCRAPE_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparsable SCRAPE_TIMEOUT")
	}
}

func TestLoad_InvalidValues_ReportsAllFields(t *testing.T) {
	t.Setenv("SERVER_PORT", "http")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, key := range []string{"SERVER_PORT", "RATE_LIMIT_PER_MINUTE", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.raw}
			got, err := cfg.SlogLevel()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}
