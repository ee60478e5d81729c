package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 全項目が任意で、未設定の場合はデフォルト値が使われる。
type Config struct {
	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	// Merge
	MergeExistingCSV string `env:"MERGE_EXISTING_CSV" envDefault:"company_career_urls_output.csv"`
	MergeNewCSV      string `env:"MERGE_NEW_CSV" envDefault:"HiringTechCompanies - TheList.csv"`

	// Scrape
	ScrapeTimeout      time.Duration `env:"SCRAPE_TIMEOUT" envDefault:"15s"`
	ScrapeMaxSize      int64         `env:"SCRAPE_MAX_SIZE" envDefault:"5242880"`
	ScrapeKeywordHint  string        `env:"SCRAPE_KEYWORD_HINT" envDefault:"machine learning"`
	ScrapeAllowPrivate bool          `env:"SCRAPE_ALLOW_PRIVATE" envDefault:"false"`

	// Rate Limit
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:4321"`
}

// Load は環境変数からConfigを読み込み、値を検証する。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の妥当性を検証する。不正な項目はまとめて返す。
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if port, err := strconv.Atoi(c.ServerPort); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be a port number (1-65535), got %q", c.ServerPort))
	}
	if c.ScrapeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPE_TIMEOUT must be positive, got %s", c.ScrapeTimeout))
	}
	if c.ScrapeMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPE_MAX_SIZE must be positive, got %d", c.ScrapeMaxSize))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute))
	}
	if strings.TrimSpace(c.MergeExistingCSV) == "" {
		errs = append(errs, errors.New("MERGE_EXISTING_CSV must not be empty"))
	}
	if strings.TrimSpace(c.MergeNewCSV) == "" {
		errs = append(errs, errors.New("MERGE_NEW_CSV must not be empty"))
	}

	return errors.Join(errs...)
}

// SlogLevel はLOG_LEVELをslog.Levelに変換する。
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
}
