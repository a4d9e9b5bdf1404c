package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./spatial_selecta.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port                string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SourcesFile         string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file listing curated catalog sources"`
	ScanIntervalHours   int    `long:"scan-interval" env:"SCAN_INTERVAL_HOURS" default:"48" description:"Hours between scheduled catalog scans"`
	PublicRefreshWindow int    `long:"public-refresh-window" env:"PUBLIC_REFRESH_WINDOW" default:"60" description:"Minutes between public refresh triggers per client IP"`
	APIAccessKey        string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the admin refresh endpoint (optional)"`

	// Catalog client configuration
	CatalogStorefront    string `long:"storefront" env:"CATALOG_STOREFRONT" default:"us" description:"Apple Music storefront (country code)"`
	CatalogRetryCount    int    `long:"catalog-retry-count" env:"CATALOG_RETRY_COUNT" default:"0" description:"Number of retries for failed catalog requests"`
	CatalogRetryWaitSecs int    `long:"catalog-retry-wait" env:"CATALOG_RETRY_WAIT" default:"2" description:"Seconds to wait between catalog request retries"`

	// Apple Music credentials
	DeveloperToken string `long:"developer-token" env:"APPLE_MUSIC_DEVELOPER_TOKEN" description:"Static Apple Music developer token (optional if team/key credentials are set)"`
	MusicUserToken string `long:"music-user-token" env:"APPLE_MUSIC_USER_TOKEN" description:"Apple Music user token (optional)"`
	AppleTeamID    string `long:"apple-team-id" env:"APPLE_TEAM_ID" description:"Apple developer team ID for token generation"`
	AppleKeyID     string `long:"apple-key-id" env:"APPLE_KEY_ID" description:"Apple Music API key ID for token generation"`
	AppleKeyPath   string `long:"apple-key-path" env:"APPLE_KEY_PATH" description:"Path to the .p8 private key for token generation"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Spatial Selecta/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// Optional .env file; flags and real environment take precedence
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:               raw.DBPath,
		Port:                 raw.Port,
		SourcesFile:          raw.SourcesFile,
		ScanIntervalHours:    raw.ScanIntervalHours,
		PublicRefreshWindow:  raw.PublicRefreshWindow,
		APIAccessKey:         raw.APIAccessKey,
		CatalogStorefront:    raw.CatalogStorefront,
		CatalogRetryCount:    raw.CatalogRetryCount,
		CatalogRetryWaitSecs: raw.CatalogRetryWaitSecs,
		DeveloperToken:       raw.DeveloperToken,
		MusicUserToken:       raw.MusicUserToken,
		AppleTeamID:          raw.AppleTeamID,
		AppleKeyID:           raw.AppleKeyID,
		AppleKeyPath:         raw.AppleKeyPath,
		UserAgent:            raw.UserAgent,
		Timezone:             raw.Timezone,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if cfg.ScanIntervalHours <= 0 {
		return nil, fmt.Errorf("scan interval must be positive, got %d", cfg.ScanIntervalHours)
	}
	if cfg.PublicRefreshWindow <= 0 {
		return nil, fmt.Errorf("public refresh window must be positive, got %d", cfg.PublicRefreshWindow)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
