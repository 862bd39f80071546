package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Topics configuration
	ConfigFile string `long:"config" short:"c" env:"NEWSMON_CONFIG" default:"topics.yml" description:"Path to the topics configuration file"`

	// Run parameters
	MaxItems         int           `long:"max-items" env:"MAX_ITEMS_PER_RUN" default:"10" description:"Global cap on items delivered per run"`
	MaxAgeDays       int           `long:"max-age-days" env:"MAX_ITEM_AGE_DAYS" default:"1" description:"Discard items published more than this many days ago"`
	MaxRetries       int           `long:"max-retries" env:"MAX_RETRIES" default:"3" description:"Delivery retries per message after a rate limit"`
	Pause            time.Duration `long:"pause" env:"PAUSE_BETWEEN_MESSAGES" default:"300ms" description:"Pause between successive message sends"`
	BackoffBase      time.Duration `long:"backoff-base" env:"BACKOFF_BASE" default:"60s" description:"Baseline backoff delay when a rate limit carries no wait hint"`
	ExtractSummaries bool          `long:"extract-summaries" env:"EXTRACT_SUMMARIES" description:"Fetch linked pages to fill in missing item summaries"`
	DryRun           bool          `long:"dry-run" env:"DRY_RUN" description:"Select items but skip delivery and state commit"`

	// Telegram configuration
	TelegramToken  string `long:"telegram-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token (unset runs in dry-run mode)"`
	DefaultChannel string `long:"default-channel" env:"TELEGRAM_CHANNEL_ID" description:"Fallback channel when a topic's channel cannot be resolved"`
	AdminChannel   string `long:"admin-channel" env:"TELEGRAM_ADMIN_CHANNEL_ID" description:"Channel for operator notifications (optional)"`

	// State store configuration
	StateDriver      string `long:"state-driver" env:"STATE_DRIVER" default:"file" choice:"file" choice:"gist" choice:"sqlite" choice:"redis" description:"Backend for the delivered-items snapshot"`
	StateFile        string `long:"state-file" env:"STATE_FILE" default:"newsmon_state.json" description:"Snapshot path for the file driver"`
	GistID           string `long:"gist-id" env:"STATE_GIST_ID" description:"Gist ID for the gist driver"`
	GitHubToken      string `long:"github-token" env:"GH_GIST_UPDATE_TOKEN" description:"GitHub token with gist scope for the gist driver"`
	DBPath           string `long:"db-path" env:"DB_PATH" default:"newsmon.db" description:"Database path for the sqlite driver"`
	RedisAddr        string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Address for the redis driver"`
	MaxTitlesPerFeed int    `long:"max-titles-per-feed" env:"MAX_TITLES_PER_FEED" default:"0" description:"Keep only the newest N delivered titles per feed (0 = unlimited)"`

	// Daemon configuration
	Schedule string `long:"schedule" env:"SCHEDULE" description:"Cron expression or @every interval; empty runs once and exits"`
	Port     string `long:"port" env:"PORT" default:"8080" description:"HTTP server port (daemon mode)"`
	APIKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"When set, POST /run requires this key"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"newsmon/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps and schedules (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
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
		ConfigFile:       raw.ConfigFile,
		MaxItems:         raw.MaxItems,
		MaxAgeDays:       raw.MaxAgeDays,
		MaxRetries:       raw.MaxRetries,
		Pause:            raw.Pause,
		BackoffBase:      raw.BackoffBase,
		ExtractSummaries: raw.ExtractSummaries,
		DryRun:           raw.DryRun,
		TelegramToken:    raw.TelegramToken,
		DefaultChannel:   raw.DefaultChannel,
		AdminChannel:     raw.AdminChannel,
		StateDriver:      raw.StateDriver,
		StateFile:        raw.StateFile,
		GistID:           raw.GistID,
		GitHubToken:      raw.GitHubToken,
		DBPath:           raw.DBPath,
		RedisAddr:        raw.RedisAddr,
		MaxTitlesPerFeed: raw.MaxTitlesPerFeed,
		Schedule:         raw.Schedule,
		Port:             raw.Port,
		APIKey:           raw.APIKey,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
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
