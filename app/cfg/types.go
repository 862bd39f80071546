package cfg

import "time"

type Cfg struct {
	// Topics configuration
	ConfigFile string

	// Run parameters
	MaxItems         int
	MaxAgeDays       int
	MaxRetries       int
	Pause            time.Duration
	BackoffBase      time.Duration
	ExtractSummaries bool
	DryRun           bool

	// Telegram configuration
	TelegramToken  string
	DefaultChannel string
	AdminChannel   string

	// State store configuration
	StateDriver      string
	StateFile        string
	GistID           string
	GitHubToken      string
	DBPath           string
	RedisAddr        string
	MaxTitlesPerFeed int

	// Daemon configuration
	Schedule string
	Port     string
	APIKey   string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// Oneshot reports whether the process should run the pipeline once and exit
// instead of starting the scheduler and HTTP API.
func (c *Cfg) Oneshot() bool {
	return c.Schedule == ""
}
