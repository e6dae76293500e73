package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix is prepended to every variable name, e.g. DAILYCLAIM_SITE.
const envPrefix = "DAILYCLAIM"

// Config holds all application configuration.
type Config struct {
	// Site selects the site profile used by `run` and `serve`.
	Site string `envconfig:"SITE" default:"anyrouter"`

	// SitesFile optionally points to a YAML file with extra or overriding profiles.
	SitesFile string `envconfig:"SITES_FILE"`

	// AccountsFile is the credential file (one "identifier,secret" per line).
	AccountsFile string `envconfig:"ACCOUNTS_FILE" default:"accounts.txt"`

	// ReportDir is where the per-run text report is written.
	ReportDir string `envconfig:"REPORT_DIR" default:"."`

	Browser   BrowserConfig   `envconfig:"BROWSER"`
	Run       RunConfig       `envconfig:"RUN"`
	Notify    NotifyConfig    `envconfig:"NOTIFY"`
	Server    ServerConfig    `envconfig:"SERVER"`
	Auth      AuthConfig      `envconfig:"AUTH"`
	RateLimit RateLimitConfig `envconfig:"RATE"`
	Schedule  ScheduleConfig  `envconfig:"SCHEDULE"`
	Log       LogConfig       `envconfig:"LOG"`
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `envconfig:"HEADLESS" default:"true"`

	// NoSandbox disables Chrome's sandbox (needed in Docker and CI runners).
	NoSandbox bool `envconfig:"NO_SANDBOX" default:"true"`

	// Bin overrides the Chromium binary path.
	Bin string `envconfig:"BIN"`

	// Proxy is an optional proxy URL for all sessions.
	Proxy string `envconfig:"PROXY"`

	// UserAgent overrides the session user agent.
	UserAgent string `envconfig:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"`

	// AcceptLanguage is sent with every page request.
	AcceptLanguage string `envconfig:"ACCEPT_LANGUAGE" default:"zh-CN,zh;q=0.9,en;q=0.8"`

	// ViewportWidth and ViewportHeight size every session page.
	ViewportWidth  int `envconfig:"VIEWPORT_WIDTH" default:"1280"`
	ViewportHeight int `envconfig:"VIEWPORT_HEIGHT" default:"800"`

	// BlockedResourceTypes lists resource types the session never loads.
	BlockedResourceTypes []string `envconfig:"BLOCKED_RESOURCES" default:"Image,Font,Media"`
}

// RunConfig controls pacing and the bounded waits inside each step.
type RunConfig struct {
	// MinDelay and MaxDelay bound the random pause between accounts.
	MinDelay time.Duration `envconfig:"MIN_DELAY" default:"1s"`
	MaxDelay time.Duration `envconfig:"MAX_DELAY" default:"3s"`

	// AccountTimeout is the hard deadline for one account.
	AccountTimeout time.Duration `envconfig:"ACCOUNT_TIMEOUT" default:"2m"`

	// NavigationTimeout bounds a single page navigation.
	NavigationTimeout time.Duration `envconfig:"NAV_TIMEOUT" default:"15s"`

	// SettleDelay is the pause after a navigation before the page is inspected.
	SettleDelay time.Duration `envconfig:"SETTLE_DELAY" default:"2s"`

	// LoginWait bounds the post-submit classification.
	LoginWait time.Duration `envconfig:"LOGIN_WAIT" default:"8s"`

	// ElementWait bounds waits for a single element to appear.
	ElementWait time.Duration `envconfig:"ELEMENT_WAIT" default:"2s"`

	// ConfirmWait bounds the wait for a check-in confirmation after clicking.
	ConfirmWait time.Duration `envconfig:"CONFIRM_WAIT" default:"3s"`

	// PollInterval is how often bounded waits re-inspect the page.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"250ms"`
}

// NotifyConfig controls result delivery. Every channel is optional.
type NotifyConfig struct {
	// Enabled switches all notifications off when false.
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// TelegramBotToken and TelegramChatID also fall back to the bare
	// TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID variables.
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`

	// WebhookURL receives a signed JSON copy of every run.
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`

	// Attempts is the number of delivery attempts per channel.
	Attempts uint `envconfig:"ATTEMPTS" default:"3"`

	// RetryDelay is the base delay between delivery attempts.
	RetryDelay time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
}

// ServerConfig controls the status API started by `serve`.
type ServerConfig struct {
	Host string `envconfig:"HOST" default:"127.0.0.1"`
	Port int    `envconfig:"PORT" default:"8080"`
	Mode string `envconfig:"MODE" default:"release"` // "debug", "release", "test"
}

// AuthConfig controls API key authentication on the status API.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// APIKeys is the list of valid API keys.
	APIKeys []string `envconfig:"API_KEYS"`
}

// RateLimitConfig controls per-key rate limiting on the status API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 `envconfig:"RPS" default:"1"`

	// Burst is the maximum burst size per API key.
	Burst int `envconfig:"BURST" default:"5"`
}

// ScheduleConfig controls the cron schedule used by `serve`.
type ScheduleConfig struct {
	// Cron is a standard 5-field crontab expression.
	Cron string `envconfig:"CRON" default:"7 8 * * *"`

	// Timezone is an IANA zone name for the schedule.
	Timezone string `envconfig:"TZ" default:"Asia/Shanghai"`

	// RunOnStart triggers one run immediately after `serve` starts.
	RunOnStart bool `envconfig:"RUN_ON_START" default:"false"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"text"` // "json" or "text"

	// File, when set, receives a rotated copy of every log line.
	File       string `envconfig:"FILE"`
	MaxSizeMB  int    `envconfig:"MAX_SIZE_MB" default:"10"`
	MaxBackups int    `envconfig:"MAX_BACKUPS" default:"5"`
	MaxAgeDays int    `envconfig:"MAX_AGE_DAYS" default:"14"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Run.MinDelay < 0 || c.Run.MaxDelay < c.Run.MinDelay {
		return fmt.Errorf("invalid inter-account delay range [%s, %s]", c.Run.MinDelay, c.Run.MaxDelay)
	}
	if c.Run.AccountTimeout <= 0 {
		return fmt.Errorf("account timeout must be positive, got %s", c.Run.AccountTimeout)
	}
	if c.Run.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive, got %s", c.Run.NavigationTimeout)
	}
	if c.Run.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Run.PollInterval)
	}
	if c.Notify.Attempts == 0 {
		c.Notify.Attempts = 1
	}
	return nil
}
