// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for sharepoint-go. Settings flow through
// a four-layer override chain (defaults -> config file -> environment -> CLI
// flags). SharePoint credentials are usually supplied through the
// environment (or a .env file) rather than written to the config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrConfig is the sentinel for every configuration failure. Missing
// credentials are fatal at startup.
var ErrConfig = errors.New("config: invalid configuration")

// MissingSettingsError lists every required setting that was not provided,
// so the user can fix them all in one pass.
type MissingSettingsError struct {
	Missing []string
}

func (e *MissingSettingsError) Error() string {
	return "missing required settings: " + strings.Join(e.Missing, ", ")
}

func (e *MissingSettingsError) Unwrap() error {
	return ErrConfig
}

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	SharePoint SharePointConfig `toml:"sharepoint"`
	Crawl      CrawlConfig      `toml:"crawl"`
	Retry      RetryConfig      `toml:"retry"`
	Search     SearchConfig     `toml:"search"`
	Server     ServerConfig     `toml:"server"`
	Logging    LoggingConfig    `toml:"logging"`
	Network    NetworkConfig    `toml:"network"`
	Download   DownloadConfig   `toml:"download"`
	Content    ContentConfig    `toml:"content"`
	Journal    JournalConfig    `toml:"journal"`
}

// SharePointConfig identifies the tenant, the app registration used for
// app-only authentication, and the document library all operations are
// scoped to. DocLibrary is "<library>/<optional base folder>", e.g.
// "Shared Documents/mcp_server".
type SharePointConfig struct {
	SiteURL      string `toml:"site_url"`
	TenantID     string `toml:"tenant_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	DocLibrary   string `toml:"doc_library"`
}

// CrawlConfig bounds and paces recursive tree enumeration.
type CrawlConfig struct {
	MaxDepth         int    `toml:"max_depth"`
	MaxItemsPerLevel int    `toml:"max_items_per_level"`
	LevelDelay       string `toml:"level_delay"`
	BatchDelay       string `toml:"batch_delay"`
}

// RetryConfig is the backoff policy applied to every remote call.
type RetryConfig struct {
	MaxAttempts int     `toml:"max_attempts"`
	BaseDelay   string  `toml:"base_delay"`
	MaxDelay    string  `toml:"max_delay"`
	Multiplier  float64 `toml:"multiplier"`
}

// SearchConfig caps the number of search hits returned to callers.
type SearchConfig struct {
	DefaultLimit int `toml:"default_limit"`
	MaxLimit     int `toml:"max_limit"`
}

// ServerConfig selects the MCP transport. Transport is "stdio" or "http".
type ServerConfig struct {
	Transport string `toml:"transport"`
	HTTPHost  string `toml:"http_host"`
	HTTPPort  int    `toml:"http_port"`
	MountPath string `toml:"mount_path"`
}

// LoggingConfig controls log level and format ("auto", "text", "json").
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls the HTTP client used for Graph API calls.
type NetworkConfig struct {
	Timeout   string `toml:"timeout"`
	UserAgent string `toml:"user_agent"`
}

// DownloadConfig sets where downloads land when the requested local path
// cannot be written. Empty means the system temporary directory.
type DownloadConfig struct {
	FallbackDir string `toml:"fallback_dir"`
}

// ContentConfig controls document content extraction.
type ContentConfig struct {
	CacheEntries  int    `toml:"cache_entries"`
	MaxInlineSize string `toml:"max_inline_size"`
}

// JournalConfig controls the local operation journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings.
type CLIOverrides struct {
	ConfigPath string
	Transport  string
}

// RequireCredentials reports every missing SharePoint setting at once.
func (c *Config) RequireCredentials() error {
	var missing []string

	check := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	check(c.SharePoint.ClientID, EnvClientID)
	check(c.SharePoint.ClientSecret, EnvClientSecret)
	check(c.SharePoint.SiteURL, EnvSiteURL)
	check(c.SharePoint.TenantID, EnvTenantID)

	if len(missing) > 0 {
		return &MissingSettingsError{Missing: missing}
	}

	return nil
}

// LevelDelayDuration returns the parsed inter-level crawl pause.
func (c CrawlConfig) LevelDelayDuration() time.Duration {
	return durationOr(c.LevelDelay, defaultLevelDelay)
}

// BatchDelayDuration returns the parsed inter-batch crawl pause.
func (c CrawlConfig) BatchDelayDuration() time.Duration {
	return durationOr(c.BatchDelay, defaultBatchDelay)
}

// BaseDelayDuration returns the parsed first retry delay.
func (r RetryConfig) BaseDelayDuration() time.Duration {
	return durationOr(r.BaseDelay, defaultRetryBaseDelay)
}

// MaxDelayDuration returns the parsed retry delay cap.
func (r RetryConfig) MaxDelayDuration() time.Duration {
	return durationOr(r.MaxDelay, defaultRetryMaxDelay)
}

// TimeoutDuration returns the parsed HTTP client timeout.
func (n NetworkConfig) TimeoutDuration() time.Duration {
	return durationOr(n.Timeout, defaultNetworkTimeout)
}

// MaxInlineBytes returns the largest document Get_Document_Content will
// download, or 0 for no limit.
func (c ContentConfig) MaxInlineBytes() int64 {
	n, err := ParseSize(c.MaxInlineSize)
	if err != nil {
		return 0
	}

	return n
}

// Addr returns the host:port the HTTP transport listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.HTTPHost, s.HTTPPort)
}

// durationOr parses s, falling back when it is empty or invalid. Invalid
// values never reach here after Validate; the fallback covers zero configs
// built by hand in tests.
func durationOr(s string, fallback string) time.Duration {
	if s == "" {
		s = fallback
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}

	return d
}
