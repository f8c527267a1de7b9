package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation range constants.
const (
	minMaxDepth         = 1
	maxMaxDepth         = 50
	minItemsPerLevel    = 1
	maxItemsPerLevel    = 1000
	minRetryAttempts    = 1
	maxRetryAttempts    = 10
	minRetryMultiplier  = 1.0
	maxSearchLimitBound = 1000
	minPort             = 1
	maxPort             = 65535
	minNetworkTimeout   = 1 * time.Second
)

// Validate checks all configuration values and returns all errors found,
// so users see a complete report and can fix everything in one pass.
// Credentials are checked separately by RequireCredentials because
// commands like "history" work without them.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateSharePoint(&cfg.SharePoint)...)
	errs = append(errs, validateCrawl(&cfg.Crawl)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateSearch(&cfg.Search)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)
	errs = append(errs, validateContent(&cfg.Content)...)

	return errors.Join(errs...)
}

func validateSharePoint(s *SharePointConfig) []error {
	var errs []error

	if strings.Trim(s.DocLibrary, "/ ") == "" {
		errs = append(errs, errors.New("sharepoint.doc_library: must not be empty"))
	}

	if s.SiteURL != "" && !strings.HasPrefix(s.SiteURL, "https://") {
		errs = append(errs, fmt.Errorf("sharepoint.site_url: must start with https://, got %q", s.SiteURL))
	}

	return errs
}

func validateCrawl(c *CrawlConfig) []error {
	var errs []error

	if c.MaxDepth < minMaxDepth || c.MaxDepth > maxMaxDepth {
		errs = append(errs, fmt.Errorf("crawl.max_depth: must be between %d and %d, got %d",
			minMaxDepth, maxMaxDepth, c.MaxDepth))
	}

	if c.MaxItemsPerLevel < minItemsPerLevel || c.MaxItemsPerLevel > maxItemsPerLevel {
		errs = append(errs, fmt.Errorf("crawl.max_items_per_level: must be between %d and %d, got %d",
			minItemsPerLevel, maxItemsPerLevel, c.MaxItemsPerLevel))
	}

	errs = append(errs, validateDurationNonNeg("crawl.level_delay", c.LevelDelay)...)
	errs = append(errs, validateDurationNonNeg("crawl.batch_delay", c.BatchDelay)...)

	return errs
}

func validateRetry(r *RetryConfig) []error {
	var errs []error

	if r.MaxAttempts < minRetryAttempts || r.MaxAttempts > maxRetryAttempts {
		errs = append(errs, fmt.Errorf("retry.max_attempts: must be between %d and %d, got %d",
			minRetryAttempts, maxRetryAttempts, r.MaxAttempts))
	}

	if r.Multiplier < minRetryMultiplier {
		errs = append(errs, fmt.Errorf("retry.multiplier: must be >= %.1f, got %g", minRetryMultiplier, r.Multiplier))
	}

	baseErrs := validateDurationNonNeg("retry.base_delay", r.BaseDelay)
	maxErrs := validateDurationNonNeg("retry.max_delay", r.MaxDelay)
	errs = append(errs, baseErrs...)
	errs = append(errs, maxErrs...)

	if len(baseErrs) == 0 && len(maxErrs) == 0 && r.MaxDelayDuration() < r.BaseDelayDuration() {
		errs = append(errs, fmt.Errorf("retry.max_delay: must be >= base_delay (%s), got %s", r.BaseDelay, r.MaxDelay))
	}

	return errs
}

func validateSearch(s *SearchConfig) []error {
	var errs []error

	if s.MaxLimit < 1 || s.MaxLimit > maxSearchLimitBound {
		errs = append(errs, fmt.Errorf("search.max_limit: must be between 1 and %d, got %d",
			maxSearchLimitBound, s.MaxLimit))
	}

	if s.DefaultLimit < 1 || s.DefaultLimit > s.MaxLimit {
		errs = append(errs, fmt.Errorf("search.default_limit: must be between 1 and max_limit (%d), got %d",
			s.MaxLimit, s.DefaultLimit))
	}

	return errs
}

// validateServer deliberately accepts unknown transports: serve logs a
// warning and falls back to stdio.
func validateServer(s *ServerConfig) []error {
	var errs []error

	if s.HTTPPort < minPort || s.HTTPPort > maxPort {
		errs = append(errs, fmt.Errorf("server.http_port: must be between %d and %d, got %d",
			minPort, maxPort, s.HTTPPort))
	}

	if !strings.HasPrefix(s.MountPath, "/") {
		errs = append(errs, fmt.Errorf("server.mount_path: must start with /, got %q", s.MountPath))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"auto":    true,
	"text":    true,
	"console": true,
	"json":    true,
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[strings.ToLower(l.LogLevel)] {
		errs = append(errs, fmt.Errorf("logging.log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	if !validLogFormats[strings.ToLower(l.LogFormat)] {
		errs = append(errs, fmt.Errorf("logging.log_format: must be one of auto, text, console, json; got %q", l.LogFormat))
	}

	return errs
}

func validateNetwork(n *NetworkConfig) []error {
	d, err := time.ParseDuration(n.Timeout)
	if err != nil {
		return []error{fmt.Errorf("network.timeout: invalid duration %q: %w", n.Timeout, err)}
	}

	if d < minNetworkTimeout {
		return []error{fmt.Errorf("network.timeout: must be >= %s, got %s", minNetworkTimeout, d)}
	}

	return nil
}

func validateContent(c *ContentConfig) []error {
	var errs []error

	if c.CacheEntries < 0 {
		errs = append(errs, fmt.Errorf("content.cache_entries: must be >= 0, got %d", c.CacheEntries))
	}

	if _, err := ParseSize(c.MaxInlineSize); err != nil {
		errs = append(errs, fmt.Errorf("content.max_inline_size: %w", err))
	}

	return errs
}

func validateDurationNonNeg(field, value string) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, value, err)}
	}

	if d < 0 {
		return []error{fmt.Errorf("%s: must be >= 0, got %s", field, d)}
	}

	return nil
}
