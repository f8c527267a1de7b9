package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"depth zero", func(c *Config) { c.Crawl.MaxDepth = 0 }, "crawl.max_depth"},
		{"depth too large", func(c *Config) { c.Crawl.MaxDepth = 51 }, "crawl.max_depth"},
		{"items zero", func(c *Config) { c.Crawl.MaxItemsPerLevel = 0 }, "crawl.max_items_per_level"},
		{"negative level delay", func(c *Config) { c.Crawl.LevelDelay = "-1s" }, "crawl.level_delay"},
		{"bad batch delay", func(c *Config) { c.Crawl.BatchDelay = "soon" }, "crawl.batch_delay"},
		{"retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"retry multiplier", func(c *Config) { c.Retry.Multiplier = 0.5 }, "retry.multiplier"},
		{"max below base", func(c *Config) { c.Retry.MaxDelay = "1s" }, "retry.max_delay"},
		{"search default over max", func(c *Config) { c.Search.DefaultLimit = 500 }, "search.default_limit"},
		{"port", func(c *Config) { c.Server.HTTPPort = 70000 }, "server.http_port"},
		{"mount path", func(c *Config) { c.Server.MountPath = "mcp" }, "server.mount_path"},
		{"log level", func(c *Config) { c.Logging.LogLevel = "verbose" }, "logging.log_level"},
		{"log format", func(c *Config) { c.Logging.LogFormat = "xml" }, "logging.log_format"},
		{"timeout", func(c *Config) { c.Network.Timeout = "10ms" }, "network.timeout"},
		{"cache entries", func(c *Config) { c.Content.CacheEntries = -1 }, "content.cache_entries"},
		{"inline size", func(c *Config) { c.Content.MaxInlineSize = "big" }, "content.max_inline_size"},
		{"empty library", func(c *Config) { c.SharePoint.DocLibrary = " / " }, "sharepoint.doc_library"},
		{"plain http site", func(c *Config) { c.SharePoint.SiteURL = "http://x" }, "sharepoint.site_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crawl.MaxDepth = 0
	cfg.Server.HTTPPort = 0
	cfg.Logging.LogLevel = "loud"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crawl.max_depth")
	assert.Contains(t, err.Error(), "server.http_port")
	assert.Contains(t, err.Error(), "logging.log_level")
}

func TestValidate_UnknownTransportAccepted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Transport = "carrier-pigeon"

	assert.NoError(t, Validate(cfg))
}

func TestValidate_ZeroDelaysAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crawl.LevelDelay = "0s"
	cfg.Crawl.BatchDelay = "0"

	assert.NoError(t, Validate(cfg))
}
