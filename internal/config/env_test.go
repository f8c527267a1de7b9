package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEnvOverrides(t *testing.T) {
	t.Setenv(EnvClientID, " app-id ")
	t.Setenv(EnvClientSecret, "s3cret")
	t.Setenv(EnvSiteURL, "https://contoso.sharepoint.com/sites/x")
	t.Setenv(EnvTransport, "HTTP")
	t.Setenv(EnvLevelDelay, "1.5")

	env := ReadEnvOverrides()

	assert.Equal(t, "app-id", env.ClientID)
	assert.Equal(t, "s3cret", env.ClientSecret)
	assert.Equal(t, "https://contoso.sharepoint.com/sites/x", env.SiteURL)
	assert.Equal(t, "HTTP", env.Transport)
	assert.Equal(t, "1.5", env.LevelDelay)
}

func TestApplyEnv_CopiesNonEmptyValues(t *testing.T) {
	cfg := DefaultConfig()

	err := ApplyEnv(cfg, EnvOverrides{
		ClientID:         "app",
		TenantID:         "tenant",
		MaxDepth:         "7",
		MaxItemsPerLevel: "25",
		LevelDelay:       "0.25",
		Transport:        "HTTP",
		LogLevel:         "DEBUG",
		MountPath:        "/tools",
	})
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.SharePoint.ClientID)
	assert.Equal(t, "tenant", cfg.SharePoint.TenantID)
	assert.Equal(t, 7, cfg.Crawl.MaxDepth)
	assert.Equal(t, 25, cfg.Crawl.MaxItemsPerLevel)
	assert.Equal(t, "250ms", cfg.Crawl.LevelDelay)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "/tools", cfg.Server.MountPath)

	// Untouched settings keep their defaults.
	assert.Equal(t, "Shared Documents/mcp_server", cfg.SharePoint.DocLibrary)
	assert.Equal(t, 8000, cfg.Server.HTTPPort)
}

func TestApplyEnv_CollectsAllParseErrors(t *testing.T) {
	cfg := DefaultConfig()

	err := ApplyEnv(cfg, EnvOverrides{
		MaxDepth:   "x",
		HTTPPort:   "eighty",
		LevelDelay: "-1",
	})
	require.Error(t, err)

	assert.Contains(t, err.Error(), EnvMaxDepth)
	assert.Contains(t, err.Error(), EnvHTTPPort)
	assert.Contains(t, err.Error(), EnvLevelDelay)
	assert.Equal(t, 15, cfg.Crawl.MaxDepth)
}
