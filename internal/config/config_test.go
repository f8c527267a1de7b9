package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_AllFieldsPopulated(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "Shared Documents/mcp_server", cfg.SharePoint.DocLibrary)
	assert.Empty(t, cfg.SharePoint.ClientID)

	assert.Equal(t, 15, cfg.Crawl.MaxDepth)
	assert.Equal(t, 100, cfg.Crawl.MaxItemsPerLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.Crawl.LevelDelayDuration())
	assert.Equal(t, 100*time.Millisecond, cfg.Crawl.BatchDelayDuration())

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelayDuration())
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelayDuration())
	assert.InDelta(t, 2.0, cfg.Retry.Multiplier, 0.001)

	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "/mcp", cfg.Server.MountPath)

	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.Equal(t, "auto", cfg.Logging.LogFormat)
	assert.Equal(t, 60*time.Second, cfg.Network.TimeoutDuration())

	assert.Equal(t, int64(50<<20), cfg.Content.MaxInlineBytes())
	assert.True(t, cfg.Journal.Enabled)
}

func TestDefaultConfig_PassesValidation(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}

func TestRequireCredentials_ListsEveryMissingSetting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SharePoint.ClientID = "app"

	err := cfg.RequireCredentials()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)

	var missing *MissingSettingsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{EnvClientSecret, EnvSiteURL, EnvTenantID}, missing.Missing)
	assert.Contains(t, err.Error(), "SHP_ID_APP_SECRET")
}

func TestRequireCredentials_AllPresent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SharePoint = SharePointConfig{
		SiteURL:      "https://contoso.sharepoint.com/sites/docs",
		TenantID:     "tenant",
		ClientID:     "app",
		ClientSecret: "secret",
		DocLibrary:   "Shared Documents",
	}

	assert.NoError(t, cfg.RequireCredentials())
}

func TestDurationAccessors_FallBackOnZeroConfig(t *testing.T) {
	var c CrawlConfig
	assert.Equal(t, 500*time.Millisecond, c.LevelDelayDuration())

	r := RetryConfig{BaseDelay: "garbage"}
	assert.Equal(t, 2*time.Second, r.BaseDelayDuration())
}

func TestMaxInlineBytes_InvalidIsUnlimited(t *testing.T) {
	c := ContentConfig{MaxInlineSize: "lots"}
	assert.Equal(t, int64(0), c.MaxInlineBytes())
}
