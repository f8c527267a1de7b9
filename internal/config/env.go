package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names. The SHP_* names are shared with other
// SharePoint tool servers so existing .env files keep working.
const (
	EnvConfig           = "SHAREPOINT_GO_CONFIG"
	EnvClientID         = "SHP_ID_APP"
	EnvClientSecret     = "SHP_ID_APP_SECRET"
	EnvSiteURL          = "SHP_SITE_URL"
	EnvTenantID         = "SHP_TENANT_ID"
	EnvDocLibrary       = "SHP_DOC_LIBRARY"
	EnvMaxDepth         = "SHP_MAX_DEPTH"
	EnvMaxItemsPerLevel = "SHP_MAX_FOLDERS_PER_LEVEL"
	EnvLevelDelay       = "SHP_LEVEL_DELAY"
	EnvTransport        = "TRANSPORT"
	EnvHTTPHost         = "HTTP_HOST"
	EnvHTTPPort         = "HTTP_PORT"
	EnvMountPath        = "MCP_MOUNT_PATH"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
)

// EnvOverrides holds raw values read from the environment. Empty means
// "not set". Numeric values stay strings until ApplyEnv so a malformed
// value is reported as a config error rather than silently ignored.
type EnvOverrides struct {
	ConfigPath       string
	ClientID         string
	ClientSecret     string
	SiteURL          string
	TenantID         string
	DocLibrary       string
	MaxDepth         string
	MaxItemsPerLevel string
	LevelDelay       string // seconds, may be fractional ("0.5")
	Transport        string
	HTTPHost         string
	HTTPPort         string
	MountPath        string
	LogLevel         string
	LogFormat        string
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
func ReadEnvOverrides() EnvOverrides {
	get := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	return EnvOverrides{
		ConfigPath:       get(EnvConfig),
		ClientID:         get(EnvClientID),
		ClientSecret:     get(EnvClientSecret),
		SiteURL:          get(EnvSiteURL),
		TenantID:         get(EnvTenantID),
		DocLibrary:       get(EnvDocLibrary),
		MaxDepth:         get(EnvMaxDepth),
		MaxItemsPerLevel: get(EnvMaxItemsPerLevel),
		LevelDelay:       get(EnvLevelDelay),
		Transport:        get(EnvTransport),
		HTTPHost:         get(EnvHTTPHost),
		HTTPPort:         get(EnvHTTPPort),
		MountPath:        get(EnvMountPath),
		LogLevel:         get(EnvLogLevel),
		LogFormat:        get(EnvLogFormat),
	}
}

// ApplyEnv copies every non-empty override onto cfg. All parse failures
// are collected and returned together.
func ApplyEnv(cfg *Config, env EnvOverrides) error {
	var errs []error

	setString(&cfg.SharePoint.ClientID, env.ClientID)
	setString(&cfg.SharePoint.ClientSecret, env.ClientSecret)
	setString(&cfg.SharePoint.SiteURL, env.SiteURL)
	setString(&cfg.SharePoint.TenantID, env.TenantID)
	setString(&cfg.SharePoint.DocLibrary, env.DocLibrary)
	setString(&cfg.Server.HTTPHost, env.HTTPHost)
	setString(&cfg.Server.MountPath, env.MountPath)

	if env.Transport != "" {
		cfg.Server.Transport = strings.ToLower(env.Transport)
	}

	if env.LogLevel != "" {
		cfg.Logging.LogLevel = strings.ToLower(env.LogLevel)
	}

	if env.LogFormat != "" {
		cfg.Logging.LogFormat = strings.ToLower(env.LogFormat)
	}

	errs = append(errs, setInt(&cfg.Crawl.MaxDepth, env.MaxDepth, EnvMaxDepth))
	errs = append(errs, setInt(&cfg.Crawl.MaxItemsPerLevel, env.MaxItemsPerLevel, EnvMaxItemsPerLevel))
	errs = append(errs, setInt(&cfg.Server.HTTPPort, env.HTTPPort, EnvHTTPPort))

	if env.LevelDelay != "" {
		seconds, err := strconv.ParseFloat(env.LevelDelay, 64)
		if err != nil || seconds < 0 {
			errs = append(errs, fmt.Errorf("%s: expected non-negative seconds, got %q", EnvLevelDelay, env.LevelDelay))
		} else {
			cfg.Crawl.LevelDelay = time.Duration(seconds * float64(time.Second)).String()
		}
	}

	return errors.Join(errs...)
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setInt(dst *int, value, name string) error {
	if value == "" {
		return nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: expected integer, got %q", name, value)
	}

	*dst = n

	return nil
}
