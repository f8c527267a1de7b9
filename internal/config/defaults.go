package config

// Default values for configuration options. These are "layer 0" of the
// override chain; an empty config file plus credentials in the
// environment is a working setup.
const (
	defaultDocLibrary       = "Shared Documents/mcp_server"
	defaultMaxDepth         = 15
	defaultMaxItemsPerLevel = 100
	defaultLevelDelay       = "500ms"
	defaultBatchDelay       = "100ms"
	defaultRetryAttempts    = 3
	defaultRetryBaseDelay   = "2s"
	defaultRetryMaxDelay    = "30s"
	defaultRetryMultiplier  = 2.0
	defaultSearchLimit      = 25
	defaultSearchMaxLimit   = 200
	defaultTransport        = "stdio"
	defaultHTTPHost         = "0.0.0.0"
	defaultHTTPPort         = 8000
	defaultMountPath        = "/mcp"
	defaultLogLevel         = "info"
	defaultLogFormat        = "auto"
	defaultNetworkTimeout   = "60s"
	defaultCacheEntries     = 64
	defaultMaxInlineSize    = "50MiB"
)

// DefaultConfig returns a Config populated with all default values. It is
// the starting point for TOML decoding, so unset fields keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		SharePoint: SharePointConfig{DocLibrary: defaultDocLibrary},
		Crawl: CrawlConfig{
			MaxDepth:         defaultMaxDepth,
			MaxItemsPerLevel: defaultMaxItemsPerLevel,
			LevelDelay:       defaultLevelDelay,
			BatchDelay:       defaultBatchDelay,
		},
		Retry: RetryConfig{
			MaxAttempts: defaultRetryAttempts,
			BaseDelay:   defaultRetryBaseDelay,
			MaxDelay:    defaultRetryMaxDelay,
			Multiplier:  defaultRetryMultiplier,
		},
		Search: SearchConfig{
			DefaultLimit: defaultSearchLimit,
			MaxLimit:     defaultSearchMaxLimit,
		},
		Server: ServerConfig{
			Transport: defaultTransport,
			HTTPHost:  defaultHTTPHost,
			HTTPPort:  defaultHTTPPort,
			MountPath: defaultMountPath,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Network: NetworkConfig{Timeout: defaultNetworkTimeout},
		Content: ContentConfig{
			CacheEntries:  defaultCacheEntries,
			MaxInlineSize: defaultMaxInlineSize,
		},
		Journal: JournalConfig{Enabled: true},
	}
}
