package config

const (
	// ConfigPathEnv names the environment variable consulted when no path flag is given
	ConfigPathEnv = "CLUSTERLIMITS_CONFIG_PATH"

	// MaxConfigFileSize bounds the size of the configuration document
	MaxConfigFileSize = 10 * 1024 * 1024

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Monitor Defaults
	DefaultMonitorDataDir           = "/var/lib/clusterlimits"
	DefaultMonitorCheckIntervalSecs = 30

	// Storage Defaults
	DefaultStorageHistoryDBPath = ""
)
