package config

// StorageConfig holds configuration for the derived limits history
type StorageConfig struct {
	HistoryDBPath string `json:"history_db_path,omitempty" yaml:"history_db_path,omitempty"`
}

// NewDefaultStorageConfig creates default storage configuration. History is off by default.
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		HistoryDBPath: DefaultStorageHistoryDBPath,
	}
}
