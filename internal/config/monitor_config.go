package config

// MonitorConfig controls host usage sampling against the content node limits of one cluster
type MonitorConfig struct {
	Enabled           bool   `json:"enabled" yaml:"enabled"`
	ClusterID         string `json:"cluster_id,omitempty" yaml:"cluster_id,omitempty" validate:"required_if=Enabled true,clusterid"`
	DataDir           string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" validate:"required_if=Enabled true"`
	CheckIntervalSecs int    `json:"check_interval_secs,omitempty" yaml:"check_interval_secs,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:           false,
		DataDir:           DefaultMonitorDataDir,
		CheckIntervalSecs: DefaultMonitorCheckIntervalSecs,
	}
}
