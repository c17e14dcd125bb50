package config

import (
	"encoding/json"
	"path/filepath"

	"github.com/aleister1102/clusterlimits/internal/common"
	"github.com/aleister1102/clusterlimits/internal/limits"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	Hosted          bool                   `json:"hosted" yaml:"hosted"`
	FeatureFlags    FeatureFlagsConfig     `json:"feature_flags,omitempty" yaml:"feature_flags,omitempty"`
	ContentClusters []ContentClusterConfig `json:"content_clusters,omitempty" yaml:"content_clusters,omitempty" validate:"unique=ID,dive"`
	LogConfig       LogConfig              `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	MonitorConfig   MonitorConfig          `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	StorageConfig   StorageConfig          `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
}

// FeatureFlagsConfig carries the system-wide resource limit defaults
type FeatureFlagsConfig struct {
	ResourceLimitDisk                   float64 `json:"resource_limit_disk" yaml:"resource_limit_disk" validate:"fraction"`
	ResourceLimitMemory                 float64 `json:"resource_limit_memory" yaml:"resource_limit_memory" validate:"fraction"`
	ResourceLimitAddressSpace           float64 `json:"resource_limit_address_space" yaml:"resource_limit_address_space" validate:"fraction"`
	ResourceLimitLowWatermarkDifference float64 `json:"resource_limit_low_watermark_difference" yaml:"resource_limit_low_watermark_difference" validate:"fraction"`
}

// ContentClusterConfig is the resource limit relevant part of one content cluster
type ContentClusterConfig struct {
	ID     string       `json:"id" yaml:"id" validate:"required,clusterid"`
	Tuning TuningConfig `json:"tuning,omitempty" yaml:"tuning,omitempty"`
	Engine EngineConfig `json:"engine,omitempty" yaml:"engine,omitempty"`
}

// TuningConfig holds cluster level tuning; its resource limits apply to the cluster controller
type TuningConfig struct {
	ResourceLimits *ResourceLimitsConfig `json:"resource_limits,omitempty" yaml:"resource_limits,omitempty"`
}

// EngineConfig holds content node engine settings
type EngineConfig struct {
	Proton ProtonConfig `json:"proton,omitempty" yaml:"proton,omitempty"`
}

// ProtonConfig holds settings for the content node process; its resource limits apply to each node
type ProtonConfig struct {
	ResourceLimits *ResourceLimitsConfig `json:"resource_limits,omitempty" yaml:"resource_limits,omitempty"`
}

// ResourceLimitsConfig is a resource-limits element. Omitted fields stay unset.
type ResourceLimitsConfig struct {
	Disk         *float64 `json:"disk,omitempty" yaml:"disk,omitempty" validate:"omitempty,fraction"`
	Memory       *float64 `json:"memory,omitempty" yaml:"memory,omitempty" validate:"omitempty,fraction"`
	AddressSpace *float64 `json:"address_space,omitempty" yaml:"address_space,omitempty" validate:"omitempty,fraction"`
}

// NewDefaultFeatureFlagsConfig returns the built-in limit defaults
func NewDefaultFeatureFlagsConfig() FeatureFlagsConfig {
	defaults := limits.NewDefaultDefaults()
	return FeatureFlagsConfig{
		ResourceLimitDisk:                   defaults.Disk,
		ResourceLimitMemory:                 defaults.Memory,
		ResourceLimitAddressSpace:           defaults.AddressSpace,
		ResourceLimitLowWatermarkDifference: defaults.LowWatermarkDifference,
	}
}

// Defaults converts the feature flags to deriver input
func (f FeatureFlagsConfig) Defaults() limits.Defaults {
	return limits.Defaults{
		Disk:                   f.ResourceLimitDisk,
		Memory:                 f.ResourceLimitMemory,
		AddressSpace:           f.ResourceLimitAddressSpace,
		LowWatermarkDifference: f.ResourceLimitLowWatermarkDifference,
	}
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Hosted:        false,
		FeatureFlags:  NewDefaultFeatureFlagsConfig(),
		LogConfig:     NewDefaultLogConfig(),
		MonitorConfig: NewDefaultMonitorConfig(),
		StorageConfig: NewDefaultStorageConfig(),
	}
}

// FindCluster returns the content cluster with the given id
func (c *GlobalConfig) FindCluster(id string) (ContentClusterConfig, bool) {
	for _, cluster := range c.ContentClusters {
		if cluster.ID == id {
			return cluster, true
		}
	}
	return ContentClusterConfig{}, false
}

// Clone returns a deep copy of the configuration
func (c *GlobalConfig) Clone() *GlobalConfig {
	if c == nil {
		return NewDefaultGlobalConfig()
	}

	dst := *c
	dst.ContentClusters = make([]ContentClusterConfig, len(c.ContentClusters))
	for i, cluster := range c.ContentClusters {
		cluster.Tuning.ResourceLimits = cluster.Tuning.ResourceLimits.clone()
		cluster.Engine.Proton.ResourceLimits = cluster.Engine.Proton.ResourceLimits.clone()
		dst.ContentClusters[i] = cluster
	}
	return &dst
}

func (r *ResourceLimitsConfig) clone() *ResourceLimitsConfig {
	if r == nil {
		return nil
	}
	return &ResourceLimitsConfig{
		Disk:         cloneFloat(r.Disk),
		Memory:       cloneFloat(r.Memory),
		AddressSpace: cloneFloat(r.AddressSpace),
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath, supports both JSON and YAML formats.
// YAML is preferred if the file extension is .yaml or .yml.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	if providedPath != "" && !fileExists(providedPath) {
		return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
	}

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		logger.Debug().Msg("No configuration file found, using defaults")
		return cfg, nil
	}

	fileManager := common.NewFileManager(logger)
	data, err := fileManager.ReadFile(filePath, MaxConfigFileSize)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	logger.Debug().Str("path", filePath).Int("content_clusters", len(cfg.ContentClusters)).Msg("Configuration file parsed")
	return cfg, nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

// parseYAMLConfig parses YAML configuration
func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

// parseJSONConfig parses JSON configuration
func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
