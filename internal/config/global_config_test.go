package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/clusterlimits/internal/limits"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	assert.NotNil(t, cfg)
	assert.False(t, cfg.Hosted)
	assert.Empty(t, cfg.ContentClusters)
	assert.Equal(t, limits.NewDefaultDefaults(), cfg.FeatureFlags.Defaults())
	assert.Equal(t, DefaultLogLevel, cfg.LogConfig.LogLevel)
	assert.Equal(t, DefaultMonitorCheckIntervalSecs, cfg.MonitorConfig.CheckIntervalSecs)
	assert.Empty(t, cfg.StorageConfig.HistoryDBPath)
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadGlobalConfig("/nonexistent/config.json", zerolog.Nop())

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadGlobalConfig_YAMLFile(t *testing.T) {
	configFile := writeConfig(t, "config.yaml", `
hosted: false
feature_flags:
  resource_limit_disk: 0.85
content_clusters:
  - id: music
    tuning:
      resource_limits:
        disk: 0.4
        memory: 0.7
    engine:
      proton:
        resource_limits:
          address_space: 0.93
  - id: books
log_config:
  log_level: debug
`)

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, 0.85, cfg.FeatureFlags.ResourceLimitDisk)
	assert.Equal(t, limits.DefaultMemoryLimit, cfg.FeatureFlags.ResourceLimitMemory, "unset flags keep their defaults")
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	require.Len(t, cfg.ContentClusters, 2)

	music := cfg.ContentClusters[0]
	assert.Equal(t, "music", music.ID)
	require.NotNil(t, music.Tuning.ResourceLimits)
	require.NotNil(t, music.Tuning.ResourceLimits.Disk)
	assert.Equal(t, 0.4, *music.Tuning.ResourceLimits.Disk)
	assert.Nil(t, music.Tuning.ResourceLimits.AddressSpace)
	require.NotNil(t, music.Engine.Proton.ResourceLimits)
	assert.Equal(t, 0.93, *music.Engine.Proton.ResourceLimits.AddressSpace)

	books := cfg.ContentClusters[1]
	assert.Nil(t, books.Tuning.ResourceLimits)
	assert.Nil(t, books.Engine.Proton.ResourceLimits)
}

func TestLoadGlobalConfig_JSONFile(t *testing.T) {
	configFile := writeConfig(t, "config.json", `{
		"hosted": true,
		"content_clusters": [
			{"id": "music", "tuning": {"resource_limits": {"memory": 0.92}}}
		]
	}`)

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.True(t, cfg.Hosted)
	require.Len(t, cfg.ContentClusters, 1)
	assert.Equal(t, 0.92, *cfg.ContentClusters[0].Tuning.ResourceLimits.Memory)
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	configFile := writeConfig(t, "config.yml", "content_clusters: [unterminated\n")

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config content")
}

func TestGetConfigPath_EnvironmentVariable(t *testing.T) {
	configFile := writeConfig(t, "from-env.yaml", "hosted: true\n")
	t.Setenv(ConfigPathEnv, configFile)

	assert.Equal(t, configFile, GetConfigPath(""))
}

func TestGetConfigPath_FlagWins(t *testing.T) {
	fromFlag := writeConfig(t, "flag.yaml", "hosted: true\n")
	t.Setenv(ConfigPathEnv, writeConfig(t, "env.yaml", "hosted: false\n"))

	assert.Equal(t, fromFlag, GetConfigPath(fromFlag))
}

func TestGlobalConfig_CloneIsDeep(t *testing.T) {
	disk := 0.4
	cfg := NewDefaultGlobalConfig()
	cfg.ContentClusters = []ContentClusterConfig{
		{ID: "music", Tuning: TuningConfig{ResourceLimits: &ResourceLimitsConfig{Disk: &disk}}},
	}

	clone := cfg.Clone()
	*clone.ContentClusters[0].Tuning.ResourceLimits.Disk = 0.9
	clone.ContentClusters[0].ID = "books"

	assert.Equal(t, 0.4, *cfg.ContentClusters[0].Tuning.ResourceLimits.Disk)
	assert.Equal(t, "music", cfg.ContentClusters[0].ID)
}

func TestGlobalConfig_FindCluster(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.ContentClusters = []ContentClusterConfig{{ID: "music"}, {ID: "books"}}

	cluster, ok := cfg.FindCluster("books")
	assert.True(t, ok)
	assert.Equal(t, "books", cluster.ID)

	_, ok = cfg.FindCluster("movies")
	assert.False(t, ok)
}
