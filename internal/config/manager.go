package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadListener is called with a private copy of every successfully reloaded configuration
type ReloadListener func(cfg *GlobalConfig)

// ConfigManager provides centralized configuration management with caching and hot-reload capabilities
type ConfigManager struct {
	mu           sync.RWMutex
	config       *GlobalConfig
	configPath   string
	logger       zerolog.Logger
	watcher      *fsnotify.Watcher
	stopChan     chan struct{}
	stopOnce     sync.Once
	lastModified time.Time
	listeners    []ReloadListener

	validationEnabled bool
	overrides         func(cfg *GlobalConfig)

	// Hot-reload settings
	hotReloadEnabled bool
	reloadDelay      time.Duration
}

// ConfigManagerOptions holds options for creating a ConfigManager
type ConfigManagerOptions struct {
	Logger            zerolog.Logger
	ValidationEnabled bool
	HotReloadEnabled  bool
	ReloadDelay       time.Duration
	// Overrides is applied to every loaded configuration before validation, e.g. for flags
	Overrides func(cfg *GlobalConfig)
}

// DefaultConfigManagerOptions returns default options for ConfigManager
func DefaultConfigManagerOptions() ConfigManagerOptions {
	return ConfigManagerOptions{
		Logger:            zerolog.Nop(),
		ValidationEnabled: true,
		HotReloadEnabled:  false,
		ReloadDelay:       time.Second * 2, // 2 second delay to avoid rapid reloads
	}
}

// NewConfigManager creates a new centralized configuration manager
func NewConfigManager(configPath string, opts ConfigManagerOptions) (*ConfigManager, error) {
	cm := &ConfigManager{
		configPath:        configPath,
		logger:            opts.Logger.With().Str("component", "ConfigManager").Logger(),
		stopChan:          make(chan struct{}),
		validationEnabled: opts.ValidationEnabled,
		overrides:         opts.Overrides,
		hotReloadEnabled:  opts.HotReloadEnabled,
		reloadDelay:       opts.ReloadDelay,
	}

	if err := cm.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}

	if cm.hotReloadEnabled && cm.configPath != "" {
		if err := cm.setupFileWatcher(); err != nil {
			cm.logger.Warn().Err(err).Msg("Failed to setup file watcher, hot-reload disabled")
			cm.hotReloadEnabled = false
		}
	} else {
		cm.hotReloadEnabled = false
	}

	return cm, nil
}

// GetConfig returns a copy of the current configuration (thread-safe)
func (cm *ConfigManager) GetConfig() *GlobalConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Clone()
}

// OnReload registers a listener for successful reloads
func (cm *ConfigManager) OnReload(listener ReloadListener) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.listeners = append(cm.listeners, listener)
}

// ReloadConfig manually reloads the configuration from file. On failure the previous
// configuration stays active.
func (cm *ConfigManager) ReloadConfig() error {
	cm.mu.Lock()
	if err := cm.loadConfig(); err != nil {
		cm.mu.Unlock()
		return err
	}
	listeners := append([]ReloadListener(nil), cm.listeners...)
	cfg := cm.config
	cm.mu.Unlock()

	for _, listener := range listeners {
		listener(cfg.Clone())
	}
	return nil
}

// GetConfigPath returns the current configuration file path
func (cm *ConfigManager) GetConfigPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// IsHotReloadEnabled returns whether hot-reload is enabled
func (cm *ConfigManager) IsHotReloadEnabled() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.hotReloadEnabled
}

// Close stops the configuration manager and cleans up resources
func (cm *ConfigManager) Close() error {
	cm.stopOnce.Do(func() { close(cm.stopChan) })

	if cm.watcher != nil {
		return cm.watcher.Close()
	}
	return nil
}

// StartHotReload starts the hot-reload goroutine (non-blocking)
func (cm *ConfigManager) StartHotReload(ctx context.Context) {
	if !cm.hotReloadEnabled {
		return
	}

	go cm.hotReloadLoop(ctx)
}

// loadConfig loads configuration from file (assumes lock is held or no concurrent access)
func (cm *ConfigManager) loadConfig() error {
	if cm.configPath == "" {
		cm.configPath = GetConfigPath("")
	}
	if cm.configPath != "" {
		if abs, err := filepath.Abs(cm.configPath); err == nil {
			cm.configPath = abs
		}
	}

	cfg, err := LoadGlobalConfig(cm.configPath, cm.logger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cm.overrides != nil {
		cm.overrides(cfg)
	}

	if cm.validationEnabled {
		if err := ValidateConfig(cfg); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	if cm.configPath != "" {
		if stat, err := os.Stat(cm.configPath); err == nil {
			cm.lastModified = stat.ModTime()
		}
	}

	cm.config = cfg
	cm.logger.Info().Str("path", cm.configPath).Int("content_clusters", len(cfg.ContentClusters)).Msg("Configuration loaded successfully")

	return nil
}

// setupFileWatcher watches the directory containing the config file, which survives editors
// that replace the file on save
func (cm *ConfigManager) setupFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := watcher.Add(configDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch config directory '%s': %w", configDir, err)
	}

	cm.watcher = watcher
	cm.logger.Info().Str("directory", configDir).Msg("File watcher setup for hot-reload")

	return nil
}

// hotReloadLoop runs the hot-reload monitoring loop
func (cm *ConfigManager) hotReloadLoop(ctx context.Context) {
	if cm.watcher == nil {
		return
	}

	reloadTimer := time.NewTimer(0)
	reloadTimer.Stop()
	defer reloadTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			cm.logger.Info().Msg("Hot-reload loop stopped due to context cancellation")
			return

		case <-cm.stopChan:
			cm.logger.Info().Msg("Hot-reload loop stopped")
			return

		case event, ok := <-cm.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) == cm.GetConfigPath() && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				cm.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Config file change detected")
				reloadTimer.Reset(cm.reloadDelay)
			}

		case err, ok := <-cm.watcher.Errors:
			if !ok {
				return
			}
			cm.logger.Error().Err(err).Msg("File watcher error")

		case <-reloadTimer.C:
			if !cm.modifiedSinceLoad() {
				continue
			}
			cm.logger.Info().Msg("Reloading configuration due to file change")
			if err := cm.ReloadConfig(); err != nil {
				cm.logger.Error().Err(err).Msg("Failed to reload configuration, keeping previous configuration")
			} else {
				cm.logger.Info().Msg("Configuration reloaded successfully")
			}
		}
	}
}

func (cm *ConfigManager) modifiedSinceLoad() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stat, err := os.Stat(cm.configPath)
	if err != nil {
		return false
	}
	return stat.ModTime().After(cm.lastModified)
}
