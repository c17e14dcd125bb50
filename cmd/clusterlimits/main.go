package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aleister1102/clusterlimits/internal/config"
	"github.com/aleister1102/clusterlimits/internal/datastore"
	"github.com/aleister1102/clusterlimits/internal/logger"
	"github.com/aleister1102/clusterlimits/internal/monitor"
	"github.com/aleister1102/clusterlimits/internal/orchestrator"
	"github.com/rs/zerolog"
)

func main() {
	flags := ParseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			fmt.Fprintf(os.Stderr, "[INFO] Received %s, shutting down\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, flags, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
}

// flagOverrides applies command line flags on top of every loaded configuration
func flagOverrides(flags AppFlags) func(cfg *config.GlobalConfig) {
	return func(cfg *config.GlobalConfig) {
		if flags.Hosted {
			cfg.Hosted = true
		}
		if flags.HistoryDBPath != "" {
			cfg.StorageConfig.HistoryDBPath = flags.HistoryDBPath
		}
		if flags.Monitor {
			cfg.MonitorConfig.Enabled = true
		}
		if flags.ClusterID != "" && cfg.MonitorConfig.Enabled {
			cfg.MonitorConfig.ClusterID = flags.ClusterID
		}
	}
}

func run(ctx context.Context, flags AppFlags, stdout io.Writer) error {
	bootstrapLogger, err := logger.New(config.NewDefaultLogConfig())
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}

	opts := config.DefaultConfigManagerOptions()
	opts.Logger = bootstrapLogger
	opts.HotReloadEnabled = flags.Watch
	opts.Overrides = flagOverrides(flags)

	cm, err := config.NewConfigManager(flags.GlobalConfigFile, opts)
	if err != nil {
		return err
	}
	defer cm.Close()

	gCfg := cm.GetConfig()
	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}
	zLogger.Info().Str("config", cm.GetConfigPath()).Bool("hosted", gCfg.Hosted).Msg("Configuration loaded")

	var history *datastore.HistoryStore
	if gCfg.StorageConfig.HistoryDBPath != "" {
		history, err = datastore.NewHistoryStore(gCfg.StorageConfig.HistoryDBPath, zLogger)
		if err != nil {
			return err
		}
		defer history.Close()
	}

	lo := orchestrator.NewLimitsOrchestrator(zLogger, history)
	results, err := lo.ExecuteWorkflow(ctx, gCfg, cm.GetConfigPath())
	if err != nil {
		return err
	}
	if err := writeLimits(stdout, flags.OutputFormat, flags.ClusterID, results); err != nil {
		return err
	}

	usageMonitor, err := startMonitor(ctx, gCfg, results, zLogger)
	if err != nil {
		return err
	}
	if usageMonitor != nil {
		defer usageMonitor.Stop()
	}

	if !flags.Watch && usageMonitor == nil {
		return nil
	}

	var outputMu sync.Mutex
	cm.OnReload(func(cfg *config.GlobalConfig) {
		results, err := lo.ExecuteWorkflow(ctx, cfg, cm.GetConfigPath())
		if err != nil {
			zLogger.Error().Err(err).Msg("Failed to derive limits from reloaded configuration, keeping previous limits")
			return
		}

		outputMu.Lock()
		if err := writeLimits(stdout, flags.OutputFormat, flags.ClusterID, results); err != nil {
			zLogger.Error().Err(err).Msg("Failed to write derived limits")
		}
		outputMu.Unlock()

		if usageMonitor != nil {
			updateMonitor(usageMonitor, cfg.MonitorConfig.ClusterID, results, zLogger)
		}
	})
	cm.StartHotReload(ctx)

	zLogger.Info().Bool("watch", cm.IsHotReloadEnabled()).Bool("monitor", usageMonitor != nil).Msg("Running until interrupted")
	<-ctx.Done()
	zLogger.Info().Msg("Application shutting down due to context cancellation.")
	return nil
}

// startMonitor starts host usage monitoring when enabled. It returns nil when monitoring is off.
func startMonitor(ctx context.Context, cfg *config.GlobalConfig, results []orchestrator.ClusterResult, zLogger zerolog.Logger) (*monitor.Monitor, error) {
	if !cfg.MonitorConfig.Enabled {
		return nil, nil
	}

	result, ok := findResult(results, cfg.MonitorConfig.ClusterID)
	if !ok {
		return nil, fmt.Errorf("monitored content cluster '%s' not found in configuration", cfg.MonitorConfig.ClusterID)
	}

	usageMonitor, err := monitor.NewMonitor(
		monitor.Config{
			ClusterID:     result.ID,
			CheckInterval: time.Duration(cfg.MonitorConfig.CheckIntervalSecs) * time.Second,
		},
		result.Limits.ContentNode(),
		monitor.NewHostSampler(cfg.MonitorConfig.DataDir),
		zLogger,
	)
	if err != nil {
		return nil, err
	}

	if _, err := usageMonitor.Check(ctx); err != nil {
		zLogger.Warn().Err(err).Msg("Initial usage sample failed")
	}
	usageMonitor.Start(ctx)
	return usageMonitor, nil
}

func updateMonitor(usageMonitor *monitor.Monitor, clusterID string, results []orchestrator.ClusterResult, zLogger zerolog.Logger) {
	result, ok := findResult(results, clusterID)
	if !ok {
		zLogger.Warn().Str("cluster", clusterID).Msg("Monitored content cluster no longer configured, keeping previous limits")
		return
	}
	if err := usageMonitor.UpdateLimits(result.Limits.ContentNode()); err != nil {
		zLogger.Error().Err(err).Msg("Failed to update monitor limits")
	}
}

func findResult(results []orchestrator.ClusterResult, clusterID string) (orchestrator.ClusterResult, bool) {
	for _, result := range results {
		if result.ID == clusterID {
			return result, true
		}
	}
	return orchestrator.ClusterResult{}, false
}
