package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aleister1102/clusterlimits/internal/common"
	"github.com/aleister1102/clusterlimits/internal/config"
	"github.com/aleister1102/clusterlimits/internal/datastore"
	"github.com/aleister1102/clusterlimits/internal/differ"
	"github.com/aleister1102/clusterlimits/internal/limits"
	"github.com/rs/zerolog"
)

// ClusterResult is the outcome of one workflow run for a single content cluster
type ClusterResult struct {
	config.ResolvedCluster
	Diff     *differ.LimitsDiff
	Recorded bool
}

// LimitsOrchestrator derives the limits of every content cluster in a configuration,
// reports what changed since the previous run and optionally records the result.
type LimitsOrchestrator struct {
	logger  zerolog.Logger
	differ  *differ.LimitsDiffer
	history *datastore.HistoryStore
	now     func() time.Time

	mu       sync.Mutex
	previous map[string]limits.ClusterResourceLimits
}

// NewLimitsOrchestrator creates an orchestrator. history may be nil to skip recording.
func NewLimitsOrchestrator(logger zerolog.Logger, history *datastore.HistoryStore) *LimitsOrchestrator {
	return &LimitsOrchestrator{
		logger:   logger.With().Str("component", "LimitsOrchestrator").Logger(),
		differ:   differ.NewLimitsDiffer(),
		history:  history,
		now:      time.Now,
		previous: make(map[string]limits.ClusterResourceLimits),
	}
}

// ExecuteWorkflow derives all clusters of cfg. source names where cfg came from and is kept
// with recorded history. Nothing is diffed or recorded unless every cluster derives cleanly.
func (lo *LimitsOrchestrator) ExecuteWorkflow(ctx context.Context, cfg *config.GlobalConfig, source string) ([]ClusterResult, error) {
	adapter, err := config.NewLimitsAdapter(cfg, lo.logger)
	if err != nil {
		return nil, err
	}

	resolved, err := adapter.ResolveAll(cfg.ContentClusters)
	if err != nil {
		return nil, err
	}

	lo.mu.Lock()
	defer lo.mu.Unlock()

	results := make([]ClusterResult, 0, len(resolved))
	current := make(map[string]limits.ClusterResourceLimits, len(resolved))
	for _, cluster := range resolved {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		previous, err := lo.previousLimits(ctx, cluster.ID)
		if err != nil {
			return nil, err
		}

		result := ClusterResult{
			ResolvedCluster: cluster,
			Diff:            lo.differ.Diff(previous, cluster.Limits),
		}
		if !result.Diff.IsIdentical() {
			lo.logger.Info().
				Str("cluster", cluster.ID).
				Int("lines_added", result.Diff.Stats.LinesAdded).
				Int("lines_deleted", result.Diff.Stats.LinesDeleted).
				Msg("Resource limits changed:\n" + result.Diff.Text())
		}

		if lo.history != nil {
			recorded, err := lo.history.Record(ctx, cluster.ID, source, cluster.Limits, lo.now())
			if err != nil {
				return nil, common.WrapErrorf(err, "failed to record limits for cluster '%s'", cluster.ID)
			}
			result.Recorded = recorded
		}

		current[cluster.ID] = cluster.Limits
		results = append(results, result)
	}

	lo.previous = current
	return results, nil
}

// previousLimits returns the limits from the last run, falling back to recorded history on
// the first run. A cluster never seen before yields the zero value.
func (lo *LimitsOrchestrator) previousLimits(ctx context.Context, clusterID string) (limits.ClusterResourceLimits, error) {
	if previous, ok := lo.previous[clusterID]; ok {
		return previous, nil
	}
	if lo.history == nil {
		return limits.ClusterResourceLimits{}, nil
	}

	entry, err := lo.history.Latest(ctx, clusterID)
	if errors.Is(err, common.ErrNotFound) {
		return limits.ClusterResourceLimits{}, nil
	}
	if err != nil {
		return limits.ClusterResourceLimits{}, err
	}
	return entry.Limits, nil
}
