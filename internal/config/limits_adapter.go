package config

import (
	"github.com/aleister1102/clusterlimits/internal/common"
	"github.com/aleister1102/clusterlimits/internal/limits"
	"github.com/rs/zerolog"
)

const resourceLimitsElement = "resource-limits"

// ResolvedCluster pairs a content cluster id with its derived limits
type ResolvedCluster struct {
	ID     string
	Limits limits.ClusterResourceLimits
}

// LimitsAdapter turns content cluster configuration into limit builders and derives the
// final limits. Policy checks that depend on the deployment mode live here, not in the deriver.
type LimitsAdapter struct {
	hosted  bool
	deriver *limits.Deriver
	logger  zerolog.Logger
}

// NewLimitsAdapter creates an adapter for cfg. Invalid feature flag defaults fail here,
// before any cluster is looked at.
func NewLimitsAdapter(cfg *GlobalConfig, logger zerolog.Logger) (*LimitsAdapter, error) {
	deriver, err := limits.NewDeriver(cfg.FeatureFlags.Defaults())
	if err != nil {
		return nil, common.WrapError(err, "invalid feature flag resource limits")
	}

	return &LimitsAdapter{
		hosted:  cfg.Hosted,
		deriver: deriver,
		logger:  logger.With().Str("component", "LimitsAdapter").Logger(),
	}, nil
}

// Builders returns the cluster controller and content node builders for cluster.
func (a *LimitsAdapter) Builders(cluster ContentClusterConfig) (*limits.Builder, *limits.Builder, error) {
	ctrlBuilder, err := a.createBuilder(cluster.Tuning.ResourceLimits, "tuning")
	if err != nil {
		return nil, nil, common.WrapErrorf(err, "content cluster '%s'", cluster.ID)
	}

	nodeBuilder, err := a.createBuilder(cluster.Engine.Proton.ResourceLimits, "engine.proton")
	if err != nil {
		return nil, nil, common.WrapErrorf(err, "content cluster '%s'", cluster.ID)
	}

	_, nodeDisk := nodeBuilder.DiskLimit()
	_, nodeMemory := nodeBuilder.MemoryLimit()
	if nodeDisk || nodeMemory {
		a.logger.Warn().
			Str("cluster", cluster.ID).
			Msg("Setting proton resource limits in engine.proton should not be done directly. " +
				"Set limits for the cluster in tuning.resource_limits instead.")
	}

	return ctrlBuilder, nodeBuilder, nil
}

// Resolve derives the limits for one content cluster
func (a *LimitsAdapter) Resolve(cluster ContentClusterConfig) (limits.ClusterResourceLimits, error) {
	ctrlBuilder, nodeBuilder, err := a.Builders(cluster)
	if err != nil {
		return limits.ClusterResourceLimits{}, err
	}

	result, err := a.deriver.Derive(ctrlBuilder, nodeBuilder)
	if err != nil {
		return limits.ClusterResourceLimits{}, common.WrapErrorf(err, "content cluster '%s'", cluster.ID)
	}

	a.logger.Debug().Str("cluster", cluster.ID).Msg("Resource limits derived")
	return result, nil
}

// ResolveAll derives limits for every cluster in configuration order. The first failure aborts.
func (a *LimitsAdapter) ResolveAll(clusters []ContentClusterConfig) ([]ResolvedCluster, error) {
	resolved := make([]ResolvedCluster, 0, len(clusters))
	for _, cluster := range clusters {
		result, err := a.Resolve(cluster)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, ResolvedCluster{ID: cluster.ID, Limits: result})
	}
	return resolved, nil
}

func (a *LimitsAdapter) createBuilder(element *ResourceLimitsConfig, section string) (*limits.Builder, error) {
	builder := limits.NewBuilder()
	if element == nil {
		return builder, nil
	}
	if a.hosted {
		return nil, &common.ConfigurationError{
			Section: section,
			Reason:  "Element '" + resourceLimitsElement + "' is not allowed to be set",
			Wrapped: common.ErrNotAllowed,
		}
	}

	if element.Disk != nil {
		builder.SetDiskLimit(*element.Disk)
	}
	if element.Memory != nil {
		builder.SetMemoryLimit(*element.Memory)
	}
	if element.AddressSpace != nil {
		builder.SetAddressSpaceLimit(*element.AddressSpace)
	}
	return builder, nil
}
