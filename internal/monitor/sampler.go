package monitor

import (
	"context"

	"github.com/aleister1102/clusterlimits/internal/common"
	"github.com/aleister1102/clusterlimits/internal/limits"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Sampler observes current resource usage
type Sampler interface {
	Sample(ctx context.Context) (Sample, error)
}

// HostSampler samples disk usage of the file system holding DataDir and system memory usage.
// Address space is a per-process attribute metric and is never reported.
type HostSampler struct {
	DataDir string
}

// NewHostSampler creates a sampler for the file system holding dataDir
func NewHostSampler(dataDir string) *HostSampler {
	return &HostSampler{DataDir: dataDir}
}

// Sample returns disk and memory usage as fractions
func (hs *HostSampler) Sample(ctx context.Context) (Sample, error) {
	diskStat, err := disk.UsageWithContext(ctx, hs.DataDir)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to get disk usage for '%s'", hs.DataDir)
	}

	vmStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, common.WrapError(err, "failed to get system memory stats")
	}

	return Sample{
		limits.Disk:   diskStat.UsedPercent / 100.0,
		limits.Memory: vmStat.UsedPercent / 100.0,
	}, nil
}
