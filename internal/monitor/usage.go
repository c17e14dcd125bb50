package monitor

import "github.com/aleister1102/clusterlimits/internal/limits"

// ResourceUsageWithLimit is a resource's current usage next to its limit. Both are fractions
// in [0, 1].
type ResourceUsageWithLimit struct {
	Usage float64 `json:"usage" yaml:"usage"`
	Limit float64 `json:"limit" yaml:"limit"`
}

// Utilization is how much of the allowed part of the resource is used
func (u ResourceUsageWithLimit) Utilization() float64 {
	return u.Usage / u.Limit
}

// AboveLimit reports whether usage exceeds the limit scaled by lowWatermarkFactor.
// A factor of 1.0 compares against the limit itself.
func (u ResourceUsageWithLimit) AboveLimit(lowWatermarkFactor float64) bool {
	return u.Usage > u.Limit*lowWatermarkFactor
}

// Sample is one observation of resource usage. Resources that could not be observed are absent.
type Sample map[limits.Resource]float64
