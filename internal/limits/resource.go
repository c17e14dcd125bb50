// Package limits computes the feed block resource limits for a content cluster.
//
// Two consumers enforce the limits: the cluster controller, which blocks feed for the whole
// cluster, and every content node, which refuses writes locally. The content node limit for a
// resource is always derived to sit above the cluster controller limit so the controller
// reacts first.
package limits

// Resource identifies one limit dimension.
type Resource int

const (
	Disk Resource = iota
	Memory
	AddressSpace
	LowWatermarkDifference

	numResources = 4
)

// primaryResources are the dimensions derived per side, in processing order.
var primaryResources = [...]Resource{Disk, Memory, AddressSpace}

// String returns the human readable name used in error messages
func (r Resource) String() string {
	switch r {
	case Disk:
		return "disk"
	case Memory:
		return "memory"
	case AddressSpace:
		return "address space"
	case LowWatermarkDifference:
		return "low watermark difference"
	default:
		return "unknown"
	}
}

// Resources returns every dimension in a stable order.
func Resources() []Resource {
	return []Resource{Disk, Memory, AddressSpace, LowWatermarkDifference}
}

func (r Resource) valid() bool {
	return r >= 0 && r < numResources
}
