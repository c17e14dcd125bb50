package limits

import "math"

const (
	// controllerMargin pins a derived cluster controller limit below an explicit content node limit
	controllerMargin = 0.01

	DefaultDiskLimit              = 0.75
	DefaultMemoryLimit            = 0.8
	DefaultAddressSpaceLimit      = 0.89
	DefaultLowWatermarkDifference = 0.01
)

// nodeScaleFactors is the share of the remaining headroom above the cluster controller
// limit that a derived content node limit gets.
var nodeScaleFactors = [numResources]float64{
	Disk:         0.6,
	Memory:       0.5,
	AddressSpace: 0.5,
}

// Defaults holds the system-wide limits supplied per build, usually from feature flags.
type Defaults struct {
	Disk                   float64 `json:"disk" yaml:"disk"`
	Memory                 float64 `json:"memory" yaml:"memory"`
	AddressSpace           float64 `json:"address_space" yaml:"address_space"`
	LowWatermarkDifference float64 `json:"low_watermark_difference" yaml:"low_watermark_difference"`
}

// NewDefaultDefaults returns the built-in system defaults
func NewDefaultDefaults() Defaults {
	return Defaults{
		Disk:                   DefaultDiskLimit,
		Memory:                 DefaultMemoryLimit,
		AddressSpace:           DefaultAddressSpaceLimit,
		LowWatermarkDifference: DefaultLowWatermarkDifference,
	}
}

func (d Defaults) get(r Resource) float64 {
	switch r {
	case Disk:
		return d.Disk
	case Memory:
		return d.Memory
	case AddressSpace:
		return d.AddressSpace
	default:
		return d.LowWatermarkDifference
	}
}

// Deriver turns partially specified cluster controller and content node limits into a
// complete, validated pair. It holds no state besides its defaults and is safe for
// concurrent use.
type Deriver struct {
	defaults Defaults
}

// NewDeriver validates the defaults and creates a Deriver.
func NewDeriver(defaults Defaults) (*Deriver, error) {
	for _, r := range []Resource{Disk, Memory, LowWatermarkDifference, AddressSpace} {
		if err := VerifyLimitInRange(r, defaults.get(r)); err != nil {
			return nil, err
		}
	}
	return &Deriver{defaults: defaults}, nil
}

// Defaults returns the defaults the Deriver was created with
func (d *Deriver) Defaults() Defaults {
	return d.defaults
}

// Derive fills every unset dimension of both sides and validates the result. The given
// builders are not modified; nil is treated as an empty builder.
func (d *Deriver) Derive(ctrl, node *Builder) (ClusterResourceLimits, error) {
	if err := verifySet(ctrl.Build()); err != nil {
		return ClusterResourceLimits{}, err
	}
	if err := verifySet(node.Build()); err != nil {
		return ClusterResourceLimits{}, err
	}

	ctrlBuilder := ctrl.clone()
	nodeBuilder := node.clone()

	for _, r := range primaryResources {
		d.considerSettingDefaultClusterControllerLimit(r, ctrlBuilder, nodeBuilder)
	}
	for _, r := range primaryResources {
		deriveClusterControllerLimit(r, ctrlBuilder, nodeBuilder)
	}
	for _, r := range primaryResources {
		deriveContentNodeLimit(r, ctrlBuilder, nodeBuilder)
	}

	ctrlBuilder.SetLowWatermarkDifference(d.defaults.LowWatermarkDifference)
	nodeBuilder.SetLowWatermarkDifference(d.defaults.LowWatermarkDifference)

	result := NewClusterResourceLimits(ctrlBuilder.Build(), nodeBuilder.Build())
	if err := result.verify(); err != nil {
		return ClusterResourceLimits{}, err
	}
	return result, nil
}

// Derive is a one-shot helper for NewDeriver followed by Deriver.Derive.
func Derive(defaults Defaults, ctrl, node *Builder) (ClusterResourceLimits, error) {
	deriver, err := NewDeriver(defaults)
	if err != nil {
		return ClusterResourceLimits{}, err
	}
	return deriver.Derive(ctrl, node)
}

// The default is anchored on the cluster controller only; the content node limit is always
// derived from it in the last pass.
func (d *Deriver) considerSettingDefaultClusterControllerLimit(r Resource, ctrl, node *Builder) {
	_, ctrlSet := ctrl.Get(r)
	_, nodeSet := node.Get(r)
	if !ctrlSet && !nodeSet {
		ctrl.Set(r, d.defaults.get(r))
	}
}

func deriveClusterControllerLimit(r Resource, ctrl, node *Builder) {
	if _, ok := ctrl.Get(r); ok {
		return
	}
	if nodeLimit, ok := node.Get(r); ok {
		ctrl.Set(r, math.Max(0.0, nodeLimit-controllerMargin))
	}
}

func deriveContentNodeLimit(r Resource, ctrl, node *Builder) {
	if _, ok := node.Get(r); ok {
		return
	}
	if ctrlLimit, ok := ctrl.Get(r); ok {
		node.Set(r, calcContentNodeLimit(ctrlLimit, nodeScaleFactors[r]))
	}
}

func calcContentNodeLimit(clusterControllerLimit, scaleFactor float64) float64 {
	return clusterControllerLimit + ((1.0 - clusterControllerLimit) * scaleFactor)
}
