package limits

// ResourceLimits is an immutable set of up to four optional limit fractions.
// An unset dimension is distinct from a zero limit.
type ResourceLimits struct {
	values [numResources]float64
	set    [numResources]bool
}

// Get returns the limit for r and whether it is set
func (l ResourceLimits) Get(r Resource) (float64, bool) {
	if !r.valid() || !l.set[r] {
		return 0, false
	}
	return l.values[r], true
}

// DiskLimit returns the disk limit, if set
func (l ResourceLimits) DiskLimit() (float64, bool) { return l.Get(Disk) }

// MemoryLimit returns the memory limit, if set
func (l ResourceLimits) MemoryLimit() (float64, bool) { return l.Get(Memory) }

// AddressSpaceLimit returns the address space limit, if set
func (l ResourceLimits) AddressSpaceLimit() (float64, bool) { return l.Get(AddressSpace) }

// LowWatermarkDifference returns the low watermark difference, if set
func (l ResourceLimits) LowWatermarkDifference() (float64, bool) {
	return l.Get(LowWatermarkDifference)
}

// Complete reports whether all four dimensions are set.
func (l ResourceLimits) Complete() bool {
	for _, isSet := range l.set {
		if !isSet {
			return false
		}
	}
	return true
}

// ToBuilder returns a builder pre-populated with every set dimension.
func (l ResourceLimits) ToBuilder() *Builder {
	return &Builder{limits: l}
}

// Builder accumulates explicitly configured limits. Setters store values verbatim;
// range checks happen when limits are derived. A Builder is not safe for concurrent mutation.
type Builder struct {
	limits ResourceLimits
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Set stores v for r. The last write wins.
func (b *Builder) Set(r Resource, v float64) *Builder {
	if r.valid() {
		b.limits.values[r] = v
		b.limits.set[r] = true
	}
	return b
}

// Get returns the value stored for r and whether it is set
func (b *Builder) Get(r Resource) (float64, bool) {
	if b == nil {
		return 0, false
	}
	return b.limits.Get(r)
}

func (b *Builder) SetDiskLimit(v float64) *Builder         { return b.Set(Disk, v) }
func (b *Builder) SetMemoryLimit(v float64) *Builder       { return b.Set(Memory, v) }
func (b *Builder) SetAddressSpaceLimit(v float64) *Builder { return b.Set(AddressSpace, v) }

func (b *Builder) SetLowWatermarkDifference(v float64) *Builder {
	return b.Set(LowWatermarkDifference, v)
}

func (b *Builder) DiskLimit() (float64, bool)         { return b.Get(Disk) }
func (b *Builder) MemoryLimit() (float64, bool)       { return b.Get(Memory) }
func (b *Builder) AddressSpaceLimit() (float64, bool) { return b.Get(AddressSpace) }

func (b *Builder) LowWatermarkDifference() (float64, bool) {
	return b.Get(LowWatermarkDifference)
}

// Build returns a snapshot of whatever is currently set. Partial limits are allowed.
func (b *Builder) Build() ResourceLimits {
	if b == nil {
		return ResourceLimits{}
	}
	return b.limits
}

func (b *Builder) clone() *Builder {
	if b == nil {
		return NewBuilder()
	}
	return &Builder{limits: b.limits}
}
