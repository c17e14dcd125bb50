package limits

// View is the serializable form of ResourceLimits. Nil fields are unset.
type View struct {
	Disk                   *float64 `json:"disk,omitempty" yaml:"disk,omitempty"`
	Memory                 *float64 `json:"memory,omitempty" yaml:"memory,omitempty"`
	AddressSpace           *float64 `json:"address_space,omitempty" yaml:"address_space,omitempty"`
	LowWatermarkDifference *float64 `json:"low_watermark_difference,omitempty" yaml:"low_watermark_difference,omitempty"`
}

// ClusterView is the serializable form of ClusterResourceLimits.
type ClusterView struct {
	ClusterController View `json:"cluster_controller" yaml:"cluster_controller"`
	ContentNode       View `json:"content_node" yaml:"content_node"`
}

// View converts l to its serializable form
func (l ResourceLimits) View() View {
	return View{
		Disk:                   optional(l.DiskLimit()),
		Memory:                 optional(l.MemoryLimit()),
		AddressSpace:           optional(l.AddressSpaceLimit()),
		LowWatermarkDifference: optional(l.LowWatermarkDifference()),
	}
}

// Builder returns a builder holding every non-nil field of v
func (v View) Builder() *Builder {
	b := NewBuilder()
	for r, value := range map[Resource]*float64{
		Disk:                   v.Disk,
		Memory:                 v.Memory,
		AddressSpace:           v.AddressSpace,
		LowWatermarkDifference: v.LowWatermarkDifference,
	} {
		if value != nil {
			b.Set(r, *value)
		}
	}
	return b
}

// View converts c to its serializable form
func (c ClusterResourceLimits) View() ClusterView {
	return ClusterView{
		ClusterController: c.clusterController.View(),
		ContentNode:       c.contentNode.View(),
	}
}

// Limits converts the view back to a limit pair without deriving anything.
func (v ClusterView) Limits() ClusterResourceLimits {
	return NewClusterResourceLimits(v.ClusterController.Builder().Build(), v.ContentNode.Builder().Build())
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
