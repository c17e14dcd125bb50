package limits

// ClusterResourceLimits is the finalized pair of limits for one content cluster.
type ClusterResourceLimits struct {
	clusterController ResourceLimits
	contentNode       ResourceLimits
}

// NewClusterResourceLimits pairs already finalized limits, e.g. when read back from storage.
func NewClusterResourceLimits(clusterController, contentNode ResourceLimits) ClusterResourceLimits {
	return ClusterResourceLimits{
		clusterController: clusterController,
		contentNode:       contentNode,
	}
}

// ClusterController returns the limits used to block feed cluster-wide
func (c ClusterResourceLimits) ClusterController() ResourceLimits {
	return c.clusterController
}

// ContentNode returns the limits each content node enforces locally
func (c ClusterResourceLimits) ContentNode() ResourceLimits {
	return c.contentNode
}

// Equal reports whether both sides hold identical values.
func (c ClusterResourceLimits) Equal(other ClusterResourceLimits) bool {
	return c.clusterController == other.clusterController && c.contentNode == other.contentNode
}

func (c ClusterResourceLimits) verify() error {
	if err := verifySet(c.clusterController); err != nil {
		return err
	}
	return verifySet(c.contentNode)
}
