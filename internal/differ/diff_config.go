package differ

// DiffConfig holds configuration for limits diffing
type DiffConfig struct {
	EnableSemanticCleanup bool
	EnableLineBasedDiff   bool
}

// DefaultDiffConfig returns default configuration
func DefaultDiffConfig() DiffConfig {
	return DiffConfig{
		EnableSemanticCleanup: true,
		EnableLineBasedDiff:   true,
	}
}
