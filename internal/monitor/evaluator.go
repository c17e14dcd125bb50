package monitor

import (
	"fmt"
	"sync"

	"github.com/aleister1102/clusterlimits/internal/common"
	"github.com/aleister1102/clusterlimits/internal/limits"
)

var evaluatedResources = []limits.Resource{limits.Disk, limits.Memory, limits.AddressSpace}

// ResourceState is the evaluated state of one observed resource
type ResourceState struct {
	Resource limits.Resource
	ResourceUsageWithLimit
	Blocked bool
}

// Reason describes why the resource blocks feed, or why it no longer does
func (s ResourceState) Reason() string {
	if s.Blocked {
		return fmt.Sprintf("%s used (%.4f) > %s limit (%.4f)", s.Resource, s.Usage, s.Resource, s.Limit)
	}
	return fmt.Sprintf("%s used (%.4f) within %s limit (%.4f)", s.Resource, s.Usage, s.Resource, s.Limit)
}

// Evaluation holds the states of all observed resources, in disk, memory, address space order
type Evaluation struct {
	States []ResourceState
}

// Blocked reports whether any resource blocks feed
func (e Evaluation) Blocked() bool {
	for _, s := range e.States {
		if s.Blocked {
			return true
		}
	}
	return false
}

// State returns the state of r if it was observed
func (e Evaluation) State(r limits.Resource) (ResourceState, bool) {
	for _, s := range e.States {
		if s.Resource == r {
			return s, true
		}
	}
	return ResourceState{}, false
}

// Evaluator compares usage samples against finalized limits. A resource blocks once usage
// exceeds its limit and stays blocked until usage drops to the limit minus the low watermark
// difference.
type Evaluator struct {
	mu      sync.Mutex
	limits  limits.ResourceLimits
	blocked map[limits.Resource]bool
}

// NewEvaluator creates an evaluator for l, which must have every dimension set
func NewEvaluator(l limits.ResourceLimits) (*Evaluator, error) {
	e := &Evaluator{blocked: make(map[limits.Resource]bool)}
	if err := e.SetLimits(l); err != nil {
		return nil, err
	}
	return e, nil
}

// SetLimits replaces the limits. Current blocked states are kept and re-evaluated on the
// next sample.
func (e *Evaluator) SetLimits(l limits.ResourceLimits) error {
	if !l.Complete() {
		return common.NewValidationError("limits", l.View(), "all resource limits must be set")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.limits = l
	return nil
}

// Limits returns the limits in use
func (e *Evaluator) Limits() limits.ResourceLimits {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.limits
}

// Evaluate updates the blocked state from sample. Resources absent from the sample keep
// their previous state and are not reported.
func (e *Evaluator) Evaluate(sample Sample) Evaluation {
	e.mu.Lock()
	defer e.mu.Unlock()

	lwmDiff, _ := e.limits.LowWatermarkDifference()

	var evaluation Evaluation
	for _, r := range evaluatedResources {
		usage, ok := sample[r]
		if !ok {
			continue
		}
		limit, _ := e.limits.Get(r)
		state := ResourceState{
			Resource:               r,
			ResourceUsageWithLimit: ResourceUsageWithLimit{Usage: usage, Limit: limit},
		}

		if e.blocked[r] {
			state.Blocked = usage > limit-lwmDiff
		} else {
			state.Blocked = state.AboveLimit(1.0)
		}
		e.blocked[r] = state.Blocked
		evaluation.States = append(evaluation.States, state)
	}
	return evaluation
}
