package limits

import (
	"fmt"

	"github.com/aleister1102/clusterlimits/internal/common"
)

// RangeError reports a limit outside [0.0, 1.0].
type RangeError struct {
	Resource Resource
	Value    float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("Resource limit for %s is set to illegal value %v, but must be in the range [0.0, 1.0]",
		e.Resource, e.Value)
}

func (e *RangeError) Unwrap() error {
	return common.ErrInvalidConfiguration
}

// VerifyLimitInRange fails with a *RangeError unless 0.0 <= v <= 1.0. NaN is rejected.
func VerifyLimitInRange(r Resource, v float64) error {
	if v >= 0.0 && v <= 1.0 {
		return nil
	}
	return &RangeError{Resource: r, Value: v}
}

// verifySet checks every set dimension of l in Resources() order.
func verifySet(l ResourceLimits) error {
	for _, r := range Resources() {
		if v, ok := l.Get(r); ok {
			if err := VerifyLimitInRange(r, v); err != nil {
				return err
			}
		}
	}
	return nil
}
