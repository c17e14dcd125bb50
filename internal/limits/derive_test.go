package limits

import (
	"math"
	"sync"
	"testing"

	"github.com/aleister1102/clusterlimits/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 0.00001

// fixture mirrors how the config layer feeds the deriver: two partially filled builders plus
// the system defaults.
type fixture struct {
	defaults Defaults
	ctrl     *Builder
	node     *Builder
}

func newFixture() *fixture {
	defaults := NewDefaultDefaults()
	defaults.LowWatermarkDifference = 0.0
	return &fixture{defaults: defaults, ctrl: NewBuilder(), node: NewBuilder()}
}

func (f *fixture) ctrlDisk(v float64) *fixture         { f.ctrl.SetDiskLimit(v); return f }
func (f *fixture) ctrlMemory(v float64) *fixture       { f.ctrl.SetMemoryLimit(v); return f }
func (f *fixture) ctrlAddressSpace(v float64) *fixture { f.ctrl.SetAddressSpaceLimit(v); return f }
func (f *fixture) nodeDisk(v float64) *fixture         { f.node.SetDiskLimit(v); return f }
func (f *fixture) nodeMemory(v float64) *fixture       { f.node.SetMemoryLimit(v); return f }
func (f *fixture) nodeAddressSpace(v float64) *fixture { f.node.SetAddressSpaceLimit(v); return f }

func (f *fixture) lowWatermarkDifference(v float64) *fixture {
	f.defaults.LowWatermarkDifference = v
	return f
}

func (f *fixture) build(t *testing.T) ClusterResourceLimits {
	t.Helper()
	result, err := Derive(f.defaults, f.ctrl, f.node)
	require.NoError(t, err)
	return result
}

type expected struct {
	disk, memory, addressSpace float64
}

func assertLimits(t *testing.T, exp expected, lowWatermarkDifference float64, actual ResourceLimits) {
	t.Helper()
	assertLimit(t, exp.disk, Disk, actual)
	assertLimit(t, exp.memory, Memory, actual)
	assertLimit(t, exp.addressSpace, AddressSpace, actual)
	assertLimit(t, lowWatermarkDifference, LowWatermarkDifference, actual)
}

func assertLimit(t *testing.T, exp float64, r Resource, actual ResourceLimits) {
	t.Helper()
	v, ok := actual.Get(r)
	require.True(t, ok, "%s limit not set", r)
	assert.InDelta(t, exp, v, delta, "%s limit not as expected", r)
}

func TestDerive_ContentNodeLimitsDerivedFromClusterControllerLimits(t *testing.T) {
	t.Run("explicit controller limits", func(t *testing.T) {
		result := newFixture().ctrlDisk(0.4).ctrlMemory(0.7).ctrlAddressSpace(0.88).
			lowWatermarkDifference(0.05).build(t)

		assertLimits(t, expected{0.4, 0.7, 0.88}, 0.05, result.ClusterController())
		assertLimits(t, expected{0.76, 0.85, 0.94}, 0.05, result.ContentNode())
	})

	t.Run("nothing set", func(t *testing.T) {
		result := newFixture().build(t)

		assertLimits(t, expected{0.75, 0.8, 0.89}, 0.0, result.ClusterController())
		assertLimits(t, expected{0.9, 0.9, 0.945}, 0.0, result.ContentNode())
	})
}

func TestDerive_ContentNodeLimitsCanBeSetExplicitly(t *testing.T) {
	tests := []struct {
		name    string
		fixture *fixture
		ctrl    expected
		node    expected
	}{
		{
			name: "all explicit",
			fixture: newFixture().ctrlDisk(0.4).ctrlMemory(0.7).ctrlAddressSpace(0.88).
				nodeDisk(0.9).nodeMemory(0.95).nodeAddressSpace(0.93),
			ctrl: expected{0.4, 0.7, 0.88},
			node: expected{0.9, 0.95, 0.93},
		},
		{
			name:    "disk on both sides",
			fixture: newFixture().ctrlDisk(0.4).nodeDisk(0.95),
			ctrl:    expected{0.4, 0.8, 0.89},
			node:    expected{0.95, 0.9, 0.945},
		},
		{
			name:    "memory on both sides",
			fixture: newFixture().ctrlMemory(0.7).nodeMemory(0.95),
			ctrl:    expected{0.75, 0.7, 0.89},
			node:    expected{0.9, 0.95, 0.945},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.fixture.build(t)
			assertLimits(t, tt.ctrl, 0.0, result.ClusterController())
			assertLimits(t, tt.node, 0.0, result.ContentNode())
		})
	}
}

func TestDerive_ClusterControllerLimitsAreContentNodeLimitsMinusOnePercent(t *testing.T) {
	tests := []struct {
		name    string
		fixture *fixture
		ctrl    expected
		node    expected
	}{
		{
			name:    "disk and memory",
			fixture: newFixture().nodeDisk(0.9).nodeMemory(0.95),
			ctrl:    expected{0.89, 0.94, 0.89},
			node:    expected{0.9, 0.95, 0.945},
		},
		{
			name:    "disk only",
			fixture: newFixture().nodeDisk(0.9),
			ctrl:    expected{0.89, 0.8, 0.89},
			node:    expected{0.9, 0.9, 0.945},
		},
		{
			name:    "memory only",
			fixture: newFixture().nodeMemory(0.95),
			ctrl:    expected{0.75, 0.94, 0.89},
			node:    expected{0.9, 0.95, 0.945},
		},
		{
			name:    "clamped at zero",
			fixture: newFixture().nodeMemory(0.005),
			ctrl:    expected{0.75, 0.0, 0.89},
			node:    expected{0.9, 0.005, 0.945},
		},
		{
			name:    "address space only",
			fixture: newFixture().nodeAddressSpace(0.5),
			ctrl:    expected{0.75, 0.8, 0.49},
			node:    expected{0.9, 0.9, 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.fixture.build(t)
			assertLimits(t, tt.ctrl, 0.0, result.ClusterController())
			assertLimits(t, tt.node, 0.0, result.ContentNode())
		})
	}
}

func TestDerive_LimitsAreDerivedFromTheOtherIfNotSet(t *testing.T) {
	result := newFixture().ctrlDisk(0.6).nodeMemory(0.95).build(t)
	assertLimits(t, expected{0.6, 0.94, 0.89}, 0.0, result.ClusterController())
	assertLimits(t, expected{0.84, 0.95, 0.945}, 0.0, result.ContentNode())

	result = newFixture().ctrlMemory(0.7).nodeDisk(0.9).build(t)
	assertLimits(t, expected{0.89, 0.7, 0.89}, 0.0, result.ClusterController())
	assertLimits(t, expected{0.9, 0.85, 0.945}, 0.0, result.ContentNode())
}

func TestDerive_CustomDefaultsAreUsed(t *testing.T) {
	defaults := Defaults{Disk: 0.85, Memory: 0.90, AddressSpace: 0.89, LowWatermarkDifference: 0.0}

	result, err := Derive(defaults, NewBuilder(), NewBuilder())
	require.NoError(t, err)

	assertLimits(t, expected{0.85, 0.90, 0.89}, 0.0, result.ClusterController())
	assertLimits(t, expected{0.94, 0.95, 0.945}, 0.0, result.ContentNode())
}

func TestDerive_LowWatermarkDifferenceOverridesBuilderValue(t *testing.T) {
	f := newFixture().lowWatermarkDifference(0.02)
	f.ctrl.SetLowWatermarkDifference(0.3)
	f.node.SetLowWatermarkDifference(0.4)

	result := f.build(t)

	assertLimit(t, 0.02, LowWatermarkDifference, result.ClusterController())
	assertLimit(t, 0.02, LowWatermarkDifference, result.ContentNode())
}

func TestNewDeriver_DefaultsOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		defaults func(d *Defaults)
		message  string
	}{
		{
			name:     "disk above one",
			defaults: func(d *Defaults) { d.Disk = 1.1 },
			message:  "Resource limit for disk is set to illegal value 1.1, but must be in the range [0.0, 1.0]",
		},
		{
			name:     "disk below zero",
			defaults: func(d *Defaults) { d.Disk = -0.1 },
			message:  "Resource limit for disk is set to illegal value -0.1, but must be in the range [0.0, 1.0]",
		},
		{
			name:     "memory above one",
			defaults: func(d *Defaults) { d.Memory = 1.5 },
			message:  "Resource limit for memory is set to illegal value 1.5, but must be in the range [0.0, 1.0]",
		},
		{
			name:     "low watermark difference below zero",
			defaults: func(d *Defaults) { d.LowWatermarkDifference = -0.01 },
			message:  "Resource limit for low watermark difference is set to illegal value -0.01, but must be in the range [0.0, 1.0]",
		},
		{
			name:     "address space above one",
			defaults: func(d *Defaults) { d.AddressSpace = 2 },
			message:  "Resource limit for address space is set to illegal value 2, but must be in the range [0.0, 1.0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defaults := NewDefaultDefaults()
			tt.defaults(&defaults)

			deriver, err := NewDeriver(defaults)

			require.Error(t, err)
			assert.Nil(t, deriver)
			assert.Equal(t, tt.message, err.Error())
			assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
		})
	}
}

func TestNewDeriver_FirstInvalidDefaultWins(t *testing.T) {
	_, err := NewDeriver(Defaults{Disk: 0.5, Memory: 0.5, AddressSpace: 7, LowWatermarkDifference: 3})

	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, LowWatermarkDifference, rangeErr.Resource)
	assert.Equal(t, 3.0, rangeErr.Value)
}

func TestDerive_ExplicitLimitsOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		fixture  *fixture
		resource Resource
		value    float64
	}{
		{"controller disk", newFixture().ctrlDisk(1.2), Disk, 1.2},
		{"controller memory", newFixture().ctrlMemory(-0.5), Memory, -0.5},
		{"node address space", newFixture().nodeAddressSpace(1.01), AddressSpace, 1.01},
		{"node memory", newFixture().ctrlMemory(0.5).nodeMemory(3), Memory, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Derive(tt.fixture.defaults, tt.fixture.ctrl, tt.fixture.node)

			var rangeErr *RangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, tt.resource, rangeErr.Resource)
			assert.Equal(t, tt.value, rangeErr.Value)
			assert.Equal(t, ClusterResourceLimits{}, result)
		})
	}
}

func TestDerive_RejectsNaN(t *testing.T) {
	_, err := Derive(NewDefaultDefaults(), NewBuilder().SetDiskLimit(math.NaN()), nil)
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)

	_, err = NewDeriver(Defaults{Disk: math.NaN()})
	assert.Error(t, err)
}

func TestDerive_DoesNotModifyInputBuilders(t *testing.T) {
	ctrl := NewBuilder().SetDiskLimit(0.4)
	node := NewBuilder().SetMemoryLimit(0.95)

	_, err := Derive(NewDefaultDefaults(), ctrl, node)
	require.NoError(t, err)

	_, ok := ctrl.MemoryLimit()
	assert.False(t, ok)
	_, ok = node.DiskLimit()
	assert.False(t, ok)
	_, ok = ctrl.LowWatermarkDifference()
	assert.False(t, ok)
}

func TestDerive_NilBuildersAreEmpty(t *testing.T) {
	fromNil, err := Derive(NewDefaultDefaults(), nil, nil)
	require.NoError(t, err)

	fromEmpty, err := Derive(NewDefaultDefaults(), NewBuilder(), NewBuilder())
	require.NoError(t, err)

	assert.True(t, fromNil.Equal(fromEmpty))
}

func TestDerive_IsIdempotent(t *testing.T) {
	deriver, err := NewDeriver(NewDefaultDefaults())
	require.NoError(t, err)

	first, err := deriver.Derive(NewBuilder().SetDiskLimit(0.4), NewBuilder().SetMemoryLimit(0.95))
	require.NoError(t, err)

	second, err := deriver.Derive(first.ClusterController().ToBuilder(), first.ContentNode().ToBuilder())
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestDerive_Properties(t *testing.T) {
	deriver, err := NewDeriver(NewDefaultDefaults())
	require.NoError(t, err)

	grid := []float64{0.0, 0.005, 0.01, 0.3, 0.75, 0.99, 1.0}
	for _, r := range primaryResources {
		for _, v := range grid {
			onlyCtrl, err := deriver.Derive(NewBuilder().Set(r, v), nil)
			require.NoError(t, err)
			ctrlValue, _ := onlyCtrl.ClusterController().Get(r)
			nodeValue, _ := onlyCtrl.ContentNode().Get(r)
			assert.InDelta(t, v, ctrlValue, delta)
			assert.InDelta(t, v+(1-v)*nodeScaleFactors[r], nodeValue, delta)
			assert.GreaterOrEqual(t, nodeValue, ctrlValue)

			onlyNode, err := deriver.Derive(nil, NewBuilder().Set(r, v))
			require.NoError(t, err)
			ctrlValue, _ = onlyNode.ClusterController().Get(r)
			nodeValue, _ = onlyNode.ContentNode().Get(r)
			assert.InDelta(t, math.Max(0, v-0.01), ctrlValue, delta)
			assert.Equal(t, v, nodeValue)

			for _, limits := range []ResourceLimits{
				onlyCtrl.ClusterController(), onlyCtrl.ContentNode(),
				onlyNode.ClusterController(), onlyNode.ContentNode(),
			} {
				assert.True(t, limits.Complete())
				for _, res := range Resources() {
					value, _ := limits.Get(res)
					assert.NoError(t, VerifyLimitInRange(res, value))
				}
			}
		}
	}
}

func TestDerive_ConcurrentCallers(t *testing.T) {
	deriver, err := NewDeriver(NewDefaultDefaults())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]ClusterResourceLimits, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := deriver.Derive(NewBuilder().SetDiskLimit(0.4), NewBuilder())
			if err == nil {
				results[i] = result
			}
		}(i)
	}
	wg.Wait()

	for _, result := range results[1:] {
		assert.True(t, results[0].Equal(result))
	}
}
