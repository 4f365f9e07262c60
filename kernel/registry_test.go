package kernel

import (
	"testing"

	"github.com/YuminosukeSato/gpr/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry[float64]()
	assert.Empty(t, r.Types())

	RegisterBuiltins(r)
	assert.Equal(t, []string{GaussianTag, PeriodicTag, ProductTag, SumTag}, r.Types())
	assert.True(t, r.Has(SumTag))
	assert.False(t, r.Has("Matern52"))
}

func TestDefaultRegistryIsPerType(t *testing.T) {
	assert.Same(t, Default[float64](), Default[float64]())
	assert.True(t, Default[float32]().Has(GaussianTag))
}

func TestRegisterValidatesTag(t *testing.T) {
	r := NewRegistry[float64]()
	for _, tag := range []string{"", "Bad#Tag", "Bad Tag"} {
		assert.Error(t, r.Register(tag, 0, func([]float64) (Kernel[float64], error) { return opaque{}, nil }), tag)
	}
	assert.Error(t, r.Register("Opaque", 0, nil))
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry[float64]()
	calls := 0
	ctor := func([]float64) (Kernel[float64], error) { calls++; return opaque{}, nil }

	require.NoError(t, r.Register("Opaque", 0, ctor))
	require.NoError(t, r.Register("Opaque", 0, ctor))
	assert.Equal(t, []string{"Opaque"}, r.Types())

	k, err := r.Load("Opaque", nil)
	require.NoError(t, err)
	assert.Equal(t, "Opaque", k.Tag())
	assert.Equal(t, 1, calls)
}

func TestLoadUnknownKernel(t *testing.T) {
	r := NewRegistry[float64]()
	RegisterBuiltins(r)

	_, err := r.Load("UnknownKernel", []float64{1})
	require.Error(t, err)
	var target *errors.UnknownKernelError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "UnknownKernel", target.Tag)
}

func TestResolveRoundTrip(t *testing.T) {
	r := NewRegistry[float64]()
	RegisterBuiltins(r)

	g := mustGaussian(t, 0.5, 2)
	p := mustPeriodic(t, 1, 3, 0.25)
	kernels := []Kernel[float64]{
		g,
		p,
		NewSum[float64](g, p),
		NewProduct[float64](p, g),
		NewProduct[float64](NewSum[float64](g, p), g),
		NewSum[float64](g, NewProduct[float64](p, NewSum[float64](p, g))),
	}

	for _, k := range kernels {
		t.Run(k.Tag(), func(t *testing.T) {
			got, err := r.Resolve(k.Tag(), k.Parameters())
			require.NoError(t, err)
			assert.True(t, k.Equal(got))
			assert.Equal(t, k.Tag(), got.Tag())
		})
	}
}

func TestResolveErrors(t *testing.T) {
	r := NewRegistry[float64]()
	RegisterBuiltins(r)

	tests := []struct {
		name   string
		tag    string
		params []float64
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unknown atomic",
			tag:    "UnknownKernel",
			params: []float64{1, 2},
			check: func(t *testing.T, err error) {
				var e *errors.UnknownKernelError
				assert.True(t, errors.As(err, &e))
			},
		},
		{
			name:   "unknown child",
			tag:    "SumKernel#GaussianKernel#Matern52",
			params: []float64{1, 2, 3},
			check: func(t *testing.T, err error) {
				var e *errors.UnknownKernelError
				require.True(t, errors.As(err, &e))
				assert.Equal(t, "Matern52", e.Tag)
			},
		},
		{
			name:   "unimplemented composite",
			tag:    "QuotientKernel#GaussianKernel#GaussianKernel",
			params: []float64{1, 1, 1, 1},
			check: func(t *testing.T, err error) {
				var e *errors.UnimplementedCompositeError
				require.True(t, errors.As(err, &e))
				assert.Equal(t, "QuotientKernel", e.Operator)
			},
		},
		{
			name:   "missing operand",
			tag:    "SumKernel#GaussianKernel",
			params: []float64{1, 1},
			check:  assertCorrupt,
		},
		{
			name:   "leftover operand",
			tag:    "SumKernel#GaussianKernel#GaussianKernel#GaussianKernel",
			params: []float64{1, 1, 1, 1, 1, 1},
			check:  assertCorrupt,
		},
		{
			name:   "too few parameters",
			tag:    "SumKernel#GaussianKernel#PeriodicKernel",
			params: []float64{1, 1, 1},
			check:  assertCorrupt,
		},
		{
			name:   "too many parameters",
			tag:    "SumKernel#GaussianKernel#GaussianKernel",
			params: []float64{1, 1, 1, 1, 1},
			check:  assertCorrupt,
		},
		{
			name:   "atomic arity",
			tag:    "GaussianKernel",
			params: []float64{1},
			check:  assertCorrupt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := r.Resolve(tt.tag, tt.params)
			require.Error(t, err)
			assert.Nil(t, k)
			tt.check(t, err)
		})
	}
}

func assertCorrupt(t *testing.T, err error) {
	t.Helper()
	var e *errors.CorruptFileError
	assert.True(t, errors.As(err, &e), "got %v", err)
}

func TestResolveCustomKernel(t *testing.T) {
	r := NewRegistry[float64]()
	RegisterBuiltins(r)
	require.NoError(t, r.Register("Opaque", 0, func([]float64) (Kernel[float64], error) { return opaque{}, nil }))

	k, err := r.Resolve("ProductKernel#Opaque#GaussianKernel", []float64{0.5, 1})
	require.NoError(t, err)
	assert.Equal(t, "ProductKernel#Opaque#GaussianKernel", k.Tag())
	assert.Equal(t, []float64{0.5, 1}, k.Parameters())
}
