// Package kernel provides covariance functions for Gaussian process
// regression and a registry that rebuilds them from a persisted type tag
// and parameter list.
//
// A kernel is consumed by the regression engine only through the Kernel
// interface. Composite kernels (SumKernel, ProductKernel) combine two child
// kernels and encode both children in their tag:
//
//	SumKernel#GaussianKernel#PeriodicKernel
//	ProductKernel#SumKernel#GaussianKernel#GaussianKernel#PeriodicKernel
//
// Tags are read in prefix form, so nested composites are unambiguous.
package kernel

import "unsafe"

// Float is the set of scalar types a kernel and the engine can be
// instantiated with.
type Float interface {
	~float32 | ~float64
}

// Kernel is a symmetric similarity function over two input vectors.
type Kernel[T Float] interface {
	// Evaluate returns k(x, y). Evaluate(x, y) == Evaluate(y, x).
	Evaluate(x, y []T) T
	// Parameters returns the free parameters in reconstruction order.
	Parameters() []T
	// Tag names the kernel variant. Composite tags embed their children's tags.
	Tag() string
	// Equal reports structural equality, parameters included.
	Equal(other Kernel[T]) bool
}

// Gradienter is implemented by kernels that know their spatial gradient
// ∂k(x, y)/∂x. ok is false when the gradient cannot be formed, for instance
// when a composite has a child without a gradient.
type Gradienter[T Float] interface {
	Gradient(x, y []T) (grad []T, ok bool)
}

// Constructor builds an atomic kernel from its parameters.
type Constructor[T Float] func(params []T) (Kernel[T], error)

// Combinator builds a composite kernel from two children.
type Combinator[T Float] func(left, right Kernel[T]) Kernel[T]

// BitSize is the width of T in bits, for strconv formatting at full precision.
func BitSize[T Float]() int {
	var zero T
	return int(unsafe.Sizeof(zero)) * 8
}

// equalParams compares two parameter slices exactly.
func equalParams[T Float](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func squaredDistance[T Float](x, y []T) float64 {
	var sum float64
	for i := range x {
		d := float64(x[i]) - float64(y[i])
		sum += d * d
	}
	return sum
}
