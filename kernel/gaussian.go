package kernel

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/gpr/pkg/errors"
)

// GaussianTag is the registry tag of the squared-exponential kernel.
const GaussianTag = "GaussianKernel"

// Gaussian is the isotropic squared-exponential kernel
//
//	k(x, y) = scale · exp(-½ ‖x − y‖² / σ²)
type Gaussian[T Float] struct {
	sigma float64
	scale float64
	raw   [2]T
}

// NewGaussian returns a Gaussian kernel with length scale sigma and
// amplitude scale. sigma must be non-zero.
func NewGaussian[T Float](sigma, scale T) (*Gaussian[T], error) {
	if sigma == 0 || math.IsNaN(float64(sigma)) {
		return nil, errors.NewValidationError("sigma", "must be non-zero", sigma)
	}
	return &Gaussian[T]{
		sigma: float64(sigma),
		scale: float64(scale),
		raw:   [2]T{sigma, scale},
	}, nil
}

func newGaussianFromParams[T Float](params []T) (Kernel[T], error) {
	if len(params) != 2 {
		return nil, errors.NewValidationError("params", fmt.Sprintf("%s takes 2 parameters", GaussianTag), len(params))
	}
	return NewGaussian(params[0], params[1])
}

func (g *Gaussian[T]) Evaluate(x, y []T) T {
	return T(g.scale * math.Exp(-0.5*squaredDistance(x, y)/(g.sigma*g.sigma)))
}

// Gradient returns -(x − y)/σ² · k(x, y).
func (g *Gaussian[T]) Gradient(x, y []T) ([]T, bool) {
	k := float64(g.Evaluate(x, y))
	inv := 1 / (g.sigma * g.sigma)
	grad := make([]T, len(x))
	for i := range x {
		grad[i] = T(-(float64(x[i]) - float64(y[i])) * inv * k)
	}
	return grad, true
}

// Parameters returns [sigma, scale].
func (g *Gaussian[T]) Parameters() []T {
	return []T{g.raw[0], g.raw[1]}
}

func (g *Gaussian[T]) Tag() string { return GaussianTag }

func (g *Gaussian[T]) Equal(other Kernel[T]) bool {
	o, ok := other.(*Gaussian[T])
	if !ok {
		return false
	}
	return g.raw == o.raw
}

func (g *Gaussian[T]) String() string {
	return fmt.Sprintf("%s(sigma=%g, scale=%g)", GaussianTag, g.sigma, g.scale)
}
