package kernel

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/gpr/pkg/errors"
)

// PeriodicTag is the registry tag of the periodic kernel.
const PeriodicTag = "PeriodicKernel"

// Periodic is the exp-sine-squared kernel
//
//	k(x, y) = scale · exp(-½ Σᵢ (sin(π (xᵢ − yᵢ) / period) / σ)²)
type Periodic[T Float] struct {
	scale  float64
	period float64
	sigma  float64
	raw    [3]T
}

// NewPeriodic returns a periodic kernel. period and sigma must be non-zero.
func NewPeriodic[T Float](scale, period, sigma T) (*Periodic[T], error) {
	if period == 0 || math.IsNaN(float64(period)) {
		return nil, errors.NewValidationError("period", "must be non-zero", period)
	}
	if sigma == 0 || math.IsNaN(float64(sigma)) {
		return nil, errors.NewValidationError("sigma", "must be non-zero", sigma)
	}
	return &Periodic[T]{
		scale:  float64(scale),
		period: float64(period),
		sigma:  float64(sigma),
		raw:    [3]T{scale, period, sigma},
	}, nil
}

func newPeriodicFromParams[T Float](params []T) (Kernel[T], error) {
	if len(params) != 3 {
		return nil, errors.NewValidationError("params", fmt.Sprintf("%s takes 3 parameters", PeriodicTag), len(params))
	}
	return NewPeriodic(params[0], params[1], params[2])
}

func (p *Periodic[T]) Evaluate(x, y []T) T {
	var sum float64
	for i := range x {
		s := math.Sin(math.Pi*(float64(x[i])-float64(y[i]))/p.period) / p.sigma
		sum += s * s
	}
	return T(p.scale * math.Exp(-0.5*sum))
}

// Gradient differentiates each sine term:
// ∂k/∂xᵢ = -k · sin(2π dᵢ / period) · π / (2 · period · σ²).
func (p *Periodic[T]) Gradient(x, y []T) ([]T, bool) {
	k := float64(p.Evaluate(x, y))
	c := math.Pi / (2 * p.period * p.sigma * p.sigma)
	grad := make([]T, len(x))
	for i := range x {
		d := float64(x[i]) - float64(y[i])
		grad[i] = T(-k * math.Sin(2*math.Pi*d/p.period) * c)
	}
	return grad, true
}

// Parameters returns [scale, period, sigma].
func (p *Periodic[T]) Parameters() []T {
	return []T{p.raw[0], p.raw[1], p.raw[2]}
}

func (p *Periodic[T]) Tag() string { return PeriodicTag }

func (p *Periodic[T]) Equal(other Kernel[T]) bool {
	o, ok := other.(*Periodic[T])
	if !ok {
		return false
	}
	return p.raw == o.raw
}

func (p *Periodic[T]) String() string {
	return fmt.Sprintf("%s(scale=%g, period=%g, sigma=%g)", PeriodicTag, p.scale, p.period, p.sigma)
}
