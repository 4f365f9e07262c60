package kernel

import "fmt"

// Composite operator tags.
const (
	SumTag     = "SumKernel"
	ProductTag = "ProductKernel"
)

// TagSeparator joins a composite operator with its children's tags.
const TagSeparator = "#"

// Sum is k(x, y) = left(x, y) + right(x, y).
type Sum[T Float] struct {
	Left, Right Kernel[T]
}

// NewSum returns the sum of two kernels.
func NewSum[T Float](left, right Kernel[T]) *Sum[T] {
	return &Sum[T]{Left: left, Right: right}
}

func (s *Sum[T]) Evaluate(x, y []T) T {
	return s.Left.Evaluate(x, y) + s.Right.Evaluate(x, y)
}

func (s *Sum[T]) Gradient(x, y []T) ([]T, bool) {
	gl, ok := gradientOf(s.Left, x, y)
	if !ok {
		return nil, false
	}
	gr, ok := gradientOf(s.Right, x, y)
	if !ok {
		return nil, false
	}
	for i := range gl {
		gl[i] += gr[i]
	}
	return gl, true
}

// Parameters concatenates the children's parameters, left first.
func (s *Sum[T]) Parameters() []T {
	return append(s.Left.Parameters(), s.Right.Parameters()...)
}

func (s *Sum[T]) Tag() string {
	return compositeTag(SumTag, s.Left, s.Right)
}

func (s *Sum[T]) Equal(other Kernel[T]) bool {
	o, ok := other.(*Sum[T])
	if !ok {
		return false
	}
	return s.Left.Equal(o.Left) && s.Right.Equal(o.Right)
}

func (s *Sum[T]) String() string {
	return fmt.Sprintf("(%v + %v)", s.Left, s.Right)
}

// Product is k(x, y) = left(x, y) · right(x, y).
type Product[T Float] struct {
	Left, Right Kernel[T]
}

// NewProduct returns the product of two kernels.
func NewProduct[T Float](left, right Kernel[T]) *Product[T] {
	return &Product[T]{Left: left, Right: right}
}

func (p *Product[T]) Evaluate(x, y []T) T {
	return p.Left.Evaluate(x, y) * p.Right.Evaluate(x, y)
}

// Gradient applies the product rule.
func (p *Product[T]) Gradient(x, y []T) ([]T, bool) {
	gl, ok := gradientOf(p.Left, x, y)
	if !ok {
		return nil, false
	}
	gr, ok := gradientOf(p.Right, x, y)
	if !ok {
		return nil, false
	}
	kl := p.Left.Evaluate(x, y)
	kr := p.Right.Evaluate(x, y)
	for i := range gl {
		gl[i] = gl[i]*kr + kl*gr[i]
	}
	return gl, true
}

// Parameters concatenates the children's parameters, left first.
func (p *Product[T]) Parameters() []T {
	return append(p.Left.Parameters(), p.Right.Parameters()...)
}

func (p *Product[T]) Tag() string {
	return compositeTag(ProductTag, p.Left, p.Right)
}

func (p *Product[T]) Equal(other Kernel[T]) bool {
	o, ok := other.(*Product[T])
	if !ok {
		return false
	}
	return p.Left.Equal(o.Left) && p.Right.Equal(o.Right)
}

func (p *Product[T]) String() string {
	return fmt.Sprintf("(%v * %v)", p.Left, p.Right)
}

func compositeTag[T Float](op string, left, right Kernel[T]) string {
	return op + TagSeparator + left.Tag() + TagSeparator + right.Tag()
}

func gradientOf[T Float](k Kernel[T], x, y []T) ([]T, bool) {
	g, ok := k.(Gradienter[T])
	if !ok {
		return nil, false
	}
	return g.Gradient(x, y)
}
