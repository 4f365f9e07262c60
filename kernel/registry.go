package kernel

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/YuminosukeSato/gpr/pkg/errors"
)

type atomicEntry[T Float] struct {
	arity int
	ctor  Constructor[T]
}

// Registry maps kernel tags to constructors. It is safe for concurrent use.
//
// Atomic kernels are registered with their parameter count so that a flat
// parameter list can be split across the children of a composite tag.
type Registry[T Float] struct {
	mu         sync.RWMutex
	atomics    map[string]atomicEntry[T]
	composites map[string]Combinator[T]
}

// NewRegistry returns an empty registry.
func NewRegistry[T Float]() *Registry[T] {
	return &Registry[T]{
		atomics:    make(map[string]atomicEntry[T]),
		composites: make(map[string]Combinator[T]),
	}
}

// RegisterBuiltins registers GaussianKernel, PeriodicKernel, SumKernel and
// ProductKernel on r.
func RegisterBuiltins[T Float](r *Registry[T]) {
	// Built-in tags are valid, so these cannot fail.
	_ = r.Register(GaussianTag, 2, newGaussianFromParams[T])
	_ = r.Register(PeriodicTag, 3, newPeriodicFromParams[T])
	_ = r.RegisterComposite(SumTag, func(l, rt Kernel[T]) Kernel[T] { return NewSum(l, rt) })
	_ = r.RegisterComposite(ProductTag, func(l, rt Kernel[T]) Kernel[T] { return NewProduct(l, rt) })
}

var defaults sync.Map // reflect.Type -> *Registry[T]

// Default returns the process-wide registry for T, populated with the
// built-in kernels on first use.
func Default[T Float]() *Registry[T] {
	key := reflect.TypeFor[T]()
	if r, ok := defaults.Load(key); ok {
		return r.(*Registry[T])
	}
	r := NewRegistry[T]()
	RegisterBuiltins(r)
	actual, _ := defaults.LoadOrStore(key, r)
	return actual.(*Registry[T])
}

func validateTag(tag string) error {
	if tag == "" {
		return errors.NewValidationError("tag", "must not be empty", tag)
	}
	if strings.Contains(tag, TagSeparator) {
		return errors.NewValidationError("tag", "must not contain "+TagSeparator, tag)
	}
	if strings.IndexFunc(tag, unicode.IsSpace) >= 0 {
		return errors.NewValidationError("tag", "must not contain whitespace", tag)
	}
	return nil
}

// Register adds or replaces the constructor for an atomic kernel tag.
// arity is the number of parameters the constructor consumes.
func (r *Registry[T]) Register(tag string, arity int, ctor Constructor[T]) error {
	if err := validateTag(tag); err != nil {
		return err
	}
	if arity < 0 {
		return errors.NewValidationError("arity", "must be non-negative", arity)
	}
	if ctor == nil {
		return errors.NewValidationError("ctor", "must not be nil", tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.composites, tag)
	r.atomics[tag] = atomicEntry[T]{arity: arity, ctor: ctor}
	return nil
}

// RegisterComposite adds or replaces the combinator for a composite operator.
func (r *Registry[T]) RegisterComposite(op string, combine Combinator[T]) error {
	if err := validateTag(op); err != nil {
		return err
	}
	if combine == nil {
		return errors.NewValidationError("combine", "must not be nil", op)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.atomics, op)
	r.composites[op] = combine
	return nil
}

// Has reports whether tag is a registered atomic kernel or composite operator.
func (r *Registry[T]) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.atomics[tag]; ok {
		return true
	}
	_, ok := r.composites[tag]
	return ok
}

// Types returns every registered tag in sorted order.
func (r *Registry[T]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.atomics)+len(r.composites))
	for tag := range r.atomics {
		out = append(out, tag)
	}
	for op := range r.composites {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

// Load builds an atomic kernel. Composite tags must go through Resolve.
func (r *Registry[T]) Load(tag string, params []T) (Kernel[T], error) {
	r.mu.RLock()
	entry, ok := r.atomics[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewUnknownKernelError(tag)
	}
	k, err := entry.ctor(params)
	if err != nil {
		return nil, errors.Wrapf(err, "kernel: construct %s", tag)
	}
	return k, nil
}

// Resolve builds a kernel from a possibly composite tag and the flat
// parameter list produced by the kernel's Parameters method.
//
// The tag is split on '#' and read in prefix form: a composite operator
// consumes the next two sub-trees, an atomic tag consumes its own arity of
// parameters.
func (r *Registry[T]) Resolve(tag string, params []T) (Kernel[T], error) {
	tokens := strings.Split(tag, TagSeparator)
	if len(tokens) == 1 {
		if err := r.checkArity(tag, len(params)); err != nil {
			return nil, err
		}
		return r.Load(tag, params)
	}

	r.mu.RLock()
	_, isComposite := r.composites[tokens[0]]
	r.mu.RUnlock()
	if !isComposite {
		return nil, errors.NewUnimplementedCompositeError(tokens[0], tag)
	}

	p := &tagParser[T]{reg: r, tag: tag, tokens: tokens, params: params}
	k, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, errors.NewCorruptFileError("kernel.Resolve", "",
			fmt.Sprintf("tag %q has %d unused tokens", tag, len(p.tokens)-p.pos))
	}
	if p.used != len(p.params) {
		return nil, errors.NewCorruptFileError("kernel.Resolve", "",
			fmt.Sprintf("tag %q takes %d parameters, got %d", tag, p.used, len(p.params)))
	}
	return k, nil
}

// checkArity reports a parameter count mismatch for a registered atomic tag.
// Unknown tags pass through so that Load reports them.
func (r *Registry[T]) checkArity(tag string, n int) error {
	r.mu.RLock()
	entry, ok := r.atomics[tag]
	r.mu.RUnlock()
	if ok && entry.arity != n {
		return errors.NewCorruptFileError("kernel.Resolve", "",
			fmt.Sprintf("%s takes %d parameters, got %d", tag, entry.arity, n))
	}
	return nil
}

type tagParser[T Float] struct {
	reg    *Registry[T]
	tag    string
	tokens []string
	pos    int
	params []T
	used   int
}

func (p *tagParser[T]) parse() (Kernel[T], error) {
	if p.pos >= len(p.tokens) {
		return nil, errors.NewCorruptFileError("kernel.Resolve", "",
			fmt.Sprintf("tag %q ends before all operands were read", p.tag))
	}
	tok := p.tokens[p.pos]
	p.pos++

	p.reg.mu.RLock()
	combine, isComposite := p.reg.composites[tok]
	entry, isAtomic := p.reg.atomics[tok]
	p.reg.mu.RUnlock()

	switch {
	case isComposite:
		left, err := p.parse()
		if err != nil {
			return nil, err
		}
		right, err := p.parse()
		if err != nil {
			return nil, err
		}
		return combine(left, right), nil
	case isAtomic:
		if p.used+entry.arity > len(p.params) {
			return nil, errors.NewCorruptFileError("kernel.Resolve", "",
				fmt.Sprintf("tag %q needs more than %d parameters", p.tag, len(p.params)))
		}
		args := p.params[p.used : p.used+entry.arity : p.used+entry.arity]
		p.used += entry.arity
		return p.reg.Load(tok, args)
	default:
		return nil, errors.NewUnknownKernelError(tok)
	}
}
