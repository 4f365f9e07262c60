package gp

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/gpr/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// epsilon is the float64 machine epsilon.
const epsilon = 0x1p-52

// InversionMethod selects how the regularized Gram matrix is inverted.
type InversionMethod int

const (
	// FullPivotLU inverts through an LU factorization. Fastest, least stable.
	FullPivotLU InversionMethod = iota
	// JacobiSVD builds a pseudo-inverse from a one-sided Jacobi SVD.
	// Slowest and most accurate; meant for small sample counts.
	JacobiSVD
	// BDCSVD builds a pseudo-inverse from a bidiagonalization based SVD.
	BDCSVD
	// SelfAdjointEigenSolver builds a pseudo-inverse from the symmetric
	// eigendecomposition. Requires a positive semi-definite matrix.
	SelfAdjointEigenSolver
)

var inversionNames = [...]string{
	FullPivotLU:            "FullPivotLU",
	JacobiSVD:              "JacobiSVD",
	BDCSVD:                 "BDCSVD",
	SelfAdjointEigenSolver: "SelfAdjointEigenSolver",
}

func (m InversionMethod) String() string {
	if m < 0 || int(m) >= len(inversionNames) {
		return fmt.Sprintf("InversionMethod(%d)", int(m))
	}
	return inversionNames[m]
}

// ParseInversionMethod parses a method name case-insensitively.
func ParseInversionMethod(s string) (InversionMethod, error) {
	for i, name := range inversionNames {
		if strings.EqualFold(s, name) {
			return InversionMethod(i), nil
		}
	}
	return 0, errors.NewValidationError("inversion method", "unknown method", s)
}

// inversion holds the result of inverting the regularized Gram matrix.
// spectrum is the singular or eigen values the pseudo-inverse was built
// from, in descending order; it is nil for FullPivotLU.
type inversion struct {
	inverse   *mat.Dense
	spectrum  []float64
	condition float64
}

// invert computes the (pseudo-)inverse of the symmetric matrix k.
func invert(k *mat.Dense, method InversionMethod) (*inversion, error) {
	switch method {
	case FullPivotLU:
		return invertLU(k)
	case JacobiSVD:
		u, s, v := jacobiSVD(k)
		return &inversion{inverse: pseudoInverse(v, s, u), spectrum: s}, nil
	case BDCSVD:
		return invertSVD(k)
	case SelfAdjointEigenSolver:
		return invertEigen(k)
	default:
		return nil, errors.NewValidationError("inversion method", "unknown method", int(method))
	}
}

func invertLU(k *mat.Dense) (*inversion, error) {
	var inv mat.Dense
	err := inv.Inverse(k)
	if err == nil {
		return &inversion{inverse: &inv}, nil
	}
	var cond mat.Condition
	if errors.As(err, &cond) {
		if math.IsInf(float64(cond), 1) {
			return nil, errors.Wrap(errors.ErrSingularMatrix, "LU factorization")
		}
		// The inverse was computed but may be inaccurate.
		return &inversion{inverse: &inv, condition: float64(cond)}, nil
	}
	return nil, errors.Wrap(err, "LU inverse")
}

func invertSVD(k *mat.Dense) (*inversion, error) {
	var svd mat.SVD
	if ok := svd.Factorize(k, mat.SVDThin); !ok {
		return nil, errors.NewModelError("GaussianProcess.Initialize", "SVD did not converge", errors.ErrSingularMatrix)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)
	return &inversion{inverse: pseudoInverse(&v, s, &u), spectrum: s}, nil
}

func invertEigen(k *mat.Dense) (*inversion, error) {
	n, _ := k.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, k.At(i, j))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, errors.NewModelError("GaussianProcess.Initialize", "eigendecomposition did not converge", errors.ErrSingularMatrix)
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	values := eig.Values(nil)

	// EigenSym returns ascending values; reverse values and vector columns.
	desc := make([]float64, n)
	v := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		desc[j] = values[n-1-j]
		v.SetCol(j, mat.Col(nil, n-1-j, &vecs))
	}
	return &inversion{inverse: pseudoInverse(v, desc, v), spectrum: desc}, nil
}

// pseudoInverse returns V · diag(1/s) · Uᵀ. Negative values keep their sign.
//
// This is not the plain reciprocal of every value: a value whose magnitude
// is at most max(n, 10)·ε times the largest contributes zero instead of 1/s.
// Such values are round-off of a rank-deficient matrix.
func pseudoInverse(v mat.Matrix, s []float64, u mat.Matrix) *mat.Dense {
	n, _ := v.Dims()
	var largest float64
	for _, x := range s {
		largest = math.Max(largest, math.Abs(x))
	}
	cutoff := float64(max(n, 10)) * epsilon * largest

	vs := mat.NewDense(n, len(s), nil)
	vs.Apply(func(i, j int, x float64) float64 {
		if math.Abs(s[j]) <= cutoff {
			return 0
		}
		return x / s[j]
	}, v)
	var out mat.Dense
	out.Mul(vs, u.T())
	return &out
}

// inversionError returns ‖K·C − I‖_F.
func inversionError(k, c *mat.Dense) float64 {
	var p mat.Dense
	p.Mul(k, c)
	n, _ := p.Dims()
	for i := 0; i < n; i++ {
		p.Set(i, i, p.At(i, i)-1)
	}
	return mat.Norm(&p, 2)
}
