package gp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	jacobiMaxSweeps = 60
	jacobiTol       = 1e-15
)

// jacobiSVD factorizes the square matrix a as U · diag(s) · Vᵀ with
// one-sided (Hestenes) Jacobi rotations. Singular values are returned in
// descending order. Columns of U belonging to zero singular values are left
// zero.
func jacobiSVD(a *mat.Dense) (u *mat.Dense, s []float64, v *mat.Dense) {
	n, _ := a.Dims()

	// Work on columns so that each rotation touches two contiguous slices.
	w := make([][]float64, n)
	vc := make([][]float64, n)
	for j := 0; j < n; j++ {
		w[j] = mat.Col(nil, j, a)
		vc[j] = make([]float64, n)
		vc[j][j] = 1
	}

	for sweep := 0; sweep < jacobiMaxSweeps; sweep++ {
		rotated := false
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				alpha := floats.Dot(w[p], w[p])
				beta := floats.Dot(w[q], w[q])
				gamma := floats.Dot(w[p], w[q])
				if gamma == 0 || math.Abs(gamma) <= jacobiTol*math.Sqrt(alpha*beta) {
					continue
				}
				rotated = true

				zeta := (beta - alpha) / (2 * gamma)
				t := 1 / (math.Abs(zeta) + math.Sqrt(1+zeta*zeta))
				if zeta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(1+t*t)
				sn := c * t
				rotate(w[p], w[q], c, sn)
				rotate(vc[p], vc[q], c, sn)
			}
		}
		if !rotated {
			break
		}
	}

	order := make([]int, n)
	norms := make([]float64, n)
	for j := range order {
		order[j] = j
		norms[j] = floats.Norm(w[j], 2)
	}
	sort.SliceStable(order, func(i, j int) bool { return norms[order[i]] > norms[order[j]] })

	u = mat.NewDense(n, n, nil)
	v = mat.NewDense(n, n, nil)
	s = make([]float64, n)
	for k, j := range order {
		s[k] = norms[j]
		v.SetCol(k, vc[j])
		if s[k] == 0 {
			continue
		}
		col := make([]float64, n)
		floats.ScaleTo(col, 1/s[k], w[j])
		u.SetCol(k, col)
	}
	return u, s, v
}

// rotate applies the plane rotation [c -s; s c] to the column pair (x, y).
func rotate(x, y []float64, c, s float64) {
	for i := range x {
		xi, yi := x[i], y[i]
		x[i] = c*xi - s*yi
		y[i] = s*xi + c*yi
	}
}
