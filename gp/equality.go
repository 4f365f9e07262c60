package gp

import (
	"io"
	"math"

	"github.com/YuminosukeSato/gpr/kernel"
	"github.com/YuminosukeSato/gpr/pkg/log"
	"github.com/YuminosukeSato/gpr/pkg/matio"
	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"
)

// Equal は2つのモデルが厳密に等しいかを返す
//
// 回帰係数、コア行列、サンプル、ラベル、カーネル、σ、学習状態、次元、
// デバッグフラグを誤差なしで比較する。保存と読み込みの往復を検証する
// ためのもので、異なる環境で学習したモデルの比較には EqualApprox を使う。
// 逆行列の計算方法は保存されないため比較しない。
func (g *GaussianProcess[T]) Equal(o *GaussianProcess[T]) bool {
	return g.compare(o, 0)
}

// EqualApprox は Equal と同じ項目を、各要素の絶対誤差 tol 以内で比較する
func (g *GaussianProcess[T]) EqualApprox(o *GaussianProcess[T], tol float64) bool {
	return g.compare(o, tol)
}

func (g *GaussianProcess[T]) compare(o *GaussianProcess[T], tol float64) bool {
	if o == nil {
		return false
	}
	if g == o {
		return true
	}
	logger := g.logger.With(log.OperationKey, log.OperationCompare)
	differ := func(what string) bool {
		if g.debug {
			logger.Debug(what + " not equal")
		}
		return false
	}

	if !denseEqual(g.regression, o.regression, tol) {
		return differ("regression vectors")
	}
	if !denseEqual(g.core, o.core, tol) {
		return differ("core matrices")
	}
	if len(g.samples) != len(o.samples) {
		return differ("number of sample vectors")
	}
	for i := range g.samples {
		if !vectorEqual(g.samples[i], o.samples[i], tol) {
			return differ("sample vectors")
		}
	}
	if len(g.labels) != len(o.labels) {
		return differ("number of label vectors")
	}
	for i := range g.labels {
		if !vectorEqual(g.labels[i], o.labels[i], tol) {
			return differ("label vectors")
		}
	}
	if !kernelEqual(g.kernel, o.kernel, tol) {
		return differ("kernel")
	}
	if !within(float64(g.sigma), float64(o.sigma), tol) {
		return differ("sigma")
	}
	if g.state.IsTrained() != o.state.IsTrained() {
		return differ("initialization state")
	}
	if g.InputDim() != o.InputDim() {
		return differ("input dimension")
	}
	if g.OutputDim() != o.OutputDim() {
		return differ("output dimension")
	}
	if g.debug != o.debug {
		return differ("debug state")
	}
	if g.debug {
		logger.Debug("models are equal")
	}
	return true
}

func within(a, b, tol float64) bool {
	if tol == 0 {
		return a == b
	}
	return math.Abs(a-b) <= tol
}

func denseEqual(a, b *mat.Dense, tol float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if tol == 0 {
		return mat.Equal(a, b)
	}
	return mat.EqualApprox(a, b, tol)
}

func vectorEqual[T kernel.Float](a, b []T, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !within(float64(a[i]), float64(b[i]), tol) {
			return false
		}
	}
	return true
}

// kernelEqual uses the kernel's own structural equality for exact
// comparison and tag plus parameters otherwise.
func kernelEqual[T kernel.Float](a, b kernel.Kernel[T], tol float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if tol == 0 {
		return a.Equal(b)
	}
	return a.Tag() == b.Tag() && vectorEqual(a.Parameters(), b.Parameters(), tol)
}

// Digest は保存されるファイルの内容から計算した xxhash を返す
//
// Save と同じ表現をハッシュするため、往復したモデルは同じ値になる。
// 未学習のモデルでは回帰係数とコア行列を含めない。
func (g *GaussianProcess[T]) Digest() uint64 {
	h := xxhash.New()
	bits := kernel.BitSize[T]()
	if g.kernel != nil {
		io.WriteString(h, g.parameterLine())
	}
	io.WriteString(h, "\n")
	if g.state.IsTrained() {
		matio.Write(h, g.regression, bits)
		matio.Write(h, g.core, bits)
	}
	if len(g.samples) > 0 {
		matio.Write(h, columns(g.samples, g.InputDim()), bits)
		matio.Write(h, columns(g.labels, g.OutputDim()), bits)
	}
	return h.Sum64()
}
