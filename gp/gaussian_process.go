// Package gp implements Gaussian process regression over vector-valued
// inputs and outputs.
//
// A GaussianProcess accumulates samples with AddSample and trains lazily:
// every query first calls Initialize, which rebuilds the regularized Gram
// matrix, inverts it and derives the regression coefficients only when the
// sample set or the hyperparameters changed since the last training.
package gp

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/YuminosukeSato/gpr/core/model"
	"github.com/YuminosukeSato/gpr/core/parallel"
	"github.com/YuminosukeSato/gpr/kernel"
	"github.com/YuminosukeSato/gpr/pkg/errors"
	"github.com/YuminosukeSato/gpr/pkg/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

const modelName = "GaussianProcess"

// GaussianProcess はガウス過程回帰モデル
//
// 行列演算は float64 で行い、保持する学習結果 (コア行列 C と回帰係数 R)
// は T の精度に丸める。これにより T の精度で保存したファイルを読み戻すと
// ビット単位で同じ状態になる。
type GaussianProcess[T kernel.Float] struct {
	kernel   kernel.Kernel[T]
	registry *kernel.Registry[T]

	samples [][]T // 入力ベクトル (挿入順)
	labels  [][]T // 出力ベクトル (挿入順)

	sigma  T
	method InversionMethod
	debug  bool

	core       *mat.Dense // C = (K + σI)^-1, n×n
	regression *mat.Dense // R = C·Y, n×D_out

	state             *model.StateManager
	parallelThreshold int

	id         string
	baseLogger log.Logger
	logger     log.Logger
}

// New は kernel を持つ未学習の GaussianProcess を作成する
//
// σ の既定値は 0、逆行列の計算方法の既定値は FullPivotLU。
func New[T kernel.Float](k kernel.Kernel[T], opts ...Option[T]) *GaussianProcess[T] {
	g := &GaussianProcess[T]{
		kernel:            k,
		method:            FullPivotLU,
		state:             model.NewStateManager(),
		parallelThreshold: DefaultParallelThreshold,
		id:                uuid.NewString(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.registry == nil {
		g.registry = kernel.Default[T]()
	}
	if g.baseLogger == nil {
		g.baseLogger = log.GetLogger()
	}
	g.logger = g.baseLogger.With(
		log.ModelNameKey, modelName,
		log.EstimatorIDKey, g.id,
	)
	return g
}

// AddSample は入力 x とラベル y の組を追加し、学習状態を無効にする
//
// 最初の呼び出しで入力次元と出力次元が決まる。次元が異なる場合は
// DimensionError を返し、状態は変更しない。
func (g *GaussianProcess[T]) AddSample(x, y []T) error {
	if len(x) == 0 || len(y) == 0 {
		return errors.NewModelError("GaussianProcess.AddSample", "empty sample", errors.ErrEmptyData)
	}
	if err := g.state.CheckSample("GaussianProcess.AddSample", len(x), len(y)); err != nil {
		if g.debug {
			g.logger.Warn("sample rejected",
				log.OperationKey, log.OperationAddSample,
				log.ErrorCodeKey, log.ErrorDimension,
				log.ErrAttrKey, err,
			)
		}
		return err
	}
	g.samples = append(g.samples, append([]T(nil), x...))
	g.labels = append(g.labels, append([]T(nil), y...))
	g.state.AddSample(len(x), len(y))
	return nil
}

// Initialize は学習状態が古い場合に回帰係数を再計算する
//
//  1. グラム行列 K_ij = k(x_i, x_j) を構築 (対称性を利用して j ≥ i のみ評価)
//  2. 対角に σ を加える
//  3. 設定された方法で逆行列 C を計算
//  4. ラベル行列 Y を構築し R = C·Y を計算
func (g *GaussianProcess[T]) Initialize() (err error) {
	defer errors.Recover(&err, "GaussianProcess.Initialize")

	if g.state.IsTrained() {
		return nil
	}
	n := len(g.samples)
	if n == 0 {
		return errors.NewNotFittedError(modelName, "Initialize", "no input samples defined")
	}
	if len(g.labels) == 0 {
		return errors.NewNotFittedError(modelName, "Initialize", "no output labels defined")
	}
	if g.kernel == nil {
		return errors.NewValidationError("kernel", "must not be nil", nil)
	}

	start := time.Now()
	logger := g.logger.With(log.OperationKey, log.OperationInitialize)
	if g.debug {
		in, out, _ := g.state.Dimensions()
		logger.Debug("building kernel matrix",
			log.SamplesKey, n,
			log.InputDimKey, in,
			log.OutputDimKey, out,
			log.KernelKey, g.kernel.Tag(),
			log.KernelParamsKey, g.kernel.Parameters(),
			log.SigmaKey, float64(g.sigma),
		)
	}

	k := g.gramMatrix()
	for i := 0; i < n; i++ {
		k.Set(i, i, k.At(i, i)+float64(g.sigma))
	}

	if g.debug {
		logger.Debug("inverting kernel matrix", log.InversionMethodKey, g.method.String())
	}
	inv, err := invert(k, g.method)
	if err != nil {
		if errors.Is(err, errors.ErrSingularMatrix) {
			g.logFailure(logger, "kernel matrix inversion failed", err, log.ErrorCodeKey, log.ErrorSingularMatrix)
		}
		return errors.Wrapf(err, "GaussianProcess.Initialize: %s", g.method)
	}
	g.reportInversion(logger, k, inv)

	y := g.labelMatrix()
	var r mat.Dense
	r.Mul(inv.inverse, y)

	roundTo[T](inv.inverse)
	roundTo[T](&r)
	g.core = inv.inverse
	g.regression = &r
	g.state.SetTrained()

	if g.debug {
		logger.Debug("training complete",
			log.SamplesKey, n,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
	return nil
}

// logFailure records an error that is also returned to the caller.
// Nothing is logged unless debug is on.
func (g *GaussianProcess[T]) logFailure(logger log.Logger, msg string, err error, fields ...any) {
	if !g.debug {
		return
	}
	logger.Error(msg, append([]any{err}, fields...)...)
}

// reportInversion surfaces non-fatal numerical problems of an inversion.
// Nothing is reported unless debug is on.
func (g *GaussianProcess[T]) reportInversion(logger log.Logger, k *mat.Dense, inv *inversion) {
	if !g.debug {
		return
	}
	if inv.condition > 0 {
		w := errors.NewNumericalWarning("GaussianProcess.Initialize", "kernel matrix is ill-conditioned", inv.condition)
		errors.Warn(w)
		logger.Warn("kernel matrix is ill-conditioned", "condition", inv.condition, log.ErrorCodeKey, log.ErrorInstability)
	}
	if err := errors.CheckNumericalStability("GaussianProcess.Initialize", inv.spectrum); err != nil {
		errors.Warn(err)
		logger.Warn("spectrum has non-finite values", log.ErrorCodeKey, log.ErrorInstability)
	}
	if neg := errors.NegativeValues(inv.spectrum); len(neg) > 0 {
		w := errors.NewNumericalWarning("GaussianProcess.Initialize", "there are negative eigenvalues", neg...)
		errors.Warn(w)
		logger.Warn("there are negative eigenvalues", "count", len(neg), log.ErrorCodeKey, log.ErrorInstability)
	}
	if err := errors.CheckMatrix("GaussianProcess.Initialize", inv.inverse); err != nil {
		errors.Warn(err)
		logger.Warn("core matrix has non-finite entries", log.ErrorCodeKey, log.ErrorInstability)
	}
	// ‖K·C − I‖ costs another n³ product.
	if logger.Enabled(context.Background(), log.LevelDebug) {
		logger.Debug("inversion done", log.InversionErrorKey, inversionError(k, inv.inverse))
	}
}

// gramMatrix builds K_ij = k(x_i, x_j). Row i writes the cells (i, j) and
// (j, i) for j ≥ i only, so rows can be computed concurrently.
func (g *GaussianProcess[T]) gramMatrix() *mat.Dense {
	n := len(g.samples)
	k := mat.NewDense(n, n, nil)
	workers := parallel.Interleaved(n, g.parallelThreshold, func(i int) {
		for j := i; j < n; j++ {
			v := float64(g.kernel.Evaluate(g.samples[i], g.samples[j]))
			k.Set(i, j, v)
			k.Set(j, i, v)
		}
	})
	if g.debug && workers > 1 {
		g.logger.Debug("kernel matrix built in parallel", log.WorkersKey, workers)
	}
	return k
}

// labelMatrix stacks the labels as rows of an n×D_out matrix.
func (g *GaussianProcess[T]) labelMatrix() *mat.Dense {
	_, outDim, n := g.state.Dimensions()
	y := mat.NewDense(n, outDim, nil)
	for i, l := range g.labels {
		for j, v := range l {
			y.Set(i, j, float64(v))
		}
	}
	return y
}

// kernelVector returns Kx_i = k(x, x_i).
func (g *GaussianProcess[T]) kernelVector(x []T) *mat.VecDense {
	n := len(g.samples)
	kx := mat.NewVecDense(n, nil)
	parallel.For(n, g.parallelThreshold, func(i int) {
		kx.SetVec(i, float64(g.kernel.Evaluate(x, g.samples[i])))
	})
	return kx
}

// prepare trains if needed and validates the size of x.
func (g *GaussianProcess[T]) prepare(op string, x []T) error {
	if err := g.Initialize(); err != nil {
		return err
	}
	return g.state.CheckInput(op, len(x))
}

// Predict は x における事後平均 Kxᵀ·R を返す
func (g *GaussianProcess[T]) Predict(x []T) ([]T, error) {
	if err := g.prepare("GaussianProcess.Predict", x); err != nil {
		return nil, err
	}
	kx := g.kernelVector(x)

	var mean mat.VecDense
	mean.MulVec(g.regression.T(), kx)
	return toT[T](mean.RawVector().Data), nil
}

// PredictDerivative は事後平均と、入力に関する勾配行列 D (D_in×D_out) を返す
//
// カーネルが kernel.Gradienter を実装していれば D[:,j] = Σ_i ∇k(x, x_i)·R_ij
// を計算する。そうでなければ等方的なカーネルを仮定した
// D[:,j] = -Xᵀ(Kx ⊙ R[:,j]) (X の第 i 行は x - x_i) を使う。
func (g *GaussianProcess[T]) PredictDerivative(x []T) ([]T, [][]T, error) {
	if err := g.prepare("GaussianProcess.PredictDerivative", x); err != nil {
		return nil, nil, err
	}
	inDim, outDim, n := g.state.Dimensions()
	kx := g.kernelVector(x)

	var mean mat.VecDense
	mean.MulVec(g.regression.T(), kx)

	d := mat.NewDense(inDim, outDim, nil)
	if grad, ok := g.kernelGradients(x); ok {
		// G は第 i 行が ∇k(x, x_i) の n×D_in 行列
		d.Mul(grad.T(), g.regression)
	} else {
		diff := mat.NewDense(n, inDim, nil)
		for i, s := range g.samples {
			for a := 0; a < inDim; a++ {
				diff.Set(i, a, float64(x[a])-float64(s[a]))
			}
		}
		weighted := mat.NewDense(n, outDim, nil)
		weighted.Apply(func(i, j int, r float64) float64 {
			return -kx.AtVec(i) * r
		}, g.regression)
		d.Mul(diff.T(), weighted)
	}

	out := make([][]T, inDim)
	for a := range out {
		out[a] = toT[T](d.RawRowView(a))
	}
	return toT[T](mean.RawVector().Data), out, nil
}

// kernelGradients returns the n×D_in matrix of ∇ₓk(x, x_i), or false when
// the kernel cannot supply an analytic gradient.
func (g *GaussianProcess[T]) kernelGradients(x []T) (*mat.Dense, bool) {
	gr, ok := g.kernel.(kernel.Gradienter[T])
	if !ok {
		return nil, false
	}
	n := len(g.samples)
	m := mat.NewDense(n, len(x), nil)
	failed := make([]bool, n)
	parallel.For(n, g.parallelThreshold, func(i int) {
		grad, ok := gr.Gradient(x, g.samples[i])
		if !ok {
			failed[i] = true
			return
		}
		for a, v := range grad {
			m.Set(i, a, float64(v))
		}
	})
	for _, f := range failed {
		if f {
			return nil, false
		}
	}
	return m, true
}

// Covariance は RKHS 内積 (事後共分散) k(x, y) - Kxᵀ·C·Ky を返す
func (g *GaussianProcess[T]) Covariance(x, y []T) (T, error) {
	if err := g.prepare("GaussianProcess.Covariance", x); err != nil {
		return 0, err
	}
	if err := g.state.CheckInput("GaussianProcess.Covariance", len(y)); err != nil {
		return 0, err
	}
	kx := g.kernelVector(x)
	ky := g.kernelVector(y)

	var cky mat.VecDense
	cky.MulVec(g.core, ky)
	return T(float64(g.kernel.Evaluate(x, y)) - mat.Dot(kx, &cky)), nil
}

// CredibleInterval は x における信用区間の幅 2·sqrt(max(0, cov(x, x))) を返す
//
// 逆行列の誤差で事後分散が僅かに負になる場合は 0 に切り詰める。
func (g *GaussianProcess[T]) CredibleInterval(x []T) (T, error) {
	c, err := g.Covariance(x, x)
	if err != nil {
		return 0, err
	}
	if c < 0 && g.debug {
		errors.Warn(errors.NewNumericalWarning("GaussianProcess.CredibleInterval", "prediction is instable", float64(c)))
		g.logger.Warn("prediction is instable",
			log.OperationKey, log.OperationInterval,
			"variance", float64(c),
			log.ErrorCodeKey, log.ErrorInstability,
		)
	}
	return T(2 * math.Sqrt(errors.ClipValue(float64(c), 0, math.Inf(1)))), nil
}

// NumSamples はサンプル数を返す
func (g *GaussianProcess[T]) NumSamples() int { return len(g.samples) }

// InputDim は入力次元を返す。サンプルがない場合は 0
func (g *GaussianProcess[T]) InputDim() int {
	in, _, _ := g.state.Dimensions()
	return in
}

// OutputDim は出力次元を返す。サンプルがない場合は 0
func (g *GaussianProcess[T]) OutputDim() int {
	_, out, _ := g.state.Dimensions()
	return out
}

// Sigma はノイズ σ を返す
func (g *GaussianProcess[T]) Sigma() T { return g.sigma }

// SetSigma はノイズ σ を設定し、学習状態を無効にする
func (g *GaussianProcess[T]) SetSigma(sigma T) {
	g.sigma = sigma
	g.state.Invalidate()
}

// Kernel はカーネルを返す
func (g *GaussianProcess[T]) Kernel() kernel.Kernel[T] { return g.kernel }

// SetKernel はカーネルを差し替え、学習状態を無効にする
func (g *GaussianProcess[T]) SetKernel(k kernel.Kernel[T]) {
	g.kernel = k
	g.state.Invalidate()
}

// InversionMethod は逆行列の計算方法を返す
func (g *GaussianProcess[T]) InversionMethod() InversionMethod { return g.method }

// SetInversionMethod は逆行列の計算方法を設定し、学習状態を無効にする
func (g *GaussianProcess[T]) SetInversionMethod(m InversionMethod) {
	g.method = m
	g.state.Invalidate()
}

// DebugOn は診断出力を有効にする
func (g *GaussianProcess[T]) DebugOn() { g.debug = true }

// Debug は診断出力が有効かどうかを返す
func (g *GaussianProcess[T]) Debug() bool { return g.debug }

// IsTrained は学習結果が現在のサンプルとパラメータに対応しているかを返す
func (g *GaussianProcess[T]) IsTrained() bool { return g.state.IsTrained() }

// ID はログに出力される推定器の識別子を返す
func (g *GaussianProcess[T]) ID() string { return g.id }

func (g *GaussianProcess[T]) String() string {
	var b strings.Builder
	in, out, n := g.state.Dimensions()
	fmt.Fprintf(&b, "Gaussian Process\n")
	fmt.Fprintf(&b, " - initialized:\t\t%t\n", g.state.IsTrained())
	fmt.Fprintf(&b, " - # samples:\t\t%d\n", n)
	fmt.Fprintf(&b, " - # labels:\t\t%d\n", len(g.labels))
	fmt.Fprintf(&b, " - noise:\t\t%v\n", g.sigma)
	fmt.Fprintf(&b, " - input dimension:\t%d\n", in)
	fmt.Fprintf(&b, " - output dimension:\t%d\n", out)
	fmt.Fprintf(&b, " - inversion method:\t%s\n", g.method)
	if g.kernel != nil {
		fmt.Fprintf(&b, " - kernel:\t\t%s\n", g.kernel.Tag())
		fmt.Fprintf(&b, " - kernel parameters:\t%v\n", g.kernel.Parameters())
	}
	return b.String()
}

// roundTo rounds every element of m to the precision of T.
func roundTo[T kernel.Float](m *mat.Dense) {
	raw := m.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j, v := range row {
			row[j] = float64(T(v))
		}
	}
}

func toT[T kernel.Float](v []float64) []T {
	out := make([]T, len(v))
	for i, x := range v {
		out[i] = T(x)
	}
	return out
}
