package gp

import (
	"github.com/YuminosukeSato/gpr/core/model"
	"github.com/YuminosukeSato/gpr/kernel"
	"github.com/YuminosukeSato/gpr/metrics"
	"github.com/YuminosukeSato/gpr/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Estimator は float64 の GaussianProcess を行列 API で扱うアダプタ
//
// X と Y の各行が1サンプルに対応する。
type Estimator struct {
	GP *GaussianProcess[float64]
}

var (
	_ model.Regressor            = (*Estimator)(nil)
	_ model.UncertaintyPredictor = (*Estimator)(nil)
	_ model.Persistable          = (*Estimator)(nil)
	_ model.Digester             = (*Estimator)(nil)
)

// NewEstimator は kernel を持つ Estimator を作成する
func NewEstimator(k kernel.Kernel[float64], opts ...Option[float64]) *Estimator {
	return &Estimator{GP: New(k, opts...)}
}

// Fit は X と Y の各行をサンプルとして追加し、学習する
//
// 既存のサンプルには追加される。X と Y の次元が既存のサンプルと異なる
// 場合はどの行も追加しない。
func (e *Estimator) Fit(X, Y mat.Matrix) error {
	rx, cx := X.Dims()
	ry, cy := Y.Dims()
	if rx == 0 || cx == 0 || cy == 0 {
		return errors.NewModelError("Estimator.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != rx {
		return errors.NewValidationError("Y", "must have one row per row of X", ry)
	}
	// 行列の各行は同じ幅なので、1回の検査ですべての行を検証できる
	if err := e.GP.state.CheckSample("Estimator.Fit", cx, cy); err != nil {
		return err
	}

	x := make([]float64, cx)
	y := make([]float64, cy)
	for i := 0; i < rx; i++ {
		mat.Row(x, i, X)
		mat.Row(y, i, Y)
		if err := e.GP.AddSample(x, y); err != nil {
			return errors.Wrapf(err, "Estimator.Fit: row %d", i)
		}
	}
	return e.GP.Initialize()
}

// Predict は X の各行の事後平均を返す
func (e *Estimator) Predict(X mat.Matrix) (mat.Matrix, error) {
	mean, _, err := e.predict(X, false)
	if err != nil {
		return nil, err
	}
	return mean, nil
}

// PredictWithInterval は X の各行の事後平均と信用区間の幅を返す
func (e *Estimator) PredictWithInterval(X mat.Matrix) (mat.Matrix, []float64, error) {
	mean, widths, err := e.predict(X, true)
	if err != nil {
		return nil, nil, err
	}
	return mean, widths, nil
}

func (e *Estimator) predict(X mat.Matrix, interval bool) (*mat.Dense, []float64, error) {
	if err := e.GP.Initialize(); err != nil {
		return nil, nil, err
	}
	r, c := X.Dims()
	if r == 0 {
		return nil, nil, errors.NewModelError("Estimator.Predict", "empty data", errors.ErrEmptyData)
	}

	out := mat.NewDense(r, e.GP.OutputDim(), nil)
	var widths []float64
	if interval {
		widths = make([]float64, r)
	}
	x := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(x, i, X)
		y, err := e.GP.Predict(x)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Estimator.Predict: row %d", i)
		}
		out.SetRow(i, y)
		if interval {
			if widths[i], err = e.GP.CredibleInterval(x); err != nil {
				return nil, nil, errors.Wrapf(err, "Estimator.Predict: row %d", i)
			}
		}
	}
	return out, widths, nil
}

// Score は R² を出力の列ごとに計算した平均を返す
func (e *Estimator) Score(X, Y mat.Matrix) (float64, error) {
	pred, err := e.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(Y, pred)
}

// Save は GaussianProcess.Save に委譲する
func (e *Estimator) Save(prefix string) error { return e.GP.Save(prefix) }

// Load は GaussianProcess.Load に委譲する
func (e *Estimator) Load(prefix string) error { return e.GP.Load(prefix) }

// Digest は GaussianProcess.Digest に委譲する
func (e *Estimator) Digest() uint64 { return e.GP.Digest() }
