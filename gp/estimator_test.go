package gp

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/gpr/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sineData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	Y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := 2 * math.Pi * float64(i) / float64(n-1)
		X.Set(i, 0, x)
		Y.Set(i, 0, math.Sin(x))
	}
	return X, Y
}

func TestEstimatorFitPredict(t *testing.T) {
	X, Y := sineData(30)
	est := NewEstimator(gaussian(t, 0.8, 1), WithSigma(1e-4), WithLogger[float64](quietLogger()))
	require.NoError(t, est.Fit(X, Y))
	assert.True(t, est.GP.IsTrained())
	assert.Equal(t, 30, est.GP.NumSamples())

	score, err := est.Score(X, Y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.99)

	query := mat.NewDense(3, 1, []float64{0.3, 1.7, 4.1})
	pred, err := est.Predict(query)
	require.NoError(t, err)
	r, c := pred.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, math.Sin(query.At(i, 0)), pred.At(i, 0), 1e-2)
	}
}

func TestEstimatorPredictWithInterval(t *testing.T) {
	X, Y := sineData(12)
	est := NewEstimator(gaussian(t, 1, 1), WithSigma(0.01), WithLogger[float64](quietLogger()))
	require.NoError(t, est.Fit(X, Y))

	query := mat.NewDense(2, 1, []float64{X.At(3, 0), 50})
	mean, widths, err := est.PredictWithInterval(query)
	require.NoError(t, err)
	require.Len(t, widths, 2)
	for _, w := range widths {
		assert.GreaterOrEqual(t, w, 0.0)
	}
	// Far from the data the interval approaches twice the prior deviation.
	assert.Less(t, widths[0], widths[1])
	assert.InDelta(t, 2.0, widths[1], 1e-6)
	assert.InDelta(t, 0.0, mean.At(1, 0), 1e-6)
}

func TestEstimatorFitErrors(t *testing.T) {
	est := NewEstimator(gaussian(t, 1, 1), WithLogger[float64](quietLogger()))

	err := est.Fit(mat.NewDense(3, 1, nil), mat.NewDense(2, 1, nil))
	var vErr *errors.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, 0, est.GP.NumSamples())

	require.NoError(t, est.Fit(mat.NewDense(2, 2, []float64{0, 1, 1, 0}), mat.NewDense(2, 1, []float64{1, 2})))

	err = est.Fit(mat.NewDense(1, 3, nil), mat.NewDense(1, 1, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, errors.InputVector, dimErr.Kind)
	assert.Equal(t, 2, est.GP.NumSamples())
}

func TestEstimatorPredictErrors(t *testing.T) {
	est := NewEstimator(gaussian(t, 1, 1), WithLogger[float64](quietLogger()))
	_, err := est.Predict(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf), "predicting without samples")

	X, Y := sineData(5)
	require.NoError(t, est.Fit(X, Y))
	_, err = est.Predict(&mat.Dense{})
	assert.ErrorIs(t, err, errors.ErrEmptyData)
	_, err = est.Predict(mat.NewDense(1, 2, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestEstimatorSaveLoad(t *testing.T) {
	X, Y := sineData(10)
	est := NewEstimator(periodic(t, 1, 5, 1), WithSigma(0.01), WithLogger[float64](quietLogger()))
	require.NoError(t, est.Fit(X, Y))

	prefix := filepath.Join(t.TempDir(), "est")
	require.NoError(t, est.Save(prefix))

	restored := NewEstimator(gaussian(t, 1, 1), WithLogger[float64](quietLogger()))
	require.NoError(t, restored.Load(prefix))
	assert.Equal(t, est.Digest(), restored.Digest())

	a, err := est.Predict(X)
	require.NoError(t, err)
	b, err := restored.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestEstimatorFitRejectsWholeBatch(t *testing.T) {
	est := NewEstimator(gaussian(t, 1, 1), WithLogger[float64](quietLogger()))
	X, Y := sineData(4)
	require.NoError(t, est.Fit(X, Y))
	digest := est.Digest()

	// Three rows with a two-dimensional output: none of them may be added.
	err := est.Fit(mat.NewDense(3, 1, []float64{7, 8, 9}), mat.NewDense(3, 2, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, errors.OutputVector, dimErr.Kind)
	assert.Equal(t, 4, est.GP.NumSamples())
	assert.True(t, est.GP.IsTrained())
	assert.Equal(t, digest, est.Digest())
}
